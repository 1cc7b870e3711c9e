package models

import "strings"

// Identity is the deduplication key of a registration: an authenticated
// member or a contact email from the public form.
type Identity interface {
	// Key is the value stored in registrations.identity_key.
	Key() string
	isIdentity()
}

type MemberIdentity struct {
	UserID string
}

func (m MemberIdentity) Key() string {
	return "user:" + strings.TrimSpace(m.UserID)
}

func (MemberIdentity) isIdentity() {}

type ContactIdentity struct {
	Email string
}

func (c ContactIdentity) Key() string {
	return "email:" + NormalizeEmail(c.Email)
}

func (ContactIdentity) isIdentity() {}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
