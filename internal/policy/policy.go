// Package policy decides what anonymous visitors, members and admins may do.
package policy

import (
	"indorunners-backend-go/internal/apperr"
	"indorunners-backend-go/internal/models"
)

// Caller is the identity a request acts as. The zero value is anonymous.
type Caller struct {
	UserID string
	Email  string
	Role   models.Role
}

func Anonymous() Caller {
	return Caller{}
}

func Member(userID string) Caller {
	return Caller{UserID: userID, Role: models.RoleMember}
}

func Admin(userID string) Caller {
	return Caller{UserID: userID, Role: models.RoleAdmin}
}

func (c Caller) IsAnonymous() bool {
	return c.UserID == ""
}

func (c Caller) IsAdmin() bool {
	return !c.IsAnonymous() && c.Role == models.RoleAdmin
}

type tier int

const (
	tierAnonymous tier = iota
	tierMember
	tierAdmin
)

func (c Caller) tier() tier {
	switch {
	case c.IsAnonymous():
		return tierAnonymous
	case c.Role == models.RoleAdmin:
		return tierAdmin
	default:
		return tierMember
	}
}

type Action string

const (
	ListPublicEvents         Action = "events.list_public"
	ViewPublicEvent          Action = "events.view_public"
	SubmitPublicRegistration Action = "registrations.submit_public"
	UploadPaymentProof       Action = "media.upload_payment_proof"

	ViewProfile              Action = "profile.view"
	SubmitMemberRegistration Action = "registrations.submit_member"
	ListOwnRegistrations     Action = "registrations.list_own"
	RecordAttendance         Action = "attendance.record"
	ListAttendance           Action = "attendance.list"
	ListActivities           Action = "activities.list"
	ViewStatistics           Action = "statistics.view"
	ViewMedia                Action = "media.view"

	ManageEvents           Action = "events.manage"
	ManageActivities       Action = "activities.manage"
	ListRegistrations      Action = "registrations.list"
	TransitionRegistration Action = "registrations.transition"
	RecordAnyAttendance    Action = "attendance.record_any"
	ViewMetrics            Action = "metrics.view"
	ListUsers              Action = "users.list"
)

var capabilities = map[Action]tier{
	ListPublicEvents:         tierAnonymous,
	ViewPublicEvent:          tierAnonymous,
	SubmitPublicRegistration: tierAnonymous,
	UploadPaymentProof:       tierAnonymous,

	ViewProfile:              tierMember,
	SubmitMemberRegistration: tierMember,
	ListOwnRegistrations:     tierMember,
	RecordAttendance:         tierMember,
	ListAttendance:           tierMember,
	ListActivities:           tierMember,
	ViewStatistics:           tierMember,
	ViewMedia:                tierMember,

	ManageEvents:           tierAdmin,
	ManageActivities:       tierAdmin,
	ListRegistrations:      tierAdmin,
	TransitionRegistration: tierAdmin,
	RecordAnyAttendance:    tierAdmin,
	ViewMetrics:            tierAdmin,
	ListUsers:              tierAdmin,
}

// Policy carries the switches that differ between deployments.
type Policy struct {
	// ScopeAdminsToOwnRecords limits admins to the events and activities
	// they created.
	ScopeAdminsToOwnRecords bool
}

// Authorize fails with Forbidden when the caller's tier is below what the
// action needs. Unknown actions are denied.
func (p Policy) Authorize(c Caller, action Action) error {
	need, ok := capabilities[action]
	if !ok || c.tier() < need {
		return apperr.ErrForbidden
	}
	return nil
}

// Allowed is Authorize as a predicate.
func (p Policy) Allowed(c Caller, action Action) bool {
	return p.Authorize(c, action) == nil
}

// RequireOwner checks that an admin created the record when ownership
// scoping is on.
func (p Policy) RequireOwner(c Caller, ownerID string) error {
	if !c.IsAdmin() {
		return apperr.ErrForbidden
	}
	if p.ScopeAdminsToOwnRecords && c.UserID != ownerID {
		return apperr.ErrForbidden
	}
	return nil
}

// OwnerFilter is the created_by value queries restrict to, or "" when the
// caller may see every record.
func (p Policy) OwnerFilter(c Caller) string {
	if p.ScopeAdminsToOwnRecords {
		return c.UserID
	}
	return ""
}

// ActOnSubject checks that the caller may act for subjectUserID: admins for
// anyone, members only for themselves.
func (p Policy) ActOnSubject(c Caller, subjectUserID string) error {
	if c.IsAnonymous() {
		return apperr.ErrForbidden
	}
	if c.IsAdmin() || c.UserID == subjectUserID {
		return nil
	}
	return apperr.ErrForbidden
}

// ScopeUserFilter returns the user id a listing may filter on. Non-admins
// are always pinned to themselves whatever they asked for.
func ScopeUserFilter(c Caller, requested string) string {
	if c.IsAdmin() {
		return requested
	}
	return c.UserID
}
