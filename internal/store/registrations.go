package store

import (
	"context"
	"strings"
	"time"

	"indorunners-backend-go/internal/models"
)

const registrationColumns = `r.id, r.registration_code, r.event_id, r.user_id, r.identity_key, r.full_name,
  r.email, r.phone, r.birth_date, r.gender, r.emergency_contact_name, r.emergency_contact_phone,
  r.special_needs, r.shirt_size, r.payment_proof_id, r.status, r.registered_at, r.updated_at`

const registrationDetailColumns = registrationColumns + `,
  e.title AS event_title, e.event_date AS event_date, e.location AS event_location,
  e.registration_fee AS registration_fee, e.created_by AS event_owner`

type RegistrationFilter struct {
	EventID    string
	Status     *models.RegistrationStatus
	UserID     string
	EventOwner string
	// ExcludeCancelled drops cancelled rows when Status is unset.
	ExcludeCancelled bool
	Limit            int
}

func (f RegistrationFilter) where() (string, []interface{}) {
	where := []string{"1=1"}
	args := []interface{}{}
	if f.EventID != "" {
		where = append(where, "r.event_id = ?")
		args = append(args, f.EventID)
	}
	if f.Status != nil {
		where = append(where, "r.status = ?")
		args = append(args, string(*f.Status))
	} else if f.ExcludeCancelled {
		where = append(where, "r.status <> 'cancelled'")
	}
	if f.UserID != "" {
		where = append(where, "r.user_id = ?")
		args = append(args, f.UserID)
	}
	if f.EventOwner != "" {
		where = append(where, "e.created_by = ?")
		args = append(args, f.EventOwner)
	}
	return strings.Join(where, " AND "), args
}

func (q *Queries) InsertRegistration(ctx context.Context, r models.Registration) error {
	_, err := q.exec(ctx, `
INSERT INTO registrations (
  id, registration_code, event_id, user_id, identity_key, full_name, email, phone, birth_date,
  gender, emergency_contact_name, emergency_contact_phone, special_needs, shirt_size,
  payment_proof_id, status, registered_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Code, r.EventID, r.UserID, r.IdentityKey, r.FullName, r.Email, r.Phone, normalizePtr(r.BirthDate),
		r.Gender, r.EmergencyContactName, r.EmergencyContactPhone, r.SpecialNeeds, r.ShirtSize,
		r.PaymentProofID, string(r.Status), normalize(r.RegisteredAt), normalize(r.UpdatedAt))
	return wrap("insert registration", err)
}

func (q *Queries) FindRegistration(ctx context.Context, id string) (models.RegistrationDetail, error) {
	var r models.RegistrationDetail
	err := q.get(ctx, &r, `
SELECT `+registrationDetailColumns+`
FROM registrations r
JOIN events e ON e.id = r.event_id
WHERE r.id = ?`, id)
	return r, wrap("find registration", err)
}

// LockRegistration reads the registration row and holds its lock until the
// transaction ends.
func (q *Queries) LockRegistration(ctx context.Context, id string) (models.Registration, error) {
	var r models.Registration
	err := q.get(ctx, &r, `SELECT `+registrationColumns+` FROM registrations r WHERE r.id = ?`+q.lockSuffix, id)
	return r, wrap("lock registration", err)
}

// ActiveRegistrationExists reports whether identityKey already holds a
// non-cancelled registration for the event.
func (q *Queries) ActiveRegistrationExists(ctx context.Context, eventID, identityKey string) (bool, error) {
	var n int
	err := q.get(ctx, &n, `
SELECT COUNT(*) FROM registrations
WHERE event_id = ? AND identity_key = ? AND status <> 'cancelled'`, eventID, identityKey)
	return n > 0, wrap("check registration", err)
}

// PaymentProofInUse reports whether a live registration already carries the
// asset as its proof.
func (q *Queries) PaymentProofInUse(ctx context.Context, assetID string) (bool, error) {
	var n int
	err := q.get(ctx, &n, `
SELECT COUNT(*) FROM registrations
WHERE payment_proof_id = ? AND status <> 'cancelled'`, assetID)
	return n > 0, wrap("check payment proof", err)
}

func (q *Queries) CountActiveRegistrations(ctx context.Context, eventID string) (int, error) {
	var n int
	err := q.get(ctx, &n, `
SELECT COUNT(*) FROM registrations WHERE event_id = ? AND status <> 'cancelled'`, eventID)
	return n, wrap("count registrations", err)
}

// CompareAndSetRegistrationStatus moves the registration from one status to
// another. Zero rows affected means the status changed underneath.
func (q *Queries) CompareAndSetRegistrationStatus(ctx context.Context, id string, from, to models.RegistrationStatus, now time.Time) (int64, error) {
	n, err := q.exec(ctx, `
UPDATE registrations SET status = ?, updated_at = ?
WHERE id = ? AND status = ?`, string(to), normalize(now), id, string(from))
	return n, wrap("update registration status", err)
}

func (q *Queries) ListRegistrations(ctx context.Context, f RegistrationFilter) ([]models.RegistrationDetail, error) {
	where, args := f.where()
	query := `
SELECT ` + registrationDetailColumns + `
FROM registrations r
JOIN events e ON e.id = r.event_id
WHERE ` + where + `
ORDER BY r.registered_at DESC, r.id`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}
	items := []models.RegistrationDetail{}
	err := q.selectAll(ctx, &items, query, args...)
	return items, wrap("list registrations", err)
}

func (q *Queries) CountRegistrations(ctx context.Context, f RegistrationFilter) (int, error) {
	where, args := f.where()
	var n int
	err := q.get(ctx, &n, `
SELECT COUNT(*) FROM registrations r JOIN events e ON e.id = r.event_id WHERE `+where, args...)
	return n, wrap("count registrations", err)
}
