package store

import (
	"context"
	"strings"
	"time"

	"indorunners-backend-go/internal/models"
)

const eventColumns = `e.id, e.title, e.description, e.event_date, e.registration_deadline, e.location,
  e.max_participants, e.registration_fee, e.category, e.distance, e.image_url, e.status,
  e.created_by, e.created_at, e.updated_at`

type EventFilter struct {
	Status    *models.OccasionStatus
	CreatedBy string
	From      *time.Time
	Limit     int
	// NewestFirst orders by created_at instead of event_date.
	NewestFirst bool
}

func (q *Queries) InsertEvent(ctx context.Context, e models.Event) error {
	_, err := q.exec(ctx, `
INSERT INTO events (
  id, title, description, event_date, registration_deadline, location, max_participants,
  registration_fee, category, distance, image_url, status, created_by, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Title, e.Description, normalize(e.EventDate), normalize(e.RegistrationDeadline), e.Location,
		e.MaxParticipants, e.RegistrationFee, e.Category, e.Distance, e.ImageURL, string(e.Status),
		e.CreatedBy, normalize(e.CreatedAt), normalize(e.UpdatedAt))
	return wrap("insert event", err)
}

// UpdateEvent rewrites the mutable columns of the event owned by
// e.CreatedBy. It reports the number of rows changed.
func (q *Queries) UpdateEvent(ctx context.Context, e models.Event) (int64, error) {
	n, err := q.exec(ctx, `
UPDATE events SET
  title = ?, description = ?, event_date = ?, registration_deadline = ?, location = ?,
  max_participants = ?, registration_fee = ?, category = ?, distance = ?, image_url = ?,
  status = ?, updated_at = ?
WHERE id = ? AND created_by = ?`,
		e.Title, e.Description, normalize(e.EventDate), normalize(e.RegistrationDeadline), e.Location,
		e.MaxParticipants, e.RegistrationFee, e.Category, e.Distance, e.ImageURL,
		string(e.Status), normalize(e.UpdatedAt), e.ID, e.CreatedBy)
	return n, wrap("update event", err)
}

// DeleteEvent removes the event; registrations and attendance cascade.
// An empty owner skips the ownership filter.
func (q *Queries) DeleteEvent(ctx context.Context, id, owner string) (int64, error) {
	if owner == "" {
		n, err := q.exec(ctx, `DELETE FROM events WHERE id = ?`, id)
		return n, wrap("delete event", err)
	}
	n, err := q.exec(ctx, `DELETE FROM events WHERE id = ? AND created_by = ?`, id, owner)
	return n, wrap("delete event", err)
}

func (q *Queries) FindEvent(ctx context.Context, id string) (models.Event, error) {
	var e models.Event
	err := q.get(ctx, &e, `SELECT `+eventColumns+` FROM events e WHERE e.id = ?`, id)
	return e, wrap("find event", err)
}

// LockEvent reads the event and holds its row lock until the transaction
// ends, serialising registrations against it.
func (q *Queries) LockEvent(ctx context.Context, id string) (models.Event, error) {
	var e models.Event
	err := q.get(ctx, &e, `SELECT `+eventColumns+` FROM events e WHERE e.id = ?`+q.lockSuffix, id)
	return e, wrap("lock event", err)
}

func (q *Queries) FindEventSummary(ctx context.Context, id string) (models.EventSummary, error) {
	var e models.EventSummary
	err := q.get(ctx, &e, `
SELECT `+eventColumns+`,
  (SELECT COUNT(*) FROM registrations r WHERE r.event_id = e.id AND r.status <> 'cancelled') AS registered_count
FROM events e WHERE e.id = ?`, id)
	return e, wrap("find event summary", err)
}

func (q *Queries) ListEvents(ctx context.Context, f EventFilter) ([]models.EventSummary, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if f.Status != nil {
		where = append(where, "e.status = ?")
		args = append(args, string(*f.Status))
	}
	if f.CreatedBy != "" {
		where = append(where, "e.created_by = ?")
		args = append(args, f.CreatedBy)
	}
	if f.From != nil {
		where = append(where, "e.event_date >= ?")
		args = append(args, normalize(*f.From))
	}
	order := "e.event_date ASC"
	if f.NewestFirst {
		order = "e.created_at DESC"
	}
	query := `
SELECT ` + eventColumns + `,
  (SELECT COUNT(*) FROM registrations r WHERE r.event_id = e.id AND r.status <> 'cancelled') AS registered_count
FROM events e
WHERE ` + strings.Join(where, " AND ") + `
ORDER BY ` + order + `, e.id`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}
	items := []models.EventSummary{}
	err := q.selectAll(ctx, &items, query, args...)
	return items, wrap("list events", err)
}

func (q *Queries) CountEvents(ctx context.Context, f EventFilter) (int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if f.Status != nil {
		where = append(where, "status = ?")
		args = append(args, string(*f.Status))
	}
	if f.From != nil {
		where = append(where, "event_date >= ?")
		args = append(args, normalize(*f.From))
	}
	var n int
	err := q.get(ctx, &n, `SELECT COUNT(*) FROM events WHERE `+strings.Join(where, " AND "), args...)
	return n, wrap("count events", err)
}
