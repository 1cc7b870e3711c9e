package store

import (
	"context"
	"strings"
	"time"

	"indorunners-backend-go/internal/models"
)

const activityColumns = `a.id, a.title, a.description, a.activity_date, a.location, a.activity_type,
  a.max_participants, a.status, a.created_by, a.created_at, a.updated_at`

type ActivityFilter struct {
	Status    *models.OccasionStatus
	Type      *models.ActivityType
	CreatedBy string
	From      *time.Time
	Limit     int
}

func (f ActivityFilter) where() (string, []interface{}) {
	where := []string{"1=1"}
	args := []interface{}{}
	if f.Status != nil {
		where = append(where, "a.status = ?")
		args = append(args, string(*f.Status))
	}
	if f.Type != nil {
		where = append(where, "a.activity_type = ?")
		args = append(args, string(*f.Type))
	}
	if f.CreatedBy != "" {
		where = append(where, "a.created_by = ?")
		args = append(args, f.CreatedBy)
	}
	if f.From != nil {
		where = append(where, "a.activity_date >= ?")
		args = append(args, normalize(*f.From))
	}
	return strings.Join(where, " AND "), args
}

func (q *Queries) InsertActivity(ctx context.Context, a models.Activity) error {
	_, err := q.exec(ctx, `
INSERT INTO activities (
  id, title, description, activity_date, location, activity_type, max_participants,
  status, created_by, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Title, a.Description, normalize(a.ActivityDate), a.Location, string(a.Type), a.MaxParticipants,
		string(a.Status), a.CreatedBy, normalize(a.CreatedAt), normalize(a.UpdatedAt))
	return wrap("insert activity", err)
}

func (q *Queries) UpdateActivity(ctx context.Context, a models.Activity) (int64, error) {
	n, err := q.exec(ctx, `
UPDATE activities SET
  title = ?, description = ?, activity_date = ?, location = ?, activity_type = ?,
  max_participants = ?, status = ?, updated_at = ?
WHERE id = ? AND created_by = ?`,
		a.Title, a.Description, normalize(a.ActivityDate), a.Location, string(a.Type),
		a.MaxParticipants, string(a.Status), normalize(a.UpdatedAt), a.ID, a.CreatedBy)
	return n, wrap("update activity", err)
}

func (q *Queries) DeleteActivity(ctx context.Context, id, owner string) (int64, error) {
	if owner == "" {
		n, err := q.exec(ctx, `DELETE FROM activities WHERE id = ?`, id)
		return n, wrap("delete activity", err)
	}
	n, err := q.exec(ctx, `DELETE FROM activities WHERE id = ? AND created_by = ?`, id, owner)
	return n, wrap("delete activity", err)
}

func (q *Queries) FindActivity(ctx context.Context, id string) (models.Activity, error) {
	var a models.Activity
	err := q.get(ctx, &a, `SELECT `+activityColumns+` FROM activities a WHERE a.id = ?`, id)
	return a, wrap("find activity", err)
}

func (q *Queries) LockActivity(ctx context.Context, id string) (models.Activity, error) {
	var a models.Activity
	err := q.get(ctx, &a, `SELECT `+activityColumns+` FROM activities a WHERE a.id = ?`+q.lockSuffix, id)
	return a, wrap("lock activity", err)
}

func (q *Queries) FindActivitySummary(ctx context.Context, id string) (models.ActivitySummary, error) {
	var a models.ActivitySummary
	err := q.get(ctx, &a, `
SELECT `+activityColumns+`,
  (SELECT COUNT(*) FROM attendance t WHERE t.activity_id = a.id) AS attendance_count
FROM activities a WHERE a.id = ?`, id)
	return a, wrap("find activity summary", err)
}

func (q *Queries) ListActivities(ctx context.Context, f ActivityFilter) ([]models.ActivitySummary, error) {
	where, args := f.where()
	query := `
SELECT ` + activityColumns + `,
  (SELECT COUNT(*) FROM attendance t WHERE t.activity_id = a.id) AS attendance_count
FROM activities a
WHERE ` + where + `
ORDER BY a.activity_date DESC, a.id`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}
	items := []models.ActivitySummary{}
	err := q.selectAll(ctx, &items, query, args...)
	return items, wrap("list activities", err)
}

func (q *Queries) CountActivities(ctx context.Context, f ActivityFilter) (int, error) {
	where, args := f.where()
	var n int
	err := q.get(ctx, &n, `SELECT COUNT(*) FROM activities a WHERE `+where, args...)
	return n, wrap("count activities", err)
}
