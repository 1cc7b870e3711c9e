package store

import (
	"context"
	"iter"
	"strings"

	"indorunners-backend-go/internal/models"
)

type AttendanceFilter struct {
	UserID     string
	ActivityID string
	EventID    string
	Status     *models.AttendanceStatus
	Limit      int
}

func (f AttendanceFilter) where() (string, []interface{}) {
	where := []string{"1=1"}
	args := []interface{}{}
	if f.UserID != "" {
		where = append(where, "t.user_id = ?")
		args = append(args, f.UserID)
	}
	if f.ActivityID != "" {
		where = append(where, "t.activity_id = ?")
		args = append(args, f.ActivityID)
	}
	if f.EventID != "" {
		where = append(where, "t.event_id = ?")
		args = append(args, f.EventID)
	}
	if f.Status != nil {
		where = append(where, "t.status = ?")
		args = append(args, string(*f.Status))
	}
	return strings.Join(where, " AND "), args
}

func (q *Queries) InsertAttendance(ctx context.Context, a models.Attendance) error {
	_, err := q.exec(ctx, `
INSERT INTO attendance (id, activity_id, event_id, user_id, status, notes, recorded_by, attendance_date)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.ActivityID, a.EventID, a.UserID, string(a.Status), a.Notes, a.RecordedBy, normalize(a.AttendanceDate))
	return wrap("insert attendance", err)
}

func (q *Queries) AttendanceExists(ctx context.Context, occasion models.OccasionRef, userID string) (bool, error) {
	var n int
	err := q.get(ctx, &n, `SELECT COUNT(*) FROM attendance WHERE `+occasion.Column()+` = ? AND user_id = ?`,
		occasion.ID, userID)
	return n > 0, wrap("check attendance", err)
}

func (q *Queries) CountAttendance(ctx context.Context, f AttendanceFilter) (int, error) {
	where, args := f.where()
	var n int
	err := q.get(ctx, &n, `SELECT COUNT(*) FROM attendance t WHERE `+where, args...)
	return n, wrap("count attendance", err)
}

// AttendanceRecords streams matching rows newest first. Each range over the
// returned sequence runs the query again. The caller must not issue other
// queries on the same store while ranging.
func (q *Queries) AttendanceRecords(ctx context.Context, f AttendanceFilter) iter.Seq2[models.AttendanceRecord, error] {
	where, args := f.where()
	query := `
SELECT t.id, t.activity_id, t.event_id, t.user_id, t.status, t.notes, t.recorded_by, t.attendance_date,
  u.name AS user_name, u.email AS user_email,
  COALESCE(a.title, e.title, '') AS occasion_title,
  COALESCE(a.activity_type, 'event') AS occasion_type
FROM attendance t
JOIN users u ON u.id = t.user_id
LEFT JOIN activities a ON a.id = t.activity_id
LEFT JOIN events e ON e.id = t.event_id
WHERE ` + where + `
ORDER BY t.attendance_date DESC, t.id`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}
	return func(yield func(models.AttendanceRecord, error) bool) {
		ctx, cancel := q.bound(ctx)
		defer cancel()
		rows, err := q.q.QueryxContext(ctx, q.q.Rebind(query), args...)
		if err != nil {
			yield(models.AttendanceRecord{}, wrap("list attendance", err))
			return
		}
		defer rows.Close()
		for rows.Next() {
			var rec models.AttendanceRecord
			if err := rows.StructScan(&rec); err != nil {
				yield(models.AttendanceRecord{}, wrap("scan attendance", err))
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(models.AttendanceRecord{}, wrap("list attendance", err))
		}
	}
}
