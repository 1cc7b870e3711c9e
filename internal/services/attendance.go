package services

import (
	"context"
	"errors"
	"iter"
	"strings"
	"time"

	"indorunners-backend-go/internal/apperr"
	"indorunners-backend-go/internal/models"
	"indorunners-backend-go/internal/policy"
	"indorunners-backend-go/internal/rabbit"
	"indorunners-backend-go/internal/store"

	"github.com/google/uuid"
)

type RecordAttendance struct {
	ActivityID string
	EventID    string
	// UserID is the subject; empty means the caller.
	UserID string
	Status models.AttendanceStatus
	Notes  *string
}

type AttendanceQuery struct {
	UserID     string
	ActivityID string
	EventID    string
	Status     string
	Limit      int
}

type AttendanceService struct {
	Deps
}

func NewAttendanceService(d Deps) *AttendanceService {
	return &AttendanceService{Deps: d.withDefaults()}
}

type AttendanceEvent struct {
	AttendanceID string                  `json:"attendanceId"`
	ActivityID   *string                 `json:"activityId,omitempty"`
	EventID      *string                 `json:"eventId,omitempty"`
	UserID       string                  `json:"userId"`
	Status       models.AttendanceStatus `json:"status"`
	RecordedBy   string                  `json:"recordedBy"`
	At           time.Time               `json:"at"`
}

// Record stores one attendance row for a subject at an activity or event.
// There is no update path: a second record for the same pair conflicts.
func (s *AttendanceService) Record(ctx context.Context, caller policy.Caller, in RecordAttendance) (models.Attendance, error) {
	if err := s.Policy.Authorize(caller, policy.RecordAttendance); err != nil {
		return models.Attendance{}, err
	}
	occasion, ok := models.NewOccasionRef(in.ActivityID, in.EventID)
	if !ok {
		return models.Attendance{}, apperr.ErrInvalidOccasionReference
	}
	status := in.Status
	if status == "" {
		status = models.AttendancePresent
	}
	if !status.Valid() {
		return models.Attendance{}, apperr.Validation("Unknown attendance status: " + string(status))
	}
	subject := strings.TrimSpace(in.UserID)
	if subject == "" {
		subject = caller.UserID
	}

	var att models.Attendance
	err := s.Store.InTx(ctx, func(q *store.Queries) error {
		var capacity *int
		switch occasion.Kind {
		case models.OccasionActivity:
			activity, err := q.LockActivity(ctx, occasion.ID)
			if errors.Is(err, store.ErrNotFound) {
				return apperr.ErrActivityNotFound
			}
			if err != nil {
				return err
			}
			capacity = activity.MaxParticipants
		default:
			_, err := q.LockEvent(ctx, occasion.ID)
			if errors.Is(err, store.ErrNotFound) {
				return apperr.ErrEventNotFound
			}
			if err != nil {
				return err
			}
		}

		if subject != caller.UserID {
			if err := s.Policy.Authorize(caller, policy.RecordAnyAttendance); err != nil {
				return err
			}
		}
		if _, err := q.FindUser(ctx, subject); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperr.ErrUserNotFound
			}
			return err
		}

		exists, err := q.AttendanceExists(ctx, occasion, subject)
		if err != nil {
			return err
		}
		if exists {
			return apperr.ErrDuplicateAttendance
		}

		if capacity != nil {
			count, err := q.CountAttendance(ctx, store.AttendanceFilter{ActivityID: occasion.ID})
			if err != nil {
				return err
			}
			if count >= *capacity {
				return apperr.ErrActivityFull
			}
		}

		att = models.Attendance{
			ID:             uuid.NewString(),
			UserID:         subject,
			Status:         status,
			Notes:          trimmedPtr(in.Notes),
			RecordedBy:     caller.UserID,
			AttendanceDate: s.Now(),
		}
		if occasion.Kind == models.OccasionActivity {
			att.ActivityID = &occasion.ID
		} else {
			att.EventID = &occasion.ID
		}
		if err := q.InsertAttendance(ctx, att); err != nil {
			switch {
			case store.IsUniqueViolation(err):
				return apperr.ErrDuplicateAttendance
			case store.IsCheckViolation(err):
				return apperr.ErrInvalidOccasionReference
			case store.IsForeignKeyViolation(err):
				return apperr.NotFound("Member or occasion no longer exists")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return models.Attendance{}, store.Translate(err, "record attendance")
	}

	s.Log.Info().Str("attendance_id", att.ID).Str("occasion", occasion.String()).
		Str("user_id", subject).Str("recorded_by", caller.UserID).Msg("attendance recorded")
	s.publish(ctx, rabbit.KeyAttendanceRecorded, AttendanceEvent{
		AttendanceID: att.ID,
		ActivityID:   att.ActivityID,
		EventID:      att.EventID,
		UserID:       att.UserID,
		Status:       att.Status,
		RecordedBy:   att.RecordedBy,
		At:           att.AttendanceDate,
	})
	return att, nil
}

// List returns a lazy, restartable sequence of attendance records, newest
// first. Members only ever see their own rows whatever user they ask for.
func (s *AttendanceService) List(ctx context.Context, caller policy.Caller, query AttendanceQuery) (iter.Seq2[models.AttendanceRecord, error], error) {
	if err := s.Policy.Authorize(caller, policy.ListAttendance); err != nil {
		return nil, err
	}
	filter := store.AttendanceFilter{
		UserID:     policy.ScopeUserFilter(caller, strings.TrimSpace(query.UserID)),
		ActivityID: strings.TrimSpace(query.ActivityID),
		EventID:    strings.TrimSpace(query.EventID),
		Limit:      query.Limit,
	}
	if raw := strings.TrimSpace(query.Status); raw != "" {
		status := models.AttendanceStatus(raw)
		if !status.Valid() {
			return nil, apperr.Validation("Unknown attendance status: " + raw)
		}
		filter.Status = &status
	}

	rows := s.Store.AttendanceRecords(ctx, filter)
	return func(yield func(models.AttendanceRecord, error) bool) {
		for rec, err := range rows {
			if err != nil {
				yield(models.AttendanceRecord{}, store.Translate(err, "list attendance"))
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
	}, nil
}

// Collect drains an attendance sequence into a slice.
func Collect(seq iter.Seq2[models.AttendanceRecord, error]) ([]models.AttendanceRecord, error) {
	items := []models.AttendanceRecord{}
	for rec, err := range seq {
		if err != nil {
			return nil, err
		}
		items = append(items, rec)
	}
	return items, nil
}
