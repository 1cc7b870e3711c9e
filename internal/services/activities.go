package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"indorunners-backend-go/internal/apperr"
	"indorunners-backend-go/internal/models"
	"indorunners-backend-go/internal/policy"
	"indorunners-backend-go/internal/store"

	"github.com/google/uuid"
)

type ActivityInput struct {
	Title           string
	Description     *string
	ActivityDate    time.Time
	Location        *string
	Type            models.ActivityType
	MaxParticipants *int
	Status          models.OccasionStatus
}

type ActivityQuery struct {
	Status   string
	Type     string
	Upcoming bool
	Limit    int
}

var errActivityNotOwned = apperr.Wrap(apperr.KindNotFound, apperr.CodeActivityNotFound, "Activity not found or not owned", nil)

type ActivityService struct {
	Deps
}

func NewActivityService(d Deps) *ActivityService {
	return &ActivityService{Deps: d.withDefaults()}
}

func (in ActivityInput) normalize() (ActivityInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = trimmedPtr(in.Description)
	in.Location = trimmedPtr(in.Location)
	if in.Title == "" {
		return in, apperr.Validation("Title is required")
	}
	if in.ActivityDate.IsZero() {
		return in, apperr.Validation("Activity date is required")
	}
	if in.Type == "" {
		in.Type = models.ActivityRoutine
	}
	if !in.Type.Valid() {
		return in, apperr.Validation("Unknown activity type: " + string(in.Type))
	}
	if in.MaxParticipants != nil && *in.MaxParticipants <= 0 {
		return in, apperr.Validation("Max participants must be positive")
	}
	if in.Status == "" {
		in.Status = models.OccasionActive
	}
	if !in.Status.Valid() {
		return in, apperr.Validation("Unknown activity status: " + string(in.Status))
	}
	return in, nil
}

func (in ActivityInput) apply(a *models.Activity) {
	a.Title = in.Title
	a.Description = in.Description
	a.ActivityDate = in.ActivityDate
	a.Location = in.Location
	a.Type = in.Type
	a.MaxParticipants = in.MaxParticipants
	a.Status = in.Status
}

func (s *ActivityService) Create(ctx context.Context, caller policy.Caller, in ActivityInput) (models.Activity, error) {
	if err := s.Policy.Authorize(caller, policy.ManageActivities); err != nil {
		return models.Activity{}, err
	}
	in, err := in.normalize()
	if err != nil {
		return models.Activity{}, err
	}
	now := s.Now()
	activity := models.Activity{ID: uuid.NewString(), CreatedBy: caller.UserID, CreatedAt: now, UpdatedAt: now}
	in.apply(&activity)
	if err := s.Store.InsertActivity(ctx, activity); err != nil {
		return models.Activity{}, store.Translate(err, "create activity")
	}
	s.Log.Info().Str("activity_id", activity.ID).Str("created_by", caller.UserID).Msg("activity created")
	return activity, nil
}

func (s *ActivityService) Update(ctx context.Context, caller policy.Caller, id string, in ActivityInput) (models.Activity, error) {
	if err := s.Policy.Authorize(caller, policy.ManageActivities); err != nil {
		return models.Activity{}, err
	}
	in, err := in.normalize()
	if err != nil {
		return models.Activity{}, err
	}
	var activity models.Activity
	err = s.Store.InTx(ctx, func(q *store.Queries) error {
		var err error
		activity, err = q.LockActivity(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return errActivityNotOwned
		}
		if err != nil {
			return err
		}
		if s.Policy.RequireOwner(caller, activity.CreatedBy) != nil {
			return errActivityNotOwned
		}
		in.apply(&activity)
		activity.UpdatedAt = s.Now()
		n, err := q.UpdateActivity(ctx, activity)
		if err != nil {
			return err
		}
		if n == 0 {
			return errActivityNotOwned
		}
		return nil
	})
	if err != nil {
		return models.Activity{}, store.Translate(err, "update activity")
	}
	return activity, nil
}

func (s *ActivityService) Delete(ctx context.Context, caller policy.Caller, id string) error {
	if err := s.Policy.Authorize(caller, policy.ManageActivities); err != nil {
		return err
	}
	n, err := s.Store.DeleteActivity(ctx, id, s.Policy.OwnerFilter(caller))
	if err != nil {
		return store.Translate(err, "delete activity")
	}
	if n == 0 {
		return errActivityNotOwned
	}
	s.Log.Info().Str("activity_id", id).Str("deleted_by", caller.UserID).Msg("activity deleted")
	return nil
}

func (s *ActivityService) Get(ctx context.Context, caller policy.Caller, id string) (models.ActivitySummary, error) {
	if err := s.Policy.Authorize(caller, policy.ListActivities); err != nil {
		return models.ActivitySummary{}, err
	}
	activity, err := s.Store.FindActivitySummary(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return models.ActivitySummary{}, apperr.ErrActivityNotFound
	}
	if err != nil {
		return models.ActivitySummary{}, store.Translate(err, "find activity")
	}
	return activity, nil
}

func (s *ActivityService) List(ctx context.Context, caller policy.Caller, query ActivityQuery) ([]models.ActivitySummary, error) {
	if err := s.Policy.Authorize(caller, policy.ListActivities); err != nil {
		return nil, err
	}
	filter := store.ActivityFilter{Limit: query.Limit}
	if raw := strings.TrimSpace(query.Status); raw != "" {
		status := models.OccasionStatus(raw)
		if !status.Valid() {
			return nil, apperr.Validation("Unknown activity status: " + raw)
		}
		filter.Status = &status
	}
	if raw := strings.TrimSpace(query.Type); raw != "" {
		kind := models.ActivityType(raw)
		if !kind.Valid() {
			return nil, apperr.Validation("Unknown activity type: " + raw)
		}
		filter.Type = &kind
	}
	if query.Upcoming {
		now := s.Now()
		filter.From = &now
	}
	items, err := s.Store.ListActivities(ctx, filter)
	if err != nil {
		return nil, store.Translate(err, "list activities")
	}
	return items, nil
}
