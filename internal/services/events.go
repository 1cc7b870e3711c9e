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

type EventInput struct {
	Title                string
	Description          *string
	EventDate            time.Time
	RegistrationDeadline time.Time
	Location             string
	MaxParticipants      *int
	RegistrationFee      int64
	Category             *string
	Distance             *string
	ImageURL             *string
	Status               models.OccasionStatus
}

type EventQuery struct {
	Status   string
	Upcoming bool
	Limit    int
}

var errEventNotOwned = apperr.Wrap(apperr.KindNotFound, apperr.CodeEventNotFound, "Event not found or not owned", nil)

type EventService struct {
	Deps
}

func NewEventService(d Deps) *EventService {
	return &EventService{Deps: d.withDefaults()}
}

func (in EventInput) normalize() (EventInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Location = strings.TrimSpace(in.Location)
	in.Description = trimmedPtr(in.Description)
	in.Category = trimmedPtr(in.Category)
	in.Distance = trimmedPtr(in.Distance)
	in.ImageURL = trimmedPtr(in.ImageURL)
	if in.Title == "" {
		return in, apperr.Validation("Title is required")
	}
	if in.Location == "" {
		return in, apperr.Validation("Location is required")
	}
	if in.EventDate.IsZero() || in.RegistrationDeadline.IsZero() {
		return in, apperr.Validation("Event date and registration deadline are required")
	}
	if in.RegistrationFee < 0 {
		return in, apperr.Validation("Registration fee must not be negative")
	}
	if in.MaxParticipants != nil && *in.MaxParticipants <= 0 {
		return in, apperr.Validation("Max participants must be positive")
	}
	if in.Status == "" {
		in.Status = models.OccasionActive
	}
	if !in.Status.Valid() {
		return in, apperr.Validation("Unknown event status: " + string(in.Status))
	}
	return in, nil
}

func (in EventInput) apply(e *models.Event) {
	e.Title = in.Title
	e.Description = in.Description
	e.EventDate = in.EventDate
	e.RegistrationDeadline = in.RegistrationDeadline
	e.Location = in.Location
	e.MaxParticipants = in.MaxParticipants
	e.RegistrationFee = in.RegistrationFee
	e.Category = in.Category
	e.Distance = in.Distance
	e.ImageURL = in.ImageURL
	e.Status = in.Status
}

func (s *EventService) warnDeadline(e models.Event) {
	if e.RegistrationDeadline.After(e.EventDate) {
		s.Log.Warn().Str("event_id", e.ID).Time("deadline", e.RegistrationDeadline).
			Time("event_date", e.EventDate).Msg("registration deadline is after the event date")
	}
}

func (s *EventService) Create(ctx context.Context, caller policy.Caller, in EventInput) (models.Event, error) {
	if err := s.Policy.Authorize(caller, policy.ManageEvents); err != nil {
		return models.Event{}, err
	}
	in, err := in.normalize()
	if err != nil {
		return models.Event{}, err
	}
	now := s.Now()
	event := models.Event{ID: uuid.NewString(), CreatedBy: caller.UserID, CreatedAt: now, UpdatedAt: now}
	in.apply(&event)
	s.warnDeadline(event)
	if err := s.Store.InsertEvent(ctx, event); err != nil {
		return models.Event{}, store.Translate(err, "create event")
	}
	s.Log.Info().Str("event_id", event.ID).Str("created_by", caller.UserID).Msg("event created")
	return event, nil
}

// Update rewrites an event. With ownership scoping a foreign event looks
// missing.
func (s *EventService) Update(ctx context.Context, caller policy.Caller, id string, in EventInput) (models.Event, error) {
	if err := s.Policy.Authorize(caller, policy.ManageEvents); err != nil {
		return models.Event{}, err
	}
	in, err := in.normalize()
	if err != nil {
		return models.Event{}, err
	}
	var event models.Event
	err = s.Store.InTx(ctx, func(q *store.Queries) error {
		var err error
		event, err = q.LockEvent(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return errEventNotOwned
		}
		if err != nil {
			return err
		}
		if s.Policy.RequireOwner(caller, event.CreatedBy) != nil {
			return errEventNotOwned
		}
		in.apply(&event)
		event.UpdatedAt = s.Now()
		n, err := q.UpdateEvent(ctx, event)
		if err != nil {
			return err
		}
		if n == 0 {
			return errEventNotOwned
		}
		return nil
	})
	if err != nil {
		return models.Event{}, store.Translate(err, "update event")
	}
	s.warnDeadline(event)
	return event, nil
}

// Delete removes an event together with its registrations and attendance.
func (s *EventService) Delete(ctx context.Context, caller policy.Caller, id string) error {
	if err := s.Policy.Authorize(caller, policy.ManageEvents); err != nil {
		return err
	}
	n, err := s.Store.DeleteEvent(ctx, id, s.Policy.OwnerFilter(caller))
	if err != nil {
		return store.Translate(err, "delete event")
	}
	if n == 0 {
		return errEventNotOwned
	}
	s.Log.Info().Str("event_id", id).Str("deleted_by", caller.UserID).Msg("event deleted")
	return nil
}

// Get returns an event with its registration count. Only admins see
// events that are not active.
func (s *EventService) Get(ctx context.Context, caller policy.Caller, id string) (models.EventSummary, error) {
	if err := s.Policy.Authorize(caller, policy.ViewPublicEvent); err != nil {
		return models.EventSummary{}, err
	}
	event, err := s.Store.FindEventSummary(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return models.EventSummary{}, apperr.ErrEventNotFound
	}
	if err != nil {
		return models.EventSummary{}, store.Translate(err, "find event")
	}
	if event.Status != models.OccasionActive && !s.Policy.Allowed(caller, policy.ManageEvents) {
		return models.EventSummary{}, apperr.ErrEventNotFound
	}
	return event, nil
}

// List returns active events by date for everyone; admins may filter by
// any status.
func (s *EventService) List(ctx context.Context, caller policy.Caller, query EventQuery) ([]models.EventSummary, error) {
	if err := s.Policy.Authorize(caller, policy.ListPublicEvents); err != nil {
		return nil, err
	}
	filter := store.EventFilter{Limit: query.Limit}
	active := models.OccasionActive
	switch raw := strings.TrimSpace(query.Status); {
	case !s.Policy.Allowed(caller, policy.ManageEvents):
		filter.Status = &active
	case raw != "":
		status := models.OccasionStatus(raw)
		if !status.Valid() {
			return nil, apperr.Validation("Unknown event status: " + raw)
		}
		filter.Status = &status
	}
	if query.Upcoming {
		now := s.Now()
		filter.From = &now
	}
	items, err := s.Store.ListEvents(ctx, filter)
	if err != nil {
		return nil, store.Translate(err, "list events")
	}
	return items, nil
}
