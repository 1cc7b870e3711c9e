// Package testkit opens migrated in-memory databases and seeds fixtures for
// package tests.
package testkit

import (
	"context"
	"testing"
	"time"

	"indorunners-backend-go/internal/db"
	"indorunners-backend-go/internal/migrations"
	"indorunners-backend-go/internal/models"
	"indorunners-backend-go/internal/store"

	"github.com/google/uuid"
)

// Now is the fixed clock used by fixtures.
var Now = time.Date(2026, 5, 10, 7, 0, 0, 0, time.UTC)

func OpenStore(t testing.TB) *store.Store {
	t.Helper()
	conn, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	if err := migrations.Apply(conn); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	return store.New(conn, 10*time.Second)
}

// Clock returns a func usable as an injected clock.
func Clock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func CreateUser(t testing.TB, s *store.Store, role models.Role, email string) models.User {
	t.Helper()
	u := models.User{
		ID:           uuid.NewString(),
		Email:        models.NormalizeEmail(email),
		Name:         email,
		PasswordHash: "x",
		Role:         role,
		CreatedAt:    Now,
		UpdatedAt:    Now,
	}
	if err := s.InsertUser(context.Background(), u); err != nil {
		t.Fatalf("insert user: %v", err)
	}
	return u
}

type EventOption func(*models.Event)

func WithFee(fee int64) EventOption {
	return func(e *models.Event) { e.RegistrationFee = fee }
}

func WithMax(n int) EventOption {
	return func(e *models.Event) { e.MaxParticipants = &n }
}

func WithDeadline(deadline time.Time) EventOption {
	return func(e *models.Event) { e.RegistrationDeadline = deadline }
}

func WithEventStatus(status models.OccasionStatus) EventOption {
	return func(e *models.Event) { e.Status = status }
}

func CreateEvent(t testing.TB, s *store.Store, owner models.User, opts ...EventOption) models.Event {
	t.Helper()
	e := models.Event{
		ID:                   uuid.NewString(),
		Title:                "Bandung 10K",
		EventDate:            Now.Add(30 * 24 * time.Hour),
		RegistrationDeadline: Now.Add(7 * 24 * time.Hour),
		Location:             "Gedung Sate",
		Status:               models.OccasionActive,
		CreatedBy:            owner.ID,
		CreatedAt:            Now,
		UpdatedAt:            Now,
	}
	for _, opt := range opts {
		opt(&e)
	}
	if err := s.InsertEvent(context.Background(), e); err != nil {
		t.Fatalf("insert event: %v", err)
	}
	return e
}

func CreateActivity(t testing.TB, s *store.Store, owner models.User, max *int) models.Activity {
	t.Helper()
	a := models.Activity{
		ID:              uuid.NewString(),
		Title:           "Sunday long run",
		ActivityDate:    Now.Add(48 * time.Hour),
		Type:            models.ActivityRoutine,
		MaxParticipants: max,
		Status:          models.OccasionActive,
		CreatedBy:       owner.ID,
		CreatedAt:       Now,
		UpdatedAt:       Now,
	}
	if err := s.InsertActivity(context.Background(), a); err != nil {
		t.Fatalf("insert activity: %v", err)
	}
	return a
}
