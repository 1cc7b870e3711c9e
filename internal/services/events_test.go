package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"indorunners-backend-go/internal/apperr"
	"indorunners-backend-go/internal/models"
	"indorunners-backend-go/internal/policy"
	"indorunners-backend-go/internal/testkit"
)

func eventInput(title string) EventInput {
	return EventInput{
		Title:                title,
		EventDate:            testkit.Now.Add(30 * 24 * time.Hour),
		RegistrationDeadline: testkit.Now.Add(7 * 24 * time.Hour),
		Location:             "Lapangan Gasibu",
		RegistrationFee:      150000,
	}
}

func TestEventLifecycle(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	admin := testkit.CreateUser(t, f.store, models.RoleAdmin, "admin@example.com")
	caller := policy.Admin(admin.ID)
	svc := NewEventService(f.deps)

	created, err := svc.Create(ctx, caller, eventInput("  Half Marathon "))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Title != "Half Marathon" || created.Status != models.OccasionActive || created.CreatedBy != admin.ID {
		t.Fatalf("unexpected event %+v", created)
	}

	in := eventInput("Half Marathon 2026")
	in.Status = models.OccasionCompleted
	updated, err := svc.Update(ctx, caller, created.ID, in)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "Half Marathon 2026" || updated.Status != models.OccasionCompleted {
		t.Fatalf("unexpected update %+v", updated)
	}

	// completed events are hidden from everyone but admins
	if _, err := svc.Get(ctx, policy.Anonymous(), created.ID); !errors.Is(err, apperr.ErrEventNotFound) {
		t.Fatalf("anonymous get: got %v", err)
	}
	got, err := svc.Get(ctx, caller, created.ID)
	if err != nil || got.ID != created.ID {
		t.Fatalf("admin get: %+v %v", got, err)
	}

	if err := svc.Delete(ctx, caller, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, caller, created.ID); !errors.Is(err, apperr.ErrEventNotFound) {
		t.Fatalf("get after delete: got %v", err)
	}
}

func TestEventInputValidation(t *testing.T) {
	f := newFixture(t, true)
	admin := testkit.CreateUser(t, f.store, models.RoleAdmin, "admin@example.com")
	svc := NewEventService(f.deps)

	negative := -1
	cases := map[string]func(*EventInput){
		"blank title":      func(in *EventInput) { in.Title = " " },
		"blank location":   func(in *EventInput) { in.Location = "" },
		"no date":          func(in *EventInput) { in.EventDate = time.Time{} },
		"negative fee":     func(in *EventInput) { in.RegistrationFee = -5 },
		"zero capacity":    func(in *EventInput) { in.MaxParticipants = &negative },
		"unknown status":   func(in *EventInput) { in.Status = "postponed" },
		"missing deadline": func(in *EventInput) { in.RegistrationDeadline = time.Time{} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := eventInput("Trail run")
			mutate(&in)
			if _, err := svc.Create(context.Background(), policy.Admin(admin.ID), in); apperr.KindOf(err) != apperr.KindValidation {
				t.Fatalf("got %v", err)
			}
		})
	}

	if _, err := svc.Create(context.Background(), policy.Member(admin.ID), eventInput("x")); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("member create: got %v", err)
	}
}

func TestEventOwnershipScoping(t *testing.T) {
	for _, scoped := range []bool{true, false} {
		name := "unscoped"
		if scoped {
			name = "scoped"
		}
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, scoped)
			ctx := context.Background()
			owner := testkit.CreateUser(t, f.store, models.RoleAdmin, "owner@example.com")
			other := testkit.CreateUser(t, f.store, models.RoleAdmin, "other@example.com")
			svc := NewEventService(f.deps)
			event, err := svc.Create(ctx, policy.Admin(owner.ID), eventInput("City 5K"))
			if err != nil {
				t.Fatalf("create: %v", err)
			}

			_, updateErr := svc.Update(ctx, policy.Admin(other.ID), event.ID, eventInput("Hijacked"))
			deleteErr := svc.Delete(ctx, policy.Admin(other.ID), event.ID)
			if scoped {
				if !errors.Is(updateErr, apperr.ErrEventNotFound) || !errors.Is(deleteErr, apperr.ErrEventNotFound) {
					t.Fatalf("foreign admin: update=%v delete=%v", updateErr, deleteErr)
				}
				return
			}
			if updateErr != nil || deleteErr != nil {
				t.Fatalf("unscoped admin: update=%v delete=%v", updateErr, deleteErr)
			}
		})
	}
}

func TestDeleteEventCascades(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	admin := testkit.CreateUser(t, f.store, models.RoleAdmin, "admin@example.com")
	member := testkit.CreateUser(t, f.store, models.RoleMember, "member@example.com")
	event := testkit.CreateEvent(t, f.store, admin)

	if _, err := NewRegistrationService(f.deps).Submit(ctx, policy.Anonymous(), publicSubmission(event.ID, "a@example.com")); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := NewAttendanceService(f.deps).Record(ctx, policy.Member(member.ID), RecordAttendance{EventID: event.ID}); err != nil {
		t.Fatalf("attendance: %v", err)
	}
	if err := NewEventService(f.deps).Delete(ctx, policy.Admin(admin.ID), event.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	n, err := f.store.CountActiveRegistrations(ctx, event.ID)
	if err != nil || n != 0 {
		t.Fatalf("registrations left: %d %v", n, err)
	}
	exists, err := f.store.AttendanceExists(ctx, models.OccasionRef{Kind: models.OccasionEvent, ID: event.ID}, member.ID)
	if err != nil || exists {
		t.Fatalf("attendance left: %v %v", exists, err)
	}
}

func TestListEventsHidesInactiveFromPublic(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	admin := testkit.CreateUser(t, f.store, models.RoleAdmin, "admin@example.com")
	active := testkit.CreateEvent(t, f.store, admin, testkit.WithMax(10))
	testkit.CreateEvent(t, f.store, admin, testkit.WithEventStatus(models.OccasionCancelled))
	svc := NewEventService(f.deps)
	if _, err := NewRegistrationService(f.deps).Submit(ctx, policy.Anonymous(), publicSubmission(active.ID, "a@example.com")); err != nil {
		t.Fatalf("submit: %v", err)
	}

	public, err := svc.List(ctx, policy.Anonymous(), EventQuery{Status: "cancelled"})
	if err != nil {
		t.Fatalf("public list: %v", err)
	}
	if len(public) != 1 || public[0].ID != active.ID || public[0].RegisteredCount != 1 {
		t.Fatalf("public list = %+v", public)
	}

	all, err := svc.List(ctx, policy.Admin(admin.ID), EventQuery{})
	if err != nil || len(all) != 2 {
		t.Fatalf("admin list = %d %v", len(all), err)
	}
	cancelled, err := svc.List(ctx, policy.Admin(admin.ID), EventQuery{Status: "cancelled"})
	if err != nil || len(cancelled) != 1 {
		t.Fatalf("admin cancelled list = %d %v", len(cancelled), err)
	}
}

func TestActivityLifecycle(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	admin := testkit.CreateUser(t, f.store, models.RoleAdmin, "admin@example.com")
	other := testkit.CreateUser(t, f.store, models.RoleAdmin, "other@example.com")
	member := testkit.CreateUser(t, f.store, models.RoleMember, "member@example.com")
	svc := NewActivityService(f.deps)

	created, err := svc.Create(ctx, policy.Admin(admin.ID), ActivityInput{Title: "Interval session", ActivityDate: testkit.Now.Add(time.Hour)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Type != models.ActivityRoutine {
		t.Fatalf("default type = %s", created.Type)
	}
	if _, err := svc.Create(ctx, policy.Admin(admin.ID), ActivityInput{Title: "x", ActivityDate: testkit.Now, Type: "party"}); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("bad type: got %v", err)
	}
	if _, err := svc.Create(ctx, policy.Member(member.ID), ActivityInput{Title: "x", ActivityDate: testkit.Now}); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("member create: got %v", err)
	}

	special, err := svc.Update(ctx, policy.Admin(admin.ID), created.ID, ActivityInput{Title: "Race simulation", ActivityDate: testkit.Now.Add(time.Hour), Type: models.ActivitySpecial})
	if err != nil || special.Type != models.ActivitySpecial {
		t.Fatalf("update: %+v %v", special, err)
	}
	if _, err := svc.Update(ctx, policy.Admin(other.ID), created.ID, ActivityInput{Title: "x", ActivityDate: testkit.Now}); !errors.Is(err, apperr.ErrActivityNotFound) {
		t.Fatalf("foreign update: got %v", err)
	}

	listed, err := svc.List(ctx, policy.Member(member.ID), ActivityQuery{Type: "special"})
	if err != nil || len(listed) != 1 {
		t.Fatalf("member list = %d %v", len(listed), err)
	}
	if _, err := svc.List(ctx, policy.Anonymous(), ActivityQuery{}); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("anonymous list: got %v", err)
	}

	if err := svc.Delete(ctx, policy.Admin(other.ID), created.ID); !errors.Is(err, apperr.ErrActivityNotFound) {
		t.Fatalf("foreign delete: got %v", err)
	}
	if err := svc.Delete(ctx, policy.Admin(admin.ID), created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, policy.Member(member.ID), created.ID); !errors.Is(err, apperr.ErrActivityNotFound) {
		t.Fatalf("get after delete: got %v", err)
	}
}
