package policy

import (
	"errors"
	"testing"

	"indorunners-backend-go/internal/apperr"
)

func TestAuthorizeTiers(t *testing.T) {
	p := Policy{}
	anon := Anonymous()
	member := Member("m1")
	admin := Admin("a1")

	cases := []struct {
		action Action
		anon   bool
		member bool
		admin  bool
	}{
		{ListPublicEvents, true, true, true},
		{SubmitPublicRegistration, true, true, true},
		{ListAttendance, false, true, true},
		{SubmitMemberRegistration, false, true, true},
		{TransitionRegistration, false, false, true},
		{ManageEvents, false, false, true},
		{ListUsers, false, false, true},
		{Action("unknown"), false, false, false},
	}
	for _, tc := range cases {
		t.Run(string(tc.action), func(t *testing.T) {
			if got := p.Allowed(anon, tc.action); got != tc.anon {
				t.Errorf("anonymous: got %v", got)
			}
			if got := p.Allowed(member, tc.action); got != tc.member {
				t.Errorf("member: got %v", got)
			}
			if got := p.Allowed(admin, tc.action); got != tc.admin {
				t.Errorf("admin: got %v", got)
			}
		})
	}
	if err := p.Authorize(anon, ListAttendance); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestRequireOwner(t *testing.T) {
	scoped := Policy{ScopeAdminsToOwnRecords: true}
	open := Policy{}
	if err := scoped.RequireOwner(Admin("a1"), "a1"); err != nil {
		t.Fatalf("owner: %v", err)
	}
	if err := scoped.RequireOwner(Admin("a2"), "a1"); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("other admin scoped: %v", err)
	}
	if err := open.RequireOwner(Admin("a2"), "a1"); err != nil {
		t.Fatalf("other admin unscoped: %v", err)
	}
	if err := open.RequireOwner(Member("a1"), "a1"); err == nil {
		t.Fatal("members never own admin records")
	}
	if scoped.OwnerFilter(Admin("a1")) != "a1" || open.OwnerFilter(Admin("a1")) != "" {
		t.Fatal("owner filter mismatch")
	}
}

func TestScopeUserFilter(t *testing.T) {
	if got := ScopeUserFilter(Member("m1"), "m2"); got != "m1" {
		t.Fatalf("member pinned to self, got %q", got)
	}
	if got := ScopeUserFilter(Member("m1"), ""); got != "m1" {
		t.Fatalf("member default self, got %q", got)
	}
	if got := ScopeUserFilter(Admin("a1"), "m2"); got != "m2" {
		t.Fatalf("admin keeps filter, got %q", got)
	}
	if got := ScopeUserFilter(Admin("a1"), ""); got != "" {
		t.Fatalf("admin unfiltered, got %q", got)
	}
}

func TestActOnSubject(t *testing.T) {
	p := Policy{}
	if err := p.ActOnSubject(Member("m1"), "m1"); err != nil {
		t.Fatalf("self: %v", err)
	}
	if err := p.ActOnSubject(Member("m1"), "m2"); err == nil {
		t.Fatal("member acting for another must fail")
	}
	if err := p.ActOnSubject(Admin("a1"), "m2"); err != nil {
		t.Fatalf("admin: %v", err)
	}
	if err := p.ActOnSubject(Anonymous(), ""); err == nil {
		t.Fatal("anonymous must fail")
	}
}
