package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestIsMatchesByCode(t *testing.T) {
	err := Wrap(KindConflict, CodeDuplicateRegistration, "unique violation", errors.New("23505"))
	if !errors.Is(err, ErrDuplicateRegistration) {
		t.Fatalf("expected errors.Is to match duplicate registration")
	}
	if errors.Is(err, ErrDuplicateAttendance) {
		t.Fatalf("did not expect match against duplicate attendance")
	}
	wrapped := fmt.Errorf("submit: %w", err)
	if !errors.Is(wrapped, ErrDuplicateRegistration) {
		t.Fatalf("expected match through fmt wrapping")
	}
}

func TestKindStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
		name string
	}{
		{ErrEventNotFound, http.StatusNotFound, "not-found"},
		{ErrForbidden, http.StatusForbidden, "forbidden"},
		{ErrDuplicateAttendance, http.StatusConflict, "conflict"},
		{ErrMissingPaymentProof, http.StatusBadRequest, "validation-failed"},
		{ErrEventFull, http.StatusConflict, "resource-exhausted"},
		{errors.New("boom"), http.StatusInternalServerError, "internal"},
	}
	for _, tc := range cases {
		kind := KindOf(tc.err)
		if kind.Status() != tc.want {
			t.Errorf("%v: status = %d, want %d", tc.err, kind.Status(), tc.want)
		}
		if kind.String() != tc.name {
			t.Errorf("%v: kind = %s, want %s", tc.err, kind.String(), tc.name)
		}
	}
}

func TestUnavailableIsRetryable(t *testing.T) {
	err := Unavailable("database busy", errors.New("SQLITE_BUSY"))
	if !err.Retryable() {
		t.Fatal("expected retryable")
	}
	if KindOf(err) != KindInternal {
		t.Fatalf("expected internal kind, got %s", KindOf(err))
	}
	if Internal("x", nil).Retryable() {
		t.Fatal("plain internal errors are not retryable")
	}
}
