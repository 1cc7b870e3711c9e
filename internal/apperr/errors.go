// Package apperr defines the error taxonomy shared by the store, the services
// and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the HTTP-agnostic category of a failure.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindForbidden
	KindUnauthorized
	KindConflict
	KindValidation
	KindExhausted
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not-found"
	case KindForbidden:
		return "forbidden"
	case KindUnauthorized:
		return "unauthorized"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation-failed"
	case KindExhausted:
		return "resource-exhausted"
	default:
		return "internal"
	}
}

// Status maps the kind to an HTTP status code.
func (k Kind) Status() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindConflict, KindExhausted:
		return http.StatusConflict
	case KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Code is the machine-readable reason of an Error.
type Code string

const (
	CodeInternal                 Code = "INTERNAL"
	CodeNotFound                 Code = "NOT_FOUND"
	CodeForbidden                Code = "FORBIDDEN"
	CodeUnauthorized             Code = "UNAUTHORIZED"
	CodeValidation               Code = "VALIDATION_FAILED"
	CodeConflict                 Code = "CONFLICT"
	CodeEventNotFound            Code = "EVENT_NOT_FOUND"
	CodeActivityNotFound         Code = "ACTIVITY_NOT_FOUND"
	CodeRegistrationNotFound     Code = "REGISTRATION_NOT_FOUND"
	CodeUserNotFound             Code = "USER_NOT_FOUND"
	CodeRegistrationClosed       Code = "REGISTRATION_CLOSED"
	CodeEventFull                Code = "EVENT_FULL"
	CodeActivityFull             Code = "ACTIVITY_FULL"
	CodeDuplicateRegistration    Code = "DUPLICATE_REGISTRATION"
	CodeMissingPaymentProof      Code = "MISSING_PAYMENT_PROOF"
	CodePaymentProofInUse        Code = "PAYMENT_PROOF_IN_USE"
	CodeInvalidTransition        Code = "INVALID_TRANSITION"
	CodeInvalidOccasionReference Code = "INVALID_OCCASION_REFERENCE"
	CodeDuplicateAttendance      Code = "DUPLICATE_ATTENDANCE"
	CodeDuplicateUser            Code = "DUPLICATE_USER"
	CodeUnavailable              Code = "UNAVAILABLE"
)

// Error is the domain error carried from the services to the callers.
type Error struct {
	Kind    Kind
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches by code so sentinels compare equal to errors carrying a
// different message or cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Retryable reports whether the failure came from contention and the caller
// may try again.
func (e *Error) Retryable() bool {
	return e.Code == CodeUnavailable
}

var (
	ErrEventNotFound            = New(KindNotFound, CodeEventNotFound, "Event not found or not active")
	ErrActivityNotFound         = New(KindNotFound, CodeActivityNotFound, "Activity not found")
	ErrRegistrationNotFound     = New(KindNotFound, CodeRegistrationNotFound, "Registration not found")
	ErrUserNotFound             = New(KindNotFound, CodeUserNotFound, "User not found")
	ErrRegistrationClosed       = New(KindValidation, CodeRegistrationClosed, "Registration is closed")
	ErrEventFull                = New(KindExhausted, CodeEventFull, "Event is full")
	ErrActivityFull             = New(KindExhausted, CodeActivityFull, "Activity is full")
	ErrDuplicateRegistration    = New(KindConflict, CodeDuplicateRegistration, "Already registered for this event")
	ErrMissingPaymentProof      = New(KindValidation, CodeMissingPaymentProof, "Payment proof is required for paid events")
	ErrPaymentProofInUse        = New(KindConflict, CodePaymentProofInUse, "Payment proof is already attached to another registration")
	ErrInvalidTransition        = New(KindConflict, CodeInvalidTransition, "Status transition is not allowed")
	ErrInvalidOccasionReference = New(KindValidation, CodeInvalidOccasionReference, "Either activity_id or event_id must be provided, but not both")
	ErrDuplicateAttendance      = New(KindConflict, CodeDuplicateAttendance, "Attendance already recorded for this user")
	ErrDuplicateUser            = New(KindConflict, CodeDuplicateUser, "User with this email already exists")
	ErrForbidden                = New(KindForbidden, CodeForbidden, "Not allowed")
	ErrUnauthorized             = New(KindUnauthorized, CodeUnauthorized, "Authentication failed")
)

func New(kind Kind, code Code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func Wrap(kind Kind, code Code, message string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Cause: cause}
}

func NotFound(message string) *Error {
	return New(KindNotFound, CodeNotFound, message)
}

func Forbidden(message string) *Error {
	return New(KindForbidden, CodeForbidden, message)
}

func Validation(message string) *Error {
	return New(KindValidation, CodeValidation, message)
}

// Internal wraps a persistence or I/O failure.
func Internal(message string, cause error) *Error {
	return Wrap(KindInternal, CodeInternal, message, cause)
}

// Unavailable wraps a contention failure (lock timeout, busy database).
func Unavailable(message string, cause error) *Error {
	return Wrap(KindInternal, CodeUnavailable, message, cause)
}

// As extracts the *Error from err, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of err; errors outside the taxonomy are internal.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}
