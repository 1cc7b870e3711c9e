// Package validate checks decoded request structs before they reach the
// services.
package validate

import (
	"context"
	"errors"
	"reflect"
	"regexp"
	"strings"

	"indorunners-backend-go/internal/apperr"

	"github.com/go-playground/validator/v10"
)

var (
	global     *validator.Validate
	phoneRegex = regexp.MustCompile(`^\+?[0-9][0-9 \-]{5,19}$`)
)

const (
	ErrInvalidFormat      = "Invalid format"
	ErrFieldRequired      = "Field is required"
	ErrFieldExceedsMaxLen = "Field exceeds maximum length"
	ErrFieldBelowMinLen   = "Field is below minimum length"
	ErrFieldExceedsMaxVal = "Field exceeds maximum value"
	ErrFieldBelowMinVal   = "Field is below minimum value"
	ErrUnknownValidation  = "Unknown validation error"
)

func init() {
	SetValidator(New())
}

func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonName)
	_ = v.RegisterValidation("notblank", validateNotBlank)
	_ = v.RegisterValidation("phone", validatePhone)
	return v
}

func SetValidator(v *validator.Validate) {
	global = v
}

func Validator() *validator.Validate {
	return global
}

func jsonName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return field.Name
	}
	return name
}

func validateNotBlank(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() == reflect.Ptr {
		if field.IsNil() {
			return true
		}
		field = field.Elem()
	}
	return strings.TrimSpace(field.String()) != ""
}

func validatePhone(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() == reflect.Ptr {
		if field.IsNil() {
			return true
		}
		field = field.Elem()
	}
	value := strings.TrimSpace(field.String())
	return value == "" || phoneRegex.MatchString(value)
}

// Struct validates s and returns a validation-failed apperr.Error naming
// the first offending field.
func Struct(ctx context.Context, s any) error {
	return parseValidationErrors(Validator().StructCtx(ctx, s))
}

func parseValidationErrors(err error) error {
	if err == nil {
		return nil
	}
	var vErrors validator.ValidationErrors
	if !errors.As(err, &vErrors) || len(vErrors) == 0 {
		return apperr.Validation(err.Error())
	}
	ve := vErrors[0]
	var msg string
	switch ve.Tag() {
	case "email", "phone", "oneof", "uuid", "uuid4", "url", "datetime":
		msg = ErrInvalidFormat
	case "required", "notblank":
		msg = ErrFieldRequired
	case "max":
		msg = ErrFieldExceedsMaxLen
	case "min":
		msg = ErrFieldBelowMinLen
	case "lt", "lte":
		msg = ErrFieldExceedsMaxVal
	case "gt", "gte":
		msg = ErrFieldBelowMinVal
	default:
		msg = ErrUnknownValidation
	}
	return apperr.Validation(msg + ": " + ve.Field())
}
