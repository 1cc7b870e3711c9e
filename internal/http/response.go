package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"indorunners-backend-go/internal/apperr"
	"indorunners-backend-go/internal/validate"

	"github.com/go-chi/chi/v5/middleware"
)

const maxJSONBody = 1 << 20

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// fail writes err as a JSON error. Internal failures are logged with their
// cause and reach the client as a generic message.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperr.As(err)
	if !ok {
		appErr = apperr.Internal("unexpected error", err)
	}
	if appErr.Kind == apperr.KindInternal {
		s.Log.Error().Err(err).Str("request_id", middleware.GetReqID(r.Context())).
			Str("code", string(appErr.Code)).Msg("request failed")
		status := http.StatusInternalServerError
		message := "Internal server error"
		if appErr.Retryable() {
			status = http.StatusServiceUnavailable
			message = "Service busy, try again"
			w.Header().Set("Retry-After", "1")
		}
		WriteError(w, status, string(appErr.Code), message)
		return
	}
	WriteError(w, appErr.Kind.Status(), string(appErr.Code), appErr.Message)
}

// decodeJSON reads a JSON body into dst and validates its tags.
func decodeJSON(r *http.Request, dst interface{}) error {
	return decodeBody(r, dst, true)
}

// decodeOptionalJSON is decodeJSON for endpoints where every field is
// optional. An empty body leaves dst untouched whatever the transfer
// encoding.
func decodeOptionalJSON(r *http.Request, dst interface{}) error {
	return decodeBody(r, dst, false)
}

func decodeBody(r *http.Request, dst interface{}, required bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if !errors.Is(err, io.EOF) {
			return apperr.Validation("Invalid payload")
		}
		if required {
			return apperr.Validation("Request body is empty")
		}
	}
	return validate.Struct(r.Context(), dst)
}

func parseInt(raw string, fallback int) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func parseBool(raw string) bool {
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	return err == nil && value
}
