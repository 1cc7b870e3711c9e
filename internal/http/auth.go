package httpapi

import (
	"context"
	"net/http"
	"strings"

	"indorunners-backend-go/internal/apperr"
	"indorunners-backend-go/internal/models"
	"indorunners-backend-go/internal/policy"
	"indorunners-backend-go/internal/services"
)

type contextKey string

const ctxCaller contextKey = "caller"

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	return token, token != ""
}

func unauthorized(w http.ResponseWriter) {
	WriteError(w, http.StatusUnauthorized, string(apperr.CodeUnauthorized), "Authentication failed")
}

// WithAuth requires a valid access token and stores the caller in the
// request context.
func WithAuth(tokenService services.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, ok := bearerToken(r)
			if !ok {
				unauthorized(w)
				return
			}
			caller, err := tokenService.CallerFromAccessToken(tokenStr)
			if err != nil {
				unauthorized(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxCaller, caller)))
		})
	}
}

// OptionalAuth is WithAuth for public routes: no token means anonymous, a
// bad token is still rejected.
func OptionalAuth(tokenService services.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			caller, err := tokenService.CallerFromAccessToken(tokenStr)
			if err != nil {
				unauthorized(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxCaller, caller)))
		})
	}
}

// CurrentCaller returns the authenticated caller, or an anonymous one.
func CurrentCaller(r *http.Request) policy.Caller {
	if value, ok := r.Context().Value(ctxCaller).(policy.Caller); ok {
		return value
	}
	return policy.Anonymous()
}

func RequireRole(role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if CurrentCaller(r).Role != role {
				WriteError(w, http.StatusForbidden, string(apperr.CodeForbidden), "Not allowed")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
