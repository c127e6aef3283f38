package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/BradenHooton/eduif/internal/models"
	pkghttp "github.com/BradenHooton/eduif/pkg/http"
)

// contextKey is a custom type for context keys
type contextKey string

// SessionContextKey is the key for the validated session in a request context
const SessionContextKey contextKey = "session"

// LoadSession validates the request's session token, if any, and stores the
// session in the request context. Requests without a valid session pass
// through untouched; gating is left to RequireSession and RequireRole.
func LoadSession(sm *SessionManager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			session, err := sm.Validate(token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}

// RequireSession rejects requests without an authenticated session (401)
func RequireSession(az *Authorizer) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := az.RequireAuthenticated(SessionFromContext(r.Context())); err != nil {
				WriteAccessError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole rejects requests whose session role does not include role:
// 401 without a session, 403 with an insufficient one
func RequireRole(az *Authorizer, role models.Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := az.RequireRole(SessionFromContext(r.Context()), role); err != nil {
				WriteAccessError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WriteAccessError maps authorizer errors to HTTP responses
func WriteAccessError(w http.ResponseWriter, err error) {
	if errors.Is(err, models.ErrForbidden) {
		pkghttp.WriteForbidden(w, "Insufficient permissions")
		return
	}
	pkghttp.WriteUnauthorized(w, "Not authenticated")
}

// WithSession returns a copy of ctx carrying session
func WithSession(ctx context.Context, session *models.Session) context.Context {
	return context.WithValue(ctx, SessionContextKey, session)
}

// SessionFromContext returns the session stored by LoadSession, or nil
func SessionFromContext(ctx context.Context) *models.Session {
	session, ok := ctx.Value(SessionContextKey).(*models.Session)
	if !ok {
		return nil
	}
	return session
}
