// Package middleware provides HTTP middlewares for sessions, roles, logging
// and metrics.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"

	"github.com/realtyhub/realtyhub/internal/models"
)

// SessionCookie is the name of the cookie carrying the session token.
const SessionCookie = "token"

type ctxKey string

const identityKey ctxKey = "identity"

// Verifier checks a session token and returns its subject.
type Verifier interface {
	Verify(ctx context.Context, token string) (*models.Identity, error)
}

// RequireSession rejects requests without a valid session cookie.
//
// A missing cookie is answered with 401. A cookie that fails verification
// is cleared and answered with 403. On success the verified identity is
// stored in the request context.
func RequireSession(v Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(SessionCookie)
			if err != nil || c.Value == "" {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			id, err := v.Verify(r.Context(), c.Value)
			if err != nil {
				ClearSessionCookie(w, r, false)
				writeError(w, http.StatusForbidden, "invalid or expired session")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// OptionalSession attaches the identity of a valid session cookie when one
// is present. Anything else leaves the request anonymous.
func OptionalSession(v Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
				if id, err := v.Verify(r.Context(), c.Value); err == nil {
					r = r.WithContext(WithIdentity(r.Context(), id))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole lets through only identities holding one of roles. It must
// run after RequireSession.
func RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := IdentityFromContext(r.Context())
			if id == nil || !slices.Contains(roles, id.Role) {
				writeError(w, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *models.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the verified identity of the request, or nil
// for anonymous requests.
func IdentityFromContext(ctx context.Context) *models.Identity {
	id, _ := ctx.Value(identityKey).(*models.Identity)
	return id
}

// SecureRequest reports whether the request reached us over HTTPS, directly
// or through a proxy.
func SecureRequest(r *http.Request) bool {
	return r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https"
}

// ClearSessionCookie expires the session cookie on the client.
func ClearSessionCookie(w http.ResponseWriter, r *http.Request, forceSecure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   forceSecure || SecureRequest(r),
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
