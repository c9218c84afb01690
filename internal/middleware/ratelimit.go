package middleware

import (
	"context"
	"net/http"
)

// Limiter decides whether another request for key fits the current window.
type Limiter interface {
	Allow(ctx context.Context, key string) bool
}

// RateLimit answers 429 once the client address exceeds l. A nil limiter
// disables the check. Forwarded headers count only from trusted proxies.
func RateLimit(l Limiter, trusted *TrustedProxies) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if l == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(r.Context(), ClientIP(r, trusted)) {
				writeError(w, http.StatusTooManyRequests, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
