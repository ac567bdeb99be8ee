// Package requesttime pins a single "now" per HTTP request so that session
// expiry checks, credential timestamps, and audit events agree with each other.
package requesttime

import (
	"net/http"
	"time"

	"verifyx/pkg/requestcontext"
)

// Clock returns the current time. Tests swap it for a fixed clock.
type Clock func() time.Time

// Middleware captures the request time using the wall clock.
func Middleware(next http.Handler) http.Handler {
	return WithClock(time.Now)(next)
}

// WithClock captures the request time from clock and stores it via requestcontext.WithTime.
func WithClock(clock Clock) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := requestcontext.WithTime(r.Context(), clock().UTC())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
