package requesttime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"verifyx/pkg/requestcontext"
)

func serve(h http.Handler) {
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/verifications", nil))
}

func TestMiddleware_SetsTimeInContext(t *testing.T) {
	var captured time.Time
	before := time.Now()
	serve(Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = requestcontext.Now(r.Context())
	})))
	after := time.Now()

	assert.False(t, captured.Before(before.Truncate(time.Second)))
	assert.False(t, captured.After(after))
	assert.Equal(t, time.UTC, captured.Location())
}

func TestMiddleware_TimeIsStableWithinRequest(t *testing.T) {
	var first, second time.Time
	serve(Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		first = requestcontext.Now(r.Context())
		time.Sleep(5 * time.Millisecond)
		second = requestcontext.Now(r.Context())
	})))

	assert.Equal(t, first, second)
}

func TestWithClock_UsesInjectedClock(t *testing.T) {
	fixed := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	var captured time.Time
	serve(WithClock(func() time.Time { return fixed })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = requestcontext.Now(r.Context())
	})))

	assert.Equal(t, fixed, captured)
}

func TestNow_FallsBackOutsideRequests(t *testing.T) {
	before := time.Now()
	got := requestcontext.Now(context.Background())
	assert.False(t, got.Before(before))
}
