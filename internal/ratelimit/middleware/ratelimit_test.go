package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"verifyx/internal/ratelimit/models"
	"verifyx/internal/ratelimit/store"
	"verifyx/pkg/platform/circuit"
	"verifyx/pkg/requestcontext"
)

type failingCounter struct {
	calls int
}

func (f *failingCounter) Allow(context.Context, string, models.Policy) (*models.Result, error) {
	f.calls++
	return nil, errors.New("redis: connection refused")
}

type MiddlewareSuite struct {
	suite.Suite
	logger *slog.Logger
	policy models.Policy
	now    time.Time
}

func TestMiddlewareSuite(t *testing.T) {
	suite.Run(t, new(MiddlewareSuite))
}

func (s *MiddlewareSuite) SetupTest() {
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	s.policy = models.Policy{Requests: 2, Window: time.Minute}
	s.now = time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC)
}

func (s *MiddlewareSuite) serve(h http.Handler, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/credentials/verify/abc", nil)
	ctx := requestcontext.WithClientMetadata(req.Context(), ip, "test-agent")
	ctx = requestcontext.WithTime(ctx, s.now)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req.WithContext(ctx))
	return w
}

func ok() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func (s *MiddlewareSuite) TestExhaustion() {
	mw := New(store.NewInMemoryStore(), s.logger)
	h := mw.RateLimit(models.ClassVerify, s.policy)(ok())

	w := s.serve(h, "203.0.113.7")
	s.Equal(http.StatusOK, w.Code)
	s.Equal("2", w.Header().Get("X-RateLimit-Limit"))
	s.Equal("1", w.Header().Get("X-RateLimit-Remaining"))

	s.Equal(http.StatusOK, s.serve(h, "203.0.113.7").Code)

	w = s.serve(h, "203.0.113.7")
	s.Equal(http.StatusTooManyRequests, w.Code)
	s.Equal("60", w.Header().Get("Retry-After"))

	var body struct {
		Error string `json:"error"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	s.Equal("rate_limited", body.Error)

	s.Equal(http.StatusOK, s.serve(h, "198.51.100.1").Code, "limits are per client IP")
}

func (s *MiddlewareSuite) TestFailOpenWithoutFallback() {
	primary := &failingCounter{}
	h := New(primary, s.logger).RateLimit(models.ClassVerify, s.policy)(ok())

	for range 3 {
		s.Equal(http.StatusOK, s.serve(h, "203.0.113.7").Code)
	}
	s.Equal(3, primary.calls)
}

func (s *MiddlewareSuite) TestFallbackWhilePrimaryIsDown() {
	primary := &failingCounter{}
	breaker := circuit.New("ratelimit", circuit.WithFailureThreshold(1), circuit.WithCooldown(time.Hour))
	mw := New(primary, s.logger, WithFallback(store.NewInMemoryStore(), breaker))
	h := mw.RateLimit(models.ClassVerify, s.policy)(ok())

	w := s.serve(h, "203.0.113.7")
	s.Equal(http.StatusOK, w.Code)
	s.Equal("degraded", w.Header().Get("X-RateLimit-Status"))
	s.Equal(circuit.StateOpen, breaker.State())

	s.Equal(http.StatusOK, s.serve(h, "203.0.113.7").Code)
	s.Equal(http.StatusTooManyRequests, s.serve(h, "203.0.113.7").Code, "fallback still enforces limits")
	s.Equal(1, primary.calls, "open breaker skips the primary store")
}
