package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"verifyx/internal/ratelimit/metrics"
	"verifyx/internal/ratelimit/models"
	dErrors "verifyx/pkg/domain-errors"
	"verifyx/pkg/platform/circuit"
	"verifyx/pkg/platform/httputil"
	"verifyx/pkg/platform/privacy"
	"verifyx/pkg/requestcontext"
)

// Counter counts one request against a fixed window.
type Counter interface {
	Allow(ctx context.Context, key string, policy models.Policy) (*models.Result, error)
}

type Middleware struct {
	primary  Counter
	fallback Counter
	breaker  *circuit.Breaker
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

type Option func(*Middleware)

// WithFallback serves limits from fallback while breaker is open or when the
// primary store fails. Fallback windows are per instance.
func WithFallback(fallback Counter, breaker *circuit.Breaker) Option {
	return func(m *Middleware) {
		m.fallback = fallback
		m.breaker = breaker
	}
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Middleware) {
		m.metrics = mt
	}
}

func New(primary Counter, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{primary: primary, logger: logger}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RateLimit limits requests per client IP. When no store can answer the
// request is let through.
func (m *Middleware) RateLimit(class models.Class, policy models.Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ip := requestcontext.ClientIP(ctx)
			key := models.NewKey(models.KeyPrefixIP, ip, class).String()

			result, degraded, err := m.check(ctx, key, policy)
			if err != nil {
				m.logger.ErrorContext(ctx, "failed to check rate limit",
					"error", err,
					"ip_prefix", privacy.AnonymizeIP(ip),
					"request_id", requestcontext.RequestID(ctx),
				)
				m.observe(class, "error")
				next.ServeHTTP(w, r)
				return
			}

			addRateLimitHeaders(w, result)
			if degraded {
				w.Header().Set("X-RateLimit-Status", "degraded")
			}

			if !result.Allowed {
				m.logger.WarnContext(ctx, "rate limit exceeded",
					"class", string(class),
					"ip_prefix", privacy.AnonymizeIP(ip),
					"request_id", requestcontext.RequestID(ctx),
				)
				m.observe(class, "rejected")
				w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
				httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "too many requests, please try again later"))
				return
			}

			m.observe(class, "allowed")
			next.ServeHTTP(w, r)
		})
	}
}

// check consults the primary store unless the breaker is open. A primary
// failure falls back for this request and is recorded on the breaker.
func (m *Middleware) check(ctx context.Context, key string, policy models.Policy) (*models.Result, bool, error) {
	if m.breaker != nil && !m.breaker.Allow() {
		m.setDegraded(true)
		res, err := m.fallback.Allow(ctx, key, policy)
		return res, true, err
	}

	res, err := m.primary.Allow(ctx, key, policy)
	if err == nil {
		if m.breaker != nil {
			m.breaker.RecordSuccess()
			m.setDegraded(false)
		}
		return res, false, nil
	}

	if m.metrics != nil {
		m.metrics.StoreErrors.Inc()
	}
	if m.breaker == nil || m.fallback == nil {
		return nil, false, err
	}
	m.breaker.RecordFailure()
	m.logger.WarnContext(ctx, "rate limit store failed, using fallback",
		"error", err,
		"breaker_state", m.breaker.State().String(),
	)
	m.setDegraded(true)
	res, err = m.fallback.Allow(ctx, key, policy)
	return res, true, err
}

func (m *Middleware) observe(class models.Class, outcome string) {
	if m.metrics != nil {
		m.metrics.Decisions.WithLabelValues(string(class), outcome).Inc()
	}
}

func (m *Middleware) setDegraded(on bool) {
	if m.metrics == nil {
		return
	}
	if on {
		m.metrics.Degraded.Set(1)
	} else {
		m.metrics.Degraded.Set(0)
	}
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}
