package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"verifyx/internal/platform/metrics"
	ratelimitmodels "verifyx/internal/ratelimit/models"
	"verifyx/pkg/platform/middleware/request"
	"verifyx/pkg/platform/middleware/requesttime"
)

func (a *app) router() http.Handler {
	r := chi.NewRouter()

	r.Use(request.Recovery(a.logger))
	r.Use(request.RequestID)
	r.Use(a.metadata.Handler)
	r.Use(requesttime.Middleware)
	r.Use(request.Logger(a.logger))
	r.Use(request.LatencyMiddleware(a.reqMetrics))
	r.Use(request.ContentTypeJSON)
	r.Use(request.Timeout(a.cfg.Server.RequestTimeout))

	a.health.Register(r)
	r.Handle("/metrics", metrics.Handler())

	// Public reads. Hash lookups are rate limited per client IP.
	a.anchor.RegisterPublic(r)
	verifyPolicy := ratelimitmodels.Policy{Requests: a.cfg.RateLimit.Requests, Window: a.cfg.RateLimit.Window}
	a.credentials.RegisterPublic(r.With(a.rateLimiter.RateLimit(ratelimitmodels.ClassVerify, verifyPolicy)))

	r.Group(func(r chi.Router) {
		r.Use(a.auth)
		a.documents.Register(r)
		a.verification.Register(r)
		a.credentials.Register(r)
		a.anchor.Register(r)
		a.activity.Register(r)
	})

	return r
}
