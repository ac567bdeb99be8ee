package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"verifyx/internal/verification/metrics"
)

// SessionStore exposes cleanup for verification sessions that were never completed.
type SessionStore interface {
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// CleanupResult summarizes the deletions performed by a cleanup run.
type CleanupResult struct {
	DeletedSessions int
}

// CleanupService periodically removes lapsed verification sessions. Expiry is
// enforced on every read, so the service only reclaims storage.
type CleanupService struct {
	sessions SessionStore
	interval time.Duration
	metrics  *metrics.Metrics
	logger   *slog.Logger
	clock    func() time.Time
}

// CleanupOption configures CleanupService.
type CleanupOption func(*CleanupService)

// WithCleanupInterval overrides the cleanup interval when greater than zero.
func WithCleanupInterval(interval time.Duration) CleanupOption {
	return func(s *CleanupService) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithCleanupLogger overrides the logger used for cleanup errors.
func WithCleanupLogger(logger *slog.Logger) CleanupOption {
	return func(s *CleanupService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithCleanupMetrics(m *metrics.Metrics) CleanupOption {
	return func(s *CleanupService) {
		s.metrics = m
	}
}

func WithCleanupClock(now func() time.Time) CleanupOption {
	return func(s *CleanupService) {
		if now != nil {
			s.clock = now
		}
	}
}

// New constructs a CleanupService with the required store and options applied.
func New(sessions SessionStore, opts ...CleanupOption) (*CleanupService, error) {
	if sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}
	svc := &CleanupService{
		sessions: sessions,
		interval: 5 * time.Minute,
		logger:   slog.Default(),
		clock:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc, nil
}

// Start runs cleanup periodically until ctx is cancelled.
func (s *CleanupService) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.logger.ErrorContext(ctx, "verification cleanup failed", "error", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// RunOnce performs a single cleanup pass.
func (s *CleanupService) RunOnce(ctx context.Context) (CleanupResult, error) {
	var res CleanupResult

	deleted, err := s.sessions.DeleteExpired(ctx, s.clock())
	if err != nil {
		return res, fmt.Errorf("delete expired verification sessions: %w", err)
	}
	res.DeletedSessions = deleted

	if deleted > 0 {
		if s.metrics != nil {
			s.metrics.AddSessionsCleaned(deleted)
		}
		s.logger.InfoContext(ctx, "verification cleanup removed sessions", "deleted", deleted)
	}
	return res, nil
}
