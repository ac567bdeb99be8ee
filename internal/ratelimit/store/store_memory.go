package store

import (
	"context"
	"sync"
	"time"

	"verifyx/internal/ratelimit/models"
	"verifyx/pkg/requestcontext"
)

type window struct {
	count   int
	resetAt time.Time
}

// InMemoryStore keeps fixed windows in a map. Lapsed windows are swept at most
// once per sweep interval from inside Allow.
type InMemoryStore struct {
	mu        sync.Mutex
	windows   map[string]*window
	nextSweep time.Time
	sweep     time.Duration
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		windows: make(map[string]*window),
		sweep:   time.Minute,
	}
}

// Allow counts one request against key. The request that opens a window is
// always allowed; the window resets policy.Window after it opened.
func (s *InMemoryStore) Allow(ctx context.Context, key string, policy models.Policy) (*models.Result, error) {
	now := requestcontext.Now(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if now.After(s.nextSweep) {
		s.sweepLocked(now)
		s.nextSweep = now.Add(s.sweep)
	}

	w, ok := s.windows[key]
	if !ok || now.After(w.resetAt) {
		w = &window{resetAt: now.Add(policy.Window)}
		s.windows[key] = w
	}
	if w.count < policy.Requests {
		w.count++
		return models.NewResult(w.count, policy, w.resetAt, now), nil
	}
	// Rejected requests are not counted so the window still resets on time.
	return models.NewResult(policy.Requests+1, policy, w.resetAt, now), nil
}

// Reset drops the window for key.
func (s *InMemoryStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.windows, key)
	return nil
}

// Len reports the number of tracked windows.
func (s *InMemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}

func (s *InMemoryStore) sweepLocked(now time.Time) {
	for k, w := range s.windows {
		if now.After(w.resetAt) {
			delete(s.windows, k)
		}
	}
}
