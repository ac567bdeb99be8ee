package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"verifyx/internal/sentinel"
	"verifyx/internal/verification/models"
	id "verifyx/pkg/domain"
	vsync "verifyx/pkg/platform/sync"
)

// InMemoryStore keeps sessions in process. Creation is serialized per user
// and Execute per session through sharded mutexes.
type InMemoryStore struct {
	mu           sync.RWMutex
	sessions     map[id.VerificationID]*models.Session
	byUser       map[id.UserID][]id.VerificationID
	userLocks    *vsync.ShardedMutex
	sessionLocks *vsync.ShardedMutex
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions:     make(map[id.VerificationID]*models.Session),
		byUser:       make(map[id.UserID][]id.VerificationID),
		userLocks:    vsync.NewShardedMutex(),
		sessionLocks: vsync.NewShardedMutex(),
	}
}

// Create inserts session unless the user already has an active one, in which
// case it returns sentinel.ErrConflict. Stale sessions are marked expired first.
func (s *InMemoryStore) Create(_ context.Context, session *models.Session, now time.Time) error {
	if session == nil {
		return fmt.Errorf("session is required")
	}
	return s.userLocks.WithLock(session.UserID.String(), func() error {
		s.mu.Lock()
		defer s.mu.Unlock()

		for _, sid := range s.byUser[session.UserID] {
			existing := s.sessions[sid]
			if existing.IsActive(now) {
				return fmt.Errorf("user has an active session: %w", sentinel.ErrConflict)
			}
			if existing.IsExpired(now) {
				expired := existing.Clone()
				expired.MarkExpired(now)
				s.sessions[sid] = expired
			}
		}

		s.sessions[session.ID] = session.Clone()
		s.byUser[session.UserID] = append(s.byUser[session.UserID], session.ID)
		return nil
	})
}

func (s *InMemoryStore) FindByID(_ context.Context, sessionID id.VerificationID) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("verification session not found: %w", sentinel.ErrNotFound)
	}
	return session.Clone(), nil
}

// ListByUser returns the user's sessions, newest first.
func (s *InMemoryStore) ListByUser(_ context.Context, userID id.UserID) ([]*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Session, 0, len(s.byUser[userID]))
	for _, sid := range s.byUser[userID] {
		out = append(out, s.sessions[sid].Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// FindActiveByUser returns the most recent unexpired initiated or in-progress session.
func (s *InMemoryStore) FindActiveByUser(ctx context.Context, userID id.UserID, now time.Time) (*models.Session, error) {
	sessions, err := s.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, session := range sessions {
		if session.IsActive(now) {
			return session, nil
		}
	}
	return nil, fmt.Errorf("no active verification session: %w", sentinel.ErrNotFound)
}

// Execute runs validate and mutate against a private copy under the session
// lock and stores the result only when validate passes.
func (s *InMemoryStore) Execute(_ context.Context, sessionID id.VerificationID, validate func(*models.Session) error, mutate func(*models.Session)) (*models.Session, error) {
	key := sessionID.String()
	s.sessionLocks.Lock(key)
	defer s.sessionLocks.Unlock(key)

	s.mu.RLock()
	current, ok := s.sessions[sessionID]
	var working *models.Session
	if ok {
		working = current.Clone()
	}
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("verification session not found: %w", sentinel.ErrNotFound)
	}

	if err := validate(working); err != nil {
		return nil, err
	}
	mutate(working)

	s.mu.Lock()
	// Create may have expired the session meanwhile; expiry is never undone.
	if latest := s.sessions[sessionID]; latest.Status == models.StatusExpired && latest.CompletedAt != nil {
		working.MarkExpired(*latest.CompletedAt)
	}
	s.sessions[sessionID] = working.Clone()
	s.mu.Unlock()
	return working, nil
}

// DeleteExpired drops sessions that never reached a verdict and whose TTL has passed.
func (s *InMemoryStore) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for userID, ids := range s.byUser {
		kept := ids[:0]
		for _, sid := range ids {
			if isSweepable(s.sessions[sid], now) {
				delete(s.sessions, sid)
				deleted++
				continue
			}
			kept = append(kept, sid)
		}
		if len(kept) == 0 {
			delete(s.byUser, userID)
		} else {
			s.byUser[userID] = kept
		}
	}
	return deleted, nil
}
