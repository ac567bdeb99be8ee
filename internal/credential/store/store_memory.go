package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"verifyx/internal/credential/models"
	"verifyx/internal/sentinel"
	id "verifyx/pkg/domain"
)

// InMemoryStore keeps credentials in memory for tests and local development.
type InMemoryStore struct {
	mu             sync.RWMutex
	credentials    map[string]*models.Credential
	byHash         map[string]string
	byVerification map[id.VerificationID]string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		credentials:    make(map[string]*models.Credential),
		byHash:         make(map[string]string),
		byVerification: make(map[id.VerificationID]string),
	}
}

// Create inserts a new credential. A second credential for the same
// verification session or hash is a conflict.
func (s *InMemoryStore) Create(_ context.Context, cred *models.Credential) error {
	if cred == nil {
		return fmt.Errorf("credential is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.credentials[cred.ID]; ok {
		return fmt.Errorf("credential id taken: %w", sentinel.ErrConflict)
	}
	if _, ok := s.byHash[cred.Hash]; ok {
		return fmt.Errorf("credential hash taken: %w", sentinel.ErrConflict)
	}
	if _, ok := s.byVerification[cred.VerificationID]; ok {
		return fmt.Errorf("verification already backs a credential: %w", sentinel.ErrConflict)
	}
	s.credentials[cred.ID] = cred.Clone()
	s.byHash[cred.Hash] = cred.ID
	s.byVerification[cred.VerificationID] = cred.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, credentialID string) (*models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cred, ok := s.credentials[credentialID]
	if !ok {
		return nil, fmt.Errorf("credential not found: %w", sentinel.ErrNotFound)
	}
	return cred.Clone(), nil
}

func (s *InMemoryStore) FindByHash(_ context.Context, hash string) (*models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	credID, ok := s.byHash[hash]
	if !ok {
		return nil, fmt.Errorf("credential not found: %w", sentinel.ErrNotFound)
	}
	return s.credentials[credID].Clone(), nil
}

// ListBySubject returns the user's credentials, newest first.
func (s *InMemoryStore) ListBySubject(_ context.Context, userID id.UserID) ([]*models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Credential
	for _, cred := range s.credentials {
		if cred.Subject.UserID == userID {
			out = append(out, cred.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IssuedAt.Equal(out[j].IssuedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].IssuedAt.After(out[j].IssuedAt)
	})
	return out, nil
}

// Revoke transitions an active credential owned by userID. Foreign
// credentials are reported as not found. A refused transition returns the
// current credential alongside sentinel.ErrInvalidState.
func (s *InMemoryStore) Revoke(_ context.Context, credentialID string, userID id.UserID, reason string, now time.Time) (*models.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred, ok := s.credentials[credentialID]
	if !ok || !cred.IsOwnedBy(userID) {
		return nil, fmt.Errorf("credential not found: %w", sentinel.ErrNotFound)
	}
	working := cred.Clone()
	if err := working.Revoke(reason, userID, now); err != nil {
		return working, err
	}
	s.credentials[credentialID] = working.Clone()
	return working, nil
}

func (s *InMemoryStore) IncrementShare(_ context.Context, credentialID string, now time.Time) error {
	return s.update(credentialID, func(c *models.Credential) { c.RecordShare(now) })
}

func (s *InMemoryStore) IncrementVerify(_ context.Context, credentialID string, now time.Time) error {
	return s.update(credentialID, func(c *models.Credential) { c.RecordVerify(now) })
}

// RecordAnchor stores anchoring metadata once. A credential already
// anchored is left as is.
func (s *InMemoryStore) RecordAnchor(_ context.Context, credentialID string, chain models.Blockchain) (*models.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred, ok := s.credentials[credentialID]
	if !ok {
		return nil, fmt.Errorf("credential not found: %w", sentinel.ErrNotFound)
	}
	if cred.Blockchain.Stored {
		return cred.Clone(), nil
	}
	working := cred.Clone()
	working.Blockchain = chain
	working.Blockchain.Stored = true
	s.credentials[credentialID] = working.Clone()
	return working, nil
}

func (s *InMemoryStore) update(credentialID string, fn func(*models.Credential)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred, ok := s.credentials[credentialID]
	if !ok {
		return fmt.Errorf("credential not found: %w", sentinel.ErrNotFound)
	}
	fn(cred)
	return nil
}
