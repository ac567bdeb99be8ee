package store

import (
	"context"
	"fmt"
	"sync"

	"verifyx/internal/identity/models"
	"verifyx/internal/sentinel"
	id "verifyx/pkg/domain"
)

// InMemoryUserStore stores users in memory for tests/dev.
type InMemoryUserStore struct {
	mu       sync.RWMutex
	users    map[id.UserID]*models.User
	byWallet map[id.WalletAddress]id.UserID
}

func NewInMemoryUserStore() *InMemoryUserStore {
	return &InMemoryUserStore{
		users:    make(map[id.UserID]*models.User),
		byWallet: make(map[id.WalletAddress]id.UserID),
	}
}

func (s *InMemoryUserStore) Save(_ context.Context, user *models.User) error {
	if user == nil {
		return fmt.Errorf("user is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.byWallet[user.WalletAddress]; ok && existing != user.ID {
		return fmt.Errorf("wallet already registered: %w", sentinel.ErrConflict)
	}
	cp := *user
	s.users[user.ID] = &cp
	s.byWallet[user.WalletAddress] = user.ID
	return nil
}

func (s *InMemoryUserStore) FindByID(_ context.Context, userID id.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[userID]
	if !ok {
		return nil, fmt.Errorf("user not found: %w", sentinel.ErrNotFound)
	}
	cp := *user
	return &cp, nil
}

func (s *InMemoryUserStore) FindByWallet(_ context.Context, wallet id.WalletAddress) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.byWallet[wallet]
	if !ok {
		return nil, fmt.Errorf("user not found: %w", sentinel.ErrNotFound)
	}
	cp := *s.users[userID]
	return &cp, nil
}

// Execute validates and mutates a user under the store lock.
func (s *InMemoryUserStore) Execute(_ context.Context, userID id.UserID, validate func(*models.User) error, mutate func(*models.User)) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return nil, fmt.Errorf("user not found: %w", sentinel.ErrNotFound)
	}
	cp := *user
	if err := validate(&cp); err != nil {
		return nil, err
	}
	mutate(&cp)
	s.users[userID] = &cp
	out := cp
	return &out, nil
}
