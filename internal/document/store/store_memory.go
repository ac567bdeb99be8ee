package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"verifyx/internal/document/models"
	"verifyx/internal/sentinel"
	id "verifyx/pkg/domain"
)

// InMemoryDocumentStore stores document metadata in memory for tests/dev.
type InMemoryDocumentStore struct {
	mu        sync.RWMutex
	documents map[id.DocumentID]*models.Document
}

func NewInMemoryDocumentStore() *InMemoryDocumentStore {
	return &InMemoryDocumentStore{documents: make(map[id.DocumentID]*models.Document)}
}

func (s *InMemoryDocumentStore) Save(_ context.Context, doc *models.Document) error {
	if doc == nil {
		return fmt.Errorf("document is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *doc
	s.documents[doc.ID] = &cp
	return nil
}

func (s *InMemoryDocumentStore) FindByID(_ context.Context, documentID id.DocumentID) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[documentID]
	if !ok {
		return nil, fmt.Errorf("document not found: %w", sentinel.ErrNotFound)
	}
	cp := *doc
	return &cp, nil
}

// ListByUser returns the user's non-deleted documents, newest first.
func (s *InMemoryDocumentStore) ListByUser(_ context.Context, userID id.UserID) ([]*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Document
	for _, doc := range s.documents {
		if doc.UserID != userID || doc.IsDeleted {
			continue
		}
		cp := *doc
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemoryDocumentStore) Execute(_ context.Context, documentID id.DocumentID, validate func(*models.Document) error, mutate func(*models.Document)) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[documentID]
	if !ok {
		return nil, fmt.Errorf("document not found: %w", sentinel.ErrNotFound)
	}
	cp := *doc
	if err := validate(&cp); err != nil {
		return nil, err
	}
	mutate(&cp)
	s.documents[documentID] = &cp
	out := cp
	return &out, nil
}
