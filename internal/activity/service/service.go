// Package service assembles the activity feed for a user.
package service

import (
	"context"

	"verifyx/internal/activity/projector"
	credModels "verifyx/internal/credential/models"
	docModels "verifyx/internal/document/models"
	idModels "verifyx/internal/identity/models"
	id "verifyx/pkg/domain"
	dErrors "verifyx/pkg/domain-errors"
)

type Users interface {
	Get(ctx context.Context, userID id.UserID) (*idModels.User, error)
}

type Documents interface {
	List(ctx context.Context, userID id.UserID) ([]*docModels.Document, error)
}

type Credentials interface {
	ListBySubject(ctx context.Context, userID id.UserID) ([]*credModels.Credential, error)
}

type Service struct {
	users       Users
	documents   Documents
	credentials Credentials
}

func New(users Users, documents Documents, credentials Credentials) *Service {
	return &Service{users: users, documents: documents, credentials: credentials}
}

// Feed reads the user's documents and credentials and projects them into
// events. A failure reading any source fails the whole feed.
func (s *Service) Feed(ctx context.Context, userID id.UserID) (*projector.Feed, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	docs, err := s.documents.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	creds, err := s.credentials.ListBySubject(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list credentials")
	}

	feed := projector.Project(projector.Input{User: user, Documents: docs, Credentials: creds})
	return &feed, nil
}
