// Package ledger owns the mutable part of a credential: its revocation and
// its usage counters. Content fields never change after issuance.
package ledger

import (
	"context"
	"errors"
	"time"

	"verifyx/internal/credential/models"
	"verifyx/internal/sentinel"
	id "verifyx/pkg/domain"
	dErrors "verifyx/pkg/domain-errors"
)

// Store is the persistence port. Revoke must be a conditional transition on
// status=active and return the current credential with
// sentinel.ErrInvalidState when refused; foreign credentials are
// sentinel.ErrNotFound. Increments must be atomic.
type Store interface {
	Revoke(ctx context.Context, credentialID string, userID id.UserID, reason string, now time.Time) (*models.Credential, error)
	IncrementShare(ctx context.Context, credentialID string, now time.Time) error
	IncrementVerify(ctx context.Context, credentialID string, now time.Time) error
}

type Ledger struct {
	store Store
}

func New(store Store) *Ledger {
	return &Ledger{store: store}
}

// Revoke moves an active credential owned by userID to revoked. The first
// revocation's reason and timestamp are never overwritten.
func (l *Ledger) Revoke(ctx context.Context, credentialID string, userID id.UserID, reason string, now time.Time) (*models.Credential, error) {
	cred, err := l.store.Revoke(ctx, credentialID, userID, reason, now)
	switch {
	case err == nil:
		return cred, nil
	case errors.Is(err, sentinel.ErrNotFound):
		return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "credential not found")
	case errors.Is(err, sentinel.ErrInvalidState):
		if cred != nil && cred.Status == models.StatusRevoked {
			return nil, dErrors.Wrap(err, dErrors.CodeAlreadyRevoked, "credential is already revoked")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeConflict, "credential cannot be revoked in its current state")
	default:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke credential")
	}
}

func (l *Ledger) RecordShare(ctx context.Context, credentialID string, now time.Time) error {
	return l.store.IncrementShare(ctx, credentialID, now)
}

func (l *Ledger) RecordVerify(ctx context.Context, credentialID string, now time.Time) error {
	return l.store.IncrementVerify(ctx, credentialID, now)
}
