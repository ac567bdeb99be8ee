// Package service owns the user identity record: creation on first sign-in,
// the one-way verified flag, and the cached DID registration state.
package service

import (
	"context"
	"errors"
	"log/slog"

	"verifyx/internal/identity/models"
	"verifyx/internal/sentinel"
	id "verifyx/pkg/domain"
	dErrors "verifyx/pkg/domain-errors"
	"verifyx/pkg/requestcontext"
)

// Store is the persistence port for users.
// Error contract: FindBy* return sentinel.ErrNotFound, Save returns
// sentinel.ErrConflict on a duplicate wallet.
type Store interface {
	Save(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	FindByWallet(ctx context.Context, wallet id.WalletAddress) (*models.User, error)
	Execute(ctx context.Context, userID id.UserID, validate func(*models.User) error, mutate func(*models.User)) (*models.User, error)
}

type Service struct {
	store  Store
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Get(ctx context.Context, userID id.UserID) (*models.User, error) {
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		return nil, translate(err, "user not found", "failed to load user")
	}
	return user, nil
}

func (s *Service) FindByWallet(ctx context.Context, wallet id.WalletAddress) (*models.User, error) {
	user, err := s.store.FindByWallet(ctx, wallet)
	if err != nil {
		return nil, translate(err, "user not found", "failed to load user")
	}
	return user, nil
}

// SignIn finds or creates the user for a wallet and records the login.
func (s *Service) SignIn(ctx context.Context, wallet id.WalletAddress) (*models.User, error) {
	now := requestcontext.Now(ctx)

	user, err := s.store.FindByWallet(ctx, wallet)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		user = models.NewUser(wallet, now)
		user.RecordLogin(now)
		if err := s.store.Save(ctx, user); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				// Lost a race with a concurrent first sign-in.
				return s.SignIn(ctx, wallet)
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
		}
		s.logger.InfoContext(ctx, "user created",
			"user_id", user.ID.String(),
			"wallet", wallet.Short(),
		)
		return user, nil
	case err != nil:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}

	return s.execute(ctx, user.ID, func(u *models.User) { u.RecordLogin(now) })
}

// MarkVerified sets the verified flag. Already-verified users are left untouched.
func (s *Service) MarkVerified(ctx context.Context, userID id.UserID) (*models.User, error) {
	now := requestcontext.Now(ctx)
	return s.execute(ctx, userID, func(u *models.User) { u.MarkVerified(now) })
}

// SyncDIDRegistered corrects the cached flag after the registry reported a DID.
func (s *Service) SyncDIDRegistered(ctx context.Context, userID id.UserID) (*models.User, error) {
	now := requestcontext.Now(ctx)
	return s.execute(ctx, userID, func(u *models.User) { u.SyncRegistered(now) })
}

// ConfirmDIDRegistration stores the chain-reported DID fields.
func (s *Service) ConfirmDIDRegistration(ctx context.Context, userID id.UserID, publicKey, controller, txHash string) (*models.User, error) {
	now := requestcontext.Now(ctx)
	return s.execute(ctx, userID, func(u *models.User) {
		u.ConfirmRegistration(publicKey, controller, txHash, now)
	})
}

func (s *Service) execute(ctx context.Context, userID id.UserID, mutate func(*models.User)) (*models.User, error) {
	user, err := s.store.Execute(ctx, userID, func(*models.User) error { return nil }, mutate)
	if err != nil {
		return nil, translate(err, "user not found", "failed to update user")
	}
	return user, nil
}

func translate(err error, notFound, internal string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeNotFound, notFound)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, internal)
}
