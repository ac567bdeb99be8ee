// Package service coordinates DID registration between the off-chain user
// record and the on-chain DIDRegistry. The registry is authoritative; the
// user record is a cache that is corrected whenever the two disagree.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"verifyx/internal/anchor/models"
	"verifyx/internal/anchor/registry"
	idModels "verifyx/internal/identity/models"
	"verifyx/internal/sentinel"
	id "verifyx/pkg/domain"
	dErrors "verifyx/pkg/domain-errors"
	"verifyx/pkg/platform/audit"
	"verifyx/pkg/requestcontext"
)

// Users is the identity port.
type Users interface {
	Get(ctx context.Context, userID id.UserID) (*idModels.User, error)
	FindByWallet(ctx context.Context, wallet id.WalletAddress) (*idModels.User, error)
	SyncDIDRegistered(ctx context.Context, userID id.UserID) (*idModels.User, error)
	ConfirmDIDRegistration(ctx context.Context, userID id.UserID, publicKey, controller, txHash string) (*idModels.User, error)
}

// Registry is the DIDRegistry port. GetDID returns sentinel.ErrNotFound for
// unknown owners; transport failures carry CodeUnavailable.
type Registry interface {
	HasDID(ctx context.Context, owner common.Address) (bool, error)
	GetDID(ctx context.Context, owner common.Address) (*registry.DIDDocument, error)
	Status(ctx context.Context) registry.NetworkStatus
	PrepareRegisterDID(publicKey string) (*registry.PreparedTx, error)
	PrepareUpdateDID(newPublicKey string) (*registry.PreparedTx, error)
	PrepareDeactivateDID() (*registry.PreparedTx, error)
}

type Service struct {
	users    Users
	registry Registry
	auditor  audit.Emitter
	logger   *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditor(auditor audit.Emitter) Option {
	return func(s *Service) {
		s.auditor = auditor
	}
}

func New(users Users, registry Registry, opts ...Option) *Service {
	s := &Service{
		users:    users,
		registry: registry,
		auditor:  audit.NopEmitter{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Prepare returns unsigned registerDID calldata for the caller's wallet.
// A DID the registry already holds is synced into the user record and
// reported as already existing.
func (s *Service) Prepare(ctx context.Context, userID id.UserID, publicKey string) (*registry.PreparedTx, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Blockchain.DIDRegistered {
		return nil, dErrors.New(dErrors.CodeAlreadyRegistered, "DID already registered on blockchain")
	}

	onChain, err := s.registry.HasDID(ctx, user.WalletAddress.Address())
	if err != nil {
		return nil, err
	}
	if onChain {
		if _, err := s.users.SyncDIDRegistered(ctx, userID); err != nil {
			s.logger.ErrorContext(ctx, "failed to sync DID registration from registry",
				"user_id", userID.String(),
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
		return nil, dErrors.New(dErrors.CodeAlreadyExists, "DID already exists on blockchain")
	}

	tx, err := s.registry.PrepareRegisterDID(publicKey)
	if err != nil {
		return nil, err
	}
	tx.WalletAddress = user.WalletAddress.String()
	return tx, nil
}

// Confirm records the registration once the registry reports the DID.
func (s *Service) Confirm(ctx context.Context, userID id.UserID, txHash string) (*models.Registration, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	owner := user.WalletAddress.Address()

	onChain, err := s.registry.HasDID(ctx, owner)
	if err != nil {
		return nil, err
	}
	if !onChain {
		return nil, dErrors.New(dErrors.CodeNotYetConfirmed, "DID not found on blockchain, the transaction may be pending")
	}
	doc, err := s.registry.GetDID(ctx, owner)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotYetConfirmed, "DID not found on blockchain, the transaction may be pending")
	}
	if err != nil {
		return nil, err
	}

	controller := strings.ToLower(doc.Controller.Hex())
	txHash = strings.ToLower(txHash)
	updated, err := s.users.ConfirmDIDRegistration(ctx, userID, doc.PublicKey, controller, txHash)
	if err != nil {
		return nil, err
	}

	s.emit(ctx, userID, updated.DID, map[string]string{"tx_hash": txHash, "controller": controller})
	s.logger.InfoContext(ctx, "DID registration confirmed",
		"user_id", userID.String(),
		"wallet", updated.WalletAddress.Short(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return &models.Registration{
		DID:          updated.DID,
		Controller:   controller,
		PublicKey:    doc.PublicKey,
		TxHash:       txHash,
		RegisteredAt: updated.Blockchain.RegisteredAt,
	}, nil
}

// PrepareUpdate returns updateDID calldata. Only verified users with a
// registered DID may rotate their key.
func (s *Service) PrepareUpdate(ctx context.Context, userID id.UserID, newPublicKey string) (*registry.PreparedTx, error) {
	user, err := s.requireRegistered(ctx, userID)
	if err != nil {
		return nil, err
	}
	tx, err := s.registry.PrepareUpdateDID(newPublicKey)
	if err != nil {
		return nil, err
	}
	tx.WalletAddress = user.WalletAddress.String()
	return tx, nil
}

// PrepareDeactivate returns deactivateDID calldata. Deactivation cannot be
// undone on chain.
func (s *Service) PrepareDeactivate(ctx context.Context, userID id.UserID) (*registry.PreparedTx, error) {
	user, err := s.requireRegistered(ctx, userID)
	if err != nil {
		return nil, err
	}
	tx, err := s.registry.PrepareDeactivateDID()
	if err != nil {
		return nil, err
	}
	tx.WalletAddress = user.WalletAddress.String()
	return tx, nil
}

// Lookup resolves the DID of an address, preferring the registry and
// falling back to the off-chain record.
func (s *Service) Lookup(ctx context.Context, address string) (*models.Document, error) {
	wallet, err := parseAddress(address)
	if err != nil {
		return nil, err
	}
	owner := wallet.Address()

	onChain, err := s.registry.HasDID(ctx, owner)
	if err != nil {
		return nil, err
	}
	if onChain {
		doc, err := s.registry.GetDID(ctx, owner)
		switch {
		case err == nil:
			createdAt := doc.CreatedAt
			active := doc.IsActive
			return &models.Document{
				ID:         wallet.DefaultDID(),
				Controller: strings.ToLower(doc.Controller.Hex()),
				PublicKey:  doc.PublicKey,
				CreatedAt:  &createdAt,
				IsActive:   &active,
				OnChain:    true,
				Source:     models.SourceBlockchain,
			}, nil
		case !errors.Is(err, sentinel.ErrNotFound):
			return nil, err
		}
	}

	user, err := s.users.FindByWallet(ctx, wallet)
	if dErrors.HasCode(err, dErrors.CodeNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "DID not found")
	}
	if err != nil {
		return nil, err
	}
	status := "unregistered"
	if user.Blockchain.DIDRegistered {
		status = "registered"
	}
	return &models.Document{
		ID:         user.DID,
		Controller: user.WalletAddress.String(),
		PublicKey:  user.PublicKey,
		OnChain:    false,
		Status:     status,
		Source:     models.SourceDatabase,
	}, nil
}

// Check reports whether the registry holds a DID for address.
func (s *Service) Check(ctx context.Context, address string) (*models.Check, error) {
	wallet, err := parseAddress(address)
	if err != nil {
		return nil, err
	}
	onChain, err := s.registry.HasDID(ctx, wallet.Address())
	if err != nil {
		return nil, err
	}
	out := &models.Check{Address: wallet.String(), HasDID: onChain}
	if onChain {
		did := wallet.DefaultDID()
		out.DID = &did
	}
	return out, nil
}

// Status reports registry connectivity. It never fails; an unreachable node
// is reported as disconnected.
func (s *Service) Status(ctx context.Context) registry.NetworkStatus {
	return s.registry.Status(ctx)
}

func (s *Service) requireRegistered(ctx context.Context, userID id.UserID) (*idModels.User, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.Verification.IsVerified {
		return nil, dErrors.New(dErrors.CodeForbidden, "identity verification is required")
	}
	if !user.Blockchain.DIDRegistered {
		return nil, dErrors.New(dErrors.CodeConflict, "DID not registered on blockchain")
	}
	return user, nil
}

func (s *Service) emit(ctx context.Context, userID id.UserID, did string, attrs map[string]string) {
	err := s.auditor.Emit(ctx, audit.Event{
		Timestamp:  requestcontext.Now(ctx),
		Action:     audit.ActionDIDRegistered,
		UserID:     userID,
		Subject:    did,
		RequestID:  requestcontext.RequestID(ctx),
		Attributes: attrs,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"action", string(audit.ActionDIDRegistered),
			"error", err,
		)
	}
}

func parseAddress(address string) (id.WalletAddress, error) {
	wallet, err := id.ParseWalletAddress(address)
	if err != nil {
		return "", dErrors.New(dErrors.CodeValidation, "invalid Ethereum address")
	}
	return wallet, nil
}
