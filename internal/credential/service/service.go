// Package service is the credential workflow: issuance from a passed
// verification session, holder-side lifecycle and the public hash lookup.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"verifyx/internal/anchor/registry"
	"verifyx/internal/credential/issuer"
	"verifyx/internal/credential/metrics"
	"verifyx/internal/credential/models"
	docModels "verifyx/internal/document/models"
	idModels "verifyx/internal/identity/models"
	"verifyx/internal/sentinel"
	vModels "verifyx/internal/verification/models"
	id "verifyx/pkg/domain"
	dErrors "verifyx/pkg/domain-errors"
	"verifyx/pkg/platform/audit"
	"verifyx/pkg/requestcontext"
)

// Store is the persistence port for credentials. Create returns
// sentinel.ErrConflict when the hash or the verification session is taken;
// lookups return sentinel.ErrNotFound.
type Store interface {
	Create(ctx context.Context, cred *models.Credential) error
	FindByID(ctx context.Context, credentialID string) (*models.Credential, error)
	FindByHash(ctx context.Context, hash string) (*models.Credential, error)
	ListBySubject(ctx context.Context, userID id.UserID) ([]*models.Credential, error)
	RecordAnchor(ctx context.Context, credentialID string, chain models.Blockchain) (*models.Credential, error)
}

// Ledger owns revocation and usage counters. Revoke returns domain errors.
type Ledger interface {
	Revoke(ctx context.Context, credentialID string, userID id.UserID, reason string, now time.Time) (*models.Credential, error)
	RecordShare(ctx context.Context, credentialID string, now time.Time) error
	RecordVerify(ctx context.Context, credentialID string, now time.Time) error
}

// Sessions is the verification port. Get reports foreign sessions as NotFound.
type Sessions interface {
	Get(ctx context.Context, userID id.UserID, sessionID id.VerificationID) (*vModels.Session, error)
	LinkCredential(ctx context.Context, sessionID id.VerificationID, credentialID string) (*vModels.Session, error)
}

type Documents interface {
	Get(ctx context.Context, userID id.UserID, documentID id.DocumentID) (*docModels.Document, error)
}

type Users interface {
	Get(ctx context.Context, userID id.UserID) (*idModels.User, error)
	MarkVerified(ctx context.Context, userID id.UserID) (*idModels.User, error)
}

// Registry is the CredentialRegistry port used for anchoring.
type Registry interface {
	PrepareIssueCredential(hash common.Hash, subject common.Address, expiresAt time.Time) (*registry.PreparedTx, error)
	VerifyCredential(ctx context.Context, hash common.Hash) (bool, error)
	Receipt(ctx context.Context, txHash common.Hash) (*registry.Receipt, error)
	Contracts() registry.Contracts
	Network() string
}

// VerifyPathPrefix is the public lookup route a shared hash resolves to.
const VerifyPathPrefix = "/api/v1/credentials/verify/"

type Service struct {
	store     Store
	ledger    Ledger
	issuer    *issuer.Issuer
	sessions  Sessions
	documents Documents
	users     Users
	registry  Registry
	auditor   audit.Emitter
	metrics   *metrics.Metrics
	logger    *slog.Logger

	// usage tracks detached counter writes so shutdown and tests can wait.
	usage sync.WaitGroup
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

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithRegistry enables PrepareAnchor and ConfirmAnchor.
func WithRegistry(r Registry) Option {
	return func(s *Service) {
		s.registry = r
	}
}

func New(store Store, ledger Ledger, iss *issuer.Issuer, sessions Sessions, documents Documents, users Users, opts ...Option) *Service {
	s := &Service{
		store:     store,
		ledger:    ledger,
		issuer:    iss,
		sessions:  sessions,
		documents: documents,
		users:     users,
		auditor:   audit.NopEmitter{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue builds a credential from a completed, passed verification session
// owned by the caller. A session backs at most one credential.
func (s *Service) Issue(ctx context.Context, userID id.UserID, req *models.IssueRequest) (*models.Credential, error) {
	now := requestcontext.Now(ctx)
	sessionID, err := id.ParseVerificationID(req.VerificationID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "verificationId must be a valid id")
	}

	session, err := s.sessions.Get(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != vModels.StatusCompleted || session.Result != vModels.ResultPassed {
		return nil, dErrors.New(dErrors.CodeConflict, "verification must be completed and passed")
	}
	if session.Credential.Issued {
		return nil, dErrors.New(dErrors.CodeAlreadyIssued, "a credential was already issued for this verification")
	}

	doc, err := s.documents.Get(ctx, userID, session.DocumentID)
	if err != nil {
		return nil, err
	}
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	cred, err := s.issuer.Build(issuer.IssueInput{
		Type:           models.Type(req.Type),
		SubjectUserID:  userID,
		SubjectDID:     user.DID,
		Wallet:         user.WalletAddress,
		VerificationID: session.ID,
		Claims:         completeClaims(req.Claims, session, doc, now),
		IncludedClaims: req.IncludedClaims,
		Now:            now,
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, err.Error())
	}

	if err := s.store.Create(ctx, cred); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Wrap(err, dErrors.CodeAlreadyIssued, "a credential was already issued for this verification")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store credential")
	}

	// The unique verification reference on the credential already enforces
	// one-to-one; a failed link only leaves the session view stale.
	if _, err := s.sessions.LinkCredential(ctx, session.ID, cred.ID); err != nil {
		s.logger.ErrorContext(ctx, "failed to link credential to verification session",
			"credential_id", cred.ID,
			"session_id", session.ID.String(),
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	if _, err := s.users.MarkVerified(ctx, userID); err != nil {
		s.logger.ErrorContext(ctx, "failed to mark user verified",
			"user_id", userID.String(),
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}

	if s.metrics != nil {
		s.metrics.IncrementIssued(string(cred.Type))
	}
	s.emit(ctx, audit.ActionCredentialIssued, cred, map[string]string{
		"verification_id": session.ID.String(),
		"type":            string(cred.Type),
		"hash":            cred.Hash,
	})
	s.logger.InfoContext(ctx, "credential issued",
		"credential_id", cred.ID,
		"user_id", userID.String(),
		"session_id", session.ID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return cred, nil
}

// List returns the caller's credentials newest first with their validity.
func (s *Service) List(ctx context.Context, userID id.UserID) ([]models.Listing, error) {
	now := requestcontext.Now(ctx)
	creds, err := s.store.ListBySubject(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list credentials")
	}
	out := make([]models.Listing, 0, len(creds))
	for _, c := range creds {
		out = append(out, models.Listing{Credential: c, Valid: c.IsValid(now), Status: c.EffectiveStatus(now)})
	}
	return out, nil
}

// Get returns one of the caller's credentials. Foreign ones are not found.
func (s *Service) Get(ctx context.Context, userID id.UserID, credentialID string) (*models.Credential, error) {
	cred, err := s.store.FindByID(ctx, credentialID)
	if err != nil {
		return nil, translate(err, "failed to load credential")
	}
	if !cred.IsOwnedBy(userID) {
		return nil, dErrors.New(dErrors.CodeNotFound, "credential not found")
	}
	return cred, nil
}

// Revoke is irreversible. A second call reports already_revoked.
func (s *Service) Revoke(ctx context.Context, userID id.UserID, credentialID string, req *models.RevokeRequest) (*models.Credential, error) {
	now := requestcontext.Now(ctx)
	cred, err := s.ledger.Revoke(ctx, credentialID, userID, req.Reason, now)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.IncrementRevoked()
	}
	s.emit(ctx, audit.ActionCredentialRevoked, cred, map[string]string{"reason": req.Reason})
	return cred, nil
}

// VerifyByHash is the public lookup. A stored credential whose content no
// longer matches its hash is an integrity failure, never a plain "invalid".
func (s *Service) VerifyByHash(ctx context.Context, hash string) (*models.VerifyResult, error) {
	now := requestcontext.Now(ctx)
	hash = strings.ToLower(strings.TrimSpace(hash))
	if !models.IsHash(hash) {
		return nil, dErrors.New(dErrors.CodeValidation, "hash must be 64 hex characters")
	}

	cred, err := s.store.FindByHash(ctx, hash)
	if err != nil {
		return nil, translate(err, "failed to look up credential")
	}
	if !cred.IntegrityIntact() {
		if s.metrics != nil {
			s.metrics.IncrementIntegrityFailures()
			s.metrics.IncrementVerified("integrity_failure")
		}
		s.logger.ErrorContext(ctx, "credential content does not match its hash",
			"credential_id", cred.ID,
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, dErrors.New(dErrors.CodeIntegrity, "credential content does not match its hash")
	}

	valid := cred.IsValid(now)
	if s.metrics != nil {
		if valid {
			s.metrics.IncrementVerified("valid")
		} else {
			s.metrics.IncrementVerified("invalid")
		}
	}
	if valid {
		s.recordUsage(ctx, "verify", cred.ID, now, s.ledger.RecordVerify)
	}
	return &models.VerifyResult{Verified: valid, Credential: cred.Redact(now)}, nil
}

// Share hands out the public verification path for a valid credential.
func (s *Service) Share(ctx context.Context, userID id.UserID, credentialID string) (*models.ShareResult, error) {
	now := requestcontext.Now(ctx)
	cred, err := s.Get(ctx, userID, credentialID)
	if err != nil {
		return nil, err
	}
	if !cred.IsValid(now) {
		return nil, dErrors.New(dErrors.CodeConflict, "only valid credentials can be shared")
	}
	s.recordUsage(ctx, "share", cred.ID, now, s.ledger.RecordShare)
	return &models.ShareResult{
		CredentialID: cred.ID,
		Hash:         cred.Hash,
		VerifyPath:   VerifyPathPrefix + cred.Hash,
		ShareCount:   cred.Usage.ShareCount + 1,
	}, nil
}

// PrepareAnchor returns unsigned issueCredential calldata for the holder's wallet.
func (s *Service) PrepareAnchor(ctx context.Context, userID id.UserID, credentialID string) (*registry.PreparedTx, error) {
	if s.registry == nil {
		return nil, dErrors.New(dErrors.CodeUnavailable, "chain registry is not configured")
	}
	now := requestcontext.Now(ctx)
	cred, err := s.Get(ctx, userID, credentialID)
	if err != nil {
		return nil, err
	}
	if cred.Blockchain.Stored {
		return nil, dErrors.New(dErrors.CodeAlreadyExists, "credential is already anchored")
	}
	if !cred.IsValid(now) {
		return nil, dErrors.New(dErrors.CodeConflict, "only valid credentials can be anchored")
	}
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	tx, err := s.registry.PrepareIssueCredential(common.HexToHash(cred.Hash), user.WalletAddress.Address(), cred.ExpiresAt)
	if err != nil {
		return nil, err
	}
	tx.WalletAddress = user.WalletAddress.String()
	return tx, nil
}

// ConfirmAnchor records the anchoring once the registry reports the hash.
// Until then it returns NotYetConfirmed, which callers retry.
func (s *Service) ConfirmAnchor(ctx context.Context, userID id.UserID, credentialID, txHash string) (*models.Credential, error) {
	if s.registry == nil {
		return nil, dErrors.New(dErrors.CodeUnavailable, "chain registry is not configured")
	}
	now := requestcontext.Now(ctx)
	cred, err := s.Get(ctx, userID, credentialID)
	if err != nil {
		return nil, err
	}
	if cred.Blockchain.Stored {
		return cred, nil
	}

	onChain, err := s.registry.VerifyCredential(ctx, common.HexToHash(cred.Hash))
	if err != nil {
		return nil, err
	}
	if !onChain {
		return nil, dErrors.New(dErrors.CodeNotYetConfirmed, "credential hash is not on chain yet")
	}
	receipt, err := s.registry.Receipt(ctx, common.HexToHash(txHash))
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotYetConfirmed, "transaction is not mined yet")
	}
	if err != nil {
		return nil, err
	}

	block := receipt.BlockNumber
	anchored, err := s.store.RecordAnchor(ctx, cred.ID, models.Blockchain{
		Stored:          true,
		TxHash:          strings.ToLower(txHash),
		BlockNumber:     &block,
		Network:         s.registry.Network(),
		ContractAddress: s.registry.Contracts().CredentialRegistry,
		StoredAt:        &now,
	})
	if err != nil {
		return nil, translate(err, "failed to record credential anchor")
	}
	if s.metrics != nil {
		s.metrics.IncrementAnchored()
	}
	s.emit(ctx, audit.ActionCredentialAnchored, anchored, map[string]string{"tx_hash": anchored.Blockchain.TxHash})
	return anchored, nil
}

// Wait blocks until detached usage writes have finished.
func (s *Service) Wait() {
	s.usage.Wait()
}

// recordUsage runs a counter write detached from the request. Failures are
// logged and counted and never reach the caller.
func (s *Service) recordUsage(ctx context.Context, kind, credentialID string, now time.Time, write func(context.Context, string, time.Time) error) {
	detached := context.WithoutCancel(ctx)
	s.usage.Add(1)
	go func() {
		defer s.usage.Done()
		if err := write(detached, credentialID, now); err != nil {
			if s.metrics != nil {
				s.metrics.IncrementUsageWriteFailures(kind)
			}
			s.logger.WarnContext(detached, "failed to record credential usage",
				"kind", kind,
				"credential_id", credentialID,
				"error", err,
			)
		}
	}()
}

func (s *Service) emit(ctx context.Context, action audit.Action, cred *models.Credential, attrs map[string]string) {
	err := s.auditor.Emit(ctx, audit.Event{
		Action:     action,
		UserID:     cred.Subject.UserID,
		Subject:    cred.ID,
		RequestID:  requestcontext.RequestID(ctx),
		Attributes: attrs,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"action", action,
			"credential_id", cred.ID,
			"error", err,
		)
	}
}

func translate(err error, internal string) error {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeNotFound, "credential not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, internal)
}
