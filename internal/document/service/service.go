// Package service manages identity document metadata records.
package service

import (
	"context"
	"errors"
	"log/slog"

	"verifyx/internal/document/models"
	"verifyx/internal/sentinel"
	id "verifyx/pkg/domain"
	dErrors "verifyx/pkg/domain-errors"
	"verifyx/pkg/platform/audit"
	"verifyx/pkg/requestcontext"
)

// Store is the persistence port for documents.
// Error contract: FindByID and Execute return sentinel.ErrNotFound for unknown IDs.
type Store interface {
	Save(ctx context.Context, doc *models.Document) error
	FindByID(ctx context.Context, documentID id.DocumentID) (*models.Document, error)
	ListByUser(ctx context.Context, userID id.UserID) ([]*models.Document, error)
	Execute(ctx context.Context, documentID id.DocumentID, validate func(*models.Document) error, mutate func(*models.Document)) (*models.Document, error)
}

type Service struct {
	store   Store
	auditor audit.Emitter
	logger  *slog.Logger
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

func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:   store,
		auditor: audit.NopEmitter{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register records metadata for a document the client already pinned.
func (s *Service) Register(ctx context.Context, userID id.UserID, req *models.RegisterRequest) (*models.Document, error) {
	now := requestcontext.Now(ctx)
	doc := &models.Document{
		ID:             id.NewDocumentID(),
		UserID:         userID,
		Type:           models.DocumentType(req.DocumentType),
		IssuingCountry: req.IssuingCountry,
		FileName:       req.FileName,
		MimeType:       req.MimeType,
		Size:           req.Size,
		IPFSHash:       req.IPFSHash,
		Verification:   models.Verification{Status: models.StatusPending},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.Save(ctx, doc); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save document")
	}

	s.emit(ctx, audit.ActionDocumentRegistered, doc)
	return doc, nil
}

func (s *Service) List(ctx context.Context, userID id.UserID) ([]*models.Document, error) {
	docs, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list documents")
	}
	return docs, nil
}

// Get returns a visible document owned by userID. Foreign and deleted documents are reported as not found.
func (s *Service) Get(ctx context.Context, userID id.UserID, documentID id.DocumentID) (*models.Document, error) {
	doc, err := s.store.FindByID(ctx, documentID)
	if err != nil {
		return nil, translate(err, "failed to load document")
	}
	if !doc.IsOwnedBy(userID) {
		return nil, dErrors.New(dErrors.CodeNotFound, "document not found")
	}
	return doc, nil
}

func (s *Service) Delete(ctx context.Context, userID id.UserID, documentID id.DocumentID) error {
	now := requestcontext.Now(ctx)
	doc, err := s.store.Execute(ctx, documentID,
		func(d *models.Document) error {
			if !d.IsOwnedBy(userID) {
				return dErrors.New(dErrors.CodeNotFound, "document not found")
			}
			return nil
		},
		func(d *models.Document) { d.SoftDelete(now) },
	)
	if err != nil {
		return translate(err, "failed to delete document")
	}

	s.emit(ctx, audit.ActionDocumentDeleted, doc)
	return nil
}

// MarkVerified records a passed AI verification on the document.
func (s *Service) MarkVerified(ctx context.Context, documentID id.DocumentID, confidence *float64) error {
	now := requestcontext.Now(ctx)
	_, err := s.store.Execute(ctx, documentID, notDeleted, func(d *models.Document) {
		d.MarkVerified(confidence, now)
	})
	if err != nil {
		return translate(err, "failed to mark document verified")
	}
	return nil
}

// MarkRejected records a failed AI verification on the document.
func (s *Service) MarkRejected(ctx context.Context, documentID id.DocumentID, reason string, confidence *float64) error {
	now := requestcontext.Now(ctx)
	_, err := s.store.Execute(ctx, documentID, notDeleted, func(d *models.Document) {
		d.MarkRejected(reason, confidence, now)
	})
	if err != nil {
		return translate(err, "failed to mark document rejected")
	}
	return nil
}

func (s *Service) emit(ctx context.Context, action audit.Action, doc *models.Document) {
	err := s.auditor.Emit(ctx, audit.Event{
		Action:  action,
		UserID:  doc.UserID,
		Subject: doc.ID.String(),
		Attributes: map[string]string{
			"document_type": string(doc.Type),
		},
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"action", action,
			"document_id", doc.ID.String(),
			"error", err,
		)
	}
}

func notDeleted(d *models.Document) error {
	if d.IsDeleted {
		return dErrors.New(dErrors.CodeNotFound, "document not found")
	}
	return nil
}

func translate(err error, msg string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeNotFound, "document not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}
