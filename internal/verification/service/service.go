// Package service drives verification sessions: start and resume, step
// progress, the oracle check pipeline and the final verdict.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	docModels "verifyx/internal/document/models"
	"verifyx/internal/oracle"
	"verifyx/internal/sentinel"
	"verifyx/internal/verification/metrics"
	"verifyx/internal/verification/models"
	id "verifyx/pkg/domain"
	dErrors "verifyx/pkg/domain-errors"
	"verifyx/pkg/platform/audit"
	"verifyx/pkg/requestcontext"
)

// Store is the persistence port for sessions.
// Error contract: Create returns sentinel.ErrConflict while the user has an
// active session; FindByID, FindActiveByUser and Execute return
// sentinel.ErrNotFound. Errors returned by validate are passed through.
type Store interface {
	Create(ctx context.Context, session *models.Session, now time.Time) error
	FindByID(ctx context.Context, sessionID id.VerificationID) (*models.Session, error)
	ListByUser(ctx context.Context, userID id.UserID) ([]*models.Session, error)
	FindActiveByUser(ctx context.Context, userID id.UserID, now time.Time) (*models.Session, error)
	Execute(ctx context.Context, sessionID id.VerificationID, validate func(*models.Session) error, mutate func(*models.Session)) (*models.Session, error)
}

// Documents is the document port. Get returns a NotFound domain error for
// documents that are missing, foreign or deleted.
type Documents interface {
	Get(ctx context.Context, userID id.UserID, documentID id.DocumentID) (*docModels.Document, error)
	MarkVerified(ctx context.Context, documentID id.DocumentID, confidence *float64) error
	MarkRejected(ctx context.Context, documentID id.DocumentID, reason string, confidence *float64) error
}

// Oracle runs the AI checks. Failures are *oracle.CheckError.
type Oracle interface {
	VerifyFace(ctx context.Context, documentImage, selfieImage string) (*oracle.FaceResult, error)
	DetectLiveness(ctx context.Context, frames []string, challengeType string) (*oracle.LivenessResult, error)
	ExtractOCR(ctx context.Context, image, documentType string) (*oracle.OCRResult, error)
}

const (
	DefaultSessionTTL = 30 * time.Minute

	rejectionReason = "AI verification did not pass"
)

type Service struct {
	store     Store
	documents Documents
	oracle    Oracle
	auditor   audit.Emitter
	metrics   *metrics.Metrics
	logger    *slog.Logger
	ttl       time.Duration
	clock     func() time.Time
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

// WithOracle enables RunChecks.
func WithOracle(o Oracle) Option {
	return func(s *Service) {
		s.oracle = o
	}
}

// WithClock overrides the clock used once oracle calls return.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.clock = now
		}
	}
}

// WithSessionTTL overrides the 30 minute session lifetime when positive.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func New(store Store, documents Documents, opts ...Option) *Service {
	s := &Service{
		store:     store,
		documents: documents,
		auditor:   audit.NopEmitter{},
		logger:    slog.Default(),
		ttl:       DefaultSessionTTL,
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens a session for documentID. A user holds at most one active
// session; older lapsed sessions are marked expired on the way.
func (s *Service) Start(ctx context.Context, userID id.UserID, documentID id.DocumentID, metadata models.Metadata) (*models.Session, error) {
	now := requestcontext.Now(ctx)

	if _, err := s.documents.Get(ctx, userID, documentID); err != nil {
		return nil, err
	}

	session := models.NewSession(userID, documentID, metadata, now, s.ttl)
	if err := s.store.Create(ctx, session, now); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			if s.metrics != nil {
				s.metrics.IncrementStartConflicts()
			}
			return nil, dErrors.Wrap(err, dErrors.CodeActiveSessionExists, "an active verification session already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to start verification session")
	}

	if s.metrics != nil {
		s.metrics.IncrementSessionsStarted()
	}
	s.emit(ctx, audit.ActionVerificationStarted, session, nil)
	s.logger.InfoContext(ctx, "verification session started",
		"session_id", session.ID.String(),
		"user_id", userID.String(),
		"document_id", documentID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return session, nil
}

// Active returns the session the user can resume.
func (s *Service) Active(ctx context.Context, userID id.UserID) (*models.Session, error) {
	session, err := s.store.FindActiveByUser(ctx, userID, requestcontext.Now(ctx))
	if err != nil {
		return nil, translate(err, "no active verification session", "failed to load verification session")
	}
	return session, nil
}

// Get returns one of the user's sessions. Foreign sessions are reported as not found.
func (s *Service) Get(ctx context.Context, userID id.UserID, sessionID id.VerificationID) (*models.Session, error) {
	session, err := s.store.FindByID(ctx, sessionID)
	if err != nil {
		return nil, translate(err, "verification session not found", "failed to load verification session")
	}
	if session.UserID != userID {
		return nil, dErrors.New(dErrors.CodeNotFound, "verification session not found")
	}
	return session, nil
}

// List returns the user's sessions, newest first.
func (s *Service) List(ctx context.Context, userID id.UserID) ([]*models.Session, error) {
	sessions, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list verification sessions")
	}
	return sessions, nil
}

func (s *Service) UpdateStep(ctx context.Context, userID id.UserID, sessionID id.VerificationID, step models.StepName, status models.StepStatus) (*models.Session, error) {
	now := requestcontext.Now(ctx)
	return s.mutate(ctx, userID, sessionID, func(session *models.Session) error {
		return session.UpdateStep(step, status, now)
	})
}

// AddError appends to the session's error log. It is accepted in any state.
func (s *Service) AddError(ctx context.Context, userID id.UserID, sessionID id.VerificationID, step models.StepName, message string) (*models.Session, error) {
	now := requestcontext.Now(ctx)
	return s.mutate(ctx, userID, sessionID, func(session *models.Session) error {
		session.AddError(step, message, now)
		return nil
	})
}

// Complete merges the submitted scores, decides the verdict from the gate and
// freezes the confidence. Only one concurrent caller can win.
func (s *Service) Complete(ctx context.Context, userID id.UserID, sessionID id.VerificationID, scores models.Scores) (*models.Session, error) {
	now := requestcontext.Now(ctx)
	session, err := s.mutate(ctx, userID, sessionID, func(session *models.Session) error {
		return finalize(session, scores, now)
	})
	if err != nil {
		s.observeRefusal(err)
		return nil, err
	}
	s.afterVerdict(ctx, session)
	return session, nil
}

// Cancel abandons an open session.
func (s *Service) Cancel(ctx context.Context, userID id.UserID, sessionID id.VerificationID) (*models.Session, error) {
	now := requestcontext.Now(ctx)
	session, err := s.mutate(ctx, userID, sessionID, func(session *models.Session) error {
		return session.Cancel(now)
	})
	if err != nil {
		s.observeRefusal(err)
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.IncrementSessionsCancelled()
	}
	s.emit(ctx, audit.ActionVerificationCancelled, session, nil)
	return session, nil
}

// LinkCredential records the credential issued from a passed session. A
// session backs at most one credential.
func (s *Service) LinkCredential(ctx context.Context, sessionID id.VerificationID, credentialID string) (*models.Session, error) {
	now := requestcontext.Now(ctx)
	var opErr error
	session, err := s.store.Execute(ctx, sessionID,
		func(*models.Session) error { return nil },
		func(session *models.Session) { opErr = session.LinkCredential(credentialID, now) },
	)
	if err != nil {
		return nil, translate(err, "verification session not found", "failed to link credential")
	}
	if opErr != nil {
		return nil, opErr
	}
	return session, nil
}

// finalize applies the verdict. Scores are rolled back when the session
// refuses completion so a refused call leaves no trace besides expiry.
func finalize(session *models.Session, scores models.Scores, now time.Time) error {
	previous := session.Scores
	session.Scores = session.Scores.Merge(scores)
	if err := session.Complete(models.PassesGate(session.Scores), now); err != nil {
		session.Scores = previous
		return err
	}
	if step := session.Step(models.StepAIVerification); step != nil && step.Status != models.StepCompleted {
		step.Status = models.StepCompleted
		step.CompletedAt = &now
	}
	return nil
}

// mutate runs op inside store.Execute. Domain refusals from op still persist
// whatever op changed, which is how an observed TTL expiry gets recorded.
func (s *Service) mutate(ctx context.Context, userID id.UserID, sessionID id.VerificationID, op func(*models.Session) error) (*models.Session, error) {
	var opErr error
	session, err := s.store.Execute(ctx, sessionID,
		func(session *models.Session) error {
			if session.UserID != userID {
				return dErrors.New(dErrors.CodeNotFound, "verification session not found")
			}
			return nil
		},
		func(session *models.Session) { opErr = op(session) },
	)
	if err != nil {
		return nil, translate(err, "verification session not found", "failed to update verification session")
	}
	if opErr != nil {
		return nil, opErr
	}
	return session, nil
}

// afterVerdict propagates the outcome to the document and the audit log.
// Neither can undo the verdict, so failures are only logged.
func (s *Service) afterVerdict(ctx context.Context, session *models.Session) {
	if s.metrics != nil {
		s.metrics.IncrementSessionsCompleted(string(session.Result))
		if session.OverallConfidence != nil {
			s.metrics.ObserveOverallConfidence(*session.OverallConfidence)
		}
	}

	var err error
	if session.Passed() {
		err = s.documents.MarkVerified(ctx, session.DocumentID, session.OverallConfidence)
	} else {
		err = s.documents.MarkRejected(ctx, session.DocumentID, rejectionReason, session.OverallConfidence)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to propagate verdict to document",
			"session_id", session.ID.String(),
			"document_id", session.DocumentID.String(),
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}

	attrs := map[string]string{
		"result":      string(session.Result),
		"status":      string(session.Status),
		"document_id": session.DocumentID.String(),
	}
	if session.OverallConfidence != nil {
		attrs["overall_confidence"] = formatConfidence(*session.OverallConfidence)
	}
	s.emit(ctx, audit.ActionVerificationCompleted, session, attrs)
}

func (s *Service) observeRefusal(err error) {
	if s.metrics != nil && errors.Is(err, sentinel.ErrExpired) {
		s.metrics.IncrementSessionsExpired()
	}
}

func (s *Service) emit(ctx context.Context, action audit.Action, session *models.Session, attrs map[string]string) {
	err := s.auditor.Emit(ctx, audit.Event{
		Action:     action,
		UserID:     session.UserID,
		Subject:    session.ID.String(),
		RequestID:  requestcontext.RequestID(ctx),
		Attributes: attrs,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"action", action,
			"session_id", session.ID.String(),
			"error", err,
		)
	}
}
