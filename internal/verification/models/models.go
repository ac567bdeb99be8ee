package models

import (
	"fmt"
	"time"

	"verifyx/internal/sentinel"
	id "verifyx/pkg/domain"
	dErrors "verifyx/pkg/domain-errors"
)

// Status is the session-level lifecycle state.
type Status string

const (
	StatusInitiated  Status = "initiated"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusExpired    Status = "expired"
	StatusCancelled  Status = "cancelled"
)

// IsTerminal reports whether no further transitions are allowed.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusExpired, StatusCancelled:
		return true
	}
	return false
}

// Result is the pass/fail verdict, pending until the session completes or fails.
type Result string

const (
	ResultPending Result = "pending"
	ResultPassed  Result = "passed"
	ResultFailed  Result = "failed"
)

type StepName string

const (
	StepDocumentUpload StepName = "document_upload"
	StepFaceCapture    StepName = "face_capture"
	StepLivenessCheck  StepName = "liveness_check"
	StepAIVerification StepName = "ai_verification"
)

// StepOrder is the canonical order steps are reported in.
var StepOrder = []StepName{StepDocumentUpload, StepFaceCapture, StepLivenessCheck, StepAIVerification}

func (n StepName) IsValid() bool {
	for _, s := range StepOrder {
		if s == n {
			return true
		}
	}
	return false
}

type StepStatus string

const (
	StepPending    StepStatus = "pending"
	StepProcessing StepStatus = "processing"
	StepCompleted  StepStatus = "completed"
	StepFailed     StepStatus = "failed"
)

func (s StepStatus) IsValid() bool {
	switch s {
	case StepPending, StepProcessing, StepCompleted, StepFailed:
		return true
	}
	return false
}

type Step struct {
	Name        StepName   `json:"name"`
	Status      StepStatus `json:"status"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// SessionError is one entry of the append-only error log.
type SessionError struct {
	Step      StepName  `json:"step"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// CredentialLink records the credential issued from this session, if any.
type CredentialLink struct {
	Issued       bool       `json:"issued"`
	CredentialID string     `json:"credentialId,omitempty"`
	IssuedAt     *time.Time `json:"issuedAt,omitempty"`
}

// Metadata describes the client that started the session.
type Metadata struct {
	IPAddress string `json:"ipAddress,omitempty"`
	UserAgent string `json:"userAgent,omitempty"`
	Device    string `json:"device,omitempty"`
}

// Session tracks one multi-step identity verification attempt.
type Session struct {
	ID                id.VerificationID
	UserID            id.UserID
	DocumentID        id.DocumentID
	Status            Status
	Result            Result
	Steps             []Step
	Scores            Scores
	OverallConfidence *float64
	Errors            []SessionError
	Credential        CredentialLink
	Metadata          Metadata
	CreatedAt         time.Time
	StartedAt         time.Time
	CompletedAt       *time.Time
	ExpiresAt         time.Time
}

// NewSession creates an initiated session with every step pending.
func NewSession(userID id.UserID, documentID id.DocumentID, metadata Metadata, now time.Time, ttl time.Duration) *Session {
	steps := make([]Step, 0, len(StepOrder))
	for _, name := range StepOrder {
		steps = append(steps, Step{Name: name, Status: StepPending})
	}
	return &Session{
		ID:         id.NewVerificationID(),
		UserID:     userID,
		DocumentID: documentID,
		Status:     StatusInitiated,
		Result:     ResultPending,
		Steps:      steps,
		Metadata:   metadata,
		CreatedAt:  now,
		StartedAt:  now,
		ExpiresAt:  now.Add(ttl),
	}
}

// IsExpired is true once the TTL has passed on a non-terminal session, and
// always for sessions already marked expired.
func (s *Session) IsExpired(now time.Time) bool {
	if s.Status == StatusExpired {
		return true
	}
	return !s.Status.IsTerminal() && !now.Before(s.ExpiresAt)
}

// IsActive reports whether the session can still be resumed.
func (s *Session) IsActive(now time.Time) bool {
	return (s.Status == StatusInitiated || s.Status == StatusInProgress) && now.Before(s.ExpiresAt)
}

// MarkExpired moves a non-terminal session to expired. Returns true if it changed.
func (s *Session) MarkExpired(now time.Time) bool {
	if s.Status.IsTerminal() {
		return false
	}
	s.Status = StatusExpired
	s.CompletedAt = &now
	return true
}

// Step returns the named step, or nil.
func (s *Session) Step(name StepName) *Step {
	for i := range s.Steps {
		if s.Steps[i].Name == name {
			return &s.Steps[i]
		}
	}
	return nil
}

// UpdateStep sets a step's status. The first non-pending step starts the session.
// An expired session still records the step so late oracle results stay auditable.
func (s *Session) UpdateStep(name StepName, status StepStatus, now time.Time) error {
	if !name.IsValid() {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown step %q", name))
	}
	if !status.IsValid() {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown step status %q", status))
	}
	expired := s.IsExpired(now)
	if s.Status.IsTerminal() && !expired {
		return dErrors.New(dErrors.CodeAlreadyCompleted, "verification session already "+string(s.Status))
	}
	if expired {
		s.MarkExpired(now)
	}

	step := s.Step(name)
	if step == nil {
		s.Steps = append(s.Steps, Step{Name: name})
		step = &s.Steps[len(s.Steps)-1]
	}
	step.Status = status
	if status == StepCompleted {
		step.CompletedAt = &now
	}

	if s.Status == StatusInitiated && status != StepPending {
		s.Status = StatusInProgress
	}
	return nil
}

// AddError appends to the error log. It never fails and never changes status.
func (s *Session) AddError(step StepName, message string, now time.Time) {
	s.Errors = append(s.Errors, SessionError{Step: step, Message: message, Timestamp: now})
}

// Complete finalizes the session with the given verdict and freezes the
// aggregate confidence. Observing an elapsed TTL marks the session expired.
func (s *Session) Complete(passed bool, now time.Time) error {
	if err := s.checkFinalizable(now); err != nil {
		return err
	}
	s.Status = StatusCompleted
	s.Result = ResultFailed
	if passed {
		s.Result = ResultPassed
	}
	s.CompletedAt = &now
	s.OverallConfidence = AggregateConfidence(s.Scores)
	return nil
}

// Cancel abandons a session. Result and confidence stay unset.
func (s *Session) Cancel(now time.Time) error {
	if err := s.checkFinalizable(now); err != nil {
		return err
	}
	s.Status = StatusCancelled
	s.CompletedAt = &now
	return nil
}

// LinkCredential records the credential issued from this session.
func (s *Session) LinkCredential(credentialID string, now time.Time) error {
	if s.Credential.Issued {
		return dErrors.New(dErrors.CodeAlreadyIssued, "a credential was already issued for this verification")
	}
	s.Credential = CredentialLink{Issued: true, CredentialID: credentialID, IssuedAt: &now}
	return nil
}

// Passed reports whether the session completed with a passing verdict.
func (s *Session) Passed() bool {
	return s.Status == StatusCompleted && s.Result == ResultPassed
}

func (s *Session) checkFinalizable(now time.Time) error {
	if s.IsExpired(now) {
		s.MarkExpired(now)
		return ErrSessionExpired()
	}
	if s.Status.IsTerminal() {
		return dErrors.New(dErrors.CodeAlreadyCompleted, "verification session already "+string(s.Status))
	}
	return nil
}

// ErrSessionExpired is the error returned for operations on an expired session.
// It matches sentinel.ErrExpired through errors.Is.
func ErrSessionExpired() error {
	return dErrors.Wrap(sentinel.ErrExpired, dErrors.CodeConflict, "verification session expired")
}

// Clone returns a deep copy so stores never share mutable state with callers.
func (s *Session) Clone() *Session {
	cp := *s
	cp.Steps = append([]Step(nil), s.Steps...)
	for i := range cp.Steps {
		cp.Steps[i].CompletedAt = cloneTime(s.Steps[i].CompletedAt)
	}
	cp.Errors = append([]SessionError(nil), s.Errors...)
	cp.Scores = s.Scores.Clone()
	cp.OverallConfidence = cloneFloat(s.OverallConfidence)
	cp.CompletedAt = cloneTime(s.CompletedAt)
	cp.Credential.IssuedAt = cloneTime(s.Credential.IssuedAt)
	return &cp
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
