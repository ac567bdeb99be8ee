// Package audit defines the append-only record of security-relevant domain actions.
package audit

import (
	"context"
	"time"

	id "verifyx/pkg/domain"
)

// Action names a domain action worth recording.
type Action string

const (
	ActionVerificationStarted   Action = "verification_started"
	ActionVerificationCompleted Action = "verification_completed"
	ActionVerificationCancelled Action = "verification_cancelled"
	ActionCredentialIssued      Action = "credential_issued"
	ActionCredentialRevoked     Action = "credential_revoked"
	ActionCredentialAnchored    Action = "credential_anchored"
	ActionDocumentRegistered    Action = "document_registered"
	ActionDocumentDeleted       Action = "document_deleted"
	ActionDIDRegistered         Action = "did_registered"
)

// Event is emitted from domain services. Subject is the primary entity the
// action applies to (session ID, credential ID, wallet address).
type Event struct {
	Timestamp  time.Time         `json:"timestamp"`
	Action     Action            `json:"action"`
	UserID     id.UserID         `json:"user_id"`
	Subject    string            `json:"subject"`
	RequestID  string            `json:"request_id,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Sink persists or forwards events.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Emitter is what domain services depend on. Satisfied by publisher.Publisher.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}

// NopEmitter discards events.
type NopEmitter struct{}

func (NopEmitter) Emit(context.Context, Event) error { return nil }
