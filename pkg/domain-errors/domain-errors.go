package domainerrors

import "errors"

// Code represents a domain error category independent of transport layer.
// These codes describe what went wrong in business logic terms, not HTTP terms.
type Code string

const (
	CodeNotFound           Code = "not_found"
	CodeBadRequest         Code = "bad_request"
	CodeInvalidInput       Code = "invalid_input"
	CodeValidation         Code = "validation_failed"
	CodeInternal           Code = "internal_error"
	CodeConflict           Code = "conflict"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeTimeout            Code = "timeout"
	CodeUnavailable        Code = "unavailable"
	CodeRateLimited        Code = "rate_limited"
	CodeInvariantViolation Code = "invariant_violation"

	// Integrity failures: stored content no longer matches its fingerprint.
	CodeIntegrity Code = "integrity_violation"

	// NotYetConfirmed is an expected, retryable state while a transaction awaits inclusion.
	CodeNotYetConfirmed Code = "not_yet_confirmed"

	// State-machine precondition violations (all surface as conflicts)
	CodeAlreadyCompleted    Code = "already_completed"
	CodeAlreadyRevoked      Code = "already_revoked"
	CodeAlreadyRegistered   Code = "already_registered"
	CodeAlreadyExists       Code = "already_exists"
	CodeAlreadyIssued       Code = "already_issued"
	CodeActiveSessionExists Code = "active_session_exists"
)

// Error wraps domain or infrastructure failures with a stable code.
// It is transport-agnostic and can be used across service, store, and other layers.
type Error struct {
	Code    Code
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

// Unwrap implements error unwrapping for error chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is enables errors.Is() to match errors by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new domain error with the given code and message.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap creates a new domain error wrapping an existing error.
// If the wrapped error is already a domain error, the original code is preserved.
func Wrap(err error, code Code, msg string) error {
	var existing *Error
	if errors.As(err, &existing) {
		return &Error{Code: existing.Code, Message: msg, Err: err}
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode checks if an error is a domain error with the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// CodeOf returns the domain code carried by err, or CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// IsConflictCode reports whether code belongs to the conflict family.
func IsConflictCode(code Code) bool {
	switch code {
	case CodeConflict,
		CodeAlreadyCompleted,
		CodeAlreadyRevoked,
		CodeAlreadyRegistered,
		CodeAlreadyExists,
		CodeAlreadyIssued,
		CodeActiveSessionExists:
		return true
	}
	return false
}

// IsConflict reports whether err is a state-machine precondition violation.
func IsConflict(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return IsConflictCode(e.Code)
	}
	return false
}

// IsTransient reports whether err is safe to retry with backoff.
func IsTransient(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == CodeUnavailable || e.Code == CodeTimeout
	}
	return false
}
