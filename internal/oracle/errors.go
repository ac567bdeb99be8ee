package oracle

import (
	"errors"
	"fmt"
)

// ErrorCategory is the normalized failure taxonomy for oracle calls.
type ErrorCategory string

const (
	ErrorTimeout        ErrorCategory = "timeout"
	ErrorBadData        ErrorCategory = "bad_data"
	ErrorAuthentication ErrorCategory = "authentication"
	ErrorOutage         ErrorCategory = "provider_outage"
	ErrorRateLimited    ErrorCategory = "rate_limited"
	ErrorCircuitOpen    ErrorCategory = "circuit_open"
	ErrorInternal       ErrorCategory = "internal"
)

// CheckError wraps a failed oracle check. Retryable is derived from Category.
type CheckError struct {
	Category   ErrorCategory
	Check      Check
	Message    string
	StatusCode int
	Underlying error
	Retryable  bool
}

func (e *CheckError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("oracle %s [%s]: %s: %v", e.Check, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("oracle %s [%s]: %s", e.Check, e.Category, e.Message)
}

func (e *CheckError) Unwrap() error {
	return e.Underlying
}

// NewCheckError marks timeouts, outages and rate limits as retryable.
func NewCheckError(category ErrorCategory, check Check, message string, underlying error) *CheckError {
	return &CheckError{
		Category:   category,
		Check:      check,
		Message:    message,
		Underlying: underlying,
		Retryable:  category == ErrorTimeout || category == ErrorOutage || category == ErrorRateLimited,
	}
}

func IsRetryable(err error) bool {
	var ce *CheckError
	if errors.As(err, &ce) {
		return ce.Retryable
	}
	return false
}

// CategoryOf returns the category of err, or ErrorInternal.
func CategoryOf(err error) ErrorCategory {
	var ce *CheckError
	if errors.As(err, &ce) {
		return ce.Category
	}
	return ErrorInternal
}
