// Package tracer is a small tracing abstraction over OpenTelemetry used by the
// clients of external dependencies (AI oracle, chain RPC).
//
// Implementations:
//   - NoopTracer: tests and local runs
//   - OTelTracer: OpenTelemetry adapter for production
package tracer

import (
	"context"
	"time"
)

// Span represents an active trace span.
type Span interface {
	// End completes the span. A non-nil err marks it failed.
	// End must be called exactly once, typically via defer.
	End(err error)

	SetAttributes(attrs ...Attribute)

	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
//
//	ctx, span := t.Start(ctx, tracer.SpanOracleFace, tracer.String(tracer.AttrSessionID, sid))
//	defer span.End(err)
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

func Float64(key string, value float64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration records value in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// Span names.
const (
	SpanOracleFace     = "oracle.face_verify"
	SpanOracleLiveness = "oracle.liveness_detect"
	SpanOracleOCR      = "oracle.ocr_extract"
	SpanChainRead      = "chain.read"
	SpanChainReceipt   = "chain.receipt"
)

// Attribute keys.
const (
	AttrSessionID    = "verification.session_id"
	AttrAttempt      = "attempt"
	AttrStatusCode   = "http.status_code"
	AttrCategory     = "error.category"
	AttrConfidence   = "confidence"
	AttrChainMethod  = "chain.method"
	AttrContract     = "chain.contract"
	AttrBreakerState = "breaker.state"
)

// Event names.
const (
	EventRetry       = "retry"
	EventBreakerOpen = "breaker.open"
)
