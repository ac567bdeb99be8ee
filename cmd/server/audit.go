package main

import (
	"context"
	"log/slog"

	"verifyx/pkg/platform/audit"
)

// logSink writes audit events to the structured log. Used when no durable
// sink is configured.
type logSink struct {
	logger *slog.Logger
}

func (s *logSink) Append(ctx context.Context, event audit.Event) error {
	attrs := []any{
		"action", string(event.Action),
		"user_id", event.UserID.String(),
		"subject", event.Subject,
		"timestamp", event.Timestamp,
	}
	if event.RequestID != "" {
		attrs = append(attrs, "request_id", event.RequestID)
	}
	for k, v := range event.Attributes {
		attrs = append(attrs, k, v)
	}
	s.logger.InfoContext(ctx, "audit event", attrs...)
	return nil
}
