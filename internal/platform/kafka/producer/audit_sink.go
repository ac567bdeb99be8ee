package producer

import (
	"context"
	"encoding/json"
	"fmt"

	"verifyx/pkg/platform/audit"
)

// Publisher is the subset of Producer the audit sink needs.
type Publisher interface {
	Produce(ctx context.Context, msg *Message) error
}

// AuditSink forwards audit events to a Kafka topic, keyed by user so a
// user's events stay ordered within a partition.
type AuditSink struct {
	publisher Publisher
	topic     string
}

// NewAuditSink creates an audit.Sink backed by Kafka.
func NewAuditSink(publisher Publisher, topic string) *AuditSink {
	return &AuditSink{publisher: publisher, topic: topic}
}

// Append implements audit.Sink.
func (s *AuditSink) Append(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	headers := map[string]string{"action": string(event.Action)}
	if event.RequestID != "" {
		headers["request_id"] = event.RequestID
	}

	return s.publisher.Produce(ctx, &Message{
		Topic:   s.topic,
		Key:     []byte(event.UserID.String()),
		Value:   payload,
		Headers: headers,
	})
}
