//go:build integration

package producer_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"verifyx/internal/platform/config"
	"verifyx/internal/platform/kafka/producer"
	id "verifyx/pkg/domain"
	"verifyx/pkg/platform/audit"
	"verifyx/pkg/testutil/containers"
)

type ProducerIntegrationSuite struct {
	suite.Suite
	kafka    *containers.KafkaContainer
	producer *producer.Producer
}

func TestProducerIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(ProducerIntegrationSuite))
}

func (s *ProducerIntegrationSuite) SetupSuite() {
	s.kafka = containers.GetManager().GetKafka(s.T())

	prod, err := producer.New(config.Kafka{
		Brokers:         s.kafka.Brokers,
		Acks:            "all",
		Retries:         3,
		DeliveryTimeout: 10 * time.Second,
	}, nil)
	s.Require().NoError(err)
	s.producer = prod
}

func (s *ProducerIntegrationSuite) TearDownSuite() {
	if s.producer != nil {
		_ = s.producer.Close()
	}
}

// Produce only returns after the broker acknowledged the record.
func (s *ProducerIntegrationSuite) TestProduceDeliversMessage() {
	ctx := context.Background()
	topic := "test-produce-sync"
	s.Require().NoError(s.kafka.CreateTopic(ctx, topic, 1, 1))

	err := s.producer.Produce(ctx, &producer.Message{
		Topic: topic,
		Key:   []byte("test-key"),
		Value: []byte("test-value"),
		Headers: map[string]string{
			"trace-id": "12345",
		},
	})
	s.Require().NoError(err)

	consumer, err := s.kafka.NewConsumer(ctx, "test-consumer-group", topic)
	s.Require().NoError(err)
	defer consumer.Close()

	record := s.kafka.WaitForMessage(ctx, consumer, 5*time.Second, func(r *kgo.Record) bool {
		return string(r.Key) == "test-key"
	})
	s.Require().NotNil(record, "message should be consumable")
	s.Equal("test-value", string(record.Value))
	s.Require().Len(record.Headers, 1)
	s.Equal("trace-id", record.Headers[0].Key)
	s.Equal("12345", string(record.Headers[0].Value))
}

func (s *ProducerIntegrationSuite) TestAuditSinkKeysByUser() {
	ctx := context.Background()
	topic := "test-audit-events"
	s.Require().NoError(s.kafka.CreateTopic(ctx, topic, 3, 1))

	userID := id.NewUserID()
	sink := producer.NewAuditSink(s.producer, topic)
	err := sink.Append(ctx, audit.Event{
		Timestamp: time.Now().UTC(),
		Action:    audit.ActionCredentialIssued,
		UserID:    userID,
		Subject:   "cred-1",
		RequestID: "req-1",
	})
	s.Require().NoError(err)

	consumer, err := s.kafka.NewConsumer(ctx, "test-audit-consumer", topic)
	s.Require().NoError(err)
	defer consumer.Close()

	record := s.kafka.WaitForMessage(ctx, consumer, 5*time.Second, func(r *kgo.Record) bool {
		return string(r.Key) == userID.String()
	})
	s.Require().NotNil(record)

	var got audit.Event
	s.Require().NoError(json.Unmarshal(record.Value, &got))
	s.Equal(audit.ActionCredentialIssued, got.Action)
	s.Equal("cred-1", got.Subject)

	headers := map[string]string{}
	for _, h := range record.Headers {
		headers[h.Key] = string(h.Value)
	}
	s.Equal("credential_issued", headers["action"])
	s.Equal("req-1", headers["request_id"])
}

func (s *ProducerIntegrationSuite) TestProducerHealthy() {
	s.NoError(s.producer.Health(context.Background()))
}
