// Package kafka publishes security events to the platform event bus. The
// database security log remains the system of record; publication here is
// best-effort fan-out for downstream consumers (fraud review, admin
// dashboards).
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/arena-gg/esports-platform/services/auth-service/internal/domain/models"
)

// SecurityEventPublisher is the producer interface consumed by the services.
type SecurityEventPublisher interface {
	PublishSecurityEvent(ctx context.Context, event *models.SecurityEvent) error
	Close() error
}

// Producer writes security events to a Kafka topic, keyed by user ID so one
// user's events stay ordered within a partition.
type Producer struct {
	writer *kafka.Writer
	topic  string
	logger *zap.Logger
}

// NewProducer creates a Kafka producer for the given brokers and topic.
func NewProducer(brokers []string, topic string, logger *zap.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
	}
	return &Producer{writer: writer, topic: topic, logger: logger}
}

// PublishSecurityEvent serializes the event and writes it to the topic.
func (p *Producer) PublishSecurityEvent(ctx context.Context, event *models.SecurityEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal security event: %w", err)
	}

	var key []byte
	if event.UserID != nil {
		key = []byte(event.UserID.String())
	}

	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.writer.WriteMessages(writeCtx, kafka.Message{
		Key:   key,
		Value: payload,
		Time:  time.Now(),
	})
	if err != nil {
		p.logger.Error("Failed to publish security event",
			zap.String("topic", p.topic),
			zap.String("action", string(event.Action)),
			zap.Error(err),
		)
		return fmt.Errorf("failed to publish security event: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}

var _ SecurityEventPublisher = (*Producer)(nil)

// NopPublisher discards events; used when Kafka is disabled and in tests.
type NopPublisher struct{}

func (NopPublisher) PublishSecurityEvent(context.Context, *models.SecurityEvent) error { return nil }
func (NopPublisher) Close() error                                                     { return nil }
