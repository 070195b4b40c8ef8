// Package events publishes reconciliation events to Kafka.
//
// The reconciliation log table is the durable record of merges and deletes;
// the Kafka stream is a best-effort notification for downstream consumers.
// A publish failure is logged and never fails the operation that produced it.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/streetcare/client-registry-service/internal/domain"
)

// Event types emitted by the reconciler.
const (
	EventTypeClientMerged  = "client.merged"
	EventTypeClientDeleted = "client.deleted"
)

// ReconciliationEvent is the JSON payload published for a merge or delete.
type ReconciliationEvent struct {
	EventID    string     `json:"event_id"`
	EventType  string     `json:"event_type"`
	KeepID     *uuid.UUID `json:"keep_id,omitempty"`
	DropID     uuid.UUID  `json:"drop_id"`
	Encounters int        `json:"encounters"`
	Operator   string     `json:"operator,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// Publisher emits reconciliation events.
type Publisher interface {
	// PublishClientMerged emits a client.merged event for a committed merge.
	PublishClientMerged(ctx context.Context, entry *domain.ReconciliationEntry) error

	// PublishClientDeleted emits a client.deleted event for a committed delete.
	PublishClientDeleted(ctx context.Context, entry *domain.ReconciliationEntry) error

	// Close releases the underlying transport.
	Close() error
}

// messageWriter is the subset of kafka.Writer used by the publisher.
// It allows tests to capture messages without a broker.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Compile-time interface verification.
var (
	_ Publisher     = (*KafkaPublisher)(nil)
	_ Publisher     = NoopPublisher{}
	_ messageWriter = (*kafka.Writer)(nil)
)

// KafkaPublisher publishes reconciliation events to a Kafka topic.
type KafkaPublisher struct {
	writer messageWriter
	logger zerolog.Logger
}

// NewKafkaPublisher creates a publisher writing to the given brokers and topic.
func NewKafkaPublisher(brokers []string, topic string, logger zerolog.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{
		writer: writer,
		logger: logger.With().Str("component", "events").Logger(),
	}
}

// PublishClientMerged emits a client.merged event.
func (p *KafkaPublisher) PublishClientMerged(ctx context.Context, entry *domain.ReconciliationEntry) error {
	return p.publish(ctx, EventTypeClientMerged, entry)
}

// PublishClientDeleted emits a client.deleted event.
func (p *KafkaPublisher) PublishClientDeleted(ctx context.Context, entry *domain.ReconciliationEntry) error {
	return p.publish(ctx, EventTypeClientDeleted, entry)
}

func (p *KafkaPublisher) publish(ctx context.Context, eventType string, entry *domain.ReconciliationEntry) error {
	if entry == nil {
		return fmt.Errorf("entry is required")
	}

	event := ReconciliationEvent{
		EventID:    uuid.New().String(),
		EventType:  eventType,
		KeepID:     entry.KeepID,
		DropID:     entry.DropID,
		Encounters: entry.EncountersMoved,
		Operator:   entry.Operator,
		OccurredAt: entry.CreatedAt,
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(entry.DropID.String()),
		Value: value,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write event: %w", err)
	}

	p.logger.Debug().
		Str("event_type", eventType).
		Str("drop_id", entry.DropID.String()).
		Msg("reconciliation event published")

	return nil
}

// Close closes the underlying Kafka writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher discards all events. Used when Kafka is disabled in config.
type NoopPublisher struct{}

// PublishClientMerged discards the event.
func (NoopPublisher) PublishClientMerged(context.Context, *domain.ReconciliationEntry) error {
	return nil
}

// PublishClientDeleted discards the event.
func (NoopPublisher) PublishClientDeleted(context.Context, *domain.ReconciliationEntry) error {
	return nil
}

// Close is a no-op.
func (NoopPublisher) Close() error { return nil }
