package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"Paggo/backend/go/internal/models"
	"Paggo/backend/go/pkg/logger"

	"github.com/segmentio/kafka-go"
)

// messageWriter is the part of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// EventPublisher publishes document lifecycle events to Kafka.
type EventPublisher struct {
	writer messageWriter
	topic  string
	logger *logger.Logger
}

// NewEventPublisher creates a publisher on top of an existing writer. The
// writer must already be bound to topic.
func NewEventPublisher(writer *kafka.Writer, logger *logger.Logger) *EventPublisher {
	return newEventPublisher(writer, writer.Topic, logger)
}

func newEventPublisher(w messageWriter, topic string, log *logger.Logger) *EventPublisher {
	if log == nil {
		log = logger.Discard()
	}
	return &EventPublisher{writer: w, topic: topic, logger: log}
}

// Publish sends one event, keyed by document id so events of a document stay
// ordered within a partition.
func (p *EventPublisher) Publish(ctx context.Context, event models.DocumentEvent) error {
	msgBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.Type, err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.DocumentID),
		Value: msgBytes,
	})
	if err != nil {
		p.logger.WithError(models.ErrorInfo{Message: err.Error(), Type: "kafka_error"}).
			WithPayload(map[string]interface{}{"topic": p.topic, "event": event.Type}).
			Error("Failed to write document event to Kafka")
		return err
	}
	return nil
}

// Close closes the underlying Kafka writer.
func (p *EventPublisher) Close() error {
	return p.writer.Close()
}
