package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/aqi-predictor/internal/domain"
	"github.com/couchcryptid/aqi-predictor/internal/observability"
	kafkago "github.com/segmentio/kafka-go"
)

// Publisher produces fetch and prediction events to a Kafka topic.
// It implements service.EventPublisher.
type Publisher struct {
	writer  *kafkago.Writer
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewPublisher creates a Kafka producer for the events topic. Events are
// written one per request, so the batch timeout is kept short.
func NewPublisher(brokers []string, topic string, metrics *observability.Metrics, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.LeastBytes{},
		RequiredAcks:           kafkago.RequireAll,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return &Publisher{writer: w, metrics: metrics, logger: logger}
}

// Publish serializes and writes a single event.
func (p *Publisher) Publish(ctx context.Context, event domain.Event) error {
	msg, err := serializeToMessage(event)
	if err != nil {
		p.metrics.EventsPublished.WithLabelValues("error").Inc()
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.metrics.EventsPublished.WithLabelValues("error").Inc()
		return fmt.Errorf("write %s event: %w", event.Type, err)
	}
	p.metrics.EventsPublished.WithLabelValues("success").Inc()
	p.logger.Debug("event published", "event_id", event.ID, "type", event.Type)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals an Event into a Kafka message keyed by event ID.
func serializeToMessage(event domain.Event) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "occurred_at", Value: []byte(event.OccurredAt.Format(time.RFC3339))},
		},
	}, nil
}
