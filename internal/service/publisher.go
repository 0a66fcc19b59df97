package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/aqi-predictor/internal/domain"
)

// publishTimeout bounds how long a request waits on the event sink.
const publishTimeout = 2 * time.Second

// EventPublisher delivers completed fetches and predictions downstream.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

// NopPublisher discards events. It is used when no sink is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, domain.Event) error { return nil }

// publish sends an event without letting a sink failure or a cancelled
// client request affect the caller.
func publish(ctx context.Context, p EventPublisher, event domain.Event, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := p.Publish(ctx, event); err != nil {
		logger.Warn("event publish failed", "event_id", event.ID, "type", event.Type, "error", err)
	}
}
