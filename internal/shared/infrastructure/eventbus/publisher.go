package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	sharedApplication "github.com/felixgeelhaar/allie/internal/shared/application"
	"github.com/felixgeelhaar/allie/internal/shared/domain"
)

// Publisher sends messages to an event bus.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload []byte) error
	Close() error
}

// PublishEvent wraps a domain event in an envelope and publishes it under
// its routing key. The envelope carries the correlation ID of ctx.
func PublishEvent(ctx context.Context, pub Publisher, event domain.DomainEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", event.RoutingKey(), err)
	}
	envelope := ConsumedEvent{
		EventID:       event.EventID(),
		AggregateID:   event.AggregateID(),
		AggregateType: event.AggregateType(),
		RoutingKey:    event.RoutingKey(),
		OccurredAt:    event.OccurredAt(),
		Payload:       body,
		Metadata:      sharedApplication.EventMetadata(ctx, event.Metadata()),
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	return pub.Publish(ctx, event.RoutingKey(), payload)
}

// NoopPublisher logs and drops messages.
type NoopPublisher struct {
	logger *slog.Logger
}

// NewNoopPublisher creates a publisher that does nothing.
func NewNoopPublisher(logger *slog.Logger) *NoopPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &NoopPublisher{logger: logger}
}

func (p *NoopPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	p.logger.DebugContext(ctx, "noop publish", "routing_key", routingKey, "size", len(payload))
	return nil
}

func (p *NoopPublisher) Close() error {
	return nil
}
