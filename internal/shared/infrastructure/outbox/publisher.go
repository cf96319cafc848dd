package outbox

import (
	"context"
	"log/slog"

	"github.com/felixgeelhaar/allie/internal/shared/infrastructure/eventbus"
)

// Publisher writes messages to the outbox instead of the broker. Inside a
// unit of work the message commits or rolls back with the records that
// produced it.
type Publisher struct {
	repo   Repository
	logger *slog.Logger
}

var _ eventbus.Publisher = (*Publisher)(nil)

// NewPublisher creates an outbox publisher.
func NewPublisher(repo Repository, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{repo: repo, logger: logger}
}

func (p *Publisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	msg := NewMessage(routingKey, payload)
	if err := p.repo.Save(ctx, msg); err != nil {
		return err
	}
	p.logger.DebugContext(ctx, "event stored in outbox", "routing_key", routingKey, "event_id", msg.EventID)
	return nil
}

func (p *Publisher) Close() error {
	return nil
}
