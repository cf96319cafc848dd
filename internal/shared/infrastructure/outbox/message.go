package outbox

import (
	"encoding/json"
	"time"

	"github.com/felixgeelhaar/allie/internal/shared/infrastructure/eventbus"
	"github.com/google/uuid"
)

// Message is a bus envelope waiting to be relayed.
type Message struct {
	ID               int64
	EventID          string
	AggregateType    string
	AggregateID      string
	RoutingKey       string
	Payload          json.RawMessage
	CreatedAt        time.Time
	PublishedAt      *time.Time
	NextRetryAt      *time.Time
	RetryCount       int
	LastError        *string
	DeadLetteredAt   *time.Time
	DeadLetterReason *string
}

// NewMessage wraps an encoded envelope. Header fields are copied from the
// envelope when it decodes; a payload that does not still gets an event ID
// so it can be stored.
func NewMessage(routingKey string, payload []byte) *Message {
	msg := &Message{
		RoutingKey: routingKey,
		Payload:    append(json.RawMessage(nil), payload...),
		CreatedAt:  time.Now().UTC(),
	}
	var envelope eventbus.ConsumedEvent
	if err := json.Unmarshal(payload, &envelope); err == nil {
		if envelope.EventID != uuid.Nil {
			msg.EventID = envelope.EventID.String()
		}
		msg.AggregateType = envelope.AggregateType
		msg.AggregateID = envelope.AggregateID
		if !envelope.OccurredAt.IsZero() {
			msg.CreatedAt = envelope.OccurredAt.UTC()
		}
	}
	if msg.EventID == "" {
		msg.EventID = uuid.NewString()
	}
	return msg
}

// IsPublished returns true if the message has been published.
func (m *Message) IsPublished() bool {
	return m.PublishedAt != nil
}

// CanRetry returns true if the message can be retried.
func (m *Message) CanRetry(maxRetries int) bool {
	return m.RetryCount < maxRetries
}

// Envelope decodes the stored payload.
func (m *Message) Envelope() (eventbus.ConsumedEvent, error) {
	var envelope eventbus.ConsumedEvent
	err := json.Unmarshal(m.Payload, &envelope)
	return envelope, err
}
