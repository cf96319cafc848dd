// Package subscribers reacts to calendar events on the bus.
package subscribers

import (
	"context"
	"log/slog"

	"github.com/felixgeelhaar/allie/internal/calendar/application"
	"github.com/felixgeelhaar/allie/internal/calendar/domain"
	"github.com/felixgeelhaar/allie/internal/shared/infrastructure/eventbus"
)

// CalendarSyncSubscriber mirrors newly created events to an external calendar.
type CalendarSyncSubscriber struct {
	syncer  application.Syncer
	logger  *slog.Logger
	enabled bool
}

// NewCalendarSyncSubscriber creates a new calendar sync subscriber.
func NewCalendarSyncSubscriber(syncer application.Syncer, logger *slog.Logger) *CalendarSyncSubscriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &CalendarSyncSubscriber{
		syncer:  syncer,
		logger:  logger,
		enabled: true,
	}
}

// SetEnabled enables or disables the subscriber.
func (s *CalendarSyncSubscriber) SetEnabled(enabled bool) {
	s.enabled = enabled
}

// EventTypes returns the event types this subscriber handles.
func (s *CalendarSyncSubscriber) EventTypes() []string {
	return []string{domain.RoutingKeyEventCreated}
}

// Handle pushes the created event. Sync failures are logged and never
// fail the delivery.
func (s *CalendarSyncSubscriber) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	if !s.enabled || s.syncer == nil {
		s.logger.DebugContext(ctx, "calendar sync disabled, skipping event", "routing_key", event.RoutingKey)
		return nil
	}
	if event.RoutingKey != domain.RoutingKeyEventCreated {
		s.logger.WarnContext(ctx, "unknown event type", "routing_key", event.RoutingKey)
		return nil
	}

	var payload domain.EventCreated
	if err := event.Decode(&payload); err != nil {
		s.logger.ErrorContext(ctx, "failed to unmarshal calendar event payload", "error", err)
		return nil
	}

	familyID := payload.FamilyID
	if familyID == "" {
		familyID = event.Metadata.FamilyID
	}
	result, err := s.syncer.Sync(ctx, familyID, []domain.Event{payload.ToEvent()})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to sync event to calendar",
			"event_id", payload.CalendarID,
			"error", err,
		)
		return nil
	}

	s.logger.InfoContext(ctx, "synced event to calendar",
		"event_id", payload.CalendarID,
		"created", result.Created,
		"updated", result.Updated,
		"failed", result.Failed,
	)
	return nil
}
