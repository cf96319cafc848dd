package subscribers_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/felixgeelhaar/allie/internal/calendar/application"
	"github.com/felixgeelhaar/allie/internal/calendar/application/subscribers"
	"github.com/felixgeelhaar/allie/internal/calendar/domain"
	"github.com/felixgeelhaar/allie/internal/shared/infrastructure/eventbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSyncer struct {
	familyID string
	synced   []domain.Event
	err      error
}

func (m *mockSyncer) Sync(ctx context.Context, familyID string, events []domain.Event) (*application.SyncResult, error) {
	m.familyID = familyID
	m.synced = append(m.synced, events...)
	if m.err != nil {
		return nil, m.err
	}
	return &application.SyncResult{Created: len(events)}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func createdEvent(t *testing.T, e domain.Event) *eventbus.ConsumedEvent {
	t.Helper()
	msg := domain.NewEventCreated(e)
	payload, err := json.Marshal(msg)
	require.NoError(t, err)
	return &eventbus.ConsumedEvent{
		EventID:     msg.EventID(),
		AggregateID: e.ID,
		RoutingKey:  domain.RoutingKeyEventCreated,
		Payload:     payload,
		Metadata:    msg.Metadata(),
	}
}

func TestCalendarSyncSubscriber_EventTypes(t *testing.T) {
	subscriber := subscribers.NewCalendarSyncSubscriber(nil, testLogger())

	assert.Equal(t, []string{"calendar.event.created"}, subscriber.EventTypes())
}

func TestCalendarSyncSubscriber_HandleCreated(t *testing.T) {
	syncer := &mockSyncer{}
	subscriber := subscribers.NewCalendarSyncSubscriber(syncer, testLogger())
	start := time.Date(2025, 4, 1, 16, 0, 0, 0, time.UTC)

	err := subscriber.Handle(context.Background(), createdEvent(t, domain.Event{
		ID: "ev1", FamilyID: "fam", Title: "Piano", Start: start, End: start.Add(time.Hour), Location: "Studio",
	}))

	require.NoError(t, err)
	require.Len(t, syncer.synced, 1)
	assert.Equal(t, "fam", syncer.familyID)
	assert.Equal(t, "ev1", syncer.synced[0].ID)
	assert.Equal(t, "Studio", syncer.synced[0].Location)
	assert.True(t, syncer.synced[0].Start.Equal(start))
}

func TestCalendarSyncSubscriber_FailuresAreSwallowed(t *testing.T) {
	syncer := &mockSyncer{err: errors.New("401 unauthorized")}
	subscriber := subscribers.NewCalendarSyncSubscriber(syncer, testLogger())

	err := subscriber.Handle(context.Background(), createdEvent(t, domain.Event{ID: "ev1", FamilyID: "fam"}))
	assert.NoError(t, err)

	err = subscriber.Handle(context.Background(), &eventbus.ConsumedEvent{
		RoutingKey: domain.RoutingKeyEventCreated,
		Payload:    []byte("not json"),
	})
	assert.NoError(t, err)
}

func TestCalendarSyncSubscriber_Disabled(t *testing.T) {
	syncer := &mockSyncer{}
	subscriber := subscribers.NewCalendarSyncSubscriber(syncer, testLogger())
	subscriber.SetEnabled(false)

	require.NoError(t, subscriber.Handle(context.Background(), createdEvent(t, domain.Event{ID: "ev1"})))

	assert.Empty(t, syncer.synced)
}

func TestCalendarSyncSubscriber_ThroughInProcessBus(t *testing.T) {
	syncer := &mockSyncer{}
	bus := eventbus.NewInProcessEventBus(testLogger())
	bus.RegisterConsumer(subscribers.NewCalendarSyncSubscriber(syncer, testLogger()))
	msg := domain.NewEventCreated(domain.Event{ID: "ev9", FamilyID: "fam", Title: "Recital"})

	require.NoError(t, eventbus.PublishEvent(context.Background(), bus, msg))

	require.Len(t, syncer.synced, 1)
	assert.Equal(t, "Recital", syncer.synced[0].Title)
}
