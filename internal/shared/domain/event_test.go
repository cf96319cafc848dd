package domain_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/felixgeelhaar/allie/internal/shared/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEvent struct {
	domain.BaseEvent
	Data string `json:"data"`
}

func TestNewBaseEvent(t *testing.T) {
	before := time.Now().UTC()

	event := domain.NewBaseEvent("emailInbox/e1", "inbox_item", "inbox.item.classified")

	after := time.Now().UTC()

	assert.NotEqual(t, uuid.Nil, event.EventID())
	assert.Equal(t, "emailInbox/e1", event.AggregateID())
	assert.Equal(t, "inbox_item", event.AggregateType())
	assert.Equal(t, "inbox.item.classified", event.RoutingKey())
	assert.False(t, event.OccurredAt().Before(before))
	assert.False(t, event.OccurredAt().After(after))
}

func TestBaseEvent_WithMetadata(t *testing.T) {
	event := domain.NewBaseEvent("smsInbox/s1", "inbox_item", "inbox.item.archived")
	event.SetMetadata(domain.EventMetadata{
		CorrelationID: "corr-1",
		CausationID:   "cause-1",
		FamilyID:      "fam-1",
	})

	metadata := event.Metadata()
	assert.Equal(t, "corr-1", metadata.CorrelationID)
	assert.Equal(t, "cause-1", metadata.CausationID)
	assert.Equal(t, "fam-1", metadata.FamilyID)
}

func TestBaseEvent_SerializesEnvelope(t *testing.T) {
	event := testEvent{
		BaseEvent: domain.NewBaseEvent("familyDocuments/d1", "inbox_item", "inbox.action.completed"),
		Data:      "payload",
	}

	raw, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "familyDocuments/d1", decoded["aggregate_id"])
	assert.Equal(t, "inbox.action.completed", decoded["routing_key"])
	assert.Equal(t, "payload", decoded["data"])
	assert.NotEmpty(t, decoded["event_id"])
}
