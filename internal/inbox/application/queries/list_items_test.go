package queries

import (
	"context"
	"testing"
	"time"

	"github.com/felixgeelhaar/allie/internal/inbox/domain"
	"github.com/felixgeelhaar/allie/internal/inbox/reconcile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededState(t *testing.T) *reconcile.State {
	t.Helper()
	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	state := reconcile.NewState()
	state.Merge(domain.Batch{Collection: domain.CollectionEmails, Items: []domain.InboxItem{
		{
			ID:         "e1",
			FamilyID:   "fam-1",
			Source:     domain.SourceEmail,
			ReceivedAt: base,
			Status:     domain.StatusProcessed,
			Content:    domain.Content{Subject: "Soccer schedule", From: "coach@example.com"},
			Summary:    "Spring soccer games",
			AIAnalysis: &domain.AIAnalysis{Summary: "Spring soccer games", Category: "activities", Tags: []string{"soccer"}},
			SuggestedActions: []domain.SuggestedAction{
				{Type: domain.ActionCalendar, Title: "First game", Status: domain.ActionCompleted, ResultID: "evt-1"},
				{Type: domain.ActionTask, Title: "Buy cleats", Status: domain.ActionPending},
				{Type: domain.ActionContact, Title: "Coach", Status: domain.ActionFailed, Error: "no name"},
			},
		},
		{
			ID:         "e2",
			FamilyID:   "fam-1",
			Source:     domain.SourceEmail,
			ReceivedAt: base.Add(time.Hour),
			Status:     domain.StatusPending,
			Archived:   true,
			Content:    domain.Content{Subject: "Newsletter"},
		},
	}})
	state.Merge(domain.Batch{Collection: domain.CollectionMessages, Items: []domain.InboxItem{
		{
			ID:         "s1",
			FamilyID:   "fam-1",
			Source:     domain.SourceSMS,
			ReceivedAt: base.Add(2 * time.Hour),
			Status:     domain.StatusPending,
			Content:    domain.Content{Body: "Pickup at 3 today", From: "+15550001111"},
		},
	}})
	return state
}

func TestListItemsHandler(t *testing.T) {
	state := seededState(t)
	h := NewListItemsHandler(state)
	ctx := context.Background()

	t.Run("active items newest first", func(t *testing.T) {
		items, err := h.Handle(ctx, ListItemsQuery{})
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "smsInbox/s1", items[0].Key)
		assert.Equal(t, "Pickup at 3 today", items[0].Title)
		assert.Equal(t, "emailInbox/e1", items[1].Key)
	})

	t.Run("action counts and category", func(t *testing.T) {
		items, err := h.Handle(ctx, ListItemsQuery{Source: domain.SourceEmail})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "activities", items[0].Category)
		assert.Equal(t, 1, items[0].DoneActions)
		assert.Equal(t, 1, items[0].PendingActions)
		assert.Equal(t, 1, items[0].FailedActions)
	})

	t.Run("include archived", func(t *testing.T) {
		items, err := h.Handle(ctx, ListItemsQuery{IncludeArchived: true})
		require.NoError(t, err)
		assert.Len(t, items, 3)
	})

	t.Run("status filter and limit", func(t *testing.T) {
		items, err := h.Handle(ctx, ListItemsQuery{IncludeArchived: true, Status: domain.StatusPending, Limit: 1})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "s1", items[0].ID)
	})

	t.Run("processing flag", func(t *testing.T) {
		key := domain.ItemKey{Collection: domain.CollectionMessages, ID: "s1"}
		_, claimed := state.BeginProcessing(key)
		require.True(t, claimed)
		defer state.FinishProcessing(key)

		items, err := h.Handle(ctx, ListItemsQuery{Source: domain.SourceSMS})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.True(t, items[0].Processing)
		assert.Equal(t, string(domain.StatusProcessing), items[0].Status)
	})
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}
