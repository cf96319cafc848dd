package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want Status
	}{
		{"pending", StatusPending},
		{"", StatusPending},
		{"bogus", StatusPending},
		{"processing", StatusProcessing},
		{"processed", StatusProcessed},
		{"Completed", StatusProcessed},
		{"partial", StatusPartial},
		{"error", StatusError},
		{"failed", StatusError},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseStatus(tt.raw))
		})
	}
}

func TestInboxItem_HasAIData(t *testing.T) {
	t.Run("empty item has no data", func(t *testing.T) {
		assert.False(t, InboxItem{}.HasAIData())
	})

	t.Run("failure sentinel summary is not data", func(t *testing.T) {
		item := InboxItem{Summary: AnalysisFailedSummary, Status: StatusError}
		assert.False(t, item.HasAIData())
		assert.True(t, item.AnalysisFailed())
	})

	t.Run("summary counts as data", func(t *testing.T) {
		assert.True(t, InboxItem{Summary: "Dentist reminder"}.HasAIData())
	})

	t.Run("actions count as data", func(t *testing.T) {
		item := InboxItem{SuggestedActions: []SuggestedAction{{Type: ActionTask, Title: "x"}}}
		assert.True(t, item.HasAIData())
	})

	t.Run("empty analysis does not count", func(t *testing.T) {
		item := InboxItem{AIAnalysis: &AIAnalysis{}}
		assert.False(t, item.HasAIData())
	})
}

func TestInboxItem_NeedsClassification(t *testing.T) {
	assert.True(t, InboxItem{Status: StatusPending}.NeedsClassification())
	assert.False(t, InboxItem{Status: StatusPending, Archived: true}.NeedsClassification())
	assert.False(t, InboxItem{Summary: "done"}.NeedsClassification())
}

func TestInboxItem_Clone(t *testing.T) {
	at := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	item := InboxItem{
		ID:               "a",
		Content:          Content{MediaURLs: []string{"u1"}},
		AIAnalysis:       &AIAnalysis{Summary: "s", Tags: []string{"t"}},
		SuggestedActions: []SuggestedAction{{Type: ActionTask, Data: ActionData{AssigneeIDs: []string{"m1"}}}},
		AttemptedAt:      &at,
	}

	clone := item.Clone()
	clone.Content.MediaURLs[0] = "changed"
	clone.AIAnalysis.Tags[0] = "changed"
	clone.SuggestedActions[0].Data.AssigneeIDs[0] = "changed"
	*clone.AttemptedAt = at.Add(time.Hour)

	assert.Equal(t, "u1", item.Content.MediaURLs[0])
	assert.Equal(t, "t", item.AIAnalysis.Tags[0])
	assert.Equal(t, "m1", item.SuggestedActions[0].Data.AssigneeIDs[0])
	assert.Equal(t, at, *item.AttemptedAt)
}

func TestInboxItem_Key(t *testing.T) {
	assert.Equal(t, ItemKey{Collection: CollectionDocuments, ID: "d"}, InboxItem{ID: "d", Source: SourceDocument}.Key())
	assert.Equal(t, ItemKey{Collection: CollectionEmails, ID: "e"}, InboxItem{ID: "e", Source: SourceEmail}.Key())
	assert.Equal(t, ItemKey{Collection: CollectionMessages, ID: "m"}, InboxItem{ID: "m", Source: SourceMMS}.Key())
	assert.Equal(t, "smsInbox/m", ItemKey{Collection: CollectionMessages, ID: "m"}.String())
}

func TestAllieActions(t *testing.T) {
	actions := []SuggestedAction{
		{Type: ActionTask, Status: ActionCompleted},
		{Type: ActionCalendar, Status: ActionPending},
		{Type: ActionContact, Status: ActionFailed},
	}

	got := AllieActions(actions)

	assert.Len(t, got, 1)
	assert.Equal(t, ActionTask, got[0].Type)
}

func TestParseItemKey(t *testing.T) {
	key, err := ParseItemKey("smsInbox/abc-123")
	assert.NoError(t, err)
	assert.Equal(t, ItemKey{Collection: CollectionMessages, ID: "abc-123"}, key)

	round, err := ParseItemKey(ItemKey{Collection: CollectionDocuments, ID: "d1"}.String())
	assert.NoError(t, err)
	assert.Equal(t, CollectionDocuments, round.Collection)

	for _, raw := range []string{"", "abc", "emailInbox/", "photos/1"} {
		_, err := ParseItemKey(raw)
		assert.Error(t, err, raw)
	}
}

func TestParseSource(t *testing.T) {
	s, ok := ParseSource("Email")
	assert.True(t, ok)
	assert.Equal(t, SourceEmail, s)

	s, ok = ParseSource("documents")
	assert.True(t, ok)
	assert.Equal(t, SourceDocument, s)

	_, ok = ParseSource("fax")
	assert.False(t, ok)
}
