package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRawAction_Shapes(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		raw, ok := ParseRawAction("  Buy cleats ")
		require.True(t, ok)
		assert.Equal(t, TextAction{Text: "Buy cleats"}, raw)
	})

	t.Run("blank text is rejected", func(t *testing.T) {
		_, ok := ParseRawAction("   ")
		assert.False(t, ok)
	})

	t.Run("legacy task", func(t *testing.T) {
		raw, ok := ParseRawAction(map[string]any{"task": "Pay fee", "priority": "high", "dueDate": "2025-02-01"})
		require.True(t, ok)
		assert.Equal(t, LegacyTaskAction{Task: "Pay fee", Priority: "high", DueDate: "2025-02-01"}, raw)
	})

	t.Run("full action", func(t *testing.T) {
		raw, ok := ParseRawAction(map[string]any{"type": "contact", "title": "Add Dr. Lee", "data": map[string]any{"name": "Dr. Lee"}})
		require.True(t, ok)
		full, isFull := raw.(FullAction)
		require.True(t, isFull)
		assert.Equal(t, "contact", full.Type)
		assert.Equal(t, "Dr. Lee", full.Data["name"])
	})

	t.Run("flattened payload is lifted into data", func(t *testing.T) {
		raw, ok := ParseRawAction(map[string]any{"type": "calendar", "title": "Recital", "dateTime": "2025-06-01T18:00:00"})
		require.True(t, ok)
		action := NormalizeAction(raw)
		assert.Equal(t, "2025-06-01T18:00:00", action.Data.Start())
	})

	t.Run("unrecognized values", func(t *testing.T) {
		for _, v := range []any{nil, 42, []any{}, map[string]any{}} {
			_, ok := ParseRawAction(v)
			assert.False(t, ok, "%v", v)
		}
	})
}

func TestNormalizeAction(t *testing.T) {
	t.Run("text becomes pending task", func(t *testing.T) {
		a := NormalizeAction(TextAction{Text: "Return library books"})
		assert.Equal(t, ActionTask, a.Type)
		assert.Equal(t, "Return library books", a.Title)
		assert.Equal(t, PriorityMedium, a.Priority)
		assert.Equal(t, ActionPending, a.Status)
	})

	t.Run("legacy task keeps due date", func(t *testing.T) {
		a := NormalizeAction(LegacyTaskAction{Task: "Pay fee", Priority: "urgent", DueDate: "tomorrow"})
		assert.Equal(t, ActionTask, a.Type)
		assert.Equal(t, PriorityHigh, a.Priority)
		assert.Equal(t, "tomorrow", a.Data.DueDate)
	})

	t.Run("full action aliases", func(t *testing.T) {
		a := NormalizeAction(FullAction{Type: "appointment", Title: "Dentist", Status: "completed", CompletedAt: "2025-01-01T00:00:00Z"})
		assert.Equal(t, ActionCalendar, a.Type)
		assert.Equal(t, ActionCompleted, a.Status)
		require.NotNil(t, a.CompletedAt)
	})

	t.Run("unknown type falls back to task", func(t *testing.T) {
		a := NormalizeAction(FullAction{Type: "shopping", Title: "Milk"})
		assert.Equal(t, ActionTask, a.Type)
	})

	t.Run("missing title gets a default", func(t *testing.T) {
		a := NormalizeAction(FullAction{Type: "contact", Data: map[string]any{"name": "Coach Kim"}})
		assert.Equal(t, "Add Coach Kim to contacts", a.Title)
	})

	t.Run("assignees alias", func(t *testing.T) {
		a := NormalizeAction(FullAction{Type: "task", Title: "t", Data: map[string]any{"assignees": []any{"Emma", "Liam"}}})
		assert.Equal(t, []string{"Emma", "Liam"}, a.Data.AssigneeNames)
	})
}

func TestNormalizeActions_SkipsGarbage(t *testing.T) {
	got := NormalizeActions([]any{"A", 7, nil, map[string]any{"task": "B"}})

	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].Title)
	assert.Equal(t, "B", got[1].Title)
	assert.Nil(t, NormalizeActions("not a list"))
}

func TestSuggestedAction_CompleteAndFail(t *testing.T) {
	a := SuggestedAction{Type: ActionTask, Status: ActionPending}
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	a.Complete("task-1", "/tasks?task=task-1", at)
	assert.Equal(t, ActionCompleted, a.Status)
	assert.Equal(t, "task-1", a.ResultID)
	assert.False(t, a.IsPending())

	b := SuggestedAction{Type: ActionCalendar, Status: ActionPending}
	b.Fail(errors.New("no start"))
	assert.Equal(t, ActionFailed, b.Status)
	assert.Equal(t, "no start", b.Error)
}
