package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_Validate(t *testing.T) {
	start := time.Date(2025, 3, 4, 15, 0, 0, 0, time.UTC)

	t.Run("defaults end to one hour", func(t *testing.T) {
		e := Event{FamilyID: "fam", Title: " Dentist ", Start: start}
		require.NoError(t, e.Validate())
		assert.Equal(t, "Dentist", e.Title)
		assert.Equal(t, start.Add(time.Hour), e.End)
		assert.NotNil(t, e.AttendeeIDs)
	})

	t.Run("all day spans a day", func(t *testing.T) {
		e := Event{FamilyID: "fam", Title: "Field trip", Start: start, AllDay: true}
		require.NoError(t, e.Validate())
		assert.Equal(t, start.AddDate(0, 0, 1), e.End)
	})

	t.Run("end before start is replaced", func(t *testing.T) {
		e := Event{FamilyID: "fam", Title: "x", Start: start, End: start.Add(-time.Hour)}
		require.NoError(t, e.Validate())
		assert.Equal(t, start.Add(time.Hour), e.End)
	})

	t.Run("missing fields", func(t *testing.T) {
		for _, e := range []Event{
			{Title: "x", Start: start},
			{FamilyID: "fam", Start: start},
			{FamilyID: "fam", Title: "x"},
		} {
			assert.ErrorIs(t, e.Validate(), ErrInvalidEvent)
		}
	})
}

func TestEventCreated_RoundTrip(t *testing.T) {
	e := Event{ID: "ev1", FamilyID: "fam", Title: "Recital", Start: time.Now().UTC(), End: time.Now().UTC().Add(time.Hour)}

	msg := NewEventCreated(e)

	assert.Equal(t, RoutingKeyEventCreated, msg.RoutingKey())
	assert.Equal(t, "ev1", msg.AggregateID())
	assert.Equal(t, "fam", msg.Metadata().FamilyID)
	assert.Equal(t, e.Title, msg.ToEvent().Title)
}
