package domain

import (
	"time"

	shared "github.com/felixgeelhaar/allie/internal/shared/domain"
)

const (
	// AggregateTypeEvent is the aggregate type for calendar events.
	AggregateTypeEvent = "calendar_event"

	RoutingKeyEventCreated = "calendar.event.created"
)

// EventCreated is published once per newly stored event.
type EventCreated struct {
	shared.BaseEvent
	CalendarID  string    `json:"calendar_event_id"`
	FamilyID    string    `json:"family_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	AllDay      bool      `json:"all_day"`
	Location    string    `json:"location,omitempty"`
	Category    string    `json:"category,omitempty"`
}

// NewEventCreated creates an EventCreated for the stored event.
func NewEventCreated(e Event) EventCreated {
	ev := EventCreated{
		BaseEvent:   shared.NewBaseEvent(e.ID, AggregateTypeEvent, RoutingKeyEventCreated),
		CalendarID:  e.ID,
		FamilyID:    e.FamilyID,
		Title:       e.Title,
		Description: e.Description,
		Start:       e.Start,
		End:         e.End,
		AllDay:      e.AllDay,
		Location:    e.Location,
		Category:    e.Category,
	}
	ev.SetMetadata(shared.EventMetadata{FamilyID: e.FamilyID, CausationID: e.Source.ItemID})
	return ev
}

// ToEvent rebuilds the event carried by the message.
func (c EventCreated) ToEvent() Event {
	return Event{
		ID:          c.CalendarID,
		FamilyID:    c.FamilyID,
		Title:       c.Title,
		Description: c.Description,
		Start:       c.Start,
		End:         c.End,
		AllDay:      c.AllDay,
		Location:    c.Location,
		Category:    c.Category,
	}
}
