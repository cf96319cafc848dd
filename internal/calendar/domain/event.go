// Package domain holds family calendar events.
package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	shared "github.com/felixgeelhaar/allie/internal/shared/domain"
)

var (
	ErrEventNotFound = errors.New("calendar event not found")
	ErrInvalidEvent  = errors.New("calendar event needs a family, a title and a start time")
)

// DefaultDuration is used when an event has no end time.
const DefaultDuration = time.Hour

// Event is a family calendar entry.
type Event struct {
	ID          string
	FamilyID    string
	Title       string
	Description string
	Start       time.Time
	End         time.Time
	AllDay      bool
	Location    string
	Category    string
	AttendeeIDs []string
	Source      shared.SourceRef
	CreatedAt   time.Time
}

// Validate fills the end time and checks required fields.
func (e *Event) Validate() error {
	e.Title = strings.TrimSpace(e.Title)
	if e.FamilyID == "" || e.Title == "" || e.Start.IsZero() {
		return ErrInvalidEvent
	}
	if e.End.IsZero() || e.End.Before(e.Start) {
		if e.AllDay {
			e.End = e.Start.AddDate(0, 0, 1)
		} else {
			e.End = e.Start.Add(DefaultDuration)
		}
	}
	if e.AttendeeIDs == nil {
		e.AttendeeIDs = []string{}
	}
	return nil
}

// Repository stores events.
type Repository interface {
	// Create stores the event. When an event with the same ID exists it is
	// returned unchanged and created is false.
	Create(ctx context.Context, event Event) (stored Event, created bool, err error)
	FindByID(ctx context.Context, id string) (Event, error)
	ListByFamily(ctx context.Context, familyID string, from, to time.Time) ([]Event, error)
}
