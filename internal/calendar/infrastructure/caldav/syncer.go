// Package caldav mirrors family events into a CalDAV calendar (Apple
// Calendar, Fastmail, Nextcloud, etc.).
package caldav

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"
	calendarApp "github.com/felixgeelhaar/allie/internal/calendar/application"
	"github.com/felixgeelhaar/allie/internal/calendar/domain"
)

// Common CalDAV server URLs
const (
	AppleCalDAVURL    = "https://caldav.icloud.com"
	FastmailCalDAVURL = "https://caldav.fastmail.com"
)

// PropXAllie marks events written by this service.
const PropXAllie = "X-ALLIE"

// Syncer pushes events to a CalDAV calendar.
type Syncer struct {
	baseURL      string
	username     string
	password     string // App-specific password for Apple
	calendarPath string // Specific calendar path, or empty for the first one
	logger       *slog.Logger
}

// NewSyncer creates a CalDAV syncer.
func NewSyncer(baseURL, username, password string, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{
		baseURL:  baseURL,
		username: username,
		password: password,
		logger:   logger,
	}
}

// WithCalendarPath sets the specific calendar path to use.
func (s *Syncer) WithCalendarPath(path string) *Syncer {
	s.calendarPath = path
	return s
}

// Sync writes each event to the calendar, one object per event ID.
func (s *Syncer) Sync(ctx context.Context, familyID string, events []domain.Event) (*calendarApp.SyncResult, error) {
	client, err := s.getClient()
	if err != nil {
		return nil, err
	}

	calPath, err := s.findCalendarPath(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("failed to find calendar: %w", err)
	}

	result := &calendarApp.SyncResult{}
	for _, event := range events {
		eventPath := objectPath(calPath, event.ID)
		updated, err := s.upsertEvent(ctx, client, eventPath, toICalendar(event, time.Now().UTC()))
		if err != nil {
			s.logger.WarnContext(ctx, "caldav sync failed", "family_id", familyID, "event_path", eventPath, "error", err)
			result.Failed++
			continue
		}
		if updated {
			result.Updated++
		} else {
			result.Created++
		}
	}
	return result, nil
}

func (s *Syncer) getClient() (*caldav.Client, error) {
	httpClient := &http.Client{Timeout: 30 * time.Second}
	client, err := caldav.NewClient(webdav.HTTPClientWithBasicAuth(httpClient, s.username, s.password), s.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create caldav client: %w", err)
	}
	return client, nil
}

func (s *Syncer) findCalendarPath(ctx context.Context, client *caldav.Client) (string, error) {
	if s.calendarPath != "" {
		return s.calendarPath, nil
	}

	principal, err := client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to find principal: %w", err)
	}

	homeSet, err := client.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return "", fmt.Errorf("failed to find calendar home set: %w", err)
	}

	cals, err := client.FindCalendars(ctx, homeSet)
	if err != nil {
		return "", fmt.Errorf("failed to find calendars: %w", err)
	}
	if len(cals) == 0 {
		return "", fmt.Errorf("no calendars found")
	}
	return cals[0].Path, nil
}

func (s *Syncer) upsertEvent(ctx context.Context, client *caldav.Client, eventPath string, cal *ical.Calendar) (bool, error) {
	existing, err := client.GetCalendarObject(ctx, eventPath)
	exists := err == nil
	if exists && !isAllieEvent(existing.Data) {
		return false, fmt.Errorf("refusing to overwrite %s: not written by allie", eventPath)
	}

	if _, err := client.PutCalendarObject(ctx, eventPath, cal); err != nil {
		return false, err
	}
	return exists, nil
}

func objectPath(calPath, eventID string) string {
	if !strings.HasSuffix(calPath, "/") {
		calPath += "/"
	}
	return calPath + eventID + ".ics"
}

// toICalendar converts an event to a single-VEVENT calendar.
func toICalendar(e domain.Event, stamp time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//Allie//Family Calendar//EN")

	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, e.ID)
	event.Props.SetDateTime(ical.PropDateTimeStamp, stamp)
	if e.AllDay {
		event.Props.SetDate(ical.PropDateTimeStart, e.Start)
		event.Props.SetDate(ical.PropDateTimeEnd, e.End)
	} else {
		event.Props.SetDateTime(ical.PropDateTimeStart, e.Start.UTC())
		event.Props.SetDateTime(ical.PropDateTimeEnd, e.End.UTC())
	}
	event.Props.SetText(ical.PropSummary, e.Title)
	if e.Description != "" {
		event.Props.SetText(ical.PropDescription, e.Description)
	}
	if e.Location != "" {
		event.Props.SetText(ical.PropLocation, e.Location)
	}
	if e.Category != "" {
		event.Props.SetText(ical.PropCategories, e.Category)
	}

	allieProp := ical.NewProp(PropXAllie)
	allieProp.Value = "1"
	event.Props[PropXAllie] = []ical.Prop{*allieProp}

	cal.Children = append(cal.Children, event.Component)
	return cal
}

// isAllieEvent checks a calendar for the X-ALLIE marker.
func isAllieEvent(cal *ical.Calendar) bool {
	if cal == nil {
		return false
	}
	for _, child := range cal.Children {
		if child.Name != ical.CompEvent {
			continue
		}
		if props := child.Props[PropXAllie]; len(props) > 0 && props[0].Value == "1" {
			return true
		}
	}
	return false
}

// calendarToString serializes a calendar, returning "" when encoding fails.
func calendarToString(cal *ical.Calendar) string {
	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return ""
	}
	return buf.String()
}
