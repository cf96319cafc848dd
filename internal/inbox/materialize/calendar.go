package materialize

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	calendarDomain "github.com/felixgeelhaar/allie/internal/calendar/domain"
	"github.com/felixgeelhaar/allie/internal/inbox/domain"
	linkingDomain "github.com/felixgeelhaar/allie/internal/linking/domain"
	shared "github.com/felixgeelhaar/allie/internal/shared/domain"
)

var calendarLinkTargets = map[domain.ActionType]linkingDomain.EntityType{
	domain.ActionContact: linkingDomain.EntityContact,
	domain.ActionTask:    linkingDomain.EntityTask,
}

// EventLink is the navigable link stored on a completed calendar action.
func EventLink(id string) string {
	return "/calendar?event=" + id
}

func (m *Materializer) applyCalendar(ctx context.Context, item domain.InboxItem, index int, src shared.SourceRef, logger *slog.Logger) (string, string, error) {
	action := item.SuggestedActions[index]
	raw := action.Data.Start()
	if raw == "" {
		return "", "", ErrMissingStartDate
	}
	now := m.now()
	start, dateOnly, err := parseDate(raw, m.cfg.Location)
	if err != nil {
		return "", "", fmt.Errorf("invalid start date: %w", err)
	}
	if patched := patchYear(start, m.cfg.KnownBadYear, m.cfg.TargetYear, now); !patched.Equal(start) {
		logger.InfoContext(ctx, "corrected known bad year in start date", "from", start.Year(), "to", patched.Year())
		start = patched
	}

	end := start.Add(calendarDomain.DefaultDuration)
	if s := strings.TrimSpace(action.Data.EndDate); s != "" {
		parsed, _, err := parseDate(s, m.cfg.Location)
		if err != nil {
			return "", "", fmt.Errorf("invalid end date: %w", err)
		}
		parsed = patchYear(parsed, m.cfg.KnownBadYear, m.cfg.TargetYear, now)
		if parsed.After(start) {
			end = parsed
		}
	}

	title := strings.TrimSpace(action.Title)
	if title == "" {
		title = strings.TrimSpace(item.Content.Subject)
	}
	if title == "" {
		return "", "", ErrMissingTitle
	}

	attendees := m.attendeeIDs(ctx, item.FamilyID, action.Data.Attendees, logger)
	event, err := m.calendar.CreateEvent(ctx, calendarDomain.Event{
		ID:          src.RecordID("calendar"),
		FamilyID:    item.FamilyID,
		Title:       title,
		Description: action.Description,
		Start:       start,
		End:         end,
		AllDay:      dateOnly,
		Location:    action.Data.Location,
		Category:    m.category(item),
		AttendeeIDs: attendees,
		Source:      src,
	})
	if err != nil {
		return "", "", err
	}

	m.linkTo(ctx, item, index, linkingDomain.Ref{Type: linkingDomain.EntityEvent, ID: event.ID}, calendarLinkTargets, logger)
	return event.ID, EventLink(event.ID), nil
}

// attendeeIDs resolves attendee names or ids to family member ids. Names
// with no matching member are dropped.
func (m *Materializer) attendeeIDs(ctx context.Context, familyID string, attendees []string, logger *slog.Logger) []string {
	if len(attendees) == 0 {
		return []string{}
	}
	members := m.familyMembers(ctx, familyID, logger)
	ids := newOrderedSet()
	for _, a := range attendees {
		if member, ok := matchMember(a, members); ok {
			ids.add(member.ID)
		}
	}
	return ids.values()
}
