package materialize

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	calendarDomain "github.com/felixgeelhaar/allie/internal/calendar/domain"
	"github.com/felixgeelhaar/allie/internal/inbox/domain"
	linkingDomain "github.com/felixgeelhaar/allie/internal/linking/domain"
	shared "github.com/felixgeelhaar/allie/internal/shared/domain"
	tasksDomain "github.com/felixgeelhaar/allie/internal/tasks/domain"
	"github.com/felixgeelhaar/allie/pkg/observability"
)

var taskLinkTargets = map[domain.ActionType]linkingDomain.EntityType{
	domain.ActionCalendar: linkingDomain.EntityEvent,
	domain.ActionContact:  linkingDomain.EntityContact,
}

// TaskLink is the navigable link stored on a completed task action.
func TaskLink(id string) string {
	return "/tasks?task=" + id
}

func (m *Materializer) applyTask(ctx context.Context, item domain.InboxItem, index int, src shared.SourceRef, logger *slog.Logger) (string, string, error) {
	action := item.SuggestedActions[index]
	title := strings.TrimSpace(action.Title)
	if title == "" {
		return "", "", ErrMissingTitle
	}
	now := m.now()

	due, err := m.dueDate(action, item, now)
	if err != nil {
		return "", "", err
	}

	members := m.familyMembers(ctx, item.FamilyID, logger)
	text := strings.Join([]string{title, action.Description, item.Content.Text()}, "\n")

	task, err := m.tasks.CreateTask(ctx, tasksDomain.Task{
		ID:          src.RecordID("task"),
		FamilyID:    item.FamilyID,
		Title:       title,
		Description: action.Description,
		AssigneeIDs: resolveAssignees(action.Data, text, members),
		DueAt:       due,
		Priority:    tasksDomain.ParsePriority(string(action.Priority)),
		Category:    m.category(item),
		Column:      tasksDomain.ColumnFor(due, now),
		Source:      src,
	})
	if err != nil {
		return "", "", err
	}

	taskRef := linkingDomain.Ref{Type: linkingDomain.EntityTask, ID: task.ID}
	if due != nil && m.cfg.CompanionEvents {
		m.companionEvent(ctx, item, task, src, logger)
	}
	m.linkTo(ctx, item, index, taskRef, taskLinkTargets, logger)
	return task.ID, TaskLink(task.ID), nil
}

// dueDate reads the explicit due date, falling back to a date mentioned in
// the action or item text. A task without any date has no due date.
func (m *Materializer) dueDate(action domain.SuggestedAction, item domain.InboxItem, now time.Time) (*time.Time, error) {
	if raw := strings.TrimSpace(action.Data.DueDate); raw != "" {
		t, _, err := parseDate(raw, m.cfg.Location)
		if err != nil {
			return nil, fmt.Errorf("invalid due date: %w", err)
		}
		t = patchYear(t, m.cfg.KnownBadYear, m.cfg.TargetYear, now)
		return &t, nil
	}
	for _, text := range []string{action.Title + " " + action.Description, item.Content.Text()} {
		if due := extractDueDate(text, now.In(m.cfg.Location), m.cfg.Location); due != nil {
			patched := patchYear(*due, m.cfg.KnownBadYear, m.cfg.TargetYear, now)
			return &patched, nil
		}
	}
	return nil, nil
}

// companionEvent puts an all-day reminder on the calendar for the task's due
// date. Its failure does not fail the task.
func (m *Materializer) companionEvent(ctx context.Context, item domain.InboxItem, task tasksDomain.Task, src shared.SourceRef, logger *slog.Logger) {
	companion := src
	companion.Purpose = shared.PurposeCompanion
	day := time.Date(task.DueAt.Year(), task.DueAt.Month(), task.DueAt.Day(), 0, 0, 0, 0, task.DueAt.Location())

	event, err := m.calendar.CreateEvent(ctx, calendarDomain.Event{
		ID:          companion.RecordID("calendar"),
		FamilyID:    item.FamilyID,
		Title:       "Due: " + task.Title,
		Description: task.Description,
		Start:       day,
		End:         day.AddDate(0, 0, 1),
		AllDay:      true,
		Category:    task.Category,
		AttendeeIDs: task.AssigneeIDs,
		Source:      companion,
	})
	if err != nil {
		logger.WarnContext(ctx, "failed to create companion event", "task_id", task.ID, observability.ErrorKey, err)
		return
	}
	if m.linker == nil {
		return
	}
	result := m.linker.Link(ctx, item.FamilyID,
		linkingDomain.Ref{Type: linkingDomain.EntityTask, ID: task.ID},
		linkingDomain.Ref{Type: linkingDomain.EntityEvent, ID: event.ID},
		linkingDomain.RelationCompanion,
	)
	m.reportLinks(ctx, result, logger)
}
