package domain

import (
	"fmt"
	"strings"
	"time"
)

// ActionType is the kind of side effect a suggested action produces.
type ActionType string

const (
	ActionCalendar ActionType = "calendar"
	ActionTask     ActionType = "task"
	ActionContact  ActionType = "contact"
)

// ParseActionType maps loose model output onto an action type.
func ParseActionType(raw string) (ActionType, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "calendar", "event", "appointment", "meeting":
		return ActionCalendar, true
	case "task", "todo", "reminder":
		return ActionTask, true
	case "contact", "person":
		return ActionContact, true
	default:
		return "", false
	}
}

// Priority ranks how urgent an action is.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority maps loose input onto a priority, defaulting to medium.
func ParsePriority(raw string) Priority {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "low":
		return PriorityLow
	case "high", "urgent", "critical":
		return PriorityHigh
	default:
		return PriorityMedium
	}
}

// ActionStatus tracks whether an action has been applied.
type ActionStatus string

const (
	ActionPending   ActionStatus = "pending"
	ActionCompleted ActionStatus = "completed"
	ActionFailed    ActionStatus = "error"
)

// ParseActionStatus maps a raw value onto a known action status.
func ParseActionStatus(raw string) ActionStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "completed", "complete", "done":
		return ActionCompleted
	case "error", "failed":
		return ActionFailed
	default:
		return ActionPending
	}
}

// ActionData holds the type-specific payload of an action.
// Only the fields relevant to the action's type are set.
type ActionData struct {
	// calendar
	StartDate string
	DateTime  string
	EndDate   string
	Location  string
	Attendees []string

	// task
	AssigneeIDs   []string
	AssigneeNames []string
	DueDate       string

	// contact
	Name     string
	Phone    string
	Email    string
	Category string
	Role     string
}

// Start returns the calendar start value, preferring startDate over dateTime.
func (d ActionData) Start() string {
	if s := strings.TrimSpace(d.StartDate); s != "" {
		return s
	}
	return strings.TrimSpace(d.DateTime)
}

// SuggestedAction is a proposed side effect produced by classification.
type SuggestedAction struct {
	Type        ActionType
	Title       string
	Description string
	Priority    Priority
	Data        ActionData
	Status      ActionStatus
	Link        string
	ResultID    string
	Error       string
	CompletedAt *time.Time
}

// IsPending reports whether the action may still be applied.
func (a SuggestedAction) IsPending() bool {
	return a.Status == ActionPending
}

// Complete marks the action as applied with the created record.
func (a *SuggestedAction) Complete(resultID, link string, at time.Time) {
	a.Status = ActionCompleted
	a.ResultID = resultID
	a.Link = link
	a.Error = ""
	t := at
	a.CompletedAt = &t
}

// Fail marks the action as failed with the given cause.
func (a *SuggestedAction) Fail(err error) {
	a.Status = ActionFailed
	if err != nil {
		a.Error = err.Error()
	}
}

// Clone returns a deep copy of the action.
func (a SuggestedAction) Clone() SuggestedAction {
	out := a
	out.Data.Attendees = append([]string(nil), a.Data.Attendees...)
	out.Data.AssigneeIDs = append([]string(nil), a.Data.AssigneeIDs...)
	out.Data.AssigneeNames = append([]string(nil), a.Data.AssigneeNames...)
	if a.CompletedAt != nil {
		t := *a.CompletedAt
		out.CompletedAt = &t
	}
	return out
}

// Label is a short human readable description used in logs and the CLI.
func (a SuggestedAction) Label() string {
	if a.Title == "" {
		return string(a.Type)
	}
	return fmt.Sprintf("%s: %s", a.Type, a.Title)
}

// AllieActions returns the completed actions, which is what the assistant has done for the family.
func AllieActions(actions []SuggestedAction) []SuggestedAction {
	out := make([]SuggestedAction, 0, len(actions))
	for _, a := range actions {
		if a.Status == ActionCompleted {
			out = append(out, a.Clone())
		}
	}
	return out
}
