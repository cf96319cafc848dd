package domain

import (
	"strings"
)

// RawAction is one of the shapes a suggested action may arrive in.
// Stored records and model output use all three, so each shape is parsed
// explicitly and then normalized into a SuggestedAction.
type RawAction interface {
	rawAction()
}

// TextAction is a bare string suggestion.
type TextAction struct {
	Text string
}

// LegacyTaskAction is the older {task, priority, dueDate} record.
type LegacyTaskAction struct {
	Task     string
	Priority string
	DueDate  string
}

// FullAction is a record with an explicit type and a data payload.
type FullAction struct {
	Type        string
	Title       string
	Description string
	Priority    string
	Status      string
	Link        string
	ResultID    string
	Error       string
	CompletedAt any
	Data        map[string]any
}

func (TextAction) rawAction()       {}
func (LegacyTaskAction) rawAction() {}
func (FullAction) rawAction()       {}

// ParseRawAction identifies the shape of an untyped action value.
// It returns false when the value is not recognizable as an action.
func ParseRawAction(v any) (RawAction, bool) {
	switch val := v.(type) {
	case string:
		if strings.TrimSpace(val) == "" {
			return nil, false
		}
		return TextAction{Text: strings.TrimSpace(val)}, true
	case map[string]any:
		if _, hasType := val["type"]; !hasType {
			if task := stringOf(val["task"]); task != "" {
				return LegacyTaskAction{
					Task:     task,
					Priority: stringOf(val["priority"]),
					DueDate:  firstString(val["dueDate"], val["due"]),
				}, true
			}
		}
		data := mapOf(val["data"])
		if data == nil {
			data = map[string]any{}
		}
		// Models sometimes flatten the payload into the action itself.
		for _, k := range dataKeys {
			if _, ok := data[k]; !ok {
				if fv, ok := val[k]; ok {
					data[k] = fv
				}
			}
		}
		full := FullAction{
			Type:        stringOf(val["type"]),
			Title:       firstString(val["title"], val["action"], val["text"]),
			Description: stringOf(val["description"]),
			Priority:    stringOf(val["priority"]),
			Status:      stringOf(val["status"]),
			Link:        stringOf(val["link"]),
			ResultID:    firstString(val["resultId"], val["createdId"]),
			Error:       stringOf(val["error"]),
			CompletedAt: val["completedAt"],
			Data:        data,
		}
		if full.Type == "" && full.Title == "" {
			return nil, false
		}
		return full, true
	default:
		return nil, false
	}
}

var dataKeys = []string{
	"startDate", "dateTime", "endDate", "location", "attendees",
	"assigneeIds", "assigneeNames", "assignees", "dueDate",
	"name", "phone", "email", "category", "role",
}

// NormalizeAction converts any raw shape into a typed SuggestedAction.
// Unknown types fall back to task so no suggestion is silently lost.
func NormalizeAction(raw RawAction) SuggestedAction {
	switch a := raw.(type) {
	case TextAction:
		return SuggestedAction{
			Type:     ActionTask,
			Title:    a.Text,
			Priority: PriorityMedium,
			Status:   ActionPending,
		}
	case LegacyTaskAction:
		return SuggestedAction{
			Type:     ActionTask,
			Title:    a.Task,
			Priority: ParsePriority(a.Priority),
			Data:     ActionData{DueDate: a.DueDate},
			Status:   ActionPending,
		}
	case FullAction:
		typ, ok := ParseActionType(a.Type)
		if !ok {
			typ = ActionTask
		}
		action := SuggestedAction{
			Type:        typ,
			Title:       a.Title,
			Description: a.Description,
			Priority:    ParsePriority(a.Priority),
			Data:        parseActionData(a.Data),
			Status:      ParseActionStatus(a.Status),
			Link:        a.Link,
			ResultID:    a.ResultID,
			Error:       a.Error,
		}
		if action.Title == "" {
			action.Title = defaultTitle(action)
		}
		if a.CompletedAt != nil {
			t := NormalizeTimestamp(a.CompletedAt)
			if !t.Equal(Epoch) {
				action.CompletedAt = &t
			}
		}
		return action
	default:
		return SuggestedAction{Type: ActionTask, Priority: PriorityMedium, Status: ActionPending}
	}
}

// NormalizeActions parses every recognizable element of an untyped list.
func NormalizeActions(v any) []SuggestedAction {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]SuggestedAction, 0, len(list))
	for _, elem := range list {
		raw, ok := ParseRawAction(elem)
		if !ok {
			continue
		}
		out = append(out, NormalizeAction(raw))
	}
	return out
}

func parseActionData(m map[string]any) ActionData {
	names := stringsOf(m["assigneeNames"])
	if len(names) == 0 {
		names = stringsOf(m["assignees"])
	}
	return ActionData{
		StartDate:     stringOf(m["startDate"]),
		DateTime:      stringOf(m["dateTime"]),
		EndDate:       stringOf(m["endDate"]),
		Location:      stringOf(m["location"]),
		Attendees:     stringsOf(m["attendees"]),
		AssigneeIDs:   stringsOf(m["assigneeIds"]),
		AssigneeNames: names,
		DueDate:       stringOf(m["dueDate"]),
		Name:          stringOf(m["name"]),
		Phone:         stringOf(m["phone"]),
		Email:         stringOf(m["email"]),
		Category:      stringOf(m["category"]),
		Role:          stringOf(m["role"]),
	}
}

func defaultTitle(a SuggestedAction) string {
	switch a.Type {
	case ActionContact:
		if a.Data.Name != "" {
			return "Add " + a.Data.Name + " to contacts"
		}
		return "Add contact"
	case ActionCalendar:
		return "Add to calendar"
	default:
		return "Follow up"
	}
}

// ActionToMap encodes an action back into the stored record shape.
func ActionToMap(a SuggestedAction) map[string]any {
	data := map[string]any{}
	put := func(k, v string) {
		if v != "" {
			data[k] = v
		}
	}
	putList := func(k string, v []string) {
		if len(v) > 0 {
			data[k] = toAnyList(v)
		}
	}
	put("startDate", a.Data.StartDate)
	put("dateTime", a.Data.DateTime)
	put("endDate", a.Data.EndDate)
	put("location", a.Data.Location)
	putList("attendees", a.Data.Attendees)
	putList("assigneeIds", a.Data.AssigneeIDs)
	putList("assigneeNames", a.Data.AssigneeNames)
	put("dueDate", a.Data.DueDate)
	put("name", a.Data.Name)
	put("phone", a.Data.Phone)
	put("email", a.Data.Email)
	put("category", a.Data.Category)
	put("role", a.Data.Role)

	out := map[string]any{
		"type":        string(a.Type),
		"title":       a.Title,
		"description": a.Description,
		"priority":    string(a.Priority),
		"status":      string(a.Status),
		"data":        data,
	}
	if a.Link != "" {
		out["link"] = a.Link
	}
	if a.ResultID != "" {
		out["resultId"] = a.ResultID
	}
	if a.Error != "" {
		out["error"] = a.Error
	}
	if a.CompletedAt != nil {
		out["completedAt"] = a.CompletedAt.UTC().Format(timeLayout)
	}
	return out
}

// ActionsToList encodes a slice of actions for storage. A nil slice stays nil.
func ActionsToList(actions []SuggestedAction) []any {
	if actions == nil {
		return nil
	}
	out := make([]any, len(actions))
	for i, a := range actions {
		out[i] = ActionToMap(a)
	}
	return out
}
