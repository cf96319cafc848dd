package domain

import (
	"time"

	shared "github.com/felixgeelhaar/allie/internal/shared/domain"
)

const (
	AggregateTypeTask = "task"

	RoutingKeyTaskCreated = "task.created"
)

// TaskCreated is published once per newly stored task.
type TaskCreated struct {
	shared.BaseEvent
	TaskID      string     `json:"task_id"`
	FamilyID    string     `json:"family_id"`
	Title       string     `json:"title"`
	AssigneeIDs []string   `json:"assignee_ids"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	Column      Column     `json:"column"`
}

func NewTaskCreated(t Task) TaskCreated {
	ev := TaskCreated{
		BaseEvent:   shared.NewBaseEvent(t.ID, AggregateTypeTask, RoutingKeyTaskCreated),
		TaskID:      t.ID,
		FamilyID:    t.FamilyID,
		Title:       t.Title,
		AssigneeIDs: t.AssigneeIDs,
		DueAt:       t.DueAt,
		Column:      t.Column,
	}
	ev.SetMetadata(shared.EventMetadata{FamilyID: t.FamilyID, CausationID: t.Source.ItemID})
	return ev
}
