// Package domain holds family to-dos on the task board.
package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	shared "github.com/felixgeelhaar/allie/internal/shared/domain"
)

var (
	ErrTaskNotFound = errors.New("task not found")
	ErrInvalidTask  = errors.New("task needs a family and a title")
)

// Column is the board column a task sits in.
type Column string

const (
	ColumnToday    Column = "today"
	ColumnUpcoming Column = "upcoming"
)

// UrgentWithin is the window in which a due task lands in the today column.
const UrgentWithin = 24 * time.Hour

// ColumnFor picks the column for a due date seen at now.
func ColumnFor(due *time.Time, now time.Time) Column {
	if due != nil && due.Sub(now) <= UrgentWithin {
		return ColumnToday
	}
	return ColumnUpcoming
}

// Priority of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority reads a priority, defaulting to medium.
func ParsePriority(s string) Priority {
	switch Priority(strings.ToLower(strings.TrimSpace(s))) {
	case PriorityLow:
		return PriorityLow
	case PriorityHigh:
		return PriorityHigh
	default:
		return PriorityMedium
	}
}

// Task is one to-do on the family board.
type Task struct {
	ID          string
	FamilyID    string
	Title       string
	Description string
	AssigneeIDs []string
	DueAt       *time.Time
	Priority    Priority
	Category    string
	Column      Column
	Source      shared.SourceRef
	CreatedAt   time.Time
}

// Validate normalizes defaults and checks required fields.
func (t *Task) Validate() error {
	t.Title = strings.TrimSpace(t.Title)
	if t.FamilyID == "" || t.Title == "" {
		return ErrInvalidTask
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.Column == "" {
		t.Column = ColumnUpcoming
	}
	if t.AssigneeIDs == nil {
		t.AssigneeIDs = []string{}
	}
	return nil
}

// Repository stores tasks.
type Repository interface {
	// Create stores the task. When a task with the same ID exists it is
	// returned unchanged and created is false.
	Create(ctx context.Context, task Task) (stored Task, created bool, err error)
	FindByID(ctx context.Context, id string) (Task, error)
	ListByFamily(ctx context.Context, familyID string, column Column) ([]Task, error)
}
