// Package application creates tasks on the family board.
package application

import (
	"context"
	"fmt"
	"log/slog"

	sharedApplication "github.com/felixgeelhaar/allie/internal/shared/application"
	"github.com/felixgeelhaar/allie/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/allie/internal/tasks/domain"
)

// Service creates tasks and announces new ones on the bus.
type Service struct {
	repo      domain.Repository
	publisher eventbus.Publisher
	uow       sharedApplication.UnitOfWork
	logger    *slog.Logger
}

// NewService creates a task service. The publisher may be nil.
func NewService(repo domain.Repository, publisher eventbus.Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, publisher: publisher, logger: logger}
}

// WithUnitOfWork stores each task and its announcement in one transaction.
func (s *Service) WithUnitOfWork(uow sharedApplication.UnitOfWork) *Service {
	s.uow = uow
	return s
}

// CreateTask stores the task, returning the existing one when the ID is taken.
func (s *Service) CreateTask(ctx context.Context, task domain.Task) (domain.Task, error) {
	if err := task.Validate(); err != nil {
		return domain.Task{}, err
	}
	var stored domain.Task
	err := s.inTx(ctx, func(ctx context.Context) error {
		var (
			created bool
			err     error
		)
		stored, created, err = s.repo.Create(ctx, task)
		if err != nil {
			return fmt.Errorf("create task: %w", err)
		}
		if !created || s.publisher == nil {
			return nil
		}
		if err := eventbus.PublishEvent(ctx, s.publisher, domain.NewTaskCreated(stored)); err != nil {
			if s.uow != nil {
				return fmt.Errorf("record task announcement: %w", err)
			}
			s.logger.WarnContext(ctx, "failed to publish task", "task_id", stored.ID, "error", err)
		}
		return nil
	})
	if err != nil {
		return domain.Task{}, err
	}
	return stored, nil
}

func (s *Service) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.uow == nil {
		return fn(ctx)
	}
	return sharedApplication.WithUnitOfWork(ctx, s.uow, fn)
}

// ListTasks returns a family's tasks, optionally filtered to a column.
func (s *Service) ListTasks(ctx context.Context, familyID string, column domain.Column) ([]domain.Task, error) {
	return s.repo.ListByFamily(ctx, familyID, column)
}
