// Package application creates family calendar events and mirrors them to
// external calendars.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/allie/internal/calendar/domain"
	sharedApplication "github.com/felixgeelhaar/allie/internal/shared/application"
	"github.com/felixgeelhaar/allie/internal/shared/infrastructure/eventbus"
)

// Service creates calendar events and announces new ones on the bus.
type Service struct {
	repo      domain.Repository
	publisher eventbus.Publisher
	uow       sharedApplication.UnitOfWork
	logger    *slog.Logger
}

// NewService creates a calendar service. The publisher may be nil.
func NewService(repo domain.Repository, publisher eventbus.Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, publisher: publisher, logger: logger}
}

// WithUnitOfWork stores each event and its announcement in one transaction.
// A publish failure then rolls the event back.
func (s *Service) WithUnitOfWork(uow sharedApplication.UnitOfWork) *Service {
	s.uow = uow
	return s
}

// CreateEvent stores the event. Creating an event whose ID already exists
// returns the stored event and publishes nothing.
func (s *Service) CreateEvent(ctx context.Context, event domain.Event) (domain.Event, error) {
	if err := event.Validate(); err != nil {
		return domain.Event{}, err
	}
	var stored domain.Event
	err := s.inTx(ctx, func(ctx context.Context) error {
		var (
			created bool
			err     error
		)
		stored, created, err = s.repo.Create(ctx, event)
		if err != nil {
			return fmt.Errorf("create calendar event: %w", err)
		}
		if !created {
			s.logger.DebugContext(ctx, "calendar event already exists", "event_id", stored.ID)
			return nil
		}
		if s.publisher == nil {
			return nil
		}
		if err := eventbus.PublishEvent(ctx, s.publisher, domain.NewEventCreated(stored)); err != nil {
			if s.uow != nil {
				return fmt.Errorf("record calendar event announcement: %w", err)
			}
			s.logger.WarnContext(ctx, "failed to publish calendar event", "event_id", stored.ID, "error", err)
		}
		return nil
	})
	if err != nil {
		return domain.Event{}, err
	}
	return stored, nil
}

func (s *Service) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.uow == nil {
		return fn(ctx)
	}
	return sharedApplication.WithUnitOfWork(ctx, s.uow, fn)
}

// ListEvents returns a family's events starting in [from, to). A zero to is unbounded.
func (s *Service) ListEvents(ctx context.Context, familyID string, from, to time.Time) ([]domain.Event, error) {
	return s.repo.ListByFamily(ctx, familyID, from, to)
}
