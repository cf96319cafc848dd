// Package application looks up and creates family contacts.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/allie/internal/contacts/domain"
	sharedApplication "github.com/felixgeelhaar/allie/internal/shared/application"
	"github.com/felixgeelhaar/allie/internal/shared/infrastructure/eventbus"
)

// Service manages the address book.
type Service struct {
	repo      domain.Repository
	publisher eventbus.Publisher
	uow       sharedApplication.UnitOfWork
	logger    *slog.Logger
}

// NewService creates a contact service. The publisher may be nil.
func NewService(repo domain.Repository, publisher eventbus.Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, publisher: publisher, logger: logger}
}

// WithUnitOfWork stores each contact and its announcement in one transaction.
func (s *Service) WithUnitOfWork(uow sharedApplication.UnitOfWork) *Service {
	s.uow = uow
	return s
}

// FindOrCreate returns the family's contact with the same normalized name,
// creating it when none exists. created reports which happened.
func (s *Service) FindOrCreate(ctx context.Context, contact domain.Contact) (domain.Contact, bool, error) {
	if err := contact.Prepare(); err != nil {
		return domain.Contact{}, false, err
	}

	existing, err := s.repo.FindByName(ctx, contact.FamilyID, contact.Name)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrContactNotFound) {
		return domain.Contact{}, false, fmt.Errorf("look up contact: %w", err)
	}

	var (
		stored  domain.Contact
		created bool
	)
	err = s.inTx(ctx, func(ctx context.Context) error {
		var err error
		stored, created, err = s.repo.Create(ctx, contact)
		if err != nil {
			return fmt.Errorf("create contact: %w", err)
		}
		if !created || s.publisher == nil {
			return nil
		}
		if err := eventbus.PublishEvent(ctx, s.publisher, domain.NewContactCreated(stored)); err != nil {
			if s.uow != nil {
				return fmt.Errorf("record contact announcement: %w", err)
			}
			s.logger.WarnContext(ctx, "failed to publish contact", "contact_id", stored.ID, "error", err)
		}
		return nil
	})
	if err != nil {
		return domain.Contact{}, false, err
	}
	return stored, created, nil
}

func (s *Service) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.uow == nil {
		return fn(ctx)
	}
	return sharedApplication.WithUnitOfWork(ctx, s.uow, fn)
}

// ListContacts returns the family's address book.
func (s *Service) ListContacts(ctx context.Context, familyID string) ([]domain.Contact, error) {
	return s.repo.ListByFamily(ctx, familyID)
}
