// Package application writes bidirectional links between family records.
package application

import (
	"context"
	"log/slog"

	"github.com/felixgeelhaar/allie/internal/linking/domain"
	"github.com/felixgeelhaar/allie/internal/shared/infrastructure/eventbus"
)

// Service links records in both directions. It never returns an error:
// every edge is reported in the Result.
type Service struct {
	repo      domain.Repository
	publisher eventbus.Publisher
	logger    *slog.Logger
}

// NewService creates a linking service. The publisher may be nil.
func NewService(repo domain.Repository, publisher eventbus.Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, publisher: publisher, logger: logger}
}

// Link connects a and b with two directed edges.
func (s *Service) Link(ctx context.Context, familyID string, a, b domain.Ref, relation string) domain.Result {
	var result domain.Result
	if a == b || a.ID == "" || b.ID == "" {
		return result
	}
	s.write(ctx, domain.NewLink(familyID, a, b, relation), &result)
	s.write(ctx, domain.NewLink(familyID, b, a, relation), &result)
	return result
}

// LinkAll connects from to each target.
func (s *Service) LinkAll(ctx context.Context, familyID string, from domain.Ref, targets []domain.Ref, relation string) domain.Result {
	var result domain.Result
	for _, to := range targets {
		result.Add(s.Link(ctx, familyID, from, to, relation))
	}
	return result
}

// Related returns the records linked from ref.
func (s *Service) Related(ctx context.Context, ref domain.Ref) ([]domain.Link, error) {
	return s.repo.ListFrom(ctx, ref)
}

func (s *Service) write(ctx context.Context, link domain.Link, result *domain.Result) {
	created, err := s.repo.Create(ctx, link)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to write link",
			"from", link.From.String(),
			"to", link.To.String(),
			"error", err,
		)
		result.Failed = append(result.Failed, domain.Failure{From: link.From, To: link.To, Err: err})
		return
	}
	if !created {
		result.Existing++
		return
	}
	result.Created++
	if s.publisher != nil {
		if err := eventbus.PublishEvent(ctx, s.publisher, domain.NewLinkCreated(link)); err != nil {
			s.logger.WarnContext(ctx, "failed to publish link", "link_id", link.ID, "error", err)
		}
	}
}
