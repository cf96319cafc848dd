package application

import (
	"context"

	"github.com/felixgeelhaar/allie/internal/calendar/domain"
)

// SyncResult describes the outcome of a sync run.
type SyncResult struct {
	Created int
	Updated int
	Failed  int
}

// Syncer mirrors family events into an external calendar.
type Syncer interface {
	Sync(ctx context.Context, familyID string, events []domain.Event) (*SyncResult, error)
}
