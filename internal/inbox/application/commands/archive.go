package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/allie/internal/inbox/domain"
	"github.com/felixgeelhaar/allie/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/allie/pkg/observability"
)

// ArchiveItemCommand hides an item from the active inbox, or restores it.
type ArchiveItemCommand struct {
	Key       domain.ItemKey
	Unarchive bool
}

// ArchiveItemHandler toggles the archived flag.
type ArchiveItemHandler struct {
	view      ItemView
	store     domain.ItemStore
	publisher eventbus.Publisher
	logger    *slog.Logger
}

// NewArchiveItemHandler creates the handler. Publisher and logger may be nil.
func NewArchiveItemHandler(view ItemView, store domain.ItemStore, publisher eventbus.Publisher, logger *slog.Logger) *ArchiveItemHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ArchiveItemHandler{view: view, store: store, publisher: publisher, logger: logger}
}

// Handle writes the flag and returns the updated item.
func (h *ArchiveItemHandler) Handle(ctx context.Context, cmd ArchiveItemCommand) (domain.InboxItem, error) {
	item, err := loadItem(ctx, h.view, h.store, cmd.Key)
	if err != nil {
		return domain.InboxItem{}, err
	}
	archived := !cmd.Unarchive
	if item.Archived == archived {
		return item, nil
	}

	var patch domain.Patch
	patch.Archived(archived)
	if err := h.store.Update(ctx, cmd.Key, patch); err != nil {
		return domain.InboxItem{}, fmt.Errorf("archive %s: %w", cmd.Key, err)
	}
	updated := patch.ApplyToItem(item)
	h.view.ApplyLocal(updated)

	if archived && h.publisher != nil {
		if err := eventbus.PublishEvent(ctx, h.publisher, domain.NewItemArchived(updated)); err != nil {
			h.logger.WarnContext(ctx, "failed to publish archive event", observability.ItemIDKey, updated.ID, observability.ErrorKey, err)
		}
	}
	return updated, nil
}
