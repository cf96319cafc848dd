package commands

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/allie/internal/inbox/domain"
)

// ActionApplier materializes suggested actions.
type ActionApplier interface {
	ApplyAction(ctx context.Context, item domain.InboxItem, index int) (domain.InboxItem, error)
	ApplyAllActions(ctx context.Context, item domain.InboxItem) (domain.InboxItem, error)
}

// ItemView reads and records items in the live inbox.
type ItemView interface {
	Get(key domain.ItemKey) (domain.InboxItem, bool)
	ApplyLocal(item domain.InboxItem)
}

// ApplyActionCommand applies one suggested action, or every pending one
// when All is set.
type ApplyActionCommand struct {
	Key   domain.ItemKey
	Index int
	All   bool
}

// ApplyActionResult is the item after the attempt.
type ApplyActionResult struct {
	Item      domain.InboxItem
	Completed int
	Failed    int
	Pending   int
}

// ApplyActionHandler applies suggested actions on behalf of the user.
type ApplyActionHandler struct {
	view    ItemView
	store   domain.ItemStore
	applier ActionApplier
}

// NewApplyActionHandler creates the handler.
func NewApplyActionHandler(view ItemView, store domain.ItemStore, applier ActionApplier) *ApplyActionHandler {
	return &ApplyActionHandler{view: view, store: store, applier: applier}
}

// Handle applies the action. Action failures are returned together with a
// result describing the item as written.
func (h *ApplyActionHandler) Handle(ctx context.Context, cmd ApplyActionCommand) (*ApplyActionResult, error) {
	item, err := loadItem(ctx, h.view, h.store, cmd.Key)
	if err != nil {
		return nil, err
	}
	if item.Archived {
		return nil, fmt.Errorf("%w: %s", domain.ErrItemArchived, cmd.Key)
	}

	var updated domain.InboxItem
	if cmd.All {
		updated, err = h.applier.ApplyAllActions(ctx, item)
	} else {
		updated, err = h.applier.ApplyAction(ctx, item, cmd.Index)
	}
	if updated.ID == "" {
		return nil, err
	}
	h.view.ApplyLocal(updated)
	return summarize(updated), err
}

func summarize(item domain.InboxItem) *ApplyActionResult {
	result := &ApplyActionResult{Item: item}
	for _, a := range item.SuggestedActions {
		switch a.Status {
		case domain.ActionCompleted:
			result.Completed++
		case domain.ActionFailed:
			result.Failed++
		default:
			result.Pending++
		}
	}
	return result
}

// loadItem prefers the live view and falls back to the store.
func loadItem(ctx context.Context, view ItemView, store domain.ItemStore, key domain.ItemKey) (domain.InboxItem, error) {
	if item, ok := view.Get(key); ok {
		return item, nil
	}
	item, err := store.Get(ctx, key)
	if err != nil {
		return domain.InboxItem{}, err
	}
	return item, nil
}
