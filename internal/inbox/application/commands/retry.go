package commands

import (
	"context"

	"github.com/felixgeelhaar/allie/internal/inbox/domain"
)

// Retrier reclassifies an item immediately.
type Retrier interface {
	Retry(ctx context.Context, key domain.ItemKey) (domain.InboxItem, error)
}

// RetryItemCommand asks for an item to be classified again.
type RetryItemCommand struct {
	Key domain.ItemKey
}

// RetryItemHandler runs a manual retry.
type RetryItemHandler struct {
	retrier Retrier
}

// NewRetryItemHandler creates the handler.
func NewRetryItemHandler(retrier Retrier) *RetryItemHandler {
	return &RetryItemHandler{retrier: retrier}
}

// Handle reclassifies the item whatever its current status. The returned
// item carries the failure record when classification failed again.
func (h *RetryItemHandler) Handle(ctx context.Context, cmd RetryItemCommand) (domain.InboxItem, error) {
	return h.retrier.Retry(ctx, cmd.Key)
}
