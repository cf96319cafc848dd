package queries

import (
	"context"
	"time"

	"github.com/felixgeelhaar/allie/internal/inbox/domain"
)

// ItemReader exposes the reconciled inbox.
type ItemReader interface {
	Items() []domain.InboxItem
	Get(key domain.ItemKey) (domain.InboxItem, bool)
	IsProcessing(key domain.ItemKey) bool
}

// ListItemsQuery holds params.
type ListItemsQuery struct {
	IncludeArchived bool
	Source          domain.Source
	Status          domain.Status
	Limit           int
}

// ItemDTO is the inbox list view model.
type ItemDTO struct {
	Key            string
	ID             string
	Collection     string
	Source         string
	Status         string
	Title          string
	Summary        string
	Category       string
	ReceivedAt     string
	Archived       bool
	Processing     bool
	PendingActions int
	DoneActions    int
	FailedActions  int
	Error          string
}

// ListItemsHandler returns items.
type ListItemsHandler struct {
	reader ItemReader
}

// NewListItemsHandler creates handler.
func NewListItemsHandler(reader ItemReader) *ListItemsHandler {
	return &ListItemsHandler{reader: reader}
}

// Handle executes the query. Items come newest first.
func (h *ListItemsHandler) Handle(_ context.Context, query ListItemsQuery) ([]ItemDTO, error) {
	items := h.reader.Items()
	out := make([]ItemDTO, 0, len(items))
	for _, item := range items {
		if item.Archived && !query.IncludeArchived {
			continue
		}
		if query.Source != "" && item.Source != query.Source {
			continue
		}
		if query.Status != "" && item.Status != query.Status {
			continue
		}
		out = append(out, toDTO(item, h.reader.IsProcessing(item.Key())))
		if query.Limit > 0 && len(out) == query.Limit {
			break
		}
	}
	return out, nil
}

func toDTO(item domain.InboxItem, processing bool) ItemDTO {
	dto := ItemDTO{
		Key:        item.Key().String(),
		ID:         item.ID,
		Collection: string(item.Key().Collection),
		Source:     string(item.Source),
		Status:     string(item.Status),
		Title:      title(item),
		Summary:    item.Summary,
		ReceivedAt: item.ReceivedAt.UTC().Format(time.RFC3339),
		Archived:   item.Archived,
		Processing: processing,
		Error:      item.Error,
	}
	if item.AIAnalysis != nil {
		dto.Category = item.AIAnalysis.Category
	}
	for _, a := range item.SuggestedActions {
		switch a.Status {
		case domain.ActionCompleted:
			dto.DoneActions++
		case domain.ActionFailed:
			dto.FailedActions++
		default:
			dto.PendingActions++
		}
	}
	return dto
}

// title picks the best one-line label for an item.
func title(item domain.InboxItem) string {
	c := item.Content
	for _, s := range []string{c.Subject, c.FileName, c.Body, c.From} {
		if s != "" {
			return truncate(s, 80)
		}
	}
	return item.ID
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
