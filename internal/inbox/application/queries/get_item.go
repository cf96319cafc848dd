package queries

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/allie/internal/inbox/domain"
)

// GetItemQuery contains the parameters for getting a single inbox item.
type GetItemQuery struct {
	Key domain.ItemKey
}

// ActionDTO is one suggested action.
type ActionDTO struct {
	Index       int
	Type        string
	Title       string
	Description string
	Priority    string
	Status      string
	Link        string
	ResultID    string
	Error       string
	CompletedAt *string
}

// ItemDetailDTO is an item with its analysis and actions.
type ItemDetailDTO struct {
	ItemDTO
	From         string
	Body         string
	FileName     string
	FileURL      string
	Tags         []string
	KeyFacts     []string
	Dates        []string
	People       []string
	Actions      []ActionDTO
	AllieActions []ActionDTO
	AttemptedAt  *string
}

// GetItemHandler handles the GetItemQuery.
type GetItemHandler struct {
	reader ItemReader
}

// NewGetItemHandler creates a new GetItemHandler.
func NewGetItemHandler(reader ItemReader) *GetItemHandler {
	return &GetItemHandler{reader: reader}
}

// Handle executes the GetItemQuery.
func (h *GetItemHandler) Handle(_ context.Context, query GetItemQuery) (*ItemDetailDTO, error) {
	item, ok := h.reader.Get(query.Key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrItemNotFound, query.Key)
	}

	dto := &ItemDetailDTO{
		ItemDTO:      toDTO(item, h.reader.IsProcessing(query.Key)),
		From:         item.Content.From,
		Body:         item.Content.Body,
		FileName:     item.Content.FileName,
		FileURL:      item.Content.FileURL,
		Actions:      actionDTOs(item.SuggestedActions),
		AllieActions: actionDTOs(item.AllieActions),
		AttemptedAt:  formatTime(item.AttemptedAt),
	}
	if a := item.AIAnalysis; a != nil {
		dto.Tags = a.Tags
		dto.KeyFacts = a.ExtractedInfo.KeyFacts
		dto.Dates = a.ExtractedInfo.Dates
		dto.People = a.ExtractedInfo.People
	}
	return dto, nil
}

func actionDTOs(actions []domain.SuggestedAction) []ActionDTO {
	out := make([]ActionDTO, 0, len(actions))
	for i, a := range actions {
		out = append(out, ActionDTO{
			Index:       i,
			Type:        string(a.Type),
			Title:       a.Title,
			Description: a.Description,
			Priority:    string(a.Priority),
			Status:      string(a.Status),
			Link:        a.Link,
			ResultID:    a.ResultID,
			Error:       a.Error,
			CompletedAt: formatTime(a.CompletedAt),
		})
	}
	return out
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
