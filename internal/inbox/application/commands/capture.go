package commands

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/felixgeelhaar/allie/internal/inbox/domain"
	"github.com/google/uuid"
)

// ErrEmptyCapture is returned when a capture carries no content at all.
var ErrEmptyCapture = errors.New("capture needs a subject, body, file or text")

// CaptureItemCommand contains a new inbound item.
type CaptureItemCommand struct {
	FamilyID      string
	Source        domain.Source
	Subject       string
	Body          string
	From          string
	To            string
	FileName      string
	FileType      string
	FileURL       string
	ExtractedText string
	Category      string
	MediaURLs     []string
}

// CaptureItemResult returns the stored key.
type CaptureItemResult struct {
	Key domain.ItemKey
}

// CaptureItemHandler writes raw records into a source collection, shaped
// the way the upstream ingesters write them.
type CaptureItemHandler struct {
	store domain.ItemStore
	now   func() time.Time
}

// NewCaptureItemHandler builds a handler.
func NewCaptureItemHandler(store domain.ItemStore) *CaptureItemHandler {
	return &CaptureItemHandler{store: store, now: time.Now}
}

// Handle stores the record. The live feed picks it up like any other write.
func (h *CaptureItemHandler) Handle(ctx context.Context, cmd CaptureItemCommand) (*CaptureItemResult, error) {
	if strings.TrimSpace(cmd.Subject+cmd.Body+cmd.FileName+cmd.FileURL+cmd.ExtractedText) == "" && len(cmd.MediaURLs) == 0 {
		return nil, ErrEmptyCapture
	}
	source := cmd.Source
	if source == "" {
		source = domain.SourceEmail
	}

	now := domain.FormatTimestamp(h.now().UTC())
	data := map[string]any{
		"familyId": cmd.FamilyID,
		"status":   string(domain.StatusPending),
		"archived": false,
	}
	switch source {
	case domain.SourceDocument:
		data["title"] = cmd.Subject
		data["fileName"] = cmd.FileName
		data["fileType"] = cmd.FileType
		data["fileUrl"] = cmd.FileURL
		data["category"] = cmd.Category
		data["extractedText"] = firstNonEmpty(cmd.ExtractedText, cmd.Body)
		data["uploadedAt"] = now
	case domain.SourceEmail:
		data["subject"] = cmd.Subject
		data["body"] = cmd.Body
		data["from"] = cmd.From
		data["to"] = cmd.To
		data["receivedAt"] = now
	default:
		data["body"] = firstNonEmpty(cmd.Body, cmd.Subject)
		data["from"] = cmd.From
		data["to"] = cmd.To
		data["receivedAt"] = now
		data["type"] = string(source)
		if len(cmd.MediaURLs) > 0 {
			media := make([]any, len(cmd.MediaURLs))
			for i, u := range cmd.MediaURLs {
				media[i] = u
			}
			data["mediaUrls"] = media
			data["numMedia"] = len(media)
		}
	}

	record := domain.RawRecord{ID: uuid.NewString(), Data: data}
	collection := source.Collection()
	if err := h.store.Create(ctx, collection, record); err != nil {
		return nil, err
	}
	return &CaptureItemResult{Key: domain.ItemKey{Collection: collection, ID: record.ID}}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
