package services

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/felixgeelhaar/allie/internal/inbox/domain"
)

// Mode names the prompt flow used for an item.
type Mode string

const (
	ModeDocumentText   Mode = "document_text"
	ModeDocumentVision Mode = "document_vision"
	ModeDocumentInfer  Mode = "document_infer"
	ModeMessage        Mode = "message"
)

// Result is the outcome of classifying one item.
type Result struct {
	Mode     Mode
	Status   domain.Status
	Summary  string
	Analysis *domain.AIAnalysis
	Actions  []domain.SuggestedAction
}

// PipelineConfig tunes completion requests.
type PipelineConfig struct {
	Temperature float32
	MaxTokens   int
	// MinTextChars is the number of non-space characters a document needs
	// before its extracted text is analyzed directly.
	MinTextChars int
}

// DefaultPipelineConfig returns the defaults used in production.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{Temperature: 0.3, MaxTokens: 1500, MinTextChars: 50}
}

// Pipeline turns inbox items into analyses and suggested actions.
type Pipeline struct {
	completer  Completer
	classifier *Classifier
	cfg        PipelineConfig
	logger     *slog.Logger
	now        func() time.Time
}

// NewPipeline creates a pipeline backed by the given completer.
func NewPipeline(completer Completer, cfg PipelineConfig, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MinTextChars <= 0 {
		cfg.MinTextChars = DefaultPipelineConfig().MinTextChars
	}
	return &Pipeline{
		completer:  completer,
		classifier: NewClassifier(),
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// Classify analyzes an item. Errors wrap the completer error or
// ErrMalformedResponse; nothing is written to the store here.
func (p *Pipeline) Classify(ctx context.Context, item domain.InboxItem) (*Result, error) {
	mode := p.modeFor(item)
	req := CompletionRequest{
		Temperature: p.cfg.Temperature,
		MaxTokens:   p.cfg.MaxTokens,
		Messages: []Message{
			{Role: RoleSystem, Text: systemPrompt},
			p.userMessage(mode, item),
		},
	}

	p.logger.DebugContext(ctx, "classifying inbox item",
		"item_id", item.ID,
		"source", string(item.Source),
		"mode", string(mode),
	)

	reply, err := p.completer.Complete(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("completion failed: %w", err)
	}
	payload, err := DecodeResponse(reply)
	if err != nil {
		return nil, err
	}

	var res *Result
	if mode == ModeMessage {
		res = messageResult(payload)
	} else {
		res = documentResult(payload)
	}
	res.Mode = mode
	res.Status = domain.StatusProcessed
	if mode == ModeDocumentInfer {
		res.Status = domain.StatusPartial
	}

	if res.Analysis == nil && res.Summary == "" && len(res.Actions) == 0 {
		return nil, fmt.Errorf("%w: response carried no analysis", ErrMalformedResponse)
	}
	if res.Analysis == nil {
		res.Analysis = &domain.AIAnalysis{Summary: res.Summary}
	}
	if res.Summary == "" {
		res.Summary = res.Analysis.Summary
	}
	if res.Analysis.Category == "" {
		c := item.Content
		res.Analysis.Category = string(p.classifier.Classify(res.Summary, c.Subject, c.Body, c.ExtractedText, c.FileName, c.Category))
	} else {
		res.Analysis.Category = string(domain.SanitizeCategory(res.Analysis.Category))
	}
	return res, nil
}

func (p *Pipeline) modeFor(item domain.InboxItem) Mode {
	if item.Source != domain.SourceDocument {
		return ModeMessage
	}
	c := item.Content
	if nonSpaceLen(c.ExtractedText) >= p.cfg.MinTextChars {
		return ModeDocumentText
	}
	if c.FileURL != "" && isImage(c.FileType, c.FileName) {
		return ModeDocumentVision
	}
	return ModeDocumentInfer
}

func (p *Pipeline) userMessage(mode Mode, item domain.InboxItem) Message {
	now := p.now()
	switch mode {
	case ModeDocumentText:
		return Message{Role: RoleUser, Text: documentTextPrompt(item.Content, now)}
	case ModeDocumentVision:
		return Message{Role: RoleUser, Text: documentVisionPrompt(item.Content, now), Images: []string{item.Content.FileURL}}
	case ModeDocumentInfer:
		return Message{Role: RoleUser, Text: documentInferencePrompt(item.Content, now)}
	default:
		msg := Message{Role: RoleUser, Text: messagePrompt(item, now)}
		if item.Source == domain.SourceMMS {
			msg.Images = append(msg.Images, item.Content.MediaURLs...)
		}
		return msg
	}
}

func messageResult(payload map[string]any) *Result {
	res := &Result{
		Summary:  str(payload["summary"]),
		Analysis: domain.ParseAnalysis(payload),
	}
	res.Actions = pendingOnly(domain.NormalizeActions(payload["suggestedActions"]))
	return res
}

// documentResult maps the document schema onto an analysis plus actions
// built from suggested events, contacts and action items.
func documentResult(payload map[string]any) *Result {
	info := map[string]any{
		"dates":         flatten(payload["dates"], "date", "description"),
		"people":        flatten(payload["people"], "name", "role"),
		"organizations": flatten(payload["organizations"], "name", ""),
		"locations":     flatten(payload["locations"], "name", ""),
		"keyFacts":      flatten(payload["keyFacts"], "fact", ""),
		"actionItems":   flatten(payload["actionItems"], "task", "dueDate"),
	}
	analysis := domain.ParseAnalysis(map[string]any{
		"summary":       payload["summary"],
		"category":      payload["category"],
		"tags":          payload["tags"],
		"contacts":      payload["suggestedContacts"],
		"extractedInfo": info,
	})

	var raw []any
	if events, ok := payload["suggestedEvents"].([]any); ok {
		for _, e := range events {
			if m, ok := e.(map[string]any); ok {
				m = copyMap(m)
				m["type"] = string(domain.ActionCalendar)
				if _, ok := m["startDate"]; !ok {
					m["startDate"] = firstOf(m, "date", "dateTime")
				}
				raw = append(raw, m)
			}
		}
	}
	if items, ok := payload["actionItems"].([]any); ok {
		for _, e := range items {
			if m, ok := e.(map[string]any); ok {
				if _, ok := m["task"]; !ok {
					m = copyMap(m)
					m["task"] = firstOf(m, "description", "text", "title")
				}
				raw = append(raw, m)
				continue
			}
			raw = append(raw, e)
		}
	}
	if contacts, ok := payload["suggestedContacts"].([]any); ok {
		for _, e := range contacts {
			if m, ok := e.(map[string]any); ok && str(m["name"]) != "" {
				m = copyMap(m)
				m["type"] = string(domain.ActionContact)
				raw = append(raw, m)
			}
		}
	}
	if extra, ok := payload["suggestedActions"].([]any); ok {
		raw = append(raw, extra...)
	}

	return &Result{
		Summary:  str(payload["summary"]),
		Analysis: analysis,
		Actions:  pendingOnly(domain.NormalizeActions(raw)),
	}
}

// pendingOnly resets completion markers the model may have echoed back.
func pendingOnly(actions []domain.SuggestedAction) []domain.SuggestedAction {
	for i := range actions {
		actions[i].Status = domain.ActionPending
		actions[i].Link = ""
		actions[i].ResultID = ""
		actions[i].Error = ""
		actions[i].CompletedAt = nil
	}
	return actions
}

// flatten turns a list of strings or objects into strings. For objects the
// primary key is used, with the secondary appended after a dash.
func flatten(v any, primary, secondary string) []any {
	list, ok := v.([]any)
	if !ok {
		if s := str(v); s != "" {
			return []any{s}
		}
		return nil
	}
	out := make([]any, 0, len(list))
	for _, e := range list {
		switch val := e.(type) {
		case string:
			if s := strings.TrimSpace(val); s != "" {
				out = append(out, s)
			}
		case map[string]any:
			head := str(val[primary])
			if head == "" {
				head = firstOf(val, "name", "description", "text", "title")
			}
			if head == "" {
				continue
			}
			if tail := str(val[secondary]); secondary != "" && tail != "" {
				head += " - " + tail
			}
			out = append(out, head)
		}
	}
	return out
}

func firstOf(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := str(m[k]); s != "" {
			return s
		}
	}
	return ""
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

func str(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func nonSpaceLen(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true, ".heic": true, ".bmp": true,
}

func isImage(fileType, fileName string) bool {
	if strings.HasPrefix(strings.ToLower(fileType), "image/") {
		return true
	}
	return imageExtensions[strings.ToLower(path.Ext(fileName))]
}
