package domain

import (
	"fmt"
	"strings"
	"time"
)

// Source identifies where an inbox item originated.
type Source string

const (
	SourceDocument Source = "document"
	SourceEmail    Source = "email"
	SourceSMS      Source = "sms"
	SourceMMS      Source = "mms"
)

// Collection is the name of a source collection in the store.
type Collection string

const (
	CollectionDocuments Collection = "familyDocuments"
	CollectionEmails    Collection = "emailInbox"
	CollectionMessages  Collection = "smsInbox"
)

// Collections lists every source collection the inbox reads from.
var Collections = []Collection{CollectionDocuments, CollectionEmails, CollectionMessages}

// Collection returns the collection that stores items of this source.
func (s Source) Collection() Collection {
	switch s {
	case SourceDocument:
		return CollectionDocuments
	case SourceEmail:
		return CollectionEmails
	default:
		return CollectionMessages
	}
}

// ParseSource maps a raw source name onto a known source.
func ParseSource(raw string) (Source, bool) {
	switch Source(strings.ToLower(strings.TrimSpace(raw))) {
	case SourceDocument, "documents", "doc":
		return SourceDocument, true
	case SourceEmail, "emails", "mail":
		return SourceEmail, true
	case SourceSMS:
		return SourceSMS, true
	case SourceMMS:
		return SourceMMS, true
	default:
		return "", false
	}
}

// IsMessage reports whether the source is an SMS or MMS message.
func (s Source) IsMessage() bool {
	return s == SourceSMS || s == SourceMMS
}

// Status is the processing state of an inbox item.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusProcessed  Status = "processed"
	StatusPartial    Status = "partial"
	StatusError      Status = "error"
)

// ParseStatus maps a raw value onto a known status, defaulting to pending.
func ParseStatus(raw string) Status {
	switch Status(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusProcessing:
		return StatusProcessing
	case StatusProcessed, "complete", "completed":
		return StatusProcessed
	case StatusPartial:
		return StatusPartial
	case StatusError, "failed":
		return StatusError
	default:
		return StatusPending
	}
}

// IsClassified reports whether the status claims a finished classification.
func (s Status) IsClassified() bool {
	return s == StatusProcessed || s == StatusPartial
}

// AnalysisFailedSummary is written in place of a summary when classification fails.
const AnalysisFailedSummary = "AI analysis failed - please try again"

// ItemKey identifies an item across collections.
type ItemKey struct {
	Collection Collection
	ID         string
}

func (k ItemKey) String() string {
	return string(k.Collection) + "/" + k.ID
}

// ParseItemKey reads a key in the "collection/id" form produced by String.
func ParseItemKey(raw string) (ItemKey, error) {
	collection, id, ok := strings.Cut(strings.TrimSpace(raw), "/")
	if !ok || id == "" {
		return ItemKey{}, fmt.Errorf("invalid item key %q: want collection/id", raw)
	}
	for _, c := range Collections {
		if string(c) == collection {
			return ItemKey{Collection: c, ID: id}, nil
		}
	}
	return ItemKey{}, fmt.Errorf("invalid item key %q: unknown collection %q", raw, collection)
}

// Content is the raw payload of an inbox item.
type Content struct {
	Subject       string
	Body          string
	From          string
	To            string
	FileName      string
	FileType      string
	FileURL       string
	Category      string
	ExtractedText string
	MediaURLs     []string
}

// Text returns every textual part of the content joined for analysis.
func (c Content) Text() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{c.Subject, c.Body, c.ExtractedText} {
		if s := strings.TrimSpace(p); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}

// ContactInfo is a person or organization mentioned in an item.
type ContactInfo struct {
	Name     string
	Phone    string
	Email    string
	Role     string
	Category string
}

// ExtractedInfo holds structured facts pulled out of the content.
type ExtractedInfo struct {
	Dates         []string
	People        []string
	Organizations []string
	Locations     []string
	KeyFacts      []string
	ActionItems   []string
}

// IsEmpty reports whether nothing was extracted.
func (e ExtractedInfo) IsEmpty() bool {
	return len(e.Dates) == 0 && len(e.People) == 0 && len(e.Organizations) == 0 &&
		len(e.Locations) == 0 && len(e.KeyFacts) == 0 && len(e.ActionItems) == 0
}

// AIAnalysis is the typed result of classifying an item.
type AIAnalysis struct {
	Summary       string
	Category      string
	Tags          []string
	Contacts      []ContactInfo
	ExtractedInfo ExtractedInfo
}

// IsEmpty reports whether the analysis carries no information.
func (a *AIAnalysis) IsEmpty() bool {
	if a == nil {
		return true
	}
	return strings.TrimSpace(a.Summary) == "" && a.Category == "" && len(a.Tags) == 0 &&
		len(a.Contacts) == 0 && a.ExtractedInfo.IsEmpty()
}

// InboxItem is one inbound unit of family information.
type InboxItem struct {
	ID               string
	FamilyID         string
	Source           Source
	ReceivedAt       time.Time
	Status           Status
	Content          Content
	Summary          string
	AIAnalysis       *AIAnalysis
	SuggestedActions []SuggestedAction
	AllieActions     []SuggestedAction
	Archived         bool
	Error            string
	AttemptedAt      *time.Time
}

// Key returns the identity of the item across collections.
func (i InboxItem) Key() ItemKey {
	return ItemKey{Collection: i.Source.Collection(), ID: i.ID}
}

// HasAIData reports whether the item carries any classification output.
// The failure sentinel summary does not count.
func (i InboxItem) HasAIData() bool {
	if !i.AIAnalysis.IsEmpty() {
		return true
	}
	if len(i.SuggestedActions) > 0 {
		return true
	}
	summary := strings.TrimSpace(i.Summary)
	return summary != "" && summary != AnalysisFailedSummary
}

// AnalysisFailed reports whether the last classification attempt failed explicitly.
func (i InboxItem) AnalysisFailed() bool {
	return i.Status == StatusError || strings.TrimSpace(i.Summary) == AnalysisFailedSummary
}

// NeedsClassification reports whether the item should be submitted to the classifier.
func (i InboxItem) NeedsClassification() bool {
	return !i.Archived && !i.HasAIData()
}

// CompletedActions returns the completed subset of the suggested actions.
func (i InboxItem) CompletedActions() []SuggestedAction {
	completed := make([]SuggestedAction, 0, len(i.SuggestedActions))
	for _, a := range i.SuggestedActions {
		if a.Status == ActionCompleted {
			completed = append(completed, a)
		}
	}
	return completed
}

// Clone returns a deep copy so callers can mutate it without touching shared state.
func (i InboxItem) Clone() InboxItem {
	out := i
	out.Content.MediaURLs = append([]string(nil), i.Content.MediaURLs...)
	if i.AIAnalysis != nil {
		a := *i.AIAnalysis
		a.Tags = append([]string(nil), i.AIAnalysis.Tags...)
		a.Contacts = append([]ContactInfo(nil), i.AIAnalysis.Contacts...)
		out.AIAnalysis = &a
	}
	out.SuggestedActions = cloneActions(i.SuggestedActions)
	out.AllieActions = cloneActions(i.AllieActions)
	if i.AttemptedAt != nil {
		t := *i.AttemptedAt
		out.AttemptedAt = &t
	}
	return out
}

func cloneActions(in []SuggestedAction) []SuggestedAction {
	if in == nil {
		return nil
	}
	out := make([]SuggestedAction, len(in))
	for idx, a := range in {
		out[idx] = a.Clone()
	}
	return out
}
