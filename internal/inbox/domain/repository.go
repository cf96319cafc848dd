package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrItemNotFound   = errors.New("inbox item not found")
	ErrItemExists     = errors.New("inbox item already exists")
	ErrActionNotFound = errors.New("suggested action not found")
	ErrItemArchived   = errors.New("inbox item is archived")
)

// Batch is one push from a source collection: the full current contents
// of that collection for the family.
type Batch struct {
	Collection Collection
	Items      []InboxItem
}

// RawRecord is a stored record before normalization.
type RawRecord struct {
	ID   string
	Data map[string]any
}

// ItemStore is the document store holding the three source collections.
type ItemStore interface {
	// Subscribe delivers the current contents of a collection and every
	// subsequent change until ctx is cancelled. Deliveries for one
	// collection arrive in order.
	Subscribe(ctx context.Context, familyID string, collection Collection, fn func(Batch)) error
	// List returns a one-shot snapshot of a collection.
	List(ctx context.Context, familyID string, collection Collection) ([]InboxItem, error)
	Get(ctx context.Context, key ItemKey) (InboxItem, error)
	// Update writes only the fields named by the patch.
	Update(ctx context.Context, key ItemKey, patch Patch) error
	// Create stores a new raw record. It is used for ingestion only.
	Create(ctx context.Context, collection Collection, record RawRecord) error
}

// Patch is an ordered set of field writes against a stored item.
type Patch struct {
	fields []PatchField
}

// PatchField is one field write. A nil value clears the field.
type PatchField struct {
	Path  string
	Value any
}

func (p *Patch) set(path string, value any) *Patch {
	for i := range p.fields {
		if p.fields[i].Path == path {
			p.fields[i].Value = value
			return p
		}
	}
	p.fields = append(p.fields, PatchField{Path: path, Value: value})
	return p
}

func (p *Patch) Status(s Status) *Patch  { return p.set("status", string(s)) }
func (p *Patch) Summary(s string) *Patch { return p.set("summary", s) }
func (p *Patch) Archived(b bool) *Patch  { return p.set("archived", b) }
func (p *Patch) Error(msg string) *Patch { return p.set("error", msg) }
func (p *Patch) ClearError() *Patch      { return p.set("error", nil) }

func (p *Patch) AttemptedAt(t time.Time) *Patch {
	return p.set("attemptedAt", FormatTimestamp(t))
}

func (p *Patch) Analysis(a *AIAnalysis) *Patch {
	if a == nil {
		return p.set("aiAnalysis", nil)
	}
	return p.set("aiAnalysis", AnalysisToMap(a))
}

func (p *Patch) SuggestedActions(actions []SuggestedAction) *Patch {
	if actions == nil {
		return p.set("suggestedActions", nil)
	}
	return p.set("suggestedActions", ActionsToList(actions))
}

func (p *Patch) AllieActions(actions []SuggestedAction) *Patch {
	return p.set("allieActions", ActionsToList(AllieActions(actions)))
}

// Fields returns the writes in the order they were added.
func (p Patch) Fields() []PatchField {
	return append([]PatchField(nil), p.fields...)
}

// IsEmpty reports whether the patch writes nothing.
func (p Patch) IsEmpty() bool {
	return len(p.fields) == 0
}

// ApplyTo writes the patch into a raw record map.
func (p Patch) ApplyTo(data map[string]any) {
	for _, f := range p.fields {
		data[f.Path] = f.Value
	}
}

// ApplyToItem returns the item as it will look after the patch is stored.
func (p Patch) ApplyToItem(item InboxItem) InboxItem {
	out := item.Clone()
	for _, f := range p.fields {
		switch f.Path {
		case "status":
			out.Status = ParseStatus(stringOf(f.Value))
		case "summary":
			out.Summary = stringOf(f.Value)
		case "archived":
			out.Archived = boolOf(f.Value)
		case "error":
			out.Error = stringOf(f.Value)
		case "attemptedAt":
			t := NormalizeTimestamp(f.Value)
			out.AttemptedAt = &t
		case "aiAnalysis":
			out.AIAnalysis = parseAnalysis(mapOf(f.Value))
		case "suggestedActions":
			list, _ := f.Value.([]any)
			out.SuggestedActions = NormalizeActions(list)
		case "allieActions":
			list, _ := f.Value.([]any)
			out.AllieActions = NormalizeActions(list)
		}
	}
	return out
}
