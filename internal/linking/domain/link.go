// Package domain holds cross-references between family records.
package domain

import (
	"context"
	"time"

	shared "github.com/felixgeelhaar/allie/internal/shared/domain"
)

// EntityType names the kind of record on either end of a link.
type EntityType string

const (
	EntityEvent     EntityType = "event"
	EntityTask      EntityType = "task"
	EntityContact   EntityType = "contact"
	EntityInboxItem EntityType = "inbox_item"
)

// Relations used when materializing inbox suggestions.
const (
	RelationRelated     = "related"
	RelationCompanion   = "companion"
	RelationExtractedTo = "extracted_to"
)

// Ref points at one record.
type Ref struct {
	Type EntityType `json:"type"`
	ID   string     `json:"id"`
}

func (r Ref) String() string {
	return string(r.Type) + ":" + r.ID
}

// Link is a directed edge between two records.
type Link struct {
	ID        string
	FamilyID  string
	From      Ref
	To        Ref
	Relation  string
	CreatedAt time.Time
}

// NewLink builds the edge from -> to with a stable ID.
func NewLink(familyID string, from, to Ref, relation string) Link {
	return Link{
		ID:       shared.DeterministicID("link", string(from.Type), from.ID, string(to.Type), to.ID),
		FamilyID: familyID,
		From:     from,
		To:       to,
		Relation: relation,
	}
}

// Repository stores links, unique per (from, to).
type Repository interface {
	Create(ctx context.Context, link Link) (created bool, err error)
	ListFrom(ctx context.Context, from Ref) ([]Link, error)
}
