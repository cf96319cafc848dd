package domain

import shared "github.com/felixgeelhaar/allie/internal/shared/domain"

const (
	AggregateTypeLink = "entity_link"

	RoutingKeyLinkCreated = "link.created"
)

// LinkCreated is published for each newly written edge.
type LinkCreated struct {
	shared.BaseEvent
	LinkID   string `json:"link_id"`
	FamilyID string `json:"family_id"`
	From     Ref    `json:"from"`
	To       Ref    `json:"to"`
	Relation string `json:"relation"`
}

func NewLinkCreated(l Link) LinkCreated {
	ev := LinkCreated{
		BaseEvent: shared.NewBaseEvent(l.ID, AggregateTypeLink, RoutingKeyLinkCreated),
		LinkID:    l.ID,
		FamilyID:  l.FamilyID,
		From:      l.From,
		To:        l.To,
		Relation:  l.Relation,
	}
	ev.SetMetadata(shared.EventMetadata{FamilyID: l.FamilyID})
	return ev
}
