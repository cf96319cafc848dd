package domain

import shared "github.com/felixgeelhaar/allie/internal/shared/domain"

const (
	AggregateTypeContact = "contact"

	RoutingKeyContactCreated = "contact.created"
)

// ContactCreated is published once per new contact.
type ContactCreated struct {
	shared.BaseEvent
	ContactID string `json:"contact_id"`
	FamilyID  string `json:"family_id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
}

func NewContactCreated(c Contact) ContactCreated {
	ev := ContactCreated{
		BaseEvent: shared.NewBaseEvent(c.ID, AggregateTypeContact, RoutingKeyContactCreated),
		ContactID: c.ID,
		FamilyID:  c.FamilyID,
		Name:      c.Name,
		Category:  c.Category,
	}
	ev.SetMetadata(shared.EventMetadata{FamilyID: c.FamilyID, CausationID: c.Source.ItemID})
	return ev
}
