package materialize

import (
	"context"
	"log/slog"
	"strings"
	"unicode"

	contactsDomain "github.com/felixgeelhaar/allie/internal/contacts/domain"
	"github.com/felixgeelhaar/allie/internal/inbox/domain"
	linkingDomain "github.com/felixgeelhaar/allie/internal/linking/domain"
	shared "github.com/felixgeelhaar/allie/internal/shared/domain"
)

var contactLinkTargets = map[domain.ActionType]linkingDomain.EntityType{
	domain.ActionCalendar: linkingDomain.EntityEvent,
}

// ContactLink is the navigable link stored on a completed contact action.
func ContactLink(id string) string {
	return "/contacts?contact=" + id
}

func (m *Materializer) applyContact(ctx context.Context, item domain.InboxItem, index int, src shared.SourceRef, logger *slog.Logger) (string, string, error) {
	action := item.SuggestedActions[index]
	name := strings.TrimSpace(action.Data.Name)
	if name == "" {
		name = strings.TrimSpace(action.Title)
	}
	if name == "" {
		return "", "", ErrMissingContactName
	}

	phone := strings.TrimSpace(action.Data.Phone)
	if phone != "" && samePhone(phone, item.Content.From) {
		logger.DebugContext(ctx, "dropping sender phone from contact")
		phone = ""
	}

	contact, created, err := m.contacts.FindOrCreate(ctx, contactsDomain.Contact{
		FamilyID: item.FamilyID,
		Name:     name,
		Phone:    phone,
		Email:    action.Data.Email,
		Role:     strings.TrimSpace(action.Data.Role),
		Category: string(domain.SanitizeCategory(action.Data.Category)),
		Source:   src,
	})
	if err != nil {
		return "", "", err
	}
	if !created {
		logger.DebugContext(ctx, "contact already known", "contact_id", contact.ID)
	}

	m.linkTo(ctx, item, index, linkingDomain.Ref{Type: linkingDomain.EntityContact, ID: contact.ID}, contactLinkTargets, logger)
	return contact.ID, ContactLink(contact.ID), nil
}

// samePhone compares the last ten digits of two phone numbers, so the
// sender's own number is not stored as the contact's.
func samePhone(a, b string) bool {
	da, db := lastDigits(a, 10), lastDigits(b, 10)
	return len(da) >= 7 && da == db
}

func lastDigits(s string, n int) string {
	digits := make([]rune, 0, len(s))
	for _, r := range s {
		if unicode.IsDigit(r) {
			digits = append(digits, r)
		}
	}
	if len(digits) > n {
		digits = digits[len(digits)-n:]
	}
	return string(digits)
}
