// Package domain holds the family address book.
package domain

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	shared "github.com/felixgeelhaar/allie/internal/shared/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	ErrContactNotFound = errors.New("contact not found")
	ErrInvalidContact  = errors.New("contact needs a family and a name")
)

// Contact is a person or business the family deals with.
type Contact struct {
	ID             string
	FamilyID       string
	Name           string
	NormalizedName string
	Phone          string
	Email          string
	Role           string
	Category       string
	Source         shared.SourceRef
	CreatedAt      time.Time
}

// NormalizeName case-folds, drops punctuation and collapses whitespace, so
// "Dr. Smith" and "dr smith" are the same contact.
func NormalizeName(name string) string {
	var b strings.Builder
	for _, r := range cases.Fold().String(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-' || r == '_':
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// ContactID is the stable ID of a family's contact with the given name.
func ContactID(familyID, name string) string {
	return shared.DeterministicID("contact", familyID, NormalizeName(name))
}

// DisplayName title-cases names that arrive all in one case.
func DisplayName(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	if name == strings.ToLower(name) || name == strings.ToUpper(name) {
		return cases.Title(language.English).String(name)
	}
	return name
}

// Prepare trims the contact and derives its normalized name and ID.
func (c *Contact) Prepare() error {
	c.Name = DisplayName(c.Name)
	c.NormalizedName = NormalizeName(c.Name)
	if c.FamilyID == "" || c.NormalizedName == "" {
		return ErrInvalidContact
	}
	c.ID = ContactID(c.FamilyID, c.Name)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	return nil
}

// Repository stores contacts, unique per family and normalized name.
type Repository interface {
	// Create stores the contact unless one with the same normalized name
	// exists, in which case the existing contact is returned.
	Create(ctx context.Context, contact Contact) (stored Contact, created bool, err error)
	FindByName(ctx context.Context, familyID, name string) (Contact, error)
	ListByFamily(ctx context.Context, familyID string) ([]Contact, error)
}
