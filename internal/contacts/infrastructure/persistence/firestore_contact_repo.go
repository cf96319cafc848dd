package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/felixgeelhaar/allie/internal/contacts/domain"
	shared "github.com/felixgeelhaar/allie/internal/shared/domain"
	"github.com/felixgeelhaar/allie/internal/shared/infrastructure/firestoredb"
	"google.golang.org/api/iterator"
)

const contactsCollection = "contacts"

type contactDoc struct {
	FamilyID       string           `firestore:"familyId"`
	Name           string           `firestore:"name"`
	NormalizedName string           `firestore:"normalizedName"`
	Phone          string           `firestore:"phone"`
	Email          string           `firestore:"email"`
	Role           string           `firestore:"role"`
	Category       string           `firestore:"category"`
	Source         shared.SourceRef `firestore:"source"`
	CreatedAt      time.Time        `firestore:"createdAt"`
}

func (d contactDoc) toContact(id string) domain.Contact {
	return domain.Contact{
		ID:             id,
		FamilyID:       d.FamilyID,
		Name:           d.Name,
		NormalizedName: d.NormalizedName,
		Phone:          d.Phone,
		Email:          d.Email,
		Role:           d.Role,
		Category:       d.Category,
		Source:         d.Source,
		CreatedAt:      d.CreatedAt.UTC(),
	}
}

// FirestoreContactRepository stores contacts in the contacts collection.
// Document IDs are derived from the family and normalized name, which makes
// Create the uniqueness check.
type FirestoreContactRepository struct {
	client *firestore.Client
}

// NewFirestoreContactRepository creates a Firestore-backed repository.
func NewFirestoreContactRepository(client *firestore.Client) *FirestoreContactRepository {
	return &FirestoreContactRepository{client: client}
}

func (r *FirestoreContactRepository) Create(ctx context.Context, c domain.Contact) (domain.Contact, bool, error) {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	doc := contactDoc{
		FamilyID:       c.FamilyID,
		Name:           c.Name,
		NormalizedName: c.NormalizedName,
		Phone:          c.Phone,
		Email:          c.Email,
		Role:           c.Role,
		Category:       c.Category,
		Source:         c.Source,
		CreatedAt:      c.CreatedAt,
	}
	ref := r.client.Collection(contactsCollection).Doc(domain.ContactID(c.FamilyID, c.Name))
	snap, created, err := firestoredb.CreateOrGet(ctx, ref, doc)
	if err != nil {
		return domain.Contact{}, false, fmt.Errorf("create contact: %w", err)
	}
	if created {
		c.ID = ref.ID
		return c, true, nil
	}
	var existing contactDoc
	if err := snap.DataTo(&existing); err != nil {
		return domain.Contact{}, false, err
	}
	return existing.toContact(snap.Ref.ID), false, nil
}

func (r *FirestoreContactRepository) FindByName(ctx context.Context, familyID, name string) (domain.Contact, error) {
	snap, err := r.client.Collection(contactsCollection).Doc(domain.ContactID(familyID, name)).Get(ctx)
	if firestoredb.IsNotFound(err) {
		return domain.Contact{}, domain.ErrContactNotFound
	}
	if err != nil {
		return domain.Contact{}, err
	}
	var doc contactDoc
	if err := snap.DataTo(&doc); err != nil {
		return domain.Contact{}, err
	}
	return doc.toContact(snap.Ref.ID), nil
}

func (r *FirestoreContactRepository) ListByFamily(ctx context.Context, familyID string) ([]domain.Contact, error) {
	it := r.client.Collection(contactsCollection).Where("familyId", "==", familyID).Documents(ctx)
	defer it.Stop()

	var contacts []domain.Contact
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list contacts: %w", err)
		}
		var doc contactDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, err
		}
		contacts = append(contacts, doc.toContact(snap.Ref.ID))
	}
	return contacts, nil
}
