package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/felixgeelhaar/allie/internal/linking/domain"
	"github.com/felixgeelhaar/allie/internal/shared/infrastructure/firestoredb"
	"google.golang.org/api/iterator"
)

const linksCollection = "entityLinks"

type linkDoc struct {
	FamilyID  string    `firestore:"familyId"`
	FromType  string    `firestore:"fromType"`
	FromID    string    `firestore:"fromId"`
	ToType    string    `firestore:"toType"`
	ToID      string    `firestore:"toId"`
	Relation  string    `firestore:"relation"`
	CreatedAt time.Time `firestore:"createdAt"`
}

// FirestoreLinkRepository stores links in the entityLinks collection.
type FirestoreLinkRepository struct {
	client *firestore.Client
}

// NewFirestoreLinkRepository creates a Firestore-backed repository.
func NewFirestoreLinkRepository(client *firestore.Client) *FirestoreLinkRepository {
	return &FirestoreLinkRepository{client: client}
}

func (r *FirestoreLinkRepository) Create(ctx context.Context, l domain.Link) (bool, error) {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	_, created, err := firestoredb.CreateOrGet(ctx, r.client.Collection(linksCollection).Doc(l.ID), linkDoc{
		FamilyID:  l.FamilyID,
		FromType:  string(l.From.Type),
		FromID:    l.From.ID,
		ToType:    string(l.To.Type),
		ToID:      l.To.ID,
		Relation:  l.Relation,
		CreatedAt: l.CreatedAt,
	})
	if err != nil {
		return false, fmt.Errorf("create link: %w", err)
	}
	return created, nil
}

func (r *FirestoreLinkRepository) ListFrom(ctx context.Context, from domain.Ref) ([]domain.Link, error) {
	it := r.client.Collection(linksCollection).
		Where("fromType", "==", string(from.Type)).
		Where("fromId", "==", from.ID).
		Documents(ctx)
	defer it.Stop()

	var links []domain.Link
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list links: %w", err)
		}
		var doc linkDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, err
		}
		links = append(links, domain.Link{
			ID:        snap.Ref.ID,
			FamilyID:  doc.FamilyID,
			From:      domain.Ref{Type: domain.EntityType(doc.FromType), ID: doc.FromID},
			To:        domain.Ref{Type: domain.EntityType(doc.ToType), ID: doc.ToID},
			Relation:  doc.Relation,
			CreatedAt: doc.CreatedAt.UTC(),
		})
	}
	return links, nil
}
