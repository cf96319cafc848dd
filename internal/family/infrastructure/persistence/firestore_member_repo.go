package persistence

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/felixgeelhaar/allie/internal/family/domain"
	"google.golang.org/api/iterator"
)

const membersCollection = "familyMembers"

// FirestoreMemberRepository reads members from the familyMembers collection.
type FirestoreMemberRepository struct {
	client *firestore.Client
}

// NewFirestoreMemberRepository creates a Firestore-backed repository.
func NewFirestoreMemberRepository(client *firestore.Client) *FirestoreMemberRepository {
	return &FirestoreMemberRepository{client: client}
}

func (r *FirestoreMemberRepository) ListByFamily(ctx context.Context, familyID string) ([]domain.Member, error) {
	it := r.client.Collection(membersCollection).Where("familyId", "==", familyID).Documents(ctx)
	defer it.Stop()

	var members []domain.Member
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list family members: %w", err)
		}
		data := snap.Data()
		members = append(members, domain.Member{
			ID:       snap.Ref.ID,
			FamilyID: familyID,
			Name:     stringField(data, "name"),
			Role:     domain.ParseRole(stringField(data, "role")),
			Phone:    stringField(data, "phone"),
			Email:    stringField(data, "email"),
		})
	}
	return members, nil
}

func (r *FirestoreMemberRepository) Save(ctx context.Context, m domain.Member) error {
	_, err := r.client.Collection(membersCollection).Doc(m.ID).Set(ctx, map[string]any{
		"familyId": m.FamilyID,
		"name":     m.Name,
		"role":     string(m.Role),
		"phone":    m.Phone,
		"email":    m.Email,
	})
	if err != nil {
		return fmt.Errorf("save family member: %w", err)
	}
	return nil
}

func stringField(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return s
}
