// Package domain holds the family members that tasks and events are assigned to.
package domain

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidMember is returned for members without a family or a name.
var ErrInvalidMember = errors.New("family member needs a family id and a name")

// Role is a member's place in the family.
type Role string

const (
	RoleParent    Role = "parent"
	RoleChild     Role = "child"
	RoleCaregiver Role = "caregiver"
	RoleOther     Role = "other"
)

// ParseRole maps free text to a role, defaulting to other.
func ParseRole(raw string) Role {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "parent", "mom", "dad", "mother", "father", "guardian":
		return RoleParent
	case "child", "kid", "son", "daughter":
		return RoleChild
	case "caregiver", "nanny", "babysitter", "grandparent":
		return RoleCaregiver
	default:
		return RoleOther
	}
}

// Member is one person in a family.
type Member struct {
	ID       string
	FamilyID string
	Name     string
	Role     Role
	Phone    string
	Email    string
}

// NewMember creates a member with a fresh ID.
func NewMember(familyID, name string, role Role) (Member, error) {
	name = strings.TrimSpace(name)
	if familyID == "" || name == "" {
		return Member{}, ErrInvalidMember
	}
	return Member{ID: uuid.NewString(), FamilyID: familyID, Name: name, Role: role}, nil
}

// IsParent reports whether the member is a parent.
func (m Member) IsParent() bool {
	return m.Role == RoleParent
}

// FirstName is the first word of the name.
func (m Member) FirstName() string {
	if fields := strings.Fields(m.Name); len(fields) > 0 {
		return fields[0]
	}
	return ""
}

// Repository stores family members.
type Repository interface {
	ListByFamily(ctx context.Context, familyID string) ([]Member, error)
	Save(ctx context.Context, member Member) error
}
