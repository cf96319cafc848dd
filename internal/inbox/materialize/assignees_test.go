package materialize

import (
	"testing"

	familyDomain "github.com/felixgeelhaar/allie/internal/family/domain"
	"github.com/felixgeelhaar/allie/internal/inbox/domain"
	"github.com/stretchr/testify/assert"
)

func TestResolveAssignees(t *testing.T) {
	members := []familyDomain.Member{
		{ID: "m-dad", Name: "Tom Reyes", Role: familyDomain.RoleParent},
		{ID: "m-mom", Name: "Ana Reyes", Role: familyDomain.RoleParent},
		{ID: "m-sofia", Name: "Sofia Reyes", Role: familyDomain.RoleChild},
		{ID: "m-nana", Name: "Nana", Role: familyDomain.RoleCaregiver},
	}

	tests := []struct {
		name string
		data domain.ActionData
		text string
		want []string
	}{
		{
			name: "parents only",
			text: "Renew the car registration",
			want: []string{"m-dad", "m-mom"},
		},
		{
			name: "explicit ids come first",
			data: domain.ActionData{AssigneeIDs: []string{"m-nana", "m-mom"}},
			want: []string{"m-nana", "m-mom", "m-dad"},
		},
		{
			name: "names and mentions",
			data: domain.ActionData{AssigneeNames: []string{"sofia"}},
			text: "Nana picks up after practice",
			want: []string{"m-sofia", "m-nana", "m-dad", "m-mom"},
		},
		{
			name: "mentions respect word boundaries",
			text: "Tomorrow is pajama day, Tomas said",
			want: []string{"m-dad", "m-mom"},
		},
		{
			name: "unknown ids resolved by name or dropped",
			data: domain.ActionData{AssigneeIDs: []string{"Sofia", "ghost"}},
			want: []string{"m-sofia", "m-dad", "m-mom"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveAssignees(tt.data, tt.text, members))
		})
	}

	t.Run("without members explicit ids are kept", func(t *testing.T) {
		got := resolveAssignees(domain.ActionData{AssigneeIDs: []string{"a", "a", "b"}}, "", nil)
		assert.Equal(t, []string{"a", "b"}, got)
	})
}

func TestSamePhone(t *testing.T) {
	assert.True(t, samePhone("555-123-4567", "+1 (555) 123-4567"))
	assert.True(t, samePhone("+15551234567", "5551234567"))
	assert.False(t, samePhone("555-123-4568", "+1 (555) 123-4567"))
	assert.False(t, samePhone("911", "911"), "short codes are not compared")
	assert.False(t, samePhone("555-123-4567", ""))
}
