package materialize

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	familyDomain "github.com/felixgeelhaar/allie/internal/family/domain"
	"github.com/felixgeelhaar/allie/internal/inbox/domain"
	"github.com/felixgeelhaar/allie/pkg/observability"
)

func (m *Materializer) familyMembers(ctx context.Context, familyID string, logger *slog.Logger) []familyDomain.Member {
	if m.members == nil {
		return nil
	}
	members, err := m.members.ListByFamily(ctx, familyID)
	if err != nil {
		logger.WarnContext(ctx, "failed to load family members", observability.ErrorKey, err)
		return nil
	}
	return members
}

// resolveAssignees returns, in order and without duplicates: explicit
// assignee ids, members matching explicit names, members mentioned in the
// text, and every parent.
func resolveAssignees(data domain.ActionData, text string, members []familyDomain.Member) []string {
	ids := newOrderedSet()
	known := make(map[string]bool, len(members))
	for _, mem := range members {
		known[mem.ID] = true
	}
	for _, id := range data.AssigneeIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if known[id] || len(members) == 0 {
			ids.add(id)
			continue
		}
		if mem, ok := matchMember(id, members); ok {
			ids.add(mem.ID)
		}
	}
	for _, name := range data.AssigneeNames {
		if mem, ok := matchMember(name, members); ok {
			ids.add(mem.ID)
		}
	}
	for _, mem := range members {
		if mentions(text, mem) {
			ids.add(mem.ID)
		}
	}
	for _, mem := range members {
		if mem.IsParent() {
			ids.add(mem.ID)
		}
	}
	return ids.values()
}

// matchMember finds a member by id, full name or first name.
func matchMember(ref string, members []familyDomain.Member) (familyDomain.Member, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return familyDomain.Member{}, false
	}
	for _, mem := range members {
		if mem.ID == ref || strings.EqualFold(mem.Name, ref) {
			return mem, true
		}
	}
	for _, mem := range members {
		if first := mem.FirstName(); first != "" && strings.EqualFold(first, ref) {
			return mem, true
		}
	}
	return familyDomain.Member{}, false
}

// mentions reports whether text names the member as a whole word.
func mentions(text string, mem familyDomain.Member) bool {
	for _, name := range []string{mem.Name, mem.FirstName()} {
		if len(name) < 2 {
			continue
		}
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(name) + `\b`)
		if err == nil && re.MatchString(text) {
			return true
		}
	}
	return false
}

type orderedSet struct {
	seen  map[string]bool
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: map[string]bool{}, items: []string{}}
}

func (s *orderedSet) add(v string) {
	if v == "" || s.seen[v] {
		return
	}
	s.seen[v] = true
	s.items = append(s.items, v)
}

func (s *orderedSet) values() []string {
	return s.items
}
