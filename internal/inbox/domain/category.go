package domain

import "strings"

// Category is the fixed set of labels used for items and contacts.
type Category string

const (
	CategoryMedical    Category = "medical"
	CategoryEducation  Category = "education"
	CategoryChildcare  Category = "childcare"
	CategoryActivities Category = "activities"
	CategoryServices   Category = "services"
	CategoryFamily     Category = "family"
	CategoryFriends    Category = "friends"
	CategoryWork       Category = "work"
	CategoryEmergency  Category = "emergency"
	CategoryGeneral    Category = "general"
)

// Categories lists every category in prompt order.
var Categories = []Category{
	CategoryMedical, CategoryEducation, CategoryChildcare, CategoryActivities, CategoryServices,
	CategoryFamily, CategoryFriends, CategoryWork, CategoryEmergency, CategoryGeneral,
}

var categoryAliases = map[string]Category{
	"health":        CategoryMedical,
	"doctor":        CategoryMedical,
	"dental":        CategoryMedical,
	"school":        CategoryEducation,
	"teacher":       CategoryEducation,
	"babysitter":    CategoryChildcare,
	"daycare":       CategoryChildcare,
	"nanny":         CategoryChildcare,
	"sports":        CategoryActivities,
	"activity":      CategoryActivities,
	"coach":         CategoryActivities,
	"service":       CategoryServices,
	"vendor":        CategoryServices,
	"contractor":    CategoryServices,
	"relative":      CategoryFamily,
	"friend":        CategoryFriends,
	"neighbor":      CategoryFriends,
	"business":      CategoryWork,
	"office":        CategoryWork,
	"urgent":        CategoryEmergency,
	"other":         CategoryGeneral,
	"uncategorized": CategoryGeneral,
}

// SanitizeCategory maps free text onto a known category. Anything
// unrecognized becomes general.
func SanitizeCategory(raw string) Category {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return CategoryGeneral
	}
	for _, c := range Categories {
		if s == string(c) {
			return c
		}
	}
	if c, ok := categoryAliases[s]; ok {
		return c
	}
	for _, c := range Categories {
		if strings.Contains(s, string(c)) {
			return c
		}
	}
	return CategoryGeneral
}
