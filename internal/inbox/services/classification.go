package services

import (
	"strings"

	"github.com/felixgeelhaar/allie/internal/inbox/domain"
)

// categoryKeywords is checked in order; the first category with a hit wins.
var categoryKeywords = []struct {
	category domain.Category
	words    []string
}{
	{domain.CategoryEmergency, []string{"emergency", "urgent care", "911", "er visit", "ambulance"}},
	{domain.CategoryMedical, []string{"doctor", "dr.", "dentist", "pediatric", "clinic", "appointment", "prescription", "vaccine", "hospital", "pharmacy", "checkup"}},
	{domain.CategoryEducation, []string{"school", "teacher", "class", "homework", "report card", "pta", "field trip", "tuition", "grade"}},
	{domain.CategoryChildcare, []string{"babysit", "daycare", "nanny", "childcare", "pickup", "pick up", "drop off", "after-school"}},
	{domain.CategoryActivities, []string{"soccer", "practice", "game", "recital", "lesson", "camp", "tournament", "swim", "dance", "rehearsal"}},
	{domain.CategoryServices, []string{"plumber", "repair", "invoice", "bill", "insurance", "service", "utility", "mechanic", "delivery"}},
	{domain.CategoryWork, []string{"meeting", "office", "client", "deadline", "project", "work"}},
	{domain.CategoryFamily, []string{"mom", "dad", "grandma", "grandpa", "aunt", "uncle", "cousin", "birthday", "family"}},
	{domain.CategoryFriends, []string{"friend", "party", "dinner", "playdate", "neighbor"}},
}

// Classifier guesses a category from keywords when the model gave none.
type Classifier struct{}

// NewClassifier returns a classifier instance.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify returns the category for the given text.
func (c *Classifier) Classify(texts ...string) domain.Category {
	text := strings.ToLower(strings.Join(texts, " "))
	if strings.TrimSpace(text) == "" {
		return domain.CategoryGeneral
	}
	for _, entry := range categoryKeywords {
		for _, w := range entry.words {
			if strings.Contains(text, w) {
				return entry.category
			}
		}
	}
	return domain.CategoryGeneral
}
