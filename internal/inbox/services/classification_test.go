package services

import (
	"testing"

	"github.com/felixgeelhaar/allie/internal/inbox/domain"
	"github.com/stretchr/testify/assert"
)

func TestNewClassifier(t *testing.T) {
	c := NewClassifier()
	assert.NotNil(t, c)
}

func TestClassifier_Classify(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		name     string
		texts    []string
		expected domain.Category
	}{
		{name: "empty", texts: nil, expected: domain.CategoryGeneral},
		{name: "doctor appointment", texts: []string{"Reminder: Dr. Patel appointment Tuesday"}, expected: domain.CategoryMedical},
		{name: "school note", texts: []string{"Field trip permission slip"}, expected: domain.CategoryEducation},
		{name: "babysitter", texts: []string{"Can you babysit Friday night?"}, expected: domain.CategoryChildcare},
		{name: "soccer", texts: []string{"Soccer practice moved to 5pm"}, expected: domain.CategoryActivities},
		{name: "plumber", texts: []string{"Plumber invoice attached"}, expected: domain.CategoryServices},
		{name: "emergency wins over medical", texts: []string{"Emergency room visit, doctor says rest"}, expected: domain.CategoryEmergency},
		{name: "grandma", texts: []string{"Grandma lands at 3"}, expected: domain.CategoryFamily},
		{name: "file name counts", texts: []string{"", "report card.pdf"}, expected: domain.CategoryEducation},
		{name: "nothing matches", texts: []string{"hello there"}, expected: domain.CategoryGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, c.Classify(tt.texts...))
		})
	}
}
