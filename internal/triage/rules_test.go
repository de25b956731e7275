package triage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcity/governance/internal/domain"
)

func TestDefaultRuleSetIsValid(t *testing.T) {
	require.NoError(t, DefaultRuleSet().Validate())
}

func TestParseRuleSet(t *testing.T) {
	data := []byte(`
districts: [Thane, Solapur]
rules:
  - keywords: [school, teacher]
    category: education
    urgency: low
    department: Education Department
    days: 10
fallback:
  category: general
  urgency: low
  department: Ward Office
  days: 4
`)

	rs, err := ParseRuleSet(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"Thane", "Solapur"}, rs.Districts)
	require.Len(t, rs.Rules, 1)
	assert.Equal(t, domain.CategoryEducation, rs.Rules[0].Category)
	assert.Equal(t, "Ward Office", rs.Fallback.Department)
	// departments section omitted: defaults kept
	assert.Equal(t, DefaultRuleSet().Departments, rs.Departments)

	c, err := NewClassifier(rs)
	require.NoError(t, err)
	got, err := c.Classify("the teacher did not come", "thane")
	require.NoError(t, err)
	assert.Equal(t, "Education Department", got.SuggestedDepartment)
	assert.Equal(t, 10, got.EstimatedResolutionDays)
}

func TestParseRuleSetCanonicalisesMixedCase(t *testing.T) {
	data := []byte(`
rules:
  - keywords: [fire]
    category: Safety
    urgency: Critical
    department: " Fire Services "
    days: 1
fallback:
  category: GENERAL
  urgency: Medium
  department: General Administration
  days: 5
departments:
  Safety: [Fire Services, Police Department]
  general: [General Administration]
`)

	rs, err := ParseRuleSet(data)
	require.NoError(t, err)
	assert.Equal(t, domain.CategorySafety, rs.Rules[0].Category)
	assert.Equal(t, domain.UrgencyCritical, rs.Rules[0].Urgency)
	assert.Equal(t, "Fire Services", rs.Rules[0].Department)
	assert.Equal(t, domain.CategoryGeneral, rs.Fallback.Category)
	assert.Equal(t, domain.UrgencyMedium, rs.Fallback.Urgency)
	assert.Contains(t, rs.Departments, domain.CategorySafety)

	c, err := NewClassifier(rs)
	require.NoError(t, err)
	result, err := c.Classify("fire in building", "Pune")
	require.NoError(t, err)
	assert.Equal(t, domain.CategorySafety, result.Category)
	assert.Equal(t, domain.UrgencyCritical, result.Urgency)

	score, err := Score(result.Urgency, 3, result.EstimatedResolutionDays)
	require.NoError(t, err)
	assert.Equal(t, 100, score)

	router := NewRouter(rs.Departments)
	load := domain.DepartmentLoad{"Fire Services": 4, "Police Department": 1}
	assert.Equal(t, "Police Department", router.Route(result.Category, result.SuggestedDepartment, load))
}

func TestNewClassifierCanonicalisesRuleSet(t *testing.T) {
	rs := DefaultRuleSet()
	rs.Rules = []Rule{{Keywords: []string{"Fire"}, Category: "Safety", Urgency: "HIGH", Department: "Fire Services", Days: 2}}

	c, err := NewClassifier(rs)
	require.NoError(t, err)
	result, err := c.Classify("FIRE near market", "Mumbai")
	require.NoError(t, err)
	assert.Equal(t, domain.CategorySafety, result.Category)
	assert.Equal(t, domain.UrgencyHigh, result.Urgency)
}

func TestParseRuleSetRejectsInvalidRules(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		field string
	}{
		{
			name:  "unknown category",
			yaml:  "rules:\n  - {keywords: [x], category: sports, urgency: low, department: D, days: 1}\n",
			field: "rules[0].category",
		},
		{
			name:  "unknown urgency",
			yaml:  "rules:\n  - {keywords: [x], category: health, urgency: soon, department: D, days: 1}\n",
			field: "rules[0].urgency",
		},
		{
			name:  "zero days",
			yaml:  "rules:\n  - {keywords: [x], category: health, urgency: low, department: D, days: 0}\n",
			field: "rules[0].days",
		},
		{
			name:  "blank keyword",
			yaml:  "rules:\n  - {keywords: [\" \"], category: health, urgency: low, department: D, days: 1}\n",
			field: "rules[0].keywords",
		},
		{
			name:  "fallback without department",
			yaml:  "fallback: {category: general, urgency: low, days: 2}\n",
			field: "fallback.department",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRuleSet([]byte(tt.yaml))
			var ve *domain.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestLoadRuleSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("districts: [Mumbai]\n"), 0o600))

	rs, err := LoadRuleSet(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Mumbai"}, rs.Districts)

	_, err = LoadRuleSet(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestShippedRuleFile(t *testing.T) {
	rs, err := LoadRuleSet(filepath.Join("..", "..", "config", "rules.yaml"))
	require.NoError(t, err)

	classifier, err := NewClassifier(rs)
	require.NoError(t, err)

	result, err := classifier.Classify("Fire near the bus depot", "Nashik")
	require.NoError(t, err)
	assert.Equal(t, domain.CategorySafety, result.Category)
	assert.Equal(t, "Police Department", result.SuggestedDepartment)

	result, err = classifier.Classify("No teacher at the school for a week", "Pune")
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryEducation, result.Category)
	assert.Equal(t, 10, result.EstimatedResolutionDays)
}
