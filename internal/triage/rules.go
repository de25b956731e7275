package triage

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/smartcity/governance/internal/domain"
)

// Rule maps a keyword set to a triage outcome. A rule matches when any of its
// keywords occurs in the lower-cased description.
type Rule struct {
	Keywords   []string        `yaml:"keywords"`
	Category   domain.Category `yaml:"category"`
	Urgency    domain.Urgency  `yaml:"urgency"`
	Department string          `yaml:"department"`
	Days       int             `yaml:"days"`
}

// RuleSet is the configurable data behind the classifier and router.
// Rules are tested in order; the first match wins.
type RuleSet struct {
	Districts   []string                     `yaml:"districts"`
	Rules       []Rule                       `yaml:"rules"`
	Fallback    Rule                         `yaml:"fallback"`
	Departments map[domain.Category][]string `yaml:"departments"`
}

// DefaultRuleSet returns the built-in keyword table
func DefaultRuleSet() RuleSet {
	return RuleSet{
		Districts: []string{"Mumbai", "Pune", "Nagpur", "Nashik", "Aurangabad"},
		Rules: []Rule{
			{
				Keywords:   []string{"water", "supply", "pipe", "leak"},
				Category:   domain.CategoryInfrastructure,
				Urgency:    domain.UrgencyHigh,
				Department: "Water Supply Department",
				Days:       3,
			},
			{
				Keywords:   []string{"health", "medical", "hospital", "doctor"},
				Category:   domain.CategoryHealth,
				Urgency:    domain.UrgencyCritical,
				Department: "Health Services",
				Days:       1,
			},
			{
				Keywords:   []string{"road", "traffic", "street", "pothole"},
				Category:   domain.CategoryInfrastructure,
				Urgency:    domain.UrgencyMedium,
				Department: "Public Works Department",
				Days:       7,
			},
		},
		Fallback: Rule{
			Category:   domain.CategoryGeneral,
			Urgency:    domain.UrgencyMedium,
			Department: "General Administration",
			Days:       5,
		},
		Departments: map[domain.Category][]string{
			domain.CategoryInfrastructure: {"Water Supply Department", "Public Works Department"},
			domain.CategoryHealth:         {"Health Services", "General Hospital"},
			domain.CategorySafety:         {"Police Department", "Fire Services"},
			domain.CategoryEducation:      {"Education Department"},
			domain.CategoryGeneral:        {"General Administration"},
		},
	}
}

// LoadRuleSet reads a YAML rule file. Sections missing from the file keep
// their built-in defaults.
func LoadRuleSet(path string) (RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RuleSet{}, fmt.Errorf("triage: failed to read rule file: %w", err)
	}
	return ParseRuleSet(data)
}

// ParseRuleSet decodes and validates a YAML rule table
func ParseRuleSet(data []byte) (RuleSet, error) {
	var parsed RuleSet
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return RuleSet{}, fmt.Errorf("triage: failed to parse rule file: %w", err)
	}

	rs := DefaultRuleSet()
	if len(parsed.Districts) > 0 {
		rs.Districts = parsed.Districts
	}
	if len(parsed.Rules) > 0 {
		rs.Rules = parsed.Rules
	}
	if parsed.Fallback.Department != "" || parsed.Fallback.Category != "" {
		rs.Fallback = parsed.Fallback
	}
	if len(parsed.Departments) > 0 {
		rs.Departments = parsed.Departments
	}

	if err := rs.Validate(); err != nil {
		return RuleSet{}, err
	}
	return rs.canonical(), nil
}

// canonical rewrites categories, urgencies and directory keys to their
// lower-case enum spelling. rs must already be valid.
func (rs RuleSet) canonical() RuleSet {
	out := RuleSet{
		Districts: append([]string(nil), rs.Districts...),
		Rules:     make([]Rule, len(rs.Rules)),
		Fallback:  canonicalOutcome(rs.Fallback),
	}
	for i, r := range rs.Rules {
		out.Rules[i] = canonicalOutcome(r)
	}
	if rs.Departments != nil {
		out.Departments = make(map[domain.Category][]string, len(rs.Departments))
		for category, departments := range rs.Departments {
			c, _ := domain.ParseCategory(string(category))
			out.Departments[c] = append(out.Departments[c], departments...)
		}
	}
	return out
}

func canonicalOutcome(r Rule) Rule {
	if c, ok := domain.ParseCategory(string(r.Category)); ok {
		r.Category = c
	}
	if u, ok := domain.ParseUrgency(string(r.Urgency)); ok {
		r.Urgency = u
	}
	r.Department = strings.TrimSpace(r.Department)
	return r
}

// Validate checks every rule, the fallback and the department directory
func (rs RuleSet) Validate() error {
	if len(rs.Districts) == 0 {
		return domain.NewValidationError("districts", rs.Districts, "at least one district is required")
	}
	for i, d := range rs.Districts {
		if strings.TrimSpace(d) == "" {
			return domain.NewValidationError(fmt.Sprintf("districts[%d]", i), d, "must not be blank")
		}
	}

	for i, r := range rs.Rules {
		field := fmt.Sprintf("rules[%d]", i)
		if len(r.Keywords) == 0 {
			return domain.NewValidationError(field+".keywords", r.Keywords, "at least one keyword is required")
		}
		for _, kw := range r.Keywords {
			if strings.TrimSpace(kw) == "" {
				return domain.NewValidationError(field+".keywords", r.Keywords, "keywords must not be blank")
			}
		}
		if err := validateOutcome(field, r); err != nil {
			return err
		}
	}

	if err := validateOutcome("fallback", rs.Fallback); err != nil {
		return err
	}

	for category, departments := range rs.Departments {
		if _, ok := domain.ParseCategory(string(category)); !ok {
			return domain.NewValidationError("departments", category, "unknown category")
		}
		if len(departments) == 0 {
			return domain.NewValidationError("departments."+string(category), departments, "at least one department is required")
		}
	}
	return nil
}

func validateOutcome(field string, r Rule) error {
	if _, ok := domain.ParseCategory(string(r.Category)); !ok {
		return domain.NewValidationError(field+".category", r.Category, "unknown category")
	}
	if _, ok := domain.ParseUrgency(string(r.Urgency)); !ok {
		return domain.NewValidationError(field+".urgency", r.Urgency, "unknown urgency")
	}
	if strings.TrimSpace(r.Department) == "" {
		return domain.NewValidationError(field+".department", r.Department, "must not be blank")
	}
	if r.Days < 1 {
		return domain.NewValidationError(field+".days", r.Days, "must be at least 1")
	}
	return nil
}
