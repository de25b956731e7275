package triage

import (
	"strings"

	"github.com/smartcity/governance/internal/domain"
)

// Classifier maps request descriptions to a TriageResult using an ordered
// keyword table. It holds no mutable state and is safe for concurrent use.
type Classifier struct {
	rules     []Rule
	fallback  Rule
	districts map[string]string // lower-cased name -> canonical spelling
	ordered   []string
}

// NewClassifier validates rs and prepares it for matching
func NewClassifier(rs RuleSet) (*Classifier, error) {
	if err := rs.Validate(); err != nil {
		return nil, err
	}
	rs = rs.canonical()

	c := &Classifier{
		rules:     make([]Rule, 0, len(rs.Rules)),
		fallback:  rs.Fallback,
		districts: make(map[string]string, len(rs.Districts)),
	}

	for _, r := range rs.Rules {
		keywords := make([]string, len(r.Keywords))
		for i, kw := range r.Keywords {
			keywords[i] = strings.ToLower(strings.TrimSpace(kw))
		}
		r.Keywords = keywords
		c.rules = append(c.rules, r)
	}

	for _, d := range rs.Districts {
		name := strings.TrimSpace(d)
		c.districts[strings.ToLower(name)] = name
		c.ordered = append(c.ordered, name)
	}

	return c, nil
}

// Classify triages a description for a district. An empty description yields
// the fallback outcome; an unknown district is a ValidationError.
func (c *Classifier) Classify(description, district string) (domain.TriageResult, error) {
	if _, err := c.ResolveDistrict(district); err != nil {
		return domain.TriageResult{}, err
	}

	text := strings.ToLower(description)
	for _, r := range c.rules {
		if matchesAny(text, r.Keywords) {
			return resultFor(r), nil
		}
	}
	return c.Fallback(), nil
}

// Fallback returns the outcome used when no rule matches
func (c *Classifier) Fallback() domain.TriageResult {
	return resultFor(c.fallback)
}

// ResolveDistrict returns the canonical district name
func (c *Classifier) ResolveDistrict(district string) (string, error) {
	name, ok := c.districts[strings.ToLower(strings.TrimSpace(district))]
	if !ok {
		return "", domain.NewValidationError("district", district, "not a known district")
	}
	return name, nil
}

// Districts returns the configured districts in configuration order
func (c *Classifier) Districts() []string {
	out := make([]string, len(c.ordered))
	copy(out, c.ordered)
	return out
}

func matchesAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func resultFor(r Rule) domain.TriageResult {
	return domain.TriageResult{
		Category:                r.Category,
		Urgency:                 r.Urgency,
		SuggestedDepartment:     r.Department,
		EstimatedResolutionDays: r.Days,
		Source:                  domain.SourceRules,
	}
}
