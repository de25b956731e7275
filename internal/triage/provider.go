package triage

import (
	"context"

	"github.com/smartcity/governance/internal/domain"
)

// RuleProvider is the keyword-table TriageProvider
type RuleProvider struct {
	classifier *Classifier
}

// NewRuleProvider wraps a classifier as a TriageProvider
func NewRuleProvider(classifier *Classifier) *RuleProvider {
	return &RuleProvider{classifier: classifier}
}

// Triage classifies the description; ctx is unused since matching never blocks
func (p *RuleProvider) Triage(_ context.Context, description, district string) (domain.TriageResult, error) {
	return p.classifier.Classify(description, district)
}

var _ domain.TriageProvider = (*RuleProvider)(nil)
