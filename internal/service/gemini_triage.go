package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/smartcity/governance/internal/domain"
	"github.com/smartcity/governance/internal/platform/metrics"
	"github.com/smartcity/governance/internal/triage"
)

// GeminiTriage is the model-backed TriageProvider. District validation and
// the degraded result both come from the rule classifier.
type GeminiTriage struct {
	generator  ContentGenerator
	model      string
	classifier *triage.Classifier
	timeout    time.Duration
	metrics    *metrics.Metrics
	log        *zap.Logger
}

// NewGeminiTriage creates a model-backed triage provider
func NewGeminiTriage(generator ContentGenerator, model string, classifier *triage.Classifier, m *metrics.Metrics, log *zap.Logger) *GeminiTriage {
	return &GeminiTriage{
		generator:  generator,
		model:      model,
		classifier: classifier,
		timeout:    30 * time.Second,
		metrics:    m,
		log:        log,
	}
}

// Triage asks the model to classify the request. Model or parse failures
// degrade to the rule-based result rather than failing the call.
func (g *GeminiTriage) Triage(ctx context.Context, description, district string) (domain.TriageResult, error) {
	rules, err := g.classifier.Classify(description, district)
	if err != nil {
		return domain.TriageResult{}, err
	}
	if strings.TrimSpace(description) == "" {
		return rules, nil
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	text, err := generateText(ctx, g.generator, g.model, triagePrompt(description, district), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0),
	})
	if err != nil {
		g.degrade("model call failed", err)
		return rules, nil
	}

	result, err := parseModelTriage(text, g.classifier.Fallback())
	if err != nil {
		g.degrade("model response unusable", err)
		return rules, nil
	}
	return result, nil
}

func (g *GeminiTriage) degrade(msg string, err error) {
	g.metrics.IncrementFallback("model")
	g.log.Warn(msg+", using rule-based triage", zap.Error(err))
}

func triagePrompt(description, district string) string {
	return fmt.Sprintf(`Analyze this citizen service request and provide:
1. service_category: one of health, infrastructure, safety, education, general
2. urgency_level: one of low, medium, high, critical
3. department: the municipal department that should handle it
4. estimated_days: estimated resolution time in whole days (at least 1)

District: %s
Query: %s

Respond in JSON format only.`, district, description)
}

// modelTriage is the JSON shape requested from the model
type modelTriage struct {
	ServiceCategory string  `json:"service_category"`
	UrgencyLevel    string  `json:"urgency_level"`
	Department      string  `json:"department"`
	EstimatedDays   flexInt `json:"estimated_days"`
}

// flexInt accepts 3, 3.0 and "3"
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("estimated_days: %w", err)
	}
	*f = flexInt(v)
	return nil
}

// parseModelTriage decodes a model answer and normalises out-of-range values
// against the fallback outcome.
func parseModelTriage(text string, fallback domain.TriageResult) (domain.TriageResult, error) {
	var raw modelTriage
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &raw); err != nil {
		return domain.TriageResult{}, fmt.Errorf("gemini: failed to decode triage: %w", err)
	}

	result := domain.TriageResult{
		Category:                domain.CategoryGeneral,
		Urgency:                 domain.UrgencyMedium,
		SuggestedDepartment:     strings.TrimSpace(raw.Department),
		EstimatedResolutionDays: int(raw.EstimatedDays),
		Source:                  domain.SourceModel,
	}
	if c, ok := domain.ParseCategory(raw.ServiceCategory); ok {
		result.Category = c
	}
	if u, ok := domain.ParseUrgency(raw.UrgencyLevel); ok {
		result.Urgency = u
	}
	if result.SuggestedDepartment == "" {
		result.SuggestedDepartment = fallback.SuggestedDepartment
	}
	if result.EstimatedResolutionDays < 1 {
		result.EstimatedResolutionDays = fallback.EstimatedResolutionDays
	}
	return result, nil
}

var _ domain.TriageProvider = (*GeminiTriage)(nil)
