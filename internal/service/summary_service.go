package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/smartcity/governance/internal/domain"
)

// summaryWindow is how many recent decisions the summary considers
const summaryWindow = 10

// SummaryService produces the executive summary for decision makers
type SummaryService struct {
	repo      RequestRepository
	generator ContentGenerator
	model     string
	log       *zap.Logger
	now       func() time.Time
}

// NewSummaryService creates a summary service; generator may be nil, in
// which case summaries are built from a template
func NewSummaryService(repo RequestRepository, generator ContentGenerator, model string, log *zap.Logger) *SummaryService {
	return &SummaryService{repo: repo, generator: generator, model: model, log: log, now: time.Now}
}

// Generate summarises the most recent routing decisions
func (s *SummaryService) Generate(ctx context.Context) (domain.ExecutiveSummary, error) {
	decisions, err := s.repo.RecentDecisions(ctx, summaryWindow)
	if err != nil {
		return domain.ExecutiveSummary{}, fmt.Errorf("summary: failed to load decisions: %w", err)
	}

	fallback := s.templateSummary(decisions)
	if s.generator == nil || len(decisions) == 0 {
		return fallback, nil
	}

	data, err := json.Marshal(decisions)
	if err != nil {
		return domain.ExecutiveSummary{}, fmt.Errorf("summary: failed to marshal decisions: %w", err)
	}

	text, err := generateText(ctx, s.generator, s.model, summaryPrompt(string(data)), nil)
	if err != nil {
		// Return template summary on error
		s.log.Warn("Model summary failed, using template", zap.Error(err))
		return fallback, nil
	}

	return domain.ExecutiveSummary{
		Summary:   text,
		Insights:  fallback.Insights,
		Requests:  len(decisions),
		Timestamp: s.now(),
		IsMock:    false,
	}, nil
}

func summaryPrompt(data string) string {
	return fmt.Sprintf(`Generate an executive summary for a municipal governance dashboard.

Data: %s

Include:
- Key trends in citizen service requests
- Top priority areas requiring attention
- Resource allocation recommendations
- 3 actionable insights for decision makers

Keep response under 200 words.`, data)
}

// templateSummary builds a deterministic summary from the decisions
func (s *SummaryService) templateSummary(decisions []domain.RoutingDecision) domain.ExecutiveSummary {
	summary := domain.ExecutiveSummary{
		Requests:  len(decisions),
		Timestamp: s.now(),
		IsMock:    true,
	}
	if len(decisions) == 0 {
		summary.Summary = "No citizen service requests have been routed yet."
		summary.Insights = []string{}
		return summary
	}

	categories := map[string]int{}
	districts := map[string]int{}
	departments := map[string]int{}
	top := decisions[0]
	for _, d := range decisions {
		categories[string(d.Category)]++
		districts[d.District]++
		departments[d.AssignedDepartment]++
		if d.PriorityScore > top.PriorityScore {
			top = d
		}
	}

	topCategory, categoryCount := maxKey(categories)
	topDistrict, districtCount := maxKey(districts)
	busiest, busiestCount := maxKey(departments)

	summary.Summary = fmt.Sprintf(
		"%d recent requests reviewed. %s is the leading category (%d requests) and %s the most active district (%d requests). "+
			"Highest priority: request %s (%s, score %d) assigned to %s.",
		len(decisions), capitalize(topCategory), categoryCount, topDistrict, districtCount,
		top.RequestID, top.Category, top.PriorityScore, top.AssignedDepartment,
	)
	summary.Insights = []string{
		fmt.Sprintf("Prioritise %s capacity: it received %d of the last %d requests.", busiest, busiestCount, len(decisions)),
		fmt.Sprintf("Review %s service levels in %s, the district with the most requests.", topCategory, topDistrict),
		fmt.Sprintf("Track request %s until resolution; its priority score is %d.", top.RequestID, top.PriorityScore),
	}
	return summary
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// maxKey returns the key with the highest count, ties by name
func maxKey(counts map[string]int) (string, int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	best, bestCount := "", -1
	for _, k := range keys {
		if counts[k] > bestCount {
			best, bestCount = k, counts[k]
		}
	}
	return best, bestCount
}
