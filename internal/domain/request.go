package domain

import (
	"strings"
	"time"
)

// Category is the service category a request is triaged into
type Category string

const (
	CategoryHealth         Category = "health"
	CategoryInfrastructure Category = "infrastructure"
	CategorySafety         Category = "safety"
	CategoryEducation      Category = "education"
	CategoryGeneral        Category = "general"
)

// Categories lists every known category in display order
var Categories = []Category{
	CategoryHealth,
	CategoryInfrastructure,
	CategorySafety,
	CategoryEducation,
	CategoryGeneral,
}

// ParseCategory maps a case-insensitive name to a Category
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories {
		if c == known {
			return c, true
		}
	}
	return "", false
}

// Urgency is the triage urgency level
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

var urgencyWeights = map[Urgency]int{
	UrgencyLow:      1,
	UrgencyMedium:   2,
	UrgencyHigh:     3,
	UrgencyCritical: 4,
}

// Weight returns the urgency weight (1..4) and false for unknown levels
func (u Urgency) Weight() (int, bool) {
	w, ok := urgencyWeights[u]
	return w, ok
}

// ParseUrgency maps a case-insensitive name to an Urgency
func ParseUrgency(s string) (Urgency, bool) {
	u := Urgency(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := urgencyWeights[u]; !ok {
		return "", false
	}
	return u, true
}

// DefaultFeedbackScore is assumed when the citizen gave no rating
const DefaultFeedbackScore = 3

// ServiceRequest is a citizen request as submitted through an intake surface
type ServiceRequest struct {
	ID                   string    `json:"id"`
	Description          string    `json:"description"`
	District             string    `json:"district"`
	CitizenFeedbackScore int       `json:"citizen_feedback_score,omitempty"`
	SubmittedAt          time.Time `json:"submitted_at"`

	// Personal data; anonymised before it leaves the service layer
	CitizenID string `json:"citizen_id,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Address   string `json:"address,omitempty"`
	Aadhaar   string `json:"aadhaar,omitempty"`
}

// FeedbackScore returns the citizen rating, defaulting when absent
func (r ServiceRequest) FeedbackScore() int {
	if r.CitizenFeedbackScore == 0 {
		return DefaultFeedbackScore
	}
	return r.CitizenFeedbackScore
}

// TriageResult is the derived classification of a request
type TriageResult struct {
	Category                Category `json:"service_category"`
	Urgency                 Urgency  `json:"urgency_level"`
	SuggestedDepartment     string   `json:"department"`
	EstimatedResolutionDays int      `json:"estimated_days"`
	Source                  string   `json:"source"` // "rules" or "model"
}

// Triage result sources
const (
	SourceRules = "rules"
	SourceModel = "model"
)

// RoutingDecision is the output record for a routed request
type RoutingDecision struct {
	RequestID               string    `json:"request_id"`
	AssignedDepartment      string    `json:"assigned_department"`
	PriorityScore           int       `json:"priority_score"`
	EstimatedResolutionDays int       `json:"estimated_resolution"`
	Category                Category  `json:"service_category"`
	Urgency                 Urgency   `json:"urgency_level"`
	District                string    `json:"district"`
	CitizenMessage          string    `json:"citizen_message"`
	RoutedAt                time.Time `json:"routing_timestamp"`
}

// DepartmentLoad maps a department name to its pending request count
type DepartmentLoad map[string]int
