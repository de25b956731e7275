package domain

import (
	"context"
	"time"
)

// Overview aggregates the executive dashboard figures
type Overview struct {
	ActiveRequests    int              `json:"active_requests"`
	AvgResolutionDays float64          `json:"avg_resolution_days"`
	AvgPriority       float64          `json:"avg_priority_score"`
	ByDistrict        map[string]int   `json:"by_district"`
	ByCategory        map[Category]int `json:"by_category"`
	Backlog           DepartmentLoad   `json:"backlog"`
	Timestamp         time.Time        `json:"timestamp"`
}

// ExecutiveSummary is the narrative report over recent decisions
type ExecutiveSummary struct {
	Summary   string    `json:"summary"`
	Insights  []string  `json:"insights"`
	Requests  int       `json:"requests_considered"`
	Timestamp time.Time `json:"timestamp"`
	IsMock    bool      `json:"is_mock"`
}

// TriageProvider produces a TriageResult from a description and district.
// Rule-based and model-backed strategies both implement it.
type TriageProvider interface {
	Triage(ctx context.Context, description, district string) (TriageResult, error)
}

// RequestRepository defines the interface for request persistence
// The domain defines the interface; repositories implement it
type RequestRepository interface {
	// SaveServiceRequest persists an (anonymised) request with status pending
	SaveServiceRequest(ctx context.Context, req ServiceRequest, decision RoutingDecision) error

	// RequestExists reports whether a request with this id was already saved
	RequestExists(ctx context.Context, id string) (bool, error)

	// SaveRoutingDecision persists a routing decision; one per request id
	SaveRoutingDecision(ctx context.Context, decision RoutingDecision) error

	// PendingBacklog counts pending requests per department
	PendingBacklog(ctx context.Context) (DepartmentLoad, error)

	// RecentDecisions returns the newest decisions first
	RecentDecisions(ctx context.Context, limit int) ([]RoutingDecision, error)

	// CountByDistrict counts requests routed since the given time per district
	CountByDistrict(ctx context.Context, since time.Time) (map[string]int, error)

	// CountByCategory counts requests routed since the given time per category
	CountByCategory(ctx context.Context, since time.Time) (map[Category]int, error)

	// Health checks database connectivity
	Health(ctx context.Context) error
}

// BacklogCache stores the most recent DepartmentLoad snapshot
type BacklogCache interface {
	// Get returns the cached snapshot; ok is false on a miss
	Get(ctx context.Context) (load DepartmentLoad, ok bool, err error)
	Set(ctx context.Context, load DepartmentLoad) error
	Invalidate(ctx context.Context) error
}

// EventPublisher announces routing decisions to downstream consumers
type EventPublisher interface {
	PublishRouted(ctx context.Context, decision RoutingDecision) error
}
