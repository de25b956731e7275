package postgres

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/smartcity/governance/internal/domain"
)

// MockRepository implements domain.RequestRepository in memory for demo mode
// and tests. Pending counts are the seeded backlog plus saved requests.
type MockRepository struct {
	mu        sync.RWMutex
	seed      domain.DepartmentLoad
	requests  []domain.ServiceRequest
	pending   domain.DepartmentLoad
	decisions []domain.RoutingDecision
	healthErr error

	requestIDs  map[string]struct{}
	decisionIDs map[string]struct{}
}

// NewMockRepository creates a new mock repository
func NewMockRepository() *MockRepository {
	return &MockRepository{
		seed:        domain.DepartmentLoad{},
		pending:     domain.DepartmentLoad{},
		requestIDs:  map[string]struct{}{},
		decisionIDs: map[string]struct{}{},
	}
}

// DemoBacklog is the seeded department workload used in demo mode
func DemoBacklog() domain.DepartmentLoad {
	return domain.DepartmentLoad{
		"Water Supply Department": 14,
		"Public Works Department": 9,
		"Health Services":         6,
		"General Hospital":        3,
		"Police Department":       5,
		"Fire Services":           2,
		"Education Department":    4,
		"General Administration":  11,
	}
}

// Seed adds a baseline pending count per department
func (r *MockRepository) Seed(load domain.DepartmentLoad) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for dept, n := range load {
		r.seed[dept] += n
	}
}

// SetHealthError makes Health report err (nil restores health)
func (r *MockRepository) SetHealthError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.healthErr = err
}

// SaveServiceRequest stores the request and counts it as pending. A request
// id that is already stored is ignored.
func (r *MockRepository) SaveServiceRequest(ctx context.Context, req domain.ServiceRequest, decision domain.RoutingDecision) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.requestIDs[req.ID]; dup {
		return nil
	}
	r.requestIDs[req.ID] = struct{}{}
	r.requests = append(r.requests, req)
	r.pending[decision.AssignedDepartment]++
	return nil
}

// RequestExists reports whether a request id is stored
func (r *MockRepository) RequestExists(ctx context.Context, id string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.requestIDs[id]
	return ok, nil
}

// SaveRoutingDecision stores the decision; one per request id
func (r *MockRepository) SaveRoutingDecision(ctx context.Context, decision domain.RoutingDecision) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.decisionIDs[decision.RequestID]; dup {
		return nil
	}
	r.decisionIDs[decision.RequestID] = struct{}{}
	r.decisions = append(r.decisions, decision)
	return nil
}

// PendingBacklog returns seeded plus saved pending counts
func (r *MockRepository) PendingBacklog(ctx context.Context) (domain.DepartmentLoad, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	load := make(domain.DepartmentLoad, len(r.seed)+len(r.pending))
	for dept, n := range r.seed {
		load[dept] += n
	}
	for dept, n := range r.pending {
		load[dept] += n
	}
	return load, nil
}

// RecentDecisions returns stored decisions newest first
func (r *MockRepository) RecentDecisions(ctx context.Context, limit int) ([]domain.RoutingDecision, error) {
	r.mu.RLock()
	out := make([]domain.RoutingDecision, len(r.decisions))
	copy(out, r.decisions)
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RoutedAt.After(out[j].RoutedAt)
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// CountByDistrict counts stored decisions per district
func (r *MockRepository) CountByDistrict(ctx context.Context, since time.Time) (map[string]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := map[string]int{}
	for _, d := range r.decisions {
		if !d.RoutedAt.Before(since) {
			counts[d.District]++
		}
	}
	return counts, nil
}

// CountByCategory counts stored decisions per category
func (r *MockRepository) CountByCategory(ctx context.Context, since time.Time) (map[domain.Category]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := map[domain.Category]int{}
	for _, d := range r.decisions {
		if !d.RoutedAt.Before(since) {
			counts[d.Category]++
		}
	}
	return counts, nil
}

// Requests returns a copy of every stored request
func (r *MockRepository) Requests() []domain.ServiceRequest {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.ServiceRequest, len(r.requests))
	copy(out, r.requests)
	return out
}

// Health returns the configured health error, nil by default
func (r *MockRepository) Health(ctx context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.healthErr
}

var _ domain.RequestRepository = (*MockRepository)(nil)
