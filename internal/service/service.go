package service

import (
	"context"

	"github.com/smartcity/governance/internal/domain"
)

// RequestRepository is re-exported from domain for convenience
type RequestRepository = domain.RequestRepository

// DistrictResolver maps user-supplied district names to canonical ones
type DistrictResolver interface {
	ResolveDistrict(district string) (string, error)
}

// BacklogProvider supplies department backlog snapshots
type BacklogProvider interface {
	Snapshot(ctx context.Context) (domain.DepartmentLoad, error)

	// Invalidate drops any cached snapshot after the backlog changed
	Invalidate(ctx context.Context) error
}
