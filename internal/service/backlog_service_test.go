package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smartcity/governance/internal/domain"
	"github.com/smartcity/governance/internal/repository/postgres"
)

func TestBacklogSnapshotCacheMissRefreshes(t *testing.T) {
	repo := postgres.NewMockRepository()
	repo.Seed(domain.DepartmentLoad{"Health Services": 4})
	cache := &fakeCache{}

	svc := NewBacklogService(repo, cache, zap.NewNop())
	load, err := svc.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.DepartmentLoad{"Health Services": 4}, load)
	assert.Equal(t, 1, cache.setHits)
	assert.Equal(t, load, cache.load)
}

func TestBacklogSnapshotCacheHit(t *testing.T) {
	repo := postgres.NewMockRepository()
	repo.Seed(domain.DepartmentLoad{"Health Services": 4})
	cache := &fakeCache{load: domain.DepartmentLoad{"Health Services": 1}, ok: true}

	load, err := NewBacklogService(repo, cache, zap.NewNop()).Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.DepartmentLoad{"Health Services": 1}, load)
	assert.Zero(t, cache.setHits)
}

func TestBacklogSnapshotCacheErrorsBypassed(t *testing.T) {
	repo := postgres.NewMockRepository()
	repo.Seed(domain.DepartmentLoad{"Fire Services": 2})
	cache := &fakeCache{getErr: errUnavailable, setErr: errUnavailable}

	load, err := NewBacklogService(repo, cache, zap.NewNop()).Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.DepartmentLoad{"Fire Services": 2}, load)
}

func TestBacklogSnapshotWithoutCache(t *testing.T) {
	repo := postgres.NewMockRepository()

	load, err := NewBacklogService(repo, nil, zap.NewNop()).Snapshot(context.Background())
	require.NoError(t, err)
	assert.Empty(t, load)
}

type failingBacklogRepo struct {
	*postgres.MockRepository
}

func (failingBacklogRepo) PendingBacklog(context.Context) (domain.DepartmentLoad, error) {
	return nil, errUnavailable
}

func TestBacklogSnapshotRepositoryError(t *testing.T) {
	repo := failingBacklogRepo{postgres.NewMockRepository()}

	_, err := NewBacklogService(repo, nil, zap.NewNop()).Snapshot(context.Background())
	assert.ErrorIs(t, err, errUnavailable)
}

func TestBacklogInvalidate(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewMockRepository()
	repo.Seed(domain.DepartmentLoad{"Health Services": 4})
	cache := &fakeCache{}
	svc := NewBacklogService(repo, cache, zap.NewNop())

	_, err := svc.Snapshot(ctx)
	require.NoError(t, err)

	require.NoError(t, repo.SaveServiceRequest(ctx, domain.ServiceRequest{ID: "REQ-1"},
		domain.RoutingDecision{RequestID: "REQ-1", AssignedDepartment: "Health Services"}))
	require.NoError(t, svc.Invalidate(ctx))

	load, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DepartmentLoad{"Health Services": 5}, load)
	assert.Equal(t, 1, cache.Invalidations())

	cache.invalidateErr = errUnavailable
	assert.ErrorIs(t, svc.Invalidate(ctx), errUnavailable)

	assert.NoError(t, NewBacklogService(repo, nil, zap.NewNop()).Invalidate(ctx))
}
