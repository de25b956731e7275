package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/smartcity/governance/internal/domain"
)

// BacklogService provides department backlog snapshots, read through an
// optional cache in front of the repository.
type BacklogService struct {
	repo  RequestRepository
	cache domain.BacklogCache
	log   *zap.Logger
}

// NewBacklogService creates a backlog provider; cache may be nil
func NewBacklogService(repo RequestRepository, cache domain.BacklogCache, log *zap.Logger) *BacklogService {
	return &BacklogService{repo: repo, cache: cache, log: log}
}

// Snapshot returns the cached snapshot, or queries and caches a fresh one.
// Cache failures are logged and bypassed.
func (s *BacklogService) Snapshot(ctx context.Context) (domain.DepartmentLoad, error) {
	if s.cache != nil {
		load, ok, err := s.cache.Get(ctx)
		switch {
		case err != nil:
			s.log.Warn("Backlog cache read failed", zap.Error(err))
		case ok:
			return load, nil
		}
	}

	load, err := s.repo.PendingBacklog(ctx)
	if err != nil {
		return nil, fmt.Errorf("backlog: failed to load snapshot: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, load); err != nil {
			s.log.Warn("Backlog cache write failed", zap.Error(err))
		}
	}
	return load, nil
}

// Invalidate drops the cached snapshot so the next Snapshot reads the
// repository. Without a cache it does nothing.
func (s *BacklogService) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		return fmt.Errorf("backlog: failed to invalidate cache: %w", err)
	}
	return nil
}
