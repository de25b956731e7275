package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/smartcity/governance/internal/domain"
	"github.com/smartcity/governance/pkg/utils"
)

// overviewWindow bounds the district and category counts
const overviewWindow = 30 * 24 * time.Hour

// overviewSample is how many recent decisions feed the averages
const overviewSample = 200

// OverviewService aggregates the executive overview
type OverviewService struct {
	repo    RequestRepository
	backlog BacklogProvider
	log     *zap.Logger
	now     func() time.Time
}

// NewOverviewService creates a new overview service
func NewOverviewService(repo RequestRepository, backlog BacklogProvider, log *zap.Logger) *OverviewService {
	return &OverviewService{repo: repo, backlog: backlog, log: log, now: time.Now}
}

// GetOverview fetches all overview inputs concurrently. Failed sources are
// logged and left empty.
func (s *OverviewService) GetOverview(ctx context.Context) (domain.Overview, error) {
	since := s.now().Add(-overviewWindow)

	var (
		backlog    domain.DepartmentLoad
		byDistrict map[string]int
		byCategory map[domain.Category]int
		recent     []domain.RoutingDecision
		wg         sync.WaitGroup
		mu         sync.Mutex
		errs       []error
	)

	fetch := func(fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}()
	}

	fetch(func() (err error) {
		backlog, err = s.backlog.Snapshot(ctx)
		return err
	})
	fetch(func() (err error) {
		byDistrict, err = s.repo.CountByDistrict(ctx, since)
		return err
	})
	fetch(func() (err error) {
		byCategory, err = s.repo.CountByCategory(ctx, since)
		return err
	})
	fetch(func() (err error) {
		recent, err = s.repo.RecentDecisions(ctx, overviewSample)
		return err
	})

	wg.Wait()

	for _, err := range errs {
		s.log.Warn("Overview data fetch error", zap.Error(err))
	}

	overview := domain.Overview{
		ByDistrict: nonNil(byDistrict),
		ByCategory: nonNil(byCategory),
		Backlog:    domain.DepartmentLoad(nonNil(map[string]int(backlog))),
		Timestamp:  s.now(),
	}
	for _, n := range overview.Backlog {
		overview.ActiveRequests += n
	}

	days := make([]int, 0, len(recent))
	priorities := make([]int, 0, len(recent))
	for _, d := range recent {
		days = append(days, d.EstimatedResolutionDays)
		priorities = append(priorities, d.PriorityScore)
	}
	overview.AvgResolutionDays = utils.RoundTo(utils.Mean(days), 1)
	overview.AvgPriority = utils.RoundTo(utils.Mean(priorities), 1)

	// Even with errors, return what we have
	return overview, nil
}

func nonNil[K comparable](m map[K]int) map[K]int {
	if m == nil {
		return map[K]int{}
	}
	return m
}
