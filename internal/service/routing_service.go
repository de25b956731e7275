package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartcity/governance/internal/domain"
	"github.com/smartcity/governance/internal/platform/metrics"
	"github.com/smartcity/governance/internal/security"
	"github.com/smartcity/governance/internal/triage"
)

// RoutingService runs the triage -> score + route pipeline for a request and
// hands the decision to persistence and event consumers.
type RoutingService struct {
	districts DistrictResolver
	provider  domain.TriageProvider
	router    *triage.Router
	backlog   BacklogProvider
	repo      RequestRepository
	publisher domain.EventPublisher
	metrics   *metrics.Metrics
	log       *zap.Logger

	now   func() time.Time
	newID func() string

	wgBg sync.WaitGroup // tracks background goroutines for graceful shutdown

	mu       sync.Mutex
	inFlight map[string]struct{} // caller-supplied ids routed but not yet persisted
}

// NewRoutingService creates a new routing service
func NewRoutingService(
	districts DistrictResolver,
	provider domain.TriageProvider,
	router *triage.Router,
	backlog BacklogProvider,
	repo RequestRepository,
	publisher domain.EventPublisher,
	m *metrics.Metrics,
	log *zap.Logger,
) *RoutingService {
	return &RoutingService{
		districts: districts,
		provider:  provider,
		router:    router,
		backlog:   backlog,
		repo:      repo,
		publisher: publisher,
		metrics:   m,
		log:       log,
		now:       time.Now,
		newID:     uuid.NewString,
		inFlight:  map[string]struct{}{},
	}
}

// WaitBackground blocks until all background save goroutines complete.
// Call during graceful shutdown to avoid dropped writes.
func (s *RoutingService) WaitBackground() {
	s.wgBg.Wait()
}

// Triage classifies a description without routing it
func (s *RoutingService) Triage(ctx context.Context, description, district string) (domain.TriageResult, error) {
	start := s.now()
	result, err := s.provider.Triage(ctx, description, district)
	if err != nil {
		return domain.TriageResult{}, fmt.Errorf("routing: triage failed: %w", err)
	}
	s.metrics.ObserveTriageLatency(result.Source, s.now().Sub(start))
	return result, nil
}

// RouteRequest triages, scores and routes a request. An unavailable backlog
// snapshot routes to the suggested department instead of failing. A
// caller-supplied id that was already submitted is a ValidationError.
func (s *RoutingService) RouteRequest(ctx context.Context, req domain.ServiceRequest) (domain.RoutingDecision, error) {
	district, err := s.districts.ResolveDistrict(req.District)
	if err != nil {
		return domain.RoutingDecision{}, err
	}
	req.District = district

	feedback := req.FeedbackScore()
	if feedback < 1 || feedback > 5 {
		return domain.RoutingDecision{}, domain.NewValidationError("citizen_feedback_score", req.CitizenFeedbackScore, "must be between 1 and 5")
	}
	if req.SubmittedAt.IsZero() {
		req.SubmittedAt = s.now()
	}

	claimed := false
	if req.ID == "" {
		req.ID = s.newID()
	} else {
		if err := s.claimID(ctx, req.ID); err != nil {
			return domain.RoutingDecision{}, err
		}
		claimed = true
	}

	decision, err := s.decide(ctx, req, feedback)
	if err != nil {
		if claimed {
			s.releaseID(req.ID)
		}
		return domain.RoutingDecision{}, err
	}

	s.persist(req, decision, claimed)
	return decision, nil
}

// decide runs triage, scoring and routing for a validated request
func (s *RoutingService) decide(ctx context.Context, req domain.ServiceRequest, feedback int) (domain.RoutingDecision, error) {
	result, err := s.Triage(ctx, req.Description, req.District)
	if err != nil {
		return domain.RoutingDecision{}, err
	}

	priority, err := triage.Score(result.Urgency, feedback, result.EstimatedResolutionDays)
	if err != nil {
		return domain.RoutingDecision{}, fmt.Errorf("routing: scoring failed: %w", err)
	}

	load, err := s.backlog.Snapshot(ctx)
	if err != nil {
		s.metrics.IncrementFallback("backlog")
		s.log.Warn("Backlog unavailable, routing to suggested department",
			zap.String("request_id", req.ID), zap.Error(err))
		load = nil
	}
	department := s.router.Route(result.Category, result.SuggestedDepartment, load)

	decision := domain.RoutingDecision{
		RequestID:               req.ID,
		AssignedDepartment:      department,
		PriorityScore:           priority,
		EstimatedResolutionDays: result.EstimatedResolutionDays,
		Category:                result.Category,
		Urgency:                 result.Urgency,
		District:                req.District,
		CitizenMessage:          citizenMessage(result, department),
		RoutedAt:                s.now(),
	}

	s.metrics.ObserveDecision(string(decision.Category), decision.AssignedDepartment, decision.PriorityScore)
	s.log.Info("Request routed",
		zap.String("request_id", decision.RequestID),
		zap.String("department", decision.AssignedDepartment),
		zap.String("category", string(decision.Category)),
		zap.Int("priority_score", decision.PriorityScore),
		zap.String("source", result.Source),
	)
	return decision, nil
}

// claimID reserves a caller-supplied id. Ids already stored or still being
// persisted are rejected. A failed lookup is logged and the storage
// uniqueness constraint is left to catch duplicates.
func (s *RoutingService) claimID(ctx context.Context, id string) error {
	duplicate := domain.NewValidationError("id", id, "request already submitted")

	s.mu.Lock()
	if _, busy := s.inFlight[id]; busy {
		s.mu.Unlock()
		return duplicate
	}
	s.inFlight[id] = struct{}{}
	s.mu.Unlock()

	exists, err := s.repo.RequestExists(ctx, id)
	if err != nil {
		s.log.Warn("Duplicate check failed", zap.String("request_id", id), zap.Error(err))
		return nil
	}
	if exists {
		s.releaseID(id)
		return duplicate
	}
	return nil
}

func (s *RoutingService) releaseID(id string) {
	s.mu.Lock()
	delete(s.inFlight, id)
	s.mu.Unlock()
}

// persist stores the anonymised request and decision, refreshes the backlog
// snapshot and publishes the decision, without blocking the caller
func (s *RoutingService) persist(req domain.ServiceRequest, decision domain.RoutingDecision, claimed bool) {
	s.wgBg.Add(1)
	go func() {
		defer s.wgBg.Done()
		if claimed {
			defer s.releaseID(req.ID)
		}
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.repo.SaveServiceRequest(bgCtx, security.AnonymizeRequest(req), decision); err != nil {
			s.metrics.IncrementFallback("persist")
			s.log.Error("Failed to save service request", zap.String("request_id", req.ID), zap.Error(err))
		} else if err := s.backlog.Invalidate(bgCtx); err != nil {
			s.log.Warn("Failed to invalidate backlog snapshot", zap.String("request_id", req.ID), zap.Error(err))
		}
		if err := s.repo.SaveRoutingDecision(bgCtx, decision); err != nil {
			s.metrics.IncrementFallback("persist")
			s.log.Error("Failed to save routing decision", zap.String("request_id", req.ID), zap.Error(err))
		}
		if err := s.publisher.PublishRouted(bgCtx, decision); err != nil {
			s.metrics.IncrementFallback("publish")
			s.log.Warn("Failed to publish routing decision", zap.String("request_id", req.ID), zap.Error(err))
		}
	}()
}

func citizenMessage(result domain.TriageResult, department string) string {
	unit := "days"
	if result.EstimatedResolutionDays == 1 {
		unit = "day"
	}
	return fmt.Sprintf("Your %s request has been received and assigned to %s. Expected resolution: %d %s.",
		result.Category, department, result.EstimatedResolutionDays, unit)
}
