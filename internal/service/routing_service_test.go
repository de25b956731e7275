package service

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smartcity/governance/internal/domain"
	"github.com/smartcity/governance/internal/platform/metrics"
	"github.com/smartcity/governance/internal/repository/postgres"
	"github.com/smartcity/governance/internal/security"
	"github.com/smartcity/governance/internal/triage"
)

var fixedNow = time.Date(2024, 7, 15, 10, 30, 0, 0, time.UTC)

type routingFixture struct {
	svc       *RoutingService
	repo      *postgres.MockRepository
	publisher *fakePublisher
	metrics   *metrics.Metrics
}

func newRoutingFixture(t *testing.T, backlog BacklogProvider) *routingFixture {
	t.Helper()

	rs := triage.DefaultRuleSet()
	classifier, err := triage.NewClassifier(rs)
	require.NoError(t, err)

	repo := postgres.NewMockRepository()
	if backlog == nil {
		backlog = NewBacklogService(repo, nil, zap.NewNop())
	}
	publisher := &fakePublisher{}
	m := metrics.NewWith(prometheus.NewRegistry())

	svc := NewRoutingService(
		classifier,
		triage.NewRuleProvider(classifier),
		triage.NewRouter(rs.Departments),
		backlog,
		repo,
		publisher,
		m,
		zap.NewNop(),
	)
	svc.now = func() time.Time { return fixedNow }
	svc.newID = func() string { return "generated-id" }

	t.Cleanup(svc.WaitBackground)
	return &routingFixture{svc: svc, repo: repo, publisher: publisher, metrics: m}
}

func TestRouteRequestUsesLiveBacklog(t *testing.T) {
	f := newRoutingFixture(t, nil)
	f.repo.Seed(domain.DepartmentLoad{"Water Supply Department": 14, "Public Works Department": 9})

	decision, err := f.svc.RouteRequest(context.Background(), domain.ServiceRequest{
		ID:          "REQ_001",
		Description: "water pipe leak near my house",
		District:    "pune",
	})
	require.NoError(t, err)

	assert.Equal(t, "REQ_001", decision.RequestID)
	assert.Equal(t, "Public Works Department", decision.AssignedDepartment)
	assert.Equal(t, domain.CategoryInfrastructure, decision.Category)
	assert.Equal(t, domain.UrgencyHigh, decision.Urgency)
	assert.Equal(t, 75, decision.PriorityScore)
	assert.Equal(t, 3, decision.EstimatedResolutionDays)
	assert.Equal(t, "Pune", decision.District)
	assert.Equal(t, fixedNow, decision.RoutedAt)
	assert.Equal(t,
		"Your infrastructure request has been received and assigned to Public Works Department. Expected resolution: 3 days.",
		decision.CitizenMessage)
}

func TestRouteRequestEmptyBacklogUsesSuggestion(t *testing.T) {
	f := newRoutingFixture(t, nil)

	decision, err := f.svc.RouteRequest(context.Background(), domain.ServiceRequest{
		Description:          "no doctor at the clinic",
		District:             "Mumbai",
		CitizenFeedbackScore: 5,
	})
	require.NoError(t, err)

	assert.Equal(t, "generated-id", decision.RequestID)
	assert.Equal(t, "Health Services", decision.AssignedDepartment)
	assert.Equal(t, 100, decision.PriorityScore)
	assert.Contains(t, decision.CitizenMessage, "Expected resolution: 1 day.")
}

func TestRouteRequestBacklogFailureDegrades(t *testing.T) {
	f := newRoutingFixture(t, fakeBacklog{err: errUnavailable})

	decision, err := f.svc.RouteRequest(context.Background(), domain.ServiceRequest{
		Description: "pothole on the street",
		District:    "Nagpur",
	})
	require.NoError(t, err)

	assert.Equal(t, "Public Works Department", decision.AssignedDepartment)
	assert.Equal(t, 42, decision.PriorityScore)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Fallbacks.WithLabelValues("backlog")))
}

func TestRouteRequestEmptyDescription(t *testing.T) {
	f := newRoutingFixture(t, nil)

	decision, err := f.svc.RouteRequest(context.Background(), domain.ServiceRequest{District: "Nashik"})
	require.NoError(t, err)

	assert.Equal(t, domain.CategoryGeneral, decision.Category)
	assert.Equal(t, domain.UrgencyMedium, decision.Urgency)
	assert.Equal(t, "General Administration", decision.AssignedDepartment)
	assert.Equal(t, 46, decision.PriorityScore)
}

func TestRouteRequestValidation(t *testing.T) {
	tests := []struct {
		name  string
		req   domain.ServiceRequest
		field string
	}{
		{
			name:  "unknown district",
			req:   domain.ServiceRequest{Description: "help", District: "Atlantis"},
			field: "district",
		},
		{
			name:  "feedback out of range",
			req:   domain.ServiceRequest{Description: "help", District: "Pune", CitizenFeedbackScore: 9},
			field: "citizen_feedback_score",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRoutingFixture(t, nil)

			_, err := f.svc.RouteRequest(context.Background(), tt.req)
			var ve *domain.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)

			f.svc.WaitBackground()
			assert.Empty(t, f.repo.Requests())
			assert.Empty(t, f.publisher.Published())
		})
	}
}

func TestRouteRequestPersistsAnonymisedRequest(t *testing.T) {
	f := newRoutingFixture(t, nil)

	decision, err := f.svc.RouteRequest(context.Background(), domain.ServiceRequest{
		ID:          "REQ_007",
		Description: "street light broken",
		District:    "Aurangabad",
		CitizenID:   "CIT-42",
		Phone:       "+91 98200 00000",
	})
	require.NoError(t, err)
	f.svc.WaitBackground()

	requests := f.repo.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, security.HashID("CIT-42"), requests[0].CitizenID)
	assert.Equal(t, security.Redacted, requests[0].Phone)
	assert.Equal(t, fixedNow, requests[0].SubmittedAt)

	recent, err := f.repo.RecentDecisions(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, []domain.RoutingDecision{decision}, recent)
	assert.Equal(t, []domain.RoutingDecision{decision}, f.publisher.Published())

	load, err := f.repo.PendingBacklog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, load["Public Works Department"])
}

func TestRouteRequestPublishFailureIsNotReturned(t *testing.T) {
	f := newRoutingFixture(t, nil)
	f.publisher.err = errUnavailable

	_, err := f.svc.RouteRequest(context.Background(), domain.ServiceRequest{Description: "leak", District: "Pune"})
	require.NoError(t, err)
	f.svc.WaitBackground()

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Fallbacks.WithLabelValues("publish")))
}

func TestRouteRequestRejectsDuplicateID(t *testing.T) {
	f := newRoutingFixture(t, nil)
	req := domain.ServiceRequest{ID: "REQ-1", Description: "water pipe leak", District: "Pune"}

	_, err := f.svc.RouteRequest(context.Background(), req)
	require.NoError(t, err)

	_, err = f.svc.RouteRequest(context.Background(), req)
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "id", ve.Field)

	f.svc.WaitBackground()

	_, err = f.svc.RouteRequest(context.Background(), req)
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "id", ve.Field)
	f.svc.WaitBackground()

	assert.Len(t, f.repo.Requests(), 1)
	recent, err := f.repo.RecentDecisions(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
	load, err := f.repo.PendingBacklog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.DepartmentLoad{"Water Supply Department": 1}, load)
	assert.Len(t, f.publisher.Published(), 1)
}

func TestRouteRequestFailedRoutingReleasesID(t *testing.T) {
	f := newRoutingFixture(t, nil)
	f.svc.provider = failingProvider{}

	req := domain.ServiceRequest{ID: "REQ-2", Description: "leak", District: "Pune"}
	_, err := f.svc.RouteRequest(context.Background(), req)
	require.ErrorIs(t, err, errUnavailable)

	classifier, err := triage.NewClassifier(triage.DefaultRuleSet())
	require.NoError(t, err)
	f.svc.provider = triage.NewRuleProvider(classifier)

	_, err = f.svc.RouteRequest(context.Background(), req)
	require.NoError(t, err)
}

type failingProvider struct{}

func (failingProvider) Triage(context.Context, string, string) (domain.TriageResult, error) {
	return domain.TriageResult{}, errUnavailable
}

func TestRouteRequestRefreshesCachedBacklog(t *testing.T) {
	cache := &fakeCache{}
	f := newRoutingFixture(t, nil)
	f.repo.Seed(domain.DepartmentLoad{"Water Supply Department": 5, "Public Works Department": 5})
	f.svc.backlog = NewBacklogService(f.repo, cache, zap.NewNop())

	first, err := f.svc.RouteRequest(context.Background(), domain.ServiceRequest{ID: "A", Description: "water pipe leak", District: "Pune"})
	require.NoError(t, err)
	assert.Equal(t, "Public Works Department", first.AssignedDepartment)
	f.svc.WaitBackground()
	assert.Equal(t, 1, cache.Invalidations())

	second, err := f.svc.RouteRequest(context.Background(), domain.ServiceRequest{ID: "B", Description: "water pipe leak", District: "Pune"})
	require.NoError(t, err)
	assert.Equal(t, "Water Supply Department", second.AssignedDepartment)
}

func TestTriage(t *testing.T) {
	f := newRoutingFixture(t, nil)

	result, err := f.svc.Triage(context.Background(), "", "Mumbai")
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryGeneral, result.Category)
	assert.Equal(t, domain.UrgencyMedium, result.Urgency)

	_, err = f.svc.Triage(context.Background(), "help", "Atlantis")
	assert.True(t, domain.IsValidationError(err))
}
