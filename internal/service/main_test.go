package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/goleak"
	"google.golang.org/genai"

	"github.com/smartcity/governance/internal/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeGenerator struct {
	mu     sync.Mutex
	text   string
	err    error
	calls  int
	prompt string
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.prompt = contents[0].Parts[0].Text
	}
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: genai.NewContentFromText(f.text, genai.RoleModel)}},
	}, nil
}

func (f *fakeGenerator) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakePublisher struct {
	mu        sync.Mutex
	decisions []domain.RoutingDecision
	err       error
}

func (f *fakePublisher) PublishRouted(ctx context.Context, d domain.RoutingDecision) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.decisions = append(f.decisions, d)
	return f.err
}

func (f *fakePublisher) Published() []domain.RoutingDecision {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.RoutingDecision(nil), f.decisions...)
}

type fakeBacklog struct {
	load domain.DepartmentLoad
	err  error
}

func (f fakeBacklog) Snapshot(context.Context) (domain.DepartmentLoad, error) {
	return f.load, f.err
}

func (f fakeBacklog) Invalidate(context.Context) error { return nil }

type fakeCache struct {
	mu      sync.Mutex
	load    domain.DepartmentLoad
	ok      bool
	getErr  error
	setErr  error
	setHits int

	invalidateErr  error
	invalidateHits int
}

func (f *fakeCache) Get(context.Context) (domain.DepartmentLoad, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.load, f.ok, f.getErr
}

func (f *fakeCache) Set(_ context.Context, load domain.DepartmentLoad) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setHits++
	if f.setErr != nil {
		return f.setErr
	}
	f.load, f.ok = load, true
	return nil
}

func (f *fakeCache) Invalidate(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidateHits++
	if f.invalidateErr != nil {
		return f.invalidateErr
	}
	f.load, f.ok = nil, false
	return nil
}

func (f *fakeCache) Invalidations() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.invalidateHits
}

var errUnavailable = errors.New("unavailable")
