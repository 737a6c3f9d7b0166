package provider

import (
	"context"
	"sync"

	"github.com/limelight-ai/limelight/models"
)

// Serialized wraps a Provider in a mutex so that concurrently running agents
// queue for the backend instead of issuing overlapping calls. The backend is
// a single stateful shared resource; treat it as a pool of size one.
func Serialized(p Provider) Provider {
	return &serialized{inner: p}
}

type serialized struct {
	mu    sync.Mutex
	inner Provider
}

func (s *serialized) ClassifyParticipants(ctx context.Context, query string) (models.Classification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.ClassifyParticipants(ctx, query)
}

func (s *serialized) OptimizeQuery(ctx context.Context, query string, history []string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.OptimizeQuery(ctx, query, history)
}

func (s *serialized) SelectTools(ctx context.Context, query, segment string, docs []models.EvidenceDocument) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.SelectTools(ctx, query, segment, docs)
}

func (s *serialized) SummarizeInsights(ctx context.Context, query, block string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.SummarizeInsights(ctx, query, block)
}

func (s *serialized) Narrate(ctx context.Context, query, summary string) (models.Narrative, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Narrate(ctx, query, summary)
}
