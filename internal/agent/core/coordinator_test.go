package core

import (
	"context"
	"errors"
	"io"
	"log"
	"sync/atomic"
	"testing"
	"time"

	"github.com/limelight-ai/limelight/models"
)

type fakeProvider struct {
	classification models.Classification
	classifyErr    error
	optimized      string
	optimizeErr    error
}

func (f *fakeProvider) ClassifyParticipants(ctx context.Context, query string) (models.Classification, error) {
	return f.classification, f.classifyErr
}

func (f *fakeProvider) OptimizeQuery(ctx context.Context, query string, history []string) (string, error) {
	return f.optimized, f.optimizeErr
}

func (f *fakeProvider) SelectTools(ctx context.Context, query, segment string, docs []models.EvidenceDocument) ([]string, error) {
	return []string{"sentiment"}, nil
}

func (f *fakeProvider) SummarizeInsights(ctx context.Context, query, block string) (string, error) {
	return "summary", nil
}

func (f *fakeProvider) Narrate(ctx context.Context, query, summary string) (models.Narrative, error) {
	return models.Narrative{}, nil
}

type stubSearcher struct {
	docs  []models.EvidenceDocument
	err   error
	delay time.Duration
	calls int32
}

func (s *stubSearcher) Search(ctx context.Context, query string, collections []string, topK int) ([]models.EvidenceDocument, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.docs, s.err
}

func nDocs(n int, source string) []models.EvidenceDocument {
	docs := make([]models.EvidenceDocument, n)
	for i := range docs {
		docs[i] = models.EvidenceDocument{Source: source, Document: "doc", Distance: 0.1}
	}
	return docs
}

func quietLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func newTestCoordinator(p *fakeProvider, searchers map[AgentType]*stubSearcher) *Coordinator {
	logger := quietLogger()
	agents := make(map[AgentType]*RetrievalAgent, len(searchers))
	for t, s := range searchers {
		agents[t] = NewRetrievalAgent(t, []string{"c"}, 6, s, logger)
	}
	return NewCoordinator(NewClassifier(p, logger, nil), agents, time.Second, logger, nil)
}

func TestJoinOccursWhenAllParticipantsComplete(t *testing.T) {
	p := &fakeProvider{
		classification: models.Classification{Agents: []string{"community_engagement_agent", "music_industry_agent"}},
		optimized:      "\"Artist X\" tour",
	}
	community := &stubSearcher{docs: nDocs(3, "reddit_embeddings"), delay: 20 * time.Millisecond}
	music := &stubSearcher{docs: nDocs(2, "billboard_embeddings")}
	coord := newTestCoordinator(p, map[AgentType]*stubSearcher{
		AgentCommunity: community,
		AgentMusic:     music,
	})

	sess := NewQuerySession("What's going on with Artist X's tour?", nil)
	returns, err := coord.Run(context.Background(), sess)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.State() != StateJoined {
		t.Fatalf("expected joined state, got %s", sess.State())
	}
	if len(returns) != 2 {
		t.Fatalf("expected join at count 2, got %d", len(returns))
	}
	docs := Aggregate(returns)
	if len(docs) != 5 {
		t.Fatalf("expected 5 aggregated docs, got %d", len(docs))
	}
	segments := make(map[string]int)
	for _, d := range docs {
		segments[d.Segment]++
	}
	if segments[models.SegmentCommunity] != 3 || segments[models.SegmentMusic] != 2 {
		t.Fatalf("unexpected segment counts: %v", segments)
	}
	if sess.OptQuery != "\"Artist X\" tour" {
		t.Fatalf("expected optimized query on session, got %q", sess.OptQuery)
	}
}

func TestEmptyParticipantSetJoinsImmediately(t *testing.T) {
	p := &fakeProvider{classification: models.Classification{Agents: nil}, optimized: "q"}
	searcher := &stubSearcher{docs: nDocs(1, "x")}
	coord := newTestCoordinator(p, map[AgentType]*stubSearcher{AgentNews: searcher})

	sess := NewQuerySession("anything", nil)
	returns, err := coord.Run(context.Background(), sess)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(returns) != 0 {
		t.Fatalf("expected no results, got %d", len(returns))
	}
	if sess.State() != StateJoined {
		t.Fatalf("expected immediate join, got %s", sess.State())
	}
	if atomic.LoadInt32(&searcher.calls) != 0 {
		t.Fatalf("expected no agent dispatch, got %d calls", searcher.calls)
	}
}

func TestFailedAgentStillSatisfiesJoin(t *testing.T) {
	p := &fakeProvider{
		classification: models.Classification{Agents: []string{"community_engagement_agent", "news_agent"}},
		optimized:      "q",
	}
	community := &stubSearcher{docs: nDocs(2, "reddit_embeddings")}
	news := &stubSearcher{err: errors.New("connection refused")}
	coord := newTestCoordinator(p, map[AgentType]*stubSearcher{
		AgentCommunity: community,
		AgentNews:      news,
	})

	sess := NewQuerySession("q", nil)
	returns, err := coord.Run(context.Background(), sess)
	if err != nil {
		t.Fatalf("agent failure must not fail the session: %v", err)
	}
	if len(returns) != 2 {
		t.Fatalf("expected join at count 2 despite failure, got %d", len(returns))
	}
	var failed *AgentReturn
	for i := range returns {
		if returns[i].Agent == AgentNews {
			failed = &returns[i]
		}
	}
	if failed == nil || failed.Err == nil || len(failed.Docs) != 0 {
		t.Fatalf("expected empty errored entry for news agent, got %+v", failed)
	}
	if got := len(Aggregate(returns)); got != 2 {
		t.Fatalf("expected aggregation over surviving docs only, got %d", got)
	}
}

func TestNoDuplicateDispatch(t *testing.T) {
	p := &fakeProvider{
		classification: models.Classification{Agents: []string{
			"community_engagement_agent", "news_agent", "music_industry_agent",
			"community_engagement_agent", // classifier repeated itself
		}},
		optimized: "q",
	}
	searchers := map[AgentType]*stubSearcher{
		AgentCommunity: {docs: nDocs(1, "a"), delay: 5 * time.Millisecond},
		AgentNews:      {docs: nDocs(1, "b"), delay: 15 * time.Millisecond},
		AgentMusic:     {docs: nDocs(1, "c"), delay: 30 * time.Millisecond},
	}
	coord := newTestCoordinator(p, searchers)

	sess := NewQuerySession("q", nil)
	if _, err := coord.Run(context.Background(), sess); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sess.Participants) != 3 {
		t.Fatalf("expected deduped participant set of 3, got %v", sess.Participants)
	}
	for typ, s := range searchers {
		if got := atomic.LoadInt32(&s.calls); got != 1 {
			t.Fatalf("agent %s dispatched %d times, want exactly once", typ, got)
		}
	}
	if got := len(sess.DispatchedSet()); got != 3 {
		t.Fatalf("expected dispatched set of 3, got %d", got)
	}
}

func TestClassificationFailureIsFatal(t *testing.T) {
	p := &fakeProvider{classifyErr: errors.New("backend unavailable")}
	coord := newTestCoordinator(p, map[AgentType]*stubSearcher{})

	sess := NewQuerySession("q", nil)
	if _, err := coord.Run(context.Background(), sess); err == nil {
		t.Fatalf("expected classification failure to surface")
	}
	if sess.State() == StateJoined {
		t.Fatalf("session must not join after fatal classification failure")
	}
}
