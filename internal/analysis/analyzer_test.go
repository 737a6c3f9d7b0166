package analysis

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/limelight-ai/limelight/config"
	"github.com/limelight-ai/limelight/models"
)

type stubProvider struct {
	tools        []string
	toolsErr     error
	summary      string
	summarizeErr error

	lastBlock string
}

func (s *stubProvider) ClassifyParticipants(ctx context.Context, query string) (models.Classification, error) {
	return models.Classification{}, nil
}

func (s *stubProvider) OptimizeQuery(ctx context.Context, query string, history []string) (string, error) {
	return query, nil
}

func (s *stubProvider) SelectTools(ctx context.Context, query, segment string, docs []models.EvidenceDocument) ([]string, error) {
	return s.tools, s.toolsErr
}

func (s *stubProvider) SummarizeInsights(ctx context.Context, query, block string) (string, error) {
	s.lastBlock = block
	return s.summary, s.summarizeErr
}

func (s *stubProvider) Narrate(ctx context.Context, query, summary string) (models.Narrative, error) {
	return models.Narrative{}, nil
}

type stubTools struct {
	sentiments    map[string][]float64
	sentimentsErr error
	persons       []models.Person
	locations     []models.Location

	sentimentCalls int
}

func (s *stubTools) Sentiments(ctx context.Context, docs []models.EvidenceDocument) ([]float64, error) {
	s.sentimentCalls++
	if s.sentimentsErr != nil {
		return nil, s.sentimentsErr
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return s.sentiments[docs[0].Segment], nil
}

func (s *stubTools) Persons(ctx context.Context, docs []models.EvidenceDocument) ([]models.Person, error) {
	return s.persons, nil
}

func (s *stubTools) Locations(ctx context.Context, docs []models.EvidenceDocument, query string) ([]models.Location, error) {
	return s.locations, nil
}

func testAnalysisConfig() config.AnalysisConfig {
	return config.AnalysisConfig{
		CutoffDate:     "2024-06-07",
		BinDays:        14,
		SpikeSigma:     2.0,
		MaxSnippets:    3,
		MaxPromptWords: 1500,
	}
}

func newTestAnalyzer(t *testing.T, p *stubProvider, tools *stubTools) *Analyzer {
	t.Helper()
	a, err := NewAnalyzer(p, tools, testAnalysisConfig(), log.New(io.Discard, "", 0), nil)
	if err != nil {
		t.Fatalf("NewAnalyzer: %v", err)
	}
	return a
}

func communityDoc(text, date string) models.EvidenceDocument {
	return models.EvidenceDocument{
		Segment:  models.SegmentCommunity,
		Source:   "reddit_embeddings",
		Document: text,
		Metadata: map[string]interface{}{"date": date, "title": "Post"},
	}
}

func TestAnalyzeNoDataShortCircuit(t *testing.T) {
	p := &stubProvider{summary: "should not be called"}
	tools := &stubTools{}
	a := newTestAnalyzer(t, p, tools)

	res, err := a.Analyze(context.Background(), "q", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Summary != NoDataSummary {
		t.Fatalf("summary = %q, want %q", res.Summary, NoDataSummary)
	}
	if tools.sentimentCalls != 0 || p.lastBlock != "" {
		t.Fatalf("no tools or LLM calls expected on empty input")
	}
}

func TestAnalyzeUnknownSegmentDocsAreDropped(t *testing.T) {
	p := &stubProvider{summary: "s"}
	a := newTestAnalyzer(t, p, &stubTools{})

	docs := []models.EvidenceDocument{{Segment: "video", Document: "stray"}}
	res, err := a.Analyze(context.Background(), "q", docs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Summary != NoDataSummary {
		t.Fatalf("unknown-only input must short-circuit, got %q", res.Summary)
	}
}

func TestAnalyzeToolSelectionFailureDefaultsToSentiment(t *testing.T) {
	p := &stubProvider{toolsErr: errors.New("llm down"), summary: "ok"}
	tools := &stubTools{sentiments: map[string][]float64{models.SegmentCommunity: {0.4}}}
	a := newTestAnalyzer(t, p, tools)

	_, err := a.Analyze(context.Background(), "q", []models.EvidenceDocument{communityDoc("text", "2024-07-01")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tools.sentimentCalls != 1 {
		t.Fatalf("sentiment must still run when selection fails, got %d calls", tools.sentimentCalls)
	}
}

func TestAnalyzeSentimentRunsEvenWhenSelectorOmitsIt(t *testing.T) {
	// A backend that picks only ner must not disable the temporal view.
	p := &stubProvider{tools: []string{"ner"}, summary: "ok"}
	tools := &stubTools{sentiments: map[string][]float64{models.SegmentCommunity: {0.4}}}
	a := newTestAnalyzer(t, p, tools)

	_, err := a.Analyze(context.Background(), "q", []models.EvidenceDocument{communityDoc("text", "2024-07-01")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tools.sentimentCalls != 1 {
		t.Fatalf("sentiment requested %d times, want 1", tools.sentimentCalls)
	}
}

func TestAnalyzeToolFailureDegradesSegment(t *testing.T) {
	p := &stubProvider{tools: []string{"sentiment"}, summary: "ok"}
	tools := &stubTools{sentimentsErr: errors.New("connection refused")}
	a := newTestAnalyzer(t, p, tools)

	res, err := a.Analyze(context.Background(), "q", []models.EvidenceDocument{communityDoc("text", "2024-07-01")})
	if err != nil {
		t.Fatalf("tool failure must not fail the analysis: %v", err)
	}
	if res.Summary != "ok" {
		t.Fatalf("summary = %q", res.Summary)
	}
	if len(res.Spikes) != 0 {
		t.Fatalf("no scores means no spikes, got %v", res.Spikes)
	}
}

func TestAnalyzeSynthesisErrorSurfaces(t *testing.T) {
	p := &stubProvider{tools: []string{"sentiment"}, summarizeErr: errors.New("backend gone")}
	tools := &stubTools{sentiments: map[string][]float64{models.SegmentCommunity: {0.4}}}
	a := newTestAnalyzer(t, p, tools)

	if _, err := a.Analyze(context.Background(), "q", []models.EvidenceDocument{communityDoc("t", "2024-07-01")}); err == nil {
		t.Fatalf("expected synthesis error to surface")
	}
}

func TestAnalyzeShortScoreListLeavesTrailingDocsUnbinned(t *testing.T) {
	p := &stubProvider{tools: []string{"sentiment"}, summary: "ok"}
	// Two docs, one score: the second doc must not enter the temporal view.
	tools := &stubTools{sentiments: map[string][]float64{models.SegmentCommunity: {0.5}}}
	a := newTestAnalyzer(t, p, tools)

	docs := []models.EvidenceDocument{
		communityDoc("first", "2024-07-01"),
		communityDoc("second", "2024-09-01"),
	}
	res, err := a.Analyze(context.Background(), "q", docs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// A single bin can never spike; two bins with means 0.5 and anything
	// else could. No spike proves the second doc was dropped.
	if len(res.Spikes) != 0 {
		t.Fatalf("trailing unscored doc leaked into binning: %v", res.Spikes)
	}
}

func TestAnalyzeDetectsSpikeEndToEnd(t *testing.T) {
	p := &stubProvider{tools: []string{"sentiment"}, summary: "synthesized"}
	// Six fortnights, flat except the last one.
	dates := []string{"2024-06-10", "2024-06-24", "2024-07-08", "2024-07-22", "2024-08-05", "2024-08-19"}
	scores := []float64{0, 0, 0, 0, 0, 0.6}
	docs := make([]models.EvidenceDocument, len(dates))
	for i, d := range dates {
		docs[i] = communityDoc("doc "+d, d)
	}
	tools := &stubTools{sentiments: map[string][]float64{models.SegmentCommunity: scores}}
	a := newTestAnalyzer(t, p, tools)

	res, err := a.Analyze(context.Background(), "q", docs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Spikes) != 1 {
		t.Fatalf("got %d spikes, want 1", len(res.Spikes))
	}
	if res.Spikes[0].Range != "2024-08-16 to 2024-08-29" {
		t.Fatalf("spike range = %q", res.Spikes[0].Range)
	}
	if !strings.Contains(p.lastBlock, "=== SENTIMENT SPIKES AND RELATED DOCUMENTS ===") {
		t.Fatalf("spike section missing from synthesis block")
	}
	if res.Prompt != p.lastBlock {
		t.Fatalf("result must carry the exact synthesis block")
	}
	if res.Summary != "synthesized" {
		t.Fatalf("summary = %q", res.Summary)
	}
}
