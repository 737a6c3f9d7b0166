package analysis

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/limelight-ai/limelight/config"
	"github.com/limelight-ai/limelight/internal/agent/telemetry"
	"github.com/limelight-ai/limelight/models"
	"github.com/limelight-ai/limelight/provider"
	"github.com/limelight-ai/limelight/utils"
)

// NoDataSummary is returned verbatim when every segment bucket is empty.
const NoDataSummary = "No data to summarize."

// segmentOrder fixes the iteration order so prompts and tool calls are
// deterministic for a given document set.
var segmentOrder = []string{models.SegmentCommunity, models.SegmentNews, models.SegmentMusic}

// Tools is the analytics-service dependency of the analyzer.
type Tools interface {
	Sentiments(ctx context.Context, docs []models.EvidenceDocument) ([]float64, error)
	Persons(ctx context.Context, docs []models.EvidenceDocument) ([]models.Person, error)
	Locations(ctx context.Context, docs []models.EvidenceDocument, query string) ([]models.Location, error)
}

// Result is the analyzer's output: the synthesized summary, the exact prompt
// block it was produced from, and any sentiment spikes found on the way.
type Result struct {
	Summary string
	Prompt  string
	Spikes  []SpikeRecord
}

// segmentSignals holds one segment's tool outputs. A failed tool leaves its
// slice nil, which downstream formatting treats the same as an empty result.
type segmentSignals struct {
	sentiments []float64
	persons    []models.Person
	locations  []models.Location
}

// Analyzer turns the aggregated evidence set into a temporal sentiment
// picture and a synthesized summary. It owns no retrieval state; one call to
// Analyze handles one session's documents.
type Analyzer struct {
	provider  provider.Provider
	tools     Tools
	cutoff    time.Time
	binDays   int
	sigma     float64
	snippets  int
	maxWords  int
	logger    *log.Logger
	telemetry *telemetry.Telemetry
}

func NewAnalyzer(p provider.Provider, tools Tools, cfg config.AnalysisConfig, logger *log.Logger, tele *telemetry.Telemetry) (*Analyzer, error) {
	cutoff, err := time.Parse("2006-01-02", cfg.CutoffDate)
	if err != nil {
		return nil, fmt.Errorf("parsing analysis cutoff date %q: %w", cfg.CutoffDate, err)
	}
	return &Analyzer{
		provider:  p,
		tools:     tools,
		cutoff:    cutoff,
		binDays:   cfg.BinDays,
		sigma:     cfg.SpikeSigma,
		snippets:  cfg.MaxSnippets,
		maxWords:  cfg.MaxPromptWords,
		logger:    logger,
		telemetry: tele,
	}, nil
}

// Analyze partitions the evidence by segment, gathers tool signals, detects
// temporal sentiment spikes and asks the LLM to synthesize the result. Tool
// failures degrade the affected segment; only the final synthesis call can
// fail the whole analysis.
func (a *Analyzer) Analyze(ctx context.Context, query string, docs []models.EvidenceDocument) (Result, error) {
	segments := partition(docs, a.logger)
	if segmentsEmpty(segments) {
		a.logger.Printf("no evidence in any segment, short-circuiting")
		return Result{Summary: NoDataSummary}, nil
	}

	signals := make(map[string]segmentSignals, len(segmentOrder))
	scored := make(map[string][]scoredDoc, len(segmentOrder))
	var dated []datedDoc

	for _, segment := range segmentOrder {
		segDocs := segments[segment]
		if len(segDocs) == 0 {
			continue
		}

		tools := a.selectTools(ctx, query, segment, segDocs)
		a.logger.Printf("segment %s: selected tools %v", segment, tools)

		sig := a.runTools(ctx, query, segment, segDocs, tools)
		signals[segment] = sig

		// Scores pair with docs positionally; a short score list leaves the
		// trailing docs unscored and outside the temporal analysis.
		segScored := attachScores(segDocs, sig.sentiments)
		scored[segment] = segScored
		dated = append(dated, datedAfterCutoff(segScored, a.cutoff)...)
	}

	sort.SliceStable(dated, func(i, j int) bool { return dated[i].date.Before(dated[j].date) })

	bins := buildBins(dated, a.cutoff, a.binDays)
	spikes := detectSpikes(bins, a.sigma)
	a.telemetry.RecordSpikes(len(spikes))
	for _, s := range spikes {
		a.logger.Printf("[SPIKE] %s mean sentiment %.3f", s.Range, s.MeanSentiment)
	}

	block := a.buildBlock(query, scored, signals, spikes)

	start := time.Now()
	summary, err := a.provider.SummarizeInsights(ctx, query, block)
	a.telemetry.RecordLLM("summarize", time.Since(start), err)
	if err != nil {
		return Result{}, fmt.Errorf("insight synthesis: %w", err)
	}
	return Result{Summary: strings.TrimSpace(summary), Prompt: block, Spikes: spikes}, nil
}

// selectTools asks the LLM which analytics tools fit the segment. Any
// failure falls back to sentiment alone, which the temporal analysis needs
// regardless.
func (a *Analyzer) selectTools(ctx context.Context, query, segment string, docs []models.EvidenceDocument) []string {
	start := time.Now()
	tools, err := a.provider.SelectTools(ctx, query, segment, docs)
	a.telemetry.RecordLLM("select_tools", time.Since(start), err)
	if err != nil || len(tools) == 0 {
		a.logger.Printf("segment %s: tool selection failed (%v), defaulting to sentiment", segment, err)
		return []string{"sentiment"}
	}
	for _, t := range tools {
		if t == "sentiment" {
			return tools
		}
	}
	// The temporal view is built from sentiment scores, so sentiment runs
	// no matter what the selector picked.
	return append(tools, "sentiment")
}

func (a *Analyzer) runTools(ctx context.Context, query, segment string, docs []models.EvidenceDocument, tools []string) segmentSignals {
	var sig segmentSignals
	for _, tool := range tools {
		var err error
		switch tool {
		case "sentiment":
			sig.sentiments, err = a.tools.Sentiments(ctx, docs)
		case "ner":
			sig.persons, err = a.tools.Persons(ctx, docs)
		case "geolocation":
			sig.locations, err = a.tools.Locations(ctx, docs, query)
		default:
			a.logger.Printf("segment %s: ignoring unknown tool %q", segment, tool)
			continue
		}
		a.telemetry.RecordToolCall(tool, err)
		if err != nil {
			a.logger.Printf("[TOOL ERROR] %s on segment %s: %v", tool, segment, err)
		}
	}
	return sig
}

// partition splits the evidence set by segment label. Documents with an
// unrecognized label land in the residual bucket, which is logged and then
// excluded from the analysis.
func partition(docs []models.EvidenceDocument, logger *log.Logger) map[string][]models.EvidenceDocument {
	out := make(map[string][]models.EvidenceDocument)
	for _, d := range docs {
		switch d.Segment {
		case models.SegmentCommunity, models.SegmentNews, models.SegmentMusic:
			out[d.Segment] = append(out[d.Segment], d)
		default:
			out[models.SegmentUnknown] = append(out[models.SegmentUnknown], d)
		}
	}
	if n := len(out[models.SegmentUnknown]); n > 0 {
		logger.Printf("dropping %d docs with unknown segment", n)
	}
	logger.Printf("totals | community: %d | news: %d | music: %d",
		len(out[models.SegmentCommunity]), len(out[models.SegmentNews]), len(out[models.SegmentMusic]))
	return out
}

func segmentsEmpty(segments map[string][]models.EvidenceDocument) bool {
	for _, segment := range segmentOrder {
		if len(segments[segment]) > 0 {
			return false
		}
	}
	return true
}

// scoredDoc pairs a document with its sentiment score when one was returned
// for its position.
type scoredDoc struct {
	doc      models.EvidenceDocument
	score    float64
	hasScore bool
}

func attachScores(docs []models.EvidenceDocument, scores []float64) []scoredDoc {
	out := make([]scoredDoc, len(docs))
	for i, d := range docs {
		out[i] = scoredDoc{doc: d}
		if i < len(scores) {
			out[i].score = scores[i]
			out[i].hasScore = true
		}
	}
	return out
}

func (s scoredDoc) label() string {
	switch {
	case !s.hasScore:
		return "UNK"
	case s.score < 0:
		return "NEG"
	default:
		return "POS"
	}
}

// buildBlock renders the context block the synthesis prompt is built from:
// tool signals, representative snippets per segment, and spike records. The
// whole block is capped by the whitespace-token guard.
func (a *Analyzer) buildBlock(query string, scored map[string][]scoredDoc, signals map[string]segmentSignals, spikes []SpikeRecord) string {
	var b strings.Builder

	b.WriteString("=== TOOL SIGNALS ===\n")
	b.WriteString(renderToolSignals(signals))

	b.WriteString("\n\n=== DOC SNIPPETS ===\n")
	sections := []string{
		renderSection("Community View", pickSnippets(scored[models.SegmentCommunity], a.snippets)),
		renderSection("News View", pickSnippets(scored[models.SegmentNews], a.snippets)),
		renderSection("Music View", pickSnippets(scored[models.SegmentMusic], a.snippets)),
	}
	b.WriteString(strings.Join(sections, "\n\n"))

	b.WriteString("\n\n=== SENTIMENT SPIKES AND RELATED DOCUMENTS ===\n")
	b.WriteString(renderSpikes(spikes))

	return utils.CapWords(b.String(), a.maxWords)
}
