package telemetry

import (
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/limelight-ai/limelight/config"
)

// Telemetry records operational metrics for sessions, retrieval agents,
// analytic tool calls and LLM requests. Collectors are registered on the
// registerer handed in by the caller; the server passes the default
// registerer so everything shows up on /metrics.
type Telemetry struct {
	config config.TelemetryConfig
	logger *log.Logger

	sessionsTotal   prometheus.Counter
	agentDispatches *prometheus.CounterVec
	agentFailures   *prometheus.CounterVec
	agentDuration   *prometheus.HistogramVec
	toolCalls       *prometheus.CounterVec
	llmRequests     *prometheus.CounterVec
	llmDuration     *prometheus.HistogramVec
	spikesDetected  prometheus.Counter
}

// NewTelemetry creates a telemetry instance. Returns nil when telemetry is
// disabled; all Record methods are nil-safe.
func NewTelemetry(cfg config.TelemetryConfig, logger *log.Logger, reg prometheus.Registerer) *Telemetry {
	if !cfg.Enabled {
		return nil
	}
	t := &Telemetry{
		config: cfg,
		logger: logger,
		sessionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "limelight_sessions_total",
			Help: "Number of query sessions processed.",
		}),
		agentDispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "limelight_agent_dispatches_total",
			Help: "Retrieval agent dispatches by agent type.",
		}, []string{"agent"}),
		agentFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "limelight_agent_failures_total",
			Help: "Retrieval agent failures by agent type.",
		}, []string{"agent"}),
		agentDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "limelight_agent_duration_seconds",
			Help:    "Retrieval agent call duration by agent type.",
			Buckets: prometheus.DefBuckets,
		}, []string{"agent"}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "limelight_tool_calls_total",
			Help: "Analytic tool calls by tool and outcome.",
		}, []string{"tool", "outcome"}),
		llmRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "limelight_llm_requests_total",
			Help: "LLM backend requests by operation and outcome.",
		}, []string{"operation", "outcome"}),
		llmDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "limelight_llm_request_duration_seconds",
			Help:    "LLM backend request duration by operation.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"operation"}),
		spikesDetected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "limelight_sentiment_spikes_total",
			Help: "Sentiment spikes flagged across all analyses.",
		}),
	}
	reg.MustRegister(
		t.sessionsTotal,
		t.agentDispatches,
		t.agentFailures,
		t.agentDuration,
		t.toolCalls,
		t.llmRequests,
		t.llmDuration,
		t.spikesDetected,
	)
	return t
}

func (t *Telemetry) RecordSession() {
	if t == nil {
		return
	}
	t.sessionsTotal.Inc()
}

func (t *Telemetry) RecordAgent(agent string, d time.Duration, err error) {
	if t == nil {
		return
	}
	t.agentDispatches.WithLabelValues(agent).Inc()
	t.agentDuration.WithLabelValues(agent).Observe(d.Seconds())
	if err != nil {
		t.agentFailures.WithLabelValues(agent).Inc()
	}
}

func (t *Telemetry) RecordToolCall(tool string, err error) {
	if t == nil {
		return
	}
	t.toolCalls.WithLabelValues(tool, outcome(err)).Inc()
}

func (t *Telemetry) RecordLLM(operation string, d time.Duration, err error) {
	if t == nil {
		return
	}
	t.llmRequests.WithLabelValues(operation, outcome(err)).Inc()
	t.llmDuration.WithLabelValues(operation).Observe(d.Seconds())
}

func (t *Telemetry) RecordSpikes(n int) {
	if t == nil || n <= 0 {
		return
	}
	t.spikesDetected.Add(float64(n))
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
