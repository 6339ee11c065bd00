// Package metrics exposes Prometheus counters and histograms for the
// Worker Runtime Loop, Tool Executor and Approval Controller (SPEC_FULL.md
// §2.1, §7.1). Grounded in haasonsaas-nexus's internal/observability.Metrics
// (promauto-registered CounterVec/HistogramVec/GaugeVec, one struct field
// per metric, NewMetrics() registering everything once at startup) and
// kadirpekel-hector's pkg/observability.Metrics (same promauto shape).
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every counter and histogram the runtime, executor and
// approval controller report to.
type Metrics struct {
	// Iterations counts runtime loop iterations by worker name and outcome
	// (continue|terminal|interrupted|max_iterations).
	Iterations *prometheus.CounterVec

	// RunDuration measures a full worker run from Run() to its terminal
	// WorkerResult, in seconds.
	RunDuration *prometheus.HistogramVec

	// RunsTotal counts completed runs by worker name and result
	// (completed|error|interrupted).
	RunsTotal *prometheus.CounterVec

	// ToolCalls counts tool executions by tool name and outcome
	// (success|error|denied).
	ToolCalls *prometheus.CounterVec

	// ToolCallDuration measures a single tool Execute call, in seconds.
	ToolCallDuration *prometheus.HistogramVec

	// ApprovalDecisions counts approval resolutions by scope (the
	// decision's Remember value, none|session) and a second label the
	// caller supplies (the CLI passes approved|denied).
	ApprovalDecisions *prometheus.CounterVec

	// DelegationDepth observes the depth reached by sub-worker delegation
	// calls.
	DelegationDepth prometheus.Histogram

	// TokensUsed counts tokens reported by model calls, by worker name and
	// kind (input|output).
	TokensUsed *prometheus.CounterVec
}

// New creates and registers every metric with prometheus's default
// registry. Call once at process startup.
func New() *Metrics {
	return &Metrics{
		Iterations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "golem_forge_runtime_iterations_total",
				Help: "Total number of worker runtime loop iterations by worker and outcome",
			},
			[]string{"worker", "outcome"},
		),

		RunDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "golem_forge_run_duration_seconds",
				Help:    "Duration of a full worker run in seconds",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
			},
			[]string{"worker"},
		),

		RunsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "golem_forge_runs_total",
				Help: "Total number of worker runs by worker and result",
			},
			[]string{"worker", "result"},
		),

		ToolCalls: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "golem_forge_tool_calls_total",
				Help: "Total number of tool calls by tool name and outcome",
			},
			[]string{"tool", "outcome"},
		),

		ToolCallDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "golem_forge_tool_call_duration_seconds",
				Help:    "Duration of a single tool call in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
			},
			[]string{"tool"},
		),

		ApprovalDecisions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "golem_forge_approval_decisions_total",
				Help: "Total number of approval decisions by scope and source",
			},
			[]string{"scope", "source"},
		),

		DelegationDepth: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "golem_forge_delegation_depth",
				Help:    "Depth reached by sub-worker delegation calls",
				Buckets: prometheus.LinearBuckets(0, 1, 10),
			},
		),

		TokensUsed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "golem_forge_tokens_total",
				Help: "Total tokens reported by model calls, by worker and kind",
			},
			[]string{"worker", "kind"},
		),
	}
}

// ObserveToolCall is a convenience helper mirroring the teacher's
// defer-based timing idiom: call it with time.Now() captured at the start
// of Execute.
func (m *Metrics) ObserveToolCall(tool, outcome string, started time.Time) {
	if m == nil {
		return
	}
	m.ToolCalls.WithLabelValues(tool, outcome).Inc()
	m.ToolCallDuration.WithLabelValues(tool).Observe(time.Since(started).Seconds())
}

// ObserveRun records a completed worker run's duration and result.
func (m *Metrics) ObserveRun(worker, result string, started time.Time) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(worker, result).Inc()
	m.RunDuration.WithLabelValues(worker).Observe(time.Since(started).Seconds())
}

// ObserveIteration increments the iteration counter for worker/outcome.
func (m *Metrics) ObserveIteration(worker, outcome string) {
	if m == nil {
		return
	}
	m.Iterations.WithLabelValues(worker, outcome).Inc()
}

// ObserveApproval increments the approval-decision counter.
func (m *Metrics) ObserveApproval(scope, source string) {
	if m == nil {
		return
	}
	m.ApprovalDecisions.WithLabelValues(scope, source).Inc()
}

// ObserveDelegationDepth records the depth a delegation call reached.
func (m *Metrics) ObserveDelegationDepth(depth int) {
	if m == nil {
		return
	}
	m.DelegationDepth.Observe(float64(depth))
}

// ObserveTokens adds to the input/output token counters for worker.
func (m *Metrics) ObserveTokens(worker string, input, output int) {
	if m == nil {
		return
	}
	m.TokensUsed.WithLabelValues(worker, "input").Add(float64(input))
	m.TokensUsed.WithLabelValues(worker, "output").Add(float64(output))
}
