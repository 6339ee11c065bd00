package metrics

import (
	"testing"
	"time"
)

// New registers with prometheus's default registry, so the whole suite
// shares a single instance (grounded in the teacher's metrics_test.go
// note: "Don't call NewMetrics() here ... registers with default
// registry").
var testMetrics = New()

func TestObserveToolCallDoesNotPanic(t *testing.T) {
	testMetrics.ObserveToolCall("read_file", "success", time.Now())
}

func TestObserveRunDoesNotPanic(t *testing.T) {
	testMetrics.ObserveRun("reviewer", "completed", time.Now())
}

func TestObserveIterationDoesNotPanic(t *testing.T) {
	testMetrics.ObserveIteration("reviewer", "continue")
}

func TestObserveApprovalDoesNotPanic(t *testing.T) {
	testMetrics.ObserveApproval("session", "interactive")
}

func TestObserveDelegationDepthDoesNotPanic(t *testing.T) {
	testMetrics.ObserveDelegationDepth(3)
}

func TestObserveTokensDoesNotPanic(t *testing.T) {
	testMetrics.ObserveTokens("reviewer", 120, 45)
}

func TestNilMetricsIsSafeToCall(t *testing.T) {
	var m *Metrics
	m.ObserveToolCall("read_file", "success", time.Now())
	m.ObserveRun("reviewer", "completed", time.Now())
	m.ObserveIteration("reviewer", "continue")
	m.ObserveApproval("session", "interactive")
	m.ObserveDelegationDepth(1)
	m.ObserveTokens("reviewer", 1, 1)
}
