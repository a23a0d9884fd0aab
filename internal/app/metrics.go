package app

import (
	"sync/atomic"
	"time"
)

// Metrics tracks session counters. All methods are safe for concurrent use.
type Metrics struct {
	// Evaluations
	evalCount   atomic.Uint64
	evalFailed  atomic.Uint64
	evalTotalNs atomic.Int64
	evalMaxNs   atomic.Int64

	// Input handling
	inputCount   atomic.Uint64
	inputTotalNs atomic.Int64

	// Transcript lines written through the log sinks
	loggedLines atomic.Uint64

	// Start time for uptime calculation
	startTime time.Time
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// RecordEval records a settled evaluation.
func (m *Metrics) RecordEval(duration time.Duration, failed bool) {
	ns := duration.Nanoseconds()
	m.evalCount.Add(1)
	m.evalTotalNs.Add(ns)
	if failed {
		m.evalFailed.Add(1)
	}

	// Update max (atomic compare-and-swap loop)
	for {
		old := m.evalMaxNs.Load()
		if ns <= old {
			break
		}
		if m.evalMaxNs.CompareAndSwap(old, ns) {
			break
		}
	}
}

// RecordInput records input processing timing.
func (m *Metrics) RecordInput(duration time.Duration) {
	m.inputCount.Add(1)
	m.inputTotalNs.Add(duration.Nanoseconds())
}

// RecordLogged counts a line written through a log sink.
func (m *Metrics) RecordLogged() {
	m.loggedLines.Add(1)
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	evalCount := m.evalCount.Load()
	inputCount := m.inputCount.Load()

	var avgEvalNs int64
	if evalCount > 0 {
		avgEvalNs = m.evalTotalNs.Load() / int64(evalCount)
	}

	var avgInputNs int64
	if inputCount > 0 {
		avgInputNs = m.inputTotalNs.Load() / int64(inputCount)
	}

	return MetricsSnapshot{
		Uptime:         time.Since(m.startTime),
		EvalCount:      evalCount,
		EvalFailed:     m.evalFailed.Load(),
		AvgEvalNs:      avgEvalNs,
		MaxEvalNs:      m.evalMaxNs.Load(),
		InputCount:     inputCount,
		AvgInputTimeNs: avgInputNs,
		LoggedLines:    m.loggedLines.Load(),
	}
}

// MetricsSnapshot is a point-in-time view of metrics.
type MetricsSnapshot struct {
	Uptime         time.Duration
	EvalCount      uint64
	EvalFailed     uint64
	AvgEvalNs      int64
	MaxEvalNs      int64
	InputCount     uint64
	AvgInputTimeNs int64
	LoggedLines    uint64
}

// FailureRate returns the percentage of failed evaluations.
func (s MetricsSnapshot) FailureRate() float64 {
	if s.EvalCount == 0 {
		return 0
	}
	return float64(s.EvalFailed) / float64(s.EvalCount) * 100
}

// Timer provides a simple way to measure elapsed time.
type Timer struct {
	start time.Time
}

// StartTimer creates a new timer.
func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Elapsed returns the elapsed time since the timer started.
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}

// Metrics returns the application's metrics instance.
func (app *Application) Metrics() *Metrics {
	return app.metrics
}
