package app

import (
	"sync"
	"testing"
	"time"
)

func TestMetrics_RecordEval(t *testing.T) {
	m := NewMetrics()
	m.RecordEval(10*time.Millisecond, false)
	m.RecordEval(30*time.Millisecond, true)

	s := m.Snapshot()
	if s.EvalCount != 2 || s.EvalFailed != 1 {
		t.Errorf("count=%d failed=%d", s.EvalCount, s.EvalFailed)
	}
	if s.AvgEvalNs != (20 * time.Millisecond).Nanoseconds() {
		t.Errorf("avg = %d", s.AvgEvalNs)
	}
	if s.MaxEvalNs != (30 * time.Millisecond).Nanoseconds() {
		t.Errorf("max = %d", s.MaxEvalNs)
	}
	if got := s.FailureRate(); got != 50 {
		t.Errorf("FailureRate() = %v", got)
	}
}

func TestMetrics_Empty(t *testing.T) {
	s := NewMetrics().Snapshot()
	if s.AvgEvalNs != 0 || s.AvgInputTimeNs != 0 || s.FailureRate() != 0 {
		t.Errorf("empty snapshot = %+v", s)
	}
}

func TestMetrics_Concurrent(t *testing.T) {
	m := NewMetrics()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.RecordInput(time.Microsecond)
				m.RecordLogged()
			}
		}()
	}
	wg.Wait()

	s := m.Snapshot()
	if s.InputCount != 800 || s.LoggedLines != 800 {
		t.Errorf("input=%d logged=%d", s.InputCount, s.LoggedLines)
	}
}

func TestTimer(t *testing.T) {
	timer := StartTimer()
	time.Sleep(time.Millisecond)
	if timer.Elapsed() < time.Millisecond {
		t.Error("elapsed should cover the sleep")
	}
}
