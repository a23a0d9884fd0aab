package loop

import (
	"sort"
	"time"
)

// Manual is a deterministic scheduler for tests. Nothing runs until Flush
// or Advance is called.
type Manual struct {
	now      time.Time
	deferred []func()
	timers   []*manualTimer
	seq      int
}

type manualTimer struct {
	at      time.Time
	seq     int
	fn      func()
	stopped bool
}

// NewManual creates a manual scheduler starting at t.
func NewManual(t time.Time) *Manual {
	return &Manual{now: t}
}

// Defer queues fn until the next Flush.
func (m *Manual) Defer(fn func()) {
	m.deferred = append(m.deferred, fn)
}

// Post queues fn like Defer. It never fails.
func (m *Manual) Post(fn func()) error {
	m.Defer(fn)
	return nil
}

// AfterFunc schedules fn at Now()+d.
func (m *Manual) AfterFunc(d time.Duration, fn func()) func() bool {
	m.seq++
	t := &manualTimer{at: m.now.Add(d), seq: m.seq, fn: fn}
	m.timers = append(m.timers, t)
	return func() bool {
		if t.stopped {
			return false
		}
		t.stopped = true
		return true
	}
}

// Now returns the simulated time.
func (m *Manual) Now() time.Time {
	return m.now
}

// Flush runs deferred tasks, including ones queued while flushing.
func (m *Manual) Flush() {
	for len(m.deferred) > 0 {
		batch := m.deferred
		m.deferred = nil
		for _, fn := range batch {
			fn()
		}
	}
}

// Advance moves time forward by d, firing due timers in order and
// flushing deferred tasks after each one.
func (m *Manual) Advance(d time.Duration) {
	target := m.now.Add(d)
	m.Flush()
	for {
		t := m.nextDue(target)
		if t == nil {
			break
		}
		t.stopped = true
		if t.at.After(m.now) {
			m.now = t.at
		}
		t.fn()
		m.Flush()
	}
	m.now = target
}

// Pending reports how many timers have not fired or been stopped.
func (m *Manual) Pending() int {
	n := 0
	for _, t := range m.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

func (m *Manual) nextDue(limit time.Time) *manualTimer {
	live := m.timers[:0]
	for _, t := range m.timers {
		if !t.stopped {
			live = append(live, t)
		}
	}
	m.timers = live
	sort.Slice(m.timers, func(i, j int) bool {
		if m.timers[i].at.Equal(m.timers[j].at) {
			return m.timers[i].seq < m.timers[j].seq
		}
		return m.timers[i].at.Before(m.timers[j].at)
	})
	if len(m.timers) > 0 && !m.timers[0].at.After(limit) {
		return m.timers[0]
	}
	return nil
}
