package mouse

import "time"

// clickTracker counts rapid clicks at nearly the same spot.
type clickTracker struct {
	// Thresholds
	maxTime     time.Duration
	maxDistance int

	// Previous press
	lastPos   Position
	lastTime  time.Time
	lastCount int
}

// newClickTracker creates a tracker with the given time and distance
// thresholds.
func newClickTracker(maxTime time.Duration, maxDistance int) *clickTracker {
	return &clickTracker{maxTime: maxTime, maxDistance: maxDistance}
}

// recordClick records a press and returns the click count, wrapping to 1
// after 3.
func (t *clickTracker) recordClick(pos Position, timestamp time.Time) int {
	// Continue or restart the sequence
	if t.isPartOfSequence(pos, timestamp) {
		t.lastCount++
		if t.lastCount > 3 {
			t.lastCount = 1
		}
	} else {
		t.lastCount = 1
	}

	// Remember this press
	t.lastPos = pos
	t.lastTime = timestamp
	return t.lastCount
}

// isPartOfSequence reports whether a press at pos continues the previous
// one.
func (t *clickTracker) isPartOfSequence(pos Position, timestamp time.Time) bool {
	// Nothing to continue
	if t.lastCount == 0 || t.lastTime.IsZero() {
		return false
	}

	// Time threshold; a clock going backwards starts a new sequence.
	elapsed := timestamp.Sub(t.lastTime)
	if elapsed < 0 || elapsed > t.maxTime {
		return false
	}

	// Distance threshold
	return pos.Distance(t.lastPos) <= t.maxDistance
}

// reset forgets the previous press and keeps the thresholds.
func (t *clickTracker) reset() {
	*t = clickTracker{maxTime: t.maxTime, maxDistance: t.maxDistance}
}
