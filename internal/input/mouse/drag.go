package mouse

// dragTracker follows a held button.
type dragTracker struct {
	active     bool
	moved      bool
	startPos   Position
	currentPos Position
}

// start begins a gesture at pos.
func (t *dragTracker) start(pos Position) {
	*t = dragTracker{active: true, startPos: pos, currentPos: pos}
}

// update records pos and reports whether it differs from the last one.
func (t *dragTracker) update(pos Position) bool {
	// Ignore reports outside a gesture and repeats of the same cell
	if !t.active || pos == t.currentPos {
		return false
	}

	// Update state
	t.currentPos = pos
	t.moved = true
	return true
}

// end finishes the gesture.
func (t *dragTracker) end() {
	*t = dragTracker{}
}
