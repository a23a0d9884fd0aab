// Package mouse turns terminal mouse reports into press, drag, release and
// scroll gestures.
//
// Terminals report button state rather than transitions: a report with the
// left button held is a press when no gesture is active and a drag step
// otherwise, and a report with no button ends the gesture.
package mouse

import (
	"time"

	"github.com/dshills/lookout/internal/renderer/backend"
)

// Kind is the type of gesture step.
type Kind uint8

const (
	// KindNone means the report changed nothing.
	KindNone Kind = iota
	// KindPress starts a gesture.
	KindPress
	// KindDrag moves a held button to a new cell.
	KindDrag
	// KindRelease ends a gesture.
	KindRelease
	// KindScroll is a wheel step.
	KindScroll
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindPress:
		return "press"
	case KindDrag:
		return "drag"
	case KindRelease:
		return "release"
	case KindScroll:
		return "scroll"
	default:
		return "none"
	}
}

// Position is a screen cell.
type Position struct {
	X int
	Y int
}

// Distance returns the Manhattan distance between two positions.
func (p Position) Distance(other Position) int {
	dx := p.X - other.X
	if dx < 0 {
		dx = -dx
	}
	dy := p.Y - other.Y
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// Action is one step of a gesture.
type Action struct {
	Kind Kind
	// Pos is the current position.
	Pos Position
	// Start is where the gesture began, for drags and releases.
	Start Position
	// Clicks counts rapid presses at the same spot: 1, 2 or 3.
	Clicks int
	// Dragged is set on a release that ends a drag.
	Dragged bool
	// Lines is the scroll distance; negative scrolls up.
	Lines int
}

// Config tunes gesture detection.
type Config struct {
	DoubleClickTime     time.Duration
	DoubleClickDistance int
	ScrollLines         int
	// ScrollLinesShift applies when Shift is held.
	ScrollLinesShift int
}

// DefaultConfig returns the default thresholds.
func DefaultConfig() Config {
	return Config{
		DoubleClickTime:     400 * time.Millisecond,
		DoubleClickDistance: 2,
		ScrollLines:         3,
		ScrollLinesShift:    1,
	}
}

// Handler tracks gesture state. It is not safe for concurrent use.
type Handler struct {
	cfg   Config
	click *clickTracker
	drag  dragTracker
}

// NewHandler creates a handler.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		cfg:   cfg,
		click: newClickTracker(cfg.DoubleClickTime, cfg.DoubleClickDistance),
	}
}

// Handle interprets a mouse report received at now. Other events and
// reports that change nothing yield KindNone.
func (h *Handler) Handle(ev backend.Event, now time.Time) Action {
	if ev.Type != backend.EventMouse {
		return Action{}
	}
	pos := Position{X: ev.MouseX, Y: ev.MouseY}

	switch ev.MouseButton {
	case backend.MouseWheelUp, backend.MouseWheelDown:
		// Shift scrolls finer
		lines := h.cfg.ScrollLines
		if ev.Mod.Has(backend.ModShift) {
			lines = h.cfg.ScrollLinesShift
		}
		if ev.MouseButton == backend.MouseWheelUp {
			lines = -lines
		}
		return Action{Kind: KindScroll, Pos: pos, Lines: lines}

	case backend.MouseLeft:
		// A held button is a press first, then drag steps
		if !h.drag.active {
			h.drag.start(pos)
			return Action{Kind: KindPress, Pos: pos, Start: pos, Clicks: h.click.recordClick(pos, now)}
		}
		if !h.drag.update(pos) {
			return Action{}
		}
		return Action{Kind: KindDrag, Pos: pos, Start: h.drag.startPos}

	case backend.MouseNone:
		// Button up ends the gesture
		if !h.drag.active {
			return Action{}
		}
		a := Action{Kind: KindRelease, Pos: pos, Start: h.drag.startPos, Dragged: h.drag.moved}
		h.drag.end()
		return a
	}
	return Action{}
}

// Dragging reports whether a gesture is in progress.
func (h *Handler) Dragging() bool {
	return h.drag.active
}

// Reset clears all gesture state.
func (h *Handler) Reset() {
	h.click.reset()
	h.drag.end()
}
