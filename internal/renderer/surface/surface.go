// Package surface keeps the transcript rows and paints the visible window of
// them to a terminal backend, with a footer area for the prompt.
//
// A Surface is not safe for concurrent use; it belongs to the event loop.
package surface

import (
	"github.com/dshills/lookout/internal/renderer/backend"
	"github.com/dshills/lookout/internal/renderer/core"
)

// Footer draws the rows below the transcript.
type Footer interface {
	// Lines returns the footer rows for the given width.
	Lines(width int) []core.Text
	// Cursor returns the cursor position within the footer.
	Cursor(width int) (x, row int, ok bool)
}

// Surface is a scrollable list of rows shown through a viewport.
type Surface struct {
	be     backend.Backend
	footer Footer

	rows   []core.Text
	top    int
	width  int
	height int
	follow bool
	paints int
}

// New creates a surface sized to the backend. It starts in follow mode.
func New(be backend.Backend) *Surface {
	s := &Surface{be: be, follow: true}
	s.width, s.height = be.Size()
	return s
}

// SetFooter sets the footer.
func (s *Surface) SetFooter(f Footer) {
	s.footer = f
}

// Len returns the number of rows.
func (s *Surface) Len() int { return len(s.rows) }

// Row returns row i, or nil when out of range.
func (s *Surface) Row(i int) core.Text {
	if i < 0 || i >= len(s.rows) {
		return nil
	}
	return s.rows[i]
}

// SetRow replaces row i.
func (s *Surface) SetRow(i int, t core.Text) {
	if i >= 0 && i < len(s.rows) {
		s.rows[i] = t
	}
}

// InsertRow inserts t before row i. Rows inserted above the viewport keep
// the visible rows in place.
func (s *Surface) InsertRow(i int, t core.Text) {
	if i < 0 || i > len(s.rows) {
		i = len(s.rows)
	}
	s.rows = append(s.rows, nil)
	copy(s.rows[i+1:], s.rows[i:])
	s.rows[i] = t
	if s.follow {
		s.ScrollToBottom()
	} else if i < s.top {
		s.top++
	}
}

// DeleteRow removes row i.
func (s *Surface) DeleteRow(i int) {
	if i < 0 || i >= len(s.rows) {
		return
	}
	s.rows = append(s.rows[:i], s.rows[i+1:]...)
	if i < s.top {
		s.top--
	}
	s.clamp()
}

// SetFollow turns follow mode on or off.
func (s *Surface) SetFollow(on bool) { s.follow = on }

// Following reports whether new rows scroll the view.
func (s *Surface) Following() bool { return s.follow }

// ScrollToBottom moves the viewport to show the last row.
func (s *Surface) ScrollToBottom() {
	s.top = s.maxTop()
}

// ScrollBy moves the viewport by delta rows. Scrolling up leaves follow
// mode; reaching the bottom restores it.
func (s *Surface) ScrollBy(delta int) {
	s.top += delta
	s.clamp()
	s.follow = s.top >= s.maxTop()
}

// Top returns the first visible row.
func (s *Surface) Top() int { return s.top }

// ViewHeight returns the number of transcript rows on screen.
func (s *Surface) ViewHeight() int {
	h := s.height - s.footerHeight()
	if h < 0 {
		return 0
	}
	return h
}

// RowAt maps a screen line to a row index. ok is false for screen lines in
// the footer; a line below the last row yields an index past the end.
func (s *Surface) RowAt(y int) (int, bool) {
	if y < 0 || y >= s.ViewHeight() {
		return 0, false
	}
	return s.top + y, true
}

// Resize updates the screen size.
func (s *Surface) Resize(width, height int) {
	s.width, s.height = width, height
	if s.follow {
		s.ScrollToBottom()
	}
	s.clamp()
}

// RequestRepaint paints immediately.
func (s *Surface) RequestRepaint() {
	s.Paint()
}

// Paints returns how many frames were painted.
func (s *Surface) Paints() int { return s.paints }

// Paint draws the visible rows and the footer and shows the frame.
func (s *Surface) Paint() {
	s.paints++
	s.be.Clear()

	view := s.ViewHeight()
	for y := 0; y < view; y++ {
		i := s.top + y
		if i >= len(s.rows) {
			break
		}
		s.paintRow(y, s.rows[i])
	}

	if s.footer != nil {
		lines := s.footer.Lines(s.width)
		for j, t := range lines {
			if y := view + j; y < s.height {
				s.paintRow(y, t)
			}
		}
		if x, row, ok := s.footer.Cursor(s.width); ok && view+row < s.height {
			s.be.ShowCursor(x, view+row)
		} else {
			s.be.HideCursor()
		}
	} else {
		s.be.HideCursor()
	}
	s.be.Show()
}

// paintRow writes t at screen line y, dropping cells past the right edge.
// A wide grapheme that does not fit is dropped whole.
func (s *Surface) paintRow(y int, t core.Text) {
	x := 0
	for _, c := range t.Cells() {
		if !c.IsContinuation() && x+c.Width > s.width {
			return
		}
		s.be.SetCell(x, y, c)
		x++
	}
}

func (s *Surface) footerHeight() int {
	if s.footer == nil {
		return 0
	}
	return len(s.footer.Lines(s.width))
}

func (s *Surface) maxTop() int {
	if m := len(s.rows) - s.ViewHeight(); m > 0 {
		return m
	}
	return 0
}

func (s *Surface) clamp() {
	if m := s.maxTop(); s.top > m {
		s.top = m
	}
	if s.top < 0 {
		s.top = 0
	}
}
