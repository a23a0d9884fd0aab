package surface

import (
	"strconv"
	"testing"

	"github.com/dshills/lookout/internal/renderer/backend"
	"github.com/dshills/lookout/internal/renderer/core"
)

type promptFooter struct{ text string }

func (f promptFooter) Lines(int) []core.Text { return []core.Text{core.Plain("> " + f.text)} }

func (f promptFooter) Cursor(int) (int, int, bool) { return 2 + len(f.text), 0, true }

func newTestSurface(t *testing.T, w, h int) (*Surface, *backend.NullBackend) {
	t.Helper()
	be := backend.NewNullBackend(w, h)
	if err := be.Init(); err != nil {
		t.Fatal(err)
	}
	return New(be), be
}

func fill(s *Surface, n int) {
	for i := 0; i < n; i++ {
		s.InsertRow(s.Len(), core.Plain("row "+strconv.Itoa(i)))
	}
}

func TestFollowShowsNewest(t *testing.T) {
	s, be := newTestSurface(t, 20, 4)
	s.SetFooter(promptFooter{"1+1"})
	fill(s, 10)
	s.Paint()

	want := []string{"row 7", "row 8", "row 9", "> 1+1"}
	for y, w := range want {
		if got := be.Row(y); got != w {
			t.Errorf("screen line %d = %q, want %q", y, got, w)
		}
	}
	if x, y, ok := be.CursorPosition(); !ok || x != 5 || y != 3 {
		t.Errorf("cursor = %d,%d,%v", x, y, ok)
	}
}

func TestScrollLeavesAndRestoresFollow(t *testing.T) {
	s, _ := newTestSurface(t, 20, 3)
	fill(s, 10)

	s.ScrollBy(-4)
	if s.Following() || s.Top() != 3 {
		t.Fatalf("after scrolling up: follow=%v top=%d", s.Following(), s.Top())
	}

	s.InsertRow(s.Len(), core.Plain("late"))
	if s.Top() != 3 {
		t.Errorf("top moved to %d while not following", s.Top())
	}
	s.InsertRow(0, core.Plain("above"))
	if s.Top() != 4 {
		t.Errorf("insert above viewport: top = %d, want 4", s.Top())
	}

	s.ScrollBy(100)
	if !s.Following() || s.Top() != s.Len()-3 {
		t.Errorf("after scrolling to bottom: follow=%v top=%d", s.Following(), s.Top())
	}
	s.ScrollBy(-100)
	if s.Top() != 0 {
		t.Errorf("top = %d, want clamp to 0", s.Top())
	}
}

func TestDeleteRowKeepsView(t *testing.T) {
	s, _ := newTestSurface(t, 20, 3)
	fill(s, 10)
	s.ScrollBy(-5)
	top := s.Top()
	s.DeleteRow(0)
	if s.Top() != top-1 {
		t.Errorf("top = %d, want %d", s.Top(), top-1)
	}
	if got := s.Row(s.Top()).String(); got != "row "+strconv.Itoa(top) {
		t.Errorf("first visible row = %q", got)
	}
}

func TestRowAt(t *testing.T) {
	s, _ := newTestSurface(t, 20, 4)
	s.SetFooter(promptFooter{})
	fill(s, 10)

	if i, ok := s.RowAt(0); !ok || i != 7 {
		t.Errorf("RowAt(0) = %d, %v", i, ok)
	}
	if _, ok := s.RowAt(3); ok {
		t.Error("the footer line should not map to a row")
	}
}

func TestPaintClipsWideText(t *testing.T) {
	s, be := newTestSurface(t, 5, 2)
	s.InsertRow(0, core.Plain("ab漢字"))
	s.Paint()
	if got := be.Row(0); got != "ab漢" {
		t.Errorf("row = %q, want the wide grapheme that does not fit dropped", got)
	}
}

func TestResize(t *testing.T) {
	s, _ := newTestSurface(t, 20, 3)
	fill(s, 10)
	s.Resize(20, 6)
	if s.Top() != 4 {
		t.Errorf("top after growing = %d, want 4", s.Top())
	}
}
