package backend

import (
	"testing"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/lookout/internal/renderer/core"
)

func TestNullBackendInit(t *testing.T) {
	b := NewNullBackend(80, 24)
	if err := b.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	w, h := b.Size()
	if w != 80 || h != 24 {
		t.Errorf("expected size (80, 24), got (%d, %d)", w, h)
	}
}

func TestNullBackendSetGetCell(t *testing.T) {
	b := NewNullBackend(80, 24)
	b.Init()

	cell := core.Cell{Rune: 'X', Width: 1, Style: core.NewStyle(core.ColorFromIndex(1))}
	b.SetCell(10, 5, cell)

	got := b.GetCell(10, 5)
	if got.Rune != 'X' || !got.Style.Equals(cell.Style) {
		t.Errorf("cell mismatch: expected %+v, got %+v", cell, got)
	}

	// Out of bounds should be ignored/return empty
	b.SetCell(-1, 0, cell)
	b.SetCell(100, 0, cell)

	if empty := b.GetCell(-1, 0); empty.Rune != ' ' {
		t.Error("out of bounds should return empty cell")
	}
}

func TestNullBackendRow(t *testing.T) {
	b := NewNullBackend(10, 2)
	b.Init()

	for x, c := range core.Plain("a日b").Cells() {
		b.SetCell(x, 1, c)
	}

	if got := b.Row(1); got != "a日b" {
		t.Errorf("Row(1) = %q", got)
	}
	if got := b.Row(0); got != "" {
		t.Errorf("Row(0) = %q", got)
	}
}

func TestNullBackendClear(t *testing.T) {
	b := NewNullBackend(80, 24)
	b.Init()

	b.SetCell(10, 10, core.Cell{Rune: 'X', Width: 1})
	b.Clear()

	if got := b.GetCell(10, 10); got.Rune != ' ' {
		t.Error("clear should reset all cells")
	}
}

func TestNullBackendCursor(t *testing.T) {
	b := NewNullBackend(80, 24)
	b.Init()

	b.ShowCursor(15, 10)
	x, y, visible := b.CursorPosition()
	if x != 15 || y != 10 || !visible {
		t.Errorf("cursor position: expected (15, 10, true), got (%d, %d, %v)", x, y, visible)
	}

	b.HideCursor()
	_, _, visible = b.CursorPosition()
	if visible {
		t.Error("cursor should be hidden")
	}
}

func TestNullBackendResize(t *testing.T) {
	b := NewNullBackend(80, 24)
	b.Init()

	b.Resize(100, 40)

	w, h := b.Size()
	if w != 100 || h != 40 {
		t.Errorf("expected size (100, 40), got (%d, %d)", w, h)
	}
	ev := b.PollEvent()
	if ev.Type != EventResize || ev.Width != 100 || ev.Height != 40 {
		t.Errorf("expected resize event, got %+v", ev)
	}
}

func TestNullBackendPostEvent(t *testing.T) {
	b := NewNullBackend(80, 24)
	b.Init()

	b.PostEvent(Event{Type: EventKey, Key: KeyEnter})

	got := b.PollEvent()
	if got.Type != EventKey || got.Key != KeyEnter {
		t.Errorf("expected enter key event, got %+v", got)
	}
}

func TestNullBackendShutdownUnblocksPoll(t *testing.T) {
	b := NewNullBackend(80, 24)
	b.Init()

	done := make(chan Event)
	go func() { done <- b.PollEvent() }()
	b.Shutdown()

	if ev := <-done; ev.Type != EventNone {
		t.Errorf("expected EventNone after shutdown, got %+v", ev)
	}
	b.Shutdown()
}

func TestModMaskHas(t *testing.T) {
	mod := ModShift | ModCtrl

	if !mod.Has(ModShift) {
		t.Error("should have shift")
	}
	if !mod.Has(ModCtrl) {
		t.Error("should have ctrl")
	}
	if mod.Has(ModAlt) {
		t.Error("should not have alt")
	}
}

func TestConvertKeyRoundTrip(t *testing.T) {
	for _, k := range []Key{KeyEnter, KeyEscape, KeyUp, KeyCtrlC, KeyCtrlL, KeyBackspace} {
		if got := convertKey(convertToTcellKey(k)); got != k {
			t.Errorf("round trip of %d gave %d", k, got)
		}
	}
	if got := convertKey(tcell.KeyF12); got != KeyNone {
		t.Errorf("unmapped key should be KeyNone, got %d", got)
	}
}

func TestConvertMouseButton(t *testing.T) {
	tests := []struct {
		in   tcell.ButtonMask
		want MouseButton
	}{
		{tcell.ButtonNone, MouseNone},
		{tcell.Button1, MouseLeft},
		{tcell.Button2, MouseRight},
		{tcell.WheelUp, MouseWheelUp},
		{tcell.WheelDown | tcell.Button1, MouseWheelDown},
	}

	for _, tt := range tests {
		if got := convertMouseButton(tt.in); got != tt.want {
			t.Errorf("convertMouseButton(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestConvertStyle(t *testing.T) {
	s := core.NewStyle(core.ColorFromIndex(3)).Bold().Reverse()
	fg, _, attrs := convertStyle(s).Decompose()

	if fg != tcell.PaletteColor(3) {
		t.Errorf("fg = %v", fg)
	}
	if attrs&tcell.AttrBold == 0 || attrs&tcell.AttrReverse == 0 {
		t.Errorf("attrs = %v", attrs)
	}
}
