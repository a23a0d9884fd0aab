package core

import (
	"testing"
)

func TestColorDefault(t *testing.T) {
	c := ColorDefault
	if !c.IsDefault() {
		t.Error("ColorDefault should be default")
	}
}

func TestColorFromIndex(t *testing.T) {
	c := ColorFromIndex(42)

	if c.R != 42 {
		t.Errorf("expected index 42, got %d", c.R)
	}
	if !c.Indexed {
		t.Error("indexed color should have Indexed true")
	}
	if c.IsDefault() {
		t.Error("indexed color should not be default")
	}
}

func TestColorFromHex(t *testing.T) {
	tests := []struct {
		hex     string
		r, g, b uint8
		wantErr bool
	}{
		{"#FF8040", 255, 128, 64, false},
		{"#ff8040", 255, 128, 64, false},
		{"FF8040", 255, 128, 64, false},
		{"#FFF", 255, 255, 255, false}, // Short form
		{"#000", 0, 0, 0, false},
		{"invalid", 0, 0, 0, true},
		{"#GGG", 0, 0, 0, true},
	}

	for _, tt := range tests {
		c, err := ColorFromHex(tt.hex)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ColorFromHex(%q) expected error, got nil", tt.hex)
			}
			continue
		}
		if err != nil {
			t.Errorf("ColorFromHex(%q) unexpected error: %v", tt.hex, err)
			continue
		}
		if c.R != tt.r || c.G != tt.g || c.B != tt.b {
			t.Errorf("ColorFromHex(%q) = (%d,%d,%d), want (%d,%d,%d)",
				tt.hex, c.R, c.G, c.B, tt.r, tt.g, tt.b)
		}
	}
}

func TestStyleMerge(t *testing.T) {
	base := NewStyle(ColorFromIndex(1))
	over := DefaultStyle().Bold()

	got := base.Merge(over)
	if !got.Foreground.Equals(ColorFromIndex(1)) {
		t.Errorf("merge lost foreground: %v", got.Foreground)
	}
	if !got.Attributes.Has(AttrBold) {
		t.Error("merge lost bold")
	}
}

func TestTextAddMergesEqualStyles(t *testing.T) {
	var txt Text
	txt = txt.Add("ab", DefaultStyle())
	txt = txt.Add("cd", DefaultStyle())
	txt = txt.Add("ef", DefaultStyle().Bold())

	if len(txt) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(txt))
	}
	if txt.String() != "abcdef" {
		t.Errorf("String() = %q", txt.String())
	}
}

func TestTextWidth(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"hello", 5},
		{"日本", 4},
		{"é", 1},
		{"❯ ", 2},
	}

	for _, tt := range tests {
		if got := Plain(tt.in).Width(); got != tt.want {
			t.Errorf("Width(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestTextCellsWide(t *testing.T) {
	cells := Plain("a日b").Cells()
	if len(cells) != 4 {
		t.Fatalf("expected 4 cells, got %d", len(cells))
	}
	if cells[1].Rune != '日' || cells[1].Width != 2 {
		t.Errorf("cell 1 = %+v", cells[1])
	}
	if !cells[2].IsContinuation() {
		t.Error("cell 2 should be a continuation")
	}
	if cells[3].Rune != 'b' {
		t.Errorf("cell 3 = %q", cells[3].Rune)
	}
}

func TestTextRestyle(t *testing.T) {
	txt := Plain("hello world").Restyle(6, 11, Style.Reverse)

	if txt.String() != "hello world" {
		t.Fatalf("restyle changed text: %q", txt.String())
	}
	if len(txt) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(txt))
	}
	if txt[0].Text != "hello " || txt[0].Style.Attributes.Has(AttrReverse) {
		t.Errorf("segment 0 = %+v", txt[0])
	}
	if txt[1].Text != "world" || !txt[1].Style.Attributes.Has(AttrReverse) {
		t.Errorf("segment 1 = %+v", txt[1])
	}
}

func TestPad(t *testing.T) {
	if got := PadRight("ab", 4); got != "ab  " {
		t.Errorf("PadRight = %q", got)
	}
	if got := PadLeft("ab", 4); got != "  ab" {
		t.Errorf("PadLeft = %q", got)
	}
	if got := PadRight("abcdef", 4); got != "abcdef" {
		t.Errorf("PadRight should not truncate, got %q", got)
	}
}
