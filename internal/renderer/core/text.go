package core

import (
	"strings"

	"github.com/rivo/uniseg"
)

// Segment is a run of text drawn in one style.
type Segment struct {
	Text  string
	Style Style
}

// Text is a styled line of text made of segments.
// The zero value is an empty line.
type Text []Segment

// Plain returns unstyled text.
func Plain(s string) Text {
	if s == "" {
		return nil
	}
	return Text{{Text: s, Style: DefaultStyle()}}
}

// Styled returns text drawn entirely in st.
func Styled(s string, st Style) Text {
	if s == "" {
		return nil
	}
	return Text{{Text: s, Style: st}}
}

// Add appends s in style st. Adjacent segments with equal styles merge.
func (t Text) Add(s string, st Style) Text {
	if s == "" {
		return t
	}
	if n := len(t); n > 0 && t[n-1].Style.Equals(st) {
		t[n-1].Text += s
		return t
	}
	return append(t, Segment{Text: s, Style: st})
}

// Concat appends every segment of other.
func (t Text) Concat(other Text) Text {
	for _, seg := range other {
		t = t.Add(seg.Text, seg.Style)
	}
	return t
}

// String returns the text without styling.
func (t Text) String() string {
	var b strings.Builder
	for _, seg := range t {
		b.WriteString(seg.Text)
	}
	return b.String()
}

// Width returns the display width in terminal columns.
func (t Text) Width() int {
	w := 0
	for _, seg := range t {
		w += StringWidth(seg.Text)
	}
	return w
}

// Restyle applies fn to the style of every column in [from, to).
// A grapheme straddling a boundary is restyled as a whole.
func (t Text) Restyle(from, to int, fn func(Style) Style) Text {
	if from >= to {
		return t
	}
	var out Text
	col := 0
	for _, seg := range t {
		state := -1
		rest := seg.Text
		for rest != "" {
			var cluster string
			var w int
			cluster, rest, w, state = uniseg.FirstGraphemeClusterInString(rest, state)
			st := seg.Style
			if col+w > from && col < to || (w == 0 && col >= from && col < to) {
				st = fn(st)
			}
			out = out.Add(cluster, st)
			col += w
		}
	}
	return out
}

// Cells lays the text out as terminal cells, one per column.
// Wide graphemes are followed by a continuation cell.
func (t Text) Cells() []Cell {
	cells := make([]Cell, 0, t.Width())
	for _, seg := range t {
		state := -1
		rest := seg.Text
		for rest != "" {
			var cluster string
			var w int
			cluster, rest, w, state = uniseg.FirstGraphemeClusterInString(rest, state)
			if w == 0 {
				continue
			}
			runes := []rune(cluster)
			c := Cell{Rune: runes[0], Width: w, Style: seg.Style}
			if len(runes) > 1 {
				c.Comb = runes[1:]
			}
			cells = append(cells, c)
			for i := 1; i < w; i++ {
				cells = append(cells, ContinuationCell(seg.Style))
			}
		}
	}
	return cells
}

// StringWidth returns the display width of s in terminal columns.
func StringWidth(s string) int {
	return uniseg.StringWidth(s)
}

// PadRight pads s with spaces to at least width columns.
func PadRight(s string, width int) string {
	if w := StringWidth(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

// PadLeft left-pads s with spaces to at least width columns.
func PadLeft(s string, width int) string {
	if w := StringWidth(s); w < width {
		return strings.Repeat(" ", width-w) + s
	}
	return s
}
