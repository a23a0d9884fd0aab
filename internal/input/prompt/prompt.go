// Package prompt is the input line below the transcript.
//
// A Prompt edits a rune buffer with a cursor, walks the command history with
// Prev and Next, and draws itself as the surface footer. Pasted text may
// contain newlines; each line of the input becomes a footer row.
package prompt

import (
	"strings"
	"unicode"

	"github.com/dshills/lookout/internal/history"
	"github.com/dshills/lookout/internal/renderer/core"
	"github.com/dshills/lookout/internal/renderer/style"
)

// Default markers drawn before the first and following input lines.
const (
	DefaultMarker      = "> "
	ContinuationMarker = ". "
)

// Prompt is a single editable command. It is not safe for concurrent use.
type Prompt struct {
	// buffer holds the command being typed.
	buffer []rune

	// cursorPos is the cursor position within buffer.
	cursorPos int

	history *history.History
	theme   *style.Theme
	marker  string
}

// Option configures a Prompt.
type Option func(*Prompt)

// WithHistory attaches the command history walked by Prev and Next.
func WithHistory(h *history.History) Option {
	return func(p *Prompt) { p.history = h }
}

// WithTheme styles the marker.
func WithTheme(t *style.Theme) Option {
	return func(p *Prompt) { p.theme = t }
}

// WithMarker replaces the "> " marker.
func WithMarker(m string) Option {
	return func(p *Prompt) { p.marker = m }
}

// New creates an empty prompt.
func New(opts ...Option) *Prompt {
	p := &Prompt{
		buffer: make([]rune, 0, 64),
		marker: DefaultMarker,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.history == nil {
		p.history = history.New(history.DefaultLimit)
	}
	if p.theme == nil {
		p.theme = style.NewTheme()
	}
	return p
}

// History returns the attached history.
func (p *Prompt) History() *history.History { return p.history }

// Text returns the current input.
func (p *Prompt) Text() string {
	return string(p.buffer)
}

// SetText replaces the input and moves the cursor to its end.
func (p *Prompt) SetText(s string) {
	p.buffer = []rune(s)
	p.cursorPos = len(p.buffer)
}

// CursorPos returns the cursor position in runes.
func (p *Prompt) CursorPos() int {
	return p.cursorPos
}

// Clear empties the input.
func (p *Prompt) Clear() {
	p.buffer = p.buffer[:0]
	p.cursorPos = 0
}

// Insert inserts a printable rune at the cursor. Control runes are ignored.
func (p *Prompt) Insert(r rune) bool {
	if r != '\n' && !unicode.IsPrint(r) {
		return false
	}
	if p.cursorPos >= len(p.buffer) {
		p.buffer = append(p.buffer, r)
	} else {
		p.buffer = append(p.buffer[:p.cursorPos+1], p.buffer[p.cursorPos:]...)
		p.buffer[p.cursorPos] = r
	}
	p.cursorPos++
	return true
}

// InsertString inserts pasted text. Tabs become spaces and CRLF line ends
// are normalized.
func (p *Prompt) InsertString(s string) {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	for _, r := range s {
		if r == '\t' {
			r = ' '
		}
		p.Insert(r)
	}
}

// Backspace deletes the rune before the cursor.
func (p *Prompt) Backspace() bool {
	if p.cursorPos == 0 {
		return false
	}
	p.buffer = append(p.buffer[:p.cursorPos-1], p.buffer[p.cursorPos:]...)
	p.cursorPos--
	return true
}

// Delete deletes the rune at the cursor.
func (p *Prompt) Delete() bool {
	if p.cursorPos >= len(p.buffer) {
		return false
	}
	p.buffer = append(p.buffer[:p.cursorPos], p.buffer[p.cursorPos+1:]...)
	return true
}

// DeleteWord deletes the word before the cursor and the spaces after it.
func (p *Prompt) DeleteWord() bool {
	start := p.cursorPos
	for start > 0 && unicode.IsSpace(p.buffer[start-1]) {
		start--
	}
	for start > 0 && !unicode.IsSpace(p.buffer[start-1]) {
		start--
	}
	if start == p.cursorPos {
		return false
	}
	p.buffer = append(p.buffer[:start], p.buffer[p.cursorPos:]...)
	p.cursorPos = start
	return true
}

// MoveLeft moves the cursor left.
func (p *Prompt) MoveLeft() bool {
	if p.cursorPos == 0 {
		return false
	}
	p.cursorPos--
	return true
}

// MoveRight moves the cursor right.
func (p *Prompt) MoveRight() bool {
	if p.cursorPos >= len(p.buffer) {
		return false
	}
	p.cursorPos++
	return true
}

// MoveToStart moves the cursor to the start.
func (p *Prompt) MoveToStart() {
	p.cursorPos = 0
}

// MoveToEnd moves the cursor to the end.
func (p *Prompt) MoveToEnd() {
	p.cursorPos = len(p.buffer)
}

// Submit returns the input and records it in the history. The input itself
// is left in place; it is cleared when the evaluation completes.
func (p *Prompt) Submit() (string, bool) {
	cmd := p.Text()
	if strings.TrimSpace(cmd) == "" {
		return "", false
	}
	p.history.Add(cmd)
	return cmd, true
}

// HistoryPrev replaces the input with the next older history entry.
func (p *Prompt) HistoryPrev() bool {
	s, ok := p.history.Prev(p.Text())
	if ok {
		p.SetText(s)
	}
	return ok
}

// HistoryNext replaces the input with the next newer history entry, or the
// stashed input when walking past the newest one.
func (p *Prompt) HistoryNext() bool {
	s, ok := p.history.Next()
	if ok {
		p.SetText(s)
	}
	return ok
}

// Lines draws the input, one row per input line.
func (p *Prompt) Lines(int) []core.Text {
	parts := strings.Split(p.Text(), "\n")
	out := make([]core.Text, len(parts))
	for i, part := range parts {
		out[i] = p.theme.Text(style.ClassPrompt, p.markerFor(i)).Concat(core.Plain(part))
	}
	return out
}

// Cursor returns the cursor cell, clamped to the last column.
func (p *Prompt) Cursor(width int) (x, row int, ok bool) {
	before := string(p.buffer[:p.cursorPos])
	row = strings.Count(before, "\n")
	if i := strings.LastIndexByte(before, '\n'); i >= 0 {
		before = before[i+1:]
	}
	x = core.StringWidth(p.markerFor(row)) + core.StringWidth(before)
	if width > 0 && x >= width {
		x = width - 1
	}
	return x, row, true
}

func (p *Prompt) markerFor(row int) string {
	if row == 0 {
		return p.marker
	}
	return core.PadRight(ContinuationMarker, core.StringWidth(p.marker))
}
