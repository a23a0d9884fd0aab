package scrollback

import (
	"github.com/dshills/lookout/internal/renderer/core"
	"github.com/dshills/lookout/internal/renderer/style"
)

// LineID is a stable arena address. Zero means no line.
type LineID uint64

// Kind identifies the display variant of a Line.
type Kind uint8

const (
	KindPlain Kind = iota
	KindCommand
	KindEvalOutput
	KindError
	KindWarning
	KindInfo
	KindArgs
	KindProperty
	KindString
	KindHex
	KindPaging
)

var kindNames = [...]string{
	KindPlain:      "plain",
	KindCommand:    "command",
	KindEvalOutput: "eval_output",
	KindError:      "error",
	KindWarning:    "warning",
	KindInfo:       "info",
	KindArgs:       "args",
	KindProperty:   "property",
	KindString:     "string",
	KindHex:        "hex",
	KindPaging:     "paging",
}

// String returns the name of the kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Variant renders and selects one kind of line.
type Variant interface {
	// Content renders the part of the row after the gutter and annotation.
	Content(l *Line) core.Text

	// Select returns the value at relative column col. It runs after the
	// line has been marked selected and may materialize children.
	Select(l *Line, col int) any
}

// Optional variant capabilities.
type (
	comparer interface {
		Compare(values []any, opts DispatchOptions, eq EqualityPolicy) bool
	}
	repeater interface {
		Repeat(l *Line)
	}
	clipper interface {
		ClipboardValue(l *Line) (any, bool)
	}
	unselecter interface {
		Unselect(l *Line, next *Line)
	}
	dragger interface {
		Drag(from, to *Line, fromCol, toCol int)
	}
	attacher interface {
		Attach(l *Line)
	}
	detacher interface {
		Detach(l *Line)
	}
	refresher interface {
		Refresh(l *Line)
	}
)

// Line is one transcript row. Lines are owned by a Buffer; parent and
// children are arena IDs.
type Line struct {
	id         LineID
	buf        *Buffer
	index      int
	parent     LineID
	children   []LineID
	depth      int
	kind       Kind
	annotation string
	seen       int
	selected   bool
	selCol     int
	open       bool

	// expanded is the value the current children were materialized from.
	expanded any
	pager    *pager

	variant Variant
}

func newLine(kind Kind, v Variant) *Line {
	return &Line{kind: kind, variant: v, index: -1, seen: 1, selCol: -1}
}

// ID returns the arena ID, zero before the line is added to a buffer.
func (l *Line) ID() LineID { return l.id }

// Index returns the position in the buffer, -1 when detached.
func (l *Line) Index() int { return l.index }

// Kind returns the display variant.
func (l *Line) Kind() Kind { return l.kind }

// Seen returns the repeat count.
func (l *Line) Seen() int { return l.seen }

// Selected reports whether the line is the active selection.
func (l *Line) Selected() bool { return l.selected }

// Open reports whether the line has materialized its children.
func (l *Line) Open() bool { return l.open }

// Depth returns the nesting depth, zero for top-level lines.
func (l *Line) Depth() int { return l.depth }

// Variant returns the display variant.
func (l *Line) Variant() Variant { return l.variant }

// Attached reports whether the line is still in a buffer.
func (l *Line) Attached() bool { return l.buf != nil && l.index >= 0 }

// Parent returns the parent line, nil for top-level lines.
func (l *Line) Parent() *Line {
	if l.buf == nil || l.parent == 0 {
		return nil
	}
	return l.buf.lines[l.parent]
}

// Children returns the owned child lines in order.
func (l *Line) Children() []*Line {
	if l.buf == nil {
		return nil
	}
	out := make([]*Line, 0, len(l.children))
	for _, id := range l.children {
		if c, ok := l.buf.lines[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

// IsDescendantOf reports whether ancestor is a transitive parent of l.
func (l *Line) IsDescendantOf(ancestor *Line) bool {
	if ancestor == nil {
		return false
	}
	for p := l.Parent(); p != nil; p = p.Parent() {
		if p == ancestor {
			return true
		}
	}
	return false
}

// Display renders the full row: gutter, annotation, a space and content.
func (l *Line) Display() core.Text {
	var t core.Text
	th := l.theme()
	t = t.Concat(gutter(th, l.kind))
	if l.annotation != "" {
		t = t.Concat(th.Text(style.ClassMuted, " "+l.annotation))
	}
	t = t.Add(" ", core.DefaultStyle())
	return t.Concat(l.variant.Content(l))
}

// PlainWidth returns the display width of the row.
func (l *Line) PlainWidth() int {
	return l.Display().Width()
}

// prefixWidth is the number of columns before the content.
func (l *Line) prefixWidth() int {
	w := gutter(nil, l.kind).Width() + 1
	if l.annotation != "" {
		w += core.StringWidth(l.annotation) + 1
	}
	return w
}

// ClipboardValue returns what a copy of the selection should contain.
func (l *Line) ClipboardValue() (any, bool) {
	if c, ok := l.variant.(clipper); ok {
		return c.ClipboardValue(l)
	}
	return nil, false
}

func (l *Line) theme() *style.Theme {
	if l.buf == nil {
		return nil
	}
	return l.buf.theme
}

func gutter(th *style.Theme, kind Kind) core.Text {
	switch kind {
	case KindCommand:
		return th.Text(style.ClassGutterCommand, "❯ ")
	case KindEvalOutput:
		return th.Text(style.ClassGutterCommand, "❮ ")
	case KindError:
		return th.Text(style.ClassGutterError, "☠ Error:")
	case KindWarning:
		return th.Text(style.ClassGutterWarning, "⚠ ")
	case KindInfo:
		return th.Text(style.ClassGutterInfo, "ⓘ ")
	default:
		return core.Plain("  ")
	}
}
