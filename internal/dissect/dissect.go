// Package dissect turns a list of logged values into one styled row plus a
// column ownership map, so a click on any display column can be resolved
// back to the value drawn there.
package dissect

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"

	"github.com/dshills/lookout/internal/inspect"
	"github.com/dshills/lookout/internal/renderer/core"
	"github.com/dshills/lookout/internal/renderer/style"
)

// DefaultDateLayout formats date-like values.
const DefaultDateLayout = "2006-01-02 15:04:05"

// Labeler overrides the left side of an object tag.
type Labeler interface {
	Label() string
}

// Summarizer overrides the right side of an object tag.
type Summarizer interface {
	Summary() string
}

// Progresser is implemented by values that report completion.
// SubscribeProgress registers fn for updates in percent and returns a
// function that removes the subscription. fn may be called from any
// goroutine.
type Progresser interface {
	Progress() float64
	SubscribeProgress(fn func(percent float64)) (unsubscribe func())
}

// Options configure a Dissector.
type Options struct {
	Theme          *style.Theme
	DateLayout     string
	CallerMinWidth int
	// NameMap maps caller paths or file names to display labels.
	NameMap map[string]string
}

// Dissector renders values. It is safe to share; it keeps no per-call state.
type Dissector struct {
	opts Options
}

// New creates a Dissector.
func New(opts Options) *Dissector {
	if opts.DateLayout == "" {
		opts.DateLayout = DefaultDateLayout
	}
	if opts.Theme == nil {
		opts.Theme = style.NewTheme()
	}
	return &Dissector{opts: opts}
}

// Options returns the options in use.
func (d *Dissector) Options() Options {
	return d.opts
}

// Part is one rendered value.
type Part struct {
	Value  any
	Plain  string
	Styled core.Text
	// Start is the first display column of the part.
	Start int
	// Width is the display width of Plain.
	Width int
}

// Result is a dissected argument list.
type Result struct {
	Parts []Part
	// CharMap maps every display column to an argument ordinal. The
	// separator column after each part maps to -1.
	CharMap []int
}

// Dissect renders values in order, each followed by one separator column.
func (d *Dissector) Dissect(values []any) Result {
	r := Result{Parts: make([]Part, 0, len(values))}
	for i, v := range values {
		p := d.Part(v)
		p.Start = len(r.CharMap)
		for c := 0; c < p.Width; c++ {
			r.CharMap = append(r.CharMap, i)
		}
		r.CharMap = append(r.CharMap, -1)
		r.Parts = append(r.Parts, p)
	}
	return r
}

// Plain returns the unstyled row, separators included.
func (r Result) Plain() string {
	var b strings.Builder
	for _, p := range r.Parts {
		b.WriteString(p.Plain)
		b.WriteByte(' ')
	}
	return b.String()
}

// Width returns the display width of the row.
func (r Result) Width() int {
	return len(r.CharMap)
}

// At returns the ordinal of the value drawn at col.
func (r Result) At(col int) (int, bool) {
	if col < 0 || col >= len(r.CharMap) || r.CharMap[col] < 0 {
		return 0, false
	}
	return r.CharMap[col], true
}

// Text returns the styled row. The part at ordinal highlight, if any, is
// drawn in reverse video.
func (r Result) Text(highlight int) core.Text {
	var t core.Text
	for i, p := range r.Parts {
		styled := p.Styled
		if i == highlight {
			styled = styled.Restyle(0, p.Width, core.Style.Reverse)
		}
		t = t.Concat(styled)
		t = t.Add(" ", core.DefaultStyle())
	}
	return t
}

// Replace re-renders the part at ordinal i, keeping the others. Columns of
// later parts shift when the width changes.
func (d *Dissector) Replace(r Result, i int, v any) Result {
	if i < 0 || i >= len(r.Parts) {
		return r
	}
	values := make([]any, len(r.Parts))
	for j, p := range r.Parts {
		values[j] = p.Value
	}
	values[i] = v
	return d.Dissect(values)
}

// Part renders a single value. Panics raised by value hooks are recovered
// and replaced with the stringify placeholder.
func (d *Dissector) Part(v any) (p Part) {
	defer func() {
		if r := recover(); r != nil {
			p = d.part(v, inspect.StringifyError, style.ClassOther)
		}
	}()

	th := d.opts.Theme
	if s, ok := inspect.FormatNumber(v); ok {
		return d.part(v, s, style.ClassNumber)
	}

	switch x := v.(type) {
	case string:
		return d.part(v, Flatten(ansi.Strip(x)), style.ClassString)
	case bool:
		return d.part(v, strconv.FormatBool(x), style.ClassBoolean)
	case *CallerInfo:
		if x == nil {
			break
		}
		return d.withText(v, d.badge(*x))
	case CallerInfo:
		return d.withText(v, d.badge(x))
	case time.Time:
		return d.withText(v, d.tag(th, "time.Time", x.Format(d.opts.DateLayout)))
	}

	if buf, ok := inspect.Bytes(v); ok {
		return d.withText(v, d.tag(th, "Buffer", strconv.Itoa(len(buf))))
	}

	// Errors show their message; thrown values stay expandable through
	// inspect.Target.
	if err, ok := v.(error); ok {
		return d.part(v, Flatten(err.Error()), style.ClassOther)
	}

	if pr, ok := v.(Progresser); ok {
		return d.withText(v, d.tag(th, d.left(v), ProgressLabel(pr.Progress())))
	}

	if obj, ok := inspect.Of(v); ok {
		return d.withText(v, d.tag(th, d.leftOf(v, obj), d.right(v, obj)))
	}

	return d.part(v, Flatten(inspect.Format(v)), style.ClassOther)
}

func (d *Dissector) part(v any, s string, c style.Class) Part {
	return d.withText(v, d.opts.Theme.Text(c, s))
}

func (d *Dissector) withText(v any, t core.Text) Part {
	plain := t.String()
	return Part{Value: v, Plain: plain, Styled: t, Width: core.StringWidth(plain)}
}

func (d *Dissector) tag(th *style.Theme, left, right string) core.Text {
	t := th.Text(style.ClassTagBrace, "{")
	t = t.Concat(th.Text(style.ClassTagName, Flatten(left)))
	if right != "" {
		t = t.Add(" "+Flatten(right), core.DefaultStyle())
	}
	return t.Concat(th.Text(style.ClassTagBrace, "}"))
}

// left returns the tag name for values that are not Objects.
func (d *Dissector) left(v any) string {
	if l, ok := v.(Labeler); ok {
		return l.Label()
	}
	if obj, ok := inspect.Of(v); ok {
		return d.leftOf(v, obj)
	}
	return fmt.Sprintf("%T", v)
}

func (d *Dissector) leftOf(v any, obj inspect.Object) string {
	if l, ok := v.(Labeler); ok {
		return l.Label()
	}
	name, ns := obj.TypeName()
	if name == "" {
		return "Object"
	}
	if ns != "" {
		return ns + "." + name
	}
	return name
}

func (d *Dissector) right(v any, obj inspect.Object) string {
	if s, ok := v.(Summarizer); ok {
		return s.Summary()
	}
	if dt, ok := obj.(inspect.Dated); ok {
		if t, ok := dt.Time(); ok {
			return t.Format(d.opts.DateLayout)
		}
	}
	if c, ok := obj.(inspect.Callable); ok {
		name := c.FuncName()
		if name == "" {
			return "anonymous"
		}
		return name
	}
	if n, ok := obj.Len(); ok {
		return strconv.Itoa(n)
	}

	all, visible := 0, 0
	for _, p := range obj.OwnKeys() {
		if p.Flags.Has(inspect.FlagSymbol) || p.Flags.Has(inspect.FlagGetter) {
			continue
		}
		all++
		if !p.Flags.Has(inspect.FlagHidden) {
			visible++
		}
	}
	if all != visible {
		return fmt.Sprintf("%d/%d", all, visible)
	}
	return strconv.Itoa(visible)
}

// ProgressLabel formats a completion percentage, truncated.
func ProgressLabel(percent float64) string {
	return strconv.Itoa(int(percent)) + "%"
}

// tabWidth is the tab stop interval used when a value is flattened.
const tabWidth = 4

// Flatten replaces line breaks and expands tabs so a value fits on one row
// and every rune of it occupies at least one column.
func Flatten(s string) string {
	if !strings.ContainsAny(s, "\r\n\t") {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.ReplaceAll(s, "\n", "↵")
	if strings.IndexByte(s, '\t') < 0 {
		return s
	}

	// Tab stops are counted from the start of the value.
	var b strings.Builder
	col := 0
	for {
		i := strings.IndexByte(s, '\t')
		if i < 0 {
			b.WriteString(s)
			return b.String()
		}
		b.WriteString(s[:i])
		col += core.StringWidth(s[:i])
		n := tabWidth - col%tabWidth
		b.WriteString(strings.Repeat(" ", n))
		col += n
		s = s[i+1:]
	}
}
