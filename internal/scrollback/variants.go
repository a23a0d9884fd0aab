package scrollback

import (
	"github.com/dshills/lookout/internal/dissect"
	"github.com/dshills/lookout/internal/renderer/core"
	"github.com/dshills/lookout/internal/renderer/style"
)

// NewPlain creates a line showing fixed text.
func NewPlain(text string) *Line {
	return newLine(KindPlain, &plainVariant{text: dissect.Flatten(text)})
}

// NewCommand creates a line echoing submitted input.
func NewCommand(text string) *Line {
	return newLine(KindCommand, &plainVariant{text: dissect.Flatten(text)})
}

// NewStyledPlain creates a plain line drawn in the given class.
func NewStyledPlain(text string, class style.Class) *Line {
	return newLine(KindPlain, &plainVariant{text: dissect.Flatten(text), class: class, styled: true})
}

// NewPlaceholder creates a muted line of the given kind, to be replaced by
// Update once its content is known.
func NewPlaceholder(kind Kind, text string) *Line {
	return newLine(kind, &plainVariant{text: dissect.Flatten(text), class: style.ClassMuted, styled: true})
}

type plainVariant struct {
	text   string
	class  style.Class
	styled bool
}

func (v *plainVariant) Content(l *Line) core.Text {
	if v.styled {
		return l.theme().Text(v.class, v.text)
	}
	return core.Plain(v.text)
}

func (v *plainVariant) Select(l *Line, col int) any {
	return v.text
}

func (v *plainVariant) ClipboardValue(l *Line) (any, bool) {
	return v.text, true
}

// Text returns the text of a plain or command line.
func (l *Line) Text() string {
	if v, ok := l.variant.(*plainVariant); ok {
		return v.text
	}
	return l.Display().String()
}

// NewArgs creates an argument line of the given kind. Annotation is drawn
// between the gutter and the values.
func NewArgs(kind Kind, values []any, opts DispatchOptions) *Line {
	l := newLine(kind, &argsVariant{values: values, caller: opts.Caller, sel: -1})
	l.annotation = opts.Annotation
	return l
}

// argsVariant renders logged values. When a caller is attached it is drawn
// first and takes ordinal 0.
type argsVariant struct {
	values []any
	caller *dissect.CallerInfo
	result dissect.Result
	done   bool
	sel    int

	unsubscribe []func()
}

func (v *argsVariant) parts() []any {
	if v.caller == nil {
		return v.values
	}
	parts := make([]any, 0, len(v.values)+1)
	parts = append(parts, v.caller)
	return append(parts, v.values...)
}

func (v *argsVariant) dissect(l *Line) dissect.Result {
	if !v.done && l.buf != nil {
		v.result = l.buf.dissector.Dissect(v.parts())
		v.done = true
	}
	return v.result
}

func (v *argsVariant) Refresh(l *Line) {
	v.done = false
}

func (v *argsVariant) Content(l *Line) core.Text {
	hl := -1
	if l.selected {
		hl = v.sel
	}
	return v.dissect(l).Text(hl)
}

func (v *argsVariant) Select(l *Line, col int) any {
	ord, ok := v.dissect(l).At(col)
	if !ok {
		return nil
	}
	parts := v.parts()
	val := parts[ord]
	if l.open && ord == v.sel {
		return val
	}
	if l.open {
		l.buf.collapse(l)
	}
	v.sel = ord
	if v.caller != nil && ord == 0 {
		return val
	}
	l.buf.expand(l, val)
	return val
}

func (v *argsVariant) Unselect(l *Line, next *Line) {
	if next == nil || !next.IsDescendantOf(l) {
		v.sel = -1
	}
}

func (v *argsVariant) ClipboardValue(l *Line) (any, bool) {
	if v.sel < 0 {
		return nil, false
	}
	parts := v.parts()
	if v.sel >= len(parts) {
		return nil, false
	}
	return parts[v.sel], true
}

func (v *argsVariant) Compare(values []any, opts DispatchOptions, eq EqualityPolicy) bool {
	if opts.Annotation != "" {
		return false
	}
	return eq(v.parts(), (&argsVariant{values: values, caller: opts.Caller}).parts())
}

func (v *argsVariant) Repeat(l *Line) {
	if v.caller != nil {
		v.caller.Seen = l.seen
	}
	v.done = false
}

// Attach subscribes to values that report progress. Updates arrive on any
// goroutine and are posted back to the loop.
func (v *argsVariant) Attach(l *Line) {
	b := l.buf
	for i, val := range v.values {
		p, ok := val.(dissect.Progresser)
		if !ok {
			continue
		}
		ord := i
		if v.caller != nil {
			ord++
		}
		v.unsubscribe = append(v.unsubscribe, p.SubscribeProgress(func(float64) {
			_ = b.sched.Post(func() {
				if !l.Attached() {
					return
				}
				v.result = b.dissector.Replace(v.dissect(l), ord, val)
				b.Redraw(l)
			})
		}))
	}
}

func (v *argsVariant) Detach(l *Line) {
	for _, fn := range v.unsubscribe {
		fn()
	}
	v.unsubscribe = nil
}

// Values returns the logged values of an argument line.
func (l *Line) Values() []any {
	if v, ok := l.variant.(*argsVariant); ok {
		return v.values
	}
	return nil
}
