package scrollback

import (
	"github.com/dshills/lookout/internal/dissect"
	"github.com/dshills/lookout/internal/inspect"
)

// DispatchOptions describe where a dispatched entry came from.
type DispatchOptions struct {
	Caller     *dissect.CallerInfo
	Annotation string
}

// Dispatch adds a logged entry. An entry equal to the previously dispatched
// one increments that line's repeat count instead of adding a line.
func (b *Buffer) Dispatch(values []any, kind Kind, opts DispatchOptions) *Line {
	if last := b.lines[b.lastDispatched]; last != nil && last.kind == kind {
		if c, ok := last.variant.(comparer); ok && c.Compare(values, opts, b.equality()) {
			b.AddRepeat(last, 1)
			return last
		}
	}

	if len(b.order) > b.cfg.TrimThreshold {
		b.TrimTop(b.cfg.TrimCount)
	}

	l := NewArgs(kind, values, opts)
	b.Append(l, true)
	b.lastDispatched = l.id
	return l
}

// AddRepeat increments the repeat count of l by n and redraws it.
func (b *Buffer) AddRepeat(l *Line, n int) {
	if n <= 0 || !l.Attached() {
		return
	}
	l.seen += n
	if r, ok := l.variant.(repeater); ok {
		r.Repeat(l)
	}
	b.Redraw(l)
}

// Update replaces the content of an argument line in place. It is used to
// settle placeholders such as a pending evaluation.
func (b *Buffer) Update(l *Line, kind Kind, values []any) {
	if !l.Attached() || l.buf != b {
		return
	}
	if b.selected == l.id {
		b.unselect(l, nil)
	} else if len(l.children) > 0 {
		b.collapse(l)
	}
	var caller *dissect.CallerInfo
	if v, ok := l.variant.(*argsVariant); ok {
		v.Detach(l)
		caller = v.caller
	}
	l.kind = kind
	l.variant = &argsVariant{values: values, caller: caller, sel: -1}
	b.attach(l)
	b.Redraw(l)
}

func (b *Buffer) equality() EqualityPolicy {
	if b.cfg.Equality != nil {
		return b.cfg.Equality
	}
	return SameValues
}

// SameValues is the default repeat-merge policy: the same number of values,
// each the same by inspect.Same, and the same caller site.
func SameValues(prev, next []any) bool {
	if len(prev) != len(next) {
		return false
	}
	for i := range prev {
		pc, pok := prev[i].(*dissect.CallerInfo)
		nc, nok := next[i].(*dissect.CallerInfo)
		if pok || nok {
			if !pok || !nok || pc.Path != nc.Path || pc.File != nc.File || pc.Line != nc.Line {
				return false
			}
			continue
		}
		if !inspect.Same(prev[i], next[i]) {
			return false
		}
	}
	return true
}
