package scrollback

import (
	"fmt"
	"strings"

	"github.com/dshills/lookout/internal/inspect"
	"github.com/dshills/lookout/internal/renderer/core"
	"github.com/dshills/lookout/internal/renderer/style"
)

// unloaded is drawn in place of a getter that has not been read.
const unloaded = "(...)"

type propertyVariant struct {
	owner    inspect.Object
	prop     inspect.Property
	keyWidth int
	array    bool

	value  any
	err    error
	loaded bool
}

func (v *propertyVariant) load() {
	if v.loaded {
		return
	}
	v.value, v.err = inspect.Read(v.owner, v.prop)
	v.loaded = true
}

// resolved returns the value or the access error placeholder.
func (v *propertyVariant) resolved() any {
	if v.err != nil {
		return inspect.AccessError(v.prop.Key.String())
	}
	return v.value
}

func (v *propertyVariant) Content(l *Line) core.Text {
	th := l.theme()
	var t core.Text

	indent := "   "
	if l.depth > 1 {
		indent += strings.Repeat("  ", l.depth-1)
	}
	t = t.Add(indent, core.DefaultStyle())

	switch {
	case !v.prop.Flags.Has(inspect.FlagOpens):
		t = t.Add("  ", core.DefaultStyle())
	case v.array:
		t = t.Concat(th.Text(style.ClassTagBrace, "[ "))
	default:
		t = t.Concat(th.Text(style.ClassTagBrace, "{ "))
	}

	t = t.Concat(th.Text(keyClass(v.prop.Flags), core.PadRight(v.prop.Key.String(), v.keyWidth)))
	t = t.Add(" : ", core.DefaultStyle())

	var val core.Text
	switch {
	case !v.loaded:
		val = th.Text(style.ClassMuted, unloaded)
	case v.err != nil:
		val = th.Text(style.ClassGutterError, inspect.AccessError(v.prop.Key.String()))
	default:
		val = th.Text(valueClass(v.value), inspect.SafeFormat(v.value))
	}
	if l.selected {
		val = val.Restyle(0, val.Width(), core.Style.Reverse)
	}
	t = t.Concat(val)

	if v.prop.Flags.Has(inspect.FlagCloses) {
		if v.array {
			t = t.Concat(th.Text(style.ClassTagBrace, " ]"))
		} else {
			t = t.Concat(th.Text(style.ClassTagBrace, " }"))
		}
	}
	return t
}

// Select reads a pending getter and expands the value the first time.
// Selecting an open property again only moves the highlight.
func (v *propertyVariant) Select(l *Line, col int) any {
	v.load()
	if v.err != nil {
		return v.resolved()
	}
	if !l.open {
		l.buf.expand(l, v.value)
	}
	return v.value
}

func (v *propertyVariant) ClipboardValue(l *Line) (any, bool) {
	if !v.loaded {
		return nil, false
	}
	return v.resolved(), true
}

// Key returns the property name of a property line.
func (l *Line) Key() (inspect.Property, bool) {
	if v, ok := l.variant.(*propertyVariant); ok {
		return v.prop, true
	}
	return inspect.Property{}, false
}

func keyClass(f inspect.Flags) style.Class {
	switch {
	case f.Has(inspect.FlagSymbol):
		return style.ClassKeySymbol
	case f.Has(inspect.FlagGetter):
		return style.ClassKeyGetter
	case f.Has(inspect.FlagHidden), f.Has(inspect.FlagSource):
		return style.ClassKeyHidden
	default:
		return style.ClassKeyEnumerable
	}
}

func valueClass(v any) style.Class {
	if _, ok := inspect.FormatNumber(v); ok {
		return style.ClassNumber
	}
	switch v.(type) {
	case string:
		return style.ClassString
	case bool:
		return style.ClassBoolean
	case nil:
		return style.ClassMuted
	}
	if v == inspect.Undefined {
		return style.ClassMuted
	}
	return style.ClassText
}

type fragmentVariant struct {
	text        string
	num         int
	first, last bool
}

func (v *fragmentVariant) Content(l *Line) core.Text {
	th := l.theme()
	indent := "    "
	if l.depth > 1 {
		indent += strings.Repeat("  ", l.depth-1)
	}
	t := core.Plain(indent)
	t = t.Concat(th.Text(style.ClassLineNumber, fmt.Sprintf("%02d", v.num)))
	t = t.Add(" ", core.DefaultStyle())
	text := th.Text(style.ClassString, v.text)
	if l.selected {
		text = text.Restyle(0, text.Width(), core.Style.Reverse)
	}
	return t.Concat(text)
}

func (v *fragmentVariant) Select(l *Line, col int) any {
	return v.text
}

func (v *fragmentVariant) ClipboardValue(l *Line) (any, bool) {
	return v.text, true
}

// Fragment returns the text, 1-based line number and boundary flags of a
// string fragment line.
func (l *Line) Fragment() (text string, num int, first, last bool) {
	if v, ok := l.variant.(*fragmentVariant); ok {
		return v.text, v.num, v.first, v.last
	}
	return "", 0, false, false
}
