package scrollback

import (
	"strings"

	"go.uber.org/zap"

	"github.com/dshills/lookout/internal/inspect"
	"github.com/dshills/lookout/internal/renderer/core"
)

// expand materializes the children of parent from v and inserts them
// directly below it. Values with nothing to show leave parent closed.
func (b *Buffer) expand(parent *Line, v any) {
	var children []*Line
	if data, ok := inspect.Bytes(v); ok {
		children = b.hexChildren(parent, data)
	} else if s, ok := v.(string); ok {
		children = fragmentChildren(s)
	} else if obj, ok := inspect.Of(v); ok {
		children = b.propertyChildren(obj)
	}
	if len(children) == 0 {
		return
	}
	parent.expanded = v
	parent.open = true
	b.insertChildren(parent, children)
	b.logger.Debug("expanded line",
		zap.Uint64("line", uint64(parent.id)),
		zap.Int("children", len(children)))
}

func (b *Buffer) insertChildren(parent *Line, children []*Line) {
	at := parent.index + 1
	for i, c := range children {
		c.parent = parent.id
		c.depth = parent.depth + 1
		b.register(c)
		parent.children = append(parent.children, c.id)
		b.insertAt(at+i, c)
	}
}

func (b *Buffer) propertyChildren(obj inspect.Object) []*Line {
	props := inspect.Enumerate(obj, inspect.Options{SortKeys: b.cfg.SortKeys})
	width := 0
	for _, p := range props {
		if w := core.StringWidth(p.Key.String()); w > width {
			width = w
		}
	}
	lines := make([]*Line, 0, len(props))
	for _, p := range props {
		pv := &propertyVariant{owner: obj, prop: p, keyWidth: width, array: obj.IsArray()}
		if !p.Flags.Has(inspect.FlagGetter) || b.cfg.EagerGetters {
			pv.load()
		}
		lines = append(lines, newLine(KindProperty, pv))
	}
	return lines
}

func fragmentChildren(s string) []*Line {
	if !strings.Contains(s, "\n") {
		return nil
	}
	rows := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	lines := make([]*Line, len(rows))
	for i, text := range rows {
		lines[i] = newLine(KindString, &fragmentVariant{
			text:  text,
			num:   i + 1,
			first: i == 0,
			last:  i == len(rows)-1,
		})
	}
	return lines
}
