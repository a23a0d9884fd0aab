package dissect

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dshills/lookout/internal/renderer/core"
	"github.com/dshills/lookout/internal/renderer/style"
)

// CallerInfo is the origin of a logged entry. It renders as a badge:
//
//	15:04:05 [label:line] (seen)
type CallerInfo struct {
	Time time.Time
	// File is the base name of the source file.
	File string
	// Path is the full source path.
	Path string
	Line int
	// Seen counts repeated entries from this call site.
	Seen int
}

// Label resolves the display label for the caller: the name map entry for
// the path or file, else the file name without extension.
func (c CallerInfo) Label(names map[string]string) string {
	if l, ok := names[c.Path]; ok && l != "" {
		return l
	}
	if l, ok := names[c.File]; ok && l != "" {
		return l
	}
	base := filepath.Base(c.File)
	return strings.TrimSpace(strings.TrimSuffix(base, filepath.Ext(base)))
}

func (d *Dissector) badge(c CallerInfo) core.Text {
	th := d.opts.Theme
	t := th.Text(style.ClassBadgeTime, c.Time.Format("15:04:05"))
	t = t.Add(" ", core.DefaultStyle())
	t = t.Concat(th.Text(style.ClassBadgeBracket, "["))
	t = t.Concat(th.Text(style.ClassBadgeFile, fmt.Sprintf("%s:%d", c.Label(d.opts.NameMap), c.Line)))
	t = t.Concat(th.Text(style.ClassBadgeBracket, "]"))
	if c.Seen > 1 {
		t = t.Add(" (", core.DefaultStyle())
		t = t.Concat(th.Text(style.ClassBadgeSeen, strconv.Itoa(c.Seen)))
		t = t.Concat(th.Text(style.ClassBadgeBracket, ")"))
	}
	if pad := d.opts.CallerMinWidth - t.Width(); pad > 0 {
		t = t.Add(strings.Repeat(" ", pad), core.DefaultStyle())
	}
	return t
}
