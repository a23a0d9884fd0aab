package scrollback

import (
	"fmt"
	"strings"

	"github.com/dshills/lookout/internal/renderer/core"
	"github.com/dshills/lookout/internal/renderer/style"
)

// Hex row layout, in content columns.
const (
	bytesPerRow = 16
	hexBase     = 12 // 4 spaces, 6-digit offset, 2 spaces
	hexWidth    = bytesPerRow * 3
	asciiBase   = hexBase + hexWidth + 3
)

// pager is the pagination and highlight state shared by the hex rows and
// paging rows of one expanded buffer.
type pager struct {
	data  []byte
	page  int
	pages int
	rows  int

	// highlight is the byte range [hlStart, hlEnd).
	hlStart, hlEnd int
}

func newPager(data []byte, rowsPerPage int) *pager {
	total := (len(data) + bytesPerRow - 1) / bytesPerRow
	pages := (total + rowsPerPage - 1) / rowsPerPage
	if pages < 1 {
		pages = 1
	}
	return &pager{data: data, pages: pages, rows: rowsPerPage}
}

func (p *pager) highlighted(off int) bool {
	return off >= p.hlStart && off < p.hlEnd
}

func (b *Buffer) hexChildren(parent *Line, data []byte) []*Line {
	if len(data) == 0 {
		return nil
	}
	pg := parent.pager
	if pg == nil {
		pg = newPager(data, b.cfg.RowsPerPage)
	}
	parent.pager = pg

	var lines []*Line
	if pg.pages > 1 {
		lines = append(lines, newLine(KindPaging, &pagingVariant{pg: pg}))
	}
	first := pg.page * pg.rows * bytesPerRow
	for off := first; off < len(data) && off < first+pg.rows*bytesPerRow; off += bytesPerRow {
		lines = append(lines, newLine(KindHex, &hexVariant{pg: pg, offset: off}))
	}
	if pg.pages > 1 {
		lines = append(lines, newLine(KindPaging, &pagingVariant{pg: pg}))
	}
	return lines
}

type hexVariant struct {
	pg     *pager
	offset int
}

func (v *hexVariant) row() []byte {
	end := v.offset + bytesPerRow
	if end > len(v.pg.data) {
		end = len(v.pg.data)
	}
	return v.pg.data[v.offset:end]
}

func (v *hexVariant) Content(l *Line) core.Text {
	th := l.theme()
	row := v.row()
	hl := th.Style(style.ClassHexHighlight)

	t := core.Plain("    ")
	t = t.Concat(th.Text(style.ClassLineNumber, fmt.Sprintf("%06x", v.offset)))
	t = t.Add("  ", core.DefaultStyle())
	for i := 0; i < bytesPerRow; i++ {
		if i >= len(row) {
			t = t.Add("   ", core.DefaultStyle())
			continue
		}
		st := core.DefaultStyle()
		if v.pg.highlighted(v.offset + i) {
			st = hl
		}
		t = t.Add(fmt.Sprintf("%02x", row[i]), st)
		t = t.Add(" ", core.DefaultStyle())
	}

	t = t.Concat(th.Text(style.ClassMuted, " │ "))
	for i, c := range row {
		st := core.DefaultStyle()
		if v.pg.highlighted(v.offset + i) {
			st = hl
		}
		t = t.Add(string(asciiGlyph(c)), st)
	}
	t = t.Add(strings.Repeat(" ", bytesPerRow-len(row)), core.DefaultStyle())
	return t.Concat(th.Text(style.ClassMuted, " │"))
}

// byteAt maps a content column to the byte index within the row.
func (v *hexVariant) byteAt(col int) (int, bool) {
	var i int
	switch {
	case col >= hexBase && col < hexBase+hexWidth:
		i = (col - hexBase) / 3
	case col >= asciiBase && col < asciiBase+bytesPerRow:
		i = col - asciiBase
	default:
		return 0, false
	}
	if i >= len(v.row()) {
		return 0, false
	}
	return i, true
}

func (v *hexVariant) Select(l *Line, col int) any {
	i, ok := v.byteAt(col)
	if !ok {
		return nil
	}
	v.pg.hlStart = v.offset + i
	v.pg.hlEnd = v.pg.hlStart + 1
	redrawSiblings(l)
	return v.pg.data[v.pg.hlStart]
}

func (v *hexVariant) Unselect(l *Line, next *Line) {
	if next != nil {
		if nv, ok := next.variant.(*hexVariant); ok && nv.pg == v.pg {
			return
		}
	}
	v.pg.hlStart, v.pg.hlEnd = 0, 0
	redrawSiblings(l)
}

// Drag highlights the bytes between two cells of rows from the same buffer.
func (v *hexVariant) Drag(from, to *Line, fromCol, toCol int) {
	tv, ok := to.variant.(*hexVariant)
	if !ok || tv.pg != v.pg {
		return
	}
	i, ok := v.byteAt(fromCol)
	if !ok {
		return
	}
	j, ok := tv.byteAt(toCol)
	if !ok {
		return
	}
	a, z := v.offset+i, tv.offset+j
	if a > z {
		a, z = z, a
	}
	v.pg.hlStart, v.pg.hlEnd = a, z+1
	redrawSiblings(from)
}

// ClipboardValue returns a copy of the highlighted bytes.
func (v *hexVariant) ClipboardValue(l *Line) (any, bool) {
	if v.pg.hlEnd <= v.pg.hlStart {
		return nil, false
	}
	out := make([]byte, v.pg.hlEnd-v.pg.hlStart)
	copy(out, v.pg.data[v.pg.hlStart:v.pg.hlEnd])
	return out, true
}

// HexRow returns the start offset and bytes of a hex line.
func (l *Line) HexRow() (offset int, row []byte, ok bool) {
	if v, isHex := l.variant.(*hexVariant); isHex {
		return v.offset, v.row(), true
	}
	return 0, nil, false
}

func redrawSiblings(l *Line) {
	p := l.Parent()
	if p == nil {
		l.buf.redraw(l)
		return
	}
	for _, c := range p.Children() {
		l.buf.redraw(c)
	}
}

const (
	prevLabel = "« Previous page"
	nextLabel = "Next page »"
)

type pagingVariant struct {
	pg *pager

	// button column ranges [start, end) in content columns
	prev, next [2]int
}

func (v *pagingVariant) hasPrev() bool {
	return v.pg.page > 0
}

func (v *pagingVariant) hasNext() bool {
	return v.pg.page+1 < v.pg.pages
}

// Content draws the page counter followed by the buttons that lead
// somewhere. The first page has no previous button and the last no next.
func (v *pagingVariant) Content(l *Line) core.Text {
	th := l.theme()
	start := fmt.Sprintf("    Page %d of %d ", v.pg.page+1, v.pg.pages)
	t := th.Text(style.ClassMuted, start)
	w := core.StringWidth(start)

	v.prev = [2]int{}
	if v.hasPrev() {
		v.prev = [2]int{w, w + core.StringWidth(prevLabel)}
		t = t.Concat(th.Text(style.ClassButton, prevLabel))
		w = v.prev[1]
	}

	v.next = [2]int{}
	if v.hasNext() {
		if v.hasPrev() {
			t = t.Add("  ", core.DefaultStyle())
			w += 2
		}
		v.next = [2]int{w, w + core.StringWidth(nextLabel)}
		t = t.Concat(th.Text(style.ClassButton, nextLabel))
	}
	return t
}

// Select turns the page when a button is clicked. The parent's rows are
// rebuilt and the selection moves to the parent.
func (v *pagingVariant) Select(l *Line, col int) any {
	v.Content(l)
	page := v.pg.page
	switch {
	case v.hasPrev() && col >= v.prev[0] && col < v.prev[1]:
		page--
	case v.hasNext() && col >= v.next[0] && col < v.next[1]:
		page++
	default:
		return nil
	}
	if page < 0 {
		page = 0
	}
	if page >= v.pg.pages {
		page = v.pg.pages - 1
	}
	v.pg.page = page

	parent := l.Parent()
	if parent == nil {
		return nil
	}
	return l.buf.repage(parent)
}

// Page returns the zero-based page and the page count of a paging line.
func (l *Line) Page() (page, pages int, ok bool) {
	if v, isPaging := l.variant.(*pagingVariant); isPaging {
		return v.pg.page, v.pg.pages, true
	}
	return 0, 0, false
}

// repage rebuilds the hex rows of parent for the current page and selects
// parent.
func (b *Buffer) repage(parent *Line) any {
	pg, val, col := parent.pager, parent.expanded, parent.selCol
	b.collapse(parent)
	parent.pager = pg
	b.expand(parent, val)

	parent.selected = true
	parent.selCol = col
	b.selected = parent.id
	b.selectedValue = val
	b.redraw(parent)
	return val
}

// asciiGlyph maps a byte to a printable glyph: control pictures for C0,
// ASCII, and code page 437 for the upper half. 0x00 and 0xff are both
// drawn as a plain space.
func asciiGlyph(c byte) rune {
	switch {
	case c == 0:
		return ' '
	case c < 0x20:
		return rune(0x2400 + int(c))
	case c < 0x7f:
		return rune(c)
	case c == 0x7f:
		return '⌂'
	default:
		return upperGlyphs[c-0x80]
	}
}

var upperGlyphs = []rune("ÇüéâäàåçêëèïîìÄÅÉæÆôöòûùÿÖÜ¢£¥₧ƒáíóúñÑªº¿⌐¬½¼¡«»░▒▓│┤╡╢╖╕╣║╗╝╜╛┐└┴┬├─┼╞╟╚╔╩╦╠═╬╧╨╤╥╙╘╒╓╫╪┘┌█▄▌▐▀αßΓπΣσµτΦΘΩδ∞φε∩≡±≥≤⌠⌡÷≈°∙·√ⁿ²■ ")
