package scrollback

// Select makes l the active selection and returns the value addressed by
// the content column col. The previous selection is unselected first.
func (b *Buffer) Select(l *Line, col int) any {
	if l == nil || !l.Attached() || l.buf != b {
		return nil
	}
	if prev := b.lines[b.selected]; prev != nil && prev != l {
		b.unselect(prev, l)
	}
	l.selected = true
	l.selCol = col
	b.selected = l.id

	v := l.variant.Select(l, col)
	if l.Attached() && b.selected == l.id {
		b.selectedValue = v
		b.redraw(l)
	}
	b.Render()
	return v
}

// Unselect clears the active selection and collapses it.
func (b *Buffer) Unselect() {
	if l := b.lines[b.selected]; l != nil {
		b.unselect(l, nil)
		b.Render()
	}
}

// Selected returns the selected line, or nil.
func (b *Buffer) Selected() *Line {
	return b.lines[b.selected]
}

// SelectedValue returns the value the last selection resolved to.
func (b *Buffer) SelectedValue() any {
	if b.selected == 0 {
		return nil
	}
	return b.selectedValue
}

// unselect clears the selection of l and walks up its ancestors, collapsing
// each one until next is reached or found below it.
func (b *Buffer) unselect(l, next *Line) {
	l.selected = false
	l.selCol = -1
	if b.selected == l.id {
		b.selected = 0
		b.selectedValue = nil
	}
	if u, ok := l.variant.(unselecter); ok {
		u.Unselect(l, next)
	}

	for cur := l; cur != nil; cur = cur.Parent() {
		if next != nil && (next == cur || next.IsDescendantOf(cur)) {
			break
		}
		b.collapse(cur)
	}
	b.redraw(l)
}

// collapse removes the children of l.
func (b *Buffer) collapse(l *Line) {
	if len(l.children) > 0 {
		indices := make([]int, 0, len(l.children))
		for _, c := range l.Children() {
			indices = append(indices, c.index)
		}
		b.RemoveIndices(indices)
	}
	l.children = nil
	l.open = false
	l.expanded = nil
	l.pager = nil
	b.redraw(l)
}

// MouseDown selects the line at row. col is the absolute screen column.
// A click below the last line clears the selection.
func (b *Buffer) MouseDown(row, col int) any {
	l := b.At(row)
	if l == nil {
		b.Unselect()
		return nil
	}
	return b.Select(l, col-l.prefixWidth())
}

// MouseDrag extends a selection from one cell to another. Only lines that
// support range selection react.
func (b *Buffer) MouseDrag(startRow, startCol, endRow, endCol int) {
	from, to := b.At(startRow), b.At(endRow)
	if from == nil || to == nil {
		return
	}
	d, ok := from.variant.(dragger)
	if !ok {
		return
	}
	d.Drag(from, to, startCol-from.prefixWidth(), endCol-to.prefixWidth())
	b.Render()
}

// ClipboardValue returns what copying the current selection should yield.
func (b *Buffer) ClipboardValue() (any, bool) {
	l := b.Selected()
	if l == nil {
		return nil, false
	}
	if v, ok := l.ClipboardValue(); ok {
		return v, true
	}
	return b.selectedValue, b.selectedValue != nil
}
