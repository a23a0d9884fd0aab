// Package scrollback is the transcript: an ordered list of Lines mapped onto
// the rows of a render surface, with click-to-expand inspection of logged
// values.
//
// A Buffer is not safe for concurrent use. It belongs to the event loop
// goroutine; other goroutines reach it through Scheduler.Post.
package scrollback

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/dshills/lookout/internal/dissect"
	"github.com/dshills/lookout/internal/renderer/core"
	"github.com/dshills/lookout/internal/renderer/style"
)

// Surface is the row-oriented screen the buffer writes to.
type Surface interface {
	SetRow(i int, t core.Text)
	InsertRow(i int, t core.Text)
	DeleteRow(i int)
	RequestRepaint()
}

// Follower is implemented by surfaces that can stick to the bottom.
type Follower interface {
	SetFollow(on bool)
	Following() bool
	ScrollToBottom()
}

// Scheduler runs deferred work on the buffer's goroutine.
type Scheduler interface {
	// Defer runs fn after the current task. Loop goroutine only.
	Defer(fn func())
	// AfterFunc runs fn on the loop after d.
	AfterFunc(d time.Duration, fn func()) (stop func() bool)
	// Post queues fn from any goroutine.
	Post(fn func()) error
	Now() time.Time
}

// EqualityPolicy decides whether a dispatched entry repeats the previous
// one. prev and next include the caller info when present.
type EqualityPolicy func(prev, next []any) bool

// Config holds buffer tunables.
type Config struct {
	// TrimThreshold is the length above which the oldest lines are trimmed.
	TrimThreshold int
	// TrimCount is how many lines a trim removes.
	TrimCount int
	// RenderInterval is the minimum time between repaints.
	RenderInterval time.Duration
	// RowsPerPage is the number of hex rows per page.
	RowsPerPage int
	// SortKeys orders enumerable keys alphabetically when expanding.
	SortKeys bool
	// EagerGetters reads getter values on expansion instead of on select.
	EagerGetters bool
	// Equality overrides the repeat-merge comparison.
	Equality EqualityPolicy
}

// DefaultConfig returns the default buffer configuration.
func DefaultConfig() Config {
	return Config{
		TrimThreshold:  1100,
		TrimCount:      100,
		RenderInterval: 70 * time.Millisecond,
		RowsPerPage:    25,
	}
}

// Buffer is the scrollback registry.
type Buffer struct {
	cfg       Config
	sched     Scheduler
	surface   Surface
	dissector *dissect.Dissector
	theme     *style.Theme
	logger    *zap.Logger

	lines  map[LineID]*Line
	order  []*Line
	nextID LineID

	selected       LineID
	selectedValue  any
	lastDispatched LineID

	rendered      bool
	lastRender    time.Time
	renderPending bool
}

// Option configures a Buffer.
type Option func(*Buffer)

// WithSurface sets the render surface.
func WithSurface(s Surface) Option {
	return func(b *Buffer) { b.surface = s }
}

// WithDissector sets the dissector used for argument lines.
func WithDissector(d *dissect.Dissector) Option {
	return func(b *Buffer) { b.dissector = d }
}

// WithTheme sets the theme.
func WithTheme(t *style.Theme) Option {
	return func(b *Buffer) { b.theme = t }
}

// WithConfig sets the configuration.
func WithConfig(cfg Config) Option {
	return func(b *Buffer) { b.cfg = cfg }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(b *Buffer) {
		if l != nil {
			b.logger = l
		}
	}
}

// New creates a buffer that runs deferred work on sched.
func New(sched Scheduler, opts ...Option) *Buffer {
	b := &Buffer{
		cfg:    DefaultConfig(),
		sched:  sched,
		logger: zap.NewNop(),
		lines:  make(map[LineID]*Line),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.theme == nil {
		b.theme = style.NewTheme()
	}
	if b.dissector == nil {
		b.dissector = dissect.New(dissect.Options{Theme: b.theme})
	}
	b.cfg = b.cfg.withDefaults()
	return b
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.TrimThreshold <= 0 {
		c.TrimThreshold = d.TrimThreshold
	}
	if c.TrimCount <= 0 {
		c.TrimCount = d.TrimCount
	}
	if c.RenderInterval < 0 {
		c.RenderInterval = 0
	}
	if c.RowsPerPage <= 0 {
		c.RowsPerPage = d.RowsPerPage
	}
	return c
}

// Config returns the configuration in use.
func (b *Buffer) Config() Config { return b.cfg }

// Configure replaces the configuration. Existing lines keep their layout
// until they are redrawn or re-expanded.
func (b *Buffer) Configure(cfg Config) {
	b.cfg = cfg.withDefaults()
}

// SetDissector replaces the dissector and redraws every line.
func (b *Buffer) SetDissector(d *dissect.Dissector) {
	if d == nil {
		return
	}
	b.dissector = d
	b.Refresh()
}

// Theme returns the theme lines are drawn with.
func (b *Buffer) Theme() *style.Theme { return b.theme }

// Len returns the number of lines.
func (b *Buffer) Len() int { return len(b.order) }

// At returns the line at index i, or nil.
func (b *Buffer) At(i int) *Line {
	if i < 0 || i >= len(b.order) {
		return nil
	}
	return b.order[i]
}

// Line returns the line with the given ID, or nil.
func (b *Buffer) Line(id LineID) *Line {
	return b.lines[id]
}

// Append adds l at the tail. When deferred is set the row is inserted
// empty and its content written on the next scheduler tick.
func (b *Buffer) Append(l *Line, deferred bool) *Line {
	b.register(l)
	l.index = len(b.order)
	b.order = append(b.order, l)

	if deferred {
		b.surfaceInsert(l.index, nil)
		b.sched.Defer(func() { b.redraw(l) })
	} else {
		b.surfaceInsert(l.index, l.Display())
	}
	b.attach(l)

	if f, ok := b.surface.(Follower); ok && f.Following() {
		f.ScrollToBottom()
	}
	b.Render()
	return l
}

// InsertAfter inserts l directly below index after. An index of -1 inserts
// at the top.
func (b *Buffer) InsertAfter(l *Line, after int) *Line {
	if after >= len(b.order) {
		after = len(b.order) - 1
	}
	if after < -1 {
		after = -1
	}
	b.register(l)
	b.insertAt(after+1, l)
	b.Render()
	return l
}

func (b *Buffer) register(l *Line) {
	b.nextID++
	l.id = b.nextID
	l.buf = b
	b.lines[l.id] = l
}

func (b *Buffer) insertAt(i int, l *Line) {
	b.order = append(b.order, nil)
	copy(b.order[i+1:], b.order[i:])
	b.order[i] = l
	b.renumber(i)
	b.surfaceInsert(i, l.Display())
	b.attach(l)
}

func (b *Buffer) attach(l *Line) {
	if a, ok := l.variant.(attacher); ok {
		a.Attach(l)
	}
}

func (b *Buffer) renumber(from int) {
	for i := from; i < len(b.order); i++ {
		b.order[i].index = i
	}
}

// RemoveIndices removes the lines at the given indices together with their
// descendants and returns how many lines were removed.
func (b *Buffer) RemoveIndices(indices []int) int {
	doomed := make(map[int]struct{})
	var walk func(l *Line)
	walk = func(l *Line) {
		if _, ok := doomed[l.index]; ok {
			return
		}
		doomed[l.index] = struct{}{}
		for _, c := range l.Children() {
			if c.index >= 0 {
				walk(c)
			}
		}
	}
	for _, i := range indices {
		if l := b.At(i); l != nil {
			walk(l)
		}
	}
	if len(doomed) == 0 {
		return 0
	}

	sorted := make([]int, 0, len(doomed))
	for i := range doomed {
		sorted = append(sorted, i)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))

	for _, i := range sorted {
		l := b.order[i]
		b.order = append(b.order[:i], b.order[i+1:]...)
		if b.surface != nil {
			b.surface.DeleteRow(i)
		}
		b.detach(l)
	}
	b.renumber(sorted[len(sorted)-1])
	return len(sorted)
}

func (b *Buffer) detach(l *Line) {
	if d, ok := l.variant.(detacher); ok {
		d.Detach(l)
	}
	if p := b.lines[l.parent]; p != nil {
		for j, id := range p.children {
			if id == l.id {
				p.children = append(p.children[:j], p.children[j+1:]...)
				break
			}
		}
	}
	if b.selected == l.id {
		b.selected = 0
		b.selectedValue = nil
	}
	if b.lastDispatched == l.id {
		b.lastDispatched = 0
	}
	delete(b.lines, l.id)
	l.index = -1
	l.selected = false
	l.buf = nil
}

// RemoveLine removes the line at index i with its subtree and repaints.
func (b *Buffer) RemoveLine(i int) int {
	n := b.RemoveIndices([]int{i})
	if n > 0 {
		b.Render()
	}
	return n
}

// TrimTop removes the oldest n lines.
func (b *Buffer) TrimTop(n int) int {
	if n > len(b.order) {
		n = len(b.order)
	}
	if n <= 0 {
		return 0
	}
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	removed := b.RemoveIndices(indices)
	b.logger.Debug("trimmed scrollback", zap.Int("removed", removed), zap.Int("len", len(b.order)))
	return removed
}

// Clear removes every line.
func (b *Buffer) Clear() {
	b.TrimTop(len(b.order))
	b.Render()
}

// Refresh redraws every line.
func (b *Buffer) Refresh() {
	for _, l := range b.order {
		if r, ok := l.variant.(refresher); ok {
			r.Refresh(l)
		}
		b.redraw(l)
	}
	b.Render()
}

// Redraw rewrites the row of l and schedules a repaint.
func (b *Buffer) Redraw(l *Line) {
	b.redraw(l)
	b.Render()
}

func (b *Buffer) redraw(l *Line) {
	if !l.Attached() || l.buf != b || b.surface == nil {
		return
	}
	b.surface.SetRow(l.index, l.Display())
}

func (b *Buffer) surfaceInsert(i int, t core.Text) {
	if b.surface != nil {
		b.surface.InsertRow(i, t)
	}
}

// Render requests a repaint. Repaints are coalesced so that at most one
// happens per RenderInterval; a request inside the window is flushed when
// the window ends.
func (b *Buffer) Render() {
	if b.renderPending {
		return
	}
	now := b.sched.Now()
	elapsed := now.Sub(b.lastRender)
	if !b.rendered || elapsed >= b.cfg.RenderInterval {
		b.flush()
		return
	}
	b.renderPending = true
	b.sched.AfterFunc(b.cfg.RenderInterval-elapsed, func() {
		b.renderPending = false
		b.flush()
	})
}

func (b *Buffer) flush() {
	b.rendered = true
	b.lastRender = b.sched.Now()
	if b.surface != nil {
		b.surface.RequestRepaint()
	}
}

// SetFollow turns auto-scroll on or off.
func (b *Buffer) SetFollow(on bool) {
	if f, ok := b.surface.(Follower); ok {
		f.SetFollow(on)
		if on {
			f.ScrollToBottom()
		}
		b.Render()
	}
}
