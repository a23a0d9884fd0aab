// Package watcher reports changes to configuration files for live reload.
//
// Directories are watched rather than files so that editors which save by
// renaming a temporary file over the original are still seen. Bursts of
// events for one file are coalesced into a single event.
package watcher

import (
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Event is a change to a watched file.
type Event struct {
	// Path is the absolute path of the file.
	Path string
	Op   Operation
	Time time.Time
}

// Operation is the kind of change.
type Operation int

const (
	OpWrite Operation = iota
	OpCreate
	OpRemove
	OpRename
)

// String returns the operation name.
func (op Operation) String() string {
	switch op {
	case OpWrite:
		return "write"
	case OpCreate:
		return "create"
	case OpRemove:
		return "remove"
	case OpRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Handler is called for each coalesced event, from the watcher's
// goroutines.
type Handler func(event Event)

// ErrStopped is returned when watching after Stop.
var ErrStopped = errors.New("watcher: stopped")

// Watcher monitors files for changes.
type Watcher struct {
	mu       sync.Mutex
	fw       *fsnotify.Watcher
	files    map[string]bool
	dirs     map[string]bool
	handlers []Handler
	pending  map[string]*pendingEvent
	debounce time.Duration
	logger   *zap.Logger
	running  bool
	stopped  bool
	done     chan struct{}
}

type pendingEvent struct {
	op    Operation
	timer *time.Timer
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets how long a file must be quiet before its event is
// delivered. Zero delivers every event immediately.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d >= 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// New creates a watcher.
func New(opts ...Option) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fw:       fw,
		files:    make(map[string]bool),
		dirs:     make(map[string]bool),
		pending:  make(map[string]*pendingEvent),
		debounce: 100 * time.Millisecond,
		logger:   zap.NewNop(),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Watch adds a file. The file need not exist yet, but its directory must.
func (w *Watcher) Watch(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return ErrStopped
	}
	if !w.dirs[dir] {
		if err := w.fw.Add(dir); err != nil {
			return err
		}
		w.dirs[dir] = true
	}
	w.files[abs] = true
	return nil
}

// Unwatch removes a file. Its directory stays watched.
func (w *Watcher) Unwatch(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.files, abs)
	return nil
}

// OnChange registers a handler.
func (w *Watcher) OnChange(h Handler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers = append(w.handlers, h)
}

// WatchedFiles returns the watched files.
func (w *Watcher) WatchedFiles() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	files := make([]string, 0, len(w.files))
	for path := range w.files {
		files = append(files, path)
	}
	return files
}

// Start begins delivering events.
func (w *Watcher) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running || w.stopped {
		return
	}
	w.running = true
	go w.run()
}

// Stop stops the watcher and waits for its goroutine. Pending events are
// dropped.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	running := w.running
	for path, p := range w.pending {
		p.timer.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()

	_ = w.fw.Close()
	if running {
		<-w.done
	}
}

// run forwards fsnotify events until the underlying watcher closes.
func (w *Watcher) run() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", zap.Error(err))
		}
	}
}

// handle maps an fsnotify event to an Operation and emits it, debounced
// per path.
func (w *Watcher) handle(ev fsnotify.Event) {
	path := filepath.Clean(ev.Name)

	// Map the operation; chmod and the like are ignored
	var op Operation
	switch {
	case ev.Has(fsnotify.Remove):
		op = OpRemove
	case ev.Has(fsnotify.Rename):
		op = OpRename
	case ev.Has(fsnotify.Create):
		op = OpCreate
	case ev.Has(fsnotify.Write):
		op = OpWrite
	default:
		return
	}

	// Only watched files, and only while running
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.files[path] || w.stopped {
		return
	}
	if w.debounce == 0 {
		go w.emit(Event{Path: path, Op: op, Time: time.Now()})
		return
	}

	// Start a debounce window or extend the open one
	p, ok := w.pending[path]
	if !ok {
		p = &pendingEvent{op: op}
		w.pending[path] = p
		p.timer = time.AfterFunc(w.debounce, func() { w.flush(path) })
		return
	}
	p.op = coalesce(p.op, op)
	p.timer.Reset(w.debounce)
}

// coalesce merges a new operation into a pending one: removal wins, a
// pending creation stays a creation, and writes keep the earlier kind.
func coalesce(pending, next Operation) Operation {
	switch next {
	case OpRemove, OpRename:
		return next
	case OpCreate:
		return OpCreate
	default:
		return pending
	}
}

// flush emits the pending event for path once its debounce window ends.
func (w *Watcher) flush(path string) {
	w.mu.Lock()
	p, ok := w.pending[path]
	if ok {
		delete(w.pending, path)
	}
	stopped := w.stopped
	w.mu.Unlock()

	if ok && !stopped {
		w.emit(Event{Path: path, Op: p.op, Time: time.Now()})
	}
}

// emit calls every handler with event.
func (w *Watcher) emit(event Event) {
	w.mu.Lock()
	handlers := append([]Handler(nil), w.handlers...)
	w.mu.Unlock()

	for _, h := range handlers {
		w.safeCall(h, event)
	}
}

// safeCall runs h and logs a panic instead of propagating it.
func (w *Watcher) safeCall(h Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("watch handler panicked", zap.Any("panic", r), zap.String("path", event.Path))
		}
	}()
	h(event)
}
