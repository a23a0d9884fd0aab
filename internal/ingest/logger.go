// Package ingest feeds values from ordinary Go code into the transcript.
//
// Everything here may be called from any goroutine: entries are posted to
// the event loop, which owns the buffer.
package ingest

import (
	"path/filepath"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/dshills/lookout/internal/dissect"
	"github.com/dshills/lookout/internal/scrollback"
)

// Sink receives entries on the loop goroutine.
type Sink interface {
	Dispatch(values []any, kind scrollback.Kind, opts scrollback.DispatchOptions) *scrollback.Line
}

// Poster runs functions on the loop goroutine.
type Poster interface {
	Post(fn func()) error
}

// Logger dispatches values with the call site that logged them.
type Logger struct {
	sink   Sink
	post   Poster
	now    func() time.Time
	caller bool
	logger *zap.Logger
}

// Option configures a Logger.
type Option func(*Logger)

// WithClock sets the time source for caller badges.
func WithClock(now func() time.Time) Option {
	return func(l *Logger) { l.now = now }
}

// WithoutCaller drops caller badges.
func WithoutCaller() Option {
	return func(l *Logger) { l.caller = false }
}

// WithLogger sets the diagnostics logger.
func WithLogger(z *zap.Logger) Option {
	return func(l *Logger) {
		if z != nil {
			l.logger = z
		}
	}
}

// New creates a Logger.
func New(sink Sink, post Poster, opts ...Option) *Logger {
	l := &Logger{
		sink:   sink,
		post:   post,
		now:    time.Now,
		caller: true,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Log adds an ordinary entry.
func (l *Logger) Log(args ...any) { l.emit(scrollback.KindArgs, 1, args) }

// Info adds an informational entry.
func (l *Logger) Info(args ...any) { l.emit(scrollback.KindInfo, 1, args) }

// Warn adds a warning.
func (l *Logger) Warn(args ...any) { l.emit(scrollback.KindWarning, 1, args) }

// Error adds an error entry.
func (l *Logger) Error(args ...any) { l.emit(scrollback.KindError, 1, args) }

// Print adds an entry of any kind.
func (l *Logger) Print(kind scrollback.Kind, args ...any) { l.emit(kind, 1, args) }

// emit resolves the caller skip frames above its own caller.
func (l *Logger) emit(kind scrollback.Kind, skip int, args []any) {
	var opts scrollback.DispatchOptions
	if l.caller {
		if _, file, line, ok := runtime.Caller(skip + 1); ok {
			opts.Caller = l.callerInfo(file, line)
		}
	}
	l.dispatch(kind, args, opts)
}

func (l *Logger) callerInfo(path string, line int) *dissect.CallerInfo {
	return &dissect.CallerInfo{
		Time: l.now(),
		File: filepath.Base(path),
		Path: path,
		Line: line,
		Seen: 1,
	}
}

func (l *Logger) dispatch(kind scrollback.Kind, values []any, opts scrollback.DispatchOptions) {
	err := l.post.Post(func() {
		l.sink.Dispatch(values, kind, opts)
	})
	if err != nil {
		l.logger.Debug("dropped entry", zap.Stringer("kind", kind), zap.Error(err))
	}
}
