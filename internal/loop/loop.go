// Package loop provides the single logical thread that owns the transcript.
//
// All buffer mutation happens on the goroutine running Loop.Run. Other
// goroutines (terminal input, sandbox completions, log ingestion, timers)
// hand work over with Post, which never blocks and never drops.
//
// Usage:
//
//	l := loop.New()
//	go l.Run(ctx)
//	defer l.Close()
//
//	// From any goroutine:
//	l.Post(func() { buf.Dispatch(values, scrollback.KindArgs, opts) })
package loop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// ErrClosed is returned when posting to a closed loop.
var ErrClosed = errors.New("loop is closed")

// PanicHandler receives values recovered from tasks.
type PanicHandler func(recovered any)

// Loop serializes closures onto one goroutine.
type Loop struct {
	mu      sync.Mutex
	pending []func()
	wake    chan struct{}

	// deferred tasks run after the current batch; only touched by Run.
	deferred []func()

	onPanic PanicHandler
	closed  atomic.Bool
	done    chan struct{}
	once    sync.Once
}

// Option configures a Loop.
type Option func(*Loop)

// WithPanicHandler installs a handler for panics raised by tasks.
// Without one a task panic propagates and takes the process down.
func WithPanicHandler(h PanicHandler) Option {
	return func(l *Loop) { l.onPanic = h }
}

// New creates a loop. Call Run to start processing.
func New(opts ...Option) *Loop {
	l := &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Post queues fn to run on the loop goroutine. Safe from any goroutine.
func (l *Loop) Post(fn func()) error {
	if l.closed.Load() {
		return ErrClosed
	}
	l.mu.Lock()
	l.pending = append(l.pending, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return nil
}

// Defer queues fn to run once the current batch of tasks finishes.
// It must be called from the loop goroutine.
func (l *Loop) Defer(fn func()) {
	l.deferred = append(l.deferred, fn)
}

// AfterFunc runs fn on the loop once d has elapsed. The returned function
// cancels the timer and reports whether it stopped it before firing.
func (l *Loop) AfterFunc(d time.Duration, fn func()) func() bool {
	t := time.AfterFunc(d, func() { _ = l.Post(fn) })
	return t.Stop
}

// Now returns the current time.
func (l *Loop) Now() time.Time {
	return time.Now()
}

// Do runs fn on the loop and waits for it to finish.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	result := make(chan error, 1)
	err := l.Post(func() {
		defer func() {
			if r := recover(); r != nil {
				result <- fmt.Errorf("loop task panic: %v", r)
			}
		}()
		fn()
		result <- nil
	})
	if err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		select {
		case err := <-result:
			return err
		default:
			return ErrClosed
		}
	case err := <-result:
		return err
	}
}

// Run processes tasks until the context is cancelled or Close is called.
func (l *Loop) Run(ctx context.Context) error {
	defer l.Close()
	for {
		l.drain()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return nil
		case <-l.wake:
		}
	}
}

// drain runs every queued task, then the deferred ones, until both are
// empty. Tasks posted while draining run in the same pass.
func (l *Loop) drain() {
	for {
		l.mu.Lock()
		batch := l.pending
		l.pending = nil
		l.mu.Unlock()

		if len(batch) == 0 && len(l.deferred) == 0 {
			return
		}
		for _, fn := range batch {
			l.run(fn)
		}

		deferred := l.deferred
		l.deferred = nil
		for _, fn := range deferred {
			l.run(fn)
		}
	}
}

func (l *Loop) run(fn func()) {
	if l.onPanic != nil {
		defer func() {
			if r := recover(); r != nil {
				l.onPanic(r)
			}
		}()
	}
	fn()
}

// Close stops the loop. Pending tasks are discarded.
func (l *Loop) Close() {
	l.once.Do(func() {
		l.closed.Store(true)
		close(l.done)
	})
}

// Done is closed once the loop stops.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
