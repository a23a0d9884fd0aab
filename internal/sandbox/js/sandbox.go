// Package js is the default sandbox: an embedded ECMAScript interpreter.
package js

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/dshills/lookout/internal/sandbox"
)

// DefaultTimeout bounds a single evaluation.
const DefaultTimeout = 5 * time.Second

// ConsoleFunc receives console.* calls. level is one of "log", "info",
// "warn", "error" or "debug".
type ConsoleFunc func(level string, args []any)

// Sandbox runs JavaScript on a goja runtime.
type Sandbox struct {
	vm      *goja.Runtime
	sched   sandbox.Scheduler
	timeout time.Duration
	console ConsoleFunc
	logger  *zap.Logger
	helpers helpers

	timersMu sync.Mutex
	timers   map[int64]func() bool
	timerSeq int64

	closed bool
}

// Option configures a Sandbox.
type Option func(*Sandbox)

// WithTimeout sets the evaluation timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(s *Sandbox) { s.timeout = d }
}

// WithConsole routes console.* output.
func WithConsole(fn ConsoleFunc) Option {
	return func(s *Sandbox) { s.console = fn }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Sandbox) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a sandbox. Timers and promise settlement are delivered
// through sched.
func New(sched sandbox.Scheduler, opts ...Option) (*Sandbox, error) {
	s := &Sandbox{
		vm:      goja.New(),
		sched:   sched,
		timeout: DefaultTimeout,
		logger:  zap.NewNop(),
		timers:  make(map[int64]func() bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.vm.SetFieldNameMapper(goja.UncapFieldNameMapper())

	h, err := newHelpers(s.vm)
	if err != nil {
		return nil, fmt.Errorf("install helpers: %w", err)
	}
	s.helpers = h

	if err := s.installGlobals(); err != nil {
		return nil, err
	}
	return s, nil
}

// Name returns "js".
func (s *Sandbox) Name() string { return "js" }

// Expression parenthesizes code.
func (s *Sandbox) Expression(code string) string {
	return "(" + code + ")"
}

// Async wraps code in an immediately invoked async function.
func (s *Sandbox) Async(code string) string {
	return "(async function() { return (" + code + ")}())"
}

// Module wraps a program in a function body.
func (s *Sandbox) Module(source string) string {
	return "(function() {\n" + source + "\n})()"
}

// Evaluate runs code as a script.
func (s *Sandbox) Evaluate(ctx context.Context, code string) (any, error) {
	return s.run(ctx, func() (goja.Value, error) {
		return s.vm.RunString(code)
	})
}

// Load runs a program under a file name.
func (s *Sandbox) Load(ctx context.Context, name, source string) (any, error) {
	return s.run(ctx, func() (goja.Value, error) {
		return s.vm.RunScript(name, source)
	})
}

// SetGlobal binds v to a global. Values that came out of this sandbox are
// passed back as the original objects.
func (s *Sandbox) SetGlobal(name string, v any) error {
	if s.closed {
		return sandbox.ErrClosed
	}
	return s.vm.Set(name, s.toValue(v))
}

// Close stops pending timers and interrupts any running code.
func (s *Sandbox) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.timersMu.Lock()
	for id, stop := range s.timers {
		stop()
		delete(s.timers, id)
	}
	s.timersMu.Unlock()
	s.vm.Interrupt(sandbox.ErrClosed)
	return nil
}

func (s *Sandbox) run(ctx context.Context, fn func() (goja.Value, error)) (any, error) {
	if s.closed {
		return nil, sandbox.ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Timers are stopped before the interrupt flag is cleared.
	defer s.vm.ClearInterrupt()
	if s.timeout > 0 {
		t := time.AfterFunc(s.timeout, func() { s.vm.Interrupt(sandbox.ErrTimeout) })
		defer t.Stop()
	}
	stop := context.AfterFunc(ctx, func() { s.vm.Interrupt(ctx.Err()) })
	defer stop()

	v, err := fn()
	if err != nil {
		return nil, s.convertError(err)
	}
	return s.export(v), nil
}

// convertError maps goja errors onto the sandbox error types.
func (s *Sandbox) convertError(err error) error {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		if e, ok := interrupted.Value().(error); ok {
			return e
		}
		return sandbox.ErrTimeout
	}

	var syntax *goja.CompilerSyntaxError
	if errors.As(err, &syntax) {
		return newSyntaxError(syntax.Error())
	}

	var ex *goja.Exception
	if errors.As(err, &ex) {
		val := ex.Value()
		msg := val.String()
		if obj, ok := val.(*goja.Object); ok {
			if name := obj.Get("name"); name != nil && name.String() == "SyntaxError" {
				return newSyntaxError(msg)
			}
		}
		return &sandbox.ThrownError{Value: s.export(val), Message: msg}
	}
	return err
}

func newSyntaxError(msg string) error {
	e := &sandbox.SyntaxError{Message: msg}
	if strings.Contains(msg, "Illegal return") {
		e.Err = sandbox.ErrIllegalReturn
	}
	return e
}

// post delivers fn to the loop.
func (s *Sandbox) post(fn func()) {
	if err := s.sched.Post(fn); err != nil {
		s.logger.Debug("dropped sandbox callback", zap.Error(err))
	}
}

// call invokes a JS function from a loop callback, reporting exceptions.
func (s *Sandbox) call(fn goja.Callable, args ...goja.Value) {
	if s.closed {
		return
	}
	if _, err := fn(goja.Undefined(), args...); err != nil {
		s.logger.Debug("callback failed", zap.Error(err))
		if s.console != nil {
			s.console("error", []any{s.convertError(err)})
		}
	}
}
