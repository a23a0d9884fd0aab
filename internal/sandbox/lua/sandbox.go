// Package lua is an alternative sandbox backed by gopher-lua.
//
// gopher-lua's LState is not goroutine-safe. Like every sandbox, a Sandbox
// must only be used from the event loop goroutine.
package lua

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/dshills/lookout/internal/sandbox"
)

// DefaultTimeout bounds a single evaluation.
const DefaultTimeout = 5 * time.Second

// PrintFunc receives print calls.
type PrintFunc func(args []any)

// Sandbox runs Lua code.
type Sandbox struct {
	L       *lua.LState
	timeout time.Duration
	print   PrintFunc
	logger  *zap.Logger
	closed  bool
}

// Option configures a Sandbox.
type Option func(*Sandbox)

// WithTimeout sets the evaluation timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(s *Sandbox) { s.timeout = d }
}

// WithPrint routes print output.
func WithPrint(fn PrintFunc) Option {
	return func(s *Sandbox) { s.print = fn }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Sandbox) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a sandboxed Lua state with only the base, table, string and
// math libraries.
func New(opts ...Option) *Sandbox {
	s := &Sandbox{
		timeout: DefaultTimeout,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.L = lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(s.L)
	s.restrict()
	return s
}

// openSafeLibraries opens only libraries without file or process access.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// Name returns "lua".
func (s *Sandbox) Name() string { return "lua" }

// Expression turns code into a return statement.
func (s *Sandbox) Expression(code string) string {
	return "return (" + code + ")"
}

var awaitKeyword = regexp.MustCompile(`\bawait\s+`)

// Async drops await keywords. Lua evaluation is synchronous, so the result
// is already settled.
func (s *Sandbox) Async(code string) string {
	return s.Expression(awaitKeyword.ReplaceAllString(code, ""))
}

// Module returns source unchanged; a chunk may return at top level.
func (s *Sandbox) Module(source string) string {
	return source
}

// Evaluate runs code as a chunk.
func (s *Sandbox) Evaluate(ctx context.Context, code string) (any, error) {
	return s.Load(ctx, "<input>", code)
}

// Load compiles and runs source under name.
func (s *Sandbox) Load(ctx context.Context, name, source string) (any, error) {
	if s.closed {
		return nil, sandbox.ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fn, err := s.L.Load(strings.NewReader(source), name)
	if err != nil {
		return nil, s.convertError(err)
	}
	return s.run(ctx, fn)
}

func (s *Sandbox) run(ctx context.Context, fn *lua.LFunction) (any, error) {
	runCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	s.L.SetContext(runCtx)
	defer s.L.RemoveContext()

	top := s.L.GetTop()
	s.L.Push(fn)
	if err := s.pcall(); err != nil {
		s.L.SetTop(top)
		if runCtx.Err() != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, sandbox.ErrTimeout
		}
		return nil, s.convertError(err)
	}

	n := s.L.GetTop() - top
	results := make([]any, n)
	for i := range results {
		results[i] = s.export(s.L.Get(top + i + 1))
	}
	s.L.SetTop(top)

	switch n {
	case 0:
		return nil, nil
	case 1:
		return results[0], nil
	}
	return results, nil
}

// pcall runs the function on top of the stack with panic recovery.
func (s *Sandbox) pcall() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return s.L.PCall(0, lua.MultRet, nil)
}

// SetGlobal binds v to a global.
func (s *Sandbox) SetGlobal(name string, v any) error {
	if s.closed {
		return sandbox.ErrClosed
	}
	s.L.SetGlobal(name, s.toValue(v))
	return nil
}

// Close releases the Lua state.
func (s *Sandbox) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.L.Close()
	return nil
}

// convertError maps gopher-lua errors onto the sandbox error types.
func (s *Sandbox) convertError(err error) error {
	var apiErr *lua.ApiError
	if !errors.As(err, &apiErr) {
		return err
	}
	msg := apiErr.Error()
	if apiErr.Object != nil {
		msg = apiErr.Object.String()
	}
	if apiErr.Type == lua.ApiErrorSyntax {
		return &sandbox.SyntaxError{Message: msg, Err: err}
	}
	var value any = msg
	if apiErr.Object != nil {
		value = s.export(apiErr.Object)
	}
	return &sandbox.ThrownError{Value: value, Message: msg}
}
