// Package sandbox defines the contract between the evaluator and the
// embedded interpreters that run submitted code.
//
// Sandboxes are not goroutine-safe. Every call must come from the event loop
// goroutine; asynchronous settlement is delivered through the Scheduler the
// sandbox was created with.
package sandbox

import (
	"context"
	"errors"
	"time"
)

// Sandbox evaluates code in an isolated interpreter.
type Sandbox interface {
	// Name identifies the language, for example "js".
	Name() string

	// Evaluate runs code and returns its completion value. Values thrown by
	// the code are returned as *ThrownError, parse failures as
	// *SyntaxError.
	Evaluate(ctx context.Context, code string) (any, error)

	// Load runs a whole program under a file name.
	Load(ctx context.Context, name, source string) (any, error)

	// Expression rewrites code so it is parsed as an expression.
	Expression(code string) string

	// Async rewrites code so that evaluating it yields a Pending.
	Async(code string) string

	// Module wraps a program so top-level return statements are legal.
	Module(source string) string

	// SetGlobal binds a Go value to a global name.
	SetGlobal(name string, v any) error

	Close() error
}

// Pending is a computation that settles later. Callbacks run on the loop.
type Pending interface {
	Then(onFulfilled func(v any), onRejected func(reason any))
}

// Scheduler delivers asynchronous work back onto the event loop.
type Scheduler interface {
	Post(fn func()) error
	AfterFunc(d time.Duration, fn func()) (stop func() bool)
}

// Errors shared by sandboxes.
var (
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("sandbox closed")

	// ErrTimeout is returned when evaluation exceeds its deadline.
	ErrTimeout = errors.New("evaluation timed out")

	// ErrIllegalReturn marks a syntax error caused by a top-level return.
	ErrIllegalReturn = errors.New("illegal return statement")
)

// ThrownError is a value thrown by sandboxed code.
type ThrownError struct {
	Value   any
	Message string
}

func (e *ThrownError) Error() string {
	return e.Message
}

// InspectTarget exposes the thrown value to the inspector.
func (e *ThrownError) InspectTarget() any {
	return e.Value
}

// SyntaxError is a parse failure.
type SyntaxError struct {
	Message string
	Err     error
}

func (e *SyntaxError) Error() string {
	return e.Message
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}
