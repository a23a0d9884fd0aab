// Package eval turns submitted text into transcript lines by running it in
// a sandbox.
//
// A submission appends a Command line echoing the text, then inserts the
// result directly below it: an EvalOutput line with the value or an Error
// line with what was thrown. Awaited computations first show a placeholder
// that is replaced in place once they settle.
package eval

import (
	"context"
	"errors"
	"regexp"

	"go.uber.org/zap"

	"github.com/dshills/lookout/internal/inspect"
	"github.com/dshills/lookout/internal/sandbox"
	"github.com/dshills/lookout/internal/scrollback"
)

// AwaitingText is shown while an awaited computation is pending.
const AwaitingText = "Awaiting promise..."

// SelectionGlobal is the sandbox global bound to the selected value.
const SelectionGlobal = "$0"

var awaitMarker = regexp.MustCompile(`\bawait\b`)

// Scheduler defers work to the next loop tick.
type Scheduler interface {
	Defer(fn func())
}

// Input is the prompt the text came from.
type Input interface {
	Clear()
}

// Bridge connects a sandbox to a scrollback buffer. It must be used from the
// loop goroutine.
type Bridge struct {
	buf    *scrollback.Buffer
	sb     sandbox.Sandbox
	sched  Scheduler
	input  Input
	logger *zap.Logger

	unselectOnReturn bool
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithInput clears in after every submission completes.
func WithInput(in Input) Option {
	return func(b *Bridge) { b.input = in }
}

// WithUnselectOnReturn unselects the transcript after every submission.
func WithUnselectOnReturn(on bool) Option {
	return func(b *Bridge) { b.unselectOnReturn = on }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(b *Bridge) {
		if l != nil {
			b.logger = l
		}
	}
}

// New creates a bridge.
func New(buf *scrollback.Buffer, sb sandbox.Sandbox, sched Scheduler, opts ...Option) *Bridge {
	b := &Bridge{
		buf:    buf,
		sb:     sb,
		sched:  sched,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Sandbox returns the sandbox in use.
func (b *Bridge) Sandbox() sandbox.Sandbox { return b.sb }

// SetUnselectOnReturn changes whether submissions unselect the transcript.
func (b *Bridge) SetUnselectOnReturn(on bool) { b.unselectOnReturn = on }

// Submit evaluates text. The returned future completes when the result line
// holds its final value; failures complete it with an error and never
// escape otherwise.
func (b *Bridge) Submit(ctx context.Context, text string) *Future {
	f := newFuture()
	cmd := b.buf.Append(scrollback.NewCommand(text), false)
	f.command = cmd

	b.exposeSelection()

	code, async := text, awaitMarker.MatchString(text)
	if async {
		code = b.sb.Async(text)
	}

	v, err := b.evaluate(ctx, code)
	if err != nil {
		f.output = b.buf.InsertAfter(errorLine(err), cmd.Index())
		b.finish(f, nil, err)
		return f
	}

	p, pending := v.(sandbox.Pending)
	if !async || !pending {
		f.output = b.buf.InsertAfter(outputLine(v), cmd.Index())
		b.finish(f, v, nil)
		return f
	}

	out := b.buf.InsertAfter(scrollback.NewPlaceholder(scrollback.KindEvalOutput, AwaitingText), cmd.Index())
	f.output = out
	p.Then(
		func(v any) {
			b.buf.Update(out, scrollback.KindEvalOutput, []any{v})
			b.finish(f, v, nil)
		},
		func(reason any) {
			err := asError(reason)
			b.buf.Update(out, scrollback.KindError, []any{err})
			b.finish(f, nil, err)
		},
	)
	return f
}

// evaluate tries code as an expression, then as statements.
func (b *Bridge) evaluate(ctx context.Context, code string) (any, error) {
	v, err := b.sb.Evaluate(ctx, b.sb.Expression(code))
	if err == nil {
		return v, nil
	}
	if !retryable(ctx, err) {
		return nil, err
	}
	b.logger.Debug("expression failed, retrying as statements", zap.Error(err))
	return b.sb.Evaluate(ctx, code)
}

// retryable reports whether a failed attempt may be repeated. Timeouts and
// cancellations are final.
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	return !errors.Is(err, sandbox.ErrTimeout) && !errors.Is(err, sandbox.ErrClosed)
}

func (b *Bridge) exposeSelection() {
	if err := b.sb.SetGlobal(SelectionGlobal, b.buf.SelectedValue()); err != nil {
		b.logger.Debug("could not expose selection", zap.Error(err))
	}
}

// finish completes f on the next tick, after the input that submitted it
// has been handled.
func (b *Bridge) finish(f *Future, v any, err error) {
	f.value, f.err = v, err
	if err != nil {
		b.logger.Debug("evaluation failed", zap.Error(err))
	}
	b.sched.Defer(func() {
		if b.unselectOnReturn {
			b.buf.Unselect()
		}
		if b.input != nil {
			b.input.Clear()
		}
		close(f.done)
	})
}

// Console dispatches sandbox console output into the transcript.
func (b *Bridge) Console(level string, args []any) {
	b.buf.Dispatch(args, ConsoleKind(level), scrollback.DispatchOptions{})
}

// ConsoleKind maps a console level to a line kind.
func ConsoleKind(level string) scrollback.Kind {
	switch level {
	case "error":
		return scrollback.KindError
	case "warn":
		return scrollback.KindWarning
	case "info":
		return scrollback.KindInfo
	}
	return scrollback.KindArgs
}

func outputLine(v any) *scrollback.Line {
	return scrollback.NewArgs(scrollback.KindEvalOutput, []any{v}, scrollback.DispatchOptions{})
}

func errorLine(err error) *scrollback.Line {
	return scrollback.NewArgs(scrollback.KindError, []any{err}, scrollback.DispatchOptions{})
}

// asError converts a rejection reason into an error.
func asError(reason any) error {
	if err, ok := reason.(error); ok {
		return err
	}
	return &sandbox.ThrownError{Value: reason, Message: inspect.SafeFormat(reason)}
}
