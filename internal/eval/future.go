package eval

import (
	"context"

	"github.com/dshills/lookout/internal/scrollback"
)

// Future is the outcome of a submission.
type Future struct {
	done    chan struct{}
	command *scrollback.Line
	output  *scrollback.Line
	value   any
	err     error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Done is closed once the output line holds its final value.
func (f *Future) Done() <-chan struct{} { return f.done }

// Command returns the line echoing the submitted text.
func (f *Future) Command() *scrollback.Line { return f.command }

// Output returns the EvalOutput or Error line.
func (f *Future) Output() *scrollback.Line { return f.output }

// Result returns the value or the failure. It is only meaningful after Done
// is closed.
func (f *Future) Result() (any, error) { return f.value, f.err }

// Wait blocks until the future completes. It must not be called from the
// loop goroutine, which is the one completing it.
func (f *Future) Wait(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
