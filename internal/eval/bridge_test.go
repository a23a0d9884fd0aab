package eval

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/lookout/internal/inspect"
	"github.com/dshills/lookout/internal/loop"
	"github.com/dshills/lookout/internal/sandbox"
	"github.com/dshills/lookout/internal/sandbox/js"
	"github.com/dshills/lookout/internal/scrollback"
)

type countingInput struct {
	cleared int
}

func (in *countingInput) Clear() { in.cleared++ }

func newJSBridge(t *testing.T, opts ...Option) (*Bridge, *scrollback.Buffer, *loop.Manual) {
	t.Helper()
	m := loop.NewManual(time.Unix(0, 0))
	buf := scrollback.New(m)
	var br *Bridge
	sb, err := js.New(m, js.WithConsole(func(level string, args []any) { br.Console(level, args) }))
	if err != nil {
		t.Fatalf("js.New() error = %v", err)
	}
	t.Cleanup(func() { _ = sb.Close() })
	br = New(buf, sb, m, opts...)
	return br, buf, m
}

func isDone(f *Future) bool {
	select {
	case <-f.Done():
		return true
	default:
		return false
	}
}

func kinds(buf *scrollback.Buffer) []scrollback.Kind {
	out := make([]scrollback.Kind, buf.Len())
	for i := range out {
		out[i] = buf.At(i).Kind()
	}
	return out
}

func TestSubmitExpression(t *testing.T) {
	br, buf, m := newJSBridge(t)

	f := br.Submit(context.Background(), "1+1")
	if diff := cmp.Diff([]scrollback.Kind{scrollback.KindCommand, scrollback.KindEvalOutput}, kinds(buf)); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}
	if got := buf.At(0).Text(); got != "1+1" {
		t.Errorf("command = %q", got)
	}
	if diff := cmp.Diff([]any{int64(2)}, f.Output().Values()); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
	if isDone(f) {
		t.Error("future should complete on the next tick")
	}

	m.Flush()
	if !isDone(f) {
		t.Fatal("future should be done after flush")
	}
	if v, err := f.Result(); err != nil || v != int64(2) {
		t.Errorf("Result() = %v, %v", v, err)
	}
}

func TestSubmitThrown(t *testing.T) {
	br, buf, m := newJSBridge(t)

	f := br.Submit(context.Background(), "nonexistentFn()")
	m.Flush()

	if diff := cmp.Diff([]scrollback.Kind{scrollback.KindCommand, scrollback.KindError}, kinds(buf)); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}
	_, err := f.Result()
	var thrown *sandbox.ThrownError
	if !errors.As(err, &thrown) {
		t.Fatalf("Result() error = %v (%T), want ThrownError", err, err)
	}
	if got := f.Output().Values(); len(got) != 1 || got[0] != err {
		t.Errorf("error line values = %v", got)
	}
	if !strings.Contains(f.Output().Display().String(), "nonexistentFn") {
		t.Errorf("error row = %q", f.Output().Display().String())
	}
}

func TestSubmitStatementRetry(t *testing.T) {
	br, _, m := newJSBridge(t)

	f := br.Submit(context.Background(), "var x = 5")
	m.Flush()
	if v, err := f.Result(); err != nil || v != inspect.Undefined {
		t.Fatalf("statement Result() = %v, %v", v, err)
	}

	f = br.Submit(context.Background(), "x * 2")
	m.Flush()
	if v, err := f.Result(); err != nil || v != int64(10) {
		t.Errorf("Result() = %v, %v", v, err)
	}
}

func TestSubmitAwait(t *testing.T) {
	br, buf, m := newJSBridge(t)

	f := br.Submit(context.Background(), "await Promise.resolve(5)")
	out := f.Output()
	if out.Kind() != scrollback.KindEvalOutput || out.Text() != AwaitingText {
		t.Fatalf("placeholder = %s %q", out.Kind(), out.Text())
	}
	if out.Index() != 1 {
		t.Errorf("placeholder index = %d", out.Index())
	}

	m.Flush()
	if !isDone(f) {
		t.Fatal("future should be done once the promise settles")
	}
	if diff := cmp.Diff([]any{int64(5)}, out.Values()); diff != "" {
		t.Errorf("settled values mismatch (-want +got):\n%s", diff)
	}
	if buf.Len() != 2 || buf.At(1) != out {
		t.Error("placeholder should be updated in place")
	}
}

func TestSubmitAwaitRejected(t *testing.T) {
	br, _, m := newJSBridge(t)

	f := br.Submit(context.Background(), "await Promise.reject(new Error('nope'))")
	m.Flush()

	if f.Output().Kind() != scrollback.KindError {
		t.Errorf("kind = %s, want error", f.Output().Kind())
	}
	if _, err := f.Result(); err == nil || !strings.Contains(err.Error(), "nope") {
		t.Errorf("Result() error = %v", err)
	}
}

func TestSubmitCompletesInput(t *testing.T) {
	in := &countingInput{}
	br, buf, m := newJSBridge(t, WithInput(in), WithUnselectOnReturn(true))

	l := buf.Dispatch([]any{"hello"}, scrollback.KindArgs, scrollback.DispatchOptions{})
	m.Flush()
	buf.Select(l, 0)

	br.Submit(context.Background(), "1")
	if in.cleared != 0 || buf.Selected() == nil {
		t.Fatal("completion should wait for the next tick")
	}
	m.Flush()
	if in.cleared != 1 {
		t.Errorf("cleared = %d, want 1", in.cleared)
	}
	if buf.Selected() != nil {
		t.Error("selection should be cleared")
	}
}

func TestSelectionGlobal(t *testing.T) {
	br, buf, m := newJSBridge(t)

	l := buf.Dispatch([]any{"hello", 42}, scrollback.KindArgs, scrollback.DispatchOptions{})
	m.Flush()
	if v := buf.Select(l, 6); v != 42 {
		t.Fatalf("Select() = %v, want 42", v)
	}

	f := br.Submit(context.Background(), "$0 + 1")
	m.Flush()
	if v, err := f.Result(); err != nil || v != int64(43) {
		t.Errorf("Result() = %v, %v", v, err)
	}
}

func TestConsoleRouting(t *testing.T) {
	br, buf, m := newJSBridge(t)

	br.Submit(context.Background(), "console.warn('careful')")
	m.Flush()

	want := []scrollback.Kind{scrollback.KindCommand, scrollback.KindEvalOutput, scrollback.KindWarning}
	if diff := cmp.Diff(want, kinds(buf)); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]any{"careful"}, buf.At(2).Values()); diff != "" {
		t.Errorf("console values mismatch (-want +got):\n%s", diff)
	}
}

func TestConsoleKind(t *testing.T) {
	tests := map[string]scrollback.Kind{
		"log":   scrollback.KindArgs,
		"debug": scrollback.KindArgs,
		"info":  scrollback.KindInfo,
		"warn":  scrollback.KindWarning,
		"error": scrollback.KindError,
	}
	for level, want := range tests {
		if got := ConsoleKind(level); got != want {
			t.Errorf("ConsoleKind(%q) = %s, want %s", level, got, want)
		}
	}
}

// fakeSandbox scripts evaluation results.
type fakeSandbox struct {
	evals   []string
	loads   []string
	eval    func(code string) (any, error)
	load    func(source string) (any, error)
	globals map[string]any
}

func (s *fakeSandbox) Name() string                  { return "fake" }
func (s *fakeSandbox) Expression(code string) string { return "(" + code + ")" }
func (s *fakeSandbox) Async(code string) string      { return "async " + code }
func (s *fakeSandbox) Module(source string) string   { return "module " + source }
func (s *fakeSandbox) Close() error                  { return nil }

func (s *fakeSandbox) Evaluate(_ context.Context, code string) (any, error) {
	s.evals = append(s.evals, code)
	return s.eval(code)
}

func (s *fakeSandbox) Load(_ context.Context, _, source string) (any, error) {
	s.loads = append(s.loads, source)
	return s.load(source)
}

func (s *fakeSandbox) SetGlobal(name string, v any) error {
	if s.globals == nil {
		s.globals = make(map[string]any)
	}
	s.globals[name] = v
	return nil
}

func newFakeBridge(sb *fakeSandbox) (*Bridge, *scrollback.Buffer, *loop.Manual) {
	m := loop.NewManual(time.Unix(0, 0))
	buf := scrollback.New(m)
	return New(buf, sb, m), buf, m
}

func TestRetryPolicy(t *testing.T) {
	syntax := &sandbox.SyntaxError{Message: "unexpected"}
	tests := []struct {
		name      string
		first     error
		wantEvals []string
	}{
		{"syntax error retries", syntax, []string{"(x)", "x"}},
		{"thrown retries", &sandbox.ThrownError{Message: "boom"}, []string{"(x)", "x"}},
		{"timeout is final", sandbox.ErrTimeout, []string{"(x)"}},
		{"closed is final", sandbox.ErrClosed, []string{"(x)"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sb := &fakeSandbox{eval: func(code string) (any, error) {
				if strings.HasPrefix(code, "(") {
					return nil, tt.first
				}
				return "raw", nil
			}}
			br, _, _ := newFakeBridge(sb)
			br.Submit(context.Background(), "x")
			if diff := cmp.Diff(tt.wantEvals, sb.evals); diff != "" {
				t.Errorf("evaluations mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRetryFailureIsFinal(t *testing.T) {
	final := &sandbox.ThrownError{Message: "second"}
	sb := &fakeSandbox{eval: func(code string) (any, error) {
		if strings.HasPrefix(code, "(") {
			return nil, &sandbox.SyntaxError{Message: "first"}
		}
		return nil, final
	}}
	br, _, m := newFakeBridge(sb)

	f := br.Submit(context.Background(), "x")
	m.Flush()
	if _, err := f.Result(); err != final {
		t.Errorf("Result() error = %v, want the retry's error", err)
	}
	if f.Output().Kind() != scrollback.KindError {
		t.Errorf("kind = %s", f.Output().Kind())
	}
}

func TestAwaitWithoutPending(t *testing.T) {
	sb := &fakeSandbox{eval: func(code string) (any, error) { return 7, nil }}
	br, _, m := newFakeBridge(sb)

	f := br.Submit(context.Background(), "await seven()")
	m.Flush()
	if diff := cmp.Diff([]string{"(async await seven())"}, sb.evals); diff != "" {
		t.Errorf("evaluations mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]any{7}, f.Output().Values()); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestSelectionExposedBeforeEvaluation(t *testing.T) {
	sb := &fakeSandbox{eval: func(code string) (any, error) { return nil, nil }}
	br, buf, m := newFakeBridge(sb)

	l := buf.Dispatch([]any{"picked"}, scrollback.KindArgs, scrollback.DispatchOptions{})
	m.Flush()
	buf.Select(l, 0)

	br.Submit(context.Background(), "x")
	if got := sb.globals[SelectionGlobal]; got != "picked" {
		t.Errorf("%s = %v, want picked", SelectionGlobal, got)
	}
}
