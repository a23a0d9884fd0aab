package js

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
)

func newTestSandbox(t *testing.T, opts ...Option) (*Sandbox, *loop.Manual) {
	t.Helper()
	m := loop.NewManual(time.Unix(0, 0))
	s, err := New(m, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, m
}

func eval(t *testing.T, s *Sandbox, code string) any {
	t.Helper()
	v, err := s.Evaluate(context.Background(), code)
	if err != nil {
		t.Fatalf("Evaluate(%q) error = %v", code, err)
	}
	return v
}

func TestEvaluatePrimitives(t *testing.T) {
	s, _ := newTestSandbox(t)

	tests := []struct {
		code string
		want any
	}{
		{"1+1", int64(2)},
		{"1.5", 1.5},
		{"'a' + 'b'", "ab"},
		{"true", true},
		{"null", nil},
		{"undefined", inspect.Undefined},
	}
	for _, tt := range tests {
		if got := eval(t, s, tt.code); got != tt.want {
			t.Errorf("%s = %#v, want %#v", tt.code, got, tt.want)
		}
	}
}

func TestEvaluateThrown(t *testing.T) {
	s, _ := newTestSandbox(t)

	_, err := s.Evaluate(context.Background(), "nonexistentFn()")
	var thrown *sandbox.ThrownError
	if !errors.As(err, &thrown) {
		t.Fatalf("error = %v (%T), want ThrownError", err, err)
	}
	if !strings.Contains(thrown.Message, "ReferenceError") {
		t.Errorf("message = %q", thrown.Message)
	}
	if _, ok := inspect.Of(thrown); !ok {
		t.Error("thrown error should be inspectable")
	}
}

func TestEvaluateSyntaxError(t *testing.T) {
	s, _ := newTestSandbox(t)

	_, err := s.Evaluate(context.Background(), s.Expression("var x = 1"))
	var syntax *sandbox.SyntaxError
	if !errors.As(err, &syntax) {
		t.Fatalf("error = %v (%T), want SyntaxError", err, err)
	}
	if errors.Is(err, sandbox.ErrIllegalReturn) {
		t.Error("not an illegal return")
	}

	if got := eval(t, s, "var x = 1; x + 1"); got != int64(2) {
		t.Errorf("statement form = %v", got)
	}
}

func TestLoadIllegalReturn(t *testing.T) {
	s, _ := newTestSandbox(t)

	_, err := s.Load(context.Background(), "main.js", "var a = 1;\nreturn a;")
	if !errors.Is(err, sandbox.ErrIllegalReturn) {
		t.Fatalf("error = %v, want illegal return", err)
	}

	v, err := s.Load(context.Background(), "main.js", s.Module("var a = 1;\nreturn a;"))
	if err != nil || v != int64(1) {
		t.Errorf("module form = %v, %v", v, err)
	}
}

func TestAsyncPromise(t *testing.T) {
	s, m := newTestSandbox(t)

	v := eval(t, s, s.Async("await Promise.resolve(5)"))
	p, ok := v.(sandbox.Pending)
	if !ok {
		t.Fatalf("async result = %T, want Pending", v)
	}

	var got any
	p.Then(func(v any) { got = v }, func(r any) { t.Errorf("rejected: %v", r) })
	if got != nil {
		t.Fatal("settlement should be delivered on the loop")
	}
	m.Flush()
	if got != int64(5) {
		t.Errorf("settled = %v, want 5", got)
	}
}

func TestAsyncRejected(t *testing.T) {
	s, m := newTestSandbox(t)

	p := eval(t, s, s.Async("await Promise.reject(new Error('nope'))")).(sandbox.Pending)
	var reason any
	p.Then(func(any) { t.Error("should not fulfil") }, func(r any) { reason = r })
	m.Flush()

	err, ok := reason.(*sandbox.ThrownError)
	if !ok || !strings.Contains(err.Message, "nope") {
		t.Errorf("reason = %v", reason)
	}
}

func TestObjectKeys(t *testing.T) {
	s, _ := newTestSandbox(t)

	v := eval(t, s, `(function() {
		var o = Object.create(null);
		o.a = 1;
		o.b = 2;
		Object.defineProperty(o, 'c', {value: 3, enumerable: false});
		return o;
	})()`)
	obj, ok := inspect.Of(v)
	if !ok {
		t.Fatalf("%T is not an object", v)
	}

	var names []string
	var flags []inspect.Flags
	for _, p := range inspect.Enumerate(obj, inspect.Options{}) {
		names = append(names, p.Key.Name)
		flags = append(flags, p.Flags)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, names); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	if !flags[0].Has(inspect.FlagOpens) || !flags[2].Has(inspect.FlagCloses|inspect.FlagHidden) {
		t.Errorf("flags = %v", flags)
	}

	c, err := obj.Get(inspect.Key{Name: "c"})
	if err != nil || c != int64(3) {
		t.Errorf("c = %v, %v", c, err)
	}
}

func TestOwnKeysIncludeHidden(t *testing.T) {
	s, _ := newTestSandbox(t)

	v := eval(t, s, `[10, 20]`)
	obj, ok := v.(*Object)
	if !ok {
		t.Fatalf("%T is not a script object", v)
	}

	got := make(map[string]inspect.Flags)
	var order []string
	for _, p := range obj.OwnKeys() {
		got[p.Key.Name] = p.Flags
		order = append(order, p.Key.Name)
	}
	if diff := cmp.Diff([]string{"0", "1", "length"}, order); diff != "" {
		t.Fatalf("own keys mismatch (-want +got):\n%s", diff)
	}
	if !got["0"].Has(inspect.FlagEnumerable) {
		t.Errorf("index flags = %v, want enumerable", got["0"])
	}
	if !got["length"].Has(inspect.FlagHidden) {
		t.Errorf("length flags = %v, want hidden", got["length"])
	}
}

func TestObjectGettersAndSymbols(t *testing.T) {
	s, _ := newTestSandbox(t)

	v := eval(t, s, `(function() {
		var o = { plain: 1, get computed() { return 42; } };
		o[Symbol('tag')] = 'x';
		return o;
	})()`)
	obj, _ := inspect.Of(v)

	got := map[string]inspect.Flags{}
	for _, p := range obj.OwnKeys() {
		got[p.Key.Name] = p.Flags
	}
	if !got["plain"].Has(inspect.FlagEnumerable) {
		t.Errorf("plain flags = %b", got["plain"])
	}
	if !got["computed"].Has(inspect.FlagGetter) {
		t.Errorf("computed flags = %b", got["computed"])
	}
	symbols := 0
	for name, f := range got {
		if f.Has(inspect.FlagSymbol) && strings.Contains(name, "tag") {
			symbols++
		}
	}
	if symbols != 1 {
		t.Errorf("symbol missing: %v", got)
	}

	if v, err := obj.Get(inspect.Key{Name: "computed"}); err != nil || v != int64(42) {
		t.Errorf("computed = %v, %v", v, err)
	}
	if _, ok := obj.(inspect.Prototyped).Proto(); !ok {
		t.Error("plain object should have a prototype")
	}
}

func TestThrowingGetter(t *testing.T) {
	s, _ := newTestSandbox(t)
	v := eval(t, s, `({ get bad() { throw new Error('denied'); } })`)
	obj, _ := inspect.Of(v)

	_, err := inspect.Read(obj, inspect.Property{Key: inspect.Key{Name: "bad"}, Flags: inspect.FlagGetter})
	if err == nil || !strings.Contains(err.Error(), "denied") {
		t.Errorf("err = %v", err)
	}
}

func TestBuiltinObjects(t *testing.T) {
	s, _ := newTestSandbox(t)

	arr, _ := inspect.Of(eval(t, s, "[1, 2, 3]"))
	if n, ok := arr.Len(); !arr.IsArray() || !ok || n != 3 {
		t.Errorf("array len = %d %v", n, ok)
	}
	if name, _ := arr.TypeName(); name != "Array" {
		t.Errorf("array type = %q", name)
	}

	fn, ok := eval(t, s, "(function foo(a) { return a; })").(inspect.Callable)
	if !ok {
		t.Fatal("function should be callable")
	}
	if fn.FuncName() != "foo" || !strings.Contains(fn.Source(), "return a") {
		t.Errorf("function = %q %q", fn.FuncName(), fn.Source())
	}

	date, _ := inspect.Of(eval(t, s, "new Date(0)"))
	if ts, ok := date.(inspect.Dated).Time(); !ok || ts.Unix() != 0 {
		t.Errorf("date = %v %v", ts, ok)
	}

	data, ok := inspect.Bytes(eval(t, s, "new Uint8Array([1, 2, 3]).subarray(1)"))
	if !ok || !cmp.Equal(data, []byte{2, 3}) {
		t.Errorf("bytes = %v %v", data, ok)
	}

	m, _ := inspect.Of(eval(t, s, "new Map([['k', 1]])"))
	entries := m.(inspect.Entrier).Entries()
	if len(entries) != 1 || entries[0].Key.Name != `"k"` {
		t.Fatalf("entries = %v", entries)
	}
	if v, err := m.Get(entries[0].Key); err != nil || v != int64(1) {
		t.Errorf("entry value = %v, %v", v, err)
	}
}

func TestSetGlobalKeepsIdentity(t *testing.T) {
	s, _ := newTestSandbox(t)

	v := eval(t, s, "globalThis.keep = {x: 1}; keep")
	if err := s.SetGlobal("$0", v); err != nil {
		t.Fatalf("SetGlobal() error = %v", err)
	}
	if got := eval(t, s, "$0 === keep"); got != true {
		t.Error("global should be the same object")
	}
	if !inspect.Same(v, eval(t, s, "keep")) {
		t.Error("wrappers of one object should be the same")
	}
}

func TestConsoleAndTimers(t *testing.T) {
	var lines []string
	s, m := newTestSandbox(t, WithConsole(func(level string, args []any) {
		lines = append(lines, level+":"+inspect.Format(args[0]))
	}))

	eval(t, s, `console.warn("now"); setTimeout(function(v) { console.log(v); }, 10, "later")`)
	id := eval(t, s, `setTimeout(function() { console.log("never"); }, 10)`)
	if err := s.SetGlobal("pending", id); err != nil {
		t.Fatal(err)
	}
	eval(t, s, "clearTimeout(pending)")

	m.Advance(10 * time.Millisecond)
	if diff := cmp.Diff([]string{`warn:"now"`, `log:"later"`}, lines); diff != "" {
		t.Errorf("console mismatch (-want +got):\n%s", diff)
	}
}

func TestTimeout(t *testing.T) {
	s, _ := newTestSandbox(t, WithTimeout(50*time.Millisecond))

	_, err := s.Evaluate(context.Background(), "for (;;) {}")
	if !errors.Is(err, sandbox.ErrTimeout) {
		t.Fatalf("error = %v, want timeout", err)
	}
	if got := eval(t, s, "2"); got != int64(2) {
		t.Errorf("sandbox unusable after timeout: %v", got)
	}
}

func TestClosed(t *testing.T) {
	s, _ := newTestSandbox(t)
	_ = s.Close()
	if _, err := s.Evaluate(context.Background(), "1"); !errors.Is(err, sandbox.ErrClosed) {
		t.Errorf("error = %v", err)
	}
}
