package inspect

import (
	"encoding/json"
	"errors"
	"math/big"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type fakeObject struct {
	keys   []Property
	values map[string]any
	array  bool
	proto  any
}

func (f *fakeObject) TypeName() (string, string) { return "Fake", "" }
func (f *fakeObject) IsArray() bool               { return f.array }
func (f *fakeObject) Len() (int, bool)            { return len(f.keys), false }
func (f *fakeObject) OwnKeys() []Property         { return f.keys }

func (f *fakeObject) Get(k Key) (any, error) {
	v, ok := f.values[k.Name]
	if !ok {
		return nil, ErrNoSuchKey
	}
	if err, ok := v.(error); ok {
		return nil, err
	}
	return v, nil
}

type fakeProto struct{ *fakeObject }

func (f fakeProto) Proto() (any, bool) { return f.proto, f.proto != nil }

type fakeFunc struct{ *fakeObject }

func (fakeFunc) FuncName() string { return "add" }
func (fakeFunc) Source() string   { return "function add(a, b) { return a + b }" }

func names(props []Property) []string {
	out := make([]string, len(props))
	for i, p := range props {
		out[i] = p.Key.Name
	}
	return out
}

func TestEnumerateHiddenKeyOrder(t *testing.T) {
	obj := &fakeObject{keys: []Property{
		{Key: Key{Name: "a"}, Flags: FlagEnumerable},
		{Key: Key{Name: "b"}, Flags: FlagEnumerable},
		{Key: Key{Name: "c"}, Flags: FlagHidden},
	}}

	props := Enumerate(obj, Options{})

	if diff := cmp.Diff([]string{"a", "b", "c"}, names(props)); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	for i, p := range props {
		if got := p.Flags.Has(FlagOpens); got != (i == 0) {
			t.Errorf("%s opens = %v", p.Key.Name, got)
		}
		if got := p.Flags.Has(FlagCloses); got != (i == 2) {
			t.Errorf("%s closes = %v", p.Key.Name, got)
		}
	}
}

func TestEnumerateGroups(t *testing.T) {
	base := &fakeObject{keys: []Property{
		{Key: Key{Name: "sym", Symbol: true}, Flags: FlagSymbol},
		{Key: Key{Name: "z"}, Flags: FlagEnumerable},
		{Key: Key{Name: "hid"}, Flags: FlagHidden},
		{Key: Key{Name: "getSym", Symbol: true}, Flags: FlagGetter | FlagSymbol},
		{Key: Key{Name: "y"}, Flags: FlagEnumerable},
		{Key: Key{Name: "g"}, Flags: FlagGetter | FlagEnumerable},
	}}
	obj := fakeFunc{base}

	props := Enumerate(obj, Options{SortKeys: true})

	want := []string{SourceKey, "y", "z", "getSym", "g", "hid", "sym"}
	if diff := cmp.Diff(want, names(props)); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	if !props[0].Flags.Has(FlagSource | FlagOpens) {
		t.Errorf("first flags = %b", props[0].Flags)
	}
	if !props[len(props)-1].Flags.Has(FlagSymbol | FlagCloses) {
		t.Errorf("last flags = %b", props[len(props)-1].Flags)
	}
}

func TestEnumerateProto(t *testing.T) {
	obj := fakeProto{&fakeObject{
		keys:  []Property{{Key: Key{Name: "a"}}},
		proto: &fakeObject{},
	}}

	props := Enumerate(obj, Options{})
	if diff := cmp.Diff([]string{"a", ProtoKey}, names(props)); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	if !props[1].Flags.Has(FlagProto | FlagCloses) {
		t.Errorf("proto flags = %b", props[1].Flags)
	}

	v, err := Read(obj, props[1])
	if err != nil || v != obj.proto {
		t.Errorf("Read(__proto__) = %v, %v", v, err)
	}
}

func TestEnumerateEmpty(t *testing.T) {
	if props := Enumerate(&fakeObject{}, Options{}); len(props) != 0 {
		t.Errorf("expected no properties, got %v", names(props))
	}
}

func TestReadRecoversPanic(t *testing.T) {
	obj := &panicObject{}
	_, err := Read(obj, Property{Key: Key{Name: "x"}})

	var pe *PanicError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PanicError, got %v", err)
	}
}

type panicObject struct{ fakeObject }

func (p *panicObject) Get(Key) (any, error) { panic("getter exploded") }

type point struct {
	X, Y  int
	label string
}

func (p point) Sum() int { return p.X + p.Y }

func (p *point) Fail() (int, error) { return 0, errors.New("nope") }

func TestReflectStruct(t *testing.T) {
	obj, ok := Of(&point{X: 1, Y: 2, label: "p"})
	if !ok {
		t.Fatal("Of(*point) failed")
	}

	name, ns := obj.TypeName()
	if name != "point" || ns != "inspect" {
		t.Errorf("TypeName = %q, %q", name, ns)
	}

	props := Enumerate(obj, Options{})
	want := []string{"X", "Y", "Fail()", "Sum()", "label"}
	if diff := cmp.Diff(want, names(props)); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}

	if v, err := Read(obj, props[4]); err != nil || v != "p" {
		t.Errorf("unexported label = %v, %v", v, err)
	}
	if v, err := Read(obj, props[3]); err != nil || v != 3 {
		t.Errorf("Sum() = %v, %v", v, err)
	}
	if _, err := Read(obj, props[2]); err == nil {
		t.Error("Fail() should return its error")
	}
}

func TestReflectSliceAndMap(t *testing.T) {
	obj, ok := Of([]string{"a", "b"})
	if !ok || !obj.IsArray() {
		t.Fatal("slice should adapt to an array")
	}
	if n, ok := obj.Len(); !ok || n != 2 {
		t.Errorf("Len = %d, %v", n, ok)
	}

	m, ok := Of(map[int]string{2: "two", 1: "one"})
	if !ok {
		t.Fatal("map should adapt")
	}
	entries := m.(Entrier).Entries()
	if diff := cmp.Diff([]string{"1", "2"}, names(entries)); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
	v, err := m.Get(entries[1].Key)
	if err != nil || v != "two" {
		t.Errorf("Get(2) = %v, %v", v, err)
	}
}

func TestOfPrimitives(t *testing.T) {
	for _, v := range []any{nil, 1, "s", true, []byte{1}, errors.New("e"), (*point)(nil)} {
		if _, ok := Of(v); ok {
			t.Errorf("Of(%#v) should not adapt", v)
		}
	}
}

func TestFuncSource(t *testing.T) {
	obj, ok := Of(TestFuncSource)
	if !ok {
		t.Fatal("func should adapt")
	}
	c, ok := obj.(Callable)
	if !ok {
		t.Fatal("func should be callable")
	}
	if name := c.FuncName(); name == "" {
		t.Error("missing function name")
	}
	if _, ns := obj.TypeName(); ns != "inspect" {
		t.Errorf("namespace = %q", ns)
	}
}

func TestJSON(t *testing.T) {
	obj, ok := Of(json.RawMessage(`{"a":1,"b":[true,null],"c":"x"}`))
	if !ok {
		t.Fatal("raw JSON should adapt")
	}

	props := Enumerate(obj, Options{})
	if diff := cmp.Diff([]string{"a", "b", "c"}, names(props)); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}

	a, _ := Read(obj, props[0])
	if a != int64(1) {
		t.Errorf("a = %#v", a)
	}
	b, _ := Read(obj, props[1])
	if got := Format(b); got != "[true,null]" {
		t.Errorf("Format(b) = %q", got)
	}

	if _, ok := Of(JSON(`"just a string"`)); ok {
		t.Error("scalar JSON should not adapt")
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, "null"},
		{"undefined", Undefined, "undefined"},
		{"string", "hi\n", `"hi\n"`},
		{"int", 42, "42"},
		{"float", 1.5, "1.5"},
		{"big float", 1e21, "1e+21"},
		{"bigint", big.NewInt(7), "7n"},
		{"bool", false, "false"},
		{"bytes", []byte{0xde, 0xad}, "<Buffer de ad>"},
		{"slice", []int{1, 2, 3}, "[ 1, 2, 3 ]"},
		{"map", map[string]int{"b": 2, "a": 1}, "{ a: 1, b: 2 }"},
		{"struct", point{X: 1, Y: 2}, "{ X: 1, Y: 2, Sum(): [Getter] }"},
		{"nested", struct{ P point }{}, "{ P: [point] }"},
		{"empty", []int{}, "[]"},
		{"error", errors.New("boom"), "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.in); got != tt.want {
				t.Errorf("Format() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSame(t *testing.T) {
	p := &point{X: 1}
	tests := []struct {
		a, b any
		want bool
	}{
		{1, 1, true},
		{1, 2, false},
		{1, int64(1), false},
		{"a", "a", true},
		{nil, nil, true},
		{[]byte{1, 2}, []byte{1, 2}, true},
		{[]int{1}, []int{1}, true},
		{map[string]int{"a": 1}, map[string]int{"a": 1}, true},
		{p, p, true},
		{point{X: 1}, point{X: 1}, true},
	}

	for i, tt := range tests {
		if got := Same(tt.a, tt.b); got != tt.want {
			t.Errorf("%d: Same(%v, %v) = %v, want %v", i, tt.a, tt.b, got, tt.want)
		}
	}
}
