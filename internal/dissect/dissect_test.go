package dissect

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/lookout/internal/renderer/core"
)

func TestDissectPrimitives(t *testing.T) {
	d := New(Options{})
	r := d.Dissect([]any{"hello", 42, true})

	if got := r.Plain(); got != "hello 42 true " {
		t.Fatalf("Plain() = %q", got)
	}

	want := []int{0, 0, 0, 0, 0, -1, 1, 1, -1, 2, 2, 2, 2, -1}
	if diff := cmp.Diff(want, r.CharMap); diff != "" {
		t.Errorf("char map mismatch (-want +got):\n%s", diff)
	}
	if r.Width() != len("hello 42 true ") {
		t.Errorf("Width() = %d", r.Width())
	}
}

func TestDissectEmpty(t *testing.T) {
	r := New(Options{}).Dissect(nil)
	if len(r.CharMap) != 0 || r.Plain() != "" {
		t.Errorf("empty dissection = %+v", r)
	}
}

func TestDissectWideCharacters(t *testing.T) {
	r := New(Options{}).Dissect([]any{"日本", 1})

	want := []int{0, 0, 0, 0, -1, 1, -1}
	if diff := cmp.Diff(want, r.CharMap); diff != "" {
		t.Errorf("char map mismatch (-want +got):\n%s", diff)
	}
	if r.Parts[1].Start != 5 {
		t.Errorf("second part starts at %d", r.Parts[1].Start)
	}
}

func TestDissectStripsEscapes(t *testing.T) {
	r := New(Options{}).Dissect([]any{"\x1b[31mred\x1b[0m"})
	if got := r.Plain(); got != "red " {
		t.Errorf("Plain() = %q", got)
	}
}

func TestAt(t *testing.T) {
	r := New(Options{}).Dissect([]any{"ab", "cd"})

	tests := []struct {
		col  int
		want int
		ok   bool
	}{
		{0, 0, true},
		{1, 0, true},
		{2, 0, false},
		{3, 1, true},
		{5, 0, false},
		{-1, 0, false},
	}
	for _, tt := range tests {
		got, ok := r.At(tt.col)
		if ok != tt.ok || ok && got != tt.want {
			t.Errorf("At(%d) = %d, %v", tt.col, got, ok)
		}
	}
}

type widget struct {
	Name  string
	Size  int
	inner int
}

type labeled struct{ widget }

func (labeled) Label() string   { return "Custom" }
func (labeled) Summary() string { return "summary" }

type bomb struct{}

func (bomb) Label() string { panic("no label") }

type job struct {
	pct float64
}

func (j *job) Progress() float64 { return j.pct }
func (j *job) SubscribeProgress(func(float64)) func() {
	return func() {}
}

func TestDissectObjects(t *testing.T) {
	d := New(Options{DateLayout: "2006-01-02"})
	fn := func(int) int { return 0 }

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"struct hidden count", widget{Name: "w"}, "{dissect.widget 3/2}"},
		{"slice", []string{"a", "b"}, "{[]string 2}"},
		{"map", map[string]int{"a": 1}, "{map[string]int 1}"},
		{"bytes", make([]byte, 40), "{Buffer 40}"},
		{"hooks", labeled{}, "{Custom summary}"},
		{"date", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), "{time.Time 2024-03-01}"},
		{"progress", &job{pct: 42.9}, "{dissect.job 42%}"},
		{"panic", bomb{}, "[Could not stringify]"},
		{"error", errors.New("bad\nthing"), "bad↵thing"},
		{"nil", nil, "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.Part(tt.in).Plain; got != tt.want {
				t.Errorf("Part().Plain = %q, want %q", got, tt.want)
			}
		})
	}

	if got := d.Part(fn).Plain; !strings.HasPrefix(got, "{dissect.func ") {
		t.Errorf("func tag = %q", got)
	}
}

func TestCallerBadge(t *testing.T) {
	at := time.Date(2024, 1, 2, 9, 5, 7, 0, time.UTC)
	c := &CallerInfo{Time: at, File: "server.go", Path: "/src/app/server.go", Line: 12}

	d := New(Options{CallerMinWidth: 30})
	p := d.Part(c)
	if p.Plain != "09:05:07 [server:12]          " {
		t.Errorf("badge = %q", p.Plain)
	}
	if p.Width != 30 {
		t.Errorf("width = %d", p.Width)
	}

	c.Seen = 3
	d = New(Options{NameMap: map[string]string{"/src/app/server.go": "api"}})
	if got := d.Part(c).Plain; got != "09:05:07 [api:12] (3)" {
		t.Errorf("badge = %q", got)
	}
}

func TestTextHighlight(t *testing.T) {
	r := New(Options{}).Dissect([]any{"ab", "cd"})
	txt := r.Text(1)

	if txt.String() != "ab cd " {
		t.Fatalf("Text() = %q", txt.String())
	}
	cells := txt.Cells()
	if cells[0].Style.Attributes.Has(core.AttrReverse) {
		t.Error("first part should not be highlighted")
	}
	if !cells[3].Style.Attributes.Has(core.AttrReverse) || !cells[4].Style.Attributes.Has(core.AttrReverse) {
		t.Error("second part should be highlighted")
	}
	if cells[5].Style.Attributes.Has(core.AttrReverse) {
		t.Error("separator should not be highlighted")
	}
}

func TestReplace(t *testing.T) {
	d := New(Options{})
	r := d.Dissect([]any{"a", 1, "z"})
	r = d.Replace(r, 1, 1000)

	if got := r.Plain(); got != "a 1000 z " {
		t.Errorf("Plain() = %q", got)
	}
	if r.Parts[2].Start != 7 {
		t.Errorf("third part starts at %d", r.Parts[2].Start)
	}
}

func TestFlatten(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"a\r\nb\rc\nd", "a↵b↵c↵d"},
		{"\tx", "    x"},
		{"abc\td", "abc d"},
		{"abcd\te", "abcd    e"},
		{"日\tb", "日  b"},
		{"a\n\tb", "a↵  b"},
	}
	for _, tt := range tests {
		if got := Flatten(tt.in); got != tt.want {
			t.Errorf("Flatten(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDissectTabs(t *testing.T) {
	r := New(Options{}).Dissect([]any{"a\tb", 1})

	if got := r.Plain(); got != "a   b 1 " {
		t.Fatalf("Plain() = %q", got)
	}
	want := []int{0, 0, 0, 0, 0, -1, 1, -1}
	if diff := cmp.Diff(want, r.CharMap); diff != "" {
		t.Errorf("char map mismatch (-want +got):\n%s", diff)
	}
	if r.Width() != core.StringWidth(r.Text(-1).String()) {
		t.Errorf("Width() = %d, drawn width %d", r.Width(), core.StringWidth(r.Text(-1).String()))
	}
	if i, ok := r.At(6); !ok || i != 1 {
		t.Errorf("At(6) = %d, %v", i, ok)
	}
}
