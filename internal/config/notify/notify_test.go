package notify

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSubscribePath(t *testing.T) {
	n := New()
	var all, theme [][]Change
	n.Subscribe(func(c []Change) { all = append(all, c) })
	n.SubscribePath("theme", func(c []Change) { theme = append(theme, c) })

	n.Notify([]Change{{Path: "theme.string"}, {Path: "themes.x"}, {Path: "cli.sandbox"}})
	n.Notify([]Change{{Path: "logging.level"}})

	if len(all) != 2 {
		t.Errorf("global observer called %d times, want 2", len(all))
	}
	want := [][]Change{{{Path: "theme.string"}}}
	if diff := cmp.Diff(want, theme); diff != "" {
		t.Errorf("theme changes mismatch (-want +got):\n%s", diff)
	}
}

func TestUnsubscribe(t *testing.T) {
	n := New()
	calls := 0
	sub := n.Subscribe(func([]Change) { calls++ })
	n.Notify([]Change{{Path: "a"}})
	sub.Unsubscribe()
	sub.Unsubscribe()
	n.Notify([]Change{{Path: "a"}})
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestClose(t *testing.T) {
	n := New()
	calls := 0
	n.Subscribe(func([]Change) { calls++ })
	n.Close()
	n.Notify([]Change{{Path: "a"}})
	if calls != 0 {
		t.Errorf("calls = %d after Close, want 0", calls)
	}
}

func TestMatches(t *testing.T) {
	tests := []struct {
		prefix, path string
		want         bool
	}{
		{"", "a.b", true},
		{"a", "a", true},
		{"a", "a.b", true},
		{"a", "ab.c", false},
		{"a.b", "a", false},
	}
	for _, tt := range tests {
		if got := matches(tt.prefix, tt.path); got != tt.want {
			t.Errorf("matches(%q, %q) = %v, want %v", tt.prefix, tt.path, got, tt.want)
		}
	}
}
