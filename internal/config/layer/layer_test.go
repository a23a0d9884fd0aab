package layer

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDeepMerge(t *testing.T) {
	dst := map[string]any{
		"scrollback": map[string]any{"trim_count": 100, "follow": true},
		"theme":      map[string]any{"string": "#00ff00"},
	}
	src := map[string]any{
		"scrollback": map[string]any{"trim_count": 50},
		"theme":      "none",
	}
	got := DeepMerge(dst, src)
	want := map[string]any{
		"scrollback": map[string]any{"trim_count": 50, "follow": true},
		"theme":      "none",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("merge mismatch (-want +got):\n%s", diff)
	}
}

func TestDeepMergeClonesSource(t *testing.T) {
	src := map[string]any{"a": map[string]any{"b": 1}}
	got := DeepMerge(nil, src)
	got["a"].(map[string]any)["b"] = 2
	if src["a"].(map[string]any)["b"] != 1 {
		t.Error("merge result aliases the source map")
	}
}

func TestPaths(t *testing.T) {
	data := map[string]any{}
	SetByPath(data, "cli.sandbox", "lua")
	SetByPath(data, "cli.eval_timeout", "2s")

	if v, ok := GetByPath(data, "cli.sandbox"); !ok || v != "lua" {
		t.Errorf("GetByPath(cli.sandbox) = %v, %v", v, ok)
	}
	if _, ok := GetByPath(data, "cli.sandbox.name"); ok {
		t.Error("path through a leaf should not resolve")
	}
	if _, ok := GetByPath(data, "history"); ok {
		t.Error("missing section should not resolve")
	}
}

func TestDiff(t *testing.T) {
	old := map[string]any{
		"theme":   map[string]any{"string": "#111111", "number": "#222222"},
		"logging": map[string]any{"level": "info"},
	}
	new := map[string]any{
		"theme":   map[string]any{"string": "#333333"},
		"logging": map[string]any{"level": "info"},
		"cli":     map[string]any{"sandbox": "lua"},
	}
	want := []string{"cli.sandbox", "theme.number", "theme.string"}
	if diff := cmp.Diff(want, Diff(old, new)); diff != "" {
		t.Errorf("Diff mismatch (-want +got):\n%s", diff)
	}
}

func TestManagerPrecedence(t *testing.T) {
	m := NewManager()
	m.Put(New("env", SourceEnv, map[string]any{"logging": map[string]any{"level": "debug"}}))
	m.Put(New("defaults", SourceBuiltin, map[string]any{"logging": map[string]any{"level": "info", "file": "a.log"}}))
	m.Put(New("file", SourceFile, map[string]any{"logging": map[string]any{"file": "b.log"}}))

	names := []string{}
	for _, l := range m.Layers() {
		names = append(names, l.Name)
	}
	if diff := cmp.Diff([]string{"defaults", "file", "env"}, names); diff != "" {
		t.Errorf("layer order mismatch (-want +got):\n%s", diff)
	}

	want := map[string]any{"logging": map[string]any{"level": "debug", "file": "b.log"}}
	if diff := cmp.Diff(want, m.Merge()); diff != "" {
		t.Errorf("merged mismatch (-want +got):\n%s", diff)
	}

	v, l, ok := m.Get("logging.file")
	if !ok || v != "b.log" || l.Name != "file" {
		t.Errorf("Get(logging.file) = %v, %v, %v", v, l, ok)
	}
}

func TestManagerPutReplaces(t *testing.T) {
	m := NewManager()
	m.Put(New("file", SourceFile, map[string]any{"a": 1}))
	_ = m.Merge()
	m.Put(New("file", SourceFile, map[string]any{"a": 2}))
	if got := m.Merge()["a"]; got != 2 {
		t.Errorf("a = %v after replace, want 2", got)
	}
	if !m.Remove("file") || m.Remove("file") {
		t.Error("Remove should report the layer exactly once")
	}
	if len(m.Merge()) != 0 {
		t.Error("merge should be empty after removing the only layer")
	}
}
