package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestWatcher(t *testing.T, files ...string) (*Watcher, chan Event) {
	t.Helper()
	w, err := New(WithDebounce(50 * time.Millisecond))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(w.Stop)
	for _, f := range files {
		if err := w.Watch(f); err != nil {
			t.Fatalf("Watch(%s) error = %v", f, err)
		}
	}
	events := make(chan Event, 16)
	w.OnChange(func(e Event) { events <- e })
	w.Start()
	return w, events
}

func next(t *testing.T, events chan Event) Event {
	t.Helper()
	select {
	case e := <-events:
		return e
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestCreateThenWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	_, events := newTestWatcher(t, path)

	if err := os.WriteFile(path, []byte("a = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	e := next(t, events)
	if e.Op != OpCreate {
		t.Errorf("first event op = %s, want create", e.Op)
	}
	if filepath.Base(e.Path) != "config.toml" {
		t.Errorf("event path = %q", e.Path)
	}

	if err := os.WriteFile(path, []byte("a = 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if e := next(t, events); e.Op != OpWrite {
		t.Errorf("second event op = %s, want write", e.Op)
	}
}

func TestIgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	_, events := newTestWatcher(t, path)

	if err := os.WriteFile(filepath.Join(dir, "other.toml"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if e := next(t, events); filepath.Base(e.Path) != "config.toml" {
		t.Errorf("event for %q, want only config.toml", e.Path)
	}
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("x: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, events := newTestWatcher(t, path)

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if e := next(t, events); e.Op != OpRemove {
		t.Errorf("op = %s, want remove", e.Op)
	}
}

func TestHandlerPanicRecovered(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	w, events := newTestWatcher(t, path)
	w.OnChange(func(Event) { panic("boom") })

	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	next(t, events)
	if err := os.WriteFile(path, []byte("y"), 0o644); err != nil {
		t.Fatal(err)
	}
	next(t, events)
}

func TestStopped(t *testing.T) {
	w, err := New()
	if err != nil {
		t.Fatal(err)
	}
	w.Start()
	w.Stop()
	w.Stop()
	if err := w.Watch(filepath.Join(t.TempDir(), "x.toml")); err != ErrStopped {
		t.Errorf("Watch after Stop = %v, want ErrStopped", err)
	}
}

func TestCoalesce(t *testing.T) {
	tests := []struct {
		pending, next, want Operation
	}{
		{OpCreate, OpWrite, OpCreate},
		{OpWrite, OpWrite, OpWrite},
		{OpWrite, OpRemove, OpRemove},
		{OpRemove, OpCreate, OpCreate},
	}
	for _, tt := range tests {
		if got := coalesce(tt.pending, tt.next); got != tt.want {
			t.Errorf("coalesce(%s, %s) = %s, want %s", tt.pending, tt.next, got, tt.want)
		}
	}
}
