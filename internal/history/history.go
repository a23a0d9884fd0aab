// Package history keeps the list of submitted commands.
//
// Entries are ordered newest first. Adding a command that equals the latest
// entry is a no-op, and the list is bounded:
//
//	h := history.New(100)
//	h.Add("1+1")
//	h.Add("1+1") // ignored
//
// The prompt walks the list with Prev and Next. The text being edited when
// navigation starts is stashed and restored when walking past the newest
// entry.
package history

import "sync"

// DefaultLimit bounds the list when no limit is given.
const DefaultLimit = 100

// History is a bounded, newest-first command list.
type History struct {
	mu sync.Mutex

	entries []string
	limit   int

	// Navigation state. index -1 means the prompt holds fresh input.
	index int
	stash string
}

// New creates a history holding at most limit entries. A limit of zero
// uses DefaultLimit; a negative limit keeps 9999 entries.
func New(limit int) *History {
	switch {
	case limit == 0:
		limit = DefaultLimit
	case limit < 0:
		limit = 9999
	}
	return &History{limit: limit, index: -1}
}

// Add records cmd unless it equals the latest entry. It reports whether
// the list changed. Navigation is reset either way.
func (h *History) Add(cmd string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.index = -1
	h.stash = ""
	if cmd == "" || len(h.entries) > 0 && h.entries[0] == cmd {
		return false
	}
	h.entries = append([]string{cmd}, h.entries...)
	if len(h.entries) > h.limit {
		h.entries = h.entries[:h.limit]
	}
	return true
}

// Set replaces the list, newest first.
func (h *History) Set(entries []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(entries) > h.limit {
		entries = entries[:h.limit]
	}
	h.entries = append([]string(nil), entries...)
	h.index = -1
}

// Entries returns a copy of the list, newest first.
func (h *History) Entries() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.entries...)
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Prev moves to the next older entry. current is the prompt text, stashed
// when navigation starts. It reports false at the oldest entry.
func (h *History) Prev(current string) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.index == -1 {
		h.stash = current
	}
	id := h.index + 1
	if id >= len(h.entries) {
		return "", false
	}
	h.index = id
	return h.entries[id], true
}

// Next moves to the next newer entry, returning the stashed input when
// leaving the newest one. It reports false when not navigating.
func (h *History) Next() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.index < 0 {
		return "", false
	}
	h.index--
	if h.index == -1 {
		return h.stash, true
	}
	return h.entries[h.index], true
}
