// Package notify delivers configuration changes to observers.
package notify

import (
	"strings"
	"sync"
)

// Change describes one configuration change.
type Change struct {
	// Path is the dot-separated leaf path that changed.
	Path string
	// Source is the file or layer that caused it.
	Source string
}

// Observer is called once per batch of changes.
type Observer func(changes []Change)

// Subscription is an active observer registration.
type Subscription struct {
	id       uint64
	notifier *Notifier
}

// Unsubscribe removes the observer. It is safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s != nil && s.notifier != nil {
		s.notifier.unsubscribe(s.id)
	}
}

type entry struct {
	prefix   string
	observer Observer
}

// Notifier manages subscriptions. Observers run on the notifying
// goroutine.
type Notifier struct {
	mu      sync.RWMutex
	entries map[uint64]entry
	nextID  uint64
	closed  bool
}

// New creates a Notifier.
func New() *Notifier {
	return &Notifier{entries: make(map[uint64]entry)}
}

// Subscribe registers an observer for all changes.
func (n *Notifier) Subscribe(observer Observer) *Subscription {
	return n.SubscribePath("", observer)
}

// SubscribePath registers an observer for changes at or below path.
// Subscribing to "theme" receives changes to "theme.string".
func (n *Notifier) SubscribePath(path string, observer Observer) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	n.entries[id] = entry{prefix: path, observer: observer}
	return &Subscription{id: id, notifier: n}
}

// Notify delivers changes. Each observer receives only the changes under
// its path and is skipped when none match.
func (n *Notifier) Notify(changes []Change) {
	if len(changes) == 0 {
		return
	}

	n.mu.RLock()
	if n.closed {
		n.mu.RUnlock()
		return
	}
	entries := make([]entry, 0, len(n.entries))
	for _, e := range n.entries {
		entries = append(entries, e)
	}
	n.mu.RUnlock()

	for _, e := range entries {
		var matched []Change
		for _, c := range changes {
			if matches(e.prefix, c.Path) {
				matched = append(matched, c)
			}
		}
		if len(matched) > 0 {
			e.observer(matched)
		}
	}
}

// Close drops all observers; later notifications are ignored.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
	n.entries = make(map[uint64]entry)
}

func (n *Notifier) unsubscribe(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.entries, id)
}

// matches reports whether path equals prefix or lies below it.
func matches(prefix, path string) bool {
	if prefix == "" || prefix == path {
		return true
	}
	return strings.HasPrefix(path, prefix) && path[len(prefix)] == '.'
}
