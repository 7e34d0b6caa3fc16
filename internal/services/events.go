package services

import "sync"

// EventKind names a change to the user's photos.
type EventKind string

const (
	EventSaved    EventKind = "saved"
	EventDeleted  EventKind = "deleted"
	EventUpdated  EventKind = "updated"
	EventMigrated EventKind = "migrated"
)

// Event tells subscribers that a photo changed.
type Event struct {
	Kind    EventKind
	PhotoID string
}

// notifier fans events out to subscribers. Handlers run synchronously on
// the goroutine that made the change.
type notifier struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]func(Event)
}

func (n *notifier) subscribe(fn func(Event)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.subs == nil {
		n.subs = make(map[int]func(Event))
	}
	id := n.nextID
	n.nextID++
	n.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.subs, id)
			n.mu.Unlock()
		})
	}
}

func (n *notifier) publish(e Event) {
	n.mu.RLock()
	handlers := make([]func(Event), 0, len(n.subs))
	for _, fn := range n.subs {
		handlers = append(handlers, fn)
	}
	n.mu.RUnlock()

	for _, fn := range handlers {
		fn(e)
	}
}
