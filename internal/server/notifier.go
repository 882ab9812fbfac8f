package server

import (
	"sync"
	"time"
)

// EventKind classifies a change event.
type EventKind string

// Event kinds.
const (
	// EventCommand follows a command that modified stored data.
	EventCommand EventKind = "command"
	// EventFiles follows a change to table files made outside the server.
	EventFiles EventKind = "files"
	// EventRemoved follows the removal of a database directory.
	EventRemoved EventKind = "removed"
)

// Event describes a change to the storage root.
type Event struct {
	Kind     EventKind `json:"kind"`
	Database string    `json:"database,omitempty"`
	Command  string    `json:"command,omitempty"`
	Client   string    `json:"client,omitempty"`
	Time     time.Time `json:"time"`
}

// Notifier broadcasts events to all subscribed listeners.
type Notifier struct {
	mu        sync.RWMutex
	listeners map[chan Event]struct{}
}

// NewNotifier creates a new Notifier instance.
func NewNotifier() *Notifier {
	return &Notifier{
		listeners: make(map[chan Event]struct{}),
	}
}

// Subscribe returns a channel that receives events.
// The caller must call Unsubscribe when done to prevent goroutine leaks.
func (n *Notifier) Subscribe() chan Event {
	ch := make(chan Event, 16)
	n.mu.Lock()
	n.listeners[ch] = struct{}{}
	n.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener channel and closes it.
func (n *Notifier) Unsubscribe(ch chan Event) {
	n.mu.Lock()
	delete(n.listeners, ch)
	n.mu.Unlock()
	close(ch)
}

// Broadcast sends an event to all listeners.
// Non-blocking: a listener whose buffer is full misses the event.
func (n *Notifier) Broadcast(ev Event) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for ch := range n.listeners {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Len returns the number of listeners.
func (n *Notifier) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.listeners)
}
