package main

import "sync"

// This file implements the explicit change-notification contract between
// the store and the Surface. The original UI re-rendered through reactive
// subscriptions; here the store publishes named events and any number of
// subscribers (the SSE handler, tests) receive them over channels.

// Event types published by the store.
const (
	EventRegionsChanged   = "regions"
	EventSelectionChanged = "selection"
)

// ChangeEvent names what part of the store changed. Payload-free: the
// Surface re-reads the store state it cares about.
type ChangeEvent struct {
	Type string `json:"type"`
}

// changeNotifier fans events out to subscribers. Publishing never blocks:
// a subscriber that falls behind misses intermediate events and catches up
// from the next one, which is fine for a "redraw now" signal.
type changeNotifier struct {
	mu          sync.Mutex
	nextID      int
	subscribers map[int]chan ChangeEvent
}

func newChangeNotifier() *changeNotifier {
	return &changeNotifier{
		subscribers: make(map[int]chan ChangeEvent),
	}
}

// Subscribe registers a new subscriber and returns its channel along with
// an unsubscribe function. The channel is buffered so a slow reader does
// not stall the store.
func (n *changeNotifier) Subscribe() (<-chan ChangeEvent, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	ch := make(chan ChangeEvent, 8)
	n.subscribers[id] = ch

	unsubscribe := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if _, ok := n.subscribers[id]; ok {
			delete(n.subscribers, id)
			close(ch)
		}
	}
	return ch, unsubscribe
}

// Publish delivers the event to every subscriber that has buffer space.
func (n *changeNotifier) Publish(event ChangeEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}
