package devserver

import (
	"sync"
	"time"
)

// Event tells connected browsers that a file changed.
type Event struct {
	Path string
	Op   string
	At   time.Time
}

// Hub fans reload events out to subscribers. It is safe for concurrent use.
type Hub struct {
	mu     sync.Mutex
	subs   map[chan Event]struct{}
	closed bool
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan Event]struct{})}
}

// Subscribe registers a subscriber. The returned cancel func unregisters it
// and closes the channel; it is safe to call more than once.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 8)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[ch]; ok {
				delete(h.subs, ch)
				close(ch)
			}
		})
	}
}

// Broadcast delivers ev to every subscriber. Slow subscribers whose buffer is
// full miss the event; a reload is idempotent so nothing is lost.
func (h *Hub) Broadcast(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Len returns the number of subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close closes every subscriber channel. Later subscriptions receive an
// already closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
}
