package server

import (
	"sync"

	"github.com/kburke8/poe-watcher/internal/core/engine"
)

// Hub fans tracker events out to SSE subscribers. Slow subscribers
// drop events rather than block the tracker.
type Hub struct {
	mu   sync.Mutex
	subs map[chan engine.Event]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan engine.Event]struct{})}
}

// Publish delivers an event to every subscriber.
func (h *Hub) Publish(ev engine.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs {
		select {
		case ch <- ev:
		default: // subscriber is not keeping up
		}
	}
}

// Subscribe registers a new subscriber; call the returned cancel func
// to unregister and close the channel.
func (h *Hub) Subscribe() (<-chan engine.Event, func()) {
	ch := make(chan engine.Event, 16)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
	}
	return ch, cancel
}
