package notify

import (
	"context"
	"sync"

	"github.com/agenthub/agenthub-api/internal/domain"
)

// Hub is an in-process subscription fan-out keyed by owner. The SSE
// endpoint subscribes a channel per connection; Notify delivers an event
// only to the owner's subscribers and never blocks a slow consumer.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[chan domain.Event]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: map[string]map[chan domain.Event]struct{}{}}
}

// Subscribe registers a buffered channel for userID's events. The returned
// cancel func removes the subscription and closes the channel.
func (h *Hub) Subscribe(userID string) (<-chan domain.Event, func()) {
	ch := make(chan domain.Event, 16)

	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = map[chan domain.Event]struct{}{}
	}
	h.subs[userID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[userID], ch)
			if len(h.subs[userID]) == 0 {
				delete(h.subs, userID)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Notify delivers the event to the owner's subscribers only. Full buffers
// drop the event rather than stall the write path.
func (h *Hub) Notify(_ context.Context, ev domain.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[ev.OwnerUserID] {
		select {
		case ch <- ev:
		default:
		}
	}
}
