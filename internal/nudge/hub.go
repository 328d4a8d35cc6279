package nudge

import (
	"sync"

	"github.com/andrewbaggio1/sthealth-core/internal/models"
)

const subscriberBuffer = 16

// Hub fans state transitions out to subscribers. Broadcast never blocks the
// scheduler: a subscriber that stops draining loses events rather than stall
// a transition. Per-subscriber ordering is preserved.
type Hub struct {
	mu   sync.Mutex
	subs map[uint64]chan *models.NudgeStateResponse
	next uint64
}

func NewHub() *Hub {
	return &Hub{subs: map[uint64]chan *models.NudgeStateResponse{}}
}

// Subscribe registers a listener and returns its id and receive channel.
func (h *Hub) Subscribe() (uint64, <-chan *models.NudgeStateResponse) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.next++
	id := h.next
	ch := make(chan *models.NudgeStateResponse, subscriberBuffer)
	h.subs[id] = ch
	return id, ch
}

// Unsubscribe removes a listener and closes its channel.
func (h *Hub) Unsubscribe(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(ch)
	}
}

// Broadcast delivers a transition to every subscriber without blocking.
func (h *Hub) Broadcast(st *models.NudgeStateResponse) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- st:
		default:
			// Slow subscriber; drop rather than hold up a transition.
		}
	}
}

// SubscriberCount reports how many listeners are attached.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
