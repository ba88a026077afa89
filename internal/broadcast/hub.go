// Package broadcast fans seat-status deltas out to everyone watching a
// showtime. Delivery is best-effort: a subscriber that cannot keep up is
// dropped and recovers by reconnecting, which replays a fresh snapshot.
package broadcast

import (
	"sync"

	"turnstile/internal/metrics"
	"turnstile/internal/models"
)

const subscriberBuffer = 64

// Subscription is one watcher of a showtime topic. C is closed when the hub
// drops the subscriber or Close is called.
type Subscription struct {
	C          <-chan models.SeatStatusDelta
	ch         chan models.SeatStatusDelta
	showtimeID int64
	hub        *Hub
	once       sync.Once
}

// Close detaches the subscription and frees its slot.
func (s *Subscription) Close() {
	s.hub.unsubscribe(s)
}

// Hub is the per-showtime fan-out. Publish runs under the hub lock, so two
// deltas for the same seat are handed to every subscriber channel in the
// order the inventory applied them.
type Hub struct {
	mu     sync.Mutex
	topics map[int64]map[*Subscription]struct{}
}

func NewHub() *Hub {
	return &Hub{
		topics: make(map[int64]map[*Subscription]struct{}),
	}
}

// Subscribe attaches a new watcher to the showtime topic. The caller is
// responsible for draining C and calling Close on disconnect.
func (h *Hub) Subscribe(showtimeID int64) *Subscription {
	ch := make(chan models.SeatStatusDelta, subscriberBuffer)
	sub := &Subscription{
		C:          ch,
		ch:         ch,
		showtimeID: showtimeID,
		hub:        h,
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.topics[showtimeID]
	if !ok {
		subs = make(map[*Subscription]struct{})
		h.topics[showtimeID] = subs
	}
	subs[sub] = struct{}{}
	metrics.Subscribers.Inc()
	return sub
}

// Publish delivers the delta to every subscriber of the showtime. A
// subscriber whose buffer is full is dropped rather than blocking the
// publisher; it will re-snapshot on reconnect.
func (h *Hub) Publish(showtimeID int64, delta models.SeatStatusDelta) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.topics[showtimeID]
	if !ok {
		return
	}

	for sub := range subs {
		select {
		case sub.ch <- delta:
		default:
			h.drop(sub)
		}
	}
}

// SubscriberCount reports the open subscriptions for a showtime.
func (h *Hub) SubscriberCount(showtimeID int64) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.topics[showtimeID])
}

func (h *Hub) unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.drop(sub)
}

// drop removes the subscription and closes its channel. Callers hold h.mu.
func (h *Hub) drop(sub *Subscription) {
	subs, ok := h.topics[sub.showtimeID]
	if !ok {
		return
	}
	if _, present := subs[sub]; !present {
		return
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(h.topics, sub.showtimeID)
	}
	sub.once.Do(func() {
		close(sub.ch)
		metrics.Subscribers.Dec()
	})
}
