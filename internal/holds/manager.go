// Package holds grants and expires short-lived exclusive seat holds. The
// manager is the only writer allowed to move a seat AVAILABLE<->HOLD; it does
// so exclusively through the inventory compare-and-set, so two buyers racing
// for the same seat resolve without any global lock.
package holds

import (
	"context"
	"sync"
	"time"

	errs "turnstile/internal/errors"
	"turnstile/internal/inventory"
	"turnstile/internal/logger"
	"turnstile/internal/metrics"
	"turnstile/internal/models"
)

const DefaultTTL = 5 * time.Minute

type hold struct {
	seatID     string
	holderID   int64
	showtimeID int64
	expiresAt  time.Time
	timer      *time.Timer
}

// Manager tracks active holds and their expiry timers, one cancellable timer
// per hold rather than a polling sweep.
type Manager struct {
	inv    *inventory.Service
	events inventory.EventPublisher
	ttl    time.Duration

	mu    sync.Mutex
	holds map[string]*hold // keyed by seat id; uniqueness invariant
}

func NewManager(inv *inventory.Service, events inventory.EventPublisher, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		inv:    inv,
		events: events,
		ttl:    ttl,
		holds:  make(map[string]*hold),
	}
}

// Acquire places a hold on the seat for the holder. Contention is the
// expected outcome under load: the seat already moved, the buyer picks
// another one. Returns ErrSeatUnavailable in that case.
func (m *Manager) Acquire(ctx context.Context, showtimeID int64, seatID string, holderID int64) (*models.Hold, error) {
	ok, err := m.inv.Transition(ctx, showtimeID, seatID, models.SeatAvailable, models.SeatHeld)
	if err != nil {
		return nil, err
	}
	if !ok {
		metrics.HoldsTotal.WithLabelValues("rejected").Inc()
		return nil, errs.ErrSeatUnavailable
	}

	expiresAt := time.Now().Add(m.ttl)
	h := &hold{
		seatID:     seatID,
		holderID:   holderID,
		showtimeID: showtimeID,
		expiresAt:  expiresAt,
	}
	h.timer = time.AfterFunc(m.ttl, func() { m.expire(seatID) })

	m.mu.Lock()
	m.holds[seatID] = h
	m.mu.Unlock()

	metrics.HoldsTotal.WithLabelValues("acquired").Inc()
	metrics.ActiveHolds.Inc()

	if m.events != nil {
		event := models.SeatHeldEvent{
			SeatID:     seatID,
			HolderID:   holderID,
			ShowtimeID: showtimeID,
			ExpiresAt:  expiresAt,
			Timestamp:  time.Now(),
		}
		if err := m.events.Publish(models.EventSeatHeld, event); err != nil {
			logger.WithContext(ctx).Error("Failed to publish seat held event",
				"error", err,
				"seat_id", seatID,
				"event_type", models.EventSeatHeld)
		}
	}

	return &models.Hold{
		SeatID:     seatID,
		HolderID:   holderID,
		ShowtimeID: showtimeID,
		ExpiresAt:  expiresAt,
	}, nil
}

// Release returns the seat to AVAILABLE. Idempotent: releasing an already
// released or expired hold is a no-op. Releasing another buyer's hold is
// refused.
func (m *Manager) Release(ctx context.Context, seatID string, holderID int64) error {
	m.mu.Lock()
	h, ok := m.holds[seatID]
	if !ok {
		m.mu.Unlock()
		return nil
	}
	if h.holderID != holderID {
		m.mu.Unlock()
		return errs.ErrSeatNoLongerHeld
	}
	h.timer.Stop()
	delete(m.holds, seatID)
	m.mu.Unlock()

	metrics.ActiveHolds.Dec()
	metrics.HoldsTotal.WithLabelValues("released").Inc()

	ok, err := m.inv.Transition(ctx, h.showtimeID, seatID, models.SeatHeld, models.SeatAvailable)
	if err != nil {
		return err
	}
	if ok {
		m.publishReleased(ctx, h, "released")
	}
	return nil
}

// HeldBy reports the holder and showtime of the seat's active hold.
func (m *Manager) HeldBy(seatID string) (holderID, showtimeID int64, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, present := m.holds[seatID]
	if !present {
		return 0, 0, false
	}
	return h.holderID, h.showtimeID, true
}

// Redeem consumes the hold record after the reconciler has moved the seat
// HOLD->RESERVED. It only clears bookkeeping; the seat status already
// belongs to the reservation. Returns false if the hold is gone or owned by
// someone else.
func (m *Manager) Redeem(seatID string, holderID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.holds[seatID]
	if !ok || h.holderID != holderID {
		return false
	}
	h.timer.Stop()
	delete(m.holds, seatID)
	metrics.ActiveHolds.Dec()
	return true
}

// Active reports the number of live holds.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.holds)
}

// expire runs when a hold's timer fires. It takes the same release path as an
// explicit release; if the reservation CAS already won the seat, the
// transition simply fails and nothing happens.
func (m *Manager) expire(seatID string) {
	m.mu.Lock()
	h, ok := m.holds[seatID]
	if !ok || time.Now().Before(h.expiresAt) {
		m.mu.Unlock()
		return
	}
	delete(m.holds, seatID)
	m.mu.Unlock()

	metrics.ActiveHolds.Dec()
	metrics.HoldsTotal.WithLabelValues("expired").Inc()

	ctx := context.Background()
	ok, err := m.inv.Transition(ctx, h.showtimeID, seatID, models.SeatHeld, models.SeatAvailable)
	if err != nil {
		logger.Get().Error("Failed to release expired hold",
			"error", err,
			"seat_id", seatID,
			"holder_id", h.holderID)
		return
	}
	if ok {
		m.publishReleased(ctx, h, "expired")
	}
}

func (m *Manager) publishReleased(ctx context.Context, h *hold, reason string) {
	if m.events == nil {
		return
	}
	event := models.SeatReleasedEvent{
		SeatID:     h.seatID,
		ShowtimeID: h.showtimeID,
		Reason:     reason,
		Timestamp:  time.Now(),
	}
	if err := m.events.Publish(models.EventSeatReleased, event); err != nil {
		logger.WithContext(ctx).Error("Failed to publish seat released event",
			"error", err,
			"seat_id", h.seatID,
			"event_type", models.EventSeatReleased)
	}
}
