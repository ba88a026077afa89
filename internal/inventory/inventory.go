// Package inventory owns seat status. The compare-and-set on the backing
// store is the sole mutation primitive; hold, reservation and expiry logic
// all compose on top of it.
package inventory

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"turnstile/internal/logger"
	"turnstile/internal/models"
)

// Store is the durable seat record. CompareAndSetStatus returns false, not an
// error, when the current status does not match: the caller lost the race and
// must abort or re-plan, never retry the CAS blindly.
type Store interface {
	GetSeat(ctx context.Context, seatID string) (*models.Seat, error)
	GetSeatsByVenue(ctx context.Context, venueID int64) ([]models.Seat, error)
	GetSeatsByShowtime(ctx context.Context, showtimeID int64) ([]models.Seat, error)
	CompareAndSetStatus(ctx context.Context, seatID string, expected, next models.SeatStatus) (bool, error)
}

// Broadcaster receives a delta for every committed transition.
type Broadcaster interface {
	Publish(showtimeID int64, delta models.SeatStatusDelta)
}

// EventPublisher mirrors transitions onto the message bus. May be nil-free
// no-op in tests.
type EventPublisher interface {
	Publish(subject string, data interface{}) error
}

// SnapshotCache holds cached venue seat snapshots that go stale the moment a
// transition commits.
type SnapshotCache interface {
	InvalidateVenueSeats(ctx context.Context, venueID int64) error
}

const publishStripes = 64

// Service wraps a Store so that every successful transition emits a
// SeatStatusDelta to subscribers and a domain event to the bus. Per-seat
// striped locks keep CAS+publish serialized for a given seat, so deltas for
// the same seat always arrive in apply order; different seats never contend.
type Service struct {
	store     Store
	hub       Broadcaster
	events    EventPublisher
	snapshots SnapshotCache
	seatMu    [publishStripes]sync.Mutex
}

func NewService(store Store, hub Broadcaster, events EventPublisher) *Service {
	return &Service{
		store:  store,
		hub:    hub,
		events: events,
	}
}

// SetSnapshotCache enables venue-snapshot invalidation on committed
// transitions. Left unset when the cache is unavailable.
func (s *Service) SetSnapshotCache(c SnapshotCache) {
	s.snapshots = c
}

func (s *Service) stripe(seatID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(seatID))
	return &s.seatMu[h.Sum32()%publishStripes]
}

// Transition performs the compare-and-set and, on success, publishes the
// delta for the showtime the caller is acting in. Returns (false, nil) when
// someone else moved first.
func (s *Service) Transition(ctx context.Context, showtimeID int64, seatID string, from, to models.SeatStatus) (bool, error) {
	mu := s.stripe(seatID)
	mu.Lock()
	defer mu.Unlock()

	ok, err := s.store.CompareAndSetStatus(ctx, seatID, from, to)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	delta := models.SeatStatusDelta{
		ShowtimeID: showtimeID,
		Seats:      []models.SeatStatusItem{{SeatID: seatID, Status: to}},
	}
	if s.hub != nil {
		s.hub.Publish(showtimeID, delta)
	}

	if s.snapshots != nil {
		s.invalidateSnapshot(ctx, seatID)
	}

	if s.events != nil {
		event := models.SeatStatusChangedEvent{
			SeatID:     seatID,
			ShowtimeID: showtimeID,
			From:       from,
			To:         to,
			Timestamp:  time.Now(),
		}
		if err := s.events.Publish(models.EventSeatStatusChanged, event); err != nil {
			logger.WithContext(ctx).Error("Failed to publish seat status event",
				"error", err,
				"seat_id", seatID,
				"event_type", models.EventSeatStatusChanged)
		}
	}

	return true, nil
}

// invalidateSnapshot drops the cached snapshot for the seat's venue. Best
// effort; a stale snapshot also falls out on its TTL.
func (s *Service) invalidateSnapshot(ctx context.Context, seatID string) {
	seat, err := s.store.GetSeat(ctx, seatID)
	if err != nil {
		logger.WithContext(ctx).Error("Failed to resolve seat venue for cache invalidation",
			"error", err,
			"seat_id", seatID)
		return
	}
	if err := s.snapshots.InvalidateVenueSeats(ctx, seat.VenueID); err != nil {
		logger.WithContext(ctx).Error("Failed to invalidate venue seat snapshot",
			"error", err,
			"venue_id", seat.VenueID)
	}
}

func (s *Service) Seat(ctx context.Context, seatID string) (*models.Seat, error) {
	return s.store.GetSeat(ctx, seatID)
}

func (s *Service) SeatsByVenue(ctx context.Context, venueID int64) ([]models.Seat, error) {
	return s.store.GetSeatsByVenue(ctx, venueID)
}

func (s *Service) SeatsByShowtime(ctx context.Context, showtimeID int64) ([]models.Seat, error) {
	return s.store.GetSeatsByShowtime(ctx, showtimeID)
}
