package inventory

import (
	"context"
	"sync"
	"time"

	errs "turnstile/internal/errors"
	"turnstile/internal/models"
)

// MemoryStore is an in-process Store used by tests and local development.
// Production wiring uses the Postgres-backed seat repository behind the same
// interface.
type MemoryStore struct {
	mu        sync.RWMutex
	seats     map[string]*models.Seat
	showtimes map[int64]int64 // showtimeID -> venueID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		seats:     make(map[string]*models.Seat),
		showtimes: make(map[int64]int64),
	}
}

// AddSeat registers a seat; used by seeding and tests.
func (m *MemoryStore) AddSeat(seat models.Seat) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if seat.Status == "" {
		seat.Status = models.SeatAvailable
	}
	s := seat
	m.seats[seat.ID] = &s
}

// AddShowtime maps a showtime onto its venue's seat map.
func (m *MemoryStore) AddShowtime(showtimeID, venueID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.showtimes[showtimeID] = venueID
}

func (m *MemoryStore) GetSeat(ctx context.Context, seatID string) (*models.Seat, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seat, ok := m.seats[seatID]
	if !ok {
		return nil, errs.ErrSeatNotFound
	}
	s := *seat
	return &s, nil
}

func (m *MemoryStore) GetSeatsByVenue(ctx context.Context, venueID int64) ([]models.Seat, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Seat
	for _, seat := range m.seats {
		if seat.VenueID == venueID {
			out = append(out, *seat)
		}
	}
	return out, nil
}

func (m *MemoryStore) GetSeatsByShowtime(ctx context.Context, showtimeID int64) ([]models.Seat, error) {
	m.mu.RLock()
	venueID, ok := m.showtimes[showtimeID]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return m.GetSeatsByVenue(ctx, venueID)
}

func (m *MemoryStore) CompareAndSetStatus(ctx context.Context, seatID string, expected, next models.SeatStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seat, ok := m.seats[seatID]
	if !ok {
		return false, errs.ErrSeatNotFound
	}
	if seat.Status != expected {
		return false, nil
	}
	seat.Status = next
	seat.UpdatedAt = time.Now()
	return true, nil
}
