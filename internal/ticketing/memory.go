package ticketing

import (
	"context"
	"sync"
	"time"

	"turnstile/internal/models"
)

// MemoryRepository is an in-memory Repository used by the dev server and
// tests. It mirrors the conditional-update semantics of the SQL repository.
type MemoryRepository struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*models.Reservation
	seats  map[int64][]string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		nextID: 1,
		byID:   make(map[int64]*models.Reservation),
		seats:  make(map[int64][]string),
	}
}

func (r *MemoryRepository) Create(ctx context.Context, res *models.Reservation, seatIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	res.ID = r.nextID
	r.nextID++
	res.OrderID = models.TicketOrderID(res.ID)
	now := time.Now()
	res.CreatedAt = now
	res.UpdatedAt = now

	stored := *res
	stored.SeatIDs = nil
	r.byID[res.ID] = &stored
	r.seats[res.ID] = append([]string(nil), seatIDs...)
	return nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id int64) (*models.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	copied := *res
	return &copied, nil
}

func (r *MemoryRepository) GetByOrderID(ctx context.Context, orderID string) (*models.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, res := range r.byID {
		if res.OrderID == orderID {
			copied := *res
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) GetByBuyer(ctx context.Context, buyerID int64) ([]models.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []models.Reservation
	for _, res := range r.byID {
		if res.BuyerID == buyerID {
			result = append(result, *res)
		}
	}
	return result, nil
}

func (r *MemoryRepository) GetSeatIDs(ctx context.Context, reservationID int64) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.seats[reservationID]...), nil
}

func (r *MemoryRepository) UpdateStatusIf(ctx context.Context, id int64, from, to models.ReservationStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, ok := r.byID[id]
	if !ok || res.Status != from {
		return false, nil
	}
	res.Status = to
	res.UpdatedAt = time.Now()
	return true, nil
}

func (r *MemoryRepository) Confirm(ctx context.Context, id int64, paymentKey string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, ok := r.byID[id]
	if !ok || res.Status != models.ReservationPendingPayment {
		return false, nil
	}
	key := paymentKey
	res.Status = models.ReservationConfirmed
	res.PaymentKey = &key
	res.UpdatedAt = time.Now()
	return true, nil
}

func (r *MemoryRepository) GetExpired(ctx context.Context, now time.Time) ([]models.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []models.Reservation
	for _, res := range r.byID {
		if res.Status == models.ReservationPendingPayment && res.ExpiresAt.Before(now) {
			result = append(result, *res)
		}
	}
	return result, nil
}
