// Package ticketing converts confirmed seat holds into durable reservations
// and reconciles them against asynchronous payment callbacks exactly once.
package ticketing

import (
	"context"
	"fmt"
	"time"

	errs "turnstile/internal/errors"
	"turnstile/internal/holds"
	"turnstile/internal/inventory"
	"turnstile/internal/logger"
	"turnstile/internal/metrics"
	"turnstile/internal/models"
)

const DefaultPaymentTimeout = 10 * time.Minute

// Repository is the durable reservation store.
type Repository interface {
	Create(ctx context.Context, res *models.Reservation, seatIDs []string) error
	GetByID(ctx context.Context, id int64) (*models.Reservation, error)
	GetByOrderID(ctx context.Context, orderID string) (*models.Reservation, error)
	GetByBuyer(ctx context.Context, buyerID int64) ([]models.Reservation, error)
	GetSeatIDs(ctx context.Context, reservationID int64) ([]string, error)
	// UpdateStatusIf transitions only when the current status matches; the
	// same CAS discipline as seat transitions, so confirm and expiry race
	// safely.
	UpdateStatusIf(ctx context.Context, id int64, from, to models.ReservationStatus) (bool, error)
	// Confirm flips PENDING_PAYMENT to CONFIRMED and persists the payment key
	// in the same write, so a confirmed reservation always carries its key.
	Confirm(ctx context.Context, id int64, paymentKey string) (bool, error)
	GetExpired(ctx context.Context, now time.Time) ([]models.Reservation, error)
}

// Gateway is the external payment provider. The engine never trusts the
// redirect alone; confirmation goes through the provider API.
type Gateway interface {
	Confirm(ctx context.Context, paymentKey, orderID string, amount int64) error
	Cancel(ctx context.Context, paymentKey, reason string) error
}

type Service struct {
	repo           Repository
	inv            *inventory.Service
	holds          *holds.Manager
	gateway        Gateway
	events         inventory.EventPublisher
	paymentTimeout time.Duration
}

func NewService(repo Repository, inv *inventory.Service, holdMgr *holds.Manager, gateway Gateway, events inventory.EventPublisher, paymentTimeout time.Duration) *Service {
	if paymentTimeout <= 0 {
		paymentTimeout = DefaultPaymentTimeout
	}
	return &Service{
		repo:           repo,
		inv:            inv,
		holds:          holdMgr,
		gateway:        gateway,
		events:         events,
		paymentTimeout: paymentTimeout,
	}
}

// CreateReservation requires every seat to be held by the buyer. The call is
// all-or-nothing: any seat that slipped away rolls back the ones already
// flipped, and no reservation row is written.
func (s *Service) CreateReservation(ctx context.Context, buyerID, showtimeID int64, seatIDs []string) (*models.Reservation, error) {
	if len(seatIDs) == 0 {
		return nil, fmt.Errorf("no seats selected")
	}

	seen := make(map[string]struct{}, len(seatIDs))
	for _, seatID := range seatIDs {
		if _, dup := seen[seatID]; dup {
			return nil, fmt.Errorf("duplicate seat in selection: %s", seatID)
		}
		seen[seatID] = struct{}{}

		holderID, heldShowtime, ok := s.holds.HeldBy(seatID)
		if !ok || holderID != buyerID || heldShowtime != showtimeID {
			return nil, errs.ErrSeatNoLongerHeld
		}
	}

	var totalPrice int64
	for _, seatID := range seatIDs {
		seat, err := s.inv.Seat(ctx, seatID)
		if err != nil {
			return nil, fmt.Errorf("failed to get seat: %w", err)
		}
		totalPrice += seat.BasePrice
	}

	// Flip HOLD->RESERVED seat by seat. A failed CAS means the hold expired
	// under us; revert everything flipped so far.
	flipped := make([]string, 0, len(seatIDs))
	for _, seatID := range seatIDs {
		ok, err := s.inv.Transition(ctx, showtimeID, seatID, models.SeatHeld, models.SeatReserved)
		if err != nil {
			s.revert(ctx, showtimeID, flipped)
			return nil, fmt.Errorf("failed to reserve seat: %w", err)
		}
		if !ok {
			s.revert(ctx, showtimeID, flipped)
			return nil, errs.ErrSeatNoLongerHeld
		}
		flipped = append(flipped, seatID)
	}

	res := &models.Reservation{
		ShowtimeID: showtimeID,
		BuyerID:    buyerID,
		Status:     models.ReservationPendingPayment,
		TotalPrice: totalPrice,
		ExpiresAt:  time.Now().Add(s.paymentTimeout),
		SeatIDs:    seatIDs,
	}
	if err := s.repo.Create(ctx, res, seatIDs); err != nil {
		s.revert(ctx, showtimeID, flipped)
		metrics.ReservationsTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("failed to create reservation: %w", err)
	}

	// Seats now belong to the reservation; clear the hold bookkeeping so the
	// hold timers stop. An expiry that fires in between loses its CAS and is
	// a no-op.
	for _, seatID := range seatIDs {
		s.holds.Redeem(seatID, buyerID)
	}

	metrics.ReservationsTotal.WithLabelValues("created").Inc()

	if s.events != nil {
		event := models.ReservationCreatedEvent{
			ReservationID: res.ID,
			ShowtimeID:    showtimeID,
			BuyerID:       buyerID,
			OrderID:       res.OrderID,
			TotalPrice:    totalPrice,
			Timestamp:     time.Now(),
		}
		if err := s.events.Publish(models.EventReservationCreated, event); err != nil {
			logger.WithContext(ctx).Error("Failed to publish reservation created event",
				"error", err,
				"reservation_id", res.ID,
				"event_type", models.EventReservationCreated)
		}
	}

	return res, nil
}

// ConfirmPayment reconciles the payment-provider callback. Amount must match
// the reservation total exactly; a duplicate confirmation with the same
// paymentKey is a no-op success.
func (s *Service) ConfirmPayment(ctx context.Context, orderID, paymentKey string, amount int64) (*models.Reservation, error) {
	res, err := s.repo.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	if res == nil {
		return nil, errs.ErrReservationNotFound
	}

	if res.Status == models.ReservationConfirmed {
		if res.PaymentKey != nil && *res.PaymentKey == paymentKey {
			return res, nil
		}
		return nil, errs.ErrReservationStateConflict
	}
	if res.Status != models.ReservationPendingPayment {
		return nil, errs.ErrReservationStateConflict
	}

	if amount != res.TotalPrice {
		metrics.ReservationsTotal.WithLabelValues("amount_mismatch").Inc()
		logger.WithContext(ctx).Error("Payment amount mismatch",
			"order_id", orderID,
			"expected", res.TotalPrice,
			"got", amount)
		return nil, errs.ErrAmountMismatch
	}

	if s.gateway != nil {
		if err := s.gateway.Confirm(ctx, paymentKey, orderID, amount); err != nil {
			return nil, fmt.Errorf("payment confirmation failed: %w", err)
		}
	}

	ok, err := s.repo.Confirm(ctx, res.ID, paymentKey)
	if err != nil {
		return nil, fmt.Errorf("failed to confirm reservation: %w", err)
	}
	if !ok {
		// Lost the race with a concurrent confirm or the expiry sweep.
		current, err := s.repo.GetByID(ctx, res.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to re-read reservation: %w", err)
		}
		if current != nil && current.Status == models.ReservationConfirmed &&
			current.PaymentKey != nil && *current.PaymentKey == paymentKey {
			return current, nil
		}
		return nil, errs.ErrReservationStateConflict
	}

	seatIDs, err := s.repo.GetSeatIDs(ctx, res.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation seats: %w", err)
	}
	for _, seatID := range seatIDs {
		ok, err := s.inv.Transition(ctx, res.ShowtimeID, seatID, models.SeatReserved, models.SeatSold)
		if err != nil || !ok {
			logger.WithContext(ctx).Error("Failed to mark seat sold",
				"error", err,
				"seat_id", seatID,
				"reservation_id", res.ID)
		}
	}

	metrics.ReservationsTotal.WithLabelValues("confirmed").Inc()

	if s.events != nil {
		event := models.PaymentConfirmedEvent{
			ReservationID: res.ID,
			OrderID:       orderID,
			PaymentKey:    paymentKey,
			Amount:        amount,
			Timestamp:     time.Now(),
		}
		if err := s.events.Publish(models.EventPaymentConfirmed, event); err != nil {
			logger.WithContext(ctx).Error("Failed to publish payment confirmed event",
				"error", err,
				"reservation_id", res.ID,
				"event_type", models.EventPaymentConfirmed)
		}
	}

	res.Status = models.ReservationConfirmed
	res.PaymentKey = &paymentKey
	res.SeatIDs = seatIDs
	return res, nil
}

// NotePaymentFailure records a failed payment redirect. The reservation is
// left PENDING_PAYMENT so the buyer can retry before the timeout.
func (s *Service) NotePaymentFailure(ctx context.Context, orderID, code, message string) {
	if s.events == nil {
		return
	}
	event := models.PaymentFailedEvent{
		OrderID:   orderID,
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
	}
	if err := s.events.Publish(models.EventPaymentFailed, event); err != nil {
		logger.WithContext(ctx).Error("Failed to publish payment failed event",
			"error", err,
			"order_id", orderID,
			"event_type", models.EventPaymentFailed)
	}
}

// Cancel releases a pending reservation on the buyer's request.
func (s *Service) Cancel(ctx context.Context, buyerID, reservationID int64) error {
	res, err := s.repo.GetByID(ctx, reservationID)
	if err != nil {
		return fmt.Errorf("failed to get reservation: %w", err)
	}
	if res == nil {
		return errs.ErrReservationNotFound
	}
	if buyerID != 0 && res.BuyerID != buyerID {
		return errs.ErrUnauthorized
	}

	ok, err := s.repo.UpdateStatusIf(ctx, reservationID, models.ReservationPendingPayment, models.ReservationCancelled)
	if err != nil {
		return fmt.Errorf("failed to cancel reservation: %w", err)
	}
	if !ok {
		return errs.ErrReservationStateConflict
	}

	s.releaseSeats(ctx, res)
	metrics.ReservationsTotal.WithLabelValues("cancelled").Inc()

	if s.events != nil {
		event := models.ReservationCancelledEvent{
			ReservationID: res.ID,
			OrderID:       res.OrderID,
			Timestamp:     time.Now(),
		}
		if err := s.events.Publish(models.EventReservationCancel, event); err != nil {
			logger.WithContext(ctx).Error("Failed to publish reservation cancelled event",
				"error", err,
				"reservation_id", res.ID,
				"event_type", models.EventReservationCancel)
		}
	}

	return nil
}

// Expire moves a payment-timed-out reservation to EXPIRED and frees its
// seats. Both expiry and confirm require PENDING_PAYMENT, so only one wins.
func (s *Service) Expire(ctx context.Context, res *models.Reservation) error {
	ok, err := s.repo.UpdateStatusIf(ctx, res.ID, models.ReservationPendingPayment, models.ReservationExpired)
	if err != nil {
		return fmt.Errorf("failed to expire reservation: %w", err)
	}
	if !ok {
		// Confirmed or cancelled concurrently; nothing to do.
		return nil
	}

	s.releaseSeats(ctx, res)
	metrics.ReservationsTotal.WithLabelValues("expired").Inc()

	if s.events != nil {
		event := models.ReservationExpiredEvent{
			ReservationID: res.ID,
			OrderID:       res.OrderID,
			Reason:        "payment timeout exceeded",
			Timestamp:     time.Now(),
		}
		if err := s.events.Publish(models.EventReservationExpired, event); err != nil {
			logger.WithContext(ctx).Error("Failed to publish reservation expired event",
				"error", err,
				"reservation_id", res.ID,
				"event_type", models.EventReservationExpired)
		}
	}

	return nil
}

// ExpiredPending lists reservations past their payment deadline.
func (s *Service) ExpiredPending(ctx context.Context, now time.Time) ([]models.Reservation, error) {
	return s.repo.GetExpired(ctx, now)
}

// ListByBuyer returns the buyer's reservations with their seats.
func (s *Service) ListByBuyer(ctx context.Context, buyerID int64) ([]models.ReservationResponse, error) {
	reservations, err := s.repo.GetByBuyer(ctx, buyerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}

	result := make([]models.ReservationResponse, len(reservations))
	for i, res := range reservations {
		seatIDs := res.SeatIDs
		if seatIDs == nil {
			seatIDs, err = s.repo.GetSeatIDs(ctx, res.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to get reservation seats: %w", err)
			}
		}
		result[i] = models.ReservationResponse{
			ReservationID: res.ID,
			ShowtimeID:    res.ShowtimeID,
			OrderID:       res.OrderID,
			TotalPrice:    res.TotalPrice,
			Status:        res.Status,
			SeatIDs:       seatIDs,
		}
	}
	return result, nil
}

// releaseSeats returns RESERVED seats to AVAILABLE after cancel/expiry.
func (s *Service) releaseSeats(ctx context.Context, res *models.Reservation) {
	seatIDs, err := s.repo.GetSeatIDs(ctx, res.ID)
	if err != nil {
		logger.WithContext(ctx).Error("Failed to get seats for release",
			"error", err,
			"reservation_id", res.ID)
		return
	}
	for _, seatID := range seatIDs {
		ok, err := s.inv.Transition(ctx, res.ShowtimeID, seatID, models.SeatReserved, models.SeatAvailable)
		if err != nil {
			logger.WithContext(ctx).Error("Failed to release reserved seat",
				"error", err,
				"seat_id", seatID,
				"reservation_id", res.ID)
			continue
		}
		if !ok {
			logger.WithContext(ctx).Warn("Seat not in RESERVED during release",
				"seat_id", seatID,
				"reservation_id", res.ID)
		}
	}
}

// revert undoes successful HOLD->RESERVED flips after a partial failure.
func (s *Service) revert(ctx context.Context, showtimeID int64, seatIDs []string) {
	for _, seatID := range seatIDs {
		if _, err := s.inv.Transition(ctx, showtimeID, seatID, models.SeatReserved, models.SeatHeld); err != nil {
			logger.WithContext(ctx).Error("Failed to revert seat to HOLD",
				"error", err,
				"seat_id", seatID)
		}
	}
}
