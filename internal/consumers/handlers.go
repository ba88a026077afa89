package consumers

import (
	"context"
	"encoding/json"
	"log/slog"

	"turnstile/internal/models"
	"turnstile/internal/repository"

	"github.com/nats-io/stan.go"
)

type Handlers struct {
	repos *repository.Repositories
}

func NewHandlers(repos *repository.Repositories) *Handlers {
	return &Handlers{repos: repos}
}

func (h *Handlers) HandleSeatHeld(m *stan.Msg) {
	var event models.SeatHeldEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal seat held event", "error", err)
		return
	}

	slog.Info("Seat held",
		"seat_id", event.SeatID,
		"holder_id", event.HolderID,
		"showtime_id", event.ShowtimeID,
		"expires_at", event.ExpiresAt)

	m.Ack()
}

func (h *Handlers) HandleSeatReleased(m *stan.Msg) {
	var event models.SeatReleasedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal seat released event", "error", err)
		return
	}

	slog.Info("Seat released",
		"seat_id", event.SeatID,
		"showtime_id", event.ShowtimeID,
		"reason", event.Reason)

	m.Ack()
}

func (h *Handlers) HandleSeatStatusChanged(m *stan.Msg) {
	var event models.SeatStatusChangedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal seat status event", "error", err)
		return
	}

	slog.Info("Seat status changed",
		"seat_id", event.SeatID,
		"showtime_id", event.ShowtimeID,
		"from", event.From,
		"to", event.To)

	m.Ack()
}

func (h *Handlers) HandleQueueAdmitted(m *stan.Msg) {
	var event models.QueueAdmittedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal queue admitted event", "error", err)
		return
	}

	slog.Info("Queue entry admitted",
		"token", event.Token,
		"showtime_id", event.ShowtimeID,
		"holder_id", event.HolderID)

	m.Ack()
}

func (h *Handlers) HandleReservationCreated(m *stan.Msg) {
	var event models.ReservationCreatedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal reservation created event", "error", err)
		return
	}

	slog.Info("Reservation created",
		"reservation_id", event.ReservationID,
		"order_id", event.OrderID,
		"buyer_id", event.BuyerID,
		"total_price", event.TotalPrice)

	m.Ack()
}

func (h *Handlers) HandleReservationExpired(m *stan.Msg) {
	var event models.ReservationExpiredEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal reservation expired event", "error", err)
		return
	}

	slog.Warn("Reservation expired",
		"reservation_id", event.ReservationID,
		"order_id", event.OrderID,
		"reason", event.Reason)

	m.Ack()
}

func (h *Handlers) HandleReservationCancelled(m *stan.Msg) {
	var event models.ReservationCancelledEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal reservation cancelled event", "error", err)
		return
	}

	slog.Info("Reservation cancelled",
		"reservation_id", event.ReservationID,
		"order_id", event.OrderID)

	m.Ack()
}

func (h *Handlers) HandlePaymentConfirmed(m *stan.Msg) {
	var event models.PaymentConfirmedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal payment confirmed event", "error", err)
		return
	}

	// Cross-check the reservation exists and landed in CONFIRMED.
	ctx := context.Background()
	res, err := h.repos.Reservations.GetByID(ctx, event.ReservationID)
	if err != nil {
		slog.Error("Failed to load reservation for audit", "reservation_id", event.ReservationID, "error", err)
		return
	}
	if res == nil {
		slog.Error("Payment confirmed for unknown reservation", "reservation_id", event.ReservationID)
	} else if res.Status != models.ReservationConfirmed {
		slog.Warn("Payment confirmed but reservation not CONFIRMED",
			"reservation_id", event.ReservationID,
			"status", res.Status)
	} else {
		slog.Info("Payment confirmed",
			"reservation_id", event.ReservationID,
			"order_id", event.OrderID,
			"amount", event.Amount)
	}

	m.Ack()
}

func (h *Handlers) HandlePaymentFailed(m *stan.Msg) {
	var event models.PaymentFailedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal payment failed event", "error", err)
		return
	}

	slog.Warn("Payment failed",
		"order_id", event.OrderID,
		"code", event.Code,
		"message", event.Message)

	m.Ack()
}
