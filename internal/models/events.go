package models

import "time"

// NATS Event Types
const (
	EventSeatHeld           = "seat.held"
	EventSeatReleased       = "seat.released"
	EventSeatStatusChanged  = "seat.status_changed"
	EventQueueAdmitted      = "queue.admitted"
	EventReservationCreated = "reservation.created"
	EventReservationExpired = "reservation.expired"
	EventPaymentConfirmed   = "payment.confirmed"
	EventPaymentFailed      = "payment.failed"
	EventReservationCancel  = "reservation.cancelled"
)

// SeatHeldEvent represents a successful seat hold
type SeatHeldEvent struct {
	SeatID     string    `json:"seat_id"`
	HolderID   int64     `json:"holder_id"`
	ShowtimeID int64     `json:"showtime_id"`
	ExpiresAt  time.Time `json:"expires_at"`
	Timestamp  time.Time `json:"timestamp"`
}

// SeatReleasedEvent represents a seat going back to AVAILABLE
type SeatReleasedEvent struct {
	SeatID     string    `json:"seat_id"`
	ShowtimeID int64     `json:"showtime_id"`
	Reason     string    `json:"reason"` // released, expired, reservation_cancelled
	Timestamp  time.Time `json:"timestamp"`
}

// SeatStatusChangedEvent mirrors every committed seat transition
type SeatStatusChangedEvent struct {
	SeatID     string     `json:"seat_id"`
	ShowtimeID int64      `json:"showtime_id"`
	From       SeatStatus `json:"from"`
	To         SeatStatus `json:"to"`
	Timestamp  time.Time  `json:"timestamp"`
}

// QueueAdmittedEvent represents an entry turning READY
type QueueAdmittedEvent struct {
	Token      string    `json:"token"`
	ShowtimeID int64     `json:"showtime_id"`
	HolderID   int64     `json:"holder_id"`
	Timestamp  time.Time `json:"timestamp"`
}

// ReservationCreatedEvent represents a reservation entering PENDING_PAYMENT
type ReservationCreatedEvent struct {
	ReservationID int64     `json:"reservation_id"`
	ShowtimeID    int64     `json:"showtime_id"`
	BuyerID       int64     `json:"buyer_id"`
	OrderID       string    `json:"order_id"`
	TotalPrice    int64     `json:"total_price"`
	Timestamp     time.Time `json:"timestamp"`
}

// ReservationExpiredEvent represents a payment-timeout expiry
type ReservationExpiredEvent struct {
	ReservationID int64     `json:"reservation_id"`
	OrderID       string    `json:"order_id"`
	Reason        string    `json:"reason"`
	Timestamp     time.Time `json:"timestamp"`
}

// ReservationCancelledEvent represents a buyer cancellation
type ReservationCancelledEvent struct {
	ReservationID int64     `json:"reservation_id"`
	OrderID       string    `json:"order_id"`
	Timestamp     time.Time `json:"timestamp"`
}

// PaymentConfirmedEvent represents a reconciled payment callback
type PaymentConfirmedEvent struct {
	ReservationID int64     `json:"reservation_id"`
	OrderID       string    `json:"order_id"`
	PaymentKey    string    `json:"payment_key"`
	Amount        int64     `json:"amount"`
	Timestamp     time.Time `json:"timestamp"`
}

// PaymentFailedEvent represents a failed or rejected payment redirect
type PaymentFailedEvent struct {
	OrderID   string    `json:"order_id"`
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
