package models

import (
	"fmt"
	"time"
)

// SeatStatus is the authoritative state of a seat. Every transition goes
// through the inventory compare-and-set; nothing mutates it directly.
type SeatStatus string

const (
	SeatAvailable SeatStatus = "AVAILABLE"
	SeatHeld      SeatStatus = "HOLD"
	SeatReserved  SeatStatus = "RESERVED"
	SeatSold      SeatStatus = "SOLD"
	SeatDisabled  SeatStatus = "DISABLED"
)

// ReservationStatus lifecycle: PENDING_PAYMENT is the only non-terminal state.
type ReservationStatus string

const (
	ReservationPendingPayment ReservationStatus = "PENDING_PAYMENT"
	ReservationConfirmed      ReservationStatus = "CONFIRMED"
	ReservationCancelled      ReservationStatus = "CANCELLED"
	ReservationExpired        ReservationStatus = "EXPIRED"
)

// User represents a buyer account. Authentication itself is handled by an
// external collaborator; we only resolve bearer tokens to user ids.
type User struct {
	UserID       int64     `json:"user_id" db:"user_id"`
	Email        string    `json:"email" db:"email"`
	FirstName    string    `json:"first_name" db:"first_name"`
	Surname      string    `json:"surname" db:"surname"`
	TokenDigest  string    `json:"-" db:"api_token_digest"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	RegisteredAt time.Time `json:"registered_at" db:"registered_at"`
	LastLoggedIn time.Time `json:"last_logged_in" db:"last_logged_in"`
}

// Venue holds the physical seat map.
type Venue struct {
	ID         int64     `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	Address    string    `json:"address" db:"address"`
	TotalSeats int       `json:"total_seats" db:"total_seats"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Showtime is a scheduled performance at a venue. Queue admission, seat
// broadcasts and reservations are all keyed by showtime.
type Showtime struct {
	ID        int64     `json:"id" db:"id"`
	VenueID   int64     `json:"venue_id" db:"venue_id"`
	Title     string    `json:"title" db:"title"`
	StartsAt  time.Time `json:"starts_at" db:"starts_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Seat is the durable per-venue seat record.
type Seat struct {
	ID        string     `json:"id" db:"id"`
	VenueID   int64      `json:"venue_id" db:"venue_id"`
	Section   string     `json:"section" db:"section"`
	RowLabel  string     `json:"row" db:"row_label"`
	Number    int        `json:"number" db:"seat_number"`
	BasePrice int64      `json:"base_price" db:"base_price"`
	Status    SeatStatus `json:"status" db:"status"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// Hold is a short-lived exclusive claim on a seat during active selection.
// At most one hold exists per seat; expiry releases the seat back to AVAILABLE.
type Hold struct {
	SeatID     string    `json:"seat_id"`
	HolderID   int64     `json:"holder_id"`
	ShowtimeID int64     `json:"showtime_id"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Reservation converts held seats into a durable order pending payment.
type Reservation struct {
	ID         int64             `json:"id" db:"id"`
	ShowtimeID int64             `json:"showtime_id" db:"showtime_id"`
	BuyerID    int64             `json:"buyer_id" db:"buyer_id"`
	Status     ReservationStatus `json:"status" db:"status"`
	TotalPrice int64             `json:"total_price" db:"total_price"`
	OrderID    string            `json:"order_id" db:"order_id"`
	PaymentKey *string           `json:"payment_key,omitempty" db:"payment_key"`
	ExpiresAt  time.Time         `json:"expires_at" db:"expires_at"`
	CreatedAt  time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at" db:"updated_at"`
	SeatIDs    []string          `json:"seat_ids,omitempty"` // Not from DB, filled separately
}

// TicketOrderID derives the external payment order id from a reservation id.
// The mapping is deterministic so a retried payment callback is naturally
// idempotent, and the "tck-" prefix routes the callback to ticketing.
func TicketOrderID(reservationID int64) string {
	return fmt.Sprintf("tck-%d", reservationID)
}
