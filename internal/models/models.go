package models

// QueueEnterResponse - issued when a buyer joins the waiting queue
type QueueEnterResponse struct {
	Token    string `json:"token"`
	Position int    `json:"position"`
}

// QueueStatusResponse - polled by the client until ready
type QueueStatusResponse struct {
	Ready    bool `json:"ready"`
	Position int  `json:"position"`
}

// SeatResponse - element of the venue seat snapshot
type SeatResponse struct {
	SeatID    string     `json:"seatId"`
	Section   string     `json:"section"`
	Row       string     `json:"row"`
	Number    int        `json:"number"`
	BasePrice int64      `json:"basePrice"`
	Status    SeatStatus `json:"status"`
}

// HoldSeatRequest - place a hold on a seat during active selection
type HoldSeatRequest struct {
	ShowtimeID int64  `json:"showtimeId" binding:"required"`
	SeatID     string `json:"seatId" binding:"required"`
}

// ReleaseSeatRequest - release a previously held seat
type ReleaseSeatRequest struct {
	SeatID string `json:"seatId" binding:"required"`
}

// HoldSeatResponse - confirms the hold and its expiry
type HoldSeatResponse struct {
	SeatID    string `json:"seatId"`
	ExpiresAt string `json:"expiresAt"`
}

// ReserveRequest - convert held seats into a reservation
type ReserveRequest struct {
	ShowtimeID int64    `json:"showtimeId" binding:"required"`
	SeatIDs    []string `json:"seatIds" binding:"required,min=1"`
}

// ReserveResponse - reservation pending payment
type ReserveResponse struct {
	ReservationID int64  `json:"reservationId"`
	OrderID       string `json:"orderId"`
	TotalPrice    int64  `json:"totalPrice"`
}

// CancelReservationRequest - buyer-initiated cancellation
type CancelReservationRequest struct {
	ReservationID int64 `json:"reservationId" binding:"required"`
}

// ReservationResponse - reservation summary for listings
type ReservationResponse struct {
	ReservationID int64             `json:"reservationId"`
	ShowtimeID    int64             `json:"showtimeId"`
	OrderID       string            `json:"orderId"`
	TotalPrice    int64             `json:"totalPrice"`
	Status        ReservationStatus `json:"status"`
	SeatIDs       []string          `json:"seatIds"`
}

// TossConfirmRequest - forwarded by the client from the payment success redirect
type TossConfirmRequest struct {
	PaymentKey string `json:"paymentKey" binding:"required"`
	OrderID    string `json:"orderId" binding:"required"`
	Amount     int64  `json:"amount" binding:"required"`
}

// SeatStatusItem - one seat's status inside a delta or snapshot
type SeatStatusItem struct {
	SeatID string     `json:"seatId"`
	Status SeatStatus `json:"status"`
}

// SeatStatusDelta - the wire unit broadcast to showtime subscribers.
// Always incremental; a full snapshot is sent only on connect.
type SeatStatusDelta struct {
	ShowtimeID int64            `json:"showtimeId"`
	Seats      []SeatStatusItem `json:"seats"`
}
