package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"turnstile/internal/broadcast"
	"turnstile/internal/holds"
	"turnstile/internal/inventory"
	"turnstile/internal/middleware"
	"turnstile/internal/models"
	"turnstile/internal/queue"
	"turnstile/internal/ticketing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGateway struct{}

func (stubGateway) Confirm(ctx context.Context, paymentKey, orderID string, amount int64) error {
	return nil
}

func (stubGateway) Cancel(ctx context.Context, paymentKey, reason string) error {
	return nil
}

// authAs injects the authenticated user, standing in for bearer auth.
func authAs(userID int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Request = c.Request.WithContext(middleware.ContextWithUserID(c.Request.Context(), userID))
		c.Next()
	}
}

type env struct {
	router *gin.Engine
	store  *inventory.MemoryStore
	inv    *inventory.Service
	holds  *holds.Manager
}

func setupRouter(userID int64) *env {
	gin.SetMode(gin.TestMode)

	store := inventory.NewMemoryStore()
	store.AddSeat(models.Seat{ID: "seat-1", VenueID: 1, Section: "S1", RowLabel: "A", Number: 1, BasePrice: 50000})
	store.AddSeat(models.Seat{ID: "seat-2", VenueID: 1, Section: "S1", RowLabel: "A", Number: 2, BasePrice: 70000})
	store.AddShowtime(10, 1)

	hub := broadcast.NewHub()
	inv := inventory.NewService(store, hub, nil)
	holdMgr := holds.NewManager(inv, nil, time.Minute)
	admission := queue.New(queue.Config{Window: 1, ReadyGrace: time.Minute}, nil)
	repo := ticketing.NewMemoryRepository()
	tk := ticketing.NewService(repo, inv, holdMgr, stubGateway{}, nil, 10*time.Minute)

	h := NewHandlers(admission, holdMgr, inv, tk, hub, nil)

	r := gin.New()
	api := r.Group("/api")
	api.Use(authAs(userID))
	{
		api.POST("/queue/events/:eventId/enter", h.EnterQueue)
		api.GET("/queue/status", h.QueueStatus)
		api.GET("/seats/venue/:venueId", h.VenueSeats)
		api.POST("/seats/hold", h.HoldSeat)
		api.POST("/seats/release", h.ReleaseSeat)
		api.POST("/ticketing/reserve", h.Reserve)
		api.GET("/ticketing/reservations", h.ListReservations)
		api.POST("/ticketing/cancel", h.CancelReservation)
		api.POST("/payments/toss/confirm", h.TossConfirm)
		api.GET("/payments/toss/fail", h.TossFail)
	}

	return &env{router: r, store: store, inv: inv, holds: holdMgr}
}

func (e *env) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestBookingFlow(t *testing.T) {
	e := setupRouter(7)

	// Enter the queue; window is 1, so the buyer is ready at once.
	w := e.do(t, "POST", "/api/queue/events/10/enter", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var enter models.QueueEnterResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &enter))
	assert.NotEmpty(t, enter.Token)

	req, _ := http.NewRequest("GET", "/api/queue/status", nil)
	req.Header.Set("Queue-Token", enter.Token)
	w = httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var status models.QueueStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.True(t, status.Ready)

	// Hold both seats.
	for _, seatID := range []string{"seat-1", "seat-2"} {
		w = e.do(t, "POST", "/api/seats/hold", models.HoldSeatRequest{ShowtimeID: 10, SeatID: seatID})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	// Reserve them.
	w = e.do(t, "POST", "/api/ticketing/reserve", models.ReserveRequest{ShowtimeID: 10, SeatIDs: []string{"seat-1", "seat-2"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var reserve models.ReserveResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reserve))
	assert.Equal(t, "tck-1", reserve.OrderID)
	assert.Equal(t, int64(120000), reserve.TotalPrice)

	// Confirm the payment.
	w = e.do(t, "POST", "/api/payments/toss/confirm", models.TossConfirmRequest{
		PaymentKey: "pay-key-1",
		OrderID:    reserve.OrderID,
		Amount:     120000,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var confirmed models.ReservationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &confirmed))
	assert.Equal(t, models.ReservationConfirmed, confirmed.Status)

	// Listing shows the confirmed reservation.
	w = e.do(t, "GET", "/api/ticketing/reservations", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var listed []models.ReservationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, models.ReservationConfirmed, listed[0].Status)

	// Seats ended SOLD.
	seat, err := e.inv.Seat(context.Background(), "seat-1")
	require.NoError(t, err)
	assert.Equal(t, models.SeatSold, seat.Status)
}

func TestQueueStatusInvalidToken(t *testing.T) {
	e := setupRouter(7)

	req, _ := http.NewRequest("GET", "/api/queue/status", nil)
	req.Header.Set("Queue-Token", "stale-token")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusGone, w.Code)
}

func TestQueueStatusMissingHeader(t *testing.T) {
	e := setupRouter(7)

	w := e.do(t, "GET", "/api/queue/status", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHoldContentionReturnsConflict(t *testing.T) {
	e := setupRouter(7)

	w := e.do(t, "POST", "/api/seats/hold", models.HoldSeatRequest{ShowtimeID: 10, SeatID: "seat-1"})
	require.Equal(t, http.StatusOK, w.Code)

	// Hitting the held seat again loses the CAS.
	w = e.do(t, "POST", "/api/seats/hold", models.HoldSeatRequest{ShowtimeID: 10, SeatID: "seat-1"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestReleaseSeat(t *testing.T) {
	e := setupRouter(7)

	w := e.do(t, "POST", "/api/seats/hold", models.HoldSeatRequest{ShowtimeID: 10, SeatID: "seat-1"})
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, "POST", "/api/seats/release", models.ReleaseSeatRequest{SeatID: "seat-1"})
	require.Equal(t, http.StatusOK, w.Code)

	seat, err := e.inv.Seat(context.Background(), "seat-1")
	require.NoError(t, err)
	assert.Equal(t, models.SeatAvailable, seat.Status)

	// Releasing again is harmless.
	w = e.do(t, "POST", "/api/seats/release", models.ReleaseSeatRequest{SeatID: "seat-1"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReserveWithoutHoldFails(t *testing.T) {
	e := setupRouter(7)

	w := e.do(t, "POST", "/api/ticketing/reserve", models.ReserveRequest{ShowtimeID: 10, SeatIDs: []string{"seat-1"}})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestConfirmAmountMismatch(t *testing.T) {
	e := setupRouter(7)

	w := e.do(t, "POST", "/api/seats/hold", models.HoldSeatRequest{ShowtimeID: 10, SeatID: "seat-1"})
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, "POST", "/api/ticketing/reserve", models.ReserveRequest{ShowtimeID: 10, SeatIDs: []string{"seat-1"}})
	require.Equal(t, http.StatusCreated, w.Code)

	var reserve models.ReserveResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reserve))

	w = e.do(t, "POST", "/api/payments/toss/confirm", models.TossConfirmRequest{
		PaymentKey: "pay-key-1",
		OrderID:    reserve.OrderID,
		Amount:     99999,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConfirmUnknownOrder(t *testing.T) {
	e := setupRouter(7)

	w := e.do(t, "POST", "/api/payments/toss/confirm", models.TossConfirmRequest{
		PaymentKey: "pay-key-1",
		OrderID:    "tck-404",
		Amount:     50000,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCancelReservation(t *testing.T) {
	e := setupRouter(7)

	w := e.do(t, "POST", "/api/seats/hold", models.HoldSeatRequest{ShowtimeID: 10, SeatID: "seat-1"})
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, "POST", "/api/ticketing/reserve", models.ReserveRequest{ShowtimeID: 10, SeatIDs: []string{"seat-1"}})
	require.Equal(t, http.StatusCreated, w.Code)

	var reserve models.ReserveResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reserve))

	w = e.do(t, "POST", "/api/ticketing/cancel", models.CancelReservationRequest{ReservationID: reserve.ReservationID})
	require.Equal(t, http.StatusOK, w.Code)

	seat, err := e.inv.Seat(context.Background(), "seat-1")
	require.NoError(t, err)
	assert.Equal(t, models.SeatAvailable, seat.Status)

	// A second cancel conflicts.
	w = e.do(t, "POST", "/api/ticketing/cancel", models.CancelReservationRequest{ReservationID: reserve.ReservationID})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestVenueSeatsSnapshot(t *testing.T) {
	e := setupRouter(7)

	w := e.do(t, "GET", "/api/seats/venue/1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var seats []models.SeatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &seats))
	assert.Len(t, seats, 2)
	for _, seat := range seats {
		assert.Equal(t, models.SeatAvailable, seat.Status)
	}
}

func TestTossFailKeepsReservationPending(t *testing.T) {
	e := setupRouter(7)

	w := e.do(t, "POST", "/api/seats/hold", models.HoldSeatRequest{ShowtimeID: 10, SeatID: "seat-1"})
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, "POST", "/api/ticketing/reserve", models.ReserveRequest{ShowtimeID: 10, SeatIDs: []string{"seat-1"}})
	require.Equal(t, http.StatusCreated, w.Code)

	var reserve models.ReserveResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reserve))

	w = e.do(t, "GET", "/api/payments/toss/fail?code=PAY_PROCESS_CANCELED&message=cancelled&orderId="+reserve.OrderID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// The buyer can still pay.
	w = e.do(t, "POST", "/api/payments/toss/confirm", models.TossConfirmRequest{
		PaymentKey: "pay-key-1",
		OrderID:    reserve.OrderID,
		Amount:     50000,
	})
	assert.Equal(t, http.StatusOK, w.Code)
}
