package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"turnstile/internal/broadcast"
	"turnstile/internal/models"

	"github.com/gin-gonic/gin"
)

// Seats handlers

// VenueSeats - GET /api/seats/venue/:venueId
// Venue seat snapshot, served from the Redis cache when warm.
func (h *Handlers) VenueSeats(c *gin.Context) {
	venueID, err := strconv.ParseInt(c.Param("venueId"), 10, 64)
	if err != nil || venueID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid venue id"})
		return
	}

	if h.cacheClient != nil {
		rawJSON, err := h.cacheClient.GetVenueSeatsRaw(c.Request.Context(), venueID)
		if err == nil && rawJSON != nil {
			c.Data(http.StatusOK, "application/json", rawJSON)
			return
		}
		if err != nil {
			slog.Warn("Venue seats cache lookup failed", "error", err, "venue_id", venueID)
		}
	}

	seats, err := h.inventory.SeatsByVenue(c.Request.Context(), venueID)
	if err != nil {
		h.handleServiceError(c, err, "Failed to list seats")
		return
	}

	response := make([]models.SeatResponse, len(seats))
	for i, seat := range seats {
		response[i] = models.SeatResponse{
			SeatID:    seat.ID,
			Section:   seat.Section,
			Row:       seat.RowLabel,
			Number:    seat.Number,
			BasePrice: seat.BasePrice,
			Status:    seat.Status,
		}
	}

	if h.cacheClient != nil {
		if data, err := json.Marshal(response); err == nil {
			if err := h.cacheClient.SetVenueSeats(c.Request.Context(), venueID, data); err != nil {
				slog.Warn("Failed to cache venue seats", "error", err, "venue_id", venueID)
			}
		}
	}

	c.JSON(http.StatusOK, response)
}

// StreamSeats - GET /api/seats/stream/:showtimeId
// WebSocket: snapshot on connect, then incremental deltas.
func (h *Handlers) StreamSeats(c *gin.Context) {
	showtimeID, err := strconv.ParseInt(c.Param("showtimeId"), 10, 64)
	if err != nil || showtimeID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid showtime id"})
		return
	}

	broadcast.ServeWS(h.hub, h.inventory.SeatsByShowtime, c.Writer, c.Request, showtimeID)
}

// HoldSeat - POST /api/seats/hold
// Place an exclusive short-lived hold on a seat.
func (h *Handlers) HoldSeat(c *gin.Context) {
	var req models.HoldSeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := userIDFrom(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	hold, err := h.holds.Acquire(c.Request.Context(), req.ShowtimeID, req.SeatID, userID)
	if err != nil {
		h.handleServiceError(c, err, "Failed to hold seat")
		return
	}

	// First hold consumes the buyer's READY queue slot.
	h.queue.Consume(req.ShowtimeID, userID)

	c.JSON(http.StatusOK, models.HoldSeatResponse{
		SeatID:    hold.SeatID,
		ExpiresAt: hold.ExpiresAt.Format(time.RFC3339),
	})
}

// ReleaseSeat - POST /api/seats/release
// Voluntarily release a held seat. Idempotent.
func (h *Handlers) ReleaseSeat(c *gin.Context) {
	var req models.ReleaseSeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := userIDFrom(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := h.holds.Release(c.Request.Context(), req.SeatID, userID); err != nil {
		h.handleServiceError(c, err, "Failed to release seat")
		return
	}

	c.Status(http.StatusOK)
}
