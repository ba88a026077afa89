package handlers

import (
	"net/http"

	"turnstile/internal/models"

	"github.com/gin-gonic/gin"
)

// Ticketing handlers

// Reserve - POST /api/ticketing/reserve
// Convert held seats into a reservation pending payment. All-or-nothing.
func (h *Handlers) Reserve(c *gin.Context) {
	var req models.ReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := userIDFrom(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	res, err := h.ticketing.CreateReservation(c.Request.Context(), userID, req.ShowtimeID, req.SeatIDs)
	if err != nil {
		h.handleServiceError(c, err, "Failed to create reservation")
		return
	}

	c.JSON(http.StatusCreated, models.ReserveResponse{
		ReservationID: res.ID,
		OrderID:       res.OrderID,
		TotalPrice:    res.TotalPrice,
	})
}

// ListReservations - GET /api/ticketing/reservations
func (h *Handlers) ListReservations(c *gin.Context) {
	userID := userIDFrom(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	response, err := h.ticketing.ListByBuyer(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err, "Failed to list reservations")
		return
	}

	c.JSON(http.StatusOK, response)
}

// CancelReservation - POST /api/ticketing/cancel
func (h *Handlers) CancelReservation(c *gin.Context) {
	var req models.CancelReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := userIDFrom(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := h.ticketing.Cancel(c.Request.Context(), userID, req.ReservationID); err != nil {
		h.handleServiceError(c, err, "Failed to cancel reservation")
		return
	}

	c.Status(http.StatusOK)
}
