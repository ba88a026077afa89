package handlers

import (
	"log/slog"
	"net/http"

	"turnstile/internal/models"

	"github.com/gin-gonic/gin"
)

// Payments handlers

// TossConfirm - POST /api/payments/toss/confirm
// Reconcile the payment success redirect against the provider and the
// reservation. Duplicate confirmations with the same paymentKey succeed.
func (h *Handlers) TossConfirm(c *gin.Context) {
	var req models.TossConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.ticketing.ConfirmPayment(c.Request.Context(), req.OrderID, req.PaymentKey, req.Amount)
	if err != nil {
		h.handleServiceError(c, err, "Failed to confirm payment")
		return
	}

	c.JSON(http.StatusOK, models.ReservationResponse{
		ReservationID: res.ID,
		ShowtimeID:    res.ShowtimeID,
		OrderID:       res.OrderID,
		TotalPrice:    res.TotalPrice,
		Status:        res.Status,
		SeatIDs:       res.SeatIDs,
	})
}

// TossFail - GET /api/payments/toss/fail
// Failure redirect from the payment widget. The reservation stays
// PENDING_PAYMENT; the buyer may retry until the payment timeout expires it.
func (h *Handlers) TossFail(c *gin.Context) {
	orderID := c.Query("orderId")
	if orderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "orderId is required"})
		return
	}

	slog.Error("Payment failed for order",
		"order_id", orderID,
		"code", c.Query("code"),
		"message", c.Query("message"))

	h.ticketing.NotePaymentFailure(c.Request.Context(), orderID, c.Query("code"), c.Query("message"))

	c.Status(http.StatusOK)
}
