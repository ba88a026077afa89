package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"turnstile/internal/broadcast"
	"turnstile/internal/cache"
	errs "turnstile/internal/errors"
	"turnstile/internal/holds"
	"turnstile/internal/inventory"
	"turnstile/internal/queue"
	"turnstile/internal/ticketing"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	queue       *queue.Queue
	holds       *holds.Manager
	inventory   *inventory.Service
	ticketing   *ticketing.Service
	hub         *broadcast.Hub
	cacheClient *cache.Client
}

func NewHandlers(q *queue.Queue, holdMgr *holds.Manager, inv *inventory.Service, tk *ticketing.Service, hub *broadcast.Hub, cacheClient *cache.Client) *Handlers {
	return &Handlers{
		queue:       q,
		holds:       holdMgr,
		inventory:   inv,
		ticketing:   tk,
		hub:         hub,
		cacheClient: cacheClient,
	}
}

// handleServiceError maps the domain error taxonomy onto HTTP statuses.
func (h *Handlers) handleServiceError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, errs.ErrSeatUnavailable):
		c.JSON(http.StatusConflict, gin.H{"error": "Seat is not available"})
	case errors.Is(err, errs.ErrSeatNoLongerHeld):
		c.JSON(http.StatusConflict, gin.H{"error": "Seat is no longer held"})
	case errors.Is(err, errs.ErrHoldExpired):
		c.JSON(http.StatusConflict, gin.H{"error": "Seat hold has expired"})
	case errors.Is(err, errs.ErrReservationStateConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Reservation is not in an eligible state"})
	case errors.Is(err, errs.ErrQueueTokenInvalid):
		c.JSON(http.StatusGone, gin.H{"error": "Queue token is invalid or expired"})
	case errors.Is(err, errs.ErrAmountMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Payment amount does not match reservation total"})
	case errors.Is(err, errs.ErrReservationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Reservation not found"})
	case errors.Is(err, errs.ErrSeatNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Seat not found"})
	case errors.Is(err, errs.ErrVenueNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Venue not found"})
	case errors.Is(err, errs.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
	default:
		slog.Error(msg, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}

func userIDFrom(c *gin.Context) int64 {
	if v, exists := c.Get("user_id"); exists {
		if id, ok := v.(int64); ok {
			return id
		}
	}
	return 0
}
