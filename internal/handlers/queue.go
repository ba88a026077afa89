package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Queue handlers

// EnterQueue - POST /api/queue/events/:eventId/enter
// Join the admission queue for a showtime. Idempotent per buyer.
func (h *Handlers) EnterQueue(c *gin.Context) {
	showtimeID, err := strconv.ParseInt(c.Param("eventId"), 10, 64)
	if err != nil || showtimeID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	userID := userIDFrom(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	response := h.queue.Enter(showtimeID, userID)
	c.JSON(http.StatusOK, response)
}

// QueueStatus - GET /api/queue/status
// Poll queue position by the Queue-Token header. 410 for stale tokens.
func (h *Handlers) QueueStatus(c *gin.Context) {
	token := c.GetHeader("Queue-Token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Queue-Token header is required"})
		return
	}

	response, err := h.queue.Status(token)
	if err != nil {
		h.handleServiceError(c, err, "Failed to get queue status")
		return
	}

	c.JSON(http.StatusOK, response)
}
