package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"turnstile/internal/cache"
	"turnstile/internal/logger"
	"turnstile/internal/metrics"
	"turnstile/internal/models"

	"github.com/gin-gonic/gin"
)

// The user id rides on the logger package's context keys so that
// logger.WithContext enrichment sees what the middleware stored.

func ContextWithUserID(ctx context.Context, userID int64) context.Context {
	return logger.ContextWithUserID(ctx, userID)
}

func UserIDFromContext(ctx context.Context) (int64, bool) {
	return logger.UserIDFromContext(ctx)
}

func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, Queue-Token")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}

		c.Next()
	}
}

func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = logger.NewRequestID()
		}
		c.Header("X-Request-ID", requestID)
		c.Request = c.Request.WithContext(logger.ContextWithRequestID(c.Request.Context(), requestID))

		c.Next()

		latency := time.Since(start)
		userID, exists := c.Get("user_id")

		logFields := []any{
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status_code", c.Writer.Status(),
			"latency_ms", latency.Milliseconds(),
			"client_ip", c.ClientIP(),
		}

		if exists {
			logFields = append(logFields, "user_id", userID)
		}

		if c.Writer.Status() >= 400 {
			if len(c.Errors) > 0 {
				logFields = append(logFields, "error", c.Errors.String())
			}
			slog.Error("Request completed with error", logFields...)
		}
	}
}

func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		slog.Error("PANIC recovered",
			"panic", recovered,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"query", c.Request.URL.RawQuery,
			"client_ip", c.ClientIP(),
		)

		if !c.Writer.Written() {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
	})
}

// Metrics records per-route request duration.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.HTTPDuration.WithLabelValues(
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
		).Observe(time.Since(start).Seconds())
	}
}

// UserResolver looks a user up by the SHA-256 digest of their bearer token.
type UserResolver interface {
	GetByTokenDigest(ctx context.Context, digest string) (*models.User, error)
}

// TokenCache is the warm path for token resolution. May be nil.
type TokenCache interface {
	GetUserIDByToken(ctx context.Context, token string) (int64, error)
	SetUserToken(ctx context.Context, token string, userID int64) error
}

// BearerAuth authenticates requests via "Authorization: Bearer <token>",
// trying the cache first and falling back to the database.
func BearerAuth(users UserResolver, tokens TokenCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		ctx := c.Request.Context()

		if tokens != nil {
			userID, err := tokens.GetUserIDByToken(ctx, token)
			if err == nil && userID != 0 {
				c.Set("user_id", userID)
				c.Request = c.Request.WithContext(ContextWithUserID(ctx, userID))
				c.Next()
				return
			}
		}

		user, err := users.GetByTokenDigest(ctx, cache.TokenDigest(token))
		if err != nil || user == nil || !user.IsActive {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}

		if tokens != nil {
			if err := tokens.SetUserToken(ctx, token, user.UserID); err != nil {
				slog.Warn("Failed to cache token", "error", err)
			}
		}

		c.Set("user_id", user.UserID)
		c.Request = c.Request.WithContext(ContextWithUserID(c.Request.Context(), user.UserID))

		c.Next()
	}
}
