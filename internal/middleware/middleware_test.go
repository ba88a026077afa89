package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"turnstile/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserIDSharesLoggerContextKey(t *testing.T) {
	ctx := ContextWithUserID(context.Background(), 7)

	// The id stored here must be visible to logger.WithContext enrichment.
	id, ok := logger.UserIDFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, int64(7), id)

	id, ok = UserIDFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, int64(7), id)
}

func TestLoggerMiddlewareAssignsRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Logger())
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	router.ServeHTTP(rec, req)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	// A caller-supplied id is kept for correlation.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "req-abc")
	router.ServeHTTP(rec, req)
	assert.Equal(t, "req-abc", rec.Header().Get("X-Request-ID"))
}
