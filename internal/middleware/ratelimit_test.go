package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newTestLimiter(rate int, interval time.Duration) (*RateLimiter, *time.Time) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(rate, interval)
	rl.now = func() time.Time { return now }
	return rl, &now
}

func TestAllowSpendsTokens(t *testing.T) {
	rl, _ := newTestLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("10.0.0.1"), "request %d", i)
	}
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"), "clients have separate buckets")
}

func TestAllowRefillsWholeIntervals(t *testing.T) {
	rl, now := newTestLimiter(2, time.Minute)
	rl.Allow("a")
	rl.Allow("a")
	assert.False(t, rl.Allow("a"))

	*now = now.Add(59 * time.Second)
	assert.False(t, rl.Allow("a"))

	*now = now.Add(2 * time.Second)
	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"), "refill is capped at the rate")
}

func TestCleanupEvictsIdleClients(t *testing.T) {
	rl, now := newTestLimiter(1, time.Minute)
	rl.Allow("idle")

	*now = now.Add(4 * time.Minute)
	rl.Allow("active")
	rl.cleanup()

	assert.NotContains(t, rl.visitors, "idle")
	assert.Contains(t, rl.visitors, "active")
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl, _ := newTestLimiter(1, time.Minute)

	r := gin.New()
	r.GET("/ping", rl.Middleware(), func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "RATE_LIMIT_EXCEEDED")
}
