package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestLimiterStore(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s := newLimiterStore(4) // burst 2, one token every 15s
	s.now = func() time.Time { return now }

	ok, _ := s.reserve("user:1")
	assert.True(t, ok)
	ok, _ = s.reserve("user:1")
	assert.True(t, ok)
	ok, wait := s.reserve("user:1")
	assert.False(t, ok)
	assert.InDelta(t, float64(15*time.Second), float64(wait), float64(time.Millisecond))

	// other callers have their own bucket
	ok, _ = s.reserve("user:2")
	assert.True(t, ok)

	now = now.Add(16 * time.Second)
	ok, _ = s.reserve("user:1")
	assert.True(t, ok)

	now = now.Add(limiterIdle + time.Second)
	s.reserve("user:3")
	assert.NotContains(t, s.visitors, "user:1")
	assert.NotContains(t, s.visitors, "user:2")
}

func TestRateLimit(t *testing.T) {
	setupConfig(t)
	r := gin.New()
	r.POST("/w", RateLimit(), func(ctx *gin.Context) { ctx.Status(http.StatusNoContent) })

	// default 60/min gives a burst of 30
	var last *httptest.ResponseRecorder
	for i := 0; i < 31; i++ {
		last = httptest.NewRecorder()
		r.ServeHTTP(last, httptest.NewRequest(http.MethodPost, "/w", nil))
	}
	assert.Equal(t, http.StatusTooManyRequests, last.Code)
	assert.NotEmpty(t, last.Header().Get("Retry-After"))
	assert.Contains(t, last.Body.String(), `"code":42901`)
}
