package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quillchat/quill/internal/testutil"
)

func TestRateLimiter_Allow(t *testing.T) {
	t.Parallel()

	t.Run("burst then rejection", func(t *testing.T) {
		t.Parallel()
		rl := newRateLimiter(0.0001, 3) // effectively no refill during the test

		for i := range 3 {
			assert.True(t, rl.allow("10.0.0.1"), "request %d within burst", i)
		}
		assert.False(t, rl.allow("10.0.0.1"), "burst exhausted")
	})

	t.Run("limits are per IP", func(t *testing.T) {
		t.Parallel()
		rl := newRateLimiter(0.0001, 1)

		assert.True(t, rl.allow("10.0.0.1"))
		assert.False(t, rl.allow("10.0.0.1"))
		assert.True(t, rl.allow("10.0.0.2"), "a different IP has its own bucket")
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Parallel()

	rl := newRateLimiter(0.0001, 2)
	h := rateLimitMiddleware(rl, false, testutil.DiscardLogger())(okHandler())

	makeRequest := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/conversations", nil)
		req.RemoteAddr = "203.0.113.9:40000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	for i := range 2 {
		assert.Equal(t, http.StatusOK, makeRequest().Code, "request %d", i)
	}

	rec := makeRequest()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "rate_limited")
}

func TestRateLimiter_ManyClients(t *testing.T) {
	t.Parallel()

	rl := newRateLimiter(1, 5)
	for i := range 100 {
		assert.True(t, rl.allow(fmt.Sprintf("192.0.2.%d", i)))
	}
}
