package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func limitedRequest(t *testing.T, handler http.Handler, ip string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.Header.Set("X-Real-IP", ip)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(5, time.Minute)
	handler := rl.Limit(okHandler())

	t.Run("budget allows the limit, rejects the next", func(t *testing.T) {
		for i := 0; i < 5; i++ {
			rec := limitedRequest(t, handler, "10.0.0.1")
			assert.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
		}
		rec := limitedRequest(t, handler, "10.0.0.1")
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	})

	t.Run("rejection uses the response envelope", func(t *testing.T) {
		rec := limitedRequest(t, handler, "10.0.0.1")
		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		var env struct {
			Success bool   `json:"success"`
			Message string `json:"message"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
		assert.False(t, env.Success)
		assert.NotEmpty(t, env.Message)
	})

	t.Run("other clients keep their own budget", func(t *testing.T) {
		rec := limitedRequest(t, handler, "10.0.0.2")
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRateLimiterWindowExpiry(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return base }
	handler := rl.Limit(okHandler())

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, limitedRequest(t, handler, "10.0.0.9").Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, limitedRequest(t, handler, "10.0.0.9").Code)

	// Past the window the budget resets.
	rl.now = func() time.Time { return base.Add(2 * time.Minute) }
	assert.Equal(t, http.StatusOK, limitedRequest(t, handler, "10.0.0.9").Code)
}
