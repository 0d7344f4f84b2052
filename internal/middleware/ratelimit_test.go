package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/potatochat/admin-backend/internal/database"
)

func setupMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()

	mr := miniredis.RunT(t)
	prev := database.RedisClient
	database.RedisClient = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		database.RedisClient.Close()
		database.RedisClient = prev
	})
	return mr
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func sendFrom(handler http.Handler, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.Header.Set("X-Forwarded-For", ip)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestAuthRateLimitBlocksAfterMax(t *testing.T) {
	setupMiniredis(t)
	handler := AuthRateLimit(okHandler())

	for i := 0; i < AuthRateLimitMax; i++ {
		rec := sendFrom(handler, "203.0.113.7")
		require.Equal(t, http.StatusOK, rec.Code, "request %d should pass", i+1)
	}

	rec := sendFrom(handler, "203.0.113.7")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "Too many authentication requests")
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestRateLimitIsPerIP(t *testing.T) {
	setupMiniredis(t)
	handler := AuthRateLimit(okHandler())

	for i := 0; i < AuthRateLimitMax; i++ {
		sendFrom(handler, "203.0.113.7")
	}
	require.Equal(t, http.StatusTooManyRequests, sendFrom(handler, "203.0.113.7").Code)

	// A different client is unaffected.
	assert.Equal(t, http.StatusOK, sendFrom(handler, "203.0.113.8").Code)
}

func TestRateLimitWindowExpires(t *testing.T) {
	mr := setupMiniredis(t)
	handler := AuthRateLimit(okHandler())

	for i := 0; i < AuthRateLimitMax; i++ {
		sendFrom(handler, "203.0.113.7")
	}
	require.Equal(t, http.StatusTooManyRequests, sendFrom(handler, "203.0.113.7").Code)

	mr.FastForward(AuthRateLimitWindow)
	assert.Equal(t, http.StatusOK, sendFrom(handler, "203.0.113.7").Code)
}

func TestRateLimitHeaders(t *testing.T) {
	setupMiniredis(t)
	handler := AuthRateLimit(okHandler())

	rec := sendFrom(handler, "203.0.113.7")
	assert.Equal(t, "5", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "4", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Reset"))
}

func TestRateLimitFailsOpenWhenRedisDown(t *testing.T) {
	mr := setupMiniredis(t)
	handler := AuthRateLimit(okHandler())
	mr.Close()

	// A cache outage must not block the API.
	rec := sendFrom(handler, "203.0.113.7")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestResetRateLimitClearsWindow(t *testing.T) {
	setupMiniredis(t)
	handler := AuthRateLimit(okHandler())

	for i := 0; i < AuthRateLimitMax; i++ {
		sendFrom(handler, "203.0.113.7")
	}
	require.Equal(t, http.StatusTooManyRequests, sendFrom(handler, "203.0.113.7").Code)

	require.NoError(t, ResetRateLimit("auth", "203.0.113.7"))
	assert.Equal(t, http.StatusOK, sendFrom(handler, "203.0.113.7").Code)
}
