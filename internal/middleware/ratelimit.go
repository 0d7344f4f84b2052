package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/potatochat/admin-backend/internal/database"
	"github.com/potatochat/admin-backend/pkg/clientip"
)

const (
	// GlobalRateLimitWindow / GlobalRateLimitMax apply to all /api/* traffic.
	GlobalRateLimitWindow = 15 * time.Minute
	GlobalRateLimitMax    = 100

	// AuthRateLimitWindow / AuthRateLimitMax apply to register and login.
	AuthRateLimitWindow = 15 * time.Minute
	AuthRateLimitMax    = 5

	// ResetRateLimitWindow / ResetRateLimitMax apply to the password reset endpoints.
	ResetRateLimitWindow = time.Hour
	ResetRateLimitMax    = 3

	rateLimitKeyPrefix = "ratelimit:"
)

// GlobalRateLimit limits each IP to 100 requests per 15 minutes across the API.
func GlobalRateLimit(next http.Handler) http.Handler {
	return limitMiddleware(next, "global", GlobalRateLimitMax, GlobalRateLimitWindow,
		"Too many requests. Please try again later.")
}

// AuthRateLimit limits each IP to 5 register/login requests per 15 minutes.
func AuthRateLimit(next http.Handler) http.Handler {
	return limitMiddleware(next, "auth", AuthRateLimitMax, AuthRateLimitWindow,
		"Too many authentication requests. Please try again later.")
}

// PasswordResetRateLimit limits each IP to 3 password reset requests per hour.
func PasswordResetRateLimit(next http.Handler) http.Handler {
	return limitMiddleware(next, "pwreset", ResetRateLimitMax, ResetRateLimitWindow,
		"Too many password reset requests. Please try again later.")
}

// limitMiddleware implements a fixed window counter in Redis keyed by
// limiter name and client IP. Redis failures fail open: the request is
// allowed rather than blocking all traffic on a cache outage.
func limitMiddleware(next http.Handler, name string, max int, window time.Duration, message string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		key := rateLimitKeyPrefix + name + ":" + clientip.RealClientIP(r)

		count, err := database.RedisClient.Incr(ctx, key).Result()
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		if count == 1 {
			// First request in this window; TTL starts the window.
			database.RedisClient.Expire(ctx, key, window)
		}

		if count > int64(max) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprintf(w, `{"success":false,"message":%q}`, message)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(max))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max-int(count)))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(window).Unix(), 10))

		next.ServeHTTP(w, r)
	})
}

// ResetRateLimit clears a limiter window for an IP (admin/test helper).
func ResetRateLimit(name, ip string) error {
	return database.RedisClient.Del(context.Background(), rateLimitKeyPrefix+name+":"+ip).Err()
}
