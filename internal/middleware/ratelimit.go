// ratelimit.go implements per-user rate limiting with golang.org/x/time/rate.
//
// How token bucket works:
// - Each user gets a bucket holding up to `burst` tokens
// - Each request consumes 1 token
// - Tokens refill at a steady rate (perHour tokens per hour)
// - If the bucket is empty, the request is rejected with 429 Too Many Requests
//
// This protects the shared generative API key: every chat question spends
// quota on the one key configured in Settings.
package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/Shimizu-Technology/docgenie-api/internal/models"
)

// RateLimiter tracks request rates per user.
type RateLimiter struct {
	// Go Pattern: sync.Mutex guards the map; each *rate.Limiter is itself
	// safe for concurrent use once created.
	mu       sync.Mutex
	limiters map[string]*visitor
	rate     rate.Limit
	burst    int
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows perHour requests per hour per user with bursts of
// up to burst requests.
func NewRateLimiter(perHour, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*visitor),
		rate:     rate.Limit(float64(perHour) / 3600.0),
		burst:    burst,
	}
}

// limiterFor returns the limiter for a user, creating it on first use.
func (rl *RateLimiter) limiterFor(userID string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.limiters[userID]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[userID] = v
	}
	v.lastSeen = time.Now()
	return v.limiter
}

// retryAfterSeconds is how long one token takes to refill, rounded up.
func (rl *RateLimiter) retryAfterSeconds() int {
	if rl.rate <= 0 {
		return 3600
	}
	return int(math.Ceil(1 / float64(rl.rate)))
}

// RateLimit returns Gin middleware that enforces per-user rate limits.
// It must run after JWTAuth.
func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := GetUser(c)
		if user == nil {
			// No user = no rate limiting (auth middleware handles rejection)
			c.Next()
			return
		}

		limiter := rl.limiterFor(user.ID)
		allowed := limiter.Allow()

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", rl.burst))
		if !allowed {
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("Retry-After", fmt.Sprintf("%d", rl.retryAfterSeconds()))
			c.JSON(http.StatusTooManyRequests, models.ErrorResponse{
				Error:   "rate_limit_exceeded",
				Message: "Rate limit exceeded. Try again later.",
				Code:    http.StatusTooManyRequests,
			})
			c.Abort()
			return
		}

		// Go Pattern: These headers follow the standard draft RFC for rate limiting.
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%.0f", max(limiter.Tokens(), 0)))
		c.Next()
	}
}

// Cleanup removes limiters idle for more than an hour, every interval,
// until ctx is cancelled.
func (rl *RateLimiter) Cleanup(ctx context.Context, interval time.Duration) {
	// Go Pattern: time.Ticker sends values at regular intervals.
	// Always defer ticker.Stop() to release resources.
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.prune(time.Now().Add(-time.Hour))
		}
	}
}

func (rl *RateLimiter) prune(cutoff time.Time) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	n := 0
	for id, v := range rl.limiters {
		if v.lastSeen.Before(cutoff) {
			delete(rl.limiters, id)
			n++
		}
	}
	return n
}
