// ratelimit.go implements per-caller rate limiting using a token bucket algorithm.
//
// How token bucket works:
// - Each caller gets a "bucket" with N tokens (= rate_limit of the API key,
//   or the default limit for JWT users)
// - Each request consumes 1 token
// - Tokens refill at a steady rate (N tokens per hour)
// - If the bucket is empty, the request is rejected with 429 Too Many Requests
package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Shimizu-Technology/pdf-tools-api/internal/models"
)

// RateLimiter tracks request rates per API key and per user.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket

	defaultLimit int
	exempt       func(*models.APIKey) bool
	now          func() time.Time
	done         chan struct{}
	stopOnce     sync.Once
}

// bucket tracks the token state for a single caller.
type bucket struct {
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
}

// allowResult contains the result of a rate limit check,
// including header information for the response.
type allowResult struct {
	allowed   bool
	remaining float64
	limit     float64
}

// NewRateLimiter creates a rate limiter. defaultLimit applies to JWT users,
// and to keys stored without a limit. Keys for which exempt returns true
// are never limited; exempt may be nil.
func NewRateLimiter(defaultLimit int, exempt func(*models.APIKey) bool) *RateLimiter {
	rl := &RateLimiter{
		buckets:      make(map[string]*bucket),
		defaultLimit: defaultLimit,
		exempt:       exempt,
		now:          time.Now,
		done:         make(chan struct{}),
	}

	// Start background cleanup goroutine
	go rl.cleanup()

	return rl
}

// Stop ends the cleanup goroutine.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

// caller returns the bucket ID and hourly limit for the request. ok is false
// when the request should not be limited.
func (rl *RateLimiter) caller(c *gin.Context) (id string, limit int, ok bool) {
	if apiKey := GetAPIKey(c); apiKey != nil {
		if rl.exempt != nil && rl.exempt(apiKey) {
			return "", 0, false
		}
		limit = apiKey.RateLimit
		if limit <= 0 {
			limit = rl.defaultLimit
		}
		return "key:" + apiKey.ID, limit, true
	}
	if user := GetUser(c); user != nil {
		return "user:" + user.ID, rl.defaultLimit, true
	}
	// Unauthenticated: the auth middleware handles rejection
	return "", 0, false
}

// RateLimit returns Gin middleware that enforces per-caller rate limits.
// It must run after DualAuth.
func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, limit, ok := rl.caller(c)
		if !ok {
			c.Next()
			return
		}

		result := rl.allow(id, limit)
		c.Header("X-RateLimit-Limit", formatFloat(result.limit))
		if !result.allowed {
			c.Header("X-RateLimit-Remaining", "0")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
				Error:   "rate_limit_exceeded",
				Message: "Rate limit exceeded. Try again later.",
				Code:    http.StatusTooManyRequests,
			})
			return
		}
		c.Header("X-RateLimit-Remaining", formatFloat(result.remaining))

		c.Next()
	}
}

// allow checks if a request should be allowed, consuming a token if so.
// The check and the header values are read under one lock.
func (rl *RateLimiter) allow(id string, rateLimit int) allowResult {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, exists := rl.buckets[id]
	if !exists || b.maxTokens != float64(rateLimit) {
		// New caller, or the key's limit was changed
		b = &bucket{
			tokens:     float64(rateLimit),
			maxTokens:  float64(rateLimit),
			refillRate: float64(rateLimit) / 3600.0,
			lastRefill: now,
		}
		rl.buckets[id] = b
	}

	// Refill tokens based on elapsed time
	b.tokens += now.Sub(b.lastRefill).Seconds() * b.refillRate
	if b.tokens > b.maxTokens {
		b.tokens = b.maxTokens
	}
	b.lastRefill = now

	if b.tokens < 1.0 {
		return allowResult{allowed: false, limit: b.maxTokens}
	}

	b.tokens--
	return allowResult{allowed: true, remaining: b.tokens, limit: b.maxTokens}
}

// cleanup periodically removes stale buckets to prevent memory leaks.
func (rl *RateLimiter) cleanup() {
	// Go Pattern: time.Ticker sends values at regular intervals.
	// Always defer ticker.Stop() to release resources.
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.sweep()
		}
	}
}

// sweep drops buckets that haven't been used in over an hour. A bucket
// idle that long has refilled completely anyway.
func (rl *RateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for id, b := range rl.buckets {
		if now.Sub(b.lastRefill) > time.Hour {
			delete(rl.buckets, id)
		}
	}
}

// formatFloat converts a float to a string for headers.
func formatFloat(f float64) string {
	return fmt.Sprintf("%.0f", f)
}
