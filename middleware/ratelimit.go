// Package middleware carries the gin middleware chain for the API:
// panic recovery, CORS, per-IP rate limiting, request logging and usage
// tracking.
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter is a per-client-IP token bucket. Comparison runs are
// expensive, so the default refill is deliberately slow.
type RateLimiter struct {
	tokens         map[string]float64
	lastRefill     map[string]time.Time
	mu             sync.Mutex
	rate           float64 // tokens per second
	bucketSize     float64 // maximum tokens
	refillInterval time.Duration
}

// NewRateLimiter allows perMinute requests sustained with bursts up to
// burst.
func NewRateLimiter(perMinute, burst int) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 30
	}
	if burst <= 0 {
		burst = 10
	}
	return &RateLimiter{
		tokens:         make(map[string]float64),
		lastRefill:     make(map[string]time.Time),
		rate:           float64(perMinute) / 60.0,
		bucketSize:     float64(burst),
		refillInterval: time.Second,
	}
}

// RateLimit rejects requests over the budget with 429.
func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		rl.mu.Lock()
		now := time.Now()

		if _, exists := rl.lastRefill[ip]; !exists {
			rl.tokens[ip] = rl.bucketSize
			rl.lastRefill[ip] = now
		}

		// Refill tokens based on time elapsed.
		elapsed := now.Sub(rl.lastRefill[ip])
		newTokens := float64(elapsed) / float64(rl.refillInterval) * rl.rate
		rl.tokens[ip] = min(rl.bucketSize, rl.tokens[ip]+newTokens)
		rl.lastRefill[ip] = now

		if rl.tokens[ip] < 1 {
			rl.mu.Unlock()
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded. Please try again later.",
			})
			c.Abort()
			return
		}

		rl.tokens[ip]--

		if len(rl.lastRefill) > 10000 {
			rl.pruneLocked(now)
		}
		rl.mu.Unlock()

		c.Next()
	}
}

// pruneLocked drops buckets idle long enough to have refilled fully.
// Caller holds the mutex.
func (rl *RateLimiter) pruneLocked(now time.Time) {
	idle := time.Duration(rl.bucketSize/rl.rate) * time.Second
	if idle < time.Minute {
		idle = time.Minute
	}
	for ip, last := range rl.lastRefill {
		if now.Sub(last) > idle {
			delete(rl.lastRefill, ip)
			delete(rl.tokens, ip)
		}
	}
}
