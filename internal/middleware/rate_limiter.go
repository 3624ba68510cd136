package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter is a per-key token bucket.
type RateLimiter struct {
	mu           sync.Mutex
	tokens       map[string]int
	lastRefill   map[string]time.Time
	maxTokens    int
	refillRate   int           // tokens per refill
	refillPeriod time.Duration // how often to refill
	now          func() time.Time
}

// NewRateLimiter creates a limiter holding at most maxTokens per key and
// adding refillRate tokens every refillPeriod.
func NewRateLimiter(maxTokens, refillRate int, refillPeriod time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens:       make(map[string]int),
		lastRefill:   make(map[string]time.Time),
		maxTokens:    maxTokens,
		refillRate:   refillRate,
		refillPeriod: refillPeriod,
		now:          time.Now,
	}
}

// Allow takes a token for key, reporting false when none is left.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if _, exists := rl.tokens[key]; !exists {
		rl.tokens[key] = rl.maxTokens
		rl.lastRefill[key] = now
	}

	elapsed := now.Sub(rl.lastRefill[key])
	if refills := int(elapsed / rl.refillPeriod); refills > 0 {
		rl.tokens[key] += refills * rl.refillRate
		if rl.tokens[key] > rl.maxTokens {
			rl.tokens[key] = rl.maxTokens
		}
		rl.lastRefill[key] = rl.lastRefill[key].Add(time.Duration(refills) * rl.refillPeriod)
	}

	if rl.tokens[key] > 0 {
		rl.tokens[key]--
		return true
	}
	return false
}

// Remaining returns the tokens left for key.
func (rl *RateLimiter) Remaining(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.tokens[key]
}

// RateLimitMiddleware limits requests per authenticated subject, falling
// back to the client IP.
func RateLimitMiddleware(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if userID, ok := GetUserID(c); ok {
			key = userID
		}

		allowed := rl.Allow(key)
		c.Header("X-RateLimit-Remaining", strconv.Itoa(rl.Remaining(key)))
		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.maxTokens))
		if !allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": APIError{
					Code:       ErrCodeRateLimited,
					Message:    "Too many requests, please try again later",
					RetryAfter: int(rl.refillPeriod.Milliseconds()),
				},
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// NewGenerationRateLimiter allows a burst of 20 generations per caller,
// refilling two tokens each minute.
func NewGenerationRateLimiter() *RateLimiter {
	return NewRateLimiter(20, 2, time.Minute)
}
