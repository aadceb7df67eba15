// Package ratelimiter limits how often one client may call a route.
package ratelimiter

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per key.
type RateLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	buckets map[string]*bucket
	ttl     time.Duration
	now     func() time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows limit events per interval for each key, with bursts up to limit.
// A non-positive limit disables limiting.
func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	rl := &RateLimiter{
		limit:   rate.Inf,
		burst:   1,
		buckets: make(map[string]*bucket),
		ttl:     10 * interval,
		now:     time.Now,
	}
	if limit > 0 && interval > 0 {
		rl.limit = rate.Every(interval / time.Duration(limit))
		rl.burst = limit
	}
	return rl
}

// Allow reports whether key may proceed now.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.buckets[key] = b
	}
	b.lastSeen = now
	rl.evict(now)
	return b.limiter.AllowN(now, 1)
}

// evict drops buckets idle for longer than ttl. Callers hold mu.
func (rl *RateLimiter) evict(now time.Time) {
	if len(rl.buckets) < 1024 {
		return
	}
	for k, b := range rl.buckets {
		if now.Sub(b.lastSeen) > rl.ttl {
			delete(rl.buckets, k)
		}
	}
}

// Middleware answers 429 once the client IP exceeds its budget.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			slog.Warn("rate limit exceeded", "path", c.FullPath(), "remote_addr", c.ClientIP())
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
