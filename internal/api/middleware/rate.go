package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitConfig defines rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int
	Burst             int
	// IdleTTL drops a client's bucket after this long without requests.
	IdleTTL time.Duration
}

// DefaultRateLimitConfig returns production-ready rate limit configuration.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 100,
		Burst:             200,
		IdleTTL:           10 * time.Minute,
	}
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	cfg     RateLimitConfig
	mu      sync.Mutex
	clients map[string]*client
	now     func() time.Time
}

// NewRateLimiter creates a per-IP limiter.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.IdleTTL == 0 {
		cfg.IdleTTL = 10 * time.Minute
	}
	return &RateLimiter{
		cfg:     cfg,
		clients: make(map[string]*client),
		now:     time.Now,
	}
}

// Allow reports whether ip may make a request now.
func (r *RateLimiter) Allow(ip string) bool {
	r.mu.Lock()
	c, ok := r.clients[ip]
	if !ok {
		c = &client{limiter: rate.NewLimiter(rate.Limit(r.cfg.RequestsPerSecond), r.cfg.Burst)}
		r.clients[ip] = c
	}
	now := r.now()
	c.lastSeen = now
	r.mu.Unlock()

	return c.limiter.AllowN(now, 1)
}

// Cleanup forgets clients idle longer than IdleTTL and returns how many.
func (r *RateLimiter) Cleanup() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.cfg.IdleTTL)
	removed := 0
	for ip, c := range r.clients {
		if c.lastSeen.Before(cutoff) {
			delete(r.clients, ip)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked clients.
func (r *RateLimiter) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// Run cleans up idle clients every interval until ctx is done.
func (r *RateLimiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Cleanup()
		}
	}
}

// Middleware rejects clients over their budget with 429.
func (r *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !r.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}

// RateLimit creates a per-IP rate limiting middleware.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	return NewRateLimiter(cfg).Middleware()
}
