package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiter implements rate limiting for API endpoints
type RateLimiter struct {
	ipLimiters        map[string]*rate.Limiter
	tenantLimiters    map[string]*rate.Limiter
	ipMutex           sync.RWMutex
	tenantMutex       sync.RWMutex
	ipLimiterRate     rate.Limit
	tenantLimiterRate rate.Limit
	ipBurst           int
	tenantBurst       int
	cleanupTicker     *time.Ticker
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(ipRequestsPerSecond, tenantRequestsPerSecond float64, ipBurst, tenantBurst int) *RateLimiter {
	limiter := &RateLimiter{
		ipLimiters:        make(map[string]*rate.Limiter),
		tenantLimiters:    make(map[string]*rate.Limiter),
		ipLimiterRate:     rate.Limit(ipRequestsPerSecond),
		tenantLimiterRate: rate.Limit(tenantRequestsPerSecond),
		ipBurst:           ipBurst,
		tenantBurst:       tenantBurst,
		cleanupTicker:     time.NewTicker(5 * time.Minute),
	}

	// Start cleanup goroutine
	go limiter.cleanup()

	return limiter
}

// cleanup periodically removes old limiters to prevent memory leaks
func (rl *RateLimiter) cleanup() {
	for range rl.cleanupTicker.C {
		rl.ipMutex.Lock()
		rl.ipLimiters = make(map[string]*rate.Limiter)
		rl.ipMutex.Unlock()

		rl.tenantMutex.Lock()
		rl.tenantLimiters = make(map[string]*rate.Limiter)
		rl.tenantMutex.Unlock()
	}
}

// Stop stops the rate limiter cleanup
func (rl *RateLimiter) Stop() {
	rl.cleanupTicker.Stop()
}

// getIPLimiter returns the rate limiter for an IP
func (rl *RateLimiter) getIPLimiter(ip string) *rate.Limiter {
	rl.ipMutex.RLock()
	limiter, exists := rl.ipLimiters[ip]
	rl.ipMutex.RUnlock()

	if !exists {
		rl.ipMutex.Lock()
		limiter = rate.NewLimiter(rl.ipLimiterRate, rl.ipBurst)
		rl.ipLimiters[ip] = limiter
		rl.ipMutex.Unlock()
	}

	return limiter
}

// getTenantLimiter returns the rate limiter for a tenant
func (rl *RateLimiter) getTenantLimiter(key string) *rate.Limiter {
	rl.tenantMutex.RLock()
	limiter, exists := rl.tenantLimiters[key]
	rl.tenantMutex.RUnlock()

	if !exists {
		rl.tenantMutex.Lock()
		limiter = rate.NewLimiter(rl.tenantLimiterRate, rl.tenantBurst)
		rl.tenantLimiters[key] = limiter
		rl.tenantMutex.Unlock()
	}

	return limiter
}

// IPRateLimiterMiddleware limits requests based on IP address
func (rl *RateLimiter) IPRateLimiterMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		limiter := rl.getIPLimiter(ip)

		if !limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// TenantRateLimiterMiddleware limits requests per tenant so one institution
// cannot starve the others. Runs after TenantContext.
func (rl *RateLimiter) TenantRateLimiterMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant := c.GetHeader(tenantHeader)
		if tenant != "" {
			limiter := rl.getTenantLimiter(tenant)
			if !limiter.Allow() {
				c.JSON(http.StatusTooManyRequests, gin.H{
					"error": "tenant rate limit exceeded",
				})
				c.Abort()
				return
			}
		}

		c.Next()
	}
}
