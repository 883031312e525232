package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/welldanyogia/webrana-formmail-backend/internal/logger"
)

// Rate limiter defaults
const (
	DefaultRequestsPerSecond = 10.0
	DefaultBurst             = 20
	DefaultIdleTTL           = 10 * time.Minute
	retryAfterSeconds        = 60
)

// CodeRateLimited is the error code returned with 429 responses
const CodeRateLimited = "RATE_LIMITED"

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter manages rate limiters per IP address. Entries idle for
// longer than the TTL are swept on access.
type IPRateLimiter struct {
	visitors  map[string]*visitor
	mu        sync.Mutex
	rate      rate.Limit
	burst     int
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewIPRateLimiter creates a new IP-based rate limiter
func NewIPRateLimiter(r rate.Limit, b int, ttl time.Duration) *IPRateLimiter {
	if ttl <= 0 {
		ttl = DefaultIdleTTL
	}
	return &IPRateLimiter{
		visitors: make(map[string]*visitor),
		rate:     r,
		burst:    b,
		ttl:      ttl,
		now:      time.Now,
	}
}

// GetLimiter returns the rate limiter for the given IP
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	now := i.now()
	if now.Sub(i.lastSweep) >= i.ttl {
		i.sweep(now)
	}

	v, exists := i.visitors[ip]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(i.rate, i.burst)}
		i.visitors[ip] = v
	}
	v.lastSeen = now

	return v.limiter
}

// Len returns the number of tracked IPs
func (i *IPRateLimiter) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.visitors)
}

// sweep drops visitors idle longer than the TTL. Caller holds mu.
func (i *IPRateLimiter) sweep(now time.Time) {
	for ip, v := range i.visitors {
		if now.Sub(v.lastSeen) >= i.ttl {
			delete(i.visitors, ip)
		}
	}
	i.lastSweep = now
}

// RateLimitConfig configures RateLimiter
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
	IdleTTL           time.Duration
	SecurityLogger    *logger.SecurityLogger
}

// RateLimiter returns per-IP rate limiting middleware. Zero values fall back
// to the package defaults.
func RateLimiter(cfg RateLimitConfig) echo.MiddlewareFunc {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = DefaultRequestsPerSecond
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = DefaultBurst
	}

	limiter := NewIPRateLimiter(rate.Limit(rps), burst, cfg.IdleTTL)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()

			if !limiter.GetLimiter(ip).Allow() {
				if cfg.SecurityLogger != nil {
					cfg.SecurityLogger.RateLimitExceeded(ip, c.Path())
				}

				retryAfter := strconv.Itoa(retryAfterSeconds)
				c.Response().Header().Set("Retry-After", retryAfter)
				return echo.NewHTTPError(http.StatusTooManyRequests, map[string]string{
					"error":       "rate limit exceeded",
					"code":        CodeRateLimited,
					"retry_after": retryAfter,
				})
			}

			return next(c)
		}
	}
}
