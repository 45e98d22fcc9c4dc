package api

import (
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/cartboardapp/cartboard-server/internal/ratelimit"
)

// RateLimiter wraps KeyedRateLimiter for API use.
type RateLimiter = ratelimit.KeyedRateLimiter

// NewRateLimiter creates a new rate limiter.
// rate: number of requests allowed per interval
// interval: time period for rate (e.g., time.Minute)
// burst: maximum burst size
func NewRateLimiter(ratePerInterval int, interval time.Duration, burst int) *RateLimiter {
	// Convert rate/interval to requests per second.
	// For example: 20 per minute = 20/60 = 0.333 rps
	rps := float64(ratePerInterval) / interval.Seconds()
	return ratelimit.New(rps, burst)
}

// checkAuthRateLimit enforces the per-IP limit on credential endpoints.
// Requests without a resolvable client IP share one bucket.
func (s *Server) checkAuthRateLimit(xForwardedFor, xRealIP string) error {
	key := extractIP(xForwardedFor, xRealIP)
	if key == "" {
		key = "unknown"
	}

	if !s.authRateLimiter.Allow(key) {
		s.logger.Warn("Rate limit exceeded", "ip", key)
		return huma.Error429TooManyRequests("Too many requests. Please try again later.")
	}

	return nil
}
