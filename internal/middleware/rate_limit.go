// Package middleware provides Gin middleware for the operations API.
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// Default rates per client IP
const (
	DefaultRateLimit       = 100
	DefaultIngestRateLimit = 10
)

// NewRateLimitMiddleware creates the general rate limiter, 100 requests per
// minute per IP address
func NewRateLimitMiddleware() gin.HandlerFunc {
	return NewRateLimitMiddlewareWithConfig(DefaultRateLimit, time.Minute)
}

// NewIngestRateLimitMiddleware creates the stricter limiter for ingestion
// triggers. A non-positive limit or period falls back to 10 per minute.
func NewIngestRateLimitMiddleware(limit int64, period time.Duration) gin.HandlerFunc {
	if limit <= 0 {
		limit = DefaultIngestRateLimit
	}
	if period <= 0 {
		period = time.Minute
	}
	return NewRateLimitMiddlewareWithConfig(limit, period)
}

// NewRateLimitMiddlewareWithConfig creates a rate limiting middleware with custom configuration
func NewRateLimitMiddlewareWithConfig(limit int64, period time.Duration) gin.HandlerFunc {
	rate := limiter.Rate{
		Period: period,
		Limit:  limit,
	}

	store := memory.NewStore()
	instance := limiter.New(store, rate)

	return mgin.NewMiddleware(instance)
}
