package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/Payphone-Digital/accounts/internal/constants"
	apperrors "github.com/Payphone-Digital/accounts/internal/errors"
	"github.com/Payphone-Digital/accounts/pkg/logger"
	"github.com/Payphone-Digital/accounts/pkg/metrics"
	"github.com/gin-gonic/gin"
)

// RateLimiter is a sliding window limiter keyed by client IP.
type RateLimiter struct {
	mu         sync.Mutex
	hits       map[string][]time.Time
	maxRequest int
	window     time.Duration
	now        func() time.Time
}

func NewRateLimiter(maxRequest int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		hits:       make(map[string][]time.Time),
		maxRequest: maxRequest,
		window:     window,
		now:        time.Now,
	}
}

// Allow records a hit for key and returns false once the window is full,
// together with the hits left.
func (rl *RateLimiter) Allow(key string) (bool, int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.cleanup(now)

	hits := rl.hits[key]
	if len(hits) >= rl.maxRequest {
		return false, 0
	}
	rl.hits[key] = append(hits, now)
	return true, rl.maxRequest - len(hits) - 1
}

func (rl *RateLimiter) cleanup(now time.Time) {
	for key, hits := range rl.hits {
		valid := hits[:0]
		for _, t := range hits {
			if now.Sub(t) <= rl.window {
				valid = append(valid, t)
			}
		}
		if len(valid) > 0 {
			rl.hits[key] = valid
		} else {
			delete(rl.hits, key)
		}
	}
}

// RateLimit throttles each client IP to maxRequest requests per window. A
// maxRequest of zero disables the limiter.
func RateLimit(limiter *RateLimiter, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || limiter.maxRequest <= 0 {
			c.Next()
			return
		}

		ip := c.ClientIP()
		allowed, remaining := limiter.Allow(ip)

		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.maxRequest))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			logger.WarnWithContext(c.Request.Context(), "Rate limit exceeded").
				String("client_ip", ip).
				Method(c.Request.Method).
				Path(c.Request.URL.Path).
				Int("max_requests", limiter.maxRequest).
				Duration(limiter.window).
				Log()
			m.RateLimited()

			c.Header("Retry-After", strconv.Itoa(int(limiter.window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				constants.BuildErrorResponse(constants.MsgTooManyRequests, apperrors.CodeValidation, nil))
			return
		}

		c.Next()
	}
}
