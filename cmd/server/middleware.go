// Package main provides the schedule assistant server entry point.
package main

import (
	"crypto/subtle"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apperrors "github.com/tmuhub/tmu-weekly-bot/internal/errors"
	"github.com/tmuhub/tmu-weekly-bot/internal/health"
	"github.com/tmuhub/tmu-weekly-bot/internal/logger"
	"github.com/tmuhub/tmu-weekly-bot/internal/metrics"
	"github.com/tmuhub/tmu-weekly-bot/internal/ratelimit"
)

const requestIDKey = "request_id"

// requestIDMiddleware tags every request with a UUID, echoed back in the
// X-Request-ID header and attached to log entries.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// securityHeadersMiddleware adds security headers to all responses
// Reference: https://gin-gonic.com/en/docs/examples/security-headers
func securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Prevent MIME type sniffing
		c.Header("X-Content-Type-Options", "nosniff")
		// Prevent clickjacking
		c.Header("X-Frame-Options", "DENY")
		// Strict referrer policy
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		// Restrict permissions
		c.Header("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
		// Content Security Policy - the chat page only loads same-origin assets
		c.Header("Content-Security-Policy", "default-src 'self'")
		c.Next()
	}
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		// Process request
		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()

		entry := log.WithField("method", method).
			WithField("path", path).
			WithField("status", status).
			WithField("duration_ms", duration.Milliseconds()).
			WithField("ip", c.ClientIP())
		if id := c.GetString(requestIDKey); id != "" {
			entry = entry.WithRequestID(id)
		}

		if len(c.Errors) > 0 {
			entry.WithField("errors", c.Errors.String()).Error("Request completed with errors")
		} else {
			switch {
			case status >= 500:
				entry.Error("Request failed")
			case status >= 400:
				entry.Warn("Request completed with client error")
			default:
				entry.Debug("Request completed")
			}
		}
	}
}

// readinessGateMiddleware refuses question-answering traffic with 503 while
// a required dependency is failed or still initializing. Liveness, readiness
// and metrics endpoints stay ungated.
func readinessGateMiddleware(readiness *health.Readiness, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if readiness.Ready() {
			c.Next()
			return
		}
		m.RecordHTTPError("not_ready")
		c.Header("Retry-After", "5")
		c.AbortWithStatusJSON(http.StatusServiceUnavailable,
			gin.H{"error": apperrors.ErrNotReady.Error() + ", try again shortly"})
	}
}

// globalRateLimitMiddleware applies a process-wide token bucket across all
// endpoints. Burst equals one second of refill.
func globalRateLimitMiddleware(rps float64, m *metrics.Metrics) gin.HandlerFunc {
	limiter := ratelimit.New(rps, rps)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			m.RecordRateLimiterDrop("global")
			m.RecordHTTPError("rate_limit")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}

// ipRateLimiter tracks one token bucket per client IP.
type ipRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*ratelimit.Limiter
	rpm      float64
}

func newIPRateLimiter(requestsPerMinute int) *ipRateLimiter {
	return &ipRateLimiter{
		limiters: make(map[string]*ratelimit.Limiter),
		rpm:      float64(requestsPerMinute),
	}
}

func (r *ipRateLimiter) allow(ip string) bool {
	r.mu.Lock()
	limiter, ok := r.limiters[ip]
	if !ok {
		limiter = ratelimit.NewPerMinute(r.rpm)
		r.limiters[ip] = limiter
	}
	r.mu.Unlock()
	return limiter.Allow()
}

// chatRateLimitMiddleware limits chat requests per client IP.
// A zero requestsPerMinute disables the limit.
func chatRateLimitMiddleware(requestsPerMinute int, m *metrics.Metrics) gin.HandlerFunc {
	if requestsPerMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	limiter := newIPRateLimiter(requestsPerMinute)
	return func(c *gin.Context) {
		if !limiter.allow(c.ClientIP()) {
			m.RecordRateLimiterDrop("chat")
			m.RecordHTTPError("rate_limit")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}

// metricsAuthMiddleware enforces Basic Auth for /metrics.
// An empty password disables authentication (pass-through).
func metricsAuthMiddleware(username, password string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if password == "" {
			c.Next()
			return
		}

		user, pass, hasAuth := c.Request.BasicAuth()
		if !hasAuth {
			c.Header("WWW-Authenticate", `Basic realm="metrics"`)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		// Constant-time comparison to prevent timing attacks
		userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(username)) == 1
		passMatch := subtle.ConstantTimeCompare([]byte(pass), []byte(password)) == 1

		if !userMatch || !passMatch {
			c.Header("WWW-Authenticate", `Basic realm="metrics"`)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		c.Next()
	}
}
