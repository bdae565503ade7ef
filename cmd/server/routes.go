// Package main provides the schedule assistant server entry point.
package main

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tmuhub/tmu-weekly-bot/internal/config"
	apperrors "github.com/tmuhub/tmu-weekly-bot/internal/errors"
	"github.com/tmuhub/tmu-weekly-bot/internal/health"
	"github.com/tmuhub/tmu-weekly-bot/internal/logger"
	"github.com/tmuhub/tmu-weekly-bot/internal/metrics"
	"github.com/tmuhub/tmu-weekly-bot/internal/qa"
	"github.com/tmuhub/tmu-weekly-bot/internal/sentry"
)

// setupRoutes configures all HTTP routes
func setupRoutes(router *gin.Engine, svc *qa.Service, readiness *health.Readiness, registry *prometheus.Registry, cfg *config.Config, m *metrics.Metrics, log *logger.Logger) {
	// Static chat page
	router.StaticFile("/", "./web/index.html")
	router.StaticFile("/index.html", "./web/index.html")
	router.StaticFile("/main.js", "./web/main.js")

	// Health check endpoints
	// Liveness Probe - checks if the application is alive (minimal check)
	// This should NEVER check dependencies - only that the process is running
	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/healthz", healthHandler)
	router.HEAD("/healthz", healthHandler)

	// Readiness Probe - reports per-component init state
	readyHandler := func(c *gin.Context) {
		report := readiness.Status()
		status := http.StatusOK
		if !report.Ready {
			status = http.StatusServiceUnavailable
			m.RecordHTTPError("not_ready")
		}
		c.JSON(status, report)
	}
	router.GET("/readyz", readyHandler)
	router.HEAD("/readyz", readyHandler)

	// Chat endpoints refuse with 503 while a required dependency is down
	readyGate := readinessGateMiddleware(readiness, m)
	chatLimit := chatRateLimitMiddleware(cfg.ChatRateLimitRPM, m)
	router.POST("/api/chat", readyGate, chatLimit, chatHandler(svc, m, log))
	router.POST("/ask", readyGate, chatLimit, askHandler(svc, m, log))

	// Prometheus metrics endpoint
	router.GET("/metrics",
		metricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword),
		gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
}

// chatHandler answers a chat message with just the answer text.
func chatHandler(svc *qa.Service, m *metrics.Metrics, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Message string `json:"message"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Message) == "" {
			m.RecordHTTPError("bad_request")
			c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
			return
		}

		answer, ok := answerQuestion(c, svc, m, log, req.Message)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"answer": answer.Answer})
	}
}

// askHandler answers a question and includes the matched event records.
func askHandler(svc *qa.Service, m *metrics.Metrics, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Question string `json:"question"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Question) == "" {
			m.RecordHTTPError("bad_request")
			c.JSON(http.StatusBadRequest, gin.H{"error": "question is required"})
			return
		}

		answer, ok := answerQuestion(c, svc, m, log, req.Question)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, answer)
	}
}

// answerQuestion runs the QA service and handles the shared error path.
func answerQuestion(c *gin.Context, svc *qa.Service, m *metrics.Metrics, log *logger.Logger, question string) (*qa.Answer, bool) {
	start := time.Now()
	answer, err := svc.Ask(c.Request.Context(), question)
	duration := time.Since(start).Seconds()

	if err != nil {
		var vErr *apperrors.ValidationError
		if errors.As(err, &vErr) {
			m.RecordHTTPError("bad_request")
			c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Error()})
			return nil, false
		}

		m.RecordQuestion("unknown", "error", duration)
		m.RecordHTTPError("internal")
		sentry.CaptureExceptionWithContext(c.Request.Context(), err)
		log.WithError(err).
			WithRequestID(c.GetString(requestIDKey)).
			Error("Failed to answer question")

		// Wrapped infrastructure failures carry a user-safe message.
		msg := "internal error"
		var wErr *apperrors.WrappedError
		if errors.As(err, &wErr) {
			msg = wErr.UserMessage
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
		return nil, false
	}

	m.RecordQuestion(string(answer.Intent), "success", duration)
	return answer, true
}
