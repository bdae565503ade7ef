// Package main provides the schedule assistant server entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/tmuhub/tmu-weekly-bot/internal/buildinfo"
	"github.com/tmuhub/tmu-weekly-bot/internal/config"
	apperrors "github.com/tmuhub/tmu-weekly-bot/internal/errors"
	"github.com/tmuhub/tmu-weekly-bot/internal/genai"
	"github.com/tmuhub/tmu-weekly-bot/internal/health"
	"github.com/tmuhub/tmu-weekly-bot/internal/logger"
	"github.com/tmuhub/tmu-weekly-bot/internal/metrics"
	"github.com/tmuhub/tmu-weekly-bot/internal/qa"
	"github.com/tmuhub/tmu-weekly-bot/internal/rag"
	"github.com/tmuhub/tmu-weekly-bot/internal/sentry"
	"github.com/tmuhub/tmu-weekly-bot/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.LogLevel)
	log.WithField("version", buildinfo.Version).Info("Starting TMU schedule assistant server")

	// Initialize error tracking (no-op without a DSN)
	if err := sentry.Initialize(sentry.Config{
		DSN:         cfg.SentryDSN,
		Environment: cfg.SentryEnvironment,
		Release:     buildinfo.Version,
	}); err != nil {
		log.WithError(err).Warn("Failed to initialize Sentry, error tracking disabled")
	} else if sentry.IsEnabled() {
		defer sentry.Flush(2 * time.Second)
		log.Info("Sentry error tracking enabled")
	}

	readiness := health.NewReadiness()
	ctx := context.Background()

	// Connect to the event database
	db, err := storage.New(cfg.SQLitePath())
	if err != nil {
		readiness.MarkFailed(health.ComponentStore, err)
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer func() { _ = db.Close() }()

	eventCount, err := db.CountEvents(ctx)
	if err != nil {
		readiness.MarkFailed(health.ComponentStore, err)
		log.WithError(err).Fatal("Failed to query event count")
	}
	// storage.New creates an empty database for a missing file, so a store
	// with no events means ingest never ran. Refuse to serve.
	if eventCount == 0 {
		readiness.MarkFailed(health.ComponentStore, apperrors.ErrNoEvents)
		log.WithField("path", cfg.SQLitePath()).
			Fatal("Event store is empty, run the ingest command first")
	}
	readiness.MarkReady(health.ComponentStore)
	log.WithField("path", cfg.SQLitePath()).
		WithField("events", eventCount).
		Info("Database connected")

	// Create Prometheus registry
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry.MustRegister(collectors.NewBuildInfoCollector())

	m := metrics.New(registry)
	m.SetIndexedEvents(eventCount)
	log.Info("Metrics initialized")

	// Build retrieval indexes from the stored events
	events, err := db.AllEvents(ctx)
	if err != nil {
		log.WithError(err).Fatal("Failed to load events for indexing")
	}

	var vectorDB *rag.VectorDB
	if cfg.GeminiAPIKey != "" {
		vectorDB, err = rag.NewVectorDB(cfg.DataDir, cfg.GeminiAPIKey, log)
		if err != nil {
			log.WithError(err).Warn("Failed to create vector database, semantic search disabled")
			vectorDB = nil
		} else if err := vectorDB.Initialize(ctx, events); err != nil {
			log.WithError(err).Warn("Failed to initialize vector store, semantic search disabled")
			vectorDB = nil
		} else {
			log.WithField("events", vectorDB.Count()).Info("Vector database initialized")
		}
	}

	bm25Index := rag.NewBM25Index(log)
	if len(events) > 0 {
		if err := bm25Index.Rebuild(events); err != nil {
			log.WithError(err).Warn("Failed to build BM25 index, keyword search disabled")
		} else {
			log.WithField("docs", bm25Index.Count()).Info("BM25 index built")
		}
	}

	hybridSearcher := rag.NewHybridSearcher(vectorDB, bm25Index)
	if hybridSearcher.IsEnabled() {
		readiness.MarkReady(health.ComponentIndex)
		log.WithFields(map[string]any{
			"vector_enabled": vectorDB.IsEnabled(),
			"bm25_enabled":   bm25Index.IsEnabled(),
		}).Info("Hybrid searcher created")
	} else {
		readiness.MarkFailed(health.ComponentIndex, errors.New("no retrieval index available"))
		log.Warn("No retrieval index available, RAG fallback will return canned replies")
	}

	// Wire the LLM providers: Gemini primary, Groq fallback
	generator := buildGenerator(ctx, cfg, m, log)
	if generator != nil {
		readiness.MarkReady(health.ComponentLLM)
		defer func() { _ = generator.Close() }()
	} else {
		readiness.MarkFailed(health.ComponentLLM, apperrors.ErrLLMUnavailable)
		log.Warn("No LLM provider configured, open-ended questions get canned replies")
	}

	svc := qa.NewService(db,
		instrumentSearcher(hybridSearcher, m),
		instrumentGenerator(generator, m),
		log)
	log.Info("QA service created")

	// Set Gin mode based on log level
	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if sentry.IsEnabled() {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(requestIDMiddleware())
	router.Use(securityHeadersMiddleware())
	router.Use(loggingMiddleware(log))
	router.Use(globalRateLimitMiddleware(cfg.GlobalRateLimitRPS, m))

	setupRoutes(router, svc, readiness, registry, cfg, m, log)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 90 * time.Second, // RAG answers can take a while end to end
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.WithField("port", cfg.Port).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	if vectorDB != nil {
		if err := vectorDB.Close(); err != nil {
			log.WithError(err).Error("Failed to close vector database")
		}
	}

	if err := db.Close(); err != nil {
		log.WithError(err).Error("Failed to close database")
	}

	log.Info("Server stopped")
}

// buildGenerator assembles the text generator stack from the configured
// providers. Returns nil when no provider is usable.
func buildGenerator(ctx context.Context, cfg *config.Config, m *metrics.Metrics, log *logger.Logger) genai.TextGenerator {
	var primary genai.TextGenerator
	if g, err := genai.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel); err != nil {
		log.WithError(err).Warn("Failed to create Gemini generator")
	} else if g != nil {
		primary = g
		log.WithField("model", cfg.GeminiModel).Info("Gemini generator created")
	}

	var secondary genai.TextGenerator
	if g := genai.NewGroqGenerator(cfg.GroqAPIKey, cfg.GroqModel); g != nil {
		secondary = g
		log.WithField("model", cfg.GroqModel).Info("Groq fallback generator created")
	}

	switch {
	case primary != nil && secondary != nil:
		fb := genai.NewFallbackGenerator(primary, secondary, genai.DefaultRetryConfig())
		fb.OnFallback(func(from, to genai.Provider) {
			m.RecordLLMFallback(string(from), string(to))
			log.WithField("from", string(from)).WithField("to", string(to)).
				Warn("LLM provider fallback triggered")
		})
		return fb
	case primary != nil:
		return primary
	case secondary != nil:
		return secondary
	default:
		return nil
	}
}
