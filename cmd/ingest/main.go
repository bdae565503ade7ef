// Package main provides the schedule ingest tool. It parses a weekly
// schedule document (docx or JSONL rows), replaces the event store, and
// rebuilds the persistent vector index when a Gemini API key is configured.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/tmuhub/tmu-weekly-bot/internal/config"
	"github.com/tmuhub/tmu-weekly-bot/internal/docreader"
	apperrors "github.com/tmuhub/tmu-weekly-bot/internal/errors"
	"github.com/tmuhub/tmu-weekly-bot/internal/logger"
	"github.com/tmuhub/tmu-weekly-bot/internal/rag"
	"github.com/tmuhub/tmu-weekly-bot/internal/schedule"
	"github.com/tmuhub/tmu-weekly-bot/internal/storage"
)

// CLI flags
var (
	docxFlag  = flag.String("docx", "", "Path to the weekly schedule .docx file")
	jsonlFlag = flag.String("jsonl", "", "Path to pre-extracted table rows in JSONL format")
	yearFlag  = flag.Int("year", 0, "Year for date headers without one (0 = infer from document)")
	skipVec   = flag.Bool("skip-vector", false, "Skip rebuilding the vector index")
)

func main() {
	flag.Parse()

	// Ingest runs without LLM credentials; the vector rebuild is skipped
	// when no key is configured.
	cfg, err := config.LoadForMode(config.IngestMode)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	log.Info("Starting schedule ingest")

	if (*docxFlag == "") == (*jsonlFlag == "") {
		log.Fatal("Exactly one of -docx or -jsonl is required")
	}

	start := time.Now()
	ctx := context.Background()

	// Read table rows from the source document
	var rows []schedule.TableRow
	var texts []string
	if *docxFlag != "" {
		rows, texts, err = docreader.ReadDocx(*docxFlag)
		if err != nil {
			log.WithError(err).WithField("path", *docxFlag).Fatal("Failed to read document")
		}
		log.WithField("path", *docxFlag).WithField("rows", len(rows)).Info("Document read")
	} else {
		rows, texts, err = docreader.ReadJSONL(*jsonlFlag)
		if err != nil {
			log.WithError(err).WithField("path", *jsonlFlag).Fatal("Failed to read rows")
		}
		log.WithField("path", *jsonlFlag).WithField("rows", len(rows)).Info("Rows read")
	}

	year := *yearFlag
	if year <= 0 {
		year = schedule.InferYear(texts)
		log.WithField("year", year).Info("Year inferred from document")
	}

	// Parse rows into normalized event records
	events := schedule.ParseTable(rows, year)
	if len(events) == 0 {
		log.WithError(apperrors.ErrNoEvents).Fatal("Refusing to overwrite the store")
	}
	log.WithField("events", len(events)).Info("Events parsed")

	// Replace the event store atomically
	db, err := storage.New(cfg.SQLitePath())
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer func() { _ = db.Close() }()

	if err := db.ReplaceEvents(ctx, events); err != nil {
		log.WithError(err).Fatal("Failed to replace events")
	}
	log.WithField("path", cfg.SQLitePath()).Info("Event store replaced")

	// Rebuild the persistent vector index
	switch {
	case *skipVec:
		log.Info("Vector index rebuild skipped by flag")
	case cfg.GeminiAPIKey == "":
		log.Info("Gemini API key not configured, vector index rebuild skipped")
	default:
		vectorDB, err := rag.NewVectorDB(cfg.DataDir, cfg.GeminiAPIKey, log)
		if err != nil {
			log.WithError(err).Fatal("Failed to create vector database")
		}
		if err := vectorDB.Rebuild(ctx, events); err != nil {
			log.WithError(err).Fatal("Failed to rebuild vector index")
		}
		if err := vectorDB.Close(); err != nil {
			log.WithError(err).Error("Failed to close vector database")
		}
		log.WithField("events", len(events)).Info("Vector index rebuilt")
	}

	log.WithField("duration", time.Since(start).Round(time.Millisecond).String()).
		WithField("events", len(events)).
		Info("Ingest complete")
}
