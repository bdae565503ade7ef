// Package main provides a data consistency check over the ingested event
// store: date formats, day-of-week agreement, time windows, and ID density.
// Run it after ingest; a non-zero exit means the store needs attention.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/tmuhub/tmu-weekly-bot/internal/config"
	"github.com/tmuhub/tmu-weekly-bot/internal/qa"
	"github.com/tmuhub/tmu-weekly-bot/internal/schedule"
	"github.com/tmuhub/tmu-weekly-bot/internal/storage"
)

// Verification results
type verifyResult struct {
	name    string
	passed  bool
	message string
}

// weekdayCanon maps Go weekdays to the canonical Vietnamese day labels.
var weekdayCanon = map[time.Weekday]string{
	time.Monday:    "thứ 2",
	time.Tuesday:   "thứ 3",
	time.Wednesday: "thứ 4",
	time.Thursday:  "thứ 5",
	time.Friday:    "thứ 6",
	time.Saturday:  "thứ 7",
	time.Sunday:    "chủ nhật",
}

func main() {
	fmt.Println("TMU Weekly Bot - Event Store Verification Tool")
	fmt.Println("==============================================")

	cfg, err := config.LoadForMode(config.IngestMode)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	db, err := storage.New(cfg.SQLitePath())
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to open database %s: %v\n", cfg.SQLitePath(), err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	events, err := db.AllEvents(context.Background())
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load events: %v\n", err)
		os.Exit(1)
	}

	results := []verifyResult{}
	results = append(results, verifyStoreNotEmpty(events))
	results = append(results, verifySequentialIDs(events))
	results = append(results, verifyDates(events))
	results = append(results, verifyDayOfWeek(events))
	results = append(results, verifyTimeWindows(events))
	results = append(results, verifyIndexText(events))

	fmt.Println("\nVerification Results:")
	fmt.Println("=====================")

	passedCount := 0
	failedCount := 0

	for _, result := range results {
		status := "FAIL"
		if result.passed {
			status = "ok  "
			passedCount++
		} else {
			failedCount++
		}
		fmt.Printf("[%s] %s: %s\n", status, result.name, result.message)
	}

	fmt.Printf("\nSummary: %d passed, %d failed\n", passedCount, failedCount)

	if failedCount > 0 {
		os.Exit(1)
	}
}

func verifyStoreNotEmpty(events []schedule.Event) verifyResult {
	return verifyResult{
		name:    "Store Not Empty",
		passed:  len(events) > 0,
		message: fmt.Sprintf("%d events", len(events)),
	}
}

// verifySequentialIDs checks IDs are dense from zero; the vector index keys
// documents by the same IDs.
func verifySequentialIDs(events []schedule.Event) verifyResult {
	for i, ev := range events {
		if ev.ID != i {
			return verifyResult{
				name:    "Sequential IDs",
				passed:  false,
				message: fmt.Sprintf("position %d holds ID %d", i, ev.ID),
			}
		}
	}
	return verifyResult{
		name:    "Sequential IDs",
		passed:  true,
		message: fmt.Sprintf("IDs 0..%d dense", len(events)-1),
	}
}

func verifyDates(events []schedule.Event) verifyResult {
	bad := 0
	for _, ev := range events {
		if ev.Date == "" {
			continue
		}
		if _, err := time.Parse("02/01/2006", ev.Date); err != nil {
			bad++
		}
	}
	return verifyResult{
		name:    "Date Format",
		passed:  bad == 0,
		message: fmt.Sprintf("%d malformed dates", bad),
	}
}

// verifyDayOfWeek cross-checks the stored day label against the calendar
// weekday of the stored date.
func verifyDayOfWeek(events []schedule.Event) verifyResult {
	mismatched := 0
	for _, ev := range events {
		if ev.Date == "" || ev.Dow == "" {
			continue
		}
		t, err := time.Parse("02/01/2006", ev.Date)
		if err != nil {
			continue // counted by the date check
		}
		if qa.CanonDow(ev.Dow) != weekdayCanon[t.Weekday()] {
			mismatched++
		}
	}
	return verifyResult{
		name:    "Day-of-Week Agreement",
		passed:  mismatched == 0,
		message: fmt.Sprintf("%d events with day label not matching their date", mismatched),
	}
}

func verifyTimeWindows(events []schedule.Event) verifyResult {
	bad := 0
	for _, ev := range events {
		if ev.Start != "" && !validClock(ev.Start) {
			bad++
			continue
		}
		if ev.End != "" && !validClock(ev.End) {
			bad++
			continue
		}
		if ev.Start != "" && ev.End != "" && ev.End < ev.Start {
			bad++
		}
	}
	return verifyResult{
		name:    "Time Windows",
		passed:  bad == 0,
		message: fmt.Sprintf("%d malformed or inverted time windows", bad),
	}
}

func verifyIndexText(events []schedule.Event) verifyResult {
	empty := 0
	for _, ev := range events {
		if ev.IndexText() == "" {
			empty++
		}
	}
	return verifyResult{
		name:    "Index Text",
		passed:  empty == 0,
		message: fmt.Sprintf("%d events with empty index text", empty),
	}
}

// validClock reports whether s is zero-padded HH:MM; zero-padded strings
// compare correctly as text.
func validClock(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil && len(s) == 5
}
