package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	apperrors "github.com/tmuhub/tmu-weekly-bot/internal/errors"
	"github.com/tmuhub/tmu-weekly-bot/internal/schedule"
)

// eventColumns is the shared SELECT column list matching scanEvent.
const eventColumns = `id, date, dow, start_time, end_time, location, participants, title, raw`

// ReplaceEvents deletes all stored events and inserts the given records in a
// single transaction. Record IDs are assigned sequentially from zero in slice
// order; the same IDs key the vector index. An empty slice is rejected so an
// ingest bug can never silently empty the store.
func (db *DB) ReplaceEvents(ctx context.Context, events []schedule.Event) error {
	if len(events) == 0 {
		return fmt.Errorf("refusing to replace store: %w", apperrors.ErrNoEvents)
	}

	start := time.Now()
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM events`); err != nil {
		return fmt.Errorf("clear events: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events (id, text, date, dow, start_time, end_time, location, participants, title, raw)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, ev := range events {
		ev.ID = i
		if _, err := stmt.ExecContext(ctx, ev.ID, ev.IndexText(),
			nullable(ev.Date), nullable(ev.Dow), nullable(ev.Start), nullable(ev.End),
			nullable(ev.Location), nullable(ev.Participants), ev.Title, ev.Raw); err != nil {
			return fmt.Errorf("insert event %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "event store replaced",
		"count", len(events),
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}

// EventsByDate returns all events for a dd/mm/yyyy date, ordered by start
// time with unspecified-time events last, then by id.
func (db *DB) EventsByDate(ctx context.Context, date string) ([]schedule.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE date = ?
		ORDER BY
			CASE WHEN start_time IS NULL OR TRIM(start_time) = '' THEN 1 ELSE 0 END,
			start_time,
			id
	`
	rows, err := db.conn.QueryContext(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("query events by date: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanEvents(rows)
}

// EventByID returns a single event, or nil when the id is unknown.
func (db *DB) EventByID(ctx context.Context, id int) (*schedule.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = ?`

	ev, err := scanEvent(db.conn.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query event %d: %w", id, err)
	}
	return ev, nil
}

// AllDates returns the distinct non-empty dates in the store, in insertion
// order (which is document order for a single-week ingest).
func (db *DB) AllDates(ctx context.Context) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT date FROM events
		WHERE date IS NOT NULL AND date != ''
		GROUP BY date
		ORDER BY MIN(id)
	`)
	if err != nil {
		return nil, fmt.Errorf("query dates: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan date: %w", err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// DateDow pairs a stored date with its day-of-week label.
type DateDow struct {
	Date string
	Dow  string
}

// DateDowPairs returns the distinct (date, dow) pairs with both fields set,
// used for spoken day-of-week lookup.
func (db *DB) DateDowPairs(ctx context.Context) ([]DateDow, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT date, dow FROM events
		WHERE date IS NOT NULL AND date != '' AND dow IS NOT NULL AND dow != ''
		GROUP BY date, dow
		ORDER BY MIN(id)
	`)
	if err != nil {
		return nil, fmt.Errorf("query date/dow pairs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var pairs []DateDow
	for rows.Next() {
		var p DateDow
		if err := rows.Scan(&p.Date, &p.Dow); err != nil {
			return nil, fmt.Errorf("scan date/dow pair: %w", err)
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}

// AllEvents returns every stored event ordered by id. Used to rebuild the
// lexical index at startup.
func (db *DB) AllEvents(ctx context.Context) ([]schedule.Event, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT `+eventColumns+` FROM events ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query all events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanEvents(rows)
}

// CountEvents returns the number of stored events.
func (db *DB) CountEvents(ctx context.Context) (int, error) {
	var count int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*schedule.Event, error) {
	var ev schedule.Event
	var date, dow, start, end, location, participants sql.NullString

	err := row.Scan(&ev.ID, &date, &dow, &start, &end, &location, &participants, &ev.Title, &ev.Raw)
	if err != nil {
		return nil, err
	}

	ev.Date = date.String
	ev.Dow = dow.String
	ev.Start = start.String
	ev.End = end.String
	ev.Location = location.String
	ev.Participants = participants.String
	return &ev, nil
}

func scanEvents(rows *sql.Rows) ([]schedule.Event, error) {
	var events []schedule.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *ev)
	}
	return events, rows.Err()
}

// nullable converts an empty string to NULL so absent fields stay absent.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
