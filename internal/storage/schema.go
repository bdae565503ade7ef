package storage

import (
	"database/sql"
	"fmt"
)

// InitSchema creates the events table and its lookup indexes.
// Note: WAL mode and pragmas are configured in db.go.
func InitSchema(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY,
		text TEXT NOT NULL,
		date TEXT,
		dow TEXT,
		start_time TEXT,
		end_time TEXT,
		location TEXT,
		participants TEXT,
		title TEXT NOT NULL,
		raw TEXT NOT NULL
	)`
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to create events table: %w", err)
	}

	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_events_date ON events(date)`); err != nil {
		return fmt.Errorf("failed to create date index: %w", err)
	}

	return nil
}
