// Package sqlite is the embedded single-node backend for sessions,
// messages and registrations.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS conversation_sessions (
	customer_id  TEXT PRIMARY KEY,
	dialog_state TEXT NOT NULL,
	payload      TEXT NOT NULL,
	version      INTEGER NOT NULL,
	updated_at   TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS conversation_messages (
	seq              INTEGER PRIMARY KEY AUTOINCREMENT,
	id               TEXT NOT NULL UNIQUE,
	customer_id      TEXT NOT NULL,
	text             TEXT NOT NULL,
	is_from_customer INTEGER NOT NULL,
	created_at       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_conversation_messages_customer
	ON conversation_messages (customer_id, created_at, seq);
CREATE TABLE IF NOT EXISTS customer_registrations (
	customer_id   TEXT PRIMARY KEY,
	phone_sealed  TEXT NOT NULL,
	registered_at TEXT NOT NULL,
	updated_at    TEXT NOT NULL
);`

// Open opens (creating if needed) the database at path and applies the schema
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// one writer; also keeps ":memory:" on a single shared connection
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply sqlite schema: %w", err)
	}
	return db, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
