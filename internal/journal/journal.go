// Package journal persists a local record of dispatched buy actions in a
// SQLite database so order activity survives process restarts.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"aibroker/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

const schema = `
CREATE TABLE IF NOT EXISTS action_journal (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	name      TEXT NOT NULL,
	symbol    TEXT NOT NULL DEFAULT '',
	quantity  INTEGER NOT NULL DEFAULT 0,
	status    TEXT NOT NULL,
	order_id  TEXT NOT NULL DEFAULT '',
	message   TEXT NOT NULL DEFAULT '',
	at        TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_action_journal_at ON action_journal(at);
`

// Journal is a SQLite-backed action log.
type Journal struct {
	db *sql.DB
}

// Open opens (or creates) the journal database at dbPath and ensures the
// schema exists.
func Open(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening journal db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating journal schema: %w", err)
	}
	return &Journal{db: db}, nil
}

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

// RecordAction appends one dispatched action to the journal.
func (j *Journal) RecordAction(ctx context.Context, rec domain.ActionRecord) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO action_journal (name, symbol, quantity, status, order_id, message, at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.Name, rec.Symbol, rec.Quantity, rec.Status, rec.OrderID, rec.Message,
		rec.At.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting action record: %w", err)
	}
	return nil
}

// ListRecent returns the most recent records, newest first, up to limit.
func (j *Journal) ListRecent(ctx context.Context, limit int) ([]domain.ActionRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT name, symbol, quantity, status, order_id, message, at
		 FROM action_journal ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying action journal: %w", err)
	}
	defer rows.Close()

	var records []domain.ActionRecord
	for rows.Next() {
		var rec domain.ActionRecord
		var at string
		if err := rows.Scan(&rec.Name, &rec.Symbol, &rec.Quantity, &rec.Status, &rec.OrderID, &rec.Message, &at); err != nil {
			return nil, fmt.Errorf("scanning action record: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return nil, fmt.Errorf("parsing record timestamp %q: %w", at, err)
		}
		rec.At = ts
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating action records: %w", err)
	}
	return records, nil
}
