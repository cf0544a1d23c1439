// Package spool queues captured attendance frames locally when the
// service is unreachable, so a kiosk keeps working through an outage.
// Queued frames are replayed in capture order once connectivity returns.
package spool

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Entry is one captured frame waiting for submission.
type Entry struct {
	ID         string
	Image      []byte
	CapturedAt time.Time
	Attempts   int
}

// Spool is a durable on-disk submission queue backed by sqlite.
type Spool struct {
	db *sql.DB
}

// Open opens or creates the spool database at the given path.
func Open(dbPath string) (*Spool, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("could not create spool directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("could not open spool db: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("could not ping spool db: %w", err)
	}
	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("could not migrate spool db: %w", err)
	}
	return &Spool{db: db}, nil
}

func migrate(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS pending_marks (
		id          TEXT PRIMARY KEY,
		image       BLOB NOT NULL,
		captured_at DATETIME NOT NULL,
		attempts    INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_pending_captured ON pending_marks(captured_at);
	`
	_, err := db.Exec(schema)
	return err
}

func (s *Spool) Close() error { return s.db.Close() }

// Add queues one captured frame and returns its entry id.
func (s *Spool) Add(ctx context.Context, image []byte, capturedAt time.Time) (string, error) {
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pending_marks (id, image, captured_at) VALUES (?, ?, ?)`,
		id, image, capturedAt.UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("could not queue frame: %w", err)
	}
	return id, nil
}

// Pending lists queued entries in capture order.
func (s *Spool) Pending(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, image, captured_at, attempts FROM pending_marks ORDER BY captured_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("could not list pending frames: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Image, &e.CapturedAt, &e.Attempts); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the number of queued entries.
func (s *Spool) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pending_marks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("could not count pending frames: %w", err)
	}
	return n, nil
}

// Remove deletes a submitted entry.
func (s *Spool) Remove(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM pending_marks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("could not remove frame %s: %w", id, err)
	}
	return nil
}

// MarkAttempt bumps the retry counter of an entry that failed to submit.
func (s *Spool) MarkAttempt(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE pending_marks SET attempts = attempts + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("could not record attempt for %s: %w", id, err)
	}
	return nil
}
