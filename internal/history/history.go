// Package history keeps a local journal of capture runs in SQLite.
// The journal is an operator aid for "what did we capture and when";
// the record store remains the source of truth for extracted data.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/IshaanNene/ScrapeBoard/internal/types"
)

// Entry is one capture attempt.
type Entry struct {
	RunID        string              `json:"run_id"`
	URL          string              `json:"url"`
	CanonicalURL string              `json:"canonical_url,omitempty"`
	Host         string              `json:"host"`
	Status       types.CaptureStatus `json:"status"`
	RecordID     string              `json:"record_id,omitempty"`
	Error        string              `json:"error,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
}

// Journal is a SQLite-backed capture log.
type Journal struct {
	db     *sql.DB
	logger *slog.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS captures (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	url TEXT NOT NULL,
	canonical_url TEXT NOT NULL,
	host TEXT NOT NULL,
	status TEXT NOT NULL,
	record_id TEXT NOT NULL DEFAULT '',
	error TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_captures_status ON captures(status);
CREATE INDEX IF NOT EXISTS idx_captures_host ON captures(host);
`

// Open opens or creates the journal database at path.
func Open(path string, logger *slog.Logger) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping history db: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}

	return &Journal{
		db:     db,
		logger: logger.With("component", "history"),
	}, nil
}

// Record appends one entry. A zero CreatedAt is set to the current
// time. Timestamps are stored as RFC3339Nano text so they scan back
// reliably with this driver.
func (j *Journal) Record(ctx context.Context, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO captures (run_id, url, canonical_url, host, status, record_id, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RunID, e.URL, e.CanonicalURL, e.Host, string(e.Status), e.RecordID, e.Error,
		e.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record capture: %w", err)
	}
	return nil
}

// Recent returns the latest entries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT run_id, url, canonical_url, host, status, record_id, error, created_at
		 FROM captures ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e      Entry
			status string
			raw    string
		)
		if err := rows.Scan(&e.RunID, &e.URL, &e.CanonicalURL, &e.Host, &status, &e.RecordID, &e.Error, &raw); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		e.Status = types.CaptureStatus(status)
		if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			e.CreatedAt = ts
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CountByStatus returns how many captures ended in each status.
func (j *Journal) CountByStatus(ctx context.Context) (map[types.CaptureStatus]int64, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM captures GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count history: %w", err)
	}
	defer rows.Close()

	counts := map[types.CaptureStatus]int64{}
	for rows.Next() {
		var (
			status string
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan history count: %w", err)
		}
		counts[types.CaptureStatus(status)] = n
	}
	return counts, rows.Err()
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}
