package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"
)

// Store manages connection history backed by SQLite. It is safe for
// concurrent use by many connection handlers.
type Store struct {
	db     *sql.DB
	path   string
	closed atomic.Bool
}

// ErrClosed is returned by Record once the store has been closed. Handlers
// still running when the daemon shuts down see it for their entries.
var ErrClosed = errors.New("history store closed")

// Open initializes or connects to the history database at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("history path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Pragmas are per connection; one connection keeps busy_timeout in effect
	// for every handler's insert.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil || s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

// Record inserts one handled connection.
func (s *Store) Record(ctx context.Context, entry Entry) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if entry.ID == "" {
		return errors.New("history entry requires an id")
	}
	var exitCode any
	if entry.ExitCode != nil {
		exitCode = *entry.ExitCode
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO connections (
            id, command, outcome, exit_code, request_bytes, response_bytes, started_at, finished_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.Command,
		string(entry.Outcome),
		exitCode,
		entry.RequestBytes,
		entry.ResponseBytes,
		formatTime(entry.StartedAt),
		formatTime(entry.FinishedAt),
	)
	if err != nil {
		if s.closed.Load() {
			return ErrClosed
		}
		return fmt.Errorf("insert history entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first. A non-positive limit
// returns every entry.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT id, command, outcome, exit_code, request_bytes, response_bytes, started_at, finished_at
        FROM connections ORDER BY started_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return entries, nil
}

// Prune deletes entries that started before cutoff and returns how many were removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM connections WHERE started_at < ?", formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune history rows affected: %w", err)
	}
	return removed, nil
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var (
		entry      Entry
		outcome    string
		exitCode   sql.NullInt64
		startedAt  string
		finishedAt string
	)
	if err := rows.Scan(
		&entry.ID,
		&entry.Command,
		&outcome,
		&exitCode,
		&entry.RequestBytes,
		&entry.ResponseBytes,
		&startedAt,
		&finishedAt,
	); err != nil {
		return Entry{}, fmt.Errorf("scan history entry: %w", err)
	}
	entry.Outcome = Outcome(outcome)
	if exitCode.Valid {
		code := int(exitCode.Int64)
		entry.ExitCode = &code
	}
	entry.StartedAt = parseTime(startedAt)
	entry.FinishedAt = parseTime(finishedAt)
	return entry, nil
}

// Timestamps are stored as fixed-width UTC strings so they sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) time.Time {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
