// Package history keeps a local SQLite log of delivered dictations.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// timeLayout is fixed width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Entry is one delivered dictation.
type Entry struct {
	ID         string
	CreatedAt  time.Time
	Raw        string
	Final      string
	Provider   string
	Corrected  bool
	DurationMS int64
}

// Store is a SQLite-backed transcript history.
type Store struct {
	db *sql.DB
}

// DefaultPath returns $XDG_STATE_HOME/murmur/history.db.
func DefaultPath() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); xdg != "" {
		return filepath.Join(xdg, "murmur", "history.db"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory for history: %w", err)
	}
	return filepath.Join(home, ".local", "state", "murmur", "history.db"), nil
}

// Open opens or creates the database at path. An empty path uses DefaultPath.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS transcripts (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			raw TEXT NOT NULL,
			final TEXT NOT NULL,
			provider TEXT NOT NULL,
			corrected INTEGER NOT NULL DEFAULT 0,
			duration_ms INTEGER NOT NULL DEFAULT 0
		)
	`)
	if err != nil {
		return fmt.Errorf("create transcripts table: %w", err)
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_transcripts_created_at ON transcripts(created_at)`); err != nil {
		return fmt.Errorf("create created_at index: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Append inserts entry, filling ID and CreatedAt when unset.
func (s *Store) Append(ctx context.Context, entry Entry) (Entry, error) {
	if s == nil || s.db == nil {
		return Entry{}, errors.New("history store is closed")
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	entry.CreatedAt = entry.CreatedAt.UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transcripts (id, created_at, raw, final, provider, corrected, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.CreatedAt.Format(timeLayout),
		entry.Raw,
		entry.Final,
		entry.Provider,
		entry.Corrected,
		entry.DurationMS,
	)
	if err != nil {
		return Entry{}, fmt.Errorf("insert transcript: %w", err)
	}
	return entry, nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("history store is closed")
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, raw, final, provider, corrected, duration_ms
		FROM transcripts
		ORDER BY created_at DESC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query transcripts: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var (
			entry     Entry
			createdAt any
		)
		if err := rows.Scan(&entry.ID, &createdAt, &entry.Raw, &entry.Final, &entry.Provider, &entry.Corrected, &entry.DurationMS); err != nil {
			return nil, fmt.Errorf("scan transcript: %w", err)
		}
		entry.CreatedAt, err = parseCreatedAt(createdAt)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transcripts: %w", err)
	}
	return entries, nil
}

// parseCreatedAt accepts the stored text form and the time.Time the driver
// returns for columns declared with a TIMESTAMP type.
func parseCreatedAt(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v.UTC(), nil
	case string:
		return parseCreatedAtText(v)
	case []byte:
		return parseCreatedAtText(string(v))
	default:
		return time.Time{}, fmt.Errorf("parse created_at: unexpected type %T", value)
	}
}

func parseCreatedAtText(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse created_at: %w", err)
	}
	return t.UTC(), nil
}
