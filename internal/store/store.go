package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sadopc/focusflow/internal/clock"
	_ "modernc.org/sqlite"
)

const currentVersion = 1

// Store is the client's durable local storage. It holds the key/value
// snapshots (timer, preferences, lifecycle), the local session history, and
// the tables behind offline mode.
type Store struct {
	db    *sql.DB
	clock clock.Clock
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, clock: clock.System{}}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Store, error) {
	return New(":memory:")
}

// SetClock replaces the clock used for timestamps and "today" boundaries.
func (s *Store) SetClock(c clock.Clock) {
	s.clock = c
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	var version int
	err := s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	_, err = s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (s *Store) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS local_state (
		key         TEXT PRIMARY KEY,
		value       BLOB NOT NULL,
		updated_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE TABLE IF NOT EXISTS tasks (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		title       TEXT NOT NULL,
		description TEXT,
		completed   INTEGER NOT NULL DEFAULT 0,
		sort_order  INTEGER NOT NULL DEFAULT 0,
		created_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
		updated_at  TEXT
	);

	CREATE TABLE IF NOT EXISTS pomodoro_sessions (
		id                 INTEGER PRIMARY KEY AUTOINCREMENT,
		task_id            INTEGER REFERENCES tasks(id) ON DELETE SET NULL,
		session_type       TEXT NOT NULL,
		duration           INTEGER NOT NULL,
		state              TEXT NOT NULL DEFAULT 'pending',
		started_at         TEXT,
		completed_at       TEXT,
		paused_duration_ms INTEGER NOT NULL DEFAULT 0,
		created_at         TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
		updated_at         TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_state ON pomodoro_sessions(state);

	CREATE TABLE IF NOT EXISTS session_log (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		remote_id        INTEGER,
		task_id          INTEGER,
		task_title       TEXT NOT NULL DEFAULT '',
		session_type     TEXT NOT NULL,
		outcome          TEXT NOT NULL,
		planned_seconds  INTEGER NOT NULL,
		focused_seconds  INTEGER NOT NULL,
		paused_ms        INTEGER NOT NULL DEFAULT 0,
		ended_at         TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_log_ended ON session_log(ended_at);
	`
	_, err := s.db.Exec(ddl)
	return err
}

// DefaultDBPath returns ~/.config/focusflow/focusflow.db
func DefaultDBPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "focusflow", "focusflow.db"), nil
}

// timeLayout keeps a fixed width so stored timestamps compare correctly as
// strings.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func parseNullTime(ns sql.NullString) *time.Time {
	if !ns.Valid {
		return nil
	}
	t := parseTime(ns.String)
	return &t
}
