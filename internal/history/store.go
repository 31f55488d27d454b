// Package history persists workspace status transitions to SQLite so the
// UI can show what an agent was doing before the current run.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starburst997/workspaces-list/internal/monitor"
)

// Transition is one recorded status change for a workspace.
type Transition struct {
	ID          int64          `json:"id"`
	Workspace   string         `json:"workspace"`
	FromStatus  monitor.Status `json:"from_status"`
	ToStatus    monitor.Status `json:"to_status"`
	JustifiedAt time.Time      `json:"justified_at,omitzero"`
	RecordedAt  time.Time      `json:"recorded_at"`
}

// Store handles SQLite operations for transitions. It implements
// monitor.TransitionRecorder.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the transition database at dbPath.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return store, nil
}

// DefaultPath returns the standard location of the transition database.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "workspaces-list", "history.db")
	}
	return filepath.Join(dir, "workspaces-list", "history.db")
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) initSchema() error {
	schema := `
CREATE TABLE IF NOT EXISTS transitions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    workspace TEXT NOT NULL,
    from_status TEXT NOT NULL,
    to_status TEXT NOT NULL,
    justified_at TEXT,
    recorded_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transitions_workspace ON transitions(workspace, id DESC);
`
	_, err := s.db.Exec(schema)
	return err
}

// RecordTransition inserts one status change. from is the zero StatusInfo
// for a workspace's first observation; that is stored as an empty
// from_status.
func (s *Store) RecordTransition(workspace string, from, to monitor.StatusInfo, at time.Time) error {
	var justifiedAt any
	if !to.JustifiedAt.IsZero() {
		justifiedAt = to.JustifiedAt.UTC().Format(time.RFC3339)
	}
	_, err := s.db.Exec(`
		INSERT INTO transitions (workspace, from_status, to_status, justified_at, recorded_at)
		VALUES (?, ?, ?, ?, ?)
	`, workspace, string(from.Status), string(to.Status),
		justifiedAt, at.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert transition: %w", err)
	}
	return nil
}

// Recent returns the latest transitions for a workspace, newest first.
func (s *Store) Recent(workspace string, limit int) ([]Transition, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT id, workspace, from_status, to_status, justified_at, recorded_at
		FROM transitions
		WHERE workspace = ?
		ORDER BY id DESC
		LIMIT ?
	`, workspace, limit)
	if err != nil {
		return nil, fmt.Errorf("query transitions: %w", err)
	}
	defer rows.Close()

	var transitions []Transition
	for rows.Next() {
		var tr Transition
		var from, to, recordedAt string
		var justifiedAt sql.NullString

		if err := rows.Scan(&tr.ID, &tr.Workspace, &from, &to, &justifiedAt, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		tr.FromStatus = monitor.Status(from)
		tr.ToStatus = monitor.Status(to)
		tr.RecordedAt, _ = time.Parse(time.RFC3339, recordedAt)
		if justifiedAt.Valid {
			tr.JustifiedAt, _ = time.Parse(time.RFC3339, justifiedAt.String)
		}
		transitions = append(transitions, tr)
	}
	return transitions, rows.Err()
}

// Prune deletes transitions recorded more than keep ago.
func (s *Store) Prune(keep time.Duration) error {
	cutoff := time.Now().Add(-keep).UTC().Format(time.RFC3339)
	_, err := s.db.Exec(`DELETE FROM transitions WHERE recorded_at < ?`, cutoff)
	if err != nil {
		return fmt.Errorf("prune transitions: %w", err)
	}
	return nil
}
