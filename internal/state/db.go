// Package state provides SQLite-based persistence for Foreman: goals,
// analyses, worker specifications, tasks, outputs, reviews, and token usage.
package state

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps an SQLite database connection with Foreman-specific operations.
type DB struct {
	conn *sql.DB
	path string
	mu   sync.RWMutex
}

// DefaultDBPath returns the path to the default Foreman database.
func DefaultDBPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, _ := os.UserHomeDir()
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "foreman", "foreman.db")
}

// Open opens an SQLite database at the given path.
// It creates the parent directories if they don't exist.
// WAL mode is enabled for concurrent reads.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return &DB{conn: conn, path: path}, nil
}

// OpenDefault opens the default Foreman database.
func OpenDefault() (*DB, error) {
	return Open(DefaultDBPath())
}

// Close closes the database connection.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.conn.Close()
}

// Path returns the path to the database file.
func (db *DB) Path() string {
	return db.path
}

// Migrate applies all pending schema migrations.
func (db *DB) Migrate() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	var currentVersion int
	row := db.conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("get schema version: %w", err)
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migrationV1Goals},
		{2, migrationV2Workers},
		{3, migrationV3Tasks},
		{4, migrationV4Usage},
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		tx, err := db.conn.Begin()
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}

		if _, err := tx.Exec(m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration v%d: %w", m.version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", m.version); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration v%d: %w", m.version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// Migration SQL statements
const migrationV1Goals = `
CREATE TABLE IF NOT EXISTS goals (
	id TEXT PRIMARY KEY,
	team_id TEXT NOT NULL,
	text TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_goals_team_id ON goals(team_id);

CREATE TABLE IF NOT EXISTS goal_analyses (
	id TEXT PRIMARY KEY,
	goal_id TEXT NOT NULL,
	team_id TEXT NOT NULL,
	core_objective TEXT NOT NULL,
	subtasks TEXT NOT NULL,
	required_specializations TEXT NOT NULL,
	estimated_timeline_hours REAL NOT NULL DEFAULT 0,
	potential_blockers TEXT,
	success_criteria TEXT NOT NULL,
	prompt_version TEXT,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_goal_analyses_goal_id ON goal_analyses(goal_id);
CREATE INDEX IF NOT EXISTS idx_goal_analyses_team_id ON goal_analyses(team_id);
`

const migrationV2Workers = `
CREATE TABLE IF NOT EXISTS worker_specs (
	id TEXT PRIMARY KEY,
	team_id TEXT NOT NULL,
	specialization TEXT NOT NULL,
	skills TEXT NOT NULL,
	responsibilities TEXT NOT NULL,
	required_tools TEXT,
	assigned_worker_id TEXT,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_worker_specs_team_id ON worker_specs(team_id);
`

const migrationV3Tasks = `
CREATE TABLE IF NOT EXISTS tasks (
	id TEXT PRIMARY KEY,
	goal_id TEXT NOT NULL,
	team_id TEXT NOT NULL,
	title TEXT NOT NULL,
	description TEXT,
	acceptance_criteria TEXT NOT NULL,
	required_skills TEXT,
	complexity TEXT NOT NULL DEFAULT 'medium',
	status TEXT NOT NULL DEFAULT 'pending',
	ordinal INTEGER NOT NULL DEFAULT 0,
	assigned_worker_id TEXT,
	round INTEGER NOT NULL DEFAULT 1,
	execution_failures INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	completed_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_tasks_goal_id ON tasks(goal_id);
CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);

CREATE TABLE IF NOT EXISTS task_outputs (
	id TEXT PRIMARY KEY,
	task_id TEXT NOT NULL,
	worker_id TEXT NOT NULL,
	content TEXT NOT NULL,
	artifacts TEXT,
	round INTEGER NOT NULL,
	produced_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_task_outputs_task_id ON task_outputs(task_id);

CREATE TABLE IF NOT EXISTS task_reviews (
	id TEXT PRIMARY KEY,
	task_id TEXT NOT NULL,
	output_id TEXT,
	round INTEGER NOT NULL,
	decision TEXT NOT NULL,
	feedback TEXT,
	forced INTEGER NOT NULL DEFAULT 0,
	prompt_version TEXT,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_task_reviews_task_id ON task_reviews(task_id);
`

const migrationV4Usage = `
CREATE TABLE IF NOT EXISTS token_usage (
	id TEXT PRIMARY KEY,
	team_id TEXT NOT NULL,
	agent_id TEXT NOT NULL,
	agent_type TEXT NOT NULL,
	model TEXT NOT NULL,
	input_tokens INTEGER NOT NULL DEFAULT 0,
	output_tokens INTEGER NOT NULL DEFAULT 0,
	cached_tokens INTEGER NOT NULL DEFAULT 0,
	cost REAL NOT NULL DEFAULT 0.0,
	request_id TEXT,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_token_usage_team_id ON token_usage(team_id);
CREATE INDEX IF NOT EXISTS idx_token_usage_created_at ON token_usage(created_at);
`

// Exec executes a query that doesn't return rows.
func (db *DB) Exec(query string, args ...any) (sql.Result, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.conn.Exec(query, args...)
}

// Query executes a query that returns rows.
func (db *DB) Query(query string, args ...any) (*sql.Rows, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.conn.Query(query, args...)
}

// QueryRow executes a query that returns at most one row.
func (db *DB) QueryRow(query string, args ...any) *sql.Row {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.conn.QueryRow(query, args...)
}

// Transaction runs the given function within a transaction.
func (db *DB) Transaction(fn func(tx *sql.Tx) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

// formatTime formats a time.Time for SQLite storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// parseTime parses a time string from SQLite.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// parseNullableTime parses a nullable time string from SQLite.
func parseNullableTime(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil
	}
	return &t
}
