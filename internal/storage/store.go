// Package storage implements the task store adapter on SQLite, providing the
// keyed CRUD primitives the engine in internal/core runs against.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	_ "modernc.org/sqlite"

	"github.com/valter-silva-au/agent-backlog/internal/core"
)

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx, so
// every store method works both standalone and transaction-bound.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements core.Store using SQLite.
type Store struct {
	db *sql.DB
	q  querier
}

// NewStore creates a SQLite-backed store at the given path, creating parent
// directories if needed. Enables WAL mode and a busy timeout, and initializes
// the schema.
func NewStore(ctx context.Context, dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	connStr := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", dbPath)
	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	return initStore(ctx, db)
}

var memoryStoreSeq atomic.Int64

// NewMemoryStore creates an in-memory store for testing. A shared cache lets
// multiple connections see the same database; the name is unique per call so
// independent stores never see each other's data.
func NewMemoryStore(ctx context.Context) (*Store, error) {
	connStr := fmt.Sprintf("file:memdb%d?mode=memory&cache=shared", memoryStoreSeq.Add(1))
	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening memory database: %w", err)
	}
	return initStore(ctx, db)
}

func initStore(ctx context.Context, db *sql.DB) (*Store, error) {
	// Foreign keys need a PRAGMA with modernc.org/sqlite; the connection
	// string form is not supported.
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	// A single connection serializes writers; the engine's transactions are
	// short read-modify-write sequences.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, q: db}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return s, nil
}

// initSchema creates all required tables and indexes if they don't exist.
func (s *Store) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS projects (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		prefix TEXT NOT NULL UNIQUE,
		description TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tasks (
		task_id TEXT PRIMARY KEY,
		project_id INTEGER NOT NULL,
		type TEXT NOT NULL,
		name TEXT NOT NULL,
		status TEXT NOT NULL,
		priority INTEGER NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		action TEXT NOT NULL,
		files_exclusive TEXT NOT NULL DEFAULT '[]',
		files_readonly TEXT NOT NULL DEFAULT '[]',
		files_forbidden TEXT NOT NULL DEFAULT '[]',
		verify TEXT NOT NULL DEFAULT '[]',
		done_criteria TEXT NOT NULL DEFAULT '[]',
		execution_strategy TEXT NOT NULL DEFAULT '',
		checkpoint_type TEXT NOT NULL DEFAULT '',
		depends_on TEXT NOT NULL DEFAULT '[]',
		blocks TEXT NOT NULL DEFAULT '[]',
		parent_id TEXT NOT NULL DEFAULT '',
		blocker_reason TEXT,
		blocker_since TEXT,
		blocker_needs TEXT,
		completed_at TEXT,
		summary TEXT,
		commits TEXT NOT NULL DEFAULT '[]',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		FOREIGN KEY (project_id) REFERENCES projects(id)
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
	CREATE INDEX IF NOT EXISTS idx_tasks_parent ON tasks(parent_id);
	CREATE INDEX IF NOT EXISTS idx_tasks_project_type ON tasks(project_id, type);
	`

	_, err := s.q.ExecContext(ctx, schema)
	return err
}

// InTx runs fn against a transaction-bound view of the store. The
// transaction commits only if fn returns nil; any failure rolls back every
// write fn made.
func (s *Store) InTx(ctx context.Context, fn func(core.Store) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(&Store{db: s.db, q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
