// Package store persists work packages, statuses and journals in SQLite.
//
// Every write runs in one transaction: the edit is applied, the roll-up
// engine reads the hierarchy through the same transaction, modified
// ancestors are written back, and the transaction commits. The pool is
// limited to a single connection, so writers are serialized and no two
// propagations can compute against the same stale leaf set.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/HendryAvila/wprollup/internal/rollup"
	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// DBFile is the database file name inside the data directory.
const DBFile = "wprollup.db"

// ─── Config ──────────────────────────────────────────────────────────────────

// Config holds store configuration.
type Config struct {
	DataDir string

	// MaxDepth bounds recursive hierarchy queries.
	MaxDepth int
}

// DefaultMaxDepth is used when Config.MaxDepth is zero.
const DefaultMaxDepth = 1000

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the SQLite-backed work package store.
type Store struct {
	db     *sql.DB
	cfg    Config
	engine *rollup.Engine
	log    *zap.Logger
	hooks  storeHooks
}

// Option configures a Store.
type Option func(*Store)

// WithEngine sets the roll-up engine run on every write.
func WithEngine(e *rollup.Engine) Option {
	return func(s *Store) { s.engine = e }
}

// WithLogger sets the store logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.log = l }
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type storeHooks struct {
	exec    func(ctx context.Context, db execer, query string, args ...any) (sql.Result, error)
	beginTx func(ctx context.Context, db *sql.DB) (*sql.Tx, error)
	commit  func(tx *sql.Tx) error
}

func defaultStoreHooks() storeHooks {
	return storeHooks{
		exec: func(ctx context.Context, db execer, query string, args ...any) (sql.Result, error) {
			return db.ExecContext(ctx, query, args...)
		},
		beginTx: func(ctx context.Context, db *sql.DB) (*sql.Tx, error) {
			return db.BeginTx(ctx, nil)
		},
		commit: func(tx *sql.Tx) error {
			return tx.Commit()
		},
	}
}

func (s *Store) execHook(ctx context.Context, db execer, query string, args ...any) (sql.Result, error) {
	if s.hooks.exec != nil {
		return s.hooks.exec(ctx, db, query, args...)
	}
	return db.ExecContext(ctx, query, args...)
}

func (s *Store) beginTxHook(ctx context.Context) (*sql.Tx, error) {
	if s.hooks.beginTx != nil {
		return s.hooks.beginTx(ctx, s.db)
	}
	return s.db.BeginTx(ctx, nil)
}

func (s *Store) commitHook(tx *sql.Tx) error {
	if s.hooks.commit != nil {
		return s.hooks.commit(tx)
	}
	return tx.Commit()
}

// New creates a Store with the given configuration.
// It creates the data directory if needed, opens SQLite with WAL mode,
// and runs migrations.
func New(cfg Config, opts ...Option) (*Store, error) {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("store: create data dir: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, DBFile)
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	// One connection: pragmas below stick, and writers queue up.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("store: pragma %q: %w", p, err)
		}
	}

	s := &Store{
		db:     db,
		cfg:    cfg,
		engine: rollup.New(rollup.Policy{}),
		log:    zap.NewNop(),
		hooks:  defaultStoreHooks(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: migration: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ─── Migrations ──────────────────────────────────────────────────────────────

func (s *Store) migrate(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS statuses (
			id                 INTEGER PRIMARY KEY AUTOINCREMENT,
			name               TEXT    NOT NULL UNIQUE,
			is_closed          INTEGER NOT NULL DEFAULT 0,
			default_done_ratio INTEGER,
			created_at         TEXT    NOT NULL DEFAULT (datetime('now'))
		);

		CREATE TABLE IF NOT EXISTS work_packages (
			id                      INTEGER PRIMARY KEY AUTOINCREMENT,
			parent_id               INTEGER,
			subject                 TEXT    NOT NULL,
			status_id               INTEGER,
			done_ratio              INTEGER,
			estimated_hours         REAL,
			derived_estimated_hours REAL,
			story_points            INTEGER,
			lock_version            INTEGER NOT NULL DEFAULT 0,
			created_at              TEXT    NOT NULL DEFAULT (datetime('now')),
			updated_at              TEXT    NOT NULL DEFAULT (datetime('now')),
			FOREIGN KEY (parent_id) REFERENCES work_packages(id),
			FOREIGN KEY (status_id) REFERENCES statuses(id)
		);

		CREATE INDEX IF NOT EXISTS idx_wp_parent ON work_packages(parent_id);
		CREATE INDEX IF NOT EXISTS idx_wp_status ON work_packages(status_id);
	`
	if _, err := s.execHook(ctx, s.db, schema); err != nil {
		return err
	}

	// Journals: one row per save. Cascaded ancestor writes are stored
	// with notified = 0 so nothing downstream mails about them.
	if _, err := s.execHook(ctx, s.db, `
		CREATE TABLE IF NOT EXISTS journals (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			work_package_id INTEGER NOT NULL,
			run_id          TEXT    NOT NULL,
			notes           TEXT    NOT NULL DEFAULT '',
			changes         TEXT    NOT NULL DEFAULT '',
			is_cascade      INTEGER NOT NULL DEFAULT 0,
			notified        INTEGER NOT NULL DEFAULT 0,
			created_at      TEXT    NOT NULL DEFAULT (datetime('now')),
			FOREIGN KEY (work_package_id) REFERENCES work_packages(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_journal_wp  ON journals(work_package_id);
		CREATE INDEX IF NOT EXISTS idx_journal_run ON journals(run_id);
	`); err != nil {
		return err
	}

	return nil
}
