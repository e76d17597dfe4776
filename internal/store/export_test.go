package store

import (
	"context"
	"database/sql"
)

// DB exposes the internal *sql.DB for test helpers in store_test.
// This file only compiles during `go test`.
func (s *Store) DB() *sql.DB {
	return s.db
}

// SetExecHook replaces the exec hook. fail is consulted before every
// statement; a non-nil error is returned instead of running it.
func (s *Store) SetExecHook(fail func(query string, args ...any) error) {
	s.hooks.exec = func(ctx context.Context, db execer, query string, args ...any) (sql.Result, error) {
		if err := fail(query, args...); err != nil {
			return nil, err
		}
		return db.ExecContext(ctx, query, args...)
	}
}

// SetBeginHook makes every transaction start fail with err.
func (s *Store) SetBeginHook(err error) {
	s.hooks.beginTx = func(context.Context, *sql.DB) (*sql.Tx, error) {
		return nil, err
	}
}

// SetCommitHook makes every commit fail with err. The transaction is
// left open and rolled back by the caller.
func (s *Store) SetCommitHook(err error) {
	s.hooks.commit = func(*sql.Tx) error {
		return err
	}
}
