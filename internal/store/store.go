// Package store persists users and links in SQLite.
package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/linkbio/internal/foundation/errors"
)

const inMemory = ":memory:"

// Store wraps the SQLite database. Writes are serialized through mu; SQLite
// allows a single writer and serializing here avoids SQLITE_BUSY churn.
type Store struct {
	db  *sqlx.DB
	mu  sync.Mutex
	now func() time.Time
}

// Open opens (creating if needed) the database at path. Use ":memory:" for an
// ephemeral database. Migrate must be called before use.
func Open(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite", dsn(path))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryDatabase, "open sqlite database").
			WithContext("path", path).
			Build()
	}

	if path == inMemory {
		// Every new connection to :memory: is a separate empty database.
		db.SetMaxOpenConns(1)
	}

	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

func dsn(path string) string {
	params := []string{
		"_pragma=foreign_keys(1)",
		"_pragma=busy_timeout(5000)",
		"_time_format=sqlite",
	}
	if path != inMemory {
		params = append(params, "_pragma=journal_mode(WAL)")
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + strings.Join(params, "&")
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return errors.WrapError(err, errors.CategoryDatabase, "ping database").Build()
	}
	return nil
}

// DB exposes the underlying handle for tests and maintenance commands.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

func (s *Store) userVersion(ctx context.Context) (int, error) {
	var v int
	if err := s.db.GetContext(ctx, &v, "PRAGMA user_version"); err != nil {
		return 0, err
	}
	return v, nil
}

func (s *Store) execTrans(ctx context.Context, script string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, script); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// withTx runs fn inside a write transaction, rolling back on error.
func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.WrapError(err, errors.CategoryDatabase, "begin transaction").Build()
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.WrapError(err, errors.CategoryDatabase, "commit transaction").Build()
	}
	return nil
}

func dbError(err error, op string) error {
	return errors.WrapError(err, errors.CategoryDatabase, fmt.Sprintf("%s failed", op)).Build()
}
