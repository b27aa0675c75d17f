// Package sqlite implements the embedded SQLite store used for local
// deployments and in-process tests. Foreign keys are enforced on every
// connection.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lyzr/accounts/common/erasure"
	"github.com/lyzr/accounts/common/logger"
)

// Store is an erasure.Store over a single-connection SQLite pool
type Store struct {
	db   *sql.DB
	path string
	log  *logger.Logger
}

var _ erasure.Store = (*Store)(nil)

// Open opens (creating if needed) the database file at path
func Open(ctx context.Context, path string, log *logger.Logger) (*Store, error) {
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// One writer at a time; a transaction owns the only connection
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	log.Info("sqlite database opened", "path", path)

	return &Store{
		db:   db,
		path: path,
		log:  log,
	}, nil
}

// DB returns the underlying handle
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database
func (s *Store) Close() error {
	s.log.Info("closing sqlite database", "path", s.path)
	return s.db.Close()
}

// Health pings the database
func (s *Store) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return s.db.PingContext(ctx)
}

// Exec runs a statement and returns rows affected
func (s *Store) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	return execRows(s.db.ExecContext(ctx, query, args...))
}

// Query runs a query outside any transaction
func (s *Store) Query(ctx context.Context, query string, args ...any) (erasure.Rows, error) {
	r, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return rows{r}, nil
}

// Begin opens a transaction on the pool's connection
func (s *Store) Begin(ctx context.Context) (erasure.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqlTx{tx: tx}, nil
}

// Dialect returns the SQLite dialect
func (s *Store) Dialect() erasure.Dialect {
	return Dialect{}
}

type sqlTx struct {
	tx *sql.Tx
}

func (t *sqlTx) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	return execRows(t.tx.ExecContext(ctx, query, args...))
}

func (t *sqlTx) Query(ctx context.Context, query string, args ...any) (erasure.Rows, error) {
	r, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return rows{r}, nil
}

func (t *sqlTx) Commit(_ context.Context) error {
	return t.tx.Commit()
}

func (t *sqlTx) Rollback(_ context.Context) error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

// rows drops the error from sql.Rows.Close to match pgx.Rows
type rows struct {
	*sql.Rows
}

func (r rows) Close() {
	_ = r.Rows.Close()
}

func execRows(res sql.Result, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
