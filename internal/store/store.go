package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"

	"flightdeck/internal/database"
)

// Querier is the query surface shared by the connection pool and an open
// transaction. Repository methods take a Querier so the same SQL runs either
// standalone or inside a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Tx is an open serializable transaction. Rollback after Commit is a no-op,
// so callers can unconditionally defer Rollback.
type Tx interface {
	Querier
	Commit() error
	Rollback() error
}

// Store executes statements and opens serializable transactions. OpenCount
// reports transactions begun but not yet committed or rolled back; the
// dangling-transaction guard asserts it is zero after every operation.
type Store interface {
	Querier
	Begin(ctx context.Context) (Tx, error)
	OpenCount() int64
}

// SQLStore is the Postgres-backed Store. database/sql has no TRANCOUNT
// equivalent, so the open-transaction gauge is kept here: this adapter is
// the only place transactions begin and end, which makes the count exact.
type SQLStore struct {
	db   *database.DB
	open atomic.Int64
}

func New(db *database.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, query, args...)
}

func (s *SQLStore) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, query, args...)
}

func (s *SQLStore) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, query, args...)
}

func (s *SQLStore) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	s.open.Add(1)
	return &sqlTx{Tx: tx, store: s}, nil
}

func (s *SQLStore) OpenCount() int64 {
	return s.open.Load()
}

type sqlTx struct {
	*sql.Tx
	store *SQLStore
	done  atomic.Bool
}

func (t *sqlTx) Commit() error {
	if t.done.CompareAndSwap(false, true) {
		t.store.open.Add(-1)
	}
	return t.Tx.Commit()
}

func (t *sqlTx) Rollback() error {
	if !t.done.CompareAndSwap(false, true) {
		return nil
	}
	t.store.open.Add(-1)
	if err := t.Tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

var _ Store = (*SQLStore)(nil)
