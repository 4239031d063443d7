// Package dbx holds the narrow database seams shared by the postgres
// repositories: a DBTX satisfied by both *pgxpool.Pool and pgx.Tx, and a
// transaction beginner the services use to wrap atomic units.
package dbx

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the query surface repositories run SQL against. Both
// *pgxpool.Pool and pgx.Tx satisfy it, so a repository bound to a pool can
// be rebound to a transaction without changing its queries.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Tx is the transaction handle a service commits or rolls back. pgx.Tx
// satisfies it.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TxBeginner opens a transaction wrapping an atomic unit of work.
type TxBeginner interface {
	Begin(ctx context.Context) (Tx, error)
}

// PgxTxBeginner adapts a pgxpool.Pool to the TxBeginner interface.
type PgxTxBeginner struct {
	Pool *pgxpool.Pool
}

// Begin opens a new transaction on the underlying pool.
func (b PgxTxBeginner) Begin(ctx context.Context) (Tx, error) {
	return b.Pool.Begin(ctx)
}

// NewPgxTxBeginner creates a TxBeginner backed by the given pool.
func NewPgxTxBeginner(pool *pgxpool.Pool) PgxTxBeginner {
	return PgxTxBeginner{Pool: pool}
}
