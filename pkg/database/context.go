package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgx operations repositories need. It is satisfied
// by *pgxpool.Pool, *pgxpool.Conn and pgx.Tx, so repositories are agnostic to
// whether they run inside a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type contextKey string

const (
	// querierKey is the context key for the active querier (pool or tx).
	querierKey contextKey = "querier"
)

// GetQuerier retrieves the active querier from context.
// Returns nil and false if not present.
func GetQuerier(ctx context.Context) (Querier, bool) {
	q, ok := ctx.Value(querierKey).(Querier)
	return q, ok
}

// WithQuerier stores a querier in the context. Repositories resolve their
// database access through this, so wrapping a context with a transaction
// scopes every repository call under it to that transaction.
func WithQuerier(ctx context.Context, q Querier) context.Context {
	return context.WithValue(ctx, querierKey, q)
}

// WithPool binds the pool as the context's querier, for reads and writes
// outside any transaction.
func (db *DB) WithPool(ctx context.Context) context.Context {
	return WithQuerier(ctx, db.Pool)
}

// InTx runs fn inside a transaction. The context passed to fn carries the
// transaction as its querier; all repository calls made with it are atomic.
// The transaction is rolled back if fn returns an error.
func (db *DB) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(WithQuerier(ctx, tx)); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
