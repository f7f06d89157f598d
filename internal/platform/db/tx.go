package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type contextKey string

const (
	DBConnKey contextKey = "db_conn"
	DBTxKey   contextKey = "db_tx"
	PoolKey   contextKey = "db_pool"
)

// WithPool stores the connection pool in the context so WithTx can begin
// transactions without an explicit pool argument.
func WithPool(ctx context.Context, pool *pgxpool.Pool) context.Context {
	return context.WithValue(ctx, PoolKey, pool)
}

// PoolFromContext retrieves the connection pool from the context.
func PoolFromContext(ctx context.Context) *pgxpool.Pool {
	pool, _ := ctx.Value(PoolKey).(*pgxpool.Pool)
	return pool
}

// WithTx begins a transaction on the context's pool (or dedicated connection)
// and returns a derived context carrying the transaction. Repositories pick
// the transaction up via TxFromContext, so every statement issued under the
// returned context joins the same transaction. The caller owns commit and
// rollback.
func WithTx(ctx context.Context) (context.Context, pgx.Tx, error) {
	if conn := ConnFromContext(ctx); conn != nil {
		tx, err := conn.Begin(ctx)
		if err != nil {
			return ctx, nil, fmt.Errorf("begin transaction: %w", err)
		}
		return context.WithValue(ctx, DBTxKey, tx), tx, nil
	}
	pool := PoolFromContext(ctx)
	if pool == nil {
		return ctx, nil, fmt.Errorf("no database connection in context")
	}
	tx, err := pool.Begin(ctx)
	if err != nil {
		return ctx, nil, fmt.Errorf("begin transaction: %w", err)
	}
	return context.WithValue(ctx, DBTxKey, tx), tx, nil
}

// TxFromContext retrieves the active transaction from the context, if any.
func TxFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(DBTxKey).(pgx.Tx)
	return tx
}

// ConnFromContext retrieves a dedicated database connection from the context.
func ConnFromContext(ctx context.Context) *pgxpool.Conn {
	conn, _ := ctx.Value(DBConnKey).(*pgxpool.Conn)
	return conn
}
