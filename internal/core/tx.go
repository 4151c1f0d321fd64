package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// lockTimeout bounds every row-lock wait. Exceeding it surfaces ErrLockTimeout;
// the caller retries with backoff, the core never blocks indefinitely.
const lockTimeout = "3s"

// beginLockingTx opens a transaction with a bounded lock_timeout applied.
func beginLockingTx(ctx context.Context, pool *pgxpool.Pool) (pgx.Tx, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%s'", lockTimeout)); err != nil {
		_ = tx.Rollback(ctx)
		return nil, fmt.Errorf("failed to set lock timeout: %w", err)
	}
	return tx, nil
}

// rollbackTx rolls back with a cancellation-proof context so that the
// compensating rollback of a half-done multi-record operation still runs to
// completion when the caller's context is already cancelled.
func rollbackTx(ctx context.Context, tx pgx.Tx) {
	_ = tx.Rollback(context.WithoutCancel(ctx))
}

// pgxQuerier is satisfied by both *pgxpool.Pool and pgx.Tx, enabling shared
// single-row query helpers.
type pgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// pgxRowQuerier is satisfied by both *pgxpool.Pool and pgx.Tx (for Query).
type pgxRowQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// resolveCompanyID looks up the internal company ID from a company code.
func resolveCompanyID(ctx context.Context, q pgxQuerier, companyCode string) (int, error) {
	var id int
	err := q.QueryRow(ctx, "SELECT id FROM companies WHERE company_code = $1", companyCode).Scan(&id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, &NotFoundError{Kind: "company", Key: companyCode}
		}
		return 0, fmt.Errorf("failed to resolve company %s: %w", companyCode, err)
	}
	return id, nil
}
