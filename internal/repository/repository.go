package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// Repository provides database operations
type Repository struct {
	db        *sql.DB
	txTimeout time.Duration
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB, txTimeout time.Duration) *Repository {
	if txTimeout <= 0 {
		txTimeout = 10 * time.Second
	}
	return &Repository{db: db, txTimeout: txTimeout}
}

// Tx scopes repository operations to a single database transaction. All
// mutations of the reconciliation unit (transaction, loan, ledger, user)
// go through a Tx so they commit or roll back together.
type Tx struct {
	tx *sql.Tx
}

const txAttempts = 3

// RunInTx executes fn inside a transaction with a bounded timeout.
// Serialization failures and deadlocks are retried with backoff; the unique
// ledger constraint and the pending-only transaction guard make a retried
// unit safe.
func (r *Repository) RunInTx(ctx context.Context, fn func(ctx context.Context, tx *Tx) error) error {
	var lastErr error
	for attempt := 0; attempt < txAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		lastErr = r.runOnce(ctx, fn)
		if lastErr == nil || !retryable(lastErr) {
			return lastErr
		}
	}
	return fmt.Errorf("transaction retries exhausted: %w", lastErr)
}

func (r *Repository) runOnce(ctx context.Context, fn func(ctx context.Context, tx *Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, r.txTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(ctx, &Tx{tx: tx}); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// retryable reports whether err is a transient conflict worth retrying:
// serialization_failure (40001) or deadlock_detected (40P01).
func retryable(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "40001" || pqErr.Code == "40P01"
	}
	return false
}

// isUniqueViolation reports a 23505 unique constraint error.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
