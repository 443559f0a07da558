package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pesalink/loan-service/internal/models"
)

const transactionColumns = `id, reference, loan_id, type, status, amount,
		payment_method, created_at, updated_at`

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	txn := &models.Transaction{}
	err := row.Scan(&txn.ID, &txn.Reference, &txn.LoanID, &txn.Type, &txn.Status,
		&txn.Amount, &txn.PaymentMethod, &txn.CreatedAt, &txn.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}
	return txn, nil
}

// CreateTransaction inserts a new pending transaction.
func (t *Tx) CreateTransaction(ctx context.Context, txn *models.Transaction) error {
	query := `
		INSERT INTO loans.transactions (reference, loan_id, type, status, amount,
			payment_method, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err := t.tx.QueryRowContext(ctx, query, txn.Reference, txn.LoanID, txn.Type,
		txn.Status, txn.Amount, txn.PaymentMethod).
		Scan(&txn.ID, &txn.CreatedAt, &txn.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// FindTransactionByReference retrieves a transaction by its reference.
func (r *Repository) FindTransactionByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM loans.transactions WHERE reference = $1`, transactionColumns)
	return scanTransaction(r.db.QueryRowContext(ctx, query, reference))
}

// FindTransactionForUpdate retrieves a transaction row under a pessimistic
// lock; the status guard against double reconciliation depends on it.
func (t *Tx) FindTransactionForUpdate(ctx context.Context, reference string) (*models.Transaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM loans.transactions WHERE reference = $1 FOR UPDATE`, transactionColumns)
	return scanTransaction(t.tx.QueryRowContext(ctx, query, reference))
}

// UpdateTransactionStatus moves a transaction to a terminal status.
func (t *Tx) UpdateTransactionStatus(ctx context.Context, txn *models.Transaction) error {
	query := `
		UPDATE loans.transactions
		SET status = $1, amount = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $3
		RETURNING updated_at`
	err := t.tx.QueryRowContext(ctx, query, txn.Status, txn.Amount, txn.ID).
		Scan(&txn.UpdatedAt)
	if err == sql.ErrNoRows {
		return models.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	return nil
}

// StalePendingTransactions returns pending repayment transactions created
// before cutoff, oldest first. The gateway poll job feeds these back into
// reconciliation.
func (r *Repository) StalePendingTransactions(ctx context.Context, cutoff time.Time, limit int) ([]*models.Transaction, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM loans.transactions
		WHERE status = 'pending' AND type = 'repayment' AND created_at < $1
		ORDER BY created_at
		LIMIT $2`, transactionColumns)
	rows, err := r.db.QueryContext(ctx, query, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending transactions: %w", err)
	}
	defer rows.Close()

	var txns []*models.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pending transactions: %w", err)
	}
	return txns, nil
}
