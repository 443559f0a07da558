package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pesalink/loan-service/internal/models"
)

const userColumns = `id, phone, email, name, credit_score, credit_limit, total_loans,
		total_repaid, repayment_status, auto_limit_enabled, version, created_at, updated_at`

func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.Phone, &user.Email, &user.Name, &user.CreditScore,
		&user.CreditLimit, &user.TotalLoans, &user.TotalRepaid, &user.RepaymentStatus,
		&user.AutoLimitEnabled, &user.Version, &user.CreatedAt, &user.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return user, nil
}

// FindUserByID retrieves a user by id
func (r *Repository) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM loans.users WHERE id = $1`, userColumns)
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

// FindUserForUpdate retrieves a user row under a pessimistic lock. Must be
// called inside the transaction that will mutate the user's credit state.
func (t *Tx) FindUserForUpdate(ctx context.Context, id int64) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM loans.users WHERE id = $1 FOR UPDATE`, userColumns)
	return scanUser(t.tx.QueryRowContext(ctx, query, id))
}

// UpdateUserCredit persists the user's mutable credit aggregate. The guard
// on version catches writers that slipped past the row lock.
func (t *Tx) UpdateUserCredit(ctx context.Context, user *models.User) error {
	query := `
		UPDATE loans.users
		SET credit_score = $1, credit_limit = $2, total_loans = $3, total_repaid = $4,
			repayment_status = $5, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $6 AND version = $7
		RETURNING version, updated_at`
	err := t.tx.QueryRowContext(ctx, query, user.CreditScore, user.CreditLimit,
		user.TotalLoans, user.TotalRepaid, user.RepaymentStatus, user.ID, user.Version).
		Scan(&user.Version, &user.UpdatedAt)
	if err == sql.ErrNoRows {
		return fmt.Errorf("user %d version conflict: %w", user.ID, models.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to update user credit state: %w", err)
	}
	return nil
}
