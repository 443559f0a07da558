package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/pesalink/loan-service/internal/models"
)

const loanColumns = `id, loan_id, user_id, amount, disbursed_amount, interest_rate,
		repayment_period_days, amount_due, amount_paid, outstanding_amount, due_date,
		status, network, approved_by, approved_at, rejected_reason, rejected_at,
		disbursed_by, disbursed_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLoan(row rowScanner) (*models.Loan, error) {
	loan := &models.Loan{}
	var rejectedReason sql.NullString
	err := row.Scan(&loan.ID, &loan.LoanID, &loan.UserID, &loan.Amount, &loan.DisbursedAmount,
		&loan.InterestRate, &loan.RepaymentPeriodDays, &loan.AmountDue, &loan.AmountPaid,
		&loan.OutstandingAmount, &loan.DueDate, &loan.Status, &loan.Network,
		&loan.ApprovedBy, &loan.ApprovedAt, &rejectedReason, &loan.RejectedAt,
		&loan.DisbursedBy, &loan.DisbursedAt, &loan.CreatedAt, &loan.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan loan: %w", err)
	}
	loan.RejectedReason = rejectedReason.String
	return loan, nil
}

// CreateLoan inserts a new loan in REQUESTED status.
func (t *Tx) CreateLoan(ctx context.Context, loan *models.Loan) error {
	query := `
		INSERT INTO loans.loans (loan_id, user_id, amount, interest_rate,
			repayment_period_days, status, network, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err := t.tx.QueryRowContext(ctx, query, loan.LoanID, loan.UserID, loan.Amount,
		loan.InterestRate, loan.RepaymentPeriodDays, loan.Status, loan.Network).
		Scan(&loan.ID, &loan.CreatedAt, &loan.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create loan: %w", err)
	}
	return nil
}

// FindLoanByLoanID retrieves a loan by its business identifier.
func (r *Repository) FindLoanByLoanID(ctx context.Context, loanID string) (*models.Loan, error) {
	query := fmt.Sprintf(`SELECT %s FROM loans.loans WHERE loan_id = $1`, loanColumns)
	return scanLoan(r.db.QueryRowContext(ctx, query, loanID))
}

// FindLoanForUpdate retrieves a loan row under a pessimistic lock.
func (t *Tx) FindLoanForUpdate(ctx context.Context, loanID string) (*models.Loan, error) {
	query := fmt.Sprintf(`SELECT %s FROM loans.loans WHERE loan_id = $1 FOR UPDATE`, loanColumns)
	return scanLoan(t.tx.QueryRowContext(ctx, query, loanID))
}

// FindLoanByIDForUpdate retrieves a loan by internal id under a lock.
func (t *Tx) FindLoanByIDForUpdate(ctx context.Context, id int64) (*models.Loan, error) {
	query := fmt.Sprintf(`SELECT %s FROM loans.loans WHERE id = $1 FOR UPDATE`, loanColumns)
	return scanLoan(t.tx.QueryRowContext(ctx, query, id))
}

// UpdateLoan persists the loan's mutable lifecycle fields.
func (t *Tx) UpdateLoan(ctx context.Context, loan *models.Loan) error {
	query := `
		UPDATE loans.loans
		SET disbursed_amount = $1, amount_due = $2, amount_paid = $3,
			outstanding_amount = $4, due_date = $5, status = $6,
			approved_by = $7, approved_at = $8, rejected_reason = NULLIF($9, ''),
			rejected_at = $10, disbursed_by = $11, disbursed_at = $12,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $13
		RETURNING updated_at`
	err := t.tx.QueryRowContext(ctx, query, loan.DisbursedAmount, loan.AmountDue,
		loan.AmountPaid, loan.OutstandingAmount, loan.DueDate, loan.Status,
		loan.ApprovedBy, loan.ApprovedAt, loan.RejectedReason, loan.RejectedAt,
		loan.DisbursedBy, loan.DisbursedAt, loan.ID).
		Scan(&loan.UpdatedAt)
	if err == sql.ErrNoRows {
		return models.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update loan: %w", err)
	}
	return nil
}

// ActiveOutstandingPrincipal sums the principal tied up by a user's active
// loans: the requested amount for not-yet-disbursed loans, the outstanding
// balance once repayment started.
func (t *Tx) ActiveOutstandingPrincipal(ctx context.Context, userID int64) (float64, error) {
	query := `
		SELECT COALESCE(SUM(CASE WHEN status IN ('REQUESTED', 'APPROVED') THEN amount
			ELSE outstanding_amount END), 0)
		FROM loans.loans
		WHERE user_id = $1 AND status IN ('REQUESTED', 'APPROVED', 'DISBURSED', 'REPAYING')`
	var total float64
	if err := t.tx.QueryRowContext(ctx, query, userID).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum outstanding principal: %w", err)
	}
	return total, nil
}

// ListLoans returns loans matching the filter, newest first.
func (r *Repository) ListLoans(ctx context.Context, filter models.LoanFilter) ([]*models.Loan, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.UserID != 0 {
		args = append(args, filter.UserID)
		conds = append(conds, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Network != "" {
		args = append(args, filter.Network)
		conds = append(conds, fmt.Sprintf("network = $%d", len(args)))
	}
	query := fmt.Sprintf(`SELECT %s FROM loans.loans`, loanColumns)
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	defer rows.Close()

	var loans []*models.Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, loan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate loans: %w", err)
	}
	return loans, nil
}

// LoanStats aggregates portfolio figures across all loans.
func (r *Repository) LoanStats(ctx context.Context) (*models.LoanStats, error) {
	stats := &models.LoanStats{CountByStatus: map[models.LoanStatus]int64{}}

	rows, err := r.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM loans.loans GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count loans by status: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			status models.LoanStatus
			count  int64
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan loan count: %w", err)
		}
		stats.CountByStatus[status] = count
		stats.TotalLoans += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate loan counts: %w", err)
	}

	err = r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(disbursed_amount), 0), COALESCE(SUM(amount_paid), 0),
			COALESCE(SUM(outstanding_amount), 0)
		FROM loans.loans
		WHERE status IN ('DISBURSED', 'REPAYING', 'COMPLETED', 'DEFAULTED')`).
		Scan(&stats.TotalDisbursed, &stats.TotalRepaid, &stats.TotalOutstanding)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate loan totals: %w", err)
	}
	if stats.TotalDisbursed > 0 {
		stats.RepaymentRate = stats.TotalRepaid / stats.TotalDisbursed
	}
	return stats, nil
}

// OverdueLoans returns active loans whose due date has passed as of now.
func (r *Repository) OverdueLoans(ctx context.Context, now time.Time) ([]*models.Loan, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM loans.loans
		WHERE status IN ('DISBURSED', 'REPAYING') AND due_date IS NOT NULL AND due_date < $1
		ORDER BY due_date`, loanColumns)
	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue loans: %w", err)
	}
	defer rows.Close()

	var loans []*models.Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, loan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate overdue loans: %w", err)
	}
	return loans, nil
}
