package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pesalink/loan-service/internal/models"
)

// CreateLoan validates the requested amount against the user's available
// credit and records a new loan in REQUESTED status. The available credit
// check and the insert share one transaction so concurrent requests cannot
// both pass the check.
func (s *Service) CreateLoan(ctx context.Context, userID int64, amount float64, interestRate float64, periodDays int, network string) (*models.Loan, error) {
	if amount <= 0 || interestRate < 0 || interestRate >= 100 || periodDays <= 0 {
		return nil, fmt.Errorf("invalid loan request: %w", models.ErrValidation)
	}

	loan := &models.Loan{
		LoanID:              "LN-" + uuid.NewString(),
		UserID:              userID,
		Amount:              amount,
		InterestRate:        interestRate,
		RepaymentPeriodDays: periodDays,
		Status:              models.LoanRequested,
		Network:             network,
	}

	err := s.store.RunInTx(ctx, func(ctx context.Context, tx StoreTx) error {
		user, err := tx.FindUserForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		outstanding, err := tx.ActiveOutstandingPrincipal(ctx, userID)
		if err != nil {
			return err
		}
		if amount > user.CreditLimit-outstanding {
			return fmt.Errorf("requested %.2f exceeds available credit %.2f: %w",
				amount, user.CreditLimit-outstanding, models.ErrCreditLimitExceeded)
		}
		return tx.CreateLoan(ctx, loan)
	})
	if err != nil {
		return nil, err
	}

	s.log.Infof("Loan %s requested by user %d: %.2f via %s", loan.LoanID, userID, amount, network)
	return loan, nil
}

// ApproveLoan moves a REQUESTED loan to APPROVED, stamping the approver.
func (s *Service) ApproveLoan(ctx context.Context, loanID string, approverID int64) (*models.Loan, error) {
	var loan *models.Loan
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx StoreTx) error {
		var err error
		loan, err = tx.FindLoanForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		if err := loan.Approve(approverID, s.now()); err != nil {
			return err
		}
		return tx.UpdateLoan(ctx, loan)
	})
	if err != nil {
		return nil, err
	}

	s.log.Infof("Loan %s approved by admin %d", loanID, approverID)
	return loan, nil
}

// RejectLoan moves a REQUESTED loan to REJECTED with a reason. Terminal.
func (s *Service) RejectLoan(ctx context.Context, loanID string, reason string) (*models.Loan, error) {
	var loan *models.Loan
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx StoreTx) error {
		var err error
		loan, err = tx.FindLoanForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		if err := loan.Reject(reason, s.now()); err != nil {
			return err
		}
		return tx.UpdateLoan(ctx, loan)
	})
	if err != nil {
		return nil, err
	}

	s.log.Infof("Loan %s rejected: %s", loanID, reason)
	return loan, nil
}

// DisburseLoan moves an APPROVED loan to DISBURSED, seeds its repayment
// bookkeeping, opens the pending disbursement transaction and bumps the
// user's borrowing totals. The borrower is notified after commit.
func (s *Service) DisburseLoan(ctx context.Context, loanID string, actorID int64) (*models.Loan, error) {
	var (
		loan *models.Loan
		user *models.User
	)
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx StoreTx) error {
		var err error
		loan, err = tx.FindLoanForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		if err := loan.Disburse(actorID, s.now()); err != nil {
			return err
		}
		if err := tx.UpdateLoan(ctx, loan); err != nil {
			return err
		}

		txn := &models.Transaction{
			Reference:     uuid.NewString(),
			LoanID:        loan.ID,
			Type:          models.TransactionDisbursement,
			Status:        models.TransactionPending,
			Amount:        loan.DisbursedAmount,
			PaymentMethod: loan.Network,
		}
		if err := tx.CreateTransaction(ctx, txn); err != nil {
			return err
		}

		user, err = tx.FindUserForUpdate(ctx, loan.UserID)
		if err != nil {
			return err
		}
		user.TotalLoans += loan.Amount
		if user.RepaymentStatus == models.RepaymentNone {
			user.RepaymentStatus = models.RepaymentPending
		}
		return tx.UpdateUserCredit(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	s.log.Infof("Loan %s disbursed by admin %d: %.2f to user %d", loanID, actorID, loan.DisbursedAmount, loan.UserID)
	s.notify(func() error {
		return s.notifier.SendDisbursementNotice(user.Email, user.Name, loan.LoanID, loan.DisbursedAmount, *loan.DueDate)
	})
	return loan, nil
}

// GetLoan retrieves a loan by its business identifier.
func (s *Service) GetLoan(ctx context.Context, loanID string) (*models.Loan, error) {
	return s.store.FindLoanByLoanID(ctx, loanID)
}

// ListLoans returns loans matching the filter.
func (s *Service) ListLoans(ctx context.Context, filter models.LoanFilter) ([]*models.Loan, error) {
	return s.store.ListLoans(ctx, filter)
}

// notify runs a side effect in the background. Failures are logged and
// never surface into the commit path.
func (s *Service) notify(fn func() error) {
	if s.notifier == nil {
		return
	}
	go func() {
		if err := fn(); err != nil {
			s.log.Errorf("Notification failed: %v", err)
		}
	}()
}
