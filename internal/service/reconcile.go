package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pesalink/loan-service/internal/models"
	"github.com/pesalink/loan-service/internal/scoring"
)

// ReconciliationResult reports the effect of reconciling one transaction.
// Duplicate means the transaction was already terminal and nothing changed.
type ReconciliationResult struct {
	Reference     string                   `json:"reference"`
	Status        models.TransactionStatus `json:"status"`
	Duplicate     bool                     `json:"duplicate"`
	Loan          *models.Loan             `json:"loan,omitempty"`
	PointsAwarded int                      `json:"pointsAwarded"`
	Reason        models.ScoreReason       `json:"reason,omitempty"`
	OverRepayment bool                     `json:"overRepayment"`
}

// RecordRepayment opens a pending repayment transaction against a loan.
// The transaction is later driven to a terminal status by
// ReconcileTransaction, either from the gateway callback or the poll job.
func (s *Service) RecordRepayment(ctx context.Context, loanID string, amount float64, method string) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("repayment amount must be positive: %w", models.ErrValidation)
	}

	txn := &models.Transaction{
		Reference:     uuid.NewString(),
		Type:          models.TransactionRepayment,
		Status:        models.TransactionPending,
		Amount:        amount,
		PaymentMethod: method,
	}
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx StoreTx) error {
		loan, err := tx.FindLoanForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		if loan.Status != models.LoanDisbursed && loan.Status != models.LoanRepaying {
			return &models.InvalidTransitionError{LoanID: loan.LoanID, From: loan.Status, To: models.LoanRepaying}
		}
		txn.LoanID = loan.ID
		return tx.CreateTransaction(ctx, txn)
	})
	if err != nil {
		return nil, err
	}

	s.log.Infof("Repayment transaction %s recorded for loan %s: %.2f via %s",
		txn.Reference, loanID, amount, method)
	return txn, nil
}

// ReconcileTransaction applies a transaction status change. This is the
// single entry point coupling transaction state, loan state and scoring:
// on completion of a repayment it applies the repayment to the loan,
// computes the point award, appends the ledger entry and updates the user's
// credit aggregate, all inside one database transaction. Reconciling an
// already terminal transaction is a no-op returning the prior outcome, so
// duplicate gateway deliveries are harmless.
func (s *Service) ReconcileTransaction(ctx context.Context, reference string, status models.TransactionStatus, amount float64) (*ReconciliationResult, error) {
	if status != models.TransactionCompleted && status != models.TransactionFailed {
		return nil, fmt.Errorf("status must be terminal, got %q: %w", status, models.ErrValidation)
	}

	// Policy is read-only configuration; fetching it outside the atomic
	// unit keeps the unit to the four financial mutations.
	policy, err := s.store.ScoringPolicy(ctx)
	if err != nil {
		return nil, err
	}

	var (
		result *ReconciliationResult
		user   *models.User
	)
	err = s.store.RunInTx(ctx, func(ctx context.Context, tx StoreTx) error {
		txn, err := tx.FindTransactionForUpdate(ctx, reference)
		if err != nil {
			return err
		}
		if txn.Status.Terminal() {
			result = &ReconciliationResult{Reference: reference, Status: txn.Status, Duplicate: true}
			return nil
		}

		if status == models.TransactionFailed {
			txn.Status = models.TransactionFailed
			if err := tx.UpdateTransactionStatus(ctx, txn); err != nil {
				return err
			}
			result = &ReconciliationResult{Reference: reference, Status: txn.Status}
			return nil
		}

		if amount <= 0 {
			amount = txn.Amount
		}

		loan, err := tx.FindLoanByIDForUpdate(ctx, txn.LoanID)
		if err != nil {
			return err
		}

		txn.Status = models.TransactionCompleted
		txn.Amount = amount
		if err := tx.UpdateTransactionStatus(ctx, txn); err != nil {
			return err
		}

		// Completing the disbursement leg moves the loan into active
		// repayment; no scoring is involved.
		if txn.Type == models.TransactionDisbursement {
			if loan.Status == models.LoanDisbursed {
				loan.Status = models.LoanRepaying
				if err := tx.UpdateLoan(ctx, loan); err != nil {
					return err
				}
			}
			result = &ReconciliationResult{Reference: reference, Status: txn.Status, Loan: loan}
			return nil
		}

		outcome, err := loan.ApplyRepayment(amount)
		if err != nil {
			return err
		}
		if err := tx.UpdateLoan(ctx, loan); err != nil {
			return err
		}

		days := 0
		switch {
		case loan.DisbursedAt != nil:
			days = int(s.now().Sub(*loan.DisbursedAt).Hours() / 24)
		case loan.ApprovedAt != nil:
			days = int(s.now().Sub(*loan.ApprovedAt).Hours() / 24)
		}

		award := scoring.ComputeAward(scoring.AwardInput{
			RepaymentAmount: outcome.Applied,
			LoanAmount:      loan.Amount,
			DaysElapsed:     days,
			FullRepayment:   outcome.FullRepayment,
			Partial:         !outcome.FullRepayment,
		}, policy)

		event := &models.ScoreEvent{
			UserID:        loan.UserID,
			TransactionID: &txn.ID,
			PointsAwarded: award.Points,
			Reason:        models.ScoreReason(award.Reason),
			Metadata: models.ScoreEventMetadata{
				RepaymentAmount:    outcome.Applied,
				Partial:            !outcome.FullRepayment,
				AmountMultiplier:   award.AmountMultiplier,
				DurationMultiplier: award.DurationMultiplier,
				DaysElapsed:        days,
				OverRepayment:      outcome.Excess,
			},
		}
		inserted, err := tx.InsertScoreEvent(ctx, event)
		if err != nil {
			return err
		}

		user, err = tx.FindUserForUpdate(ctx, loan.UserID)
		if err != nil {
			return err
		}
		user.TotalRepaid += outcome.Applied
		if inserted {
			user.CreditScore = scoring.ClampScore(user.CreditScore + event.PointsAwarded)
			if user.AutoLimitEnabled {
				if limit := scoring.LimitForScore(user.CreditScore, policy); limit > user.CreditLimit {
					user.CreditLimit = limit
				}
			}
		}
		if outcome.FullRepayment {
			user.RepaymentStatus = models.RepaymentNone
		} else if user.RepaymentStatus == models.RepaymentNone {
			user.RepaymentStatus = models.RepaymentPending
		}
		if err := tx.UpdateUserCredit(ctx, user); err != nil {
			return err
		}

		result = &ReconciliationResult{
			Reference:     reference,
			Status:        txn.Status,
			Loan:          loan,
			PointsAwarded: event.PointsAwarded,
			Reason:        event.Reason,
			OverRepayment: outcome.OverRepayment,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Duplicate {
		s.log.Infof("Transaction %s already reconciled, no-op", reference)
		return result, nil
	}

	s.log.Infof("Transaction %s reconciled as %s: %d points, reason %s",
		reference, result.Status, result.PointsAwarded, result.Reason)
	if result.Loan != nil && user != nil && result.Reason != "" {
		loan := result.Loan
		completed := loan.Status == models.LoanCompleted
		email, name := user.Email, user.Name
		s.notify(func() error {
			return s.notifier.SendRepaymentReceipt(email, name, loan.LoanID, amount, loan.OutstandingAmount, completed)
		})
	}
	return result, nil
}
