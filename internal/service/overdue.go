package service

import (
	"context"
	"time"

	"github.com/pesalink/loan-service/internal/models"
	"github.com/pesalink/loan-service/internal/scoring"
)

// Days past the due date before an overdue loan is written off.
const defaultGraceDays = 14

// SweepOverdueLoans walks active loans past their due date. Loans inside
// the grace period mark the borrower late; loans beyond it are defaulted
// with a penalty ledger entry. Each loan is handled in its own transaction
// so one bad row cannot stall the sweep.
func (s *Service) SweepOverdueLoans(ctx context.Context) error {
	now := s.now()
	overdue, err := s.store.OverdueLoans(ctx, now)
	if err != nil {
		return err
	}
	if len(overdue) == 0 {
		return nil
	}

	policy, err := s.store.ScoringPolicy(ctx)
	if err != nil {
		return err
	}

	for _, candidate := range overdue {
		if err := s.sweepOne(ctx, candidate.LoanID, now, policy); err != nil {
			s.log.Errorf("Overdue sweep failed for loan %s: %v", candidate.LoanID, err)
		}
	}
	s.log.Infof("Overdue sweep processed %d loans", len(overdue))
	return nil
}

func (s *Service) sweepOne(ctx context.Context, loanID string, now time.Time, policy scoring.Policy) error {
	var (
		borrower  *models.User
		swept     *models.Loan
		defaulted bool
	)
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx StoreTx) error {
		l, err := tx.FindLoanForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		// Re-check under the lock: a repayment may have landed since the
		// candidate list was read.
		if l.DueDate == nil || !l.DueDate.Before(now) || (l.Status != models.LoanDisbursed && l.Status != models.LoanRepaying) {
			return nil
		}

		user, err := tx.FindUserForUpdate(ctx, l.UserID)
		if err != nil {
			return err
		}

		grace := l.DueDate.AddDate(0, 0, defaultGraceDays)
		if now.After(grace) {
			if err := l.MarkDefaulted(); err != nil {
				return err
			}
			defaulted = true
			penalty := policy.DefaultPenaltyPoints
			if penalty <= 0 {
				penalty = 50
			}
			event := &models.ScoreEvent{
				UserID:        l.UserID,
				PointsAwarded: -penalty,
				Reason:        models.ReasonPenalty,
				Metadata: models.ScoreEventMetadata{
					Note: "loan " + l.LoanID + " defaulted",
				},
			}
			if _, err := tx.InsertScoreEvent(ctx, event); err != nil {
				return err
			}
			user.CreditScore = scoring.ClampScore(user.CreditScore - penalty)
			user.RepaymentStatus = models.RepaymentDefaulted
		} else {
			// Due-date bookkeeping has begun, the loan is actively repaying.
			if l.Status == models.LoanDisbursed {
				l.Status = models.LoanRepaying
			}
			if user.RepaymentStatus != models.RepaymentDefaulted {
				user.RepaymentStatus = models.RepaymentLate
			}
		}

		if err := tx.UpdateLoan(ctx, l); err != nil {
			return err
		}
		if err := tx.UpdateUserCredit(ctx, user); err != nil {
			return err
		}
		borrower = user
		swept = l
		return nil
	})
	if err != nil || swept == nil {
		return err
	}

	if defaulted {
		s.log.Warnf("Loan %s defaulted, user %d penalized", swept.LoanID, swept.UserID)
	}
	user, l := borrower, swept
	s.notify(func() error {
		return s.notifier.SendOverdueNotice(user.Email, user.Name, l.LoanID, l.OutstandingAmount, *l.DueDate, defaulted)
	})
	return nil
}
