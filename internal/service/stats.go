package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/pesalink/loan-service/internal/models"
)

// GetLoanStats returns aggregate portfolio figures.
func (s *Service) GetLoanStats(ctx context.Context) (*models.LoanStats, error) {
	return s.store.LoanStats(ctx)
}

// ExportLoans writes loans matching the filter as CSV rows.
func (s *Service) ExportLoans(ctx context.Context, filter models.LoanFilter, w io.Writer) error {
	loans, err := s.store.ListLoans(ctx, filter)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	header := []string{"loanId", "userId", "amount", "disbursedAmount", "interestRate",
		"repaymentPeriod", "amountDue", "amountPaid", "outstandingAmount", "dueDate",
		"status", "network", "createdAt"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, loan := range loans {
		dueDate := ""
		if loan.DueDate != nil {
			dueDate = loan.DueDate.Format("2006-01-02")
		}
		row := []string{
			loan.LoanID,
			strconv.FormatInt(loan.UserID, 10),
			strconv.FormatFloat(loan.Amount, 'f', 2, 64),
			strconv.FormatFloat(loan.DisbursedAmount, 'f', 2, 64),
			strconv.FormatFloat(loan.InterestRate, 'f', 2, 64),
			strconv.Itoa(loan.RepaymentPeriodDays),
			strconv.FormatFloat(loan.AmountDue, 'f', 2, 64),
			strconv.FormatFloat(loan.AmountPaid, 'f', 2, 64),
			strconv.FormatFloat(loan.OutstandingAmount, 'f', 2, 64),
			dueDate,
			string(loan.Status),
			loan.Network,
			loan.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	s.log.Infof("Exported %d loans", len(loans))
	return nil
}
