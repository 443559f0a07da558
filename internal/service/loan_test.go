package service

import (
	"context"
	"testing"
	"time"

	"github.com/pesalink/loan-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUser(store *fakeStore, id int64, limit float64) *models.User {
	user := &models.User{
		ID:               id,
		Phone:            "+254700000001",
		Email:            "borrower@example.com",
		Name:             "Test Borrower",
		CreditScore:      400,
		CreditLimit:      limit,
		RepaymentStatus:  models.RepaymentNone,
		AutoLimitEnabled: true,
	}
	store.users[id] = user
	return user
}

func TestCreateLoan(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	seedUser(store, 1, 50000)

	loan, err := svc.CreateLoan(context.Background(), 1, 10000, 10, 30, "safaricom")
	require.NoError(t, err)
	assert.Equal(t, models.LoanRequested, loan.Status)
	assert.Contains(t, loan.LoanID, "LN-")
	assert.Equal(t, 10000.0, loan.Amount)
}

func TestCreateLoan_CreditLimitExceeded(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	seedUser(store, 1, 50000)

	_, err := svc.CreateLoan(context.Background(), 1, 60000, 10, 30, "safaricom")
	assert.ErrorIs(t, err, models.ErrCreditLimitExceeded)
	assert.Empty(t, store.loans, "no loan row written on rejection")
}

func TestCreateLoan_ActiveLoansReduceAvailableCredit(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	seedUser(store, 1, 50000)

	_, err := svc.CreateLoan(context.Background(), 1, 30000, 10, 30, "safaricom")
	require.NoError(t, err)

	// 30000 of the limit is tied up by the first active loan.
	_, err = svc.CreateLoan(context.Background(), 1, 25000, 10, 30, "safaricom")
	assert.ErrorIs(t, err, models.ErrCreditLimitExceeded)

	_, err = svc.CreateLoan(context.Background(), 1, 20000, 10, 30, "safaricom")
	assert.NoError(t, err)
}

func TestCreateLoan_Validation(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	seedUser(store, 1, 50000)

	for _, tc := range []struct {
		amount float64
		rate   float64
		days   int
	}{
		{0, 10, 30},
		{-100, 10, 30},
		{1000, -1, 30},
		{1000, 100, 30},
		{1000, 10, 0},
	} {
		_, err := svc.CreateLoan(context.Background(), 1, tc.amount, tc.rate, tc.days, "safaricom")
		assert.ErrorIs(t, err, models.ErrValidation)
	}
}

func TestApproveLoanLifecycle(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	seedUser(store, 1, 50000)
	ctx := context.Background()

	loan, err := svc.CreateLoan(ctx, 1, 10000, 10, 30, "safaricom")
	require.NoError(t, err)

	loan, err = svc.ApproveLoan(ctx, loan.LoanID, 9)
	require.NoError(t, err)
	assert.Equal(t, models.LoanApproved, loan.Status)
	assert.Equal(t, int64(9), *loan.ApprovedBy)

	loan, err = svc.DisburseLoan(ctx, loan.LoanID, 9)
	require.NoError(t, err)
	assert.Equal(t, models.LoanDisbursed, loan.Status)
	assert.Equal(t, 9000.0, loan.DisbursedAmount)

	// The disbursement leg transaction was opened pending.
	var disb *models.Transaction
	for _, txn := range store.txns {
		if txn.Type == models.TransactionDisbursement {
			disb = txn
		}
	}
	require.NotNil(t, disb)
	assert.Equal(t, models.TransactionPending, disb.Status)
	assert.Equal(t, loan.ID, disb.LoanID)

	// Borrowing totals moved.
	assert.Equal(t, 10000.0, store.users[1].TotalLoans)
	assert.Equal(t, models.RepaymentPending, store.users[1].RepaymentStatus)
}

func TestApproveLoan_InvalidFromDisbursed(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	seedUser(store, 1, 50000)
	ctx := context.Background()

	loan, err := svc.CreateLoan(ctx, 1, 10000, 10, 30, "safaricom")
	require.NoError(t, err)
	_, err = svc.ApproveLoan(ctx, loan.LoanID, 9)
	require.NoError(t, err)
	_, err = svc.DisburseLoan(ctx, loan.LoanID, 9)
	require.NoError(t, err)

	_, err = svc.ApproveLoan(ctx, loan.LoanID, 9)
	var transitionErr *models.InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, models.LoanDisbursed, transitionErr.From)
	assert.Equal(t, models.LoanApproved, transitionErr.To)
}

func TestRejectLoan(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	seedUser(store, 1, 50000)
	ctx := context.Background()

	loan, err := svc.CreateLoan(ctx, 1, 10000, 10, 30, "safaricom")
	require.NoError(t, err)

	loan, err = svc.RejectLoan(ctx, loan.LoanID, "unverified identity")
	require.NoError(t, err)
	assert.Equal(t, models.LoanRejected, loan.Status)
	assert.Equal(t, "unverified identity", loan.RejectedReason)

	// Terminal: nothing moves it again.
	_, err = svc.ApproveLoan(ctx, loan.LoanID, 9)
	var transitionErr *models.InvalidTransitionError
	assert.ErrorAs(t, err, &transitionErr)
}

func TestLoanNotFound(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	_, err := svc.ApproveLoan(context.Background(), "LN-missing", 9)
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = svc.GetLoan(context.Background(), "LN-missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDisburseLoan_SetsDueDate(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	seedUser(store, 1, 50000)
	ctx := context.Background()

	loan, err := svc.CreateLoan(ctx, 1, 10000, 10, 30, "safaricom")
	require.NoError(t, err)
	_, err = svc.ApproveLoan(ctx, loan.LoanID, 9)
	require.NoError(t, err)
	loan, err = svc.DisburseLoan(ctx, loan.LoanID, 9)
	require.NoError(t, err)

	require.NotNil(t, loan.DueDate)
	assert.Equal(t, time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC), *loan.DueDate)
}
