package service

import (
	"context"
	"io"
	"time"

	"github.com/pesalink/loan-service/internal/config"
	"github.com/pesalink/loan-service/internal/models"
	"github.com/pesalink/loan-service/internal/scoring"
	"github.com/sirupsen/logrus"
)

// fakeStore is an in-memory Store/StoreTx for unit tests. RunInTx hands the
// callback the store itself: there is no rollback, so tests drive only
// flows whose failures happen before mutation, which is what the real
// components guarantee anyway.
type fakeStore struct {
	users       map[int64]*models.User
	loans       map[int64]*models.Loan
	loansByBID  map[string]*models.Loan
	txns        map[string]*models.Transaction
	txnsByID    map[int64]*models.Transaction
	events      []*models.ScoreEvent
	awardedTxns map[int64]bool
	policy      scoring.Policy
	nextID      int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:       map[int64]*models.User{},
		loans:       map[int64]*models.Loan{},
		loansByBID:  map[string]*models.Loan{},
		txns:        map[string]*models.Transaction{},
		txnsByID:    map[int64]*models.Transaction{},
		awardedTxns: map[int64]bool{},
		policy:      defaultTestPolicy(),
		nextID:      100,
	}
}

func defaultTestPolicy() scoring.Policy {
	return scoring.Policy{
		BasePoints: 10,
		AmountMultipliers: []scoring.AmountTier{
			{MinAmount: 0, MaxAmount: 1000, Multiplier: 0.5},
			{MinAmount: 1001, MaxAmount: 5000, Multiplier: 1.0},
			{MinAmount: 5001, MaxAmount: 10000, Multiplier: 1.5},
			{MinAmount: 10001, MaxAmount: 0, Multiplier: 2.0},
		},
		DurationMultipliers: []scoring.DurationTier{
			{MinDays: 0, MaxDays: 7, Multiplier: 1.5},
			{MinDays: 8, MaxDays: 14, Multiplier: 1.2},
			{MinDays: 15, MaxDays: 30, Multiplier: 1.0},
			{MinDays: 31, MaxDays: 0, Multiplier: 0.5},
		},
		MaxPointsPerTransaction:      50,
		EnablePartialRepayments:      true,
		MinPointsForPartialRepayment: 5,
		DefaultPenaltyPoints:         50,
		LimitTiers: []scoring.LimitTier{
			{MinScore: 300, Limit: 10000},
			{MinScore: 450, Limit: 25000},
			{MinScore: 600, Limit: 50000},
			{MinScore: 750, Limit: 100000},
		},
	}
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx StoreTx) error) error {
	return fn(ctx, f)
}

func (f *fakeStore) FindUserByID(_ context.Context, id int64) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return user, nil
}

func (f *fakeStore) FindUserForUpdate(ctx context.Context, id int64) (*models.User, error) {
	return f.FindUserByID(ctx, id)
}

func (f *fakeStore) UpdateUserCredit(_ context.Context, user *models.User) error {
	user.Version++
	return nil
}

func (f *fakeStore) CreateLoan(_ context.Context, loan *models.Loan) error {
	loan.ID = f.id()
	loan.CreatedAt = time.Now()
	f.loans[loan.ID] = loan
	f.loansByBID[loan.LoanID] = loan
	return nil
}

func (f *fakeStore) FindLoanByLoanID(_ context.Context, loanID string) (*models.Loan, error) {
	loan, ok := f.loansByBID[loanID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return loan, nil
}

func (f *fakeStore) FindLoanForUpdate(ctx context.Context, loanID string) (*models.Loan, error) {
	return f.FindLoanByLoanID(ctx, loanID)
}

func (f *fakeStore) FindLoanByIDForUpdate(_ context.Context, id int64) (*models.Loan, error) {
	loan, ok := f.loans[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return loan, nil
}

func (f *fakeStore) UpdateLoan(_ context.Context, _ *models.Loan) error { return nil }

func (f *fakeStore) ActiveOutstandingPrincipal(_ context.Context, userID int64) (float64, error) {
	total := 0.0
	for _, loan := range f.loans {
		if loan.UserID != userID || !loan.Active() {
			continue
		}
		if loan.Status == models.LoanRequested || loan.Status == models.LoanApproved {
			total += loan.Amount
		} else {
			total += loan.OutstandingAmount
		}
	}
	return total, nil
}

func (f *fakeStore) CreateTransaction(_ context.Context, txn *models.Transaction) error {
	txn.ID = f.id()
	txn.CreatedAt = time.Now()
	f.txns[txn.Reference] = txn
	f.txnsByID[txn.ID] = txn
	return nil
}

func (f *fakeStore) FindTransactionByReference(_ context.Context, reference string) (*models.Transaction, error) {
	txn, ok := f.txns[reference]
	if !ok {
		return nil, models.ErrNotFound
	}
	return txn, nil
}

func (f *fakeStore) FindTransactionForUpdate(ctx context.Context, reference string) (*models.Transaction, error) {
	return f.FindTransactionByReference(ctx, reference)
}

func (f *fakeStore) UpdateTransactionStatus(_ context.Context, _ *models.Transaction) error {
	return nil
}

func (f *fakeStore) InsertScoreEvent(_ context.Context, event *models.ScoreEvent) (bool, error) {
	if event.TransactionID != nil {
		if f.awardedTxns[*event.TransactionID] {
			return false, nil
		}
		f.awardedTxns[*event.TransactionID] = true
	}
	event.ID = f.id()
	event.CreatedAt = time.Now()
	f.events = append(f.events, event)
	return true, nil
}

func (f *fakeStore) ListLoans(_ context.Context, filter models.LoanFilter) ([]*models.Loan, error) {
	var out []*models.Loan
	for _, loan := range f.loans {
		if filter.UserID != 0 && loan.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && loan.Status != filter.Status {
			continue
		}
		if filter.Network != "" && loan.Network != filter.Network {
			continue
		}
		out = append(out, loan)
	}
	return out, nil
}

func (f *fakeStore) LoanStats(_ context.Context) (*models.LoanStats, error) {
	stats := &models.LoanStats{CountByStatus: map[models.LoanStatus]int64{}}
	for _, loan := range f.loans {
		stats.TotalLoans++
		stats.CountByStatus[loan.Status]++
	}
	return stats, nil
}

func (f *fakeStore) OverdueLoans(_ context.Context, now time.Time) ([]*models.Loan, error) {
	var out []*models.Loan
	for _, loan := range f.loans {
		if (loan.Status == models.LoanDisbursed || loan.Status == models.LoanRepaying) &&
			loan.DueDate != nil && loan.DueDate.Before(now) {
			out = append(out, loan)
		}
	}
	return out, nil
}

func (f *fakeStore) StalePendingTransactions(_ context.Context, cutoff time.Time, limit int) ([]*models.Transaction, error) {
	var out []*models.Transaction
	for _, txn := range f.txns {
		if txn.Status == models.TransactionPending && txn.Type == models.TransactionRepayment &&
			txn.CreatedAt.Before(cutoff) && len(out) < limit {
			out = append(out, txn)
		}
	}
	return out, nil
}

func (f *fakeStore) ScoreHistory(_ context.Context, userID int64, limit, offset int) ([]*models.ScoreEvent, error) {
	var out []*models.ScoreEvent
	for i := len(f.events) - 1; i >= 0; i-- {
		if f.events[i].UserID == userID {
			out = append(out, f.events[i])
		}
	}
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) CountScoreHistory(_ context.Context, userID int64) (int64, error) {
	var count int64
	for _, event := range f.events {
		if event.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) ScoringPolicy(_ context.Context) (scoring.Policy, error) {
	return f.policy, nil
}

func (f *fakeStore) CreateAdmin(_ context.Context, admin *models.Admin) error {
	admin.ID = f.id()
	return nil
}

func (f *fakeStore) FindAdminByEmail(_ context.Context, _ string) (*models.Admin, error) {
	return nil, models.ErrNotFound
}

func (f *fakeStore) CreateTicket(_ context.Context, ticket *models.Ticket) error {
	ticket.ID = f.id()
	return nil
}

func (f *fakeStore) ListTickets(_ context.Context, _ models.TicketStatus) ([]*models.Ticket, error) {
	return nil, nil
}

func (f *fakeStore) CloseTicket(_ context.Context, _, _ int64) (*models.Ticket, error) {
	return nil, models.ErrNotFound
}

// nopNotifier satisfies Notifier and records nothing.
type nopNotifier struct{}

func (nopNotifier) SendDisbursementNotice(string, string, string, float64, time.Time) error {
	return nil
}
func (nopNotifier) SendRepaymentReceipt(string, string, string, float64, float64, bool) error {
	return nil
}
func (nopNotifier) SendOverdueNotice(string, string, string, float64, time.Time, bool) error {
	return nil
}

func newTestService(store *fakeStore) *Service {
	log := logrus.New()
	log.SetOutput(io.Discard)
	svc := NewService(store, log, &config.Config{JWTSecret: "test"}, nopNotifier{}, nil)
	svc.now = func() time.Time { return time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}
