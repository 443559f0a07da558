package service

import (
	"context"
	"time"

	"github.com/pesalink/loan-service/internal/config"
	"github.com/pesalink/loan-service/internal/models"
	"github.com/pesalink/loan-service/internal/repository"
	"github.com/pesalink/loan-service/internal/scoring"
	"github.com/sirupsen/logrus"
)

// StoreTx is the transaction-scoped slice of the persistence layer. The
// reconciliation unit's four mutations all happen through one StoreTx.
type StoreTx interface {
	FindUserForUpdate(ctx context.Context, id int64) (*models.User, error)
	UpdateUserCredit(ctx context.Context, user *models.User) error

	CreateLoan(ctx context.Context, loan *models.Loan) error
	FindLoanForUpdate(ctx context.Context, loanID string) (*models.Loan, error)
	FindLoanByIDForUpdate(ctx context.Context, id int64) (*models.Loan, error)
	UpdateLoan(ctx context.Context, loan *models.Loan) error
	ActiveOutstandingPrincipal(ctx context.Context, userID int64) (float64, error)

	CreateTransaction(ctx context.Context, txn *models.Transaction) error
	FindTransactionForUpdate(ctx context.Context, reference string) (*models.Transaction, error)
	UpdateTransactionStatus(ctx context.Context, txn *models.Transaction) error

	InsertScoreEvent(ctx context.Context, event *models.ScoreEvent) (bool, error)
}

// Store is the persistence layer as the service consumes it.
type Store interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx StoreTx) error) error

	FindUserByID(ctx context.Context, id int64) (*models.User, error)
	FindLoanByLoanID(ctx context.Context, loanID string) (*models.Loan, error)
	FindTransactionByReference(ctx context.Context, reference string) (*models.Transaction, error)
	ListLoans(ctx context.Context, filter models.LoanFilter) ([]*models.Loan, error)
	LoanStats(ctx context.Context) (*models.LoanStats, error)
	OverdueLoans(ctx context.Context, now time.Time) ([]*models.Loan, error)
	StalePendingTransactions(ctx context.Context, cutoff time.Time, limit int) ([]*models.Transaction, error)

	ScoreHistory(ctx context.Context, userID int64, limit, offset int) ([]*models.ScoreEvent, error)
	CountScoreHistory(ctx context.Context, userID int64) (int64, error)
	ScoringPolicy(ctx context.Context) (scoring.Policy, error)

	CreateAdmin(ctx context.Context, admin *models.Admin) error
	FindAdminByEmail(ctx context.Context, email string) (*models.Admin, error)

	CreateTicket(ctx context.Context, ticket *models.Ticket) error
	ListTickets(ctx context.Context, status models.TicketStatus) ([]*models.Ticket, error)
	CloseTicket(ctx context.Context, id, adminID int64) (*models.Ticket, error)
}

// Notifier sends borrower-facing notices. Calls are fire-and-forget and
// happen strictly after the atomic unit commits.
type Notifier interface {
	SendDisbursementNotice(to, name string, loanID string, amount float64, dueDate time.Time) error
	SendRepaymentReceipt(to, name string, loanID string, amount, outstanding float64, completed bool) error
	SendOverdueNotice(to, name string, loanID string, outstanding float64, dueDate time.Time, defaulted bool) error
}

// Gateway queries the mobile-network operator for the terminal status of a
// payment transaction.
type Gateway interface {
	QueryTransactionStatus(ctx context.Context, reference string) (models.TransactionStatus, float64, error)
}

// Service handles business logic
type Service struct {
	store    Store
	log      *logrus.Logger
	config   *config.Config
	notifier Notifier
	gateway  Gateway
	now      func() time.Time
}

// NewService initializes a new service
func NewService(store Store, log *logrus.Logger, cfg *config.Config, notifier Notifier, gateway Gateway) *Service {
	return &Service{
		store:    store,
		log:      log,
		config:   cfg,
		notifier: notifier,
		gateway:  gateway,
		now:      time.Now,
	}
}

// repoStore adapts the concrete repository to the Store interface; the
// callback signatures differ only in the transaction type.
type repoStore struct {
	*repository.Repository
}

// NewStore wraps a repository as a Store.
func NewStore(r *repository.Repository) Store {
	return repoStore{r}
}

func (s repoStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx StoreTx) error) error {
	return s.Repository.RunInTx(ctx, func(ctx context.Context, tx *repository.Tx) error {
		return fn(ctx, tx)
	})
}
