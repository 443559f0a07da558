package models

import "time"

// Transaction type and status enums.
type (
	TransactionType   string
	TransactionStatus string
)

const (
	TransactionDisbursement TransactionType = "disbursement"
	TransactionRepayment    TransactionType = "repayment"

	TransactionPending   TransactionStatus = "pending"
	TransactionCompleted TransactionStatus = "completed"
	TransactionFailed    TransactionStatus = "failed"
)

// Terminal reports whether the transaction has reached a final status.
func (s TransactionStatus) Terminal() bool {
	return s == TransactionCompleted || s == TransactionFailed
}

// Transaction represents a money movement tied to a loan. Rows are created
// pending and transition exactly once to completed or failed.
type Transaction struct {
	ID            int64             `json:"id"`
	Reference     string            `json:"reference"`
	LoanID        int64             `json:"loanId"`
	Type          TransactionType   `json:"type"`
	Status        TransactionStatus `json:"status"`
	Amount        float64           `json:"amount"`
	PaymentMethod string            `json:"paymentMethod"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}
