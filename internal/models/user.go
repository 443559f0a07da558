package models

import "time"

// RepaymentStatus reflects the user's aggregate repayment standing.
type RepaymentStatus string

const (
	RepaymentNone      RepaymentStatus = "none"
	RepaymentPending   RepaymentStatus = "pending"
	RepaymentLate      RepaymentStatus = "late"
	RepaymentDefaulted RepaymentStatus = "defaulted"
)

// User is the credit subject: the borrower whose score, limit and running
// totals the lifecycle and reconciliation components mutate.
type User struct {
	ID               int64           `json:"id"`
	Phone            string          `json:"phone"`
	Email            string          `json:"email"`
	Name             string          `json:"name"`
	CreditScore      int             `json:"creditScore"`
	CreditLimit      float64         `json:"creditLimit"`
	TotalLoans       float64         `json:"totalLoans"`
	TotalRepaid      float64         `json:"totalRepaid"`
	RepaymentStatus  RepaymentStatus `json:"repaymentStatus"`
	AutoLimitEnabled bool            `json:"autoLimitEnabled"`
	Version          int64           `json:"-"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}
