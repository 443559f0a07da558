package models

import "time"

// LoanStatus is a loan's lifecycle state.
type LoanStatus string

const (
	LoanRequested LoanStatus = "REQUESTED"
	LoanApproved  LoanStatus = "APPROVED"
	LoanRejected  LoanStatus = "REJECTED"
	LoanDisbursed LoanStatus = "DISBURSED"
	LoanRepaying  LoanStatus = "REPAYING"
	LoanCompleted LoanStatus = "COMPLETED"
	LoanDefaulted LoanStatus = "DEFAULTED"
)

// Terminal reports whether no further transition is allowed from s.
func (s LoanStatus) Terminal() bool {
	return s == LoanRejected || s == LoanCompleted || s == LoanDefaulted
}

// Loan represents a microloan and its repayment bookkeeping.
type Loan struct {
	ID                  int64      `json:"id"`
	LoanID              string     `json:"loanId"`
	UserID              int64      `json:"userId"`
	Amount              float64    `json:"amount"`
	DisbursedAmount     float64    `json:"disbursedAmount"`
	InterestRate        float64    `json:"interestRate"`
	RepaymentPeriodDays int        `json:"repaymentPeriod"`
	AmountDue           float64    `json:"amountDue"`
	AmountPaid          float64    `json:"amountPaid"`
	OutstandingAmount   float64    `json:"outstandingAmount"`
	DueDate             *time.Time `json:"dueDate,omitempty"`
	Status              LoanStatus `json:"status"`
	Network             string     `json:"network"`
	ApprovedBy          *int64     `json:"approvedBy,omitempty"`
	ApprovedAt          *time.Time `json:"approvedAt,omitempty"`
	RejectedReason      string     `json:"rejectedReason,omitempty"`
	RejectedAt          *time.Time `json:"rejectedAt,omitempty"`
	DisbursedBy         *int64     `json:"disbursedBy,omitempty"`
	DisbursedAt         *time.Time `json:"disbursedAt,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// Active reports whether the loan still ties up part of the user's credit
// limit: any state that is neither rejected nor fully settled.
func (l *Loan) Active() bool {
	switch l.Status {
	case LoanRequested, LoanApproved, LoanDisbursed, LoanRepaying:
		return true
	}
	return false
}

func (l *Loan) invalidTransition(to LoanStatus) error {
	return &InvalidTransitionError{LoanID: l.LoanID, From: l.Status, To: to}
}

// Approve moves REQUESTED -> APPROVED and stamps the approver.
func (l *Loan) Approve(approverID int64, now time.Time) error {
	if l.Status != LoanRequested {
		return l.invalidTransition(LoanApproved)
	}
	l.Status = LoanApproved
	l.ApprovedBy = &approverID
	l.ApprovedAt = &now
	return nil
}

// Reject moves REQUESTED -> REJECTED, recording the reason. Terminal.
func (l *Loan) Reject(reason string, now time.Time) error {
	if l.Status != LoanRequested {
		return l.invalidTransition(LoanRejected)
	}
	l.Status = LoanRejected
	l.RejectedReason = reason
	l.RejectedAt = &now
	return nil
}

// Disburse moves APPROVED -> DISBURSED and seeds the repayment bookkeeping.
// Interest is taken up front: the borrower receives amount*(1-rate/100) but
// owes the full principal.
func (l *Loan) Disburse(actorID int64, now time.Time) error {
	if l.Status != LoanApproved {
		return l.invalidTransition(LoanDisbursed)
	}
	l.Status = LoanDisbursed
	l.DisbursedAmount = l.Amount * (1 - l.InterestRate/100)
	l.AmountDue = l.Amount
	l.AmountPaid = 0
	l.OutstandingAmount = l.Amount
	due := now.AddDate(0, 0, l.RepaymentPeriodDays)
	l.DueDate = &due
	l.DisbursedBy = &actorID
	l.DisbursedAt = &now
	return nil
}

// RepaymentOutcome describes the effect of a single repayment.
type RepaymentOutcome struct {
	Applied       float64 `json:"applied"`
	Excess        float64 `json:"excess"`
	OverRepayment bool    `json:"overRepayment"`
	FullRepayment bool    `json:"fullRepayment"`
}

// ApplyRepayment credits amount against the loan. Only DISBURSED and
// REPAYING loans accept repayments. Amounts beyond what is owed are capped
// at amountDue and reported back as an over-repayment rather than absorbed.
func (l *Loan) ApplyRepayment(amount float64) (RepaymentOutcome, error) {
	if amount <= 0 {
		return RepaymentOutcome{}, ErrValidation
	}
	if l.Status != LoanDisbursed && l.Status != LoanRepaying {
		return RepaymentOutcome{}, l.invalidTransition(LoanRepaying)
	}

	applied := amount
	excess := 0.0
	if l.AmountPaid+amount > l.AmountDue {
		applied = l.AmountDue - l.AmountPaid
		excess = amount - applied
	}
	l.AmountPaid += applied
	l.OutstandingAmount = l.AmountDue - l.AmountPaid
	if l.OutstandingAmount < 0 {
		l.OutstandingAmount = 0
	}

	if l.OutstandingAmount == 0 {
		l.Status = LoanCompleted
	} else {
		l.Status = LoanRepaying
	}

	return RepaymentOutcome{
		Applied:       applied,
		Excess:        excess,
		OverRepayment: excess > 0,
		FullRepayment: l.OutstandingAmount == 0,
	}, nil
}

// MarkDefaulted moves a DISBURSED/REPAYING loan to DEFAULTED. Used by the
// overdue sweep once the grace period is exhausted.
func (l *Loan) MarkDefaulted() error {
	if l.Status != LoanDisbursed && l.Status != LoanRepaying {
		return l.invalidTransition(LoanDefaulted)
	}
	l.Status = LoanDefaulted
	return nil
}
