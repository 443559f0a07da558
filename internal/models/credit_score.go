package models

import "time"

// ScoreReason classifies why points were awarded or deducted.
type ScoreReason string

const (
	ReasonPartialRepayment ScoreReason = "partial_repayment"
	ReasonLoanCompleted    ScoreReason = "loan_completed"
	ReasonPenalty          ScoreReason = "penalty"
	ReasonManualAdjustment ScoreReason = "manual_adjustment"
)

// ScoreEventMetadata captures the inputs behind an award for audit.
type ScoreEventMetadata struct {
	RepaymentAmount    float64 `json:"repaymentAmount,omitempty"`
	Partial            bool    `json:"partial,omitempty"`
	AmountMultiplier   float64 `json:"amountMultiplier,omitempty"`
	DurationMultiplier float64 `json:"durationMultiplier,omitempty"`
	DaysElapsed        int     `json:"daysElapsed,omitempty"`
	OverRepayment      float64 `json:"overRepayment,omitempty"`
	Note               string  `json:"note,omitempty"`
}

// ScoreEvent is one immutable credit-score ledger entry. TransactionID is
// nil for penalties and manual adjustments; when set it is unique, which is
// what makes reconciliation retry-safe.
type ScoreEvent struct {
	ID            int64              `json:"id"`
	UserID        int64              `json:"userId"`
	TransactionID *int64             `json:"transactionId,omitempty"`
	PointsAwarded int                `json:"pointsAwarded"`
	Reason        ScoreReason        `json:"reason"`
	Metadata      ScoreEventMetadata `json:"metadata"`
	CreatedAt     time.Time          `json:"timestamp"`
}
