package models

// LoanStats represents aggregate loan portfolio figures.
type LoanStats struct {
	TotalLoans       int64                `json:"total_loans"`
	CountByStatus    map[LoanStatus]int64 `json:"count_by_status"`
	TotalDisbursed   float64              `json:"total_disbursed"`
	TotalRepaid      float64              `json:"total_repaid"`
	TotalOutstanding float64              `json:"total_outstanding"`
	RepaymentRate    float64              `json:"repayment_rate"` // TotalRepaid / TotalDisbursed
}

// LoanFilter narrows loan listings and exports.
type LoanFilter struct {
	UserID  int64
	Status  LoanStatus
	Network string
}
