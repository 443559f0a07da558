package models

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the service and repository layers.
var (
	ErrNotFound            = errors.New("not found")
	ErrCreditLimitExceeded = errors.New("credit limit exceeded")
	ErrValidation          = errors.New("validation failed")
)

// InvalidTransitionError reports an attempted loan status transition that is
// not in the lifecycle table.
type InvalidTransitionError struct {
	LoanID string
	From   LoanStatus
	To     LoanStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid loan transition for %s: %s -> %s", e.LoanID, e.From, e.To)
}
