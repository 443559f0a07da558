package service

import (
	"context"
	"time"
)

const (
	pollBatchSize = 50
	pollMinAge    = 10 * time.Minute
)

// PollPendingTransactions queries the gateway for repayment transactions
// that have sat pending longer than pollMinAge and feeds terminal answers
// into reconciliation. Transactions the gateway still reports pending are
// left for the next run.
func (s *Service) PollPendingTransactions(ctx context.Context) error {
	if s.gateway == nil {
		return nil
	}

	cutoff := s.now().Add(-pollMinAge)
	stale, err := s.store.StalePendingTransactions(ctx, cutoff, pollBatchSize)
	if err != nil {
		return err
	}

	for _, txn := range stale {
		status, amount, err := s.gateway.QueryTransactionStatus(ctx, txn.Reference)
		if err != nil {
			s.log.Errorf("Gateway query failed for transaction %s: %v", txn.Reference, err)
			continue
		}
		if !status.Terminal() {
			continue
		}
		if _, err := s.ReconcileTransaction(ctx, txn.Reference, status, amount); err != nil {
			s.log.Errorf("Failed to reconcile polled transaction %s: %v", txn.Reference, err)
		}
	}
	if len(stale) > 0 {
		s.log.Infof("Gateway poll checked %d pending transactions", len(stale))
	}
	return nil
}
