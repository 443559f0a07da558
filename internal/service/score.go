package service

import (
	"context"
	"fmt"

	"github.com/pesalink/loan-service/internal/models"
	"github.com/pesalink/loan-service/internal/scoring"
)

// ScoreHistoryPage is one page of a user's credit-score ledger.
type ScoreHistoryPage struct {
	Items []*models.ScoreEvent `json:"items"`
	Total int64                `json:"total"`
	Page  int                  `json:"page"`
	Limit int                  `json:"limit"`
}

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// GetCreditScoreHistory lists a user's ledger entries, newest first.
func (s *Service) GetCreditScoreHistory(ctx context.Context, userID int64, page, limit int) (*ScoreHistoryPage, error) {
	if _, err := s.store.FindUserByID(ctx, userID); err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	items, err := s.store.ScoreHistory(ctx, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	total, err := s.store.CountScoreHistory(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &ScoreHistoryPage{Items: items, Total: total, Page: page, Limit: limit}, nil
}

// AdjustScore applies a manual score correction by an admin. The ledger
// entry and the aggregate update share one transaction, same as awards.
func (s *Service) AdjustScore(ctx context.Context, userID int64, points int, note string, adminID int64) (*models.User, error) {
	if points == 0 {
		return nil, fmt.Errorf("adjustment must be non-zero: %w", models.ErrValidation)
	}

	policy, err := s.store.ScoringPolicy(ctx)
	if err != nil {
		return nil, err
	}

	var user *models.User
	err = s.store.RunInTx(ctx, func(ctx context.Context, tx StoreTx) error {
		user, err = tx.FindUserForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		event := &models.ScoreEvent{
			UserID:        userID,
			PointsAwarded: points,
			Reason:        models.ReasonManualAdjustment,
			Metadata:      models.ScoreEventMetadata{Note: fmt.Sprintf("admin %d: %s", adminID, note)},
		}
		if _, err := tx.InsertScoreEvent(ctx, event); err != nil {
			return err
		}
		user.CreditScore = scoring.ClampScore(user.CreditScore + points)
		if user.AutoLimitEnabled {
			if limit := scoring.LimitForScore(user.CreditScore, policy); limit > user.CreditLimit {
				user.CreditLimit = limit
			}
		}
		return tx.UpdateUserCredit(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	s.log.Infof("Score of user %d adjusted by %d points (admin %d)", userID, points, adminID)
	return user, nil
}

// GetUser retrieves a user's credit profile.
func (s *Service) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	return s.store.FindUserByID(ctx, userID)
}
