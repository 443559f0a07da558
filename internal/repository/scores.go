package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pesalink/loan-service/internal/models"
)

// InsertScoreEvent appends an immutable ledger entry. When the entry
// references a transaction that already has one, the partial unique index
// on transaction_id rejects the insert and (false, nil) is returned so the
// caller can treat the duplicate delivery as a no-op.
func (t *Tx) InsertScoreEvent(ctx context.Context, event *models.ScoreEvent) (bool, error) {
	metadata, err := json.Marshal(event.Metadata)
	if err != nil {
		return false, fmt.Errorf("failed to marshal score metadata: %w", err)
	}
	query := `
		INSERT INTO loans.credit_score_history (user_id, transaction_id, points_awarded,
			reason, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, CURRENT_TIMESTAMP)
		RETURNING id, created_at`
	err = t.tx.QueryRowContext(ctx, query, event.UserID, event.TransactionID,
		event.PointsAwarded, event.Reason, metadata).
		Scan(&event.ID, &event.CreatedAt)
	if isUniqueViolation(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to insert score event: %w", err)
	}
	return true, nil
}

// ScoreHistory lists a user's ledger entries, newest first.
func (r *Repository) ScoreHistory(ctx context.Context, userID int64, limit, offset int) ([]*models.ScoreEvent, error) {
	query := `
		SELECT id, user_id, transaction_id, points_awarded, reason, metadata, created_at
		FROM loans.credit_score_history
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list score history: %w", err)
	}
	defer rows.Close()

	var events []*models.ScoreEvent
	for rows.Next() {
		event := &models.ScoreEvent{}
		var metadata []byte
		if err := rows.Scan(&event.ID, &event.UserID, &event.TransactionID,
			&event.PointsAwarded, &event.Reason, &metadata, &event.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan score event: %w", err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &event.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal score metadata: %w", err)
			}
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate score history: %w", err)
	}
	return events, nil
}

// CountScoreHistory returns the number of ledger entries for a user.
func (r *Repository) CountScoreHistory(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM loans.credit_score_history WHERE user_id = $1`, userID).
		Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count score history: %w", err)
	}
	return count, nil
}
