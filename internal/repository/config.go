package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/pesalink/loan-service/internal/models"
	"github.com/pesalink/loan-service/internal/scoring"
)

// ScoringPolicy fetches and decodes the repayment scoring policy from the
// system_config table. The document is decoded into a typed struct once per
// call; the scoring engine never sees raw JSON.
func (r *Repository) ScoringPolicy(ctx context.Context) (scoring.Policy, error) {
	var raw []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT value FROM loans.system_config
		WHERE category = $1 AND key = $2`,
		"credit_score", "repayment_scoring").
		Scan(&raw)
	if err == sql.ErrNoRows {
		return scoring.Policy{}, fmt.Errorf("scoring policy not configured: %w", models.ErrNotFound)
	}
	if err != nil {
		return scoring.Policy{}, fmt.Errorf("failed to load scoring policy: %w", err)
	}

	var policy scoring.Policy
	if err := json.Unmarshal(raw, &policy); err != nil {
		return scoring.Policy{}, fmt.Errorf("failed to decode scoring policy: %w", err)
	}
	return policy, nil
}
