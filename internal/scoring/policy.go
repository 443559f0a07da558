// Package scoring computes credit-score awards for repayment events. All
// functions are pure: same inputs, same output, no I/O.
package scoring

import "math"

// Score bounds for all users.
const (
	MinScore = 300
	MaxScore = 850
)

// AmountTier maps a repayment amount range to a multiplier. MaxAmount <= 0
// marks an open-ended top tier.
type AmountTier struct {
	MinAmount  float64 `json:"minAmount"`
	MaxAmount  float64 `json:"maxAmount"`
	Multiplier float64 `json:"multiplier"`
}

// DurationTier maps days elapsed since disbursement to a multiplier.
// MaxDays <= 0 marks an open-ended top tier.
type DurationTier struct {
	MinDays    int     `json:"minDays"`
	MaxDays    int     `json:"maxDays"`
	Multiplier float64 `json:"multiplier"`
}

// LimitTier maps a minimum credit score to a credit limit.
type LimitTier struct {
	MinScore int     `json:"minScore"`
	Limit    float64 `json:"limit"`
}

// Policy is the repayment scoring policy document, stored in system_config
// under ('credit_score', 'repayment_scoring'). Read-only to this package.
type Policy struct {
	BasePoints                   float64        `json:"basePoints"`
	AmountMultipliers            []AmountTier   `json:"amountMultipliers"`
	DurationMultipliers          []DurationTier `json:"durationMultipliers"`
	MaxPointsPerTransaction      int            `json:"maxPointsPerTransaction"`
	EnablePartialRepayments      bool           `json:"enablePartialRepayments"`
	MinPointsForPartialRepayment int            `json:"minPointsForPartialRepayment"`
	DefaultPenaltyPoints         int            `json:"defaultPenaltyPoints"`
	LimitTiers                   []LimitTier    `json:"limitTiers"`
}

// AwardInput is one qualifying repayment event.
type AwardInput struct {
	RepaymentAmount float64
	LoanAmount      float64
	DaysElapsed     int
	FullRepayment   bool
	Partial         bool
}

// Award is the computed point award plus its breakdown for the ledger.
type Award struct {
	Points             int
	Reason             string
	AmountMultiplier   float64
	DurationMultiplier float64
}

// amountMultiplier picks the tier containing amount. Out-of-range amounts
// clamp to the nearest tier: below the lowest min uses the lowest tier,
// above every max uses the highest tier whose min is satisfied.
func amountMultiplier(tiers []AmountTier, amount float64) float64 {
	if len(tiers) == 0 {
		return 1
	}
	best := tiers[0]
	for _, t := range tiers {
		if amount >= t.MinAmount && (t.MaxAmount <= 0 || amount <= t.MaxAmount) {
			return t.Multiplier
		}
		if amount >= t.MinAmount && t.MinAmount >= best.MinAmount {
			best = t
		}
	}
	return best.Multiplier
}

func durationMultiplier(tiers []DurationTier, days int) float64 {
	if len(tiers) == 0 {
		return 1
	}
	if days < 0 {
		days = 0
	}
	best := tiers[0]
	for _, t := range tiers {
		if days >= t.MinDays && (t.MaxDays <= 0 || days <= t.MaxDays) {
			return t.Multiplier
		}
		if days >= t.MinDays && t.MinDays >= best.MinDays {
			best = t
		}
	}
	return best.Multiplier
}

// ComputeAward maps a repayment event to a point award under p.
func ComputeAward(in AwardInput, p Policy) Award {
	a := Award{
		Reason:             "partial_repayment",
		AmountMultiplier:   amountMultiplier(p.AmountMultipliers, in.RepaymentAmount),
		DurationMultiplier: durationMultiplier(p.DurationMultipliers, in.DaysElapsed),
	}
	if in.FullRepayment {
		a.Reason = "loan_completed"
	}

	points := int(math.Round(p.BasePoints * a.AmountMultiplier * a.DurationMultiplier))
	if p.MaxPointsPerTransaction > 0 && points > p.MaxPointsPerTransaction {
		points = p.MaxPointsPerTransaction
	}
	if points < 0 {
		points = 0
	}

	if in.Partial {
		if !p.EnablePartialRepayments {
			points = 0
		} else if points < p.MinPointsForPartialRepayment {
			points = 0
		}
	}

	a.Points = points
	return a
}

// ClampScore bounds a score into [MinScore, MaxScore].
func ClampScore(score int) int {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

// LimitForScore returns the configured credit limit for score: the limit of
// the highest tier whose MinScore is satisfied, 0 when none matches. The
// step function is non-decreasing as long as tiers are configured sanely;
// callers ratchet with the user's current limit so limits never shrink.
func LimitForScore(score int, p Policy) float64 {
	limit := 0.0
	minSeen := -1
	for _, t := range p.LimitTiers {
		if score >= t.MinScore && t.MinScore > minSeen {
			minSeen = t.MinScore
			limit = t.Limit
		}
	}
	return limit
}
