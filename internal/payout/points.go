package payout

import (
	"github.com/visualplatform/settlement-core/internal/model"
)

// PointsPolicy holds the runtime parameters of the points-to-euro exchange.
type PointsPolicy struct {
	// Threshold is the minimum points balance required to convert.
	Threshold int64
	// Rate is how many points make one euro.
	Rate int64
}

// DefaultPointsPolicy matches the published exchange terms: 100 points per
// euro, conversions from 2500 points.
var DefaultPointsPolicy = PointsPolicy{Threshold: 2500, Rate: 100}

// ConvertPoints converts the largest multiple of the exchange rate not
// exceeding the user's balance into euros. The remainder stays with the user,
// it is never forfeited. Balances below the policy threshold fail with a
// BelowThresholdError carrying the shortfall.
func ConvertPoints(userID string, availablePoints int64, policy PointsPolicy) (*model.PointsConversion, error) {
	if userID == "" {
		return nil, &RuleInputError{Rule: model.RulePointsConvert, Reason: "user ID is required"}
	}
	if policy.Rate <= 0 {
		return nil, &RuleInputError{Rule: model.RulePointsConvert, Reason: "exchange rate must be positive"}
	}
	if availablePoints < policy.Threshold {
		return nil, &BelowThresholdError{AvailablePoints: availablePoints, Threshold: policy.Threshold}
	}

	pointsToConvert := availablePoints / policy.Rate * policy.Rate
	euros := pointsToConvert / policy.Rate

	return &model.PointsConversion{
		UserID:          userID,
		PointsConverted: pointsToConvert,
		PointsRemaining: availablePoints - pointsToConvert,
		AmountCents:     euros * 100,
	}, nil
}
