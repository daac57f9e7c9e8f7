package payout

import (
	"fmt"

	"github.com/visualplatform/settlement-core/internal/apperrors"
)

// RuleInputError reports input that violates the shape a distribution rule
// expects. It is returned before any arithmetic runs, so a short ranked list
// can never silently misallocate money.
type RuleInputError struct {
	Rule   string
	Reason string
}

func (e *RuleInputError) Error() string {
	return fmt.Sprintf("invalid input for rule %s: %s", e.Rule, e.Reason)
}

// Unwrap allows errors.Is(err, apperrors.ErrInvalidRuleInput).
func (e *RuleInputError) Unwrap() error {
	return apperrors.ErrInvalidRuleInput
}

// BelowThresholdError reports a points conversion request whose balance is
// under the minimum conversion threshold. It carries the shortfall so the
// caller can decide how to surface it.
type BelowThresholdError struct {
	AvailablePoints int64
	Threshold       int64
}

func (e *BelowThresholdError) Error() string {
	return fmt.Sprintf("available points %d below conversion threshold %d (short %d)",
		e.AvailablePoints, e.Threshold, e.Shortfall())
}

// Shortfall returns how many points are missing to reach the threshold.
func (e *BelowThresholdError) Shortfall() int64 {
	return e.Threshold - e.AvailablePoints
}

// Unwrap allows errors.Is(err, apperrors.ErrBelowThreshold).
func (e *BelowThresholdError) Unwrap() error {
	return apperrors.ErrBelowThreshold
}
