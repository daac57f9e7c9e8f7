package payout

import (
	"github.com/visualplatform/settlement-core/internal/model"
	"github.com/visualplatform/settlement-core/internal/money"
)

// goldenTicketRefundPercent maps a golden ticket's final rank to its refund
// percentage. Ranks beyond the table refund nothing.
var goldenTicketRefundPercent = map[int]int{
	1: 100,
	2: 85,
	3: 70,
	4: 55,
	5: 40,
	6: 25,
}

// GoldenTicketRefund computes the tiered refund for a single golden-ticket
// holder based on their final rank. This is a single-recipient computation,
// so there is no rounding-residual bookkeeping: refund percentages are whole
// and the result is exact in cents.
func GoldenTicketRefund(userID string, investmentEUR float64, rank int) (*model.GoldenTicketRefund, error) {
	if userID == "" {
		return nil, &RuleInputError{Rule: model.RuleGoldenTicket, Reason: "user ID is required"}
	}
	if investmentEUR <= 0 {
		return nil, &RuleInputError{Rule: model.RuleGoldenTicket, Reason: "investment amount must be positive"}
	}
	if rank < 1 {
		return nil, &RuleInputError{Rule: model.RuleGoldenTicket, Reason: "rank must be at least 1"}
	}

	investmentCents := money.ToCents(investmentEUR)
	percent := goldenTicketRefundPercent[rank] // ranks >= 7 map to 0

	return &model.GoldenTicketRefund{
		UserID:          userID,
		Rank:            rank,
		InvestmentCents: investmentCents,
		RefundPercent:   percent,
		RefundCents:     investmentCents * int64(percent) / 100,
	}, nil
}
