package model

// Payout entry types identify the recipient class an entry belongs to.
const (
	EntryInvestorTop10      = "investor_top10"
	EntryCreatorTop10       = "creator_top10"
	EntryInvestorMidTier    = "investor_11_100"
	EntryCreatorSale        = "creator_sale"
	EntryAuthorSale         = "author_sale"
	EntryAuthorPot          = "author_pot"
	EntryReaderPot          = "reader_pot"
	EntryPotWinner          = "pot_winner"
	EntryPointsConversion   = "points_conversion"
	EntryGoldenTicketRefund = "golden_ticket_refund"
	EntryExtension          = "category_extension"
	EntryPlatform           = "platform"
)

// Distribution rule versions. A rule version names the exact formula used for
// a calculation and is persisted with every ledger row it produced, so the
// arithmetic behind any historical payout can be re-derived.
const (
	RuleCategoryClose   = "cat_close_40_30_7_23_v1"
	RuleArticleSale     = "article_sale_30_70_v1"
	RuleBookSale        = "book_sale_70_30_v1"
	RuleMonthlyPot      = "pot_monthly_60_40_v1"
	RulePot24h          = "pot_24h_equal_v1"
	RulePointsConvert   = "visupoints_convert_v1"
	RuleGoldenTicket    = "golden_ticket_refund_v1"
	RuleExtensionCharge = "extension_charge_v1"
)

// PayoutEntry is one recipient's (or the platform's) slice of a distribution.
//
// AmountCents is the cent-exact share allocated to the recipient by the rule's
// weights. AmountEurFloor is the amount actually paid out: AmountCents rounded
// down to the nearest whole euro. The difference is never paid to a recipient;
// it is swept into the platform entry together with all other rounding dust.
type PayoutEntry struct {
	Type           string `json:"type"`
	RecipientID    string `json:"recipientId,omitempty"`
	AmountCents    int64  `json:"amountCents"`
	AmountEurFloor int64  `json:"amountEurFloor"`
	Rank           int    `json:"rank,omitempty"`
	ReferenceID    string `json:"referenceId"`
}

// PayoutCalculation is the complete, deterministic result of one distribution.
//
// Conservation invariant: the sum of every entry's AmountEurFloor plus
// PlatformAmountCents equals TotalAmountCents exactly. The platform is the
// sink for all rounding residuals, so no cent is ever lost or fabricated.
type PayoutCalculation struct {
	RuleVersion         string        `json:"ruleVersion"`
	TotalAmountCents    int64         `json:"totalAmountCents"`
	Entries             []PayoutEntry `json:"entries"`
	PlatformAmountCents int64         `json:"platformAmountCents"`
	ResidualCents       int64         `json:"residualCents"`
}

// PointsConversion is the result of converting a points balance to euros.
// Only the largest multiple of the exchange rate not exceeding the balance is
// converted; the remainder stays with the user.
type PointsConversion struct {
	UserID          string `json:"userId"`
	PointsConverted int64  `json:"pointsConverted"`
	PointsRemaining int64  `json:"pointsRemaining"`
	AmountCents     int64  `json:"amountCents"`
}

// GoldenTicketRefund is the result of a tiered refund computation for a
// single golden-ticket holder.
type GoldenTicketRefund struct {
	UserID          string `json:"userId"`
	Rank            int    `json:"rank"`
	InvestmentCents int64  `json:"investmentCents"`
	RefundPercent   int    `json:"refundPercent"`
	RefundCents     int64  `json:"refundCents"`
}
