// Package payout implements the deterministic distribution arithmetic of the
// settlement core. Every calculator follows the same contract: validate the
// input shape, convert the gross amount to integer cents, allocate each
// recipient class its floored share, euro-floor every individual payout, and
// sweep all rounding residuals into the platform entry so that the paid
// amounts plus the platform amount reproduce the gross total cent-exactly.
//
// All functions are pure and stateless; they are safe to call concurrently
// and produce byte-identical output for identical input.
package payout

import (
	"github.com/visualplatform/settlement-core/internal/model"
	"github.com/visualplatform/settlement-core/internal/money"
)

// Rule weights are expressed in basis points (1/10000 of the gross total) so
// that every share computes as floor(weight*total) in pure integer
// arithmetic. Rounding down guarantees the platform never pays out more than
// it collected.
const (
	midTierShareBp  = 700  // investors ranked 11-100, equipartitioned
	platformShareBp = 2300 // platform base share on category close
	saleCreatorBp   = 7000 // creator share on unit sales (article and book)
	salePlatformBp  = 3000
	potAuthorsBp    = 6000 // monthly pot author class
	potReadersBp    = 4000 // monthly pot reader class
)

// Absolute TOP10 shares of the gross total, by final rank. These are the
// published category-close rates: investors receive 40% and creators 30% of
// the pool in aggregate, distributed by rank.
var (
	invTop10ShareBp  = [10]int64{1366, 683, 455, 341, 273, 228, 195, 171, 152, 137}
	portTop10ShareBp = [10]int64{1024, 512, 341, 256, 205, 171, 146, 128, 114, 102}
)

func shareCents(totalCents, bp int64) int64 {
	return totalCents * bp / 10000
}

// rankedEntry allocates one ranked individual's share and returns the entry
// along with the euro-floored amount actually paid.
func rankedEntry(entryType, recipientID, referenceID string, totalCents, bp int64, rank int) (model.PayoutEntry, int64) {
	amount := shareCents(totalCents, bp)
	paid := money.EuroFloor(amount)
	return model.PayoutEntry{
		Type:           entryType,
		RecipientID:    recipientID,
		AmountCents:    amount,
		AmountEurFloor: paid,
		Rank:           rank,
		ReferenceID:    referenceID,
	}, paid
}

// equipartition splits poolCents equally among the members using integer
// floor division and euro-floors each member's payout. The returned paid sum
// is what actually leaves the pool; everything else is residual. An empty
// member list pays nothing, routing the whole pool to the platform.
func equipartition(entryType, referenceID string, poolCents int64, members []string) ([]model.PayoutEntry, int64) {
	if len(members) == 0 {
		return nil, 0
	}
	perMember := poolCents / int64(len(members))
	paidPer := money.EuroFloor(perMember)

	entries := make([]model.PayoutEntry, 0, len(members))
	var paid int64
	for _, id := range members {
		entries = append(entries, model.PayoutEntry{
			Type:           entryType,
			RecipientID:    id,
			AmountCents:    perMember,
			AmountEurFloor: paidPer,
			ReferenceID:    referenceID,
		})
		paid += paidPer
	}
	return entries, paid
}

// finalize appends the platform entry and assembles the calculation. The
// platform receives everything not paid to recipients: its own base share
// plus every accumulated rounding residual. This is what makes the
// conservation invariant hold exactly.
func finalize(ruleVersion, referenceID string, totalCents, platformBaseCents, paidCents int64, entries []model.PayoutEntry) *model.PayoutCalculation {
	platformCents := totalCents - paidCents
	entries = append(entries, model.PayoutEntry{
		Type:           model.EntryPlatform,
		AmountCents:    platformCents,
		AmountEurFloor: platformCents,
		ReferenceID:    referenceID,
	})
	return &model.PayoutCalculation{
		RuleVersion:         ruleVersion,
		TotalAmountCents:    totalCents,
		Entries:             entries,
		PlatformAmountCents: platformCents,
		ResidualCents:       platformCents - platformBaseCents,
	}
}

// CloseCategory distributes a closed category's pool under the 40/30/7/23
// rule: absolute ranked shares for the TOP10 investors and TOP10 creators,
// equipartition of 7% across investors ranked 11-100, and a 23% platform
// base share that also absorbs all rounding residuals.
//
// Both TOP10 lists must contain exactly ten recipient IDs ordered by final
// rank; rank assignment is the caller's responsibility.
func CloseCategory(categoryID string, totalEUR float64, invTop10, portTop10, inv11to100 []string) (*model.PayoutCalculation, error) {
	if totalEUR <= 0 {
		return nil, &RuleInputError{Rule: model.RuleCategoryClose, Reason: "total amount must be positive"}
	}
	if len(invTop10) != 10 {
		return nil, &RuleInputError{Rule: model.RuleCategoryClose, Reason: "investor TOP10 list must contain exactly 10 recipients"}
	}
	if len(portTop10) != 10 {
		return nil, &RuleInputError{Rule: model.RuleCategoryClose, Reason: "creator TOP10 list must contain exactly 10 recipients"}
	}

	totalCents := money.ToCents(totalEUR)
	entries := make([]model.PayoutEntry, 0, len(invTop10)+len(portTop10)+len(inv11to100)+1)
	var paidCents int64

	for i, id := range invTop10 {
		entry, paid := rankedEntry(model.EntryInvestorTop10, id, categoryID, totalCents, invTop10ShareBp[i], i+1)
		entries = append(entries, entry)
		paidCents += paid
	}
	for i, id := range portTop10 {
		entry, paid := rankedEntry(model.EntryCreatorTop10, id, categoryID, totalCents, portTop10ShareBp[i], i+1)
		entries = append(entries, entry)
		paidCents += paid
	}

	midTierEntries, midTierPaid := equipartition(
		model.EntryInvestorMidTier, categoryID, shareCents(totalCents, midTierShareBp), inv11to100)
	entries = append(entries, midTierEntries...)
	paidCents += midTierPaid

	platformBase := shareCents(totalCents, platformShareBp)
	return finalize(model.RuleCategoryClose, categoryID, totalCents, platformBase, paidCents, entries), nil
}

// ArticleSale splits a unit article sale 70/30 between the writing creator
// and the platform. The creator's payout is euro-floored like every other
// individual payout; the sub-euro difference joins the platform's 30% fee.
func ArticleSale(orderID string, grossEUR float64, creatorID string) (*model.PayoutCalculation, error) {
	return unitSale(model.RuleArticleSale, model.EntryCreatorSale, orderID, grossEUR, creatorID)
}

// BookSale splits a unit book sale 70/30 between the author and the platform.
func BookSale(orderID string, grossEUR float64, authorID string) (*model.PayoutCalculation, error) {
	return unitSale(model.RuleBookSale, model.EntryAuthorSale, orderID, grossEUR, authorID)
}

func unitSale(ruleVersion, entryType, orderID string, grossEUR float64, recipientID string) (*model.PayoutCalculation, error) {
	if grossEUR <= 0 {
		return nil, &RuleInputError{Rule: ruleVersion, Reason: "gross amount must be positive"}
	}
	if recipientID == "" {
		return nil, &RuleInputError{Rule: ruleVersion, Reason: "recipient ID is required"}
	}

	totalCents := money.ToCents(grossEUR)
	amount := shareCents(totalCents, saleCreatorBp)
	paid := money.EuroFloor(amount)

	entries := []model.PayoutEntry{{
		Type:           entryType,
		RecipientID:    recipientID,
		AmountCents:    amount,
		AmountEurFloor: paid,
		ReferenceID:    orderID,
	}}
	platformBase := shareCents(totalCents, salePlatformBp)
	return finalize(ruleVersion, orderID, totalCents, platformBase, paid, entries), nil
}
