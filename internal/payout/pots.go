package payout

import (
	"github.com/visualplatform/settlement-core/internal/model"
	"github.com/visualplatform/settlement-core/internal/money"
)

// MonthlyPot distributes a monthly category pot 60/40 between the top
// authors and the winning readers, each class equipartitioned among its
// members. A class with no members routes its entire share to the platform.
func MonthlyPot(potID string, potEUR float64, authors, readers []string) (*model.PayoutCalculation, error) {
	if potEUR <= 0 {
		return nil, &RuleInputError{Rule: model.RuleMonthlyPot, Reason: "pot amount must be positive"}
	}

	totalCents := money.ToCents(potEUR)
	var entries []model.PayoutEntry
	var paidCents int64

	authorEntries, authorsPaid := equipartition(
		model.EntryAuthorPot, potID, shareCents(totalCents, potAuthorsBp), authors)
	entries = append(entries, authorEntries...)
	paidCents += authorsPaid

	readerEntries, readersPaid := equipartition(
		model.EntryReaderPot, potID, shareCents(totalCents, potReadersBp), readers)
	entries = append(entries, readerEntries...)
	paidCents += readersPaid

	// The pot has no nominal platform weight; everything the platform
	// receives here is residual.
	return finalize(model.RuleMonthlyPot, potID, totalCents, 0, paidCents, entries), nil
}

// Pot24h equipartitions a time-boxed pot among its winner set. The
// non-divisible remainder and each winner's sub-euro dust go entirely to the
// platform entry, never fractionally to a winner. An empty winner set routes
// the whole pot to the platform.
func Pot24h(potID string, potEUR float64, winners []string) (*model.PayoutCalculation, error) {
	if potEUR <= 0 {
		return nil, &RuleInputError{Rule: model.RulePot24h, Reason: "pot amount must be positive"}
	}

	totalCents := money.ToCents(potEUR)
	entries, paidCents := equipartition(model.EntryPotWinner, potID, totalCents, winners)
	return finalize(model.RulePot24h, potID, totalCents, 0, paidCents, entries), nil
}
