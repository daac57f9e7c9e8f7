package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/visualplatform/settlement-core/internal/apperrors"
	"github.com/visualplatform/settlement-core/internal/audit"
	"github.com/visualplatform/settlement-core/internal/model"
	"github.com/visualplatform/settlement-core/internal/payout"
	"github.com/visualplatform/settlement-core/internal/repository"
)

// SettlementService orchestrates the settlement pipeline: run a pure payout
// calculation, persist its entries to the ledger under deterministic
// idempotency keys, and append the decision to the audit trail. Re-running
// any operation with identical inputs converges on the same ledger rows.
type SettlementService struct {
	ledgerRepo *repository.LedgerRepository
	trail      *audit.TrailService
	points     payout.PointsPolicy
}

// NewSettlementService creates a new SettlementService with the provided
// repository, audit trail and points policy.
func NewSettlementService(
	ledgerRepo *repository.LedgerRepository,
	trail *audit.TrailService,
	points payout.PointsPolicy,
) *SettlementService {
	return &SettlementService{
		ledgerRepo: ledgerRepo,
		trail:      trail,
		points:     points,
	}
}

// CloseCategory settles a closed category's pool under the 40/30/7/23 rule
// and records every resulting payout in the ledger.
func (s *SettlementService) CloseCategory(ctx context.Context, actor, categoryID string, totalEUR float64, invTop10, portTop10, inv11to100 []string) (*model.PayoutCalculation, []model.LedgerEntry, error) {
	calc, err := payout.CloseCategory(categoryID, totalEUR, invTop10, portTop10, inv11to100)
	if err != nil {
		return nil, nil, err
	}
	entries, err := s.persistCalculation(ctx, actor, calc, "category")
	if err != nil {
		return nil, nil, err
	}
	return calc, entries, nil
}

// ProcessArticleSale settles a unit article sale 70/30 between the creator
// and the platform.
func (s *SettlementService) ProcessArticleSale(ctx context.Context, actor, orderID string, grossEUR float64, creatorID string) (*model.PayoutCalculation, []model.LedgerEntry, error) {
	calc, err := payout.ArticleSale(orderID, grossEUR, creatorID)
	if err != nil {
		return nil, nil, err
	}
	entries, err := s.persistCalculation(ctx, actor, calc, "order")
	if err != nil {
		return nil, nil, err
	}
	return calc, entries, nil
}

// ProcessBookSale settles a unit book sale 70/30 between the author and the
// platform.
func (s *SettlementService) ProcessBookSale(ctx context.Context, actor, orderID string, grossEUR float64, authorID string) (*model.PayoutCalculation, []model.LedgerEntry, error) {
	calc, err := payout.BookSale(orderID, grossEUR, authorID)
	if err != nil {
		return nil, nil, err
	}
	entries, err := s.persistCalculation(ctx, actor, calc, "order")
	if err != nil {
		return nil, nil, err
	}
	return calc, entries, nil
}

// DistributeMonthlyPot settles a monthly pot 60/40 between authors and
// readers.
func (s *SettlementService) DistributeMonthlyPot(ctx context.Context, actor, potID string, potEUR float64, authors, readers []string) (*model.PayoutCalculation, []model.LedgerEntry, error) {
	calc, err := payout.MonthlyPot(potID, potEUR, authors, readers)
	if err != nil {
		return nil, nil, err
	}
	entries, err := s.persistCalculation(ctx, actor, calc, "pot")
	if err != nil {
		return nil, nil, err
	}
	return calc, entries, nil
}

// DistributePot24h equipartitions a time-boxed pot among its winners.
func (s *SettlementService) DistributePot24h(ctx context.Context, actor, potID string, potEUR float64, winners []string) (*model.PayoutCalculation, []model.LedgerEntry, error) {
	calc, err := payout.Pot24h(potID, potEUR, winners)
	if err != nil {
		return nil, nil, err
	}
	entries, err := s.persistCalculation(ctx, actor, calc, "pot")
	if err != nil {
		return nil, nil, err
	}
	return calc, entries, nil
}

// ConvertPoints converts a user's points balance to euros under the
// configured policy and records the resulting payout in the ledger. The
// caller-supplied conversionID identifies this conversion: retrying the same
// conversionID converges on one ledger row, while a fresh conversionID
// records a new conversion even when the balance happens to be identical.
func (s *SettlementService) ConvertPoints(ctx context.Context, actor, userID, conversionID string, availablePoints int64) (*model.PointsConversion, *model.LedgerEntry, error) {
	if conversionID == "" {
		return nil, nil, fmt.Errorf("%w: conversion", apperrors.ErrEmptyID)
	}

	conversion, err := payout.ConvertPoints(userID, availablePoints, s.points)
	if err != nil {
		return nil, nil, err
	}

	entry, err := s.ledgerRepo.CreateLedgerEntry(ctx, &model.LedgerEntry{
		TransactionType:  model.EntryPointsConversion,
		ReferenceID:      conversionID,
		ReferenceType:    "points_conversion",
		RecipientID:      userID,
		GrossAmountCents: conversion.AmountCents,
		NetAmountCents:   conversion.AmountCents,
		IdempotencyKey:   repository.IdempotencyKey(model.RulePointsConvert, conversionID, userID, model.EntryPointsConversion),
		PayoutRule:       model.RulePointsConvert,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrFailedToRecordLedgerEntry, err)
	}

	s.auditAppend(actor, audit.PointsConverted{
		UserID:          conversion.UserID,
		PointsConverted: conversion.PointsConverted,
		PointsRemaining: conversion.PointsRemaining,
		AmountCents:     conversion.AmountCents,
	})

	return conversion, entry, nil
}

// GoldenTicketRefund computes the tiered refund for a golden-ticket holder
// and, when the refund is non-zero, records it in the ledger. A rank outside
// the refund table yields a zero refund and no ledger row, but the decision
// is still audited.
func (s *SettlementService) GoldenTicketRefund(ctx context.Context, actor, userID, referenceID string, investmentEUR float64, rank int) (*model.GoldenTicketRefund, *model.LedgerEntry, error) {
	refund, err := payout.GoldenTicketRefund(userID, investmentEUR, rank)
	if err != nil {
		return nil, nil, err
	}

	var entry *model.LedgerEntry
	if refund.RefundCents > 0 {
		entry, err = s.ledgerRepo.CreateLedgerEntry(ctx, &model.LedgerEntry{
			TransactionType:  model.EntryGoldenTicketRefund,
			ReferenceID:      referenceID,
			ReferenceType:    "golden_ticket",
			RecipientID:      userID,
			GrossAmountCents: refund.RefundCents,
			NetAmountCents:   refund.RefundCents,
			IdempotencyKey:   repository.IdempotencyKey(model.RuleGoldenTicket, referenceID, userID, model.EntryGoldenTicketRefund),
			PayoutRule:       model.RuleGoldenTicket,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrFailedToRecordLedgerEntry, err)
		}
	}

	s.auditAppend(actor, audit.RefundComputed{
		UserID:          refund.UserID,
		ReferenceID:     referenceID,
		Rank:            refund.Rank,
		InvestmentCents: refund.InvestmentCents,
		RefundCents:     refund.RefundCents,
	})

	return refund, entry, nil
}

// RecordExtensionPayment records a category extension purchase as a
// platform-bound charge. Extensions carry no distribution: the full amount
// goes to the platform. The per-purchase paymentIntentID is the idempotency
// reference, so a payer buying a second extension for the same category
// records a second charge while a retried callback converges on one row.
func (s *SettlementService) RecordExtensionPayment(ctx context.Context, actor, categoryID, payerID, paymentIntentID string, amountCents int64) (*model.LedgerEntry, error) {
	if categoryID == "" || payerID == "" || paymentIntentID == "" {
		return nil, fmt.Errorf("%w: category, payer and payment intent", apperrors.ErrEmptyID)
	}
	if amountCents <= 0 {
		return nil, apperrors.ErrNegativeAmount
	}

	entry, err := s.ledgerRepo.CreateLedgerEntry(ctx, &model.LedgerEntry{
		TransactionType:  model.EntryExtension,
		ReferenceID:      paymentIntentID,
		ReferenceType:    "payment_intent",
		RecipientID:      payerID,
		GrossAmountCents: amountCents,
		NetAmountCents:   amountCents,
		IdempotencyKey:   repository.IdempotencyKey(model.RuleExtensionCharge, paymentIntentID, payerID, model.EntryExtension),
		PayoutRule:       model.RuleExtensionCharge,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrFailedToRecordLedgerEntry, err)
	}

	s.auditAppend(actor, audit.ChargeRecorded{
		ReferenceID: paymentIntentID,
		CategoryID:  categoryID,
		PayerID:     payerID,
		AmountCents: amountCents,
	})

	return entry, nil
}

// MarkLedgerStatus transitions a pending ledger entry to completed or failed
// as payment execution reports back.
func (s *SettlementService) MarkLedgerStatus(ctx context.Context, actor, idempotencyKey, newStatus, externalPaymentRef string) (*model.LedgerEntry, error) {
	entry, err := s.ledgerRepo.UpdateStatus(ctx, idempotencyKey, newStatus, externalPaymentRef)
	if err != nil {
		return nil, err
	}

	s.auditAppend(actor, audit.LedgerStatusChanged{
		IdempotencyKey: idempotencyKey,
		FromStatus:     model.LedgerStatusPending,
		ToStatus:       entry.Status,
	})

	return entry, nil
}

// LedgerEntries retrieves ledger entries matching the filter, newest first.
func (s *SettlementService) LedgerEntries(ctx context.Context, filter model.LedgerFilter, limit int) ([]model.LedgerEntry, error) {
	entries, err := s.ledgerRepo.GetLedgerEntries(ctx, filter, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrFailedToRetrieveLedgerEntries, err)
	}
	return entries, nil
}

// FinancialMetrics aggregates ledger activity within the given range.
func (s *SettlementService) FinancialMetrics(ctx context.Context, startDate, endDate time.Time) (*model.FinancialMetrics, error) {
	totals, err := s.ledgerRepo.Totals(ctx, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrFailedToRetrieveMetrics, err)
	}
	pending, err := s.ledgerRepo.CountByStatus(ctx, model.LedgerStatusPending)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrFailedToRetrieveMetrics, err)
	}

	metrics := &model.FinancialMetrics{
		TotalProcessedCents: totals.GrossAmountCents,
		TotalFeesCents:      totals.FeeCents,
		TotalPayoutsCents:   totals.NetAmountCents,
		LedgerEntries:       totals.EntryCount,
		PendingEntries:      pending,
	}
	if totals.EntryCount > 0 {
		metrics.AverageEntryCents = totals.GrossAmountCents / totals.EntryCount
	}

	return metrics, nil
}

// FinancialReport builds a per-period breakdown of ledger activity and runs
// an audit trail integrity check alongside it.
func (s *SettlementService) FinancialReport(ctx context.Context, period string, startDate, endDate time.Time) (*model.FinancialReport, error) {
	metrics, err := s.FinancialMetrics(ctx, startDate, endDate)
	if err != nil {
		return nil, err
	}
	totalsByType, err := s.ledgerRepo.TotalsByType(ctx, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrFailedToRetrieveMetrics, err)
	}
	findings, err := s.trail.VerifyFile()
	if err != nil {
		return nil, err
	}

	return &model.FinancialReport{
		Period:            period,
		Metrics:           *metrics,
		TotalsByType:      totalsByType,
		AuditTrailIntact:  len(findings) == 0,
		AuditFindingCount: len(findings),
		GeneratedAt:       time.Now().UTC(),
	}, nil
}

// persistCalculation writes every entry of a calculation to the ledger under
// its deterministic idempotency key and audits the payout. Gross is the
// allocated share, net the euro-floored amount actually paid, and fee the
// sub-euro difference swept to the platform.
func (s *SettlementService) persistCalculation(ctx context.Context, actor string, calc *model.PayoutCalculation, referenceType string) ([]model.LedgerEntry, error) {
	stored := make([]model.LedgerEntry, 0, len(calc.Entries))
	for _, entry := range calc.Entries {
		row, err := s.ledgerRepo.CreateLedgerEntry(ctx, &model.LedgerEntry{
			TransactionType:  entry.Type,
			ReferenceID:      entry.ReferenceID,
			ReferenceType:    referenceType,
			RecipientID:      entry.RecipientID,
			GrossAmountCents: entry.AmountCents,
			NetAmountCents:   entry.AmountEurFloor,
			FeeCents:         entry.AmountCents - entry.AmountEurFloor,
			IdempotencyKey:   repository.IdempotencyKey(calc.RuleVersion, entry.ReferenceID, entry.RecipientID, entry.Type),
			PayoutRule:       calc.RuleVersion,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrFailedToRecordLedgerEntry, err)
		}
		stored = append(stored, *row)
	}

	s.auditAppend(actor, audit.PayoutRecorded{
		RuleVersion:         calc.RuleVersion,
		ReferenceID:         referenceIDOf(calc),
		TotalAmountCents:    calc.TotalAmountCents,
		PlatformAmountCents: calc.PlatformAmountCents,
		ResidualCents:       calc.ResidualCents,
		EntryCount:          len(calc.Entries),
	})

	return stored, nil
}

// auditAppend records an event without failing the settlement on audit I/O
// errors. The ledger rows are already durable at this point; losing them to
// a log write failure would be worse than a gap in the trail.
func (s *SettlementService) auditAppend(actor string, event audit.EventPayload) {
	if err := s.trail.Append(actor, event); err != nil {
		log.Printf("failed to append audit event %s: %v", event.EventType(), err)
	}
}

func referenceIDOf(calc *model.PayoutCalculation) string {
	if len(calc.Entries) == 0 {
		return ""
	}
	return calc.Entries[0].ReferenceID
}
