package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/visualplatform/settlement-core/internal/apperrors"
	"github.com/visualplatform/settlement-core/internal/audit"
	"github.com/visualplatform/settlement-core/internal/model"
	"github.com/visualplatform/settlement-core/internal/repository"
)

// Anomaly heuristic thresholds. An outlier is an entry more than ten times
// its type's average; a burst is more than ten sub-euro entries hitting the
// same reference inside one minute.
const (
	outlierFactor       = 10
	outlierMinSamples   = 5
	microPaymentCents   = 100
	burstThreshold      = 10
	burstWindow         = time.Minute
	anomalyScanRowLimit = 10000
)

// ReconciliationService compares the ledger's settled amounts against the
// external payment processor's report and scans for anomalous ledger
// patterns. Reconciliation is read-only: it reports, it never corrects.
type ReconciliationService struct {
	ledgerRepo    *repository.LedgerRepository
	processorRepo *repository.ProcessorSettlementRepository
	trail         *audit.TrailService
}

// NewReconciliationService creates a new ReconciliationService with the
// provided repositories and audit trail.
func NewReconciliationService(
	ledgerRepo *repository.LedgerRepository,
	processorRepo *repository.ProcessorSettlementRepository,
	trail *audit.TrailService,
) *ReconciliationService {
	return &ReconciliationService{
		ledgerRepo:    ledgerRepo,
		processorRepo: processorRepo,
		trail:         trail,
	}
}

// IngestProcessorReport stores a batch of processor-reported charges for
// later reconciliation. Re-uploads of the same report are safe; already
// stored charges are skipped. Returns the number of newly stored charges.
func (s *ReconciliationService) IngestProcessorReport(ctx context.Context, charges []model.ProcessorCharge) (int, error) {
	for _, charge := range charges {
		if charge.ReferenceID == "" {
			return 0, fmt.Errorf("%w: charge reference", apperrors.ErrEmptyID)
		}
		if charge.AmountCents < 0 {
			return 0, apperrors.ErrNegativeAmount
		}
	}
	return s.processorRepo.IngestCharges(ctx, charges)
}

// Run reconciles the given date range: both sides are fetched concurrently,
// compared per reference, and the outcome is appended to the audit trail.
func (s *ReconciliationService) Run(ctx context.Context, actor string, startDate, endDate time.Time) (*model.ReconciliationReport, error) {
	var (
		ledgerTotals map[string]int64
		charges      []model.ProcessorCharge
		entries      []model.LedgerEntry
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ledgerTotals, err = s.ledgerRepo.SettledTotalsByReference(gctx, startDate, endDate)
		return err
	})
	g.Go(func() error {
		var err error
		charges, err = s.processorRepo.SettledCharges(gctx, startDate, endDate)
		return err
	})
	g.Go(func() error {
		var err error
		entries, err = s.ledgerRepo.GetLedgerEntries(gctx,
			model.LedgerFilter{StartDate: startDate, EndDate: endDate}, anomalyScanRowLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrFailedToRunReconciliation, err)
	}

	processorTotals := make(map[string]int64, len(charges))
	for _, charge := range charges {
		processorTotals[charge.ReferenceID] += charge.AmountCents
	}

	report := &model.ReconciliationReport{
		StartDate:  startDate,
		EndDate:    endDate,
		Mismatches: []model.ReconciliationMismatch{},
		RanAt:      time.Now().UTC(),
	}

	for _, referenceID := range sortedKeys(ledgerTotals, processorTotals) {
		ledgerCents, inLedger := ledgerTotals[referenceID]
		processorCents, inProcessor := processorTotals[referenceID]

		report.TotalCount++
		switch {
		case !inProcessor:
			report.Mismatches = append(report.Mismatches, model.ReconciliationMismatch{
				ReferenceID:       referenceID,
				LedgerAmountCents: ledgerCents,
				Reason:            "settled in ledger but absent from processor report",
			})
		case !inLedger:
			report.Mismatches = append(report.Mismatches, model.ReconciliationMismatch{
				ReferenceID:          referenceID,
				ProcessorAmountCents: processorCents,
				Reason:               "reported by processor but not settled in ledger",
			})
		case ledgerCents != processorCents:
			report.Mismatches = append(report.Mismatches, model.ReconciliationMismatch{
				ReferenceID:          referenceID,
				LedgerAmountCents:    ledgerCents,
				ProcessorAmountCents: processorCents,
				Reason:               fmt.Sprintf("amounts differ by %d cents", ledgerCents-processorCents),
			})
		default:
			report.MatchedCount++
		}
	}

	report.MismatchedCount = len(report.Mismatches)
	if report.TotalCount > 0 {
		report.DivergenceRatio = float64(report.MismatchedCount) / float64(report.TotalCount)
	}
	report.Warnings = scanAnomalies(entries)

	if err := s.trail.Append(actor, audit.ReconciliationCompleted{
		TotalCount:      report.TotalCount,
		MismatchedCount: report.MismatchedCount,
		DivergenceRatio: report.DivergenceRatio,
		WarningCount:    len(report.Warnings),
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrFailedToAppendAudit, err)
	}

	return report, nil
}

// scanAnomalies applies the heuristic checks over a window of ledger entries:
// per-type amount outliers and micro-payment bursts per reference. Warnings
// flag patterns for human review; they never block processing.
func scanAnomalies(entries []model.LedgerEntry) []model.AnomalyWarning {
	warnings := []model.AnomalyWarning{}

	sums := make(map[string]int64)
	counts := make(map[string]int64)
	for _, entry := range entries {
		sums[entry.TransactionType] += entry.GrossAmountCents
		counts[entry.TransactionType]++
	}

	for _, entry := range entries {
		count := counts[entry.TransactionType]
		if count < outlierMinSamples {
			continue
		}
		average := sums[entry.TransactionType] / count
		if average > 0 && entry.GrossAmountCents > average*outlierFactor {
			warnings = append(warnings, model.AnomalyWarning{
				Type:        model.AnomalyOutlierAmount,
				ReferenceID: entry.ReferenceID,
				RecipientID: entry.RecipientID,
				AmountCents: entry.GrossAmountCents,
				Detail: fmt.Sprintf("%s entry exceeds %dx the type average of %d cents",
					entry.TransactionType, outlierFactor, average),
			})
		}
	}

	warnings = append(warnings, scanBursts(entries)...)
	return warnings
}

// scanBursts flags references receiving more than burstThreshold sub-euro
// entries within a single burstWindow, a pattern typical of fee-probing or
// automated abuse.
func scanBursts(entries []model.LedgerEntry) []model.AnomalyWarning {
	byReference := make(map[string][]time.Time)
	for _, entry := range entries {
		if entry.GrossAmountCents >= microPaymentCents || entry.GrossAmountCents == 0 {
			continue
		}
		byReference[entry.ReferenceID] = append(byReference[entry.ReferenceID], entry.CreatedAt)
	}

	warnings := []model.AnomalyWarning{}
	for _, referenceID := range sortedKeys(byReference, nil) {
		stamps := byReference[referenceID]
		sort.Slice(stamps, func(i, j int) bool { return stamps[i].Before(stamps[j]) })

		start := 0
		for end := range stamps {
			for stamps[end].Sub(stamps[start]) > burstWindow {
				start++
			}
			if end-start+1 > burstThreshold {
				warnings = append(warnings, model.AnomalyWarning{
					Type:        model.AnomalyMicroPaymentBurst,
					ReferenceID: referenceID,
					Detail: fmt.Sprintf("%d sub-euro entries within %s",
						end-start+1, burstWindow),
				})
				break
			}
		}
	}

	return warnings
}

// sortedKeys merges the key sets of both maps and sorts them so report output
// is deterministic. Either map may be nil.
func sortedKeys[V any](a, b map[string]V) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	keys := make([]string, 0, len(a)+len(b))
	for k := range a {
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	for k := range b {
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
