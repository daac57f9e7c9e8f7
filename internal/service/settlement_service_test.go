package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/visualplatform/settlement-core/internal/apperrors"
	"github.com/visualplatform/settlement-core/internal/model"
	"github.com/visualplatform/settlement-core/internal/testutil"
)

func TestCloseCategorySettlement(t *testing.T) {
	ctx := context.Background()

	t.Run("persists every entry and conserves the total", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestSettlementService(t, db)

		invTop10 := testutil.MakeRecipientIDs("inv", 10)
		portTop10 := testutil.MakeRecipientIDs("port", 10)
		midTier := testutil.MakeRecipientIDs("mid", 3)

		calc, entries, err := svc.CloseCategory(ctx, "admin-1", "cat-1", 10000, invTop10, portTop10, midTier)
		if err != nil {
			t.Fatalf("CloseCategory() returned unexpected error: %v", err)
		}

		// 10 investors + 10 creators + 3 mid-tier + platform.
		if len(entries) != 24 {
			t.Fatalf("expected 24 ledger entries, got %d", len(entries))
		}
		testutil.AssertRowCount(t, db, "ledger_entry", 24)

		var netSum int64
		for _, entry := range entries {
			if entry.Status != model.LedgerStatusPending {
				t.Errorf("entry %s status = %q, want pending", entry.ID, entry.Status)
			}
			if entry.PayoutRule != model.RuleCategoryClose {
				t.Errorf("entry %s rule = %q, want %s", entry.ID, entry.PayoutRule, model.RuleCategoryClose)
			}
			netSum += entry.NetAmountCents
		}
		if netSum != calc.TotalAmountCents {
			t.Errorf("ledger net sum = %d, want gross total %d", netSum, calc.TotalAmountCents)
		}
	})

	t.Run("re-running converges on the same rows", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestSettlementService(t, db)

		invTop10 := testutil.MakeRecipientIDs("inv", 10)
		portTop10 := testutil.MakeRecipientIDs("port", 10)

		_, first, err := svc.CloseCategory(ctx, "admin-1", "cat-1", 10000, invTop10, portTop10, nil)
		if err != nil {
			t.Fatalf("CloseCategory() returned unexpected error: %v", err)
		}
		_, second, err := svc.CloseCategory(ctx, "admin-1", "cat-1", 10000, invTop10, portTop10, nil)
		if err != nil {
			t.Fatalf("retried CloseCategory() returned unexpected error: %v", err)
		}

		if len(first) != len(second) {
			t.Fatalf("retry produced %d entries, want %d", len(second), len(first))
		}
		for i := range first {
			if first[i].ID != second[i].ID {
				t.Errorf("entry %d: retry returned a different row", i)
			}
		}
		testutil.AssertRowCount(t, db, "ledger_entry", len(first))
	})

	t.Run("propagates rule input failures", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestSettlementService(t, db)

		_, _, err := svc.CloseCategory(ctx, "admin-1", "cat-1", 10000,
			testutil.MakeRecipientIDs("inv", 9), testutil.MakeRecipientIDs("port", 10), nil)
		if !errors.Is(err, apperrors.ErrInvalidRuleInput) {
			t.Errorf("expected ErrInvalidRuleInput, got %v", err)
		}
		testutil.AssertRowCount(t, db, "ledger_entry", 0)
	})
}

func TestSaleSettlements(t *testing.T) {
	ctx := context.Background()

	t.Run("book sale splits 70/30", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestSettlementService(t, db)

		calc, entries, err := svc.ProcessBookSale(ctx, "system", "order-1", 19.99, "author-1")
		if err != nil {
			t.Fatalf("ProcessBookSale() returned unexpected error: %v", err)
		}

		if len(entries) != 2 {
			t.Fatalf("expected 2 ledger entries, got %d", len(entries))
		}
		author := entries[0]
		if author.GrossAmountCents != 1399 || author.NetAmountCents != 1300 {
			t.Errorf("author amounts = %d/%d, want 1399/1300", author.GrossAmountCents, author.NetAmountCents)
		}
		if author.FeeCents != 99 {
			t.Errorf("author fee = %d, want 99", author.FeeCents)
		}
		if calc.PlatformAmountCents != 699 {
			t.Errorf("platform = %d, want 699", calc.PlatformAmountCents)
		}
	})

	t.Run("article sale records the creator entry type", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestSettlementService(t, db)

		_, entries, err := svc.ProcessArticleSale(ctx, "system", "order-2", 5.00, "creator-1")
		if err != nil {
			t.Fatalf("ProcessArticleSale() returned unexpected error: %v", err)
		}
		if entries[0].TransactionType != model.EntryCreatorSale {
			t.Errorf("entry type = %q, want %s", entries[0].TransactionType, model.EntryCreatorSale)
		}
	})
}

func TestPotSettlements(t *testing.T) {
	ctx := context.Background()

	t.Run("24h pot equipartitions among winners", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestSettlementService(t, db)

		winners := []string{"reader-1", "reader-2", "reader-3"}
		calc, entries, err := svc.DistributePot24h(ctx, "system", "pot-1", 99.97, winners)
		if err != nil {
			t.Fatalf("DistributePot24h() returned unexpected error: %v", err)
		}

		if len(entries) != 4 {
			t.Fatalf("expected 4 ledger entries, got %d", len(entries))
		}
		for _, entry := range entries[:3] {
			if entry.NetAmountCents != 3300 {
				t.Errorf("winner %s net = %d, want 3300", entry.RecipientID, entry.NetAmountCents)
			}
		}
		if calc.PlatformAmountCents != 97 {
			t.Errorf("platform = %d, want 97", calc.PlatformAmountCents)
		}
	})

	t.Run("monthly pot splits 60/40 between classes", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestSettlementService(t, db)

		calc, entries, err := svc.DistributeMonthlyPot(ctx, "system", "pot-2", 1000,
			[]string{"author-1", "author-2"}, []string{"reader-1"})
		if err != nil {
			t.Fatalf("DistributeMonthlyPot() returned unexpected error: %v", err)
		}

		if len(entries) != 4 {
			t.Fatalf("expected 4 ledger entries, got %d", len(entries))
		}
		var netSum int64
		for _, entry := range entries {
			netSum += entry.NetAmountCents
		}
		if netSum != calc.TotalAmountCents {
			t.Errorf("ledger net sum = %d, want %d", netSum, calc.TotalAmountCents)
		}
	})
}

func TestConvertPointsSettlement(t *testing.T) {
	ctx := context.Background()

	t.Run("records the converted amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestSettlementService(t, db)

		conversion, entry, err := svc.ConvertPoints(ctx, "user-1", "user-1", "conv-1", 2599)
		if err != nil {
			t.Fatalf("ConvertPoints() returned unexpected error: %v", err)
		}

		if conversion.PointsConverted != 2500 || conversion.PointsRemaining != 99 {
			t.Errorf("conversion = %d/%d, want 2500 converted, 99 remaining",
				conversion.PointsConverted, conversion.PointsRemaining)
		}
		if entry.GrossAmountCents != 2500 {
			t.Errorf("entry amount = %d cents, want 2500", entry.GrossAmountCents)
		}
		if entry.TransactionType != model.EntryPointsConversion {
			t.Errorf("entry type = %q, want %s", entry.TransactionType, model.EntryPointsConversion)
		}
	})

	t.Run("balance below threshold is rejected without a ledger row", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestSettlementService(t, db)

		_, _, err := svc.ConvertPoints(ctx, "user-1", "user-1", "conv-1", 2400)
		if !errors.Is(err, apperrors.ErrBelowThreshold) {
			t.Errorf("expected ErrBelowThreshold, got %v", err)
		}
		testutil.AssertRowCount(t, db, "ledger_entry", 0)
	})

	t.Run("retrying the same conversion converges on one row", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestSettlementService(t, db)

		_, first, err := svc.ConvertPoints(ctx, "user-1", "user-1", "conv-1", 2599)
		if err != nil {
			t.Fatalf("ConvertPoints() returned unexpected error: %v", err)
		}
		_, second, err := svc.ConvertPoints(ctx, "user-1", "user-1", "conv-1", 2599)
		if err != nil {
			t.Fatalf("retried ConvertPoints() returned unexpected error: %v", err)
		}
		if first.ID != second.ID {
			t.Error("retry produced a different ledger row")
		}
		testutil.AssertRowCount(t, db, "ledger_entry", 1)
	})

	t.Run("distinct conversions of an identical balance each record a row", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestSettlementService(t, db)

		_, first, err := svc.ConvertPoints(ctx, "user-1", "user-1", "conv-1", 2599)
		if err != nil {
			t.Fatalf("ConvertPoints() returned unexpected error: %v", err)
		}
		_, second, err := svc.ConvertPoints(ctx, "user-1", "user-1", "conv-2", 2500)
		if err != nil {
			t.Fatalf("second ConvertPoints() returned unexpected error: %v", err)
		}
		if first.ID == second.ID {
			t.Error("distinct conversions collapsed into one ledger row")
		}
		testutil.AssertRowCount(t, db, "ledger_entry", 2)
	})

	t.Run("rejects a missing conversion reference", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestSettlementService(t, db)

		_, _, err := svc.ConvertPoints(ctx, "user-1", "user-1", "", 2599)
		if !errors.Is(err, apperrors.ErrEmptyID) {
			t.Errorf("expected ErrEmptyID, got %v", err)
		}
		testutil.AssertRowCount(t, db, "ledger_entry", 0)
	})
}

func TestGoldenTicketRefundSettlement(t *testing.T) {
	ctx := context.Background()

	t.Run("rank 3 refunds 70 percent", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestSettlementService(t, db)

		refund, entry, err := svc.GoldenTicketRefund(ctx, "admin-1", "user-1", "ticket-1", 75, 3)
		if err != nil {
			t.Fatalf("GoldenTicketRefund() returned unexpected error: %v", err)
		}
		if refund.RefundCents != 5250 {
			t.Errorf("refund = %d cents, want 5250", refund.RefundCents)
		}
		if entry == nil || entry.GrossAmountCents != 5250 {
			t.Errorf("expected a 5250 cent ledger entry, got %+v", entry)
		}
	})

	t.Run("rank beyond the table refunds nothing and writes no row", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestSettlementService(t, db)

		refund, entry, err := svc.GoldenTicketRefund(ctx, "admin-1", "user-1", "ticket-2", 75, 7)
		if err != nil {
			t.Fatalf("GoldenTicketRefund() returned unexpected error: %v", err)
		}
		if refund.RefundCents != 0 {
			t.Errorf("refund = %d cents, want 0", refund.RefundCents)
		}
		if entry != nil {
			t.Errorf("expected no ledger entry, got %+v", entry)
		}
		testutil.AssertRowCount(t, db, "ledger_entry", 0)
	})
}

func TestExtensionPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("records a platform-bound charge", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestSettlementService(t, db)

		entry, err := svc.RecordExtensionPayment(ctx, "system", "cat-1", "creator-1", "pi-1", 2500)
		if err != nil {
			t.Fatalf("RecordExtensionPayment() returned unexpected error: %v", err)
		}
		if entry.TransactionType != model.EntryExtension {
			t.Errorf("entry type = %q, want %s", entry.TransactionType, model.EntryExtension)
		}
		if entry.GrossAmountCents != 2500 {
			t.Errorf("entry amount = %d, want 2500", entry.GrossAmountCents)
		}
	})

	t.Run("a second purchase for the same category records a second charge", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestSettlementService(t, db)

		first, err := svc.RecordExtensionPayment(ctx, "system", "cat-1", "creator-1", "pi-1", 2500)
		if err != nil {
			t.Fatalf("RecordExtensionPayment() returned unexpected error: %v", err)
		}
		second, err := svc.RecordExtensionPayment(ctx, "system", "cat-1", "creator-1", "pi-2", 2500)
		if err != nil {
			t.Fatalf("second RecordExtensionPayment() returned unexpected error: %v", err)
		}
		if first.ID == second.ID {
			t.Error("distinct purchases collapsed into one ledger row")
		}
		testutil.AssertRowCount(t, db, "ledger_entry", 2)
	})

	t.Run("a retried payment callback converges on one row", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestSettlementService(t, db)

		first, err := svc.RecordExtensionPayment(ctx, "system", "cat-1", "creator-1", "pi-1", 2500)
		if err != nil {
			t.Fatalf("RecordExtensionPayment() returned unexpected error: %v", err)
		}
		second, err := svc.RecordExtensionPayment(ctx, "system", "cat-1", "creator-1", "pi-1", 2500)
		if err != nil {
			t.Fatalf("retried RecordExtensionPayment() returned unexpected error: %v", err)
		}
		if first.ID != second.ID {
			t.Error("retry produced a different ledger row")
		}
		testutil.AssertRowCount(t, db, "ledger_entry", 1)
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestSettlementService(t, db)

		_, err := svc.RecordExtensionPayment(ctx, "system", "cat-1", "creator-1", "pi-1", 0)
		if !errors.Is(err, apperrors.ErrNegativeAmount) {
			t.Errorf("expected ErrNegativeAmount, got %v", err)
		}
	})

	t.Run("rejects a missing payment reference", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestSettlementService(t, db)

		_, err := svc.RecordExtensionPayment(ctx, "system", "cat-1", "creator-1", "", 2500)
		if !errors.Is(err, apperrors.ErrEmptyID) {
			t.Errorf("expected ErrEmptyID, got %v", err)
		}
	})
}

func TestMarkLedgerStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("completes a pending entry", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestSettlementService(t, db)

		stored := testutil.NewLedgerEntry().Build(t, db)

		updated, err := svc.MarkLedgerStatus(ctx, "payment-executor", stored.IdempotencyKey,
			model.LedgerStatusCompleted, "psp-tx-1")
		if err != nil {
			t.Fatalf("MarkLedgerStatus() returned unexpected error: %v", err)
		}
		if updated.Status != model.LedgerStatusCompleted {
			t.Errorf("status = %q, want completed", updated.Status)
		}
	})
}

func TestFinancialMetricsAndReport(t *testing.T) {
	ctx := context.Background()

	t.Run("aggregates ledger activity", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestSettlementService(t, db)

		testutil.NewLedgerEntry().WithAmounts(1399, 1300).Completed().Build(t, db)
		testutil.NewLedgerEntry().WithAmounts(699, 699).Build(t, db)

		metrics, err := svc.FinancialMetrics(ctx, time.Time{}, time.Time{})
		if err != nil {
			t.Fatalf("FinancialMetrics() returned unexpected error: %v", err)
		}

		if metrics.LedgerEntries != 2 {
			t.Errorf("ledger entries = %d, want 2", metrics.LedgerEntries)
		}
		if metrics.TotalProcessedCents != 2098 {
			t.Errorf("total processed = %d, want 2098", metrics.TotalProcessedCents)
		}
		if metrics.TotalFeesCents != 99 {
			t.Errorf("total fees = %d, want 99", metrics.TotalFeesCents)
		}
		if metrics.PendingEntries != 1 {
			t.Errorf("pending entries = %d, want 1", metrics.PendingEntries)
		}
		if metrics.AverageEntryCents != 1049 {
			t.Errorf("average entry = %d, want 1049", metrics.AverageEntryCents)
		}
	})

	t.Run("report includes type breakdown and audit check", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestSettlementService(t, db)

		testutil.NewLedgerEntry().WithType(model.EntryCreatorSale).WithAmounts(1399, 1300).Build(t, db)
		testutil.NewLedgerEntry().WithType(model.EntryPlatform).WithAmounts(699, 699).Build(t, db)

		report, err := svc.FinancialReport(ctx, "2025-06", time.Time{}, time.Time{})
		if err != nil {
			t.Fatalf("FinancialReport() returned unexpected error: %v", err)
		}

		if report.TotalsByType[model.EntryCreatorSale] != 1399 {
			t.Errorf("creator_sale total = %d, want 1399", report.TotalsByType[model.EntryCreatorSale])
		}
		if !report.AuditTrailIntact {
			t.Error("expected an intact audit trail")
		}
		if report.AuditFindingCount != 0 {
			t.Errorf("audit finding count = %d, want 0", report.AuditFindingCount)
		}
	})
}
