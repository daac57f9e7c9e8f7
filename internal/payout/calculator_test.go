package payout_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/visualplatform/settlement-core/internal/apperrors"
	"github.com/visualplatform/settlement-core/internal/model"
	"github.com/visualplatform/settlement-core/internal/payout"
)

func rankedIDs(prefix string, n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("%s-%02d", prefix, i+1)
	}
	return ids
}

// assertConservation checks the central correctness property of the engine:
// the euro-floored paid amounts plus the platform amount reproduce the gross
// total exactly, and the platform entry matches PlatformAmountCents.
func assertConservation(t *testing.T, calc *model.PayoutCalculation) {
	t.Helper()

	var paid int64
	var platformEntries int
	for _, e := range calc.Entries {
		if e.Type == model.EntryPlatform {
			platformEntries++
			if e.AmountCents != calc.PlatformAmountCents {
				t.Errorf("platform entry amount = %d, want %d", e.AmountCents, calc.PlatformAmountCents)
			}
			continue
		}
		paid += e.AmountEurFloor
	}

	if platformEntries != 1 {
		t.Errorf("expected exactly 1 platform entry, got %d", platformEntries)
	}
	if got := paid + calc.PlatformAmountCents; got != calc.TotalAmountCents {
		t.Errorf("conservation violated: paid %d + platform %d = %d, want total %d",
			paid, calc.PlatformAmountCents, got, calc.TotalAmountCents)
	}
	if calc.ResidualCents < 0 {
		t.Errorf("residual is negative: %d", calc.ResidualCents)
	}
}

// assertFloorInvariant checks that every individual payout is euro-floored:
// a multiple of 100 cents, never exceeding the allocated share.
func assertFloorInvariant(t *testing.T, calc *model.PayoutCalculation) {
	t.Helper()

	for i, e := range calc.Entries {
		if e.Type == model.EntryPlatform {
			continue
		}
		if e.AmountEurFloor > e.AmountCents {
			t.Errorf("entry %d: amountEurFloor %d exceeds amountCents %d", i, e.AmountEurFloor, e.AmountCents)
		}
		if e.AmountEurFloor%100 != 0 {
			t.Errorf("entry %d: amountEurFloor %d is not a whole-euro multiple", i, e.AmountEurFloor)
		}
	}
}

// TestCloseCategory_FullDistribution covers a complete category close: a
// EUR 10,000.00 pool with 10 ranked investors, 10 ranked creators and 90
// mid-tier investors. Every number below is derivable by hand from the
// 40/30/7/23 rule and pins the share tables in place.
func TestCloseCategory_FullDistribution(t *testing.T) {
	inv := rankedIDs("inv", 10)
	port := rankedIDs("creator", 10)
	mid := rankedIDs("mid", 90)

	calc, err := payout.CloseCategory("cat-books", 10000.00, inv, port, mid)
	if err != nil {
		t.Fatalf("CloseCategory() returned unexpected error: %v", err)
	}

	if calc.RuleVersion != model.RuleCategoryClose {
		t.Errorf("rule version = %q, want %q", calc.RuleVersion, model.RuleCategoryClose)
	}
	if calc.TotalAmountCents != 1000000 {
		t.Errorf("total = %d cents, want 1000000", calc.TotalAmountCents)
	}

	// Rank-1 investor: floor(0.1366 * 1,000,000) = 136,600 cents.
	first := calc.Entries[0]
	if first.Type != model.EntryInvestorTop10 || first.Rank != 1 {
		t.Fatalf("first entry = %+v, want rank-1 investor", first)
	}
	if first.AmountCents != 136600 {
		t.Errorf("rank-1 investor amount = %d, want 136600", first.AmountCents)
	}
	if first.AmountEurFloor != 136600 {
		t.Errorf("rank-1 investor eurFloor = %d, want 136600", first.AmountEurFloor)
	}

	// Mid-tier pool is 70,000 cents across 90 investors: 777 each, paid 700.
	var midPaid int64
	for _, e := range calc.Entries {
		if e.Type == model.EntryInvestorMidTier {
			if e.AmountCents != 777 {
				t.Errorf("mid-tier share = %d, want 777", e.AmountCents)
			}
			if e.AmountEurFloor != 700 {
				t.Errorf("mid-tier payout = %d, want 700", e.AmountEurFloor)
			}
			midPaid += e.AmountEurFloor
		}
	}
	if midPaid != 63000 {
		t.Errorf("mid-tier paid total = %d, want 63000", midPaid)
	}

	// Platform: 23% base (230,000) plus the mid-tier floor dust (7,000).
	if calc.PlatformAmountCents != 237000 {
		t.Errorf("platform amount = %d, want 237000", calc.PlatformAmountCents)
	}
	if calc.ResidualCents != 7000 {
		t.Errorf("residual = %d, want 7000", calc.ResidualCents)
	}

	assertConservation(t, calc)
	assertFloorInvariant(t, calc)
}

// TestCloseCategory_InputShape verifies malformed input fails before any
// arithmetic, with the typed InvalidRuleInput error.
func TestCloseCategory_InputShape(t *testing.T) {
	valid10 := rankedIDs("x", 10)

	cases := []struct {
		name  string
		total float64
		inv   []string
		port  []string
	}{
		{"short investor list", 100, rankedIDs("inv", 9), valid10},
		{"long investor list", 100, rankedIDs("inv", 11), valid10},
		{"short creator list", 100, valid10, rankedIDs("creator", 3)},
		{"zero total", 0, valid10, valid10},
		{"negative total", -10, valid10, valid10},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := payout.CloseCategory("cat", tc.total, tc.inv, tc.port, nil)
			if !errors.Is(err, apperrors.ErrInvalidRuleInput) {
				t.Errorf("expected ErrInvalidRuleInput, got %v", err)
			}
			var ruleErr *payout.RuleInputError
			if !errors.As(err, &ruleErr) {
				t.Errorf("expected *RuleInputError, got %T", err)
			}
		})
	}
}

// TestCloseCategory_EmptyMidTier verifies the 7% class routes entirely to
// the platform when no mid-tier investors exist.
func TestCloseCategory_EmptyMidTier(t *testing.T) {
	calc, err := payout.CloseCategory("cat", 10000.00, rankedIDs("inv", 10), rankedIDs("creator", 10), nil)
	if err != nil {
		t.Fatalf("CloseCategory() returned unexpected error: %v", err)
	}

	// The whole 70,000-cent mid-tier pool becomes residual.
	if calc.ResidualCents != 70000 {
		t.Errorf("residual = %d, want 70000", calc.ResidualCents)
	}
	assertConservation(t, calc)
}

// TestCloseCategory_Idempotent verifies calling the calculator twice with
// identical inputs yields byte-identical output.
func TestCloseCategory_Idempotent(t *testing.T) {
	inv := rankedIDs("inv", 10)
	port := rankedIDs("creator", 10)
	mid := rankedIDs("mid", 42)

	first, err := payout.CloseCategory("cat", 12345.67, inv, port, mid)
	if err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	second, err := payout.CloseCategory("cat", 12345.67, inv, port, mid)
	if err != nil {
		t.Fatalf("second call failed: %v", err)
	}

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Error("identical inputs produced different calculations")
	}
}

// TestCloseCategory_Conservation sweeps awkward totals through the full rule
// to confirm no total can leak or fabricate a cent.
func TestCloseCategory_Conservation(t *testing.T) {
	totals := []float64{0.01, 0.99, 1.00, 33.33, 99.97, 101.01, 9999.99, 10000.00, 123456.78}
	inv := rankedIDs("inv", 10)
	port := rankedIDs("creator", 10)

	for _, total := range totals {
		t.Run(fmt.Sprintf("total_%v", total), func(t *testing.T) {
			for _, midCount := range []int{0, 1, 3, 7, 90} {
				calc, err := payout.CloseCategory("cat", total, inv, port, rankedIDs("mid", midCount))
				if err != nil {
					t.Fatalf("CloseCategory() returned unexpected error: %v", err)
				}
				assertConservation(t, calc)
				assertFloorInvariant(t, calc)
			}
		})
	}
}

// TestUnitSales covers the 70/30 article and book sale splits.
func TestUnitSales(t *testing.T) {
	t.Run("article sale splits 70/30", func(t *testing.T) {
		calc, err := payout.ArticleSale("order-1", 10.00, "writer-1")
		if err != nil {
			t.Fatalf("ArticleSale() returned unexpected error: %v", err)
		}

		creator := calc.Entries[0]
		if creator.AmountCents != 700 {
			t.Errorf("creator share = %d, want 700", creator.AmountCents)
		}
		// Sub-euro payouts floor to the whole euro; the platform keeps the rest.
		if creator.AmountEurFloor != 700 {
			t.Errorf("creator payout = %d, want 700", creator.AmountEurFloor)
		}
		if calc.PlatformAmountCents != 300 {
			t.Errorf("platform amount = %d, want 300", calc.PlatformAmountCents)
		}
		assertConservation(t, calc)
	})

	t.Run("book sale floors author payout", func(t *testing.T) {
		calc, err := payout.BookSale("order-2", 19.99, "author-1")
		if err != nil {
			t.Fatalf("BookSale() returned unexpected error: %v", err)
		}

		author := calc.Entries[0]
		// floor(0.70 * 1999) = 1399, paid 1300; platform gets 699.
		if author.AmountCents != 1399 {
			t.Errorf("author share = %d, want 1399", author.AmountCents)
		}
		if author.AmountEurFloor != 1300 {
			t.Errorf("author payout = %d, want 1300", author.AmountEurFloor)
		}
		if calc.PlatformAmountCents != 699 {
			t.Errorf("platform amount = %d, want 699", calc.PlatformAmountCents)
		}
		assertConservation(t, calc)
		assertFloorInvariant(t, calc)
	})

	t.Run("rejects missing recipient", func(t *testing.T) {
		_, err := payout.ArticleSale("order-3", 10.00, "")
		if !errors.Is(err, apperrors.ErrInvalidRuleInput) {
			t.Errorf("expected ErrInvalidRuleInput, got %v", err)
		}
	})
}

// TestPot24h_ResidualToPlatform covers a non-divisible pot: EUR 99.97
// equipartitioned among 3 winners. The remainder and all sub-euro dust go
// entirely to the platform entry, never fractionally to a winner.
func TestPot24h_ResidualToPlatform(t *testing.T) {
	calc, err := payout.Pot24h("pot-1", 99.97, []string{"w1", "w2", "w3"})
	if err != nil {
		t.Fatalf("Pot24h() returned unexpected error: %v", err)
	}

	for _, e := range calc.Entries {
		if e.Type != model.EntryPotWinner {
			continue
		}
		// floor(9997/3) = 3332 allocated, 3300 paid.
		if e.AmountCents != 3332 {
			t.Errorf("winner share = %d, want 3332", e.AmountCents)
		}
		if e.AmountEurFloor != 3300 {
			t.Errorf("winner payout = %d, want 3300", e.AmountEurFloor)
		}
	}

	if calc.PlatformAmountCents != 97 {
		t.Errorf("platform amount = %d, want 97", calc.PlatformAmountCents)
	}
	if calc.ResidualCents != 97 {
		t.Errorf("residual = %d, want 97", calc.ResidualCents)
	}
	assertConservation(t, calc)
	assertFloorInvariant(t, calc)
}

// TestPot24h_EmptyWinners verifies an empty winner set routes the whole pot
// to the platform.
func TestPot24h_EmptyWinners(t *testing.T) {
	calc, err := payout.Pot24h("pot-2", 50.00, nil)
	if err != nil {
		t.Fatalf("Pot24h() returned unexpected error: %v", err)
	}

	if len(calc.Entries) != 1 {
		t.Fatalf("expected only the platform entry, got %d entries", len(calc.Entries))
	}
	if calc.PlatformAmountCents != 5000 {
		t.Errorf("platform amount = %d, want 5000", calc.PlatformAmountCents)
	}
	assertConservation(t, calc)
}

// TestMonthlyPot covers the 60/40 author/reader pot split.
func TestMonthlyPot(t *testing.T) {
	t.Run("splits between authors and readers", func(t *testing.T) {
		calc, err := payout.MonthlyPot("2026-08", 1000.00, rankedIDs("author", 4), rankedIDs("reader", 5))
		if err != nil {
			t.Fatalf("MonthlyPot() returned unexpected error: %v", err)
		}

		var authorPaid, readerPaid int64
		for _, e := range calc.Entries {
			switch e.Type {
			case model.EntryAuthorPot:
				// 60% of 100,000 = 60,000; 15,000 each.
				if e.AmountCents != 15000 {
					t.Errorf("author share = %d, want 15000", e.AmountCents)
				}
				authorPaid += e.AmountEurFloor
			case model.EntryReaderPot:
				// 40% of 100,000 = 40,000; 8,000 each.
				if e.AmountCents != 8000 {
					t.Errorf("reader share = %d, want 8000", e.AmountCents)
				}
				readerPaid += e.AmountEurFloor
			}
		}
		if authorPaid != 60000 {
			t.Errorf("authors paid = %d, want 60000", authorPaid)
		}
		if readerPaid != 40000 {
			t.Errorf("readers paid = %d, want 40000", readerPaid)
		}
		assertConservation(t, calc)
	})

	t.Run("empty reader class routes to platform", func(t *testing.T) {
		calc, err := payout.MonthlyPot("2026-08", 100.00, rankedIDs("author", 2), nil)
		if err != nil {
			t.Fatalf("MonthlyPot() returned unexpected error: %v", err)
		}

		// Authors split 6,000 cents (3,000 each, whole euros); the 4,000-cent
		// reader class has no members and falls through to the platform.
		if calc.PlatformAmountCents != 4000 {
			t.Errorf("platform amount = %d, want 4000", calc.PlatformAmountCents)
		}
		assertConservation(t, calc)
	})
}

// TestConvertPoints covers the points-to-euro exchange under the published
// terms: 100 points per euro with a 2500-point minimum.
func TestConvertPoints(t *testing.T) {
	t.Run("2599 points convert 2500 at rate 100", func(t *testing.T) {
		conv, err := payout.ConvertPoints("user-1", 2599, payout.DefaultPointsPolicy)
		if err != nil {
			t.Fatalf("ConvertPoints() returned unexpected error: %v", err)
		}

		if conv.PointsConverted != 2500 {
			t.Errorf("pointsConverted = %d, want 2500", conv.PointsConverted)
		}
		if conv.AmountCents != 2500 {
			t.Errorf("amountCents = %d, want 2500 (EUR 25)", conv.AmountCents)
		}
		if conv.PointsRemaining != 99 {
			t.Errorf("pointsRemaining = %d, want 99", conv.PointsRemaining)
		}
	})

	t.Run("below threshold carries shortfall", func(t *testing.T) {
		_, err := payout.ConvertPoints("user-1", 2400, payout.DefaultPointsPolicy)
		if !errors.Is(err, apperrors.ErrBelowThreshold) {
			t.Fatalf("expected ErrBelowThreshold, got %v", err)
		}

		var thresholdErr *payout.BelowThresholdError
		if !errors.As(err, &thresholdErr) {
			t.Fatalf("expected *BelowThresholdError, got %T", err)
		}
		if thresholdErr.Shortfall() != 100 {
			t.Errorf("shortfall = %d, want 100", thresholdErr.Shortfall())
		}
	})

	t.Run("exact threshold converts fully", func(t *testing.T) {
		conv, err := payout.ConvertPoints("user-1", 2500, payout.DefaultPointsPolicy)
		if err != nil {
			t.Fatalf("ConvertPoints() returned unexpected error: %v", err)
		}
		if conv.PointsConverted != 2500 || conv.PointsRemaining != 0 {
			t.Errorf("got converted=%d remaining=%d, want 2500/0", conv.PointsConverted, conv.PointsRemaining)
		}
	})

	t.Run("custom policy threshold", func(t *testing.T) {
		policy := payout.PointsPolicy{Threshold: 500, Rate: 50}
		conv, err := payout.ConvertPoints("user-1", 575, policy)
		if err != nil {
			t.Fatalf("ConvertPoints() returned unexpected error: %v", err)
		}
		if conv.PointsConverted != 550 || conv.AmountCents != 1100 || conv.PointsRemaining != 25 {
			t.Errorf("got %+v, want converted=550 cents=1100 remaining=25", conv)
		}
	})
}

// TestGoldenTicketRefund covers the tiered refund table.
func TestGoldenTicketRefund(t *testing.T) {
	t.Run("rank 3 refunds 70%", func(t *testing.T) {
		refund, err := payout.GoldenTicketRefund("user-1", 75.00, 3)
		if err != nil {
			t.Fatalf("GoldenTicketRefund() returned unexpected error: %v", err)
		}

		if refund.RefundPercent != 70 {
			t.Errorf("refundPercent = %d, want 70", refund.RefundPercent)
		}
		if refund.RefundCents != 5250 {
			t.Errorf("refundCents = %d, want 5250 (EUR 52.50)", refund.RefundCents)
		}
	})

	t.Run("full table", func(t *testing.T) {
		wantPercent := map[int]int{1: 100, 2: 85, 3: 70, 4: 55, 5: 40, 6: 25, 7: 0, 12: 0}
		for rank, want := range wantPercent {
			refund, err := payout.GoldenTicketRefund("user-1", 100.00, rank)
			if err != nil {
				t.Fatalf("rank %d: unexpected error: %v", rank, err)
			}
			if refund.RefundPercent != want {
				t.Errorf("rank %d: percent = %d, want %d", rank, refund.RefundPercent, want)
			}
			if refund.RefundCents != int64(want)*100 {
				t.Errorf("rank %d: refund = %d cents, want %d", rank, refund.RefundCents, int64(want)*100)
			}
		}
	})

	t.Run("rejects invalid rank", func(t *testing.T) {
		_, err := payout.GoldenTicketRefund("user-1", 75.00, 0)
		if !errors.Is(err, apperrors.ErrInvalidRuleInput) {
			t.Errorf("expected ErrInvalidRuleInput, got %v", err)
		}
	})
}
