package model

import "time"

// ProcessorCharge is one settled charge as reported by the external payment
// processor. The payment-execution component supplies these; the settlement
// core never talks to the processor itself.
type ProcessorCharge struct {
	ReferenceID string    `json:"referenceId"`
	AmountCents int64     `json:"amountCents"`
	SettledAt   time.Time `json:"settledAt"`
}

// ReconciliationMismatch describes one reference whose ledger total and
// processor-reported total disagree.
type ReconciliationMismatch struct {
	ReferenceID          string `json:"referenceId"`
	LedgerAmountCents    int64  `json:"ledgerAmountCents"`
	ProcessorAmountCents int64  `json:"processorAmountCents"`
	Reason               string `json:"reason"`
}

// Anomaly warning types produced by the heuristic scan.
const (
	AnomalyOutlierAmount     = "outlier_amount"
	AnomalyMicroPaymentBurst = "micro_payment_burst"
)

// AnomalyWarning flags a ledger pattern worth human review. Warnings never
// block payout processing.
type AnomalyWarning struct {
	Type        string `json:"type"`
	ReferenceID string `json:"referenceId,omitempty"`
	RecipientID string `json:"recipientId,omitempty"`
	Detail      string `json:"detail"`
	AmountCents int64  `json:"amountCents,omitempty"`
}

// ReconciliationReport is the outcome of one reconciliation run: how the
// ledger's settled amounts compare against the processor's record, plus any
// anomaly warnings surfaced along the way.
type ReconciliationReport struct {
	StartDate       time.Time                `json:"startDate"`
	EndDate         time.Time                `json:"endDate"`
	TotalCount      int                      `json:"totalCount"`
	MatchedCount    int                      `json:"matchedCount"`
	MismatchedCount int                      `json:"mismatchedCount"`
	DivergenceRatio float64                  `json:"divergenceRatio"`
	Mismatches      []ReconciliationMismatch `json:"mismatches"`
	Warnings        []AnomalyWarning         `json:"warnings"`
	RanAt           time.Time                `json:"ranAt"`
}

// FinancialMetrics summarizes ledger activity for the admin console.
type FinancialMetrics struct {
	TotalProcessedCents int64 `json:"totalProcessedCents"`
	TotalFeesCents      int64 `json:"totalFeesCents"`
	TotalPayoutsCents   int64 `json:"totalPayoutsCents"`
	LedgerEntries       int64 `json:"ledgerEntries"`
	AverageEntryCents   int64 `json:"averageEntryCents"`
	PendingEntries      int64 `json:"pendingEntries"`
}

// FinancialReport is a per-period breakdown of ledger activity, including the
// outcome of an audit trail integrity check.
type FinancialReport struct {
	Period            string           `json:"period"`
	Metrics           FinancialMetrics `json:"metrics"`
	TotalsByType      map[string]int64 `json:"totalsByType"`
	AuditTrailIntact  bool             `json:"auditTrailIntact"`
	AuditFindingCount int              `json:"auditFindingCount"`
	GeneratedAt       time.Time        `json:"generatedAt"`
}
