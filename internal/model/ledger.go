package model

import "time"

// Ledger entry lifecycle statuses. An entry is created pending and moves to
// completed or failed as the external payment execution reports back. No
// other transitions exist; rows are otherwise immutable.
const (
	LedgerStatusPending   = "pending"
	LedgerStatusCompleted = "completed"
	LedgerStatusFailed    = "failed"
)

// LedgerEntry is one durable payout row, keyed by a deterministic idempotency
// key so that retried writes converge on a single stored row.
type LedgerEntry struct {
	ID                 string    `json:"id"`
	TransactionType    string    `json:"transactionType"`
	ReferenceID        string    `json:"referenceId"`
	ReferenceType      string    `json:"referenceType"`
	RecipientID        string    `json:"recipientId,omitempty"`
	GrossAmountCents   int64     `json:"grossAmountCents"`
	NetAmountCents     int64     `json:"netAmountCents"`
	FeeCents           int64     `json:"feeCents"`
	IdempotencyKey     string    `json:"idempotencyKey"`
	PayoutRule         string    `json:"payoutRule"`
	Status             string    `json:"status"`
	ExternalPaymentRef string    `json:"externalPaymentRef,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
}

// LedgerFilter narrows ledger queries for reconciliation and admin reporting.
// Zero-valued fields are ignored.
type LedgerFilter struct {
	RecipientID     string
	TransactionType string
	ReferenceID     string
	Status          string
	StartDate       time.Time
	EndDate         time.Time
}

// LedgerTotals aggregates cent sums over a set of ledger entries.
type LedgerTotals struct {
	EntryCount       int64 `json:"entryCount"`
	GrossAmountCents int64 `json:"grossAmountCents"`
	NetAmountCents   int64 `json:"netAmountCents"`
	FeeCents         int64 `json:"feeCents"`
}
