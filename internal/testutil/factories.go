package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/visualplatform/settlement-core/internal/model"
	"github.com/visualplatform/settlement-core/internal/repository"
)

// LedgerEntryBuilder provides a fluent interface for creating test ledger
// entries.
//
// Example usage:
//
//	// Simple creation with defaults
//	entry := testutil.NewLedgerEntry().Build(t, db)
//
//	// Customized entry
//	entry := testutil.NewLedgerEntry().
//	    WithType(model.EntryCreatorSale).
//	    WithAmounts(699, 600).
//	    Completed().
//	    Build(t, db)
type LedgerEntryBuilder struct {
	ID               string
	TransactionType  string
	ReferenceID      string
	ReferenceType    string
	RecipientID      string
	GrossAmountCents int64
	NetAmountCents   int64
	FeeCents         int64
	IdempotencyKey   string
	PayoutRule       string
	Status           string
	CreatedAt        time.Time
}

// NewLedgerEntry creates a LedgerEntryBuilder with sensible defaults.
func NewLedgerEntry() *LedgerEntryBuilder {
	return &LedgerEntryBuilder{
		ID:               MakeID(),
		TransactionType:  model.EntryCreatorSale,
		ReferenceID:      "order-" + randomAlphanumeric(6),
		ReferenceType:    "order",
		RecipientID:      "user-" + randomAlphanumeric(6),
		GrossAmountCents: 1399,
		NetAmountCents:   1300,
		FeeCents:         99,
		IdempotencyKey:   MakeID(),
		PayoutRule:       model.RuleArticleSale,
		Status:           model.LedgerStatusPending,
		CreatedAt:        time.Now().UTC(),
	}
}

// WithType sets the transaction type.
func (b *LedgerEntryBuilder) WithType(transactionType string) *LedgerEntryBuilder {
	b.TransactionType = transactionType
	return b
}

// WithReference sets the reference ID and type.
func (b *LedgerEntryBuilder) WithReference(referenceType, referenceID string) *LedgerEntryBuilder {
	b.ReferenceType = referenceType
	b.ReferenceID = referenceID
	return b
}

// WithRecipient sets the recipient ID.
func (b *LedgerEntryBuilder) WithRecipient(recipientID string) *LedgerEntryBuilder {
	b.RecipientID = recipientID
	return b
}

// WithAmounts sets the gross and net amounts; the fee is their difference.
func (b *LedgerEntryBuilder) WithAmounts(grossCents, netCents int64) *LedgerEntryBuilder {
	b.GrossAmountCents = grossCents
	b.NetAmountCents = netCents
	b.FeeCents = grossCents - netCents
	return b
}

// WithRule sets the payout rule and derives the deterministic idempotency key
// from the builder's current reference, recipient and type.
func (b *LedgerEntryBuilder) WithRule(rule string) *LedgerEntryBuilder {
	b.PayoutRule = rule
	b.IdempotencyKey = repository.IdempotencyKey(rule, b.ReferenceID, b.RecipientID, b.TransactionType)
	return b
}

// WithCreatedAt sets the creation timestamp.
func (b *LedgerEntryBuilder) WithCreatedAt(createdAt time.Time) *LedgerEntryBuilder {
	b.CreatedAt = createdAt
	return b
}

// Completed marks the entry as completed.
func (b *LedgerEntryBuilder) Completed() *LedgerEntryBuilder {
	b.Status = model.LedgerStatusCompleted
	return b
}

// Failed marks the entry as failed.
func (b *LedgerEntryBuilder) Failed() *LedgerEntryBuilder {
	b.Status = model.LedgerStatusFailed
	return b
}

// Build creates the ledger entry in the database and returns it.
func (b *LedgerEntryBuilder) Build(t *testing.T, db *sql.DB) model.LedgerEntry {
	t.Helper()

	query := `
		INSERT INTO ledger_entry (id, transaction_type, reference_id, reference_type, recipient_id,
			gross_amount_cents, net_amount_cents, fee_cents, idempotency_key,
			payout_rule, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.Exec(query,
		b.ID, b.TransactionType, b.ReferenceID, b.ReferenceType, b.RecipientID,
		b.GrossAmountCents, b.NetAmountCents, b.FeeCents, b.IdempotencyKey,
		b.PayoutRule, b.Status, repository.FormatTime(b.CreatedAt))
	if err != nil {
		t.Fatalf("Failed to create test ledger entry: %v", err)
	}

	return model.LedgerEntry{
		ID:               b.ID,
		TransactionType:  b.TransactionType,
		ReferenceID:      b.ReferenceID,
		ReferenceType:    b.ReferenceType,
		RecipientID:      b.RecipientID,
		GrossAmountCents: b.GrossAmountCents,
		NetAmountCents:   b.NetAmountCents,
		FeeCents:         b.FeeCents,
		IdempotencyKey:   b.IdempotencyKey,
		PayoutRule:       b.PayoutRule,
		Status:           b.Status,
		CreatedAt:        b.CreatedAt,
	}
}

// Convenience functions

// CreateCompletedEntry creates a completed ledger entry for the given
// reference with the given net amount.
func CreateCompletedEntry(t *testing.T, db *sql.DB, referenceID string, netCents int64) model.LedgerEntry {
	t.Helper()
	return NewLedgerEntry().
		WithReference("order", referenceID).
		WithAmounts(netCents, netCents).
		Completed().
		Build(t, db)
}

// CreateProcessorCharge stores one processor-reported charge.
func CreateProcessorCharge(t *testing.T, db *sql.DB, referenceID string, amountCents int64, settledAt time.Time) model.ProcessorCharge {
	t.Helper()

	query := `
		INSERT INTO processor_settlement (id, reference_id, amount_cents, settled_at)
		VALUES (?, ?, ?, ?)
	`
	_, err := db.Exec(query, MakeID(), referenceID, amountCents, repository.FormatTime(settledAt))
	if err != nil {
		t.Fatalf("Failed to create test processor charge: %v", err)
	}

	return model.ProcessorCharge{
		ReferenceID: referenceID,
		AmountCents: amountCents,
		SettledAt:   settledAt,
	}
}
