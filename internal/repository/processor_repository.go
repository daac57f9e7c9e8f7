package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/visualplatform/settlement-core/internal/model"
)

// ProcessorSettlementRepository provides data access methods for the
// processor_settlement table: the external payment processor's record of
// settled charges, ingested by the payment-execution component and read by
// the reconciliation engine.
type ProcessorSettlementRepository struct {
	db *sql.DB
}

// NewProcessorSettlementRepository creates a new repository instance.
func NewProcessorSettlementRepository(db *sql.DB) *ProcessorSettlementRepository {
	return &ProcessorSettlementRepository{db: db}
}

// IngestCharges stores a batch of processor-reported charges. Re-submitted
// charges (same reference and settlement time) are skipped, so report
// uploads are safe to retry. Returns the number of newly stored charges.
func (r *ProcessorSettlementRepository) IngestCharges(ctx context.Context, charges []model.ProcessorCharge) (int, error) {
	query := `
		INSERT INTO processor_settlement (id, reference_id, amount_cents, settled_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(reference_id, settled_at) DO NOTHING
	`

	inserted := 0
	for _, charge := range charges {
		result, err := r.db.ExecContext(ctx, query,
			uuid.New().String(),
			charge.ReferenceID,
			charge.AmountCents,
			FormatTime(charge.SettledAt),
		)
		if err != nil {
			return inserted, fmt.Errorf("failed to insert processor_settlement: %w", err)
		}
		if n, err := result.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	return inserted, nil
}

// SettledCharges retrieves processor charges settled within the given range,
// oldest first.
func (r *ProcessorSettlementRepository) SettledCharges(ctx context.Context, startDate, endDate time.Time) ([]model.ProcessorCharge, error) {
	query := `
		SELECT reference_id, amount_cents, settled_at
		FROM processor_settlement
		WHERE settled_at >= ?
		AND settled_at <= ?
		ORDER BY settled_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, FormatTime(startDate), FormatTime(endDate))
	if err != nil {
		return nil, fmt.Errorf("failed to query processor_settlement: %w", err)
	}
	defer rows.Close()

	charges := []model.ProcessorCharge{}
	for rows.Next() {
		var charge model.ProcessorCharge
		var settledAtStr string

		if err := rows.Scan(&charge.ReferenceID, &charge.AmountCents, &settledAtStr); err != nil {
			return nil, fmt.Errorf("failed to scan processor_settlement results: %w", err)
		}

		charge.SettledAt, err = ParseTime(settledAtStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse settled_at: %w", err)
		}

		charges = append(charges, charge)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating processor_settlement: %w", err)
	}

	return charges, nil
}
