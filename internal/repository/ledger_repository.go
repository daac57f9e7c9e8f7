package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/fernet/fernet-go"
	"github.com/google/uuid"

	"github.com/visualplatform/settlement-core/internal/apperrors"
	"github.com/visualplatform/settlement-core/internal/model"
)

// LedgerRepository provides data access methods for the ledger_entry table.
// Writes are idempotent: the unique constraint on idempotency_key makes a
// retried insert converge on the already-stored row instead of erroring or
// double-paying. When a fernet key is configured, external payment references
// are encrypted at rest.
type LedgerRepository struct {
	db     *sql.DB
	refKey *fernet.Key
}

// NewLedgerRepository creates a new LedgerRepository with the provided
// database connection. refKey may be nil, in which case external payment
// references are stored in plaintext.
func NewLedgerRepository(db *sql.DB, refKey *fernet.Key) *LedgerRepository {
	return &LedgerRepository{db: db, refKey: refKey}
}

const ledgerColumns = `id, transaction_type, reference_id, reference_type, recipient_id,
		gross_amount_cents, net_amount_cents, fee_cents, idempotency_key,
		payout_rule, status, external_payment_ref, created_at`

// CreateLedgerEntry durably records one payout entry. The write is safe to
// retry: if a row with the same idempotency key already exists, the insert is
// a no-op and the existing row is returned. Two processes racing to record
// the same entry both succeed and agree on the single resulting row, because
// uniqueness is enforced by the storage layer, not in-process locking.
//
// The entry's ID and CreatedAt are assigned here; Status starts as pending
// unless the caller set one.
func (r *LedgerRepository) CreateLedgerEntry(ctx context.Context, entry *model.LedgerEntry) (*model.LedgerEntry, error) {
	if entry.IdempotencyKey == "" {
		return nil, fmt.Errorf("%w: idempotency key", apperrors.ErrEmptyID)
	}
	if entry.GrossAmountCents < 0 || entry.NetAmountCents < 0 || entry.FeeCents < 0 {
		return nil, apperrors.ErrNegativeAmount
	}

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Status == "" {
		entry.Status = model.LedgerStatusPending
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	externalRef, err := r.encryptRef(entry.ExternalPaymentRef)
	if err != nil {
		return nil, err
	}

	insertQuery := `
		INSERT INTO ledger_entry (` + ledgerColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(idempotency_key) DO NOTHING
	`

	_, err = r.db.ExecContext(ctx, insertQuery,
		entry.ID,
		entry.TransactionType,
		entry.ReferenceID,
		entry.ReferenceType,
		nullString(entry.RecipientID),
		entry.GrossAmountCents,
		entry.NetAmountCents,
		entry.FeeCents,
		entry.IdempotencyKey,
		entry.PayoutRule,
		entry.Status,
		nullString(externalRef),
		FormatTime(entry.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert ledger_entry: %w", err)
	}

	// Read back through the idempotency key so retries and first writes
	// return the same stored row.
	return r.GetByIdempotencyKey(ctx, entry.IdempotencyKey)
}

// GetByIdempotencyKey retrieves a single ledger entry by its idempotency key.
func (r *LedgerRepository) GetByIdempotencyKey(ctx context.Context, key string) (*model.LedgerEntry, error) {
	query := `SELECT ` + ledgerColumns + ` FROM ledger_entry WHERE idempotency_key = ?`

	entry, err := r.scanEntry(r.db.QueryRowContext(ctx, query, key))
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrLedgerEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger_entry: %w", err)
	}
	return entry, nil
}

// GetLedgerEntries retrieves ledger entries matching the filter, newest
// first, up to limit rows. Zero-valued filter fields are ignored.
func (r *LedgerRepository) GetLedgerEntries(ctx context.Context, filter model.LedgerFilter, limit int) ([]model.LedgerEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	conditions := []string{}
	args := []any{}

	if filter.RecipientID != "" {
		conditions = append(conditions, "recipient_id = ?")
		args = append(args, filter.RecipientID)
	}
	if filter.TransactionType != "" {
		conditions = append(conditions, "transaction_type = ?")
		args = append(args, filter.TransactionType)
	}
	if filter.ReferenceID != "" {
		conditions = append(conditions, "reference_id = ?")
		args = append(args, filter.ReferenceID)
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, filter.Status)
	}
	if !filter.StartDate.IsZero() {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, FormatTime(filter.StartDate))
	}
	if !filter.EndDate.IsZero() {
		conditions = append(conditions, "created_at <= ?")
		args = append(args, FormatTime(filter.EndDate))
	}

	query := `SELECT ` + ledgerColumns + ` FROM ledger_entry`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger_entry: %w", err)
	}
	defer rows.Close()

	entries := []model.LedgerEntry{}
	for rows.Next() {
		entry, err := r.scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger_entry results: %w", err)
		}
		entries = append(entries, *entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger_entry: %w", err)
	}

	return entries, nil
}

// UpdateStatus transitions a ledger entry from pending to completed or
// failed as external payment execution reports back, optionally attaching
// the processor's payment reference. Entries are immutable otherwise: any
// transition not starting from pending fails with ErrInvalidStatusTransition.
func (r *LedgerRepository) UpdateStatus(ctx context.Context, idempotencyKey, newStatus, externalPaymentRef string) (*model.LedgerEntry, error) {
	if newStatus != model.LedgerStatusCompleted && newStatus != model.LedgerStatusFailed {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrInvalidStatusTransition, newStatus)
	}

	externalRef, err := r.encryptRef(externalPaymentRef)
	if err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	var current string
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM ledger_entry WHERE idempotency_key = ?`, idempotencyKey).Scan(&current)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrLedgerEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger_entry status: %w", err)
	}

	if current != model.LedgerStatusPending {
		return nil, fmt.Errorf("%w: %s -> %s", apperrors.ErrInvalidStatusTransition, current, newStatus)
	}

	// The pending guard is repeated in the WHERE clause; zero affected rows
	// means a concurrent transition won between the SELECT and the UPDATE.
	result, err := tx.ExecContext(ctx,
		`UPDATE ledger_entry SET status = ?, external_payment_ref = COALESCE(?, external_payment_ref)
		 WHERE idempotency_key = ? AND status = ?`,
		newStatus, nullString(externalRef), idempotencyKey, model.LedgerStatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to update ledger_entry status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("%w: %s -> %s", apperrors.ErrInvalidStatusTransition, current, newStatus)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit status update: %w", err)
	}

	return r.GetByIdempotencyKey(ctx, idempotencyKey)
}

// Totals aggregates gross, net and fee cent sums over entries created within
// the given range. Zero time bounds are ignored.
func (r *LedgerRepository) Totals(ctx context.Context, startDate, endDate time.Time) (*model.LedgerTotals, error) {
	conditions := []string{}
	args := []any{}
	if !startDate.IsZero() {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, FormatTime(startDate))
	}
	if !endDate.IsZero() {
		conditions = append(conditions, "created_at <= ?")
		args = append(args, FormatTime(endDate))
	}

	query := `
		SELECT COUNT(*),
		       COALESCE(SUM(gross_amount_cents), 0),
		       COALESCE(SUM(net_amount_cents), 0),
		       COALESCE(SUM(fee_cents), 0)
		FROM ledger_entry
	`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	var totals model.LedgerTotals
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&totals.EntryCount,
		&totals.GrossAmountCents,
		&totals.NetAmountCents,
		&totals.FeeCents,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate ledger_entry: %w", err)
	}

	return &totals, nil
}

// TotalsByType returns per-transaction-type gross cent sums within the range.
func (r *LedgerRepository) TotalsByType(ctx context.Context, startDate, endDate time.Time) (map[string]int64, error) {
	conditions := []string{}
	args := []any{}
	if !startDate.IsZero() {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, FormatTime(startDate))
	}
	if !endDate.IsZero() {
		conditions = append(conditions, "created_at <= ?")
		args = append(args, FormatTime(endDate))
	}

	query := `SELECT transaction_type, COALESCE(SUM(gross_amount_cents), 0) FROM ledger_entry`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " GROUP BY transaction_type"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate ledger_entry by type: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]int64)
	for rows.Next() {
		var transactionType string
		var cents int64
		if err := rows.Scan(&transactionType, &cents); err != nil {
			return nil, fmt.Errorf("failed to scan ledger_entry aggregate: %w", err)
		}
		totals[transactionType] = cents
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger_entry aggregate: %w", err)
	}

	return totals, nil
}

// CountByStatus returns the number of entries currently in the given status.
func (r *LedgerRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ledger_entry WHERE status = ?`, status).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count ledger_entry by status: %w", err)
	}
	return count, nil
}

// SettledTotalsByReference sums completed net amounts per reference within
// the range. Reconciliation compares this view against the processor report.
func (r *LedgerRepository) SettledTotalsByReference(ctx context.Context, startDate, endDate time.Time) (map[string]int64, error) {
	query := `
		SELECT reference_id, COALESCE(SUM(net_amount_cents), 0)
		FROM ledger_entry
		WHERE status = ?
		AND created_at >= ?
		AND created_at <= ?
		GROUP BY reference_id
	`

	rows, err := r.db.QueryContext(ctx, query,
		model.LedgerStatusCompleted, FormatTime(startDate), FormatTime(endDate))
	if err != nil {
		return nil, fmt.Errorf("failed to query settled ledger totals: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]int64)
	for rows.Next() {
		var referenceID string
		var cents int64
		if err := rows.Scan(&referenceID, &cents); err != nil {
			return nil, fmt.Errorf("failed to scan settled ledger totals: %w", err)
		}
		totals[referenceID] = cents
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating settled ledger totals: %w", err)
	}

	return totals, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *LedgerRepository) scanEntry(row rowScanner) (*model.LedgerEntry, error) {
	var entry model.LedgerEntry
	var recipientID, externalRef sql.NullString
	var createdAtStr string

	err := row.Scan(
		&entry.ID,
		&entry.TransactionType,
		&entry.ReferenceID,
		&entry.ReferenceType,
		&recipientID,
		&entry.GrossAmountCents,
		&entry.NetAmountCents,
		&entry.FeeCents,
		&entry.IdempotencyKey,
		&entry.PayoutRule,
		&entry.Status,
		&externalRef,
		&createdAtStr,
	)
	if err != nil {
		return nil, err
	}

	if recipientID.Valid {
		entry.RecipientID = recipientID.String
	}
	if externalRef.Valid {
		ref, err := r.decryptRef(externalRef.String)
		if err != nil {
			return nil, err
		}
		entry.ExternalPaymentRef = ref
	}

	entry.CreatedAt, err = ParseTime(createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}

	return &entry, nil
}

// encryptRef seals an external payment reference with the configured fernet
// key. A nil key stores references in plaintext.
func (r *LedgerRepository) encryptRef(ref string) (string, error) {
	if ref == "" || r.refKey == nil {
		return ref, nil
	}
	token, err := fernet.EncryptAndSign([]byte(ref), r.refKey)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt external payment reference: %w", err)
	}
	return string(token), nil
}

func (r *LedgerRepository) decryptRef(stored string) (string, error) {
	if stored == "" || r.refKey == nil {
		return stored, nil
	}
	plain := fernet.VerifyAndDecrypt([]byte(stored), 0, []*fernet.Key{r.refKey})
	if plain == nil {
		return "", apperrors.ErrLedgerRefDecryption
	}
	return string(plain), nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
