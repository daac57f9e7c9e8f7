package apperrors

import "errors"

// Domain entity errors represent missing or invalid entities in the system.
// These errors indicate that a requested resource does not exist.
var (
	// ErrLedgerEntryNotFound indicates that a ledger entry with the given
	// ID or idempotency key does not exist.
	ErrLedgerEntryNotFound = errors.New("ledger entry not found")

	// ErrDistributionRuleNotFound indicates that a payout was requested
	// against an unknown distribution rule version.
	ErrDistributionRuleNotFound = errors.New("distribution rule not found")
)

// Business logic errors represent validation failures or constraint violations.
// These errors indicate that an operation cannot be completed due to business rules.
var (
	// ErrInvalidRuleInput indicates that the input to a payout calculation
	// violates the shape the distribution rule expects (wrong-length ranked
	// list, non-positive gross amount). Raised before any arithmetic or
	// persistence runs, so a malformed request never misallocates money.
	ErrInvalidRuleInput = errors.New("invalid rule input")

	// ErrBelowThreshold indicates that a points conversion was requested
	// with a balance below the minimum conversion threshold.
	ErrBelowThreshold = errors.New("points balance below conversion threshold")

	// ErrInvalidStatusTransition indicates a ledger entry status change
	// that is not part of the pending -> completed|failed lifecycle.
	ErrInvalidStatusTransition = errors.New("invalid ledger status transition")

	// ErrEmptyID indicates that a required ID parameter is empty or missing.
	ErrEmptyID = errors.New("ID cannot be empty")

	// ErrNegativeAmount indicates that an amount field has an invalid negative value.
	ErrNegativeAmount = errors.New("amount cannot be negative")
)

// Operation failure errors represent system-level failures when retrieving or
// processing data. These errors indicate that an operation failed, but not due
// to missing entities or validation issues.
var (
	// Ledger operation errors
	ErrFailedToRecordLedgerEntry     = errors.New("failed to record ledger entry")
	ErrFailedToRetrieveLedgerEntries = errors.New("failed to retrieve ledger entries")
	ErrFailedToUpdateLedgerStatus    = errors.New("failed to update ledger entry status")

	// Audit trail operation errors
	ErrFailedToAppendAudit        = errors.New("failed to append audit record")
	ErrFailedToRetrieveAuditTrail = errors.New("failed to retrieve audit trail")
	ErrFailedToVerifyAuditTrail   = errors.New("failed to verify audit trail")
	ErrFailedToRotateAuditLogs    = errors.New("failed to rotate audit logs")

	// Settlement operation errors
	ErrFailedToExecutePayout     = errors.New("failed to execute payout")
	ErrFailedToRetrieveMetrics   = errors.New("failed to retrieve financial metrics")
	ErrFailedToRunReconciliation = errors.New("failed to run reconciliation")
)

// Data integrity errors represent inconsistencies or corruption in the data.
var (
	// ErrAuditSignatureMismatch indicates that recomputing the HMAC over a
	// stored audit record did not reproduce the stored signature.
	ErrAuditSignatureMismatch = errors.New("audit signature mismatch")

	// ErrLedgerRefDecryption indicates that a stored external payment
	// reference could not be decrypted with the configured key.
	ErrLedgerRefDecryption = errors.New("failed to decrypt external payment reference")
)
