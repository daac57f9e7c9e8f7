package testutil

import (
	"database/sql"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/fernet/fernet-go"
	"github.com/google/uuid"

	"github.com/visualplatform/settlement-core/internal/audit"
	"github.com/visualplatform/settlement-core/internal/payout"
	"github.com/visualplatform/settlement-core/internal/repository"
	"github.com/visualplatform/settlement-core/internal/service"
)

// NewTestTrail creates a TrailService writing to a per-test temporary
// directory with a fixed test signing key.
func NewTestTrail(t *testing.T) *audit.TrailService {
	t.Helper()

	logPath := filepath.Join(t.TempDir(), "audit.log")
	return audit.NewTrailService([]byte("test-hmac-key-not-for-production"), logPath)
}

func NewTestSettlementService(t *testing.T, db *sql.DB) *service.SettlementService {
	t.Helper()

	ledgerRepo := repository.NewLedgerRepository(db, nil)

	return service.NewSettlementService(
		ledgerRepo,
		NewTestTrail(t),
		payout.DefaultPointsPolicy,
	)
}

func NewTestReconciliationService(t *testing.T, db *sql.DB) *service.ReconciliationService {
	t.Helper()

	ledgerRepo := repository.NewLedgerRepository(db, nil)
	processorRepo := repository.NewProcessorSettlementRepository(db)

	return service.NewReconciliationService(
		ledgerRepo,
		processorRepo,
		NewTestTrail(t),
	)
}

func NewTestSystemService(t *testing.T, db *sql.DB) *service.SystemService {
	t.Helper()

	return service.NewSystemService(db)
}

// NewFernetKey generates a fresh fernet key for encryption tests.
func NewFernetKey(t *testing.T) *fernet.Key {
	t.Helper()

	key := &fernet.Key{}
	if err := key.Generate(); err != nil {
		t.Fatalf("Failed to generate fernet key: %v", err)
	}
	return key
}

// MakeID generates a UUID string for use in tests.
//
// Example usage:
//
//	id := testutil.MakeID()
//	// Returns: "550e8400-e29b-41d4-a716-446655440000"
func MakeID() string {
	return uuid.New().String()
}

// MakeRecipientIDs generates n unique recipient IDs for testing.
//
// Example usage:
//
//	top10 := testutil.MakeRecipientIDs("inv", 10)
//	// Returns: ["inv-1-AB12CD", "inv-2-EF34GH", ...]
func MakeRecipientIDs(prefix string, n int) []string {
	if prefix == "" {
		prefix = "user"
	}
	ids := make([]string, n)
	for i := range ids {
		ids[i] = prefix + "-" + randomAlphanumeric(6)
	}
	return ids
}

// randomAlphanumeric generates a random alphanumeric string of specified length.
func randomAlphanumeric(length int) string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, length)
	for i := range result {
		//nolint:gosec // G404: Using math/rand for test data generation is acceptable
		result[i] = charset[rand.Intn(len(charset))]
	}
	return string(result)
}
