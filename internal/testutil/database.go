package testutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite" // Test Package
)

// SetupTestDB creates an in-memory SQLite database for testing.
// The database is automatically cleaned up when the test completes.
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    db := testutil.SetupTestDB(t)
//	    // db is ready to use with schema created
//	}
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// In-memory database (destroyed when connection closes)
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		t.Fatalf("Failed to ping test database: %v", err)
	}

	// Configure SQLite for testing
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = MEMORY", // Faster for tests
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			t.Fatalf("Failed to set pragma: %v", err)
		}
	}

	// Create schema
	if err := createTestSchema(db); err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}

	// Cleanup when test ends
	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// createTestSchema creates all database tables for testing.
// Schema is synchronized with the goose migrations.
func createTestSchema(db *sql.DB) error {
	schema := `
		-- Ledger entry table
		CREATE TABLE IF NOT EXISTS ledger_entry (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			transaction_type VARCHAR(40) NOT NULL,
			reference_id VARCHAR(100) NOT NULL,
			reference_type VARCHAR(40) NOT NULL,
			recipient_id VARCHAR(100),
			gross_amount_cents INTEGER NOT NULL,
			net_amount_cents INTEGER NOT NULL,
			fee_cents INTEGER NOT NULL,
			idempotency_key VARCHAR(36) NOT NULL UNIQUE,
			payout_rule VARCHAR(60) NOT NULL,
			status VARCHAR(10) NOT NULL,
			external_payment_ref TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP NOT NULL
		);

		-- Processor settlement table
		CREATE TABLE IF NOT EXISTS processor_settlement (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			reference_id VARCHAR(100) NOT NULL,
			amount_cents INTEGER NOT NULL,
			settled_at DATETIME NOT NULL,
			ingested_at DATETIME DEFAULT CURRENT_TIMESTAMP NOT NULL,
			CONSTRAINT unique_processor_settlement UNIQUE (reference_id, settled_at)
		);

		-- Indexes for performance
		CREATE INDEX IF NOT EXISTS ix_ledger_entry_recipient_id ON ledger_entry(recipient_id);
		CREATE INDEX IF NOT EXISTS ix_ledger_entry_transaction_type ON ledger_entry(transaction_type);
		CREATE INDEX IF NOT EXISTS ix_ledger_entry_reference ON ledger_entry(reference_type, reference_id);
		CREATE INDEX IF NOT EXISTS ix_ledger_entry_status ON ledger_entry(status);
		CREATE INDEX IF NOT EXISTS ix_ledger_entry_created_at ON ledger_entry(created_at);
		CREATE INDEX IF NOT EXISTS ix_processor_settlement_settled_at ON processor_settlement(settled_at);
	`

	_, err := db.Exec(schema)
	return err
}

// CleanDatabase truncates all tables.
// Useful for reusing the same database across multiple tests.
func CleanDatabase(t *testing.T, db *sql.DB) {
	t.Helper()

	tables := []string{
		"ledger_entry",
		"processor_settlement",
	}

	for _, table := range tables {
		query := "DELETE FROM " + table
		if _, err := db.Exec(query); err != nil {
			t.Fatalf("Failed to clean table %s: %v", table, err)
		}
	}
}

// CountRows returns the number of rows in a table.
// Useful for assertions in tests.
func CountRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()

	var count int
	query := "SELECT COUNT(*) FROM " + table
	err := db.QueryRow(query).Scan(&count)
	if err != nil {
		t.Fatalf("Failed to count rows in %s: %v", table, err)
	}

	return count
}

// AssertRowCount asserts that a table has the expected number of rows.
//
// Example usage:
//
//	testutil.AssertRowCount(t, db, "ledger_entry", 22)
func AssertRowCount(t *testing.T, db *sql.DB, table string, expected int) {
	t.Helper()

	actual := CountRows(t, db, table)
	if actual != expected {
		t.Errorf("Expected %d rows in %s, got %d", expected, table, actual)
	}
}
