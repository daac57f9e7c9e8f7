package repository

import "github.com/google/uuid"

// idempotencyNamespace is the fixed UUIDv5 namespace for ledger idempotency
// keys. Changing it would re-key every future write against existing rows,
// so it is a constant of the system.
var idempotencyNamespace = uuid.MustParse("9f2c41de-55a1-4c4f-8f0e-3b7a6d2c9e10")

// IdempotencyKey derives the deterministic key under which a payout entry is
// stored. Identical calculation inputs always produce the identical key, so a
// retried persistence pass converges on the same rows instead of double-paying.
func IdempotencyKey(ruleVersion, referenceID, recipientID, entryType string) string {
	name := ruleVersion + "|" + referenceID + "|" + recipientID + "|" + entryType
	return uuid.NewSHA1(idempotencyNamespace, []byte(name)).String()
}
