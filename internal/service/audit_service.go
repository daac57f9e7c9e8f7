package service

import (
	"log"

	"github.com/visualplatform/settlement-core/internal/audit"
)

// AuditService exposes the administrative surface of the audit trail: read
// the trail, verify its integrity, rotate its files. Every administrative
// access is itself recorded in the trail.
type AuditService struct {
	trail        *audit.TrailService
	keepArchives int
}

// NewAuditService creates a new AuditService keeping the given number of
// rotated archives.
func NewAuditService(trail *audit.TrailService, keepArchives int) *AuditService {
	return &AuditService{
		trail:        trail,
		keepArchives: keepArchives,
	}
}

// Entries returns audit records newest first with optional actor and type
// filters, and records the read itself.
func (s *AuditService) Entries(actor string, limit, offset int, actorFilter, typeFilter string) ([]audit.Record, error) {
	records, err := s.trail.Entries(limit, offset, actorFilter, typeFilter)
	if err != nil {
		return nil, err
	}
	s.recordAccess(actor, "audit_trail", "read")
	return records, nil
}

// Verify re-checks every stored signature and returns the findings. A clean
// trail yields an empty finding list.
func (s *AuditService) Verify(actor string) ([]audit.Finding, error) {
	findings, err := s.trail.VerifyFile()
	if err != nil {
		return nil, err
	}
	s.recordAccess(actor, "audit_trail", "verify")
	return findings, nil
}

// Rotate archives the active log and prunes old archives, then records the
// rotation as the first entry of the fresh file.
func (s *AuditService) Rotate(actor string) error {
	if err := s.trail.Rotate(s.keepArchives); err != nil {
		return err
	}
	if err := s.trail.Append(actor, audit.LogsRotated{ArchivesKept: s.keepArchives}); err != nil {
		log.Printf("failed to record audit log rotation: %v", err)
	}
	return nil
}

func (s *AuditService) recordAccess(actor, resource, action string) {
	if err := s.trail.Append(actor, audit.AccessEvent{Resource: resource, Action: action}); err != nil {
		log.Printf("failed to record audit access: %v", err)
	}
}
