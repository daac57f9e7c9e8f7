// Package audit implements the tamper-evident decision log of the settlement
// core. Every record is serialized canonically, signed with HMAC-SHA256 and
// appended as one line of newline-delimited JSON. Re-computing the HMAC over
// any stored record must reproduce the stored signature; a mismatch signals
// tampering or corruption.
package audit

import (
	"bufio"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/visualplatform/settlement-core/internal/apperrors"
)

// Record is one audit trail entry: what happened, who did it, and when.
// Records are immutable once written.
type Record struct {
	Timestamp int64           `json:"timestamp"`
	Type      string          `json:"type"`
	Actor     string          `json:"actor"`
	Data      json.RawMessage `json:"data"`
}

// SignedEntry pairs a record with the HMAC-SHA256 signature over its
// canonical serialization. One SignedEntry per log line.
type SignedEntry struct {
	Record    Record `json:"record"`
	Signature string `json:"signature"`
}

// Finding describes one discrepancy discovered while verifying the log file.
type Finding struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// TrailService appends, verifies, reads and rotates the signed audit log.
// All writers are serialized through a single mutex so concurrent appends
// queue rather than race, preserving line-by-line atomicity; rotation takes
// the same mutex so no append can be lost mid-rotation.
type TrailService struct {
	key     []byte
	logPath string
	mu      sync.Mutex
	now     func() time.Time
}

// NewTrailService creates a TrailService signing with the given HMAC key and
// writing to logPath.
func NewTrailService(key []byte, logPath string) *TrailService {
	return &TrailService{
		key:     key,
		logPath: logPath,
		now:     time.Now,
	}
}

// sign computes the hex HMAC-SHA256 of the payload under the service key.
func (s *TrailService) sign(payload []byte) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// canonicalBytes serializes a record into the canonical form the signature
// covers. encoding/json emits struct fields in declaration order and
// preserves the Data bytes verbatim, so re-serializing a parsed record
// reproduces the signed bytes exactly.
func canonicalBytes(record Record) ([]byte, error) {
	return json.Marshal(record)
}

// Append builds a record with a server-side timestamp for the given actor
// and event payload, signs it, and appends it as one line to the log file.
func (s *TrailService) Append(actor string, event EventPayload) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrFailedToAppendAudit, err)
	}

	record := Record{
		Timestamp: s.now().Unix(),
		Type:      event.EventType(),
		Actor:     actor,
		Data:      data,
	}

	raw, err := canonicalBytes(record)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrFailedToAppendAudit, err)
	}

	line, err := json.Marshal(SignedEntry{Record: record, Signature: s.sign(raw)})
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrFailedToAppendAudit, err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.logPath), 0o750); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrFailedToAppendAudit, err)
	}

	f, err := os.OpenFile(s.logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrFailedToAppendAudit, err)
	}
	defer f.Close()

	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrFailedToAppendAudit, err)
	}

	return nil
}

// VerifyFile scans every line of the log, re-parses it, recomputes the HMAC
// over each record and compares it to the stored signature. It returns every
// discrepancy found (invalid JSON, missing fields, signature mismatch) with
// its line number rather than failing fast: an audit tool must enumerate all
// problems, not just the first. A missing log file verifies clean.
func (s *TrailService) VerifyFile() ([]Finding, error) {
	f, err := os.Open(s.logPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrFailedToVerifyAuditTrail, err)
	}
	defer f.Close()

	findings := []Finding{}
	lineNumber := 0

	scanner := newLineScanner(f)
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var entry SignedEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			findings = append(findings, Finding{Line: lineNumber, Reason: "invalid JSON: " + err.Error()})
			continue
		}
		if entry.Signature == "" || entry.Record.Type == "" || entry.Record.Timestamp == 0 {
			findings = append(findings, Finding{Line: lineNumber, Reason: "missing record fields or signature"})
			continue
		}

		raw, err := canonicalBytes(entry.Record)
		if err != nil {
			findings = append(findings, Finding{Line: lineNumber, Reason: "record not serializable: " + err.Error()})
			continue
		}

		expected := s.sign(raw)
		if !hmac.Equal([]byte(expected), []byte(entry.Signature)) {
			findings = append(findings, Finding{Line: lineNumber, Reason: apperrors.ErrAuditSignatureMismatch.Error()})
		}
	}

	if err := scanner.Err(); err != nil {
		return findings, fmt.Errorf("%w: %v", apperrors.ErrFailedToVerifyAuditTrail, err)
	}

	return findings, nil
}

// Entries returns records (not signed entries) sorted newest-first, after
// applying the optional actor and type filters and offset/limit pagination.
// Signatures are not validated here; that is VerifyFile's job, run
// separately so paginated admin reads stay cheap. Corrupt lines are skipped.
func (s *TrailService) Entries(limit, offset int, actorFilter, typeFilter string) ([]Record, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	f, err := os.Open(s.logPath)
	if os.IsNotExist(err) {
		return []Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrFailedToRetrieveAuditTrail, err)
	}
	defer f.Close()

	records := []Record{}
	scanner := newLineScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var entry SignedEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			log.Printf("skipping corrupt audit line: %v", err)
			continue
		}

		if actorFilter != "" && entry.Record.Actor != actorFilter {
			continue
		}
		if typeFilter != "" && entry.Record.Type != typeFilter {
			continue
		}

		records = append(records, entry.Record)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrFailedToRetrieveAuditTrail, err)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp > records[j].Timestamp
	})

	if offset >= len(records) {
		return []Record{}, nil
	}
	end := offset + limit
	if end > len(records) {
		end = len(records)
	}

	return records[offset:end], nil
}

// Rotate archives the current log under a timestamp suffix, prunes archives
// beyond keepCount (newest kept), and truncates the active file to empty.
// It holds the append mutex for the whole rotation, so no in-flight append
// can land in a file that is about to be truncated.
func (s *TrailService) Rotate(keepCount int) error {
	if keepCount < 1 {
		keepCount = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.logPath); os.IsNotExist(err) {
		return nil
	}

	dir := filepath.Dir(s.logPath)
	base := filepath.Base(s.logPath)
	archivePath := filepath.Join(dir, fmt.Sprintf("%s.%s", base, s.now().UTC().Format("20060102T150405Z")))

	if err := copyFile(s.logPath, archivePath); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrFailedToRotateAuditLogs, err)
	}

	// Prune older archives; suffixes are sortable timestamps, so
	// lexicographic order is chronological order.
	names, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrFailedToRotateAuditLogs, err)
	}

	archives := []string{}
	for _, entry := range names {
		if entry.IsDir() || entry.Name() == base {
			continue
		}
		if strings.HasPrefix(entry.Name(), base+".") {
			archives = append(archives, entry.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(archives)))

	for i := keepCount; i < len(archives); i++ {
		if err := os.Remove(filepath.Join(dir, archives[i])); err != nil {
			return fmt.Errorf("%w: %v", apperrors.ErrFailedToRotateAuditLogs, err)
		}
	}

	if err := os.Truncate(s.logPath, 0); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrFailedToRotateAuditLogs, err)
	}

	return nil
}

// newLineScanner builds a scanner sized for long audit lines.
func newLineScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return scanner
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
