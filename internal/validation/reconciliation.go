package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/visualplatform/settlement-core/internal/api/request"
)

// ValidateProcessorReport validates a processor settlement report upload.
func ValidateProcessorReport(req request.ProcessorReportRequest) error {
	errors := make(map[string]string)

	if len(req.Charges) == 0 {
		errors["charges"] = "charges must not be empty"
	}
	for i, charge := range req.Charges {
		if strings.TrimSpace(charge.ReferenceID) == "" {
			errors[fmt.Sprintf("charges[%d].referenceId", i)] = "referenceId is required"
		}
		if charge.AmountCents < 0 {
			errors[fmt.Sprintf("charges[%d].amountCents", i)] = "amountCents must not be negative"
		}
		if _, err := ParseFlexibleDate(charge.SettledAt); err != nil {
			errors[fmt.Sprintf("charges[%d].settledAt", i)] = err.Error()
		}
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}

// ValidateReconciliationRun validates the date bounds of a reconciliation run.
func ValidateReconciliationRun(req request.ReconciliationRunRequest) error {
	errors := make(map[string]string)

	start, err := ParseFlexibleDate(req.StartDate)
	if err != nil {
		errors["startDate"] = err.Error()
	}
	end, err := ParseFlexibleDate(req.EndDate)
	if err != nil {
		errors["endDate"] = err.Error()
	}
	if len(errors) == 0 && end.Before(start) {
		errors["endDate"] = ErrInvalidDateRange.Error()
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}

// ParseFlexibleDate parses RFC 3339 timestamps and plain YYYY-MM-DD dates.
func ParseFlexibleDate(value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, fmt.Errorf("date is required")
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed, nil
	}
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date: %s", value)
	}
	return parsed, nil
}
