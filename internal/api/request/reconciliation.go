package request

// ProcessorChargeRequest is one settled charge as uploaded by the
// payment-execution component. SettledAt is RFC 3339.
type ProcessorChargeRequest struct {
	ReferenceID string `json:"referenceId"`
	AmountCents int64  `json:"amountCents"`
	SettledAt   string `json:"settledAt"`
}

// ProcessorReportRequest is a batch upload of processor-settled charges.
type ProcessorReportRequest struct {
	Charges []ProcessorChargeRequest `json:"charges"`
}

// ReconciliationRunRequest bounds a reconciliation run. Dates are RFC 3339
// or YYYY-MM-DD.
type ReconciliationRunRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}
