package audit

// EventPayload is implemented by every audit event type. The event's wire
// type string comes from the payload itself, so a record can never be written
// with a type that does not match its data shape.
type EventPayload interface {
	EventType() string
}

// PayoutRecorded summarizes one completed payout calculation and the ledger
// rows it produced.
type PayoutRecorded struct {
	RuleVersion         string `json:"ruleVersion"`
	ReferenceID         string `json:"referenceId"`
	TotalAmountCents    int64  `json:"totalAmountCents"`
	PlatformAmountCents int64  `json:"platformAmountCents"`
	ResidualCents       int64  `json:"residualCents"`
	EntryCount          int    `json:"entryCount"`
}

func (PayoutRecorded) EventType() string { return "payout_recorded" }

// PointsConverted records a points-to-euro conversion.
type PointsConverted struct {
	UserID          string `json:"userId"`
	PointsConverted int64  `json:"pointsConverted"`
	PointsRemaining int64  `json:"pointsRemaining"`
	AmountCents     int64  `json:"amountCents"`
}

func (PointsConverted) EventType() string { return "points_converted" }

// RefundComputed records a golden-ticket refund decision.
type RefundComputed struct {
	UserID          string `json:"userId"`
	ReferenceID     string `json:"referenceId"`
	Rank            int    `json:"rank"`
	InvestmentCents int64  `json:"investmentCents"`
	RefundCents     int64  `json:"refundCents"`
}

func (RefundComputed) EventType() string { return "refund_computed" }

// ChargeRecorded records a platform-bound charge (such as a category
// extension purchase) entering the ledger.
type ChargeRecorded struct {
	ReferenceID string `json:"referenceId"`
	CategoryID  string `json:"categoryId,omitempty"`
	PayerID     string `json:"payerId"`
	AmountCents int64  `json:"amountCents"`
}

func (ChargeRecorded) EventType() string { return "charge_recorded" }

// LedgerStatusChanged records a ledger entry status transition reported by
// payment execution.
type LedgerStatusChanged struct {
	IdempotencyKey string `json:"idempotencyKey"`
	FromStatus     string `json:"fromStatus"`
	ToStatus       string `json:"toStatus"`
}

func (LedgerStatusChanged) EventType() string { return "ledger_status_changed" }

// ParameterChanged records an administrative change to a runtime parameter.
type ParameterChanged struct {
	Name     string `json:"name"`
	OldValue string `json:"oldValue"`
	NewValue string `json:"newValue"`
}

func (ParameterChanged) EventType() string { return "parameter_changed" }

// AccessEvent records an administrative access to a sensitive resource.
type AccessEvent struct {
	Resource string `json:"resource"`
	Action   string `json:"action"`
}

func (AccessEvent) EventType() string { return "access_event" }

// LogsRotated records an audit log rotation.
type LogsRotated struct {
	ArchivePath  string `json:"archivePath"`
	ArchivesKept int    `json:"archivesKept"`
}

func (LogsRotated) EventType() string { return "logs_rotated" }

// ReconciliationCompleted records the outcome of a reconciliation run.
type ReconciliationCompleted struct {
	TotalCount      int     `json:"totalCount"`
	MismatchedCount int     `json:"mismatchedCount"`
	DivergenceRatio float64 `json:"divergenceRatio"`
	WarningCount    int     `json:"warningCount"`
}

func (ReconciliationCompleted) EventType() string { return "reconciliation_completed" }
