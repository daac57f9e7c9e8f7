package request

// LedgerStatusRequest is the payload for transitioning a ledger entry as
// payment execution reports back.
type LedgerStatusRequest struct {
	Status             string `json:"status"`
	ExternalPaymentRef string `json:"externalPaymentRef,omitempty"`
}
