package request

// CategoryCloseRequest is the payload for settling a closed category.
// Both TOP10 lists must be ordered by final rank.
type CategoryCloseRequest struct {
	CategoryID      string   `json:"categoryId"`
	TotalAmountEUR  float64  `json:"totalAmountEur"`
	InvestorTop10   []string `json:"investorTop10"`
	CreatorTop10    []string `json:"creatorTop10"`
	InvestorMidTier []string `json:"investorMidTier"`
}

// SaleRequest is the payload for settling a unit article or book sale.
type SaleRequest struct {
	OrderID        string  `json:"orderId"`
	GrossAmountEUR float64 `json:"grossAmountEur"`
	RecipientID    string  `json:"recipientId"`
}

// MonthlyPotRequest is the payload for distributing a monthly category pot.
type MonthlyPotRequest struct {
	PotID        string   `json:"potId"`
	PotAmountEUR float64  `json:"potAmountEur"`
	Authors      []string `json:"authors"`
	Readers      []string `json:"readers"`
}

// Pot24hRequest is the payload for distributing a time-boxed pot.
type Pot24hRequest struct {
	PotID        string   `json:"potId"`
	PotAmountEUR float64  `json:"potAmountEur"`
	Winners      []string `json:"winners"`
}

// PointsConversionRequest is the payload for converting a points balance.
// ConversionID identifies this conversion event; retries must repeat it.
type PointsConversionRequest struct {
	UserID          string `json:"userId"`
	ConversionID    string `json:"conversionId"`
	AvailablePoints int64  `json:"availablePoints"`
}

// GoldenTicketRefundRequest is the payload for computing a tiered refund.
type GoldenTicketRefundRequest struct {
	UserID        string  `json:"userId"`
	TicketID      string  `json:"ticketId"`
	InvestmentEUR float64 `json:"investmentEur"`
	Rank          int     `json:"rank"`
}

// ExtensionPaymentRequest is the payload for recording a category extension
// purchase. PaymentIntentID is the per-purchase processor reference; retries
// must repeat it.
type ExtensionPaymentRequest struct {
	CategoryID      string `json:"categoryId"`
	PayerID         string `json:"payerId"`
	PaymentIntentID string `json:"paymentIntentId"`
	AmountCents     int64  `json:"amountCents"`
}
