package validation

import (
	"fmt"
	"strings"

	"github.com/visualplatform/settlement-core/internal/api/request"
	"github.com/visualplatform/settlement-core/internal/model"
)

// ValidLedgerStatusTarget contains the statuses payment execution may report.
var ValidLedgerStatusTarget = map[string]bool{
	model.LedgerStatusCompleted: true,
	model.LedgerStatusFailed:    true,
}

// ValidateCategoryClose validates a category close request.
// Checks all required fields and validates their formats and constraints.
//
// Required fields:
//   - categoryId: Must be non-empty
//   - totalAmountEur: Must be positive
//   - investorTop10: Must contain exactly 10 distinct recipient IDs
//   - creatorTop10: Must contain exactly 10 distinct recipient IDs
//
// Returns a validation Error with field-specific error messages if validation fails.
func ValidateCategoryClose(req request.CategoryCloseRequest) error {
	errors := make(map[string]string)

	if strings.TrimSpace(req.CategoryID) == "" {
		errors["categoryId"] = "categoryId is required"
	}
	if req.TotalAmountEUR <= 0 {
		errors["totalAmountEur"] = "totalAmountEur must be positive"
	}
	validateRankedList(errors, "investorTop10", req.InvestorTop10)
	validateRankedList(errors, "creatorTop10", req.CreatorTop10)
	validateRecipientList(errors, "investorMidTier", req.InvestorMidTier)

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}

// ValidateSale validates a unit sale settlement request.
func ValidateSale(req request.SaleRequest) error {
	errors := make(map[string]string)

	if strings.TrimSpace(req.OrderID) == "" {
		errors["orderId"] = "orderId is required"
	}
	if req.GrossAmountEUR <= 0 {
		errors["grossAmountEur"] = "grossAmountEur must be positive"
	}
	if strings.TrimSpace(req.RecipientID) == "" {
		errors["recipientId"] = "recipientId is required"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}

// ValidateMonthlyPot validates a monthly pot distribution request.
// Either class may be empty; its share then falls to the platform.
func ValidateMonthlyPot(req request.MonthlyPotRequest) error {
	errors := make(map[string]string)

	if strings.TrimSpace(req.PotID) == "" {
		errors["potId"] = "potId is required"
	}
	if req.PotAmountEUR <= 0 {
		errors["potAmountEur"] = "potAmountEur must be positive"
	}
	validateRecipientList(errors, "authors", req.Authors)
	validateRecipientList(errors, "readers", req.Readers)

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}

// ValidatePot24h validates a time-boxed pot distribution request.
func ValidatePot24h(req request.Pot24hRequest) error {
	errors := make(map[string]string)

	if strings.TrimSpace(req.PotID) == "" {
		errors["potId"] = "potId is required"
	}
	if req.PotAmountEUR <= 0 {
		errors["potAmountEur"] = "potAmountEur must be positive"
	}
	validateRecipientList(errors, "winners", req.Winners)

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}

// ValidatePointsConversion validates a points conversion request. The
// threshold check belongs to the conversion rule, not to request validation.
func ValidatePointsConversion(req request.PointsConversionRequest) error {
	errors := make(map[string]string)

	if strings.TrimSpace(req.UserID) == "" {
		errors["userId"] = "userId is required"
	}
	if strings.TrimSpace(req.ConversionID) == "" {
		errors["conversionId"] = "conversionId is required"
	}
	if req.AvailablePoints < 0 {
		errors["availablePoints"] = "availablePoints must not be negative"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}

// ValidateGoldenTicketRefund validates a golden-ticket refund request.
func ValidateGoldenTicketRefund(req request.GoldenTicketRefundRequest) error {
	errors := make(map[string]string)

	if strings.TrimSpace(req.UserID) == "" {
		errors["userId"] = "userId is required"
	}
	if strings.TrimSpace(req.TicketID) == "" {
		errors["ticketId"] = "ticketId is required"
	}
	if req.InvestmentEUR <= 0 {
		errors["investmentEur"] = "investmentEur must be positive"
	}
	if req.Rank < 1 {
		errors["rank"] = "rank must be at least 1"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}

// ValidateExtensionPayment validates a category extension payment request.
func ValidateExtensionPayment(req request.ExtensionPaymentRequest) error {
	errors := make(map[string]string)

	if strings.TrimSpace(req.CategoryID) == "" {
		errors["categoryId"] = "categoryId is required"
	}
	if strings.TrimSpace(req.PayerID) == "" {
		errors["payerId"] = "payerId is required"
	}
	if strings.TrimSpace(req.PaymentIntentID) == "" {
		errors["paymentIntentId"] = "paymentIntentId is required"
	}
	if req.AmountCents <= 0 {
		errors["amountCents"] = "amountCents must be positive"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}

// ValidateLedgerStatus validates a ledger status transition request.
func ValidateLedgerStatus(req request.LedgerStatusRequest) error {
	errors := make(map[string]string)

	if strings.TrimSpace(req.Status) == "" {
		errors["status"] = "status is required"
	} else if !ValidLedgerStatusTarget[req.Status] {
		errors["status"] = fmt.Sprintf("invalid status: %s", req.Status)
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}

// validateRankedList requires exactly 10 distinct, non-empty recipient IDs.
func validateRankedList(errors map[string]string, field string, ids []string) {
	if len(ids) != 10 {
		errors[field] = fmt.Sprintf("%s must contain exactly 10 recipients", field)
		return
	}
	validateRecipientList(errors, field, ids)
}

// validateRecipientList rejects blank or duplicated recipient IDs.
func validateRecipientList(errors map[string]string, field string, ids []string) {
	seen := make(map[string]bool, len(ids))
	for i, id := range ids {
		if strings.TrimSpace(id) == "" {
			errors[field] = fmt.Sprintf("%s[%d] is empty", field, i)
			return
		}
		if seen[id] {
			errors[field] = fmt.Sprintf("%s contains duplicate recipient %s", field, id)
			return
		}
		seen[id] = true
	}
}
