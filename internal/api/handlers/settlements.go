package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/visualplatform/settlement-core/internal/api/request"
	"github.com/visualplatform/settlement-core/internal/api/response"
	"github.com/visualplatform/settlement-core/internal/apperrors"
	"github.com/visualplatform/settlement-core/internal/model"
	"github.com/visualplatform/settlement-core/internal/payout"
	"github.com/visualplatform/settlement-core/internal/service"
	"github.com/visualplatform/settlement-core/internal/validation"
)

// SettlementHandler handles HTTP requests for settlement operations.
// It serves as the HTTP layer adapter, parsing requests and delegating
// business logic to the settlementService.
type SettlementHandler struct {
	settlementService *service.SettlementService
}

// NewSettlementHandler creates a new SettlementHandler with the provided service dependency.
func NewSettlementHandler(settlementService *service.SettlementService) *SettlementHandler {
	return &SettlementHandler{
		settlementService: settlementService,
	}
}

// SettlementResponse pairs a calculation with the ledger rows it produced.
type SettlementResponse struct {
	Calculation *model.PayoutCalculation `json:"calculation"`
	Entries     []model.LedgerEntry      `json:"entries"`
}

// CloseCategory handles POST requests to settle a closed category.
//
// Endpoint: POST /api/settlements/category-close
// Request Body: CategoryCloseRequest
// Response: 201 Created with SettlementResponse
// Error: 400 Bad Request if validation fails or the rule rejects the input
// Error: 500 Internal Server Error if persistence fails
func (h *SettlementHandler) CloseCategory(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.CategoryCloseRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateCategoryClose(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	calc, entries, err := h.settlementService.CloseCategory(r.Context(), requestActor(r),
		req.CategoryID, req.TotalAmountEUR, req.InvestorTop10, req.CreatorTop10, req.InvestorMidTier)
	if err != nil {
		respondSettlementError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusCreated, SettlementResponse{Calculation: calc, Entries: entries})
}

// ArticleSale handles POST requests to settle a unit article sale.
//
// Endpoint: POST /api/settlements/sales/article
// Request Body: SaleRequest
// Response: 201 Created with SettlementResponse
// Error: 400 Bad Request if validation fails
// Error: 500 Internal Server Error if persistence fails
func (h *SettlementHandler) ArticleSale(w http.ResponseWriter, r *http.Request) {
	h.unitSale(w, r, h.settlementService.ProcessArticleSale)
}

// BookSale handles POST requests to settle a unit book sale.
//
// Endpoint: POST /api/settlements/sales/book
// Request Body: SaleRequest
// Response: 201 Created with SettlementResponse
// Error: 400 Bad Request if validation fails
// Error: 500 Internal Server Error if persistence fails
func (h *SettlementHandler) BookSale(w http.ResponseWriter, r *http.Request) {
	h.unitSale(w, r, h.settlementService.ProcessBookSale)
}

// MonthlyPot handles POST requests to distribute a monthly category pot.
//
// Endpoint: POST /api/settlements/pots/monthly
// Request Body: MonthlyPotRequest
// Response: 201 Created with SettlementResponse
func (h *SettlementHandler) MonthlyPot(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.MonthlyPotRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateMonthlyPot(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	calc, entries, err := h.settlementService.DistributeMonthlyPot(r.Context(), requestActor(r),
		req.PotID, req.PotAmountEUR, req.Authors, req.Readers)
	if err != nil {
		respondSettlementError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusCreated, SettlementResponse{Calculation: calc, Entries: entries})
}

// Pot24h handles POST requests to distribute a time-boxed pot among its
// winners.
//
// Endpoint: POST /api/settlements/pots/24h
// Request Body: Pot24hRequest
// Response: 201 Created with SettlementResponse
func (h *SettlementHandler) Pot24h(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.Pot24hRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidatePot24h(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	calc, entries, err := h.settlementService.DistributePot24h(r.Context(), requestActor(r),
		req.PotID, req.PotAmountEUR, req.Winners)
	if err != nil {
		respondSettlementError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusCreated, SettlementResponse{Calculation: calc, Entries: entries})
}

// PointsConversionResponse pairs a conversion with its ledger row.
type PointsConversionResponse struct {
	Conversion *model.PointsConversion `json:"conversion"`
	Entry      *model.LedgerEntry      `json:"entry"`
}

// ConvertPoints handles POST requests to convert a points balance to euros.
//
// Endpoint: POST /api/settlements/points/convert
// Request Body: PointsConversionRequest
// Response: 201 Created with PointsConversionResponse
// Error: 400 Bad Request if validation fails
// Error: 422 Unprocessable Entity if the balance is below the threshold
func (h *SettlementHandler) ConvertPoints(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.PointsConversionRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidatePointsConversion(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	conversion, entry, err := h.settlementService.ConvertPoints(r.Context(), requestActor(r),
		req.UserID, req.ConversionID, req.AvailablePoints)
	if err != nil {
		var belowThreshold *payout.BelowThresholdError
		if errors.As(err, &belowThreshold) {
			response.RespondError(w, http.StatusUnprocessableEntity,
				apperrors.ErrBelowThreshold.Error(), belowThreshold.Error())
			return
		}
		respondSettlementError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusCreated, PointsConversionResponse{Conversion: conversion, Entry: entry})
}

// GoldenTicketRefundResponse pairs a refund decision with its ledger row,
// which is absent for zero refunds.
type GoldenTicketRefundResponse struct {
	Refund *model.GoldenTicketRefund `json:"refund"`
	Entry  *model.LedgerEntry        `json:"entry,omitempty"`
}

// GoldenTicketRefund handles POST requests to compute a tiered refund.
//
// Endpoint: POST /api/settlements/golden-ticket-refund
// Request Body: GoldenTicketRefundRequest
// Response: 201 Created with GoldenTicketRefundResponse
func (h *SettlementHandler) GoldenTicketRefund(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.GoldenTicketRefundRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateGoldenTicketRefund(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	refund, entry, err := h.settlementService.GoldenTicketRefund(r.Context(), requestActor(r),
		req.UserID, req.TicketID, req.InvestmentEUR, req.Rank)
	if err != nil {
		respondSettlementError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusCreated, GoldenTicketRefundResponse{Refund: refund, Entry: entry})
}

// ExtensionPayment handles POST requests to record a category extension
// purchase.
//
// Endpoint: POST /api/settlements/extension
// Request Body: ExtensionPaymentRequest
// Response: 201 Created with LedgerEntry
func (h *SettlementHandler) ExtensionPayment(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.ExtensionPaymentRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateExtensionPayment(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	entry, err := h.settlementService.RecordExtensionPayment(r.Context(), requestActor(r),
		req.CategoryID, req.PayerID, req.PaymentIntentID, req.AmountCents)
	if err != nil {
		respondSettlementError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusCreated, entry)
}

func (h *SettlementHandler) unitSale(w http.ResponseWriter, r *http.Request,
	settle func(ctx context.Context, actor, orderID string, grossEUR float64, recipientID string) (*model.PayoutCalculation, []model.LedgerEntry, error)) {
	req, err := parseJSON[request.SaleRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateSale(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	calc, entries, err := settle(r.Context(), requestActor(r), req.OrderID, req.GrossAmountEUR, req.RecipientID)
	if err != nil {
		respondSettlementError(w, err)
		return
	}

	response.RespondJSON(w, http.StatusCreated, SettlementResponse{Calculation: calc, Entries: entries})
}

// respondSettlementError maps service errors onto HTTP statuses: rule input
// failures are the caller's fault, everything else is a server error.
func respondSettlementError(w http.ResponseWriter, err error) {
	if errors.Is(err, apperrors.ErrInvalidRuleInput) {
		response.RespondError(w, http.StatusBadRequest, apperrors.ErrInvalidRuleInput.Error(), err.Error())
		return
	}
	response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRecordLedgerEntry.Error(), err.Error())
}
