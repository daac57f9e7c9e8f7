package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/visualplatform/settlement-core/internal/api/request"
	"github.com/visualplatform/settlement-core/internal/api/response"
	"github.com/visualplatform/settlement-core/internal/apperrors"
	"github.com/visualplatform/settlement-core/internal/model"
	"github.com/visualplatform/settlement-core/internal/service"
	"github.com/visualplatform/settlement-core/internal/validation"
)

// LedgerHandler handles HTTP requests for ledger queries, status transitions
// and financial reporting.
type LedgerHandler struct {
	settlementService *service.SettlementService
}

// NewLedgerHandler creates a new LedgerHandler with the provided service dependency.
func NewLedgerHandler(settlementService *service.SettlementService) *LedgerHandler {
	return &LedgerHandler{
		settlementService: settlementService,
	}
}

// Entries handles GET requests to list ledger entries, newest first.
//
// Endpoint: GET /api/ledger
// Query params: recipient_id, transaction_type, reference_id, status,
// start_date, end_date, limit
// Response: 200 OK with array of LedgerEntry
// Error: 400 Bad Request if a date bound is malformed
// Error: 500 Internal Server Error if retrieval fails
func (h *LedgerHandler) Entries(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := model.LedgerFilter{
		RecipientID:     query.Get("recipient_id"),
		TransactionType: query.Get("transaction_type"),
		ReferenceID:     query.Get("reference_id"),
		Status:          query.Get("status"),
	}

	var err error
	if filter.StartDate, err = parseDateParam(query.Get("start_date")); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid start_date", err.Error())
		return
	}
	if filter.EndDate, err = parseDateParam(query.Get("end_date")); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid end_date", err.Error())
		return
	}

	limit, _ := strconv.Atoi(query.Get("limit"))

	entries, err := h.settlementService.LedgerEntries(r.Context(), filter, limit)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveLedgerEntries.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, entries)
}

// UpdateStatus handles PUT requests to transition a pending ledger entry as
// payment execution reports back.
//
// Endpoint: PUT /api/ledger/{idempotencyKey}/status
// Request Body: LedgerStatusRequest
// Response: 200 OK with the updated LedgerEntry
// Error: 400 Bad Request if validation fails
// Error: 404 Not Found if the entry does not exist
// Error: 409 Conflict if the entry is not pending
func (h *LedgerHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	idempotencyKey := chi.URLParam(r, "idempotencyKey")

	req, err := parseJSON[request.LedgerStatusRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateLedgerStatus(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	entry, err := h.settlementService.MarkLedgerStatus(r.Context(), requestActor(r),
		idempotencyKey, req.Status, req.ExternalPaymentRef)
	if err != nil {
		if errors.Is(err, apperrors.ErrLedgerEntryNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrLedgerEntryNotFound.Error(), err.Error())
			return
		}
		if errors.Is(err, apperrors.ErrInvalidStatusTransition) {
			response.RespondError(w, http.StatusConflict, apperrors.ErrInvalidStatusTransition.Error(), err.Error())
			return
		}
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToUpdateLedgerStatus.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, entry)
}

// Metrics handles GET requests for aggregated ledger metrics.
//
// Endpoint: GET /api/ledger/metrics
// Query params: start_date, end_date
// Response: 200 OK with FinancialMetrics
func (h *LedgerHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	startDate, endDate, ok := h.dateRange(w, r)
	if !ok {
		return
	}

	metrics, err := h.settlementService.FinancialMetrics(r.Context(), startDate, endDate)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveMetrics.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, metrics)
}

// Report handles GET requests for the per-period financial report.
//
// Endpoint: GET /api/ledger/report
// Query params: period (label), start_date, end_date
// Response: 200 OK with FinancialReport
func (h *LedgerHandler) Report(w http.ResponseWriter, r *http.Request) {
	startDate, endDate, ok := h.dateRange(w, r)
	if !ok {
		return
	}

	report, err := h.settlementService.FinancialReport(r.Context(),
		r.URL.Query().Get("period"), startDate, endDate)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveMetrics.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, report)
}

func (h *LedgerHandler) dateRange(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	query := r.URL.Query()

	startDate, err := parseDateParam(query.Get("start_date"))
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid start_date", err.Error())
		return time.Time{}, time.Time{}, false
	}
	endDate, err := parseDateParam(query.Get("end_date"))
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid end_date", err.Error())
		return time.Time{}, time.Time{}, false
	}
	return startDate, endDate, true
}

// parseDateParam parses an optional date query parameter. Empty values mean
// an open bound.
func parseDateParam(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return validation.ParseFlexibleDate(value)
}
