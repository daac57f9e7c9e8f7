package handlers

import (
	"net/http"

	"github.com/visualplatform/settlement-core/internal/api/request"
	"github.com/visualplatform/settlement-core/internal/api/response"
	"github.com/visualplatform/settlement-core/internal/apperrors"
	"github.com/visualplatform/settlement-core/internal/model"
	"github.com/visualplatform/settlement-core/internal/service"
	"github.com/visualplatform/settlement-core/internal/validation"
)

// ReconciliationHandler handles HTTP requests for processor report ingestion
// and reconciliation runs.
type ReconciliationHandler struct {
	reconciliationService *service.ReconciliationService
}

// NewReconciliationHandler creates a new ReconciliationHandler with the provided service dependency.
func NewReconciliationHandler(reconciliationService *service.ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{
		reconciliationService: reconciliationService,
	}
}

// IngestReportResponse reports how many charges a report upload stored.
type IngestReportResponse struct {
	Received int `json:"received"`
	Inserted int `json:"inserted"`
}

// IngestReport handles POST requests to upload a processor settlement report.
// Re-uploads are safe; already stored charges are skipped.
//
// Endpoint: POST /api/reconciliation/processor-report
// Request Body: ProcessorReportRequest
// Response: 201 Created with IngestReportResponse
// Error: 400 Bad Request if validation fails
// Error: 500 Internal Server Error if storage fails
func (h *ReconciliationHandler) IngestReport(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.ProcessorReportRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateProcessorReport(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	charges := make([]model.ProcessorCharge, 0, len(req.Charges))
	for _, charge := range req.Charges {
		settledAt, err := validation.ParseFlexibleDate(charge.SettledAt)
		if err != nil {
			response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
			return
		}
		charges = append(charges, model.ProcessorCharge{
			ReferenceID: charge.ReferenceID,
			AmountCents: charge.AmountCents,
			SettledAt:   settledAt,
		})
	}

	inserted, err := h.reconciliationService.IngestProcessorReport(r.Context(), charges)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRunReconciliation.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusCreated, IngestReportResponse{
		Received: len(req.Charges),
		Inserted: inserted,
	})
}

// Run handles POST requests to reconcile a date range.
//
// Endpoint: POST /api/reconciliation/run
// Request Body: ReconciliationRunRequest
// Response: 200 OK with ReconciliationReport
// Error: 400 Bad Request if the date bounds are malformed
// Error: 500 Internal Server Error if the run fails
func (h *ReconciliationHandler) Run(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.ReconciliationRunRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validation.ValidateReconciliationRun(req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	startDate, _ := validation.ParseFlexibleDate(req.StartDate)
	endDate, _ := validation.ParseFlexibleDate(req.EndDate)

	report, err := h.reconciliationService.Run(r.Context(), requestActor(r), startDate, endDate)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRunReconciliation.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, report)
}
