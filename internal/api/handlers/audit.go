package handlers

import (
	"net/http"
	"strconv"

	"github.com/visualplatform/settlement-core/internal/api/response"
	"github.com/visualplatform/settlement-core/internal/apperrors"
	"github.com/visualplatform/settlement-core/internal/audit"
	"github.com/visualplatform/settlement-core/internal/service"
)

// AuditHandler handles HTTP requests for the administrative audit trail
// surface.
type AuditHandler struct {
	auditService *service.AuditService
}

// NewAuditHandler creates a new AuditHandler with the provided service dependency.
func NewAuditHandler(auditService *service.AuditService) *AuditHandler {
	return &AuditHandler{
		auditService: auditService,
	}
}

// Entries handles GET requests to read the audit trail, newest first.
//
// Endpoint: GET /api/audit
// Query params: limit, offset, actor, type
// Response: 200 OK with array of audit records
// Error: 500 Internal Server Error if the trail cannot be read
func (h *AuditHandler) Entries(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get("limit"))
	offset, _ := strconv.Atoi(query.Get("offset"))

	records, err := h.auditService.Entries(requestActor(r), limit, offset,
		query.Get("actor"), query.Get("type"))
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveAuditTrail.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, records)
}

// VerifyResponse summarizes an audit trail integrity check.
type VerifyResponse struct {
	Intact   bool            `json:"intact"`
	Findings []audit.Finding `json:"findings"`
}

// Verify handles POST requests to re-check every stored signature.
//
// Endpoint: POST /api/audit/verify
// Response: 200 OK with VerifyResponse
// Error: 500 Internal Server Error if the trail cannot be read
func (h *AuditHandler) Verify(w http.ResponseWriter, r *http.Request) {
	findings, err := h.auditService.Verify(requestActor(r))
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToVerifyAuditTrail.Error(), err.Error())
		return
	}
	if findings == nil {
		findings = []audit.Finding{}
	}

	response.RespondJSON(w, http.StatusOK, VerifyResponse{
		Intact:   len(findings) == 0,
		Findings: findings,
	})
}

// Rotate handles POST requests to archive the active audit log.
//
// Endpoint: POST /api/audit/rotate
// Response: 204 No Content on success
// Error: 500 Internal Server Error if rotation fails
func (h *AuditHandler) Rotate(w http.ResponseWriter, r *http.Request) {
	if err := h.auditService.Rotate(requestActor(r)); err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRotateAuditLogs.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusNoContent, nil)
}
