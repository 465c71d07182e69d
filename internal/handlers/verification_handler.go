package handlers

import (
	"context"
	"net/http"

	"salesops-backend/internal/dashboard"
	"salesops-backend/internal/models"
	"salesops-backend/pkg/utils"
)

// VerificationService is the verification boundary plus the confirm step.
type VerificationService interface {
	dashboard.VerificationSource
	dashboard.VerificationSubmitter
	Confirm(ctx context.Context, key string, row *models.OrderRow) (*models.OrderRow, error)
}

type VerificationHandler struct {
	Service VerificationService
}

func NewVerificationHandler(s VerificationService) *VerificationHandler {
	return &VerificationHandler{Service: s}
}

// ListVerifications returns the records merged by composite key.
func (h *VerificationHandler) ListVerifications(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Service.Verifications(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if rows == nil {
		rows = []models.VerificationRecord{}
	}
	utils.JSON(w, http.StatusOK, models.VerificationListResponse{Rows: rows})
}

func (h *VerificationHandler) SubmitVerification(w http.ResponseWriter, r *http.Request) {
	var req models.VerificationSubmitRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.Service.SubmitVerification(r.Context(), req.Rows); err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]int{"inserted": len(req.Rows)})
}

// ConfirmVerification sets the completion timestamp and answers with the
// row that was broadcast to other sessions.
func (h *VerificationHandler) ConfirmVerification(w http.ResponseWriter, r *http.Request) {
	var req models.VerificationConfirmRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	row, err := h.Service.Confirm(r.Context(), req.Key, req.Row)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "row": row})
}
