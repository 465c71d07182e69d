package handlers

import (
	"net/http"

	"salesops-backend/internal/dashboard"
	"salesops-backend/internal/models"
	"salesops-backend/pkg/utils"
)

type StockHandler struct {
	Stock dashboard.StockSource
}

func NewStockHandler(s dashboard.StockSource) *StockHandler {
	return &StockHandler{Stock: s}
}

// Batch returns aggregated closing stock for the requested items.
func (h *StockHandler) Batch(w http.ResponseWriter, r *http.Request) {
	var req models.StockBatchRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	rows, err := h.Stock.StockBatch(r.Context(), req.Items)
	if err != nil {
		writeError(w, err)
		return
	}
	if rows == nil {
		rows = []models.StockRow{}
	}
	utils.JSON(w, http.StatusOK, models.StockBatchResponse{Rows: rows})
}
