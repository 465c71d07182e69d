package handlers

import (
	"net/http"

	"salesops-backend/internal/dashboard"
	"salesops-backend/internal/models"
	"salesops-backend/pkg/utils"
)

type InvoiceHandler struct {
	Invoices dashboard.InvoiceSource
}

func NewInvoiceHandler(s dashboard.InvoiceSource) *InvoiceHandler {
	return &InvoiceHandler{Invoices: s}
}

// History returns the last invoice per customer/item/color for ?items=.
func (h *InvoiceHandler) History(w http.ResponseWriter, r *http.Request) {
	items := utils.SplitList(r.URL.Query()["items"])
	if len(items) == 0 {
		utils.JSON(w, http.StatusOK, models.InvoiceHistoryResponse{Rows: []models.InvoiceHistory{}})
		return
	}

	rows, err := h.Invoices.InvoiceHistory(r.Context(), items)
	if err != nil {
		writeError(w, err)
		return
	}
	if rows == nil {
		rows = []models.InvoiceHistory{}
	}
	utils.JSON(w, http.StatusOK, models.InvoiceHistoryResponse{Rows: rows})
}
