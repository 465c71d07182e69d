package handlers

import (
	"net/http"

	"salesops-backend/internal/dashboard"
	"salesops-backend/internal/models"
	"salesops-backend/pkg/utils"
)

type OrderHandler struct {
	Orders dashboard.OrderSource
	Cancel dashboard.OrderCanceller
}

func NewOrderHandler(orders dashboard.OrderSource, cancel dashboard.OrderCanceller) *OrderHandler {
	return &OrderHandler{Orders: orders, Cancel: cancel}
}

// ListOrders returns one deduplicated page of pending orders and the total
// for the same filters.
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	page, err := h.Orders.Orders(r.Context(), orderQueryFrom(r.URL.Query()))
	if err != nil {
		writeError(w, err)
		return
	}
	if page.Rows == nil {
		page.Rows = []models.OrderRow{}
	}
	utils.JSON(w, http.StatusOK, page)
}

// CancelOrder marks every line of an order cancelled. A well-formed request
// for an unknown order is answered with success=false, not an error status.
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	var req models.CancelRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.Cancel.CancelOrder(r.Context(), req.OrderNo)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, res)
}
