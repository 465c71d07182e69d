package handlers

import (
	"net/http"

	"salesops-backend/internal/dashboard"
	"salesops-backend/internal/models"
	"salesops-backend/pkg/utils"
)

// DashboardResponse is the reconciled and grouped view of one page.
type DashboardResponse struct {
	Rows        []models.OrderRow `json:"rows"`
	Groups      []dashboard.Group `json:"groups"`
	Total       int               `json:"total"`
	ServerTotal int               `json:"server_total"`
	Excluded    map[string]int    `json:"excluded"`
}

type DashboardHandler struct {
	Reconciler *dashboard.Reconciler
}

func NewDashboardHandler(rec *dashboard.Reconciler) *DashboardHandler {
	return &DashboardHandler{Reconciler: rec}
}

// Dashboard runs one reconciliation cycle server-side for thin clients.
// Accepts the order filters plus customers, items and groupBy.
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query()
	f := dashboard.Filters{
		Query:     orderQueryFrom(v),
		Customers: utils.SplitList(v["customers"]),
		Items:     utils.SplitList(v["items"]),
	}

	res, err := h.Reconciler.Run(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	rows := res.Rows
	if rows == nil {
		rows = []models.OrderRow{}
	}
	utils.JSON(w, http.StatusOK, DashboardResponse{
		Rows:        rows,
		Groups:      dashboard.GroupRows(rows, utils.SplitList(v["groupBy"])),
		Total:       res.Total,
		ServerTotal: res.ServerTotal,
		Excluded:    res.Excluded,
	})
}
