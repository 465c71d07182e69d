package handlers

import (
	"net/http"

	"salesops-backend/internal/dashboard"
	"salesops-backend/internal/models"
	"salesops-backend/pkg/utils"
)

type DispatchHandler struct {
	Keys   dashboard.DispatchedKeySource
	Submit dashboard.DispatchSubmitter
}

func NewDispatchHandler(keys dashboard.DispatchedKeySource, submit dashboard.DispatchSubmitter) *DispatchHandler {
	return &DispatchHandler{Keys: keys, Submit: submit}
}

func (h *DispatchHandler) ListKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := h.Keys.DispatchedKeys(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if keys == nil {
		keys = []string{}
	}
	utils.JSON(w, http.StatusOK, models.DispatchKeysResponse{Keys: keys})
}

func (h *DispatchHandler) SubmitDispatch(w http.ResponseWriter, r *http.Request) {
	var req models.DispatchSubmitRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	n, err := h.Submit.SubmitDispatch(r.Context(), req.Rows)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, models.DispatchSubmitResponse{Inserted: n})
}
