package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"salesops-backend/internal/models"
	"salesops-backend/internal/query"
	"salesops-backend/internal/repositories"
	"salesops-backend/pkg/utils"
)

type OptionLister interface {
	Options(ctx context.Context, kind, q string, limit int) ([]models.Option, error)
}

type OptionHandler struct {
	Service OptionLister
}

func NewOptionHandler(s OptionLister) *OptionHandler {
	return &OptionHandler{Service: s}
}

// ListOptions serves the values of one multi-select control.
func (h *OptionHandler) ListOptions(w http.ResponseWriter, r *http.Request) {
	kind := strings.ToLower(mux.Vars(r)["kind"])
	if !repositories.ValidOptionKind(kind) {
		http.Error(w, "unknown option list "+kind, http.StatusNotFound)
		return
	}

	v := r.URL.Query()
	limit := query.ParseLimit(v.Get("limit"), query.DefaultListLimit, query.MaxListLimit)
	opts, err := h.Service.Options(r.Context(), kind, v.Get("q"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, models.OptionsResponse{Options: opts})
}
