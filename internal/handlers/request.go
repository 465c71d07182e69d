package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"

	"salesops-backend/internal/models"
	"salesops-backend/internal/query"
	"salesops-backend/internal/services"
	"salesops-backend/pkg/utils"
)

var validate = validator.New()

// errBadRequest marks decode and validation failures.
var errBadRequest = errors.New("bad request")

// decodeBody reads a JSON body into dst and validates its struct tags.
func decodeBody(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid request body", errBadRequest)
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", errBadRequest, strings.Join(fields, "; "))
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

// writeError maps err to a status code: bad input 400, missing rows 404,
// anything else 500.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errBadRequest):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrVerificationNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// orderQueryFrom reads the order filters from URL parameters. Paging
// values that are not finite numbers fall back to their defaults.
func orderQueryFrom(v url.Values) models.OrderQuery {
	return models.OrderQuery{
		Q:             strings.TrimSpace(v.Get("q")),
		Tokens:        utils.SplitList(v["tokens"]),
		Brand:         strings.TrimSpace(v.Get("brand")),
		City:          strings.TrimSpace(v.Get("city")),
		StartDate:     strings.TrimSpace(v.Get("startDate")),
		EndDate:       strings.TrimSpace(v.Get("endDate")),
		Limit:         query.ParseLimit(v.Get("limit"), query.DefaultLimit, query.MaxLimit),
		Offset:        query.ParseOffset(v.Get("offset")),
		IncludeColumn: strings.TrimSpace(v.Get("includeColumn")),
		IncludeValues: utils.SplitList(v["includeValues"]),
	}
}
