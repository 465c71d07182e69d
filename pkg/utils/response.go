package utils

import (
	"encoding/json"
	"net/http"
	"strings"
)

// JSON writes data with the given status code.
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// SplitList reads a list parameter. A repeated parameter keeps each value
// whole so items may contain commas; a single value is split on commas.
// Blanks are dropped and items trimmed.
func SplitList(values []string) []string {
	if len(values) == 1 {
		values = strings.Split(values[0], ",")
	}
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
