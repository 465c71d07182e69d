package rowshape

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"salesops-backend/internal/models"
	"salesops-backend/internal/timeutil"
)

var nameCity = regexp.MustCompile(`^(.*?)\s*\[\s*(.*?)\s*\]\s*$`)

// numericFields are coerced to float64 (or nil when not a number).
var numericFields = map[string]bool{
	"order_qty":    true,
	"qty":          true,
	"produced_qty": true,
	"stock_total":  true,
	"total":        true,
}

// SplitNameCity splits "Name [City]" into its parts. City is empty when the
// value carries no bracketed suffix.
func SplitNameCity(value string) (name, city string) {
	m := nameCity.FindStringSubmatch(value)
	if m == nil {
		return strings.TrimSpace(value), ""
	}
	return strings.TrimSpace(m[1]), m[2]
}

// CleanString renders a scalar as a trimmed string. Empty, whitespace-only
// and the literal "nan" collapse to "".
func CleanString(v any) string {
	var s string
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		s = t
	case []byte:
		s = string(t)
	case time.Time:
		return timeutil.FormatDate(t)
	case pgtype.Date:
		if !t.Valid {
			return ""
		}
		return timeutil.FormatDate(t.Time)
	case pgtype.Text:
		if !t.Valid {
			return ""
		}
		s = t.String
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return ""
		}
		s = strconv.FormatFloat(t, 'f', -1, 64)
	default:
		s = fmt.Sprint(t)
	}
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "nan") {
		return ""
	}
	return s
}

// ToNumber coerces numeric-looking values. ok is false for nil, blanks,
// NaN/Inf and anything that does not parse.
func ToNumber(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case nil:
		return 0, false
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int8:
		f = float64(t)
	case int16:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case uint32:
		f = float64(t)
	case uint64:
		f = float64(t)
	case json.Number:
		return ToNumber(string(t))
	case pgtype.Numeric:
		fv, err := t.Float64Value()
		if err != nil || !fv.Valid {
			return 0, false
		}
		f = fv.Float64
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(t), ",", "")
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case []byte:
		return ToNumber(string(t))
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Number is ToNumber returning nil for "not a number".
func Number(v any) *float64 {
	f, ok := ToNumber(v)
	if !ok {
		return nil
	}
	return &f
}

// NormalizeRow cleans one raw result row. Strings are trimmed and
// empty-ish values become "", numeric fields become float64 or nil, and the
// combined "customer" field is split into customer and city.
func NormalizeRow(raw map[string]any) map[string]any {
	out := make(map[string]any, len(raw)+1)
	for k, v := range raw {
		if numericFields[k] {
			if n := Number(v); n != nil {
				out[k] = *n
			} else {
				out[k] = nil
			}
			continue
		}
		out[k] = CleanString(v)
	}
	if c, ok := out["customer"].(string); ok {
		name, city := SplitNameCity(c)
		out["customer"] = name
		if city != "" {
			out["city"] = city
		}
	}
	return out
}

// ToOrderRow converts a raw warehouse row into an OrderRow. It never fails;
// missing or malformed values degrade to zero values.
func ToOrderRow(raw map[string]any) models.OrderRow {
	n := NormalizeRow(raw)
	str := func(k string) string {
		s, _ := n[k].(string)
		return s
	}

	row := models.OrderRow{
		OrderNo:      str("order_no"),
		OrderDateRaw: str("order_date_raw"),
		Customer:     str("customer"),
		City:         str("city"),
		Rating:       str("rating"),
		Broker:       str("broker"),
		Brand:        str("brand"),
		Item:         str("item"),
		Color:        str("color"),
		Size:         str("size"),
		Status:       str("status"),
		Concept:      str("concept"),
		Fabric:       str("fabric"),
		ImageRef:     str("image_ref"),
	}
	if q, ok := n["order_qty"].(float64); ok {
		row.OrderQty = int(q)
	}

	// Prefer the warehouse-parsed date; fall back to parsing the raw text.
	if d := str("order_date"); d != "" {
		if t, ok := timeutil.ParseDate(d); ok {
			row.OrderDate = timeutil.FormatDate(t)
		}
	}
	if row.OrderDate == "" {
		if t, ok := timeutil.ParseDate(row.OrderDateRaw); ok {
			row.OrderDate = timeutil.FormatDate(t)
		}
	}
	if row.OrderDateRaw == "" {
		row.OrderDateRaw = str("order_date")
	}

	row.EnsureKey()
	return row
}
