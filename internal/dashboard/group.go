package dashboard

import (
	"sort"
	"strings"
	"time"

	"salesops-backend/internal/models"
	"salesops-backend/internal/timeutil"
)

// Group-by attributes.
const (
	GroupCustomer = "Customer"
	GroupItem     = "Item"
	GroupColor    = "Color"
	GroupBroker   = "Broker"
	GroupStatus   = "Status"
)

// EmptyGroupValue labels rows whose group attribute is blank.
const EmptyGroupValue = "(empty)"

var groupAttrs = map[string]func(*models.OrderRow) string{
	GroupCustomer: func(r *models.OrderRow) string { return r.Customer },
	GroupItem:     func(r *models.OrderRow) string { return r.Item },
	GroupColor:    func(r *models.OrderRow) string { return r.Color },
	GroupBroker:   func(r *models.OrderRow) string { return r.Broker },
	GroupStatus:   func(r *models.OrderRow) string { return r.Status },
}

var groupNames = map[string]string{
	"customer": GroupCustomer,
	"item":     GroupItem,
	"color":    GroupColor,
	"broker":   GroupBroker,
	"status":   GroupStatus,
}

// NormalizeGroupBy drops unknown and repeated attributes, preserving
// order. An empty result falls back to Customer.
func NormalizeGroupBy(attrs []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, a := range attrs {
		name, ok := groupNames[strings.ToLower(strings.TrimSpace(a))]
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	if len(out) == 0 {
		return []string{GroupCustomer}
	}
	return out
}

// Group is one partition of the visible rows.
type Group struct {
	Key      string            `json:"key"`
	Values   []string          `json:"values"`
	Count    int               `json:"count"`
	Qty      int               `json:"qty"`
	Earliest string            `json:"earliest,omitempty"`
	Rows     []models.OrderRow `json:"rows"`

	earliest time.Time
	hasDate  bool
}

// GroupRows partitions rows by the values of attrs. Groups are ordered by
// their earliest order date (groups without any parseable date last), then
// by key; rows inside a group by date then order number.
func GroupRows(rows []models.OrderRow, attrs []string) []Group {
	attrs = NormalizeGroupBy(attrs)

	index := make(map[string]int)
	var groups []Group
	for _, row := range rows {
		values := make([]string, len(attrs))
		for i, a := range attrs {
			v := strings.TrimSpace(groupAttrs[a](&row))
			if v == "" {
				v = EmptyGroupValue
			}
			values[i] = v
		}
		key := strings.Join(values, " / ")

		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{Key: key, Values: values})
		}
		g := &groups[i]
		g.Count++
		g.Qty += row.OrderQty
		g.Rows = append(g.Rows, row)
		if d, ok := row.ParsedDate(); ok && (!g.hasDate || d.Before(g.earliest)) {
			g.earliest = d
			g.hasDate = true
		}
	}

	for i := range groups {
		g := &groups[i]
		if g.hasDate {
			g.Earliest = timeutil.FormatDate(g.earliest)
		}
		sort.SliceStable(g.Rows, func(a, b int) bool { return rowDateLess(&g.Rows[a], &g.Rows[b]) })
	}

	sort.SliceStable(groups, func(a, b int) bool {
		ga, gb := &groups[a], &groups[b]
		switch {
		case ga.hasDate && !gb.hasDate:
			return true
		case !ga.hasDate && gb.hasDate:
			return false
		case ga.hasDate && gb.hasDate && !ga.earliest.Equal(gb.earliest):
			return ga.earliest.Before(gb.earliest)
		}
		return ga.Key < gb.Key
	})
	return groups
}

func rowDateLess(a, b *models.OrderRow) bool {
	da, okA := a.ParsedDate()
	db, okB := b.ParsedDate()
	switch {
	case okA && !okB:
		return true
	case !okA && okB:
		return false
	case okA && okB && !da.Equal(db):
		return da.Before(db)
	}
	return a.OrderNo < b.OrderNo
}
