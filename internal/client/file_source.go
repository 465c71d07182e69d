package client

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"salesops-backend/internal/keys"
	"salesops-backend/internal/models"
	"salesops-backend/internal/query"
	"salesops-backend/internal/timeutil"
)

// Fixture is an offline snapshot of every read-side boundary.
type Fixture struct {
	Orders        []models.OrderRow           `json:"orders"`
	Dispatched    []string                    `json:"dispatched"`
	Verifications []models.VerificationRecord `json:"verifications"`
	Stock         []models.StockRow           `json:"stock"`
	Invoices      []models.InvoiceHistory     `json:"invoices"`
}

// FileSource serves a Fixture as the dashboard read boundaries, filtering
// and paging orders in memory the way the warehouse query does.
type FileSource struct {
	fx Fixture
}

func LoadFixture(path string) (*FileSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var fx Fixture
	if err := json.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return NewFileSource(fx), nil
}

func NewFileSource(fx Fixture) *FileSource {
	for i := range fx.Orders {
		fx.Orders[i].EnsureKey()
	}
	return &FileSource{fx: fx}
}

func (s *FileSource) Orders(_ context.Context, q models.OrderQuery) (models.OrderPage, error) {
	var matched []models.OrderRow
	for _, r := range s.fx.Orders {
		if len(strings.TrimSpace(r.Item)) > 8 || !strings.EqualFold(strings.TrimSpace(r.Status), models.StatusPending) {
			continue
		}
		if matchesUser(r, q) || matchesInclude(r, q) {
			matched = append(matched, r)
		}
	}
	rows := query.Dedupe(matched)

	total := len(rows)
	offset := query.ClampOffset(q.Offset)
	limit := query.ClampLimit(q.Limit, query.DefaultLimit, query.MaxLimit)
	if offset > len(rows) {
		offset = len(rows)
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	return models.OrderPage{Rows: rows[offset:end], Total: total}, nil
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func textMatch(r models.OrderRow, term string) bool {
	return containsFold(r.OrderNo, term) || containsFold(r.Item, term) || containsFold(r.City, term)
}

func matchesUser(r models.OrderRow, q models.OrderQuery) bool {
	if term := strings.TrimSpace(q.Q); term != "" && !textMatch(r, term) {
		return false
	}
	tokens := keys.NormalizeAll(q.Tokens)
	if len(tokens) > 0 {
		hit := false
		for _, tok := range q.Tokens {
			if tok = strings.TrimSpace(tok); tok != "" && textMatch(r, tok) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	if b := strings.TrimSpace(q.Brand); b != "" && !strings.EqualFold(strings.TrimSpace(r.Brand), b) {
		return false
	}
	if c := strings.TrimSpace(q.City); c != "" && !strings.EqualFold(strings.TrimSpace(r.City), c) {
		return false
	}
	if start, ok := timeutil.ParseDate(q.StartDate); ok {
		d, ok := r.ParsedDate()
		if !ok || d.Before(start) {
			return false
		}
	}
	if end, ok := timeutil.ParseDate(q.EndDate); ok {
		d, ok := r.ParsedDate()
		if !ok || d.After(end) {
			return false
		}
	}
	return true
}

func matchesInclude(r models.OrderRow, q models.OrderQuery) bool {
	if !hasUserFilter(q) {
		return false
	}
	values := keys.NewSet(keys.NormalizeAll(q.IncludeValues)...)
	if len(values) == 0 {
		return false
	}
	var field string
	switch strings.ToLower(strings.TrimSpace(q.IncludeColumn)) {
	case "order_no", "orderno":
		field = r.OrderNo
	case "item":
		field = r.Item
	case "customer":
		field = r.Customer
	case "color":
		field = r.Color
	case "broker":
		field = r.Broker
	case "brand":
		field = r.Brand
	default:
		return false
	}
	return values.Has(keys.NormalizeField(field))
}

func hasUserFilter(q models.OrderQuery) bool {
	_, start := timeutil.ParseDate(q.StartDate)
	_, end := timeutil.ParseDate(q.EndDate)
	return strings.TrimSpace(q.Q) != "" || len(keys.NormalizeAll(q.Tokens)) > 0 ||
		strings.TrimSpace(q.Brand) != "" || strings.TrimSpace(q.City) != "" || start || end
}

func (s *FileSource) DispatchedKeys(context.Context) ([]string, error) {
	return s.fx.Dispatched, nil
}

// Verifications returns the fixture records merged by key, as the API does.
func (s *FileSource) Verifications(context.Context) ([]models.VerificationRecord, error) {
	return models.MergeVerifications(s.fx.Verifications), nil
}

func (s *FileSource) StockBatch(_ context.Context, items []string) ([]models.StockRow, error) {
	want := keys.NewSet(items...)
	var out []models.StockRow
	for _, row := range s.fx.Stock {
		if want.Has(row.Item) {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *FileSource) InvoiceHistory(_ context.Context, items []string) ([]models.InvoiceHistory, error) {
	want := keys.NewSet(items...)
	var out []models.InvoiceHistory
	for _, h := range s.fx.Invoices {
		if want.Has(h.Item) {
			out = append(out, h)
		}
	}
	return out, nil
}
