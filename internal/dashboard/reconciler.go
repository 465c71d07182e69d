package dashboard

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"salesops-backend/internal/keys"
	"salesops-backend/internal/logging"
	"salesops-backend/internal/metrics"
	"salesops-backend/internal/models"
	"salesops-backend/internal/rowshape"
	"salesops-backend/internal/timeutil"
)

// Filters is the applied filter state of one cycle. Query goes to the
// order boundary; Customers and Items are multi-select filters applied
// after the page is fetched.
type Filters struct {
	Query     models.OrderQuery `json:"query"`
	Customers []string          `json:"customers,omitempty"`
	Items     []string          `json:"items,omitempty"`
}

// Result is the outcome of one reconciliation cycle.
type Result struct {
	Rows        []models.OrderRow
	Total       int
	ServerTotal int
	Excluded    map[string]int
	Dispatched  keys.Set
	Pending     keys.Set
	Verified    map[string]models.VerificationRecord
}

// Reconciler merges the order page with dispatched keys, verifications,
// invoice history and stock into the visible row set.
type Reconciler struct {
	src    Sources
	logger *zap.Logger
	now    func() time.Time
}

func NewReconciler(src Sources, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		src:    src,
		logger: logging.OrNop(logger).Named("reconciler"),
		now:    timeutil.Now,
	}
}

// Run executes one cycle. Failures of the auxiliary sources degrade to
// empty data; a failed order fetch is returned. A cancelled ctx yields
// ctx.Err() and no result.
func (r *Reconciler) Run(ctx context.Context, f Filters) (*Result, error) {
	res := &Result{
		Excluded:   make(map[string]int),
		Dispatched: keys.NewSet(),
		Pending:    keys.NewSet(),
		Verified:   make(map[string]models.VerificationRecord),
	}

	// Dispatched keys and verifications gate everything after them.
	var dispatched []string
	var verifications []models.VerificationRecord
	var g errgroup.Group
	g.Go(func() error {
		if r.src.Dispatched == nil {
			return nil
		}
		k, err := r.src.Dispatched.DispatchedKeys(ctx)
		if err != nil {
			r.degrade(ctx, "dispatched keys", err)
			return nil
		}
		dispatched = k
		return nil
	})
	g.Go(func() error {
		if r.src.Verifications == nil {
			return nil
		}
		v, err := r.src.Verifications.Verifications(ctx)
		if err != nil {
			r.degrade(ctx, "verifications", err)
			return nil
		}
		verifications = v
		return nil
	})
	g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, k := range dispatched {
		res.Dispatched.Add(k)
	}
	// Sources may hand back unmerged records; a completed one wins over
	// pending ones for the same key.
	for _, v := range models.MergeVerifications(verifications) {
		key := v.Key
		if v.Verified() {
			res.Verified[key] = v
		} else {
			res.Pending.Add(key)
		}
	}

	page, err := r.src.Orders.Orders(ctx, f.Query)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("fetch orders: %w", err)
	}
	res.ServerTotal = page.Total

	rows := make([]models.OrderRow, 0, len(page.Rows))
	for _, row := range page.Rows {
		key := strings.ToUpper(strings.TrimSpace(row.EnsureKey()))
		row.Key = key
		switch {
		case res.Dispatched.Has(key):
			res.Excluded[metrics.StageDispatched]++
			continue
		case res.Pending.Has(key):
			res.Excluded[metrics.StagePending]++
			continue
		}
		if v, ok := res.Verified[key]; ok {
			at := *v.VerifiedAt
			row.VerifiedAt = &at
			if row.ReplacementColor == "" {
				row.ReplacementColor = v.NewColor
			}
		}
		rows = append(rows, row)
	}

	// Stock and invoice history are looked up for the surviving items only.
	items := itemSet(rows)
	var stock []models.StockRow
	var history []models.InvoiceHistory
	if len(items) > 0 {
		var g errgroup.Group
		g.Go(func() error {
			if r.src.Stock == nil {
				return nil
			}
			s, err := r.src.Stock.StockBatch(ctx, items)
			if err != nil {
				r.degrade(ctx, "stock", err)
				return nil
			}
			stock = s
			return nil
		})
		g.Go(func() error {
			if r.src.Invoices == nil {
				return nil
			}
			h, err := r.src.Invoices.InvoiceHistory(ctx, items)
			if err != nil {
				r.degrade(ctx, "invoice history", err)
				return nil
			}
			history = h
			return nil
		})
		g.Wait()
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	rows = r.applyInvoiceHistory(rows, history, res)
	rows = applyStock(rows, stock, res)
	rows = applySelection(rows, f, res)
	SortVisible(rows)

	excluded := 0
	for stage, n := range res.Excluded {
		excluded += n
		metrics.RowsExcluded.WithLabelValues(stage).Add(float64(n))
	}
	res.Rows = rows
	res.Total = res.ServerTotal - excluded
	if res.Total < 0 {
		res.Total = 0
	}
	return res, nil
}

func (r *Reconciler) degrade(ctx context.Context, source string, err error) {
	if ctx.Err() != nil {
		return
	}
	r.logger.Warn("source unavailable, continuing without it",
		zap.String("source", source), zap.Error(err))
}

func itemSet(rows []models.OrderRow) []string {
	seen := make(map[string]bool)
	var out []string
	for _, row := range rows {
		it := normItem(row.Item)
		if it == "" || seen[it] {
			continue
		}
		seen[it] = true
		out = append(out, it)
	}
	return out
}

func normItem(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func historyKey(customer, item, color string) string {
	return keys.NormalizeField(customer) + "|" + normItem(item) + "|" + normItem(color)
}

// applyInvoiceHistory hides rows ordered before the last matching invoice
// and annotates the rest with how long ago that invoice went out.
func (r *Reconciler) applyInvoiceHistory(rows []models.OrderRow, history []models.InvoiceHistory, res *Result) []models.OrderRow {
	if len(history) == 0 {
		return rows
	}
	last := make(map[string]models.InvoiceHistory, len(history))
	for _, h := range history {
		k := historyKey(h.Customer, h.Item, h.Color)
		if prev, ok := last[k]; !ok || h.LastInvoiceDate.After(prev.LastInvoiceDate) {
			last[k] = h
		}
	}

	today := r.now()
	out := rows[:0]
	for _, row := range rows {
		h, ok := last[historyKey(row.Customer, row.Item, row.Color)]
		if !ok || h.LastInvoiceDate.IsZero() {
			out = append(out, row)
			continue
		}
		invoiced := timeutil.StartOfDay(h.LastInvoiceDate)
		if ordered, ok := row.ParsedDate(); ok && ordered.Before(invoiced) {
			res.Excluded[metrics.StageInvoiced]++
			continue
		}
		days := timeutil.DaysBetween(invoiced, today)
		row.LastDispatchDays = &days
		row.DispatchNote = fmt.Sprintf("dispatched %d days ago", days)
		out = append(out, row)
	}
	return out
}

// applyStock drops rows whose item stock is zero or not a number and
// annotates the rest. Items without any stock row are kept.
func applyStock(rows []models.OrderRow, stock []models.StockRow, res *Result) []models.OrderRow {
	if len(stock) == 0 {
		return rows
	}
	byItem := make(map[string]models.StockRow, len(stock))
	for _, s := range stock {
		byItem[normItem(s.Item)] = s
	}

	out := rows[:0]
	for _, row := range rows {
		s, ok := byItem[normItem(row.Item)]
		if !ok || s.Total == nil {
			out = append(out, row)
			continue
		}
		total, valid := rowshape.ToNumber(s.Total)
		if !valid || total == 0 {
			res.Excluded[metrics.StageZeroStock]++
			continue
		}
		row.StockTotal = &total
		for color, qty := range s.Colors {
			if normItem(color) == normItem(row.Color) {
				q := qty
				row.ColorStock = &q
				break
			}
		}
		out = append(out, row)
	}
	return out
}

// applySelection keeps rows matching every non-empty multi-select.
func applySelection(rows []models.OrderRow, f Filters, res *Result) []models.OrderRow {
	customers := keys.NormalizeAll(f.Customers)
	items := keys.NormalizeAll(f.Items)
	if len(customers) == 0 && len(items) == 0 {
		return rows
	}
	customerSet := keys.NewSet(customers...)
	itemFilter := keys.NewSet(items...)

	out := rows[:0]
	for _, row := range rows {
		if len(customers) > 0 && !customerSet.Has(keys.NormalizeField(row.Customer)) {
			res.Excluded[metrics.StageSelection]++
			continue
		}
		if len(items) > 0 && !itemFilter.Has(keys.NormalizeField(row.Item)) {
			res.Excluded[metrics.StageSelection]++
			continue
		}
		out = append(out, row)
	}
	return out
}

// SortVisible orders rows by quantity (largest first), then total stock
// (largest first, unknown last), then order date (earliest first,
// unparseable last).
func SortVisible(rows []models.OrderRow) {
	stock := func(r *models.OrderRow) float64 {
		if r.StockTotal == nil {
			return math.Inf(-1)
		}
		return *r.StockTotal
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := &rows[i], &rows[j]
		if a.OrderQty != b.OrderQty {
			return a.OrderQty > b.OrderQty
		}
		if sa, sb := stock(a), stock(b); sa != sb {
			return sa > sb
		}
		da, okA := a.ParsedDate()
		db, okB := b.ParsedDate()
		switch {
		case okA && !okB:
			return true
		case !okA && okB:
			return false
		case okA && okB:
			return da.Before(db)
		}
		return false
	})
}
