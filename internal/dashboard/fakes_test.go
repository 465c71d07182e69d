package dashboard

import (
	"context"
	"sync"
	"testing"

	"go.uber.org/goleak"

	"salesops-backend/internal/keys"
	"salesops-backend/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeOrders struct {
	mu      sync.Mutex
	calls   int
	queries []models.OrderQuery
	fn      func(ctx context.Context, call int, q models.OrderQuery) (models.OrderPage, error)
}

func pageOf(total int, rows ...models.OrderRow) *fakeOrders {
	return &fakeOrders{fn: func(context.Context, int, models.OrderQuery) (models.OrderPage, error) {
		out := make([]models.OrderRow, len(rows))
		copy(out, rows)
		return models.OrderPage{Rows: out, Total: total}, nil
	}}
}

func (f *fakeOrders) Orders(ctx context.Context, q models.OrderQuery) (models.OrderPage, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.queries = append(f.queries, q)
	f.mu.Unlock()
	return f.fn(ctx, call, q)
}

func (f *fakeOrders) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeDispatched struct {
	keys []string
	err  error
}

func (f *fakeDispatched) DispatchedKeys(context.Context) ([]string, error) {
	return f.keys, f.err
}

type fakeVerifications struct {
	rows []models.VerificationRecord
	err  error
}

func (f *fakeVerifications) Verifications(context.Context) ([]models.VerificationRecord, error) {
	return f.rows, f.err
}

type fakeStock struct {
	rows  []models.StockRow
	err   error
	items []string
}

func (f *fakeStock) StockBatch(_ context.Context, items []string) ([]models.StockRow, error) {
	f.items = append([]string(nil), items...)
	return f.rows, f.err
}

type fakeInvoices struct {
	rows []models.InvoiceHistory
	err  error
}

func (f *fakeInvoices) InvoiceHistory(context.Context, []string) ([]models.InvoiceHistory, error) {
	return f.rows, f.err
}

type fakeVerify struct {
	mu    sync.Mutex
	calls int
	rows  []models.VerificationRowIn
	err   error
	gate  chan struct{}
}

func (f *fakeVerify) SubmitVerification(ctx context.Context, rows []models.VerificationRowIn) error {
	f.mu.Lock()
	f.calls++
	f.rows = append(f.rows, rows...)
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.err
}

func (f *fakeVerify) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeDispatch struct {
	mu    sync.Mutex
	calls int
	rows  []models.DispatchRowIn
	err   error
}

func (f *fakeDispatch) SubmitDispatch(_ context.Context, rows []models.DispatchRowIn) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	f.rows = append(f.rows, rows...)
	return len(rows), nil
}

type fakeCancel struct {
	calls  int
	orders []string
	result models.CancelResult
	err    error
}

func (f *fakeCancel) CancelOrder(_ context.Context, orderNo string) (models.CancelResult, error) {
	f.calls++
	f.orders = append(f.orders, orderNo)
	return f.result, f.err
}

func row(orderNo, customer, item, color string, qty int, date string) models.OrderRow {
	return models.OrderRow{
		Key:       keys.CompositeKey(orderNo, customer, item, color),
		OrderNo:   orderNo,
		Customer:  customer,
		Item:      item,
		Color:     color,
		OrderQty:  qty,
		OrderDate: date,
		Status:    models.StatusPending,
	}
}

func rowKeys(rows []models.OrderRow) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Key)
	}
	return out
}
