package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesops-backend/internal/dashboard"
	"salesops-backend/internal/models"
)

var (
	_ dashboard.OrderSource           = (*Client)(nil)
	_ dashboard.DispatchedKeySource   = (*Client)(nil)
	_ dashboard.VerificationSource    = (*Client)(nil)
	_ dashboard.StockSource           = (*Client)(nil)
	_ dashboard.InvoiceSource         = (*Client)(nil)
	_ dashboard.VerificationSubmitter = (*Client)(nil)
	_ dashboard.DispatchSubmitter     = (*Client)(nil)
	_ dashboard.OrderCanceller        = (*Client)(nil)

	_ dashboard.OrderSource = (*FileSource)(nil)
	_ dashboard.StockSource = (*FileSource)(nil)
)

func TestClient_Orders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/orders", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, []string{"surat", "IT01"}, q["tokens"])
		assert.Equal(t, "2024-01-01", q.Get("startDate"))
		assert.Equal(t, "25", q.Get("limit"))
		assert.Empty(t, q.Get("offset"))
		json.NewEncoder(w).Encode(models.OrderPage{Rows: []models.OrderRow{{OrderNo: "SO-1"}}, Total: 9})
	}))
	defer srv.Close()

	page, err := New(srv.URL + "/").Orders(context.Background(), models.OrderQuery{
		Tokens: []string{"surat", "IT01"}, StartDate: "2024-01-01", Limit: 25,
	})
	require.NoError(t, err)
	assert.Equal(t, 9, page.Total)
	assert.Equal(t, "SO-1", page.Rows[0].OrderNo)
}

func TestClient_OrdersTokensKeepCommas(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, []string{"Sharma, Ravi", "IT01"}, q["tokens"])
		assert.Equal(t, []string{"A, B Traders"}, q["includeValues"])
		json.NewEncoder(w).Encode(models.OrderPage{})
	}))
	defer srv.Close()

	_, err := New(srv.URL).Orders(context.Background(), models.OrderQuery{
		Tokens:        []string{"Sharma, Ravi", "IT01"},
		IncludeColumn: "customer",
		IncludeValues: []string{"A, B Traders"},
	})
	require.NoError(t, err)
}

func TestClient_ErrStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "warehouse down", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL).DispatchedKeys(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStatus))
	assert.Contains(t, err.Error(), "502 warehouse down")
}

func TestClient_Actions(t *testing.T) {
	var gotDispatch models.DispatchSubmitRequest
	var gotCancel models.CancelRequest
	mux := http.NewServeMux()
	mux.HandleFunc("/api/dispatch", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		json.NewDecoder(r.Body).Decode(&gotDispatch)
		json.NewEncoder(w).Encode(models.DispatchSubmitResponse{Inserted: len(gotDispatch.Rows)})
	})
	mux.HandleFunc("/api/orders/cancel", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotCancel)
		json.NewEncoder(w).Encode(models.CancelResult{Success: false, Message: "no matching order found"})
	})
	mux.HandleFunc("/api/verification", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	c := New(srv.URL)

	n, err := c.SubmitDispatch(context.Background(), []models.DispatchRowIn{{OrderNo: "SO-1", Dispatched: true}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, gotDispatch.Rows[0].Dispatched)

	res, err := c.CancelOrder(context.Background(), "SO-7")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "SO-7", gotCancel.OrderNo)

	require.NoError(t, c.SubmitVerification(context.Background(), []models.VerificationRowIn{{OrderNo: "SO-1"}}))
}

func TestClient_EmptyItemsSkipRequest(t *testing.T) {
	c := New("http://127.0.0.1:0")
	rows, err := c.StockBatch(context.Background(), nil)
	assert.NoError(t, err)
	assert.Nil(t, rows)
	hist, err := c.InvoiceHistory(context.Background(), nil)
	assert.NoError(t, err)
	assert.Nil(t, hist)
}

func TestClient_EventsURL(t *testing.T) {
	assert.Equal(t, "ws://localhost:8080/ws/events", New("http://localhost:8080/").EventsURL())
	assert.Equal(t, "wss://ops.example/ws/events", New("https://ops.example").EventsURL())
}

func TestFileSource_VerificationsMergedByKey(t *testing.T) {
	at := time.Date(2024, 1, 9, 10, 0, 0, 0, time.UTC)
	src := NewFileSource(Fixture{Verifications: []models.VerificationRecord{
		{Key: "SO-1|ACME|IT01|RED", NewColor: "Navy"},
		{Key: "so-1|acme|it01|red", VerifiedAt: &at},
	}})

	got, err := src.Verifications(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "SO-1|ACME|IT01|RED", got[0].Key)
	assert.Equal(t, "Navy", got[0].NewColor)
	assert.True(t, got[0].Verified())
}

func TestFileSource_Orders(t *testing.T) {
	src := NewFileSource(Fixture{Orders: []models.OrderRow{
		{OrderNo: "SO-1", Customer: "Acme", Item: "IT01", Color: "Red", Rating: "CASH", OrderDate: "2024-01-10", Status: "Pending"},
		{OrderNo: "SO-1", Customer: "Acme", Item: "it01", Color: "Red", Rating: "HIGH", OrderDate: "2024-01-12", Status: "Pending"},
		{OrderNo: "SO-2", Customer: "Beta", Item: "IT02", Color: "Red", OrderDate: "2024-02-10", Status: "Pending"},
		{OrderNo: "SO-3", Customer: "Beta", Item: "LONGITEMCODE", Color: "Red", Status: "Pending"},
		{OrderNo: "SO-4", Customer: "Beta", Item: "IT04", Color: "Red", Status: "Cancelled"},
	}})

	page, err := src.Orders(context.Background(), models.OrderQuery{})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, "HIGH", page.Rows[0].Rating, "dedup keeps the best-rated row")
	assert.NotEmpty(t, page.Rows[0].Key)

	page, err = src.Orders(context.Background(), models.OrderQuery{StartDate: "2024-01-01", EndDate: "2024-01-31"})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)

	page, err = src.Orders(context.Background(), models.OrderQuery{
		StartDate: "2024-01-01", EndDate: "2024-01-31",
		IncludeColumn: "order_no", IncludeValues: []string{"so-2"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total, "include list widens the date filter")

	page, err = src.Orders(context.Background(), models.OrderQuery{Limit: 1, Offset: 5})
	require.NoError(t, err)
	assert.Empty(t, page.Rows)
	assert.Equal(t, 2, page.Total)
}

func TestLoadFixture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"orders": [{"order_no": "SO-1", "customer": "Acme", "item": "IT01", "color": "Red", "status": "Pending"}],
		"dispatched": ["SO-9|X|Y|Z"],
		"stock": [{"item": "IT01", "total": 0}, {"item": "IT02", "total": 3}]
	}`), 0o644))

	src, err := LoadFixture(path)
	require.NoError(t, err)

	keys, _ := src.DispatchedKeys(context.Background())
	assert.Equal(t, []string{"SO-9|X|Y|Z"}, keys)
	stock, _ := src.StockBatch(context.Background(), []string{"it01"})
	require.Len(t, stock, 1)
	assert.Equal(t, "IT01", stock[0].Item)

	_, err = LoadFixture(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
