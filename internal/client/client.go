// Package client talks to the salesops HTTP API. Client satisfies every
// dashboard boundary so a Board can run outside the server process.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"salesops-backend/internal/models"
)

// ErrStatus is returned for any non-2xx response.
var ErrStatus = errors.New("unexpected response status")

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 512

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) *Client {
	return NewWithHTTPClient(baseURL, &http.Client{Timeout: 30 * time.Second})
}

func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

// EventsURL is the websocket URL of the sync event stream.
func (c *Client) EventsURL() string {
	u := c.baseURL + "/ws/events"
	switch {
	case strings.HasPrefix(u, "https://"):
		return "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		return "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out interface{}) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		jsonData, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s: %w", path, err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%s %s: %w: %d %s", method, path, ErrStatus, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func orderValues(q models.OrderQuery) url.Values {
	v := url.Values{}
	set := func(k, val string) {
		if val = strings.TrimSpace(val); val != "" {
			v.Set(k, val)
		}
	}
	set("q", q.Q)
	set("brand", q.Brand)
	set("city", q.City)
	set("startDate", q.StartDate)
	set("endDate", q.EndDate)
	set("includeColumn", q.IncludeColumn)
	if len(q.Tokens) > 0 {
		v["tokens"] = q.Tokens
	}
	if len(q.IncludeValues) > 0 {
		v["includeValues"] = q.IncludeValues
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		v.Set("offset", strconv.Itoa(q.Offset))
	}
	return v
}

func (c *Client) Orders(ctx context.Context, q models.OrderQuery) (models.OrderPage, error) {
	var page models.OrderPage
	err := c.do(ctx, http.MethodGet, "/api/orders", orderValues(q), nil, &page)
	return page, err
}

func (c *Client) DispatchedKeys(ctx context.Context) ([]string, error) {
	var resp models.DispatchKeysResponse
	if err := c.do(ctx, http.MethodGet, "/api/dispatch/keys", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Keys, nil
}

func (c *Client) Verifications(ctx context.Context) ([]models.VerificationRecord, error) {
	var resp models.VerificationListResponse
	if err := c.do(ctx, http.MethodGet, "/api/verification", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Rows, nil
}

func (c *Client) StockBatch(ctx context.Context, items []string) ([]models.StockRow, error) {
	if len(items) == 0 {
		return nil, nil
	}
	var resp models.StockBatchResponse
	if err := c.do(ctx, http.MethodPost, "/api/stock/batch", nil, models.StockBatchRequest{Items: items}, &resp); err != nil {
		return nil, err
	}
	return resp.Rows, nil
}

func (c *Client) InvoiceHistory(ctx context.Context, items []string) ([]models.InvoiceHistory, error) {
	if len(items) == 0 {
		return nil, nil
	}
	var resp models.InvoiceHistoryResponse
	q := url.Values{"items": items}
	if err := c.do(ctx, http.MethodGet, "/api/invoices/history", q, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Rows, nil
}

func (c *Client) SubmitVerification(ctx context.Context, rows []models.VerificationRowIn) error {
	return c.do(ctx, http.MethodPost, "/api/verification", nil, models.VerificationSubmitRequest{Rows: rows}, nil)
}

func (c *Client) SubmitDispatch(ctx context.Context, rows []models.DispatchRowIn) (int, error) {
	var resp models.DispatchSubmitResponse
	if err := c.do(ctx, http.MethodPost, "/api/dispatch", nil, models.DispatchSubmitRequest{Rows: rows}, &resp); err != nil {
		return 0, err
	}
	return resp.Inserted, nil
}

func (c *Client) CancelOrder(ctx context.Context, orderNo string) (models.CancelResult, error) {
	var res models.CancelResult
	err := c.do(ctx, http.MethodPost, "/api/orders/cancel", nil, models.CancelRequest{OrderNo: orderNo}, &res)
	return res, err
}

// Confirm marks a verification completed; the server broadcasts the
// returned row to every subscribed session.
func (c *Client) Confirm(ctx context.Context, key string, row *models.OrderRow) (*models.OrderRow, error) {
	var resp struct {
		Row *models.OrderRow `json:"row"`
	}
	req := models.VerificationConfirmRequest{Key: key, Row: row}
	if err := c.do(ctx, http.MethodPost, "/api/verification/confirm", nil, req, &resp); err != nil {
		return nil, err
	}
	return resp.Row, nil
}

func (c *Client) Options(ctx context.Context, kind, q string, limit int) ([]models.Option, error) {
	v := url.Values{}
	if q != "" {
		v.Set("q", q)
	}
	if limit > 0 {
		v.Set("limit", strconv.Itoa(limit))
	}
	var resp models.OptionsResponse
	if err := c.do(ctx, http.MethodGet, "/api/options/"+url.PathEscape(kind), v, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Options, nil
}
