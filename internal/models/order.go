package models

import (
	"time"

	"salesops-backend/internal/keys"
	"salesops-backend/internal/timeutil"
)

// Order statuses as stored in the orders table.
const (
	StatusPending   = "Pending"
	StatusCancelled = "Cancelled"
)

// OrderRow is one pending sales-order line joined with its sample details
// and customer rating.
type OrderRow struct {
	Key          string `json:"key"`
	OrderNo      string `json:"order_no"`
	OrderDateRaw string `json:"order_date_raw"`
	OrderDate    string `json:"order_date"`
	Customer     string `json:"customer"`
	City         string `json:"city,omitempty"`
	Rating       string `json:"rating"`
	Broker       string `json:"broker"`
	Brand        string `json:"brand"`
	Item         string `json:"item"`
	Color        string `json:"color"`
	Size         string `json:"size"`
	OrderQty     int    `json:"order_qty"`
	Status       string `json:"status"`
	Concept      string `json:"concept"`
	Fabric       string `json:"fabric"`
	ImageRef     string `json:"image_ref"`

	// Filled in during reconciliation.
	StockTotal       *float64   `json:"stock_total,omitempty"`
	ColorStock       *float64   `json:"color_stock,omitempty"`
	VerifiedAt       *time.Time `json:"verified_at,omitempty"`
	ReplacementColor string     `json:"replacement_color,omitempty"`
	LastDispatchDays *int       `json:"last_dispatch_days,omitempty"`
	DispatchNote     string     `json:"dispatch_note,omitempty"`
}

// CompositeKey recomputes the identity from the row's own fields.
func (r *OrderRow) CompositeKey() string {
	return keys.CompositeKey(r.OrderNo, r.Customer, r.Item, r.Color)
}

// EnsureKey fills Key when the source did not provide one.
func (r *OrderRow) EnsureKey() string {
	if r.Key == "" {
		r.Key = r.CompositeKey()
	}
	return r.Key
}

// ParsedDate returns the order date, preferring the normalized ISO value.
func (r *OrderRow) ParsedDate() (time.Time, bool) {
	if t, ok := timeutil.ParseDate(r.OrderDate); ok {
		return t, true
	}
	return timeutil.ParseDate(r.OrderDateRaw)
}

// OrderQuery carries the filter parameters accepted by the order boundary.
type OrderQuery struct {
	Q             string   `json:"q,omitempty"`
	Tokens        []string `json:"tokens,omitempty"`
	Brand         string   `json:"brand,omitempty"`
	City          string   `json:"city,omitempty"`
	StartDate     string   `json:"start_date,omitempty"`
	EndDate       string   `json:"end_date,omitempty"`
	Limit         int      `json:"limit,omitempty"`
	Offset        int      `json:"offset,omitempty"`
	IncludeColumn string   `json:"include_column,omitempty"`
	IncludeValues []string `json:"include_values,omitempty"`
}

// OrderPage is one page of order rows plus the server-side total for the
// same predicate.
type OrderPage struct {
	Rows  []OrderRow `json:"rows"`
	Total int        `json:"total"`
}

// CancelRequest asks the cancellation boundary to cancel an order.
type CancelRequest struct {
	OrderNo string `json:"orderNo" validate:"required"`
}

// CancelResult is the cancellation boundary's reply.
type CancelResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
