package models

import (
	"strings"
	"time"

	"salesops-backend/internal/keys"
)

// VerificationRecord tracks a customer-side confirmation of an order line,
// usually for a proposed color substitution. It is pending until VerifiedAt
// is set.
type VerificationRecord struct {
	Key        string     `json:"key"`
	OrderNo    string     `json:"order_no"`
	Customer   string     `json:"customer"`
	Item       string     `json:"item"`
	Color      string     `json:"color"`
	NewColor   string     `json:"new_color,omitempty"`
	Size       string     `json:"size,omitempty"`
	Qty        *int       `json:"qty,omitempty"`
	OrderDate  string     `json:"order_date,omitempty"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Verified reports whether the customer has confirmed.
func (v VerificationRecord) Verified() bool {
	return v.VerifiedAt != nil && !v.VerifiedAt.IsZero()
}

// MergeVerifications collapses records sharing a key. Records are taken in
// the given order; each field keeps its first non-empty value, VerifiedAt
// keeps the first completion timestamp and CreatedAt the earliest.
func MergeVerifications(records []VerificationRecord) []VerificationRecord {
	index := make(map[string]int, len(records))
	out := make([]VerificationRecord, 0, len(records))

	first := func(dst *string, v string) {
		if *dst == "" {
			*dst = strings.TrimSpace(v)
		}
	}

	for _, r := range records {
		key := strings.ToUpper(strings.TrimSpace(r.Key))
		if key == "" {
			continue
		}
		i, ok := index[key]
		if !ok {
			index[key] = len(out)
			out = append(out, VerificationRecord{Key: key, CreatedAt: r.CreatedAt})
			i = len(out) - 1
		}
		m := &out[i]
		first(&m.OrderNo, r.OrderNo)
		first(&m.Customer, r.Customer)
		first(&m.Item, r.Item)
		first(&m.Color, r.Color)
		first(&m.NewColor, r.NewColor)
		first(&m.Size, r.Size)
		first(&m.OrderDate, r.OrderDate)
		if m.Qty == nil && r.Qty != nil {
			q := *r.Qty
			m.Qty = &q
		}
		if !m.Verified() && r.Verified() {
			t := *r.VerifiedAt
			m.VerifiedAt = &t
		}
		if !r.CreatedAt.IsZero() && (m.CreatedAt.IsZero() || r.CreatedAt.Before(m.CreatedAt)) {
			m.CreatedAt = r.CreatedAt
		}
	}
	return out
}

// VerificationRowIn is one row of a verification request.
type VerificationRowIn struct {
	OrderNo   string `json:"order_no" validate:"required"`
	Customer  string `json:"customer" validate:"required"`
	Item      string `json:"item" validate:"required"`
	Color     string `json:"color"`
	NewColor  string `json:"new_color,omitempty"`
	Size      string `json:"size,omitempty"`
	Qty       int    `json:"qty" validate:"gte=0"`
	OrderDate string `json:"order_date,omitempty"`
}

// Key is the composite identity the verification is filed under.
func (v VerificationRowIn) Key() string {
	return keys.CompositeKey(v.OrderNo, v.Customer, v.Item, v.Color)
}

type VerificationSubmitRequest struct {
	Rows []VerificationRowIn `json:"rows" validate:"required,min=1,dive"`
}

type VerificationListResponse struct {
	Rows []VerificationRecord `json:"rows"`
}

// VerificationConfirmRequest marks a verification completed. Row, when the
// confirming client has it, is broadcast as-is to other clients.
type VerificationConfirmRequest struct {
	Key string    `json:"key" validate:"required"`
	Row *OrderRow `json:"row,omitempty"`
}
