package models

import (
	"time"

	"salesops-backend/internal/keys"
)

// DispatchRowIn marks an order line as fulfilled.
type DispatchRowIn struct {
	OrderNo     string `json:"order_no" validate:"required"`
	Customer    string `json:"customer" validate:"required"`
	Item        string `json:"item" validate:"required"`
	OldColor    string `json:"old_color"`
	NewColor    string `json:"new_color,omitempty"`
	Dispatched  bool   `json:"dispatched"`
	ProducedQty *int   `json:"produced_qty,omitempty" validate:"omitempty,gte=0"`
}

// Key uses the color the order was placed with, so the dispatched order
// row matches regardless of any replacement color.
func (d DispatchRowIn) Key() string {
	return keys.CompositeKey(d.OrderNo, d.Customer, d.Item, d.OldColor)
}

// DispatchRecord is a persisted, append-only dispatch entry.
type DispatchRecord struct {
	ID          int64     `json:"id"`
	Key         string    `json:"key"`
	OrderNo     string    `json:"order_no"`
	Customer    string    `json:"customer"`
	Item        string    `json:"item"`
	OldColor    string    `json:"old_color"`
	NewColor    string    `json:"new_color,omitempty"`
	Dispatched  bool      `json:"dispatched"`
	ProducedQty *int      `json:"produced_qty,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type DispatchSubmitRequest struct {
	Rows []DispatchRowIn `json:"rows" validate:"required,min=1,dive"`
}

type DispatchSubmitResponse struct {
	Inserted int `json:"inserted"`
}

type DispatchKeysResponse struct {
	Keys []string `json:"keys"`
}
