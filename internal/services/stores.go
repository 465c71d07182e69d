package services

import (
	"context"

	"salesops-backend/internal/models"
)

// Storage the services depend on. The repositories package satisfies each
// of these against the warehouse.

type OrderStore interface {
	Page(ctx context.Context, q models.OrderQuery) (models.OrderPage, error)
	Cancel(ctx context.Context, orderNo string) (int64, error)
}

type DispatchStore interface {
	Insert(ctx context.Context, rows []models.DispatchRowIn) (int, error)
	Keys(ctx context.Context) ([]string, error)
}

type VerificationStore interface {
	Insert(ctx context.Context, rows []models.VerificationRowIn) (int, error)
	List(ctx context.Context) ([]models.VerificationRecord, error)
	Confirm(ctx context.Context, key string) (int64, error)
}

type StockStore interface {
	Batch(ctx context.Context, items []string) ([]models.StockRow, error)
}

type InvoiceStore interface {
	LastByItems(ctx context.Context, items []string) ([]models.InvoiceHistory, error)
}

type OptionStore interface {
	Options(ctx context.Context, kind, q string, limit int) ([]models.Option, error)
}
