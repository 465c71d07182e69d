package dashboard

import (
	"context"

	"salesops-backend/internal/models"
)

// Boundary collaborators. The server satisfies them in-process with its
// services; the operator CLI satisfies them over HTTP.

type OrderSource interface {
	Orders(ctx context.Context, q models.OrderQuery) (models.OrderPage, error)
}

// DispatchedKeySource returns composite keys already fulfilled.
type DispatchedKeySource interface {
	DispatchedKeys(ctx context.Context) ([]string, error)
}

// VerificationSource returns verification records merged by key.
type VerificationSource interface {
	Verifications(ctx context.Context) ([]models.VerificationRecord, error)
}

type StockSource interface {
	StockBatch(ctx context.Context, items []string) ([]models.StockRow, error)
}

// InvoiceSource is optional; without it the invoice-history stage is
// skipped.
type InvoiceSource interface {
	InvoiceHistory(ctx context.Context, items []string) ([]models.InvoiceHistory, error)
}

type VerificationSubmitter interface {
	SubmitVerification(ctx context.Context, rows []models.VerificationRowIn) error
}

type DispatchSubmitter interface {
	SubmitDispatch(ctx context.Context, rows []models.DispatchRowIn) (int, error)
}

type OrderCanceller interface {
	CancelOrder(ctx context.Context, orderNo string) (models.CancelResult, error)
}

// Sources bundles the read side used by a reconciliation cycle.
type Sources struct {
	Orders        OrderSource
	Dispatched    DispatchedKeySource
	Verifications VerificationSource
	Stock         StockSource
	Invoices      InvoiceSource
}

// Actions bundles the write side used by the action coordinator.
type Actions struct {
	Verify   VerificationSubmitter
	Dispatch DispatchSubmitter
	Cancel   OrderCanceller
}
