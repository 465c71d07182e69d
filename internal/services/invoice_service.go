package services

import (
	"context"

	"salesops-backend/internal/models"
)

type InvoiceService struct {
	Repo InvoiceStore
}

func NewInvoiceService(repo InvoiceStore) *InvoiceService {
	return &InvoiceService{Repo: repo}
}

// InvoiceHistory returns the latest invoice per customer/item/color for
// the given items.
func (s *InvoiceService) InvoiceHistory(ctx context.Context, items []string) ([]models.InvoiceHistory, error) {
	items = NormalizeItems(items)
	if len(items) == 0 {
		return []models.InvoiceHistory{}, nil
	}
	rows, err := s.Repo.LastByItems(ctx, items)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []models.InvoiceHistory{}
	}
	return rows, nil
}
