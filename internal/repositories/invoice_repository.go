package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"salesops-backend/internal/models"
)

type InvoiceRepository struct {
	DB     *pgxpool.Pool
	Tables Tables
}

func NewInvoiceRepository(db *pgxpool.Pool, tables Tables) *InvoiceRepository {
	return &InvoiceRepository{DB: db, Tables: tables}
}

// LastByItems returns, for each customer/item/color with an invoice for one
// of items, the latest invoice and the number of invoices raised.
func (r *InvoiceRepository) LastByItems(ctx context.Context, items []string) ([]models.InvoiceHistory, error) {
	rows, err := r.DB.Query(ctx, fmt.Sprintf(`
		WITH scoped AS (
			SELECT
				UPPER(TRIM(regexp_replace(customer, '\s*\[.*?\]', '', 'g'))) AS customer,
				UPPER(TRIM(item)) AS item,
				UPPER(TRIM(COALESCE(color, ''))) AS color,
				invoice_no,
				invoice_date
			FROM %s
			WHERE UPPER(TRIM(item)) = ANY($1)
		),
		ranked AS (
			SELECT scoped.*,
				ROW_NUMBER() OVER (PARTITION BY customer, item, color ORDER BY invoice_date DESC, invoice_no DESC) AS rn,
				COUNT(*) OVER (PARTITION BY customer, item, color) AS invoice_count
			FROM scoped
		)
		SELECT customer, item, color, invoice_no, invoice_date, invoice_count
		FROM ranked
		WHERE rn = 1
		ORDER BY customer, item, color`, r.Tables.Invoices), items)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.InvoiceHistory, error) {
		var h models.InvoiceHistory
		var count int64
		err := row.Scan(&h.Customer, &h.Item, &h.Color, &h.LastInvoiceNo, &h.LastInvoiceDate, &count)
		h.InvoiceCount = int(count)
		return h, err
	})
}
