package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"salesops-backend/internal/models"
	"salesops-backend/internal/query"
	"salesops-backend/internal/rowshape"
)

type OrderRepository struct {
	DB      *pgxpool.Pool
	Builder *query.Builder
	Tables  Tables
}

func NewOrderRepository(db *pgxpool.Pool, builder *query.Builder, tables Tables) *OrderRepository {
	return &OrderRepository{DB: db, Builder: builder, Tables: tables}
}

// Page runs the selection and count queries for q.
func (r *OrderRepository) Page(ctx context.Context, q models.OrderQuery) (models.OrderPage, error) {
	sel, count := r.Builder.Build(q)

	var total int64
	if err := r.DB.QueryRow(ctx, count.SQL, count.Args...).Scan(&total); err != nil {
		return models.OrderPage{}, fmt.Errorf("count orders: %w", err)
	}

	rows, err := r.DB.Query(ctx, sel.SQL, sel.Args...)
	if err != nil {
		return models.OrderPage{}, fmt.Errorf("select orders: %w", err)
	}
	raw, err := collectMaps(rows)
	if err != nil {
		return models.OrderPage{}, fmt.Errorf("read orders: %w", err)
	}

	page := models.OrderPage{Rows: make([]models.OrderRow, 0, len(raw)), Total: int(total)}
	for _, m := range raw {
		page.Rows = append(page.Rows, rowshape.ToOrderRow(m))
	}
	return page, nil
}

// Cancel marks every pending line of orderNo as cancelled and returns the
// number of lines changed.
func (r *OrderRepository) Cancel(ctx context.Context, orderNo string) (int64, error) {
	tag, err := r.DB.Exec(ctx,
		fmt.Sprintf(`UPDATE %s SET status = $2, updated_at = NOW()
		 WHERE UPPER(TRIM(order_no)) = UPPER(TRIM($1))
		   AND LOWER(TRIM(status)) = 'pending'`, r.Tables.Orders),
		orderNo, models.StatusCancelled)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// collectMaps reads every row into a column-name keyed map.
func collectMaps(rows pgx.Rows) ([]map[string]any, error) {
	defer rows.Close()
	fields := rows.FieldDescriptions()

	var out []map[string]any
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		m := make(map[string]any, len(fields))
		for i, f := range fields {
			m[f.Name] = values[i]
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
