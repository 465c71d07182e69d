package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"salesops-backend/internal/models"
)

type DispatchRepository struct {
	DB     *pgxpool.Pool
	Tables Tables
}

func NewDispatchRepository(db *pgxpool.Pool, tables Tables) *DispatchRepository {
	return &DispatchRepository{DB: db, Tables: tables}
}

// Insert appends dispatch rows. Re-dispatching a key just adds another
// row; readers dedupe by key.
func (r *DispatchRepository) Insert(ctx context.Context, rows []models.DispatchRowIn) (int, error) {
	batch := &pgx.Batch{}
	stmt := fmt.Sprintf(`INSERT INTO %s (key, order_no, customer, item, old_color, new_color, dispatched, produced_qty)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`, r.Tables.Dispatch)
	for _, row := range rows {
		batch.Queue(stmt,
			row.Key(),
			strings.TrimSpace(row.OrderNo),
			strings.TrimSpace(row.Customer),
			strings.TrimSpace(row.Item),
			strings.TrimSpace(row.OldColor),
			strings.TrimSpace(row.NewColor),
			row.Dispatched,
			row.ProducedQty,
		)
	}

	results := r.DB.SendBatch(ctx, batch)
	defer results.Close()

	inserted := 0
	for range rows {
		tag, err := results.Exec()
		if err != nil {
			return inserted, fmt.Errorf("insert dispatch row: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

// Keys returns every composite key with a dispatched row.
func (r *DispatchRepository) Keys(ctx context.Context) ([]string, error) {
	rows, err := r.DB.Query(ctx,
		fmt.Sprintf(`SELECT DISTINCT UPPER(key) FROM %s WHERE dispatched ORDER BY 1`, r.Tables.Dispatch))
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}
