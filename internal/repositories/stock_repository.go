package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"salesops-backend/internal/models"
)

type StockRepository struct {
	DB     *pgxpool.Pool
	Tables Tables
}

func NewStockRepository(db *pgxpool.Pool, tables Tables) *StockRepository {
	return &StockRepository{DB: db, Tables: tables}
}

// Batch returns closing stock for the given normalized items. Items with
// no stock rows are absent from the result.
func (r *StockRepository) Batch(ctx context.Context, items []string) ([]models.StockRow, error) {
	rows, err := r.DB.Query(ctx, fmt.Sprintf(`
		SELECT UPPER(TRIM(item)), UPPER(TRIM(COALESCE(color, ''))), SUM(qty)::float8
		FROM %s
		WHERE UPPER(TRIM(item)) = ANY($1)
		GROUP BY 1, 2
		ORDER BY 1, 2`, r.Tables.Stock), items)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []StockLine
	for rows.Next() {
		var l StockLine
		if err := rows.Scan(&l.Item, &l.Color, &l.Qty); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return AggregateStock(lines), nil
}

// StockLine is one (item, color) closing-stock figure. Qty is nil when the
// warehouse holds no number for it.
type StockLine struct {
	Item  string
	Color string
	Qty   *float64
}

// AggregateStock folds per-color lines into one row per item, in first-seen
// order. An item whose every line lacks a quantity keeps a nil total so it
// reads as unknown rather than zero.
func AggregateStock(lines []StockLine) []models.StockRow {
	index := make(map[string]int)
	var out []models.StockRow
	var totals []*float64
	for _, l := range lines {
		i, ok := index[l.Item]
		if !ok {
			i = len(out)
			index[l.Item] = i
			out = append(out, models.StockRow{Item: l.Item, Colors: map[string]float64{}})
			totals = append(totals, nil)
		}
		if l.Qty == nil {
			continue
		}
		if l.Color != "" {
			out[i].Colors[l.Color] += *l.Qty
		}
		if totals[i] == nil {
			v := 0.0
			totals[i] = &v
		}
		*totals[i] += *l.Qty
	}
	for i := range out {
		if totals[i] != nil {
			out[i].Total = *totals[i]
		}
		if len(out[i].Colors) == 0 {
			out[i].Colors = nil
		}
	}
	return out
}
