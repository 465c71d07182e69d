package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"salesops-backend/internal/models"
)

// Option kinds served to the multi-select controls.
const (
	OptionCustomers = "customers"
	OptionItems     = "items"
	OptionBrands    = "brands"
	OptionCities    = "cities"
)

// optionExprs maps each kind to the value it lists. Values are computed
// over pending orders only.
var optionExprs = map[string]string{
	OptionCustomers: `TRIM(regexp_replace(o.customer, '\s*\[.*?\]', '', 'g'))`,
	OptionItems:     `UPPER(TRIM(o.item_code))`,
	OptionBrands:    `UPPER(TRIM(o.brand))`,
	OptionCities:    `COALESCE(NULLIF(TRIM(c.city), ''), substring(o.customer from '\[\s*(.*?)\s*\]'))`,
}

// ValidOptionKind reports whether kind is served.
func ValidOptionKind(kind string) bool {
	_, ok := optionExprs[kind]
	return ok
}

type CustomerRepository struct {
	DB     *pgxpool.Pool
	Tables Tables
}

func NewCustomerRepository(db *pgxpool.Pool, tables Tables) *CustomerRepository {
	return &CustomerRepository{DB: db, Tables: tables}
}

// Options lists distinct values of kind across pending orders, most
// frequent first, optionally narrowed by a case-insensitive substring.
func (r *CustomerRepository) Options(ctx context.Context, kind, q string, limit int) ([]models.Option, error) {
	expr, ok := optionExprs[kind]
	if !ok {
		return nil, fmt.Errorf("unknown option kind %q", kind)
	}

	sql := fmt.Sprintf(`
		SELECT value, COUNT(*) AS n FROM (
			SELECT %s AS value
			FROM %s o
			LEFT JOIN %s c ON UPPER(TRIM(c.company_name)) = UPPER(TRIM(regexp_replace(o.customer, '\s*\[.*?\]', '', 'g')))
			WHERE LOWER(TRIM(o.status)) = 'pending'
		) v
		WHERE COALESCE(value, '') <> ''
		  AND ($1 = '' OR LOWER(value) LIKE '%%' || LOWER($1) || '%%')
		GROUP BY value
		ORDER BY n DESC, value ASC
		LIMIT $2`, expr, r.Tables.Orders, r.Tables.Customers)

	rows, err := r.DB.Query(ctx, sql, strings.TrimSpace(q), limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Option, error) {
		var o models.Option
		var n int64
		err := row.Scan(&o.Value, &n)
		o.Count = int(n)
		return o, err
	})
}
