package repositories

import (
	"github.com/jackc/pgx/v5"

	"salesops-backend/internal/config"
)

// Tables holds the schema-qualified, quoted names of every warehouse table
// the repositories touch.
type Tables struct {
	Orders       string
	Samples      string
	Customers    string
	Stock        string
	Dispatch     string
	Verification string
	Invoices     string
}

func TablesFromConfig(cfg *config.Config) Tables {
	w := cfg.Warehouse
	q := func(table string) string {
		return pgx.Identifier{w.Dataset, table}.Sanitize()
	}
	return Tables{
		Orders:       q(w.Tables.Orders),
		Samples:      q(w.Tables.Samples),
		Customers:    q(w.Tables.Customers),
		Stock:        q(w.Tables.Stock),
		Dispatch:     q(w.Tables.Dispatch),
		Verification: q(w.Tables.Verification),
		Invoices:     q(w.Tables.Invoices),
	}
}
