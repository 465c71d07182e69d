package repositories

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"salesops-backend/internal/config"
	"salesops-backend/internal/models"
)

func f(v float64) *float64 { return &v }

func TestAggregateStock(t *testing.T) {
	got := AggregateStock([]StockLine{
		{Item: "IT01", Color: "RED", Qty: f(3)},
		{Item: "IT02", Color: "", Qty: nil},
		{Item: "IT01", Color: "BLUE", Qty: f(2.5)},
		{Item: "IT03", Color: "RED", Qty: f(0)},
		{Item: "IT01", Color: "", Qty: f(1)},
	})

	assert.Equal(t, []models.StockRow{
		{Item: "IT01", Total: 6.5, Colors: map[string]float64{"RED": 3, "BLUE": 2.5}},
		{Item: "IT02", Total: nil},
		{Item: "IT03", Total: 0.0, Colors: map[string]float64{"RED": 0}},
	}, got)
}

func TestTablesFromConfig(t *testing.T) {
	var cfg config.Config
	cfg.Warehouse.Dataset = "sales"
	cfg.Warehouse.Tables.Orders = "orders"
	cfg.Warehouse.Tables.Dispatch = `weird"name`

	tables := TablesFromConfig(&cfg)
	assert.Equal(t, `"sales"."orders"`, tables.Orders)
	assert.Equal(t, `"sales"."weird""name"`, tables.Dispatch)
}

func TestValidOptionKind(t *testing.T) {
	for _, k := range []string{OptionCustomers, OptionItems, OptionBrands, OptionCities} {
		assert.True(t, ValidOptionKind(k), k)
	}
	assert.False(t, ValidOptionKind("ratings"))
}
