package rowshape

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesops-backend/internal/timeutil"
)

func TestSplitNameCity(t *testing.T) {
	tests := []struct {
		in, name, city string
	}{
		{"Acme Traders [Mumbai]", "Acme Traders", "Mumbai"},
		{"Acme [ Pune ]  ", "Acme", "Pune"},
		{"Acme", "Acme", ""},
		{"  Acme  ", "Acme", ""},
		{"[Delhi]", "", "Delhi"},
		{"Acme [Pune] extra", "Acme [Pune] extra", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		name, city := SplitNameCity(tt.in)
		assert.Equal(t, tt.name, name, "input %q", tt.in)
		assert.Equal(t, tt.city, city, "input %q", tt.in)
	}
}

func TestCleanString(t *testing.T) {
	assert.Equal(t, "", CleanString(nil))
	assert.Equal(t, "", CleanString("   "))
	assert.Equal(t, "", CleanString("nan"))
	assert.Equal(t, "", CleanString("NaN"))
	assert.Equal(t, "abc", CleanString("  abc "))
	assert.Equal(t, "12", CleanString(12))
	assert.Equal(t, "", CleanString(math.NaN()))
	assert.Equal(t, "2024-01-05", CleanString(time.Date(2024, 1, 5, 0, 0, 0, 0, timeutil.IST)))
}

func TestToNumber(t *testing.T) {
	ok := []struct {
		in   any
		want float64
	}{
		{"12", 12},
		{" 1,200.5 ", 1200.5},
		{int32(7), 7},
		{int64(-3), -3},
		{json.Number("4.5"), 4.5},
		{0.0, 0},
		{"0", 0},
	}
	for _, tt := range ok {
		got, valid := ToNumber(tt.in)
		require.True(t, valid, "input %#v", tt.in)
		assert.Equal(t, tt.want, got)
	}

	for _, in := range []any{nil, "", "abc", "nan", math.NaN(), math.Inf(1), struct{}{}} {
		_, valid := ToNumber(in)
		assert.False(t, valid, "input %#v", in)
	}
}

func TestNormalizeRow(t *testing.T) {
	raw := map[string]any{
		"customer":  "Acme [Surat]",
		"order_qty": "12",
		"broker":    "nan",
		"item":      " IT01 ",
		"total":     "abc",
	}
	got := NormalizeRow(raw)
	assert.Equal(t, "Acme", got["customer"])
	assert.Equal(t, "Surat", got["city"])
	assert.Equal(t, 12.0, got["order_qty"])
	assert.Equal(t, "", got["broker"])
	assert.Equal(t, "IT01", got["item"])
	assert.Nil(t, got["total"])

	// no bracket -> city untouched
	got = NormalizeRow(map[string]any{"customer": "Acme"})
	_, hasCity := got["city"]
	assert.False(t, hasCity)
}

func TestToOrderRow(t *testing.T) {
	row := ToOrderRow(map[string]any{
		"order_no":       "SO-9",
		"order_date_raw": "15/01/2024",
		"order_date":     nil,
		"customer":       "Acme [Surat]",
		"item":           "it01",
		"color":          "Red",
		"order_qty":      int64(5),
		"status":         "Pending",
	})
	assert.Equal(t, "SO-9", row.OrderNo)
	assert.Equal(t, "Acme", row.Customer)
	assert.Equal(t, "Surat", row.City)
	assert.Equal(t, "2024-01-15", row.OrderDate)
	assert.Equal(t, 5, row.OrderQty)
	assert.Equal(t, "SO-9|ACME|IT01|RED", row.Key)
}

func TestToOrderRow_Malformed(t *testing.T) {
	assert.NotPanics(t, func() {
		row := ToOrderRow(map[string]any{"order_qty": "many", "order_date_raw": "someday", "customer": 42})
		assert.Equal(t, 0, row.OrderQty)
		assert.Equal(t, "", row.OrderDate)
		assert.Equal(t, "someday", row.OrderDateRaw)
		assert.Equal(t, "42", row.Customer)
	})
	assert.NotPanics(t, func() { ToOrderRow(nil) })
}
