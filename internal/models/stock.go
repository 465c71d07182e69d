package models

// StockRow is the aggregated closing stock for one normalized item.
// Total is kept as delivered (number, numeric string or null) so that an
// unknown figure stays distinguishable from zero or garbage.
type StockRow struct {
	Item   string             `json:"item"`
	Total  any                `json:"total"`
	Colors map[string]float64 `json:"colors,omitempty"`
}

type StockBatchRequest struct {
	Items []string `json:"items" validate:"required,min=1,max=1000"`
}

type StockBatchResponse struct {
	Rows []StockRow `json:"rows"`
}
