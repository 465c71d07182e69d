package models

import "time"

// InvoiceHistory is the latest invoice raised for a customer/item/color.
type InvoiceHistory struct {
	Customer        string    `json:"customer"`
	Item            string    `json:"item"`
	Color           string    `json:"color"`
	LastInvoiceNo   string    `json:"last_invoice_no"`
	LastInvoiceDate time.Time `json:"last_invoice_date"`
	InvoiceCount    int       `json:"invoice_count"`
}

type InvoiceHistoryResponse struct {
	Rows []InvoiceHistory `json:"rows"`
}
