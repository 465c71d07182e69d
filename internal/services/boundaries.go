package services

import "salesops-backend/internal/dashboard"

var (
	_ dashboard.OrderSource           = (*OrderService)(nil)
	_ dashboard.OrderCanceller        = (*CancelService)(nil)
	_ dashboard.DispatchedKeySource   = (*DispatchService)(nil)
	_ dashboard.DispatchSubmitter     = (*DispatchService)(nil)
	_ dashboard.VerificationSource    = (*VerificationService)(nil)
	_ dashboard.VerificationSubmitter = (*VerificationService)(nil)
	_ dashboard.StockSource           = (*StockService)(nil)
	_ dashboard.InvoiceSource         = (*InvoiceService)(nil)
)
