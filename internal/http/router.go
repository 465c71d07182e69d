package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"salesops-backend/internal/handlers"
	"salesops-backend/internal/logging"
	"salesops-backend/internal/middleware"
	"salesops-backend/internal/monitoring"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Orders       *handlers.OrderHandler
	Dispatch     *handlers.DispatchHandler
	Verification *handlers.VerificationHandler
	Stock        *handlers.StockHandler
	Invoices     *handlers.InvoiceHandler
	Options      *handlers.OptionHandler
	Dashboard    *handlers.DashboardHandler
	Health       *handlers.HealthHandler
	Monitoring   *monitoring.Collector
	Events       http.HandlerFunc
}

func NewRouter(h Handlers, logger *zap.Logger) *mux.Router {
	logger = logging.OrNop(logger)

	r := mux.NewRouter()
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PanicRecovery(logger))
	r.Use(middleware.MetricsMiddleware)

	api := r.PathPrefix("/api").Subrouter()

	// Orders
	api.HandleFunc("/orders", h.Orders.ListOrders).Methods("GET")
	api.HandleFunc("/orders/cancel", h.Orders.CancelOrder).Methods("POST")

	// Dispatch log
	api.HandleFunc("/dispatch/keys", h.Dispatch.ListKeys).Methods("GET")
	api.HandleFunc("/dispatch", h.Dispatch.SubmitDispatch).Methods("POST")

	// Verification requests
	api.HandleFunc("/verification", h.Verification.ListVerifications).Methods("GET")
	api.HandleFunc("/verification", h.Verification.SubmitVerification).Methods("POST")
	api.HandleFunc("/verification/confirm", h.Verification.ConfirmVerification).Methods("POST")

	// Reference data
	api.HandleFunc("/stock/batch", h.Stock.Batch).Methods("POST")
	api.HandleFunc("/invoices/history", h.Invoices.History).Methods("GET")
	api.HandleFunc("/options/{kind}", h.Options.ListOptions).Methods("GET")

	// Server-side reconciliation for thin clients
	api.HandleFunc("/dashboard", h.Dashboard.Dashboard).Methods("GET")

	if h.Monitoring != nil {
		api.HandleFunc("/monitoring/stats", h.Monitoring.GetStats).Methods("GET")
		api.HandleFunc("/monitoring/alerts", h.Monitoring.GetAlerts).Methods("GET")
	}

	if h.Events != nil {
		r.HandleFunc("/ws/events", h.Events).Methods("GET")
	}

	// Health check endpoints (no auth)
	r.HandleFunc("/health", h.Health.BasicHealth).Methods("GET")
	r.HandleFunc("/health/ready", h.Health.ReadinessHealth).Methods("GET")
	r.HandleFunc("/health/detailed", h.Health.DetailedHealth).Methods("GET")

	// Prometheus metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	return r
}
