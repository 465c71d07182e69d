package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// ReconcileCycles counts reconciliation cycles by outcome:
	// ok, cancelled, stale or error.
	ReconcileCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconcile_cycles_total",
			Help: "Reconciliation cycles by outcome.",
		},
		[]string{"outcome"},
	)

	// RowsExcluded counts rows dropped by each reconciliation stage.
	RowsExcluded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconcile_rows_excluded_total",
			Help: "Rows removed from the visible set, by filtering stage.",
		},
		[]string{"stage"},
	)

	DashboardActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_actions_total",
			Help: "Operator actions by kind and result.",
		},
		[]string{"action", "result"},
	)

	SyncEventsPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sync_events_published_total",
			Help: "Cross-client sync events published.",
		},
	)

	WarehouseUp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "warehouse_up",
			Help: "1 when the last warehouse ping succeeded.",
		},
	)

	WarehousePingSeconds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "warehouse_ping_seconds",
			Help: "Latency of the last warehouse ping.",
		},
	)

	// WarehouseConns reports pool connections by state: acquired, idle or total.
	WarehouseConns = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "warehouse_pool_connections",
			Help: "Warehouse pool connections by state.",
		},
		[]string{"state"},
	)

	// HostUsage reports host utilisation percent by resource: cpu, memory or disk.
	HostUsage = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "host_usage_percent",
			Help: "Host utilisation by resource.",
		},
		[]string{"resource"},
	)

	ActiveAlerts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "monitoring_active_alerts",
			Help: "Unresolved monitoring alerts.",
		},
	)
)

// Exclusion stages, in pipeline order.
const (
	StageDispatched = "dispatched"
	StagePending    = "pending"
	StageInvoiced   = "invoiced"
	StageZeroStock  = "zero_stock"
	StageSelection  = "selection"
)
