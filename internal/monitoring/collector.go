// Package monitoring samples warehouse and host health on an interval,
// exports it as gauges and keeps a short list of threshold alerts.
package monitoring

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"salesops-backend/internal/health"
	"salesops-backend/internal/logging"
	"salesops-backend/internal/metrics"
	"salesops-backend/pkg/utils"
)

const maxAlerts = 100

// Checker is satisfied by *health.HealthChecker.
type Checker interface {
	CheckDetailed(ctx context.Context) health.HealthStatus
}

// PoolStatter is satisfied by *pgxpool.Pool.
type PoolStatter interface {
	Stat() *pgxpool.Stat
}

type Alert struct {
	ID        int       `json:"id"`
	Severity  string    `json:"severity"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Resolved  bool      `json:"resolved"`
}

type PoolStats struct {
	Acquired int32 `json:"acquired"`
	Idle     int32 `json:"idle"`
	Total    int32 `json:"total"`
}

type Stats struct {
	Health       health.HealthStatus `json:"health"`
	Pool         *PoolStats          `json:"pool,omitempty"`
	ActiveAlerts int                 `json:"active_alerts"`
	CollectedAt  time.Time           `json:"collected_at"`
}

type Thresholds struct {
	DiskPct   float64
	MemoryPct float64
}

type Collector struct {
	checker    Checker
	pool       PoolStatter
	thresholds Thresholds
	logger     *zap.Logger
	now        func() time.Time

	mu     sync.RWMutex
	latest Stats
	alerts []Alert
	nextID int
}

// NewCollector builds a collector. pool may be nil.
func NewCollector(checker Checker, pool PoolStatter, thresholds Thresholds, logger *zap.Logger) *Collector {
	return &Collector{
		checker:    checker,
		pool:       pool,
		thresholds: thresholds,
		logger:     logging.OrNop(logger).Named("monitoring"),
		now:        time.Now,
	}
}

// Run collects once immediately and then every interval until ctx is done.
func (c *Collector) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	c.Collect(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.Collect(ctx)
		}
	}
}

// Collect takes one sample, updates the gauges and raises or resolves
// alerts.
func (c *Collector) Collect(ctx context.Context) Stats {
	st := Stats{
		Health:      c.checker.CheckDetailed(ctx),
		CollectedAt: c.now(),
	}
	if c.pool != nil {
		if s := c.pool.Stat(); s != nil {
			st.Pool = &PoolStats{Acquired: s.AcquiredConns(), Idle: s.IdleConns(), Total: s.TotalConns()}
		}
	}

	c.export(st)

	c.mu.Lock()
	defer c.mu.Unlock()

	wh := st.Health.Warehouse
	c.track("warehouse", "critical", wh.Status != "healthy", "warehouse ping failed", st.CollectedAt)
	if h := st.Health.Host; h != nil {
		c.track("disk", "warning", c.thresholds.DiskPct > 0 && h.DiskPercent >= c.thresholds.DiskPct,
			"disk usage above threshold", st.CollectedAt)
		c.track("memory", "warning", c.thresholds.MemoryPct > 0 && h.MemoryPercent >= c.thresholds.MemoryPct,
			"memory usage above threshold", st.CollectedAt)
	}

	st.ActiveAlerts = c.activeLocked()
	metrics.ActiveAlerts.Set(float64(st.ActiveAlerts))
	c.latest = st
	return st
}

func (c *Collector) export(st Stats) {
	wh := st.Health.Warehouse
	if wh.Status == "healthy" {
		metrics.WarehouseUp.Set(1)
	} else {
		metrics.WarehouseUp.Set(0)
	}
	metrics.WarehousePingSeconds.Set(float64(wh.ResponseTime) / 1000)

	if st.Pool != nil {
		metrics.WarehouseConns.WithLabelValues("acquired").Set(float64(st.Pool.Acquired))
		metrics.WarehouseConns.WithLabelValues("idle").Set(float64(st.Pool.Idle))
		metrics.WarehouseConns.WithLabelValues("total").Set(float64(st.Pool.Total))
	}
	if h := st.Health.Host; h != nil {
		metrics.HostUsage.WithLabelValues("cpu").Set(h.CPUPercent)
		metrics.HostUsage.WithLabelValues("memory").Set(h.MemoryPercent)
		metrics.HostUsage.WithLabelValues("disk").Set(h.DiskPercent)
	}
}

// track opens an alert of kind when firing and none is open, and resolves
// the open one when firing stops.
func (c *Collector) track(kind, severity string, firing bool, msg string, at time.Time) {
	open := -1
	for i := range c.alerts {
		if c.alerts[i].Type == kind && !c.alerts[i].Resolved {
			open = i
			break
		}
	}

	switch {
	case firing && open < 0:
		c.nextID++
		c.alerts = append(c.alerts, Alert{
			ID:        c.nextID,
			Severity:  severity,
			Type:      kind,
			Message:   msg,
			Timestamp: at,
		})
		if len(c.alerts) > maxAlerts {
			c.alerts = c.alerts[len(c.alerts)-maxAlerts:]
		}
		c.logger.Warn("alert raised", zap.String("type", kind), zap.String("severity", severity))
	case !firing && open >= 0:
		c.alerts[open].Resolved = true
		c.logger.Info("alert resolved", zap.String("type", kind))
	}
}

func (c *Collector) activeLocked() int {
	n := 0
	for _, a := range c.alerts {
		if !a.Resolved {
			n++
		}
	}
	return n
}

func (c *Collector) Latest() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.latest
}

// Alerts returns a copy of the alert history, oldest first.
func (c *Collector) Alerts() []Alert {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Alert, len(c.alerts))
	copy(out, c.alerts)
	return out
}

func (c *Collector) GetStats(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, c.Latest())
}

func (c *Collector) GetAlerts(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, c.Alerts())
}
