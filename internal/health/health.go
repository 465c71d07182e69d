package health

import (
	"context"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"salesops-backend/internal/cache"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthChecker struct {
	db         Pinger
	redisCheck func() bool
	started    time.Time
}

type HealthStatus struct {
	Status    string          `json:"status"`
	Warehouse ComponentHealth `json:"warehouse"`
	Redis     ComponentHealth `json:"redis"`
	Host      *HostStats      `json:"host,omitempty"`
	Uptime    string          `json:"uptime,omitempty"`
}

type ComponentHealth struct {
	Status       string `json:"status"`
	ResponseTime int64  `json:"response_time_ms"`
}

type HostStats struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	MemoryUsedMB  uint64  `json:"memory_used_mb"`
	DiskPercent   float64 `json:"disk_percent"`
	Goroutines    int     `json:"goroutines"`
}

func NewHealthChecker(db Pinger) *HealthChecker {
	return &HealthChecker{db: db, redisCheck: cache.IsHealthy, started: time.Now()}
}

// CheckBasic reports the warehouse and redis status. Redis is optional:
// when it is down the service still answers from the warehouse, so only
// the warehouse decides readiness.
func (h *HealthChecker) CheckBasic(ctx context.Context) HealthStatus {
	wh := h.checkWarehouse(ctx)

	status := "healthy"
	if wh.Status != "healthy" {
		status = "unhealthy"
	}

	return HealthStatus{
		Status:    status,
		Warehouse: wh,
		Redis:     h.checkRedis(),
	}
}

// CheckDetailed adds host statistics to CheckBasic.
func (h *HealthChecker) CheckDetailed(ctx context.Context) HealthStatus {
	status := h.CheckBasic(ctx)
	status.Host = hostStats()
	status.Uptime = time.Since(h.started).Round(time.Second).String()
	return status
}

func (h *HealthChecker) checkWarehouse(ctx context.Context) ComponentHealth {
	if h.db == nil {
		return ComponentHealth{Status: "unhealthy"}
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	err := h.db.Ping(ctx)
	responseTime := time.Since(start).Milliseconds()

	if err != nil {
		return ComponentHealth{
			Status:       "unhealthy",
			ResponseTime: responseTime,
		}
	}

	return ComponentHealth{
		Status:       "healthy",
		ResponseTime: responseTime,
	}
}

func (h *HealthChecker) checkRedis() ComponentHealth {
	start := time.Now()
	ok := h.redisCheck != nil && h.redisCheck()
	c := ComponentHealth{Status: "disabled", ResponseTime: time.Since(start).Milliseconds()}
	if ok {
		c.Status = "healthy"
	}
	return c
}

func hostStats() *HostStats {
	s := &HostStats{Goroutines: runtime.NumGoroutine()}

	// A zero interval compares against the previous call instead of
	// sleeping.
	if cpuPercents, err := cpu.Percent(0, false); err == nil && len(cpuPercents) > 0 {
		s.CPUPercent = cpuPercents[0]
	}
	if memStats, err := mem.VirtualMemory(); err == nil {
		s.MemoryPercent = memStats.UsedPercent
		s.MemoryUsedMB = memStats.Used / 1024 / 1024
	}
	if diskStats, err := disk.Usage("/"); err == nil {
		s.DiskPercent = diskStats.UsedPercent
	}
	return s
}
