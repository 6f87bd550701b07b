package handlers

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/irfndi/btc-dashboard-go/internal/cache"
	"github.com/irfndi/btc-dashboard-go/internal/clock"
)

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

// HealthChecker is implemented by the optional Postgres and Redis connections.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Uptime    string            `json:"uptime"`
	Services  map[string]string `json:"services"`
	Memory    *MemoryStats      `json:"memory,omitempty"`
}

type MemoryStats struct {
	TotalBytes  uint64  `json:"total_bytes"`
	UsedBytes   uint64  `json:"used_bytes"`
	UsedPercent float64 `json:"used_percent"`
}

type HealthHandler struct {
	store          cache.Store
	historicalPath string
	dependencies   map[string]HealthChecker
	clock          clock.Clock
	version        string
	started        time.Time
}

func NewHealthHandler(store cache.Store, historicalPath string, clk clock.Clock, version string) *HealthHandler {
	if clk == nil {
		clk = clock.Real{}
	}
	return &HealthHandler{
		store:          store,
		historicalPath: historicalPath,
		dependencies:   make(map[string]HealthChecker),
		clock:          clk,
		version:        version,
		started:        clk.Now(),
	}
}

// AddDependency registers an optional backing service to be probed.
func (h *HealthHandler) AddDependency(name string, checker HealthChecker) {
	h.dependencies[name] = checker
}

// HealthCheck handles GET /health. A missing historical file degrades the
// service; a failing cache store or dependency makes it unhealthy (503).
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	services := make(map[string]string)
	overall := statusHealthy

	if err := h.store.Ping(ctx); err != nil {
		services["cache_"+h.store.Name()] = statusUnhealthy + ": " + err.Error()
		overall = statusUnhealthy
	} else {
		services["cache_"+h.store.Name()] = statusHealthy
	}

	for name, dep := range h.dependencies {
		if err := dep.HealthCheck(ctx); err != nil {
			services[name] = statusUnhealthy + ": " + err.Error()
			overall = statusUnhealthy
		} else {
			services[name] = statusHealthy
		}
	}

	if h.historicalPath != "" {
		if _, err := os.Stat(h.historicalPath); err != nil {
			services["historical_data"] = "missing"
			if overall == statusHealthy {
				overall = statusDegraded
			}
		} else {
			services["historical_data"] = "present"
		}
	}

	now := h.clock.Now()
	response := HealthResponse{
		Status:    overall,
		Timestamp: now.UTC(),
		Version:   h.version,
		Uptime:    now.Sub(h.started).Truncate(time.Second).String(),
		Services:  services,
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		response.Memory = &MemoryStats{
			TotalBytes:  vm.Total,
			UsedBytes:   vm.Used,
			UsedPercent: vm.UsedPercent,
		}
	}

	status := http.StatusOK
	if overall == statusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, response)
}
