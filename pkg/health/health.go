package health

import (
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Status represents the health status of the server
type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusDegraded Status = "degraded"
)

// SystemStats contains host level resource usage
type SystemStats struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
}

// ServerHealth represents overall server health
type ServerHealth struct {
	Status         Status      `json:"status"`
	Uptime         int64       `json:"uptime_seconds"`
	Timestamp      time.Time   `json:"timestamp"`
	ActiveClients  int         `json:"active_clients"`
	ActiveSessions int         `json:"active_sessions"`
	Goroutines     int         `json:"goroutines"`
	MemoryMB       uint64      `json:"memory_mb"`
	System         SystemStats `json:"system"`
}

// Monitor tracks server health metrics
type Monitor struct {
	startTime time.Time
}

// NewMonitor creates a new health monitor
func NewMonitor() *Monitor {
	return &Monitor{
		startTime: time.Now(),
	}
}

// GetHealth returns the current server health
func (m *Monitor) GetHealth(activeClients, activeSessions int) *ServerHealth {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	health := &ServerHealth{
		Status:         StatusHealthy,
		Uptime:         int64(time.Since(m.startTime).Seconds()),
		Timestamp:      time.Now(),
		ActiveClients:  activeClients,
		ActiveSessions: activeSessions,
		Goroutines:     runtime.NumGoroutine(),
		MemoryMB:       stats.Alloc / 1024 / 1024,
	}

	if cpuPercent, err := cpu.Percent(0, false); err == nil && len(cpuPercent) > 0 {
		health.System.CPUPercent = cpuPercent[0]
	}
	if memStats, err := mem.VirtualMemory(); err == nil && memStats != nil {
		health.System.MemoryPercent = memStats.UsedPercent
		if memStats.UsedPercent > 95 {
			health.Status = StatusDegraded
		}
	}

	return health
}
