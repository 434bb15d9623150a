package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"time"
)

var startTime = time.Now()

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Counter reports a live count.
type Counter interface {
	Len() int
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	sessions   Pinger
	workspaces Counter
	dataPath   string
}

// NewHealthHandler creates a new health handler. dataPath is the directory
// whose disk usage /stats reports.
func NewHealthHandler(sessions Pinger, workspaces Counter, dataPath string) *HealthHandler {
	if dataPath == "" {
		dataPath = "."
	}
	return &HealthHandler{
		sessions:   sessions,
		workspaces: workspaces,
		dataPath:   dataPath,
	}
}

// HealthResponse is the JSON response for health checks.
type HealthResponse struct {
	Status     string `json:"status"`
	Timestamp  string `json:"timestamp"`
	Workspaces *int   `json:"workspaces,omitempty"`
	Error      string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Live handles GET /health - liveness probe.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready handles GET /ready - readiness probe.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.sessions.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:    "error",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Error:     "session store unavailable",
		})
		return
	}

	n := h.workspaces.Len()
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:     "ok",
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Workspaces: &n,
	})
}

// SystemStats contains system resource statistics.
type SystemStats struct {
	Uptime         int64   `json:"uptime_seconds"`
	UptimeHuman    string  `json:"uptime_human"`
	MemAllocMB     int64   `json:"mem_alloc_mb"`
	MemSysMB       int64   `json:"mem_sys_mb"`
	MemHeapMB      int64   `json:"mem_heap_mb"`
	NumGoroutines  int     `json:"num_goroutines"`
	NumCPU         int     `json:"num_cpu"`
	CPUPct         float64 `json:"cpu_pct"`
	Workspaces     int     `json:"workspaces"`
	DiskUsedBytes  int64   `json:"disk_used_bytes"`
	DiskFreeBytes  int64   `json:"disk_free_bytes"`
	DiskTotalBytes int64   `json:"disk_total_bytes"`
	DiskUsedPct    float64 `json:"disk_used_pct"`
	DataPath       string  `json:"data_path"`
}

// Stats handles GET /stats - system statistics.
func (h *HealthHandler) Stats(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	uptime := time.Since(startTime)

	stats := SystemStats{
		Uptime:        int64(uptime.Seconds()),
		UptimeHuman:   formatUptime(uptime),
		MemAllocMB:    int64(m.Alloc / 1024 / 1024),
		MemSysMB:      int64(m.Sys / 1024 / 1024),
		MemHeapMB:     int64(m.HeapAlloc / 1024 / 1024),
		NumGoroutines: runtime.NumGoroutine(),
		NumCPU:        runtime.NumCPU(),
		CPUPct:        getCPUUsage(),
		Workspaces:    h.workspaces.Len(),
		DataPath:      h.dataPath,
	}
	stats.DiskTotalBytes, stats.DiskFreeBytes, stats.DiskUsedBytes, stats.DiskUsedPct = getDiskStats(h.dataPath)

	writeJSON(w, http.StatusOK, stats)
}

func formatUptime(d time.Duration) string {
	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	mins := int(d.Minutes()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, mins)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	return fmt.Sprintf("%dm", mins)
}
