package handlers

import (
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/jroosing/subzone/internal/api/models"
)

// Health godoc
// @Summary Health check
// @Description Returns server health status; unhealthy when the ledger cannot be read
// @Tags system
// @Produce json
// @Success 200 {object} models.StatusResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /api/v1/health [get]
func (h *Handler) Health(c *gin.Context) {
	if h.store != nil {
		if err := h.store.Health(c.Request.Context()); err != nil {
			h.logWarn("ledger health check failed", "err", err)
			c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: "ledger unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, models.StatusResponse{Status: "ok"})
}

// Stats godoc
// @Summary Server statistics
// @Description Returns runtime statistics including memory, process and ledger metrics
// @Tags system
// @Produce json
// @Success 200 {object} models.ServerStatsResponse
// @Security ApiKeyAuth
// @Router /api/v1/stats [get]
func (h *Handler) Stats(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	uptime := time.Since(h.startTime)

	resp := models.ServerStatsResponse{
		Uptime:        uptime.Round(time.Second).String(),
		UptimeSeconds: int64(uptime.Seconds()),
		StartTime:     h.startTime,
		GoRoutines:    runtime.NumGoroutine(),
		MemoryAllocMB: float64(m.Alloc) / 1024 / 1024,
		NumCPU:        runtime.NumCPU(),
		Process:       processStats(),
		Ledger:        models.LedgerStatsResponse{Driver: h.cfg.Ledger.Driver},
		Sessions:      h.sessions.Len(),
	}

	if h.store != nil {
		ctx := c.Request.Context()
		resp.Ledger.Healthy = h.store.Health(ctx) == nil
		if all, err := h.store.All(ctx); err == nil {
			resp.Ledger.Records = len(all)
		}
	}

	c.JSON(http.StatusOK, resp)
}

// processStats reads OS-level figures for this process; nil when the
// platform does not expose them.
func processStats() *models.ProcessStatsResponse {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil
	}

	stats := &models.ProcessStatsResponse{}
	if mem, err := p.MemoryInfo(); err == nil && mem != nil {
		stats.RSSMB = float64(mem.RSS) / 1024 / 1024
	}
	if cpu, err := p.CPUPercent(); err == nil {
		stats.CPUPercent = cpu
	}
	if threads, err := p.NumThreads(); err == nil {
		stats.NumThreads = threads
	}
	return stats
}
