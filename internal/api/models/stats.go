package models

import "time"

// ServerStatsResponse contains server runtime statistics.
type ServerStatsResponse struct {
	Uptime        string                `json:"uptime"`
	UptimeSeconds int64                 `json:"uptime_seconds"`
	StartTime     time.Time             `json:"start_time"`
	GoRoutines    int                   `json:"goroutines"`
	MemoryAllocMB float64               `json:"memory_alloc_mb"`
	NumCPU        int                   `json:"num_cpu"`
	Process       *ProcessStatsResponse `json:"process,omitempty"`
	Ledger        LedgerStatsResponse   `json:"ledger"`
	Sessions      int                   `json:"sessions"`
}

// ProcessStatsResponse contains OS-level process statistics.
type ProcessStatsResponse struct {
	RSSMB      float64 `json:"rss_mb"`
	CPUPercent float64 `json:"cpu_percent"`
	NumThreads int32   `json:"num_threads"`
}

// LedgerStatsResponse summarizes the record ledger.
type LedgerStatsResponse struct {
	Driver  string `json:"driver"`
	Records int    `json:"records"`
	Healthy bool   `json:"healthy"`
}
