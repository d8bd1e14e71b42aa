package collector

import "time"

// Sample is the common wrapper for all collected metrics. Service, RunID and
// Hostname are filled in by the service that owns the collector.
type Sample struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Service   string      `json:"service,omitempty"`
	RunID     string      `json:"run_id,omitempty"`
	Hostname  string      `json:"hostname,omitempty"`
	Data      interface{} `json:"data"`
}

// Stamp records which run on which host produced the sample.
func (s *Sample) Stamp(service, runID, hostname string) {
	s.Service = service
	s.RunID = runID
	s.Hostname = hostname
}

// CPUData contains overall CPU usage metrics.
type CPUData struct {
	UsagePercent float64   `json:"usage_percent"`
	User         float64   `json:"user"`
	System       float64   `json:"system"`
	Idle         float64   `json:"idle"`
	IOWait       float64   `json:"iowait,omitempty"`
	Steal        float64   `json:"steal,omitempty"`
	CoreCount    int       `json:"core_count"`
	PerCore      []float64 `json:"per_core,omitempty"`
}

// MemoryData contains memory usage metrics.
type MemoryData struct {
	TotalBytes     uint64  `json:"total_bytes"`
	UsedBytes      uint64  `json:"used_bytes"`
	AvailableBytes uint64  `json:"available_bytes"`
	UsagePercent   float64 `json:"usage_percent"`
	SwapTotalBytes uint64  `json:"swap_total_bytes"`
	SwapUsedBytes  uint64  `json:"swap_used_bytes"`
	SwapPercent    float64 `json:"swap_percent"`
}

// UptimeData contains boot time and uptime.
type UptimeData struct {
	BootTimeUnix  int64   `json:"boot_time_unix"`
	BootTimeStr   string  `json:"boot_time"`
	UptimeMinutes float64 `json:"uptime_minutes"`
}
