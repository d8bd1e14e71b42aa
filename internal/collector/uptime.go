package collector

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/host"
)

// UptimeCollector collects system uptime and boot time metrics.
type UptimeCollector struct {
	BaseCollector
}

// NewUptimeCollector creates a new uptime collector.
func NewUptimeCollector() *UptimeCollector {
	return &UptimeCollector{
		BaseCollector: NewBaseCollector("uptime"),
	}
}

// Collect gathers system uptime and boot time metrics.
func (c *UptimeCollector) Collect(ctx context.Context) (*Sample, error) {
	bootTimestamp, err := host.BootTimeWithContext(ctx)
	if err != nil {
		return nil, err
	}

	bootTime := time.Unix(int64(bootTimestamp), 0)

	return &Sample{
		Type:      c.Name(),
		Timestamp: time.Now().UTC(),
		Data: UptimeData{
			BootTimeUnix:  int64(bootTimestamp),
			BootTimeStr:   bootTime.Format("2006-01-02T15:04:05"),
			UptimeMinutes: time.Since(bootTime).Minutes(),
		},
	}, nil
}
