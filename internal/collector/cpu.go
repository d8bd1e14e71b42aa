package collector

import (
	"context"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
)

// DefaultCPUWindow is how long Collect measures CPU usage.
const DefaultCPUWindow = 200 * time.Millisecond

// CPUCollector collects overall CPU usage metrics.
type CPUCollector struct {
	BaseCollector
	window time.Duration
}

// NewCPUCollector creates a new CPU collector.
func NewCPUCollector() *CPUCollector {
	return &CPUCollector{
		BaseCollector: NewBaseCollector("cpu"),
		window:        DefaultCPUWindow,
	}
}

// SetWindow changes the measurement window. Non-positive values are ignored.
func (c *CPUCollector) SetWindow(d time.Duration) {
	if d > 0 {
		c.window = d
	}
}

// Collect gathers CPU metrics. It blocks for the measurement window.
func (c *CPUCollector) Collect(ctx context.Context) (*Sample, error) {
	percentages, err := cpu.PercentWithContext(ctx, c.window, false)
	if err != nil {
		return nil, err
	}

	perCore, err := cpu.PercentWithContext(ctx, 0, true)
	if err != nil {
		perCore = nil
	}

	times, err := cpu.TimesWithContext(ctx, false)
	if err != nil {
		return nil, err
	}

	data := CPUData{CoreCount: runtime.NumCPU()}
	if len(percentages) > 0 {
		data.UsagePercent = percentages[0]
	}
	if len(times) > 0 {
		t := times[0]
		total := t.User + t.System + t.Idle + t.Iowait + t.Irq + t.Softirq + t.Steal + t.Guest
		if total > 0 {
			data.User = (t.User / total) * 100
			data.System = (t.System / total) * 100
			data.Idle = (t.Idle / total) * 100
			data.IOWait = (t.Iowait / total) * 100
			data.Steal = (t.Steal / total) * 100
		}
	}
	if len(perCore) > 0 {
		data.PerCore = perCore
	}

	return &Sample{
		Type:      c.Name(),
		Timestamp: time.Now().UTC(),
		Data:      data,
	}, nil
}
