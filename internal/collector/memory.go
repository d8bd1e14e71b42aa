package collector

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
)

// MemoryCollector collects system memory usage metrics.
type MemoryCollector struct {
	BaseCollector
}

// NewMemoryCollector creates a new memory collector.
func NewMemoryCollector() *MemoryCollector {
	return &MemoryCollector{
		BaseCollector: NewBaseCollector("memory"),
	}
}

// Collect gathers memory metrics.
func (c *MemoryCollector) Collect(ctx context.Context) (*Sample, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, err
	}

	swap, err := mem.SwapMemoryWithContext(ctx)
	if err != nil {
		// no swap on some hosts
		swap = &mem.SwapMemoryStat{}
	}

	return &Sample{
		Type:      c.Name(),
		Timestamp: time.Now().UTC(),
		Data: MemoryData{
			TotalBytes:     vm.Total,
			UsedBytes:      vm.Used,
			AvailableBytes: vm.Available,
			UsagePercent:   vm.UsedPercent,
			SwapTotalBytes: swap.Total,
			SwapUsedBytes:  swap.Used,
			SwapPercent:    swap.UsedPercent,
		},
	}, nil
}
