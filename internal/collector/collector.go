// Package collector samples host metrics with gopsutil.
package collector

import (
	"context"
)

// Collector produces one kind of sample.
type Collector interface {
	// Name returns the unique identifier for this collector. It is also the
	// Type of every sample it produces.
	Name() string

	// Collect takes one sample.
	Collect(ctx context.Context) (*Sample, error)
}

// BaseCollector provides the name shared by all collectors.
type BaseCollector struct {
	name string
}

// Name returns the collector name.
func (b *BaseCollector) Name() string {
	return b.name
}

// NewBaseCollector creates a new BaseCollector with the given name.
func NewBaseCollector(name string) BaseCollector {
	return BaseCollector{name: name}
}
