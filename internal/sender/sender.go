// Package sender delivers collected samples to a file or Kafka.
package sender

import (
	"context"
	"errors"

	"tickrunner/internal/collector"
)

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("sender is closed")

// Sender defines the interface for sending collected samples.
type Sender interface {
	// Send transmits the sample to the destination.
	Send(ctx context.Context, sample *collector.Sample) error

	// Close releases any resources held by the sender.
	Close() error
}
