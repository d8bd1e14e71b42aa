// Package service hosts the tickrunner process: console or systemd on Unix,
// the service control manager on Windows.
package service

import (
	"context"
	"errors"
)

// Name is the service and event source name.
const Name = "TickRunner"

// ErrForcedExit is returned by Run when a second stop request arrives before
// the run function returned.
var ErrForcedExit = errors.New("forced exit before shutdown completed")

// Service defines the interface for platform-specific service management.
type Service interface {
	// Run starts the service. It blocks until the service is stopped.
	Run(ctx context.Context) error

	// Stop requests the service to stop.
	Stop() error

	// IsService returns true if running as a system service.
	IsService() bool
}

// RunFunc is the body of the process. It must return once ctx is canceled.
type RunFunc func(ctx context.Context) error
