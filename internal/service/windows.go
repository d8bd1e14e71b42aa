//go:build windows
// +build windows

package service

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"time"

	"golang.org/x/sys/windows/svc"

	"tickrunner/internal/logger"
)

const (
	// stopTimeout bounds how long the host waits for the run function after the
	// service control manager asked it to stop.
	stopTimeout = 30 * time.Second

	accepted = svc.AcceptStop | svc.AcceptShutdown
)

// WindowsService runs under the service control manager when started by it,
// and as a console program otherwise.
type WindowsService struct {
	runFunc RunFunc

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped bool
}

// NewService creates a new platform-specific service.
func NewService(runFunc RunFunc) Service {
	return &WindowsService{runFunc: runFunc}
}

// Run hands control to the service control manager, or runs the run function
// directly until Ctrl+C when started from a console.
func (s *WindowsService) Run(ctx context.Context) error {
	if s.IsService() {
		return svc.Run(Name, s)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	return s.start(ctx, nil)
}

// start runs the run function with a cancelable child of ctx. When done is
// non-nil the result is delivered there instead of being waited for.
func (s *WindowsService) start(ctx context.Context, done chan<- error) error {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	if done == nil {
		defer cancel()
		return s.runFunc(ctx)
	}
	go func() {
		defer cancel()
		done <- s.runFunc(ctx)
	}()
	return nil
}

// Stop cancels the run function's context.
func (s *WindowsService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil && !s.stopped {
		s.stopped = true
		s.cancel()
	}
	return nil
}

// IsService reports whether the process was started by the service control
// manager.
func (s *WindowsService) IsService() bool {
	isService, err := svc.IsWindowsService()
	if err != nil {
		return false
	}
	return isService
}

// Execute implements svc.Handler.
func (s *WindowsService) Execute(_ []string, requests <-chan svc.ChangeRequest, status chan<- svc.Status) (bool, uint32) {
	log := logger.WithComponent("host")

	status <- svc.Status{State: svc.StartPending}
	done := make(chan error, 1)
	_ = s.start(context.Background(), done)
	status <- svc.Status{State: svc.Running, Accepts: accepted}
	log.Info().Msg("Windows service running")

	for {
		select {
		case req := <-requests:
			switch req.Cmd {
			case svc.Interrogate:
				status <- req.CurrentStatus
				time.Sleep(100 * time.Millisecond)
				status <- req.CurrentStatus

			case svc.Stop, svc.Shutdown:
				log.Info().Uint32("cmd", uint32(req.Cmd)).Msg("Stop requested by service control manager")
				status <- svc.Status{State: svc.StopPending}
				s.Stop()
				s.awaitStop(done)
				status <- svc.Status{State: svc.Stopped}
				return false, 0

			default:
				log.Warn().Uint32("cmd", uint32(req.Cmd)).Msg("Unexpected service control command")
			}

		case err := <-done:
			status <- svc.Status{State: svc.Stopped}
			if err != nil {
				log.Error().Err(err).Msg("Run function failed")
				return true, 1
			}
			return false, 0
		}
	}
}

func (s *WindowsService) awaitStop(done <-chan error) {
	log := logger.WithComponent("host")
	select {
	case err := <-done:
		if err != nil {
			log.Warn().Err(err).Msg("Run function returned an error during stop")
		}
	case <-time.After(stopTimeout):
		log.Warn().Dur("timeout", stopTimeout).Msg("Timed out waiting for the run function to stop")
	}
}
