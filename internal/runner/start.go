package runner

import (
	"fmt"

	"github.com/google/uuid"

	"tickrunner/internal/logger"
	"tickrunner/internal/options"
)

// Start builds a service with b, spawns its run loop on a new goroutine and
// returns the handle. It does not wait for the service to do anything.
// A nil args means "no arguments": every option takes its default.
func Start(b Builder, args options.Args) (*Handle, error) {
	if args == nil {
		parsed, err := options.Parse(b.Name(), b.Options(), nil)
		if err != nil {
			return nil, fmt.Errorf("failed to parse options for %s: %w", b.Name(), err)
		}
		args = parsed
	}

	svc, err := b.Build(args)
	if err != nil {
		return nil, fmt.Errorf("failed to build service %s: %w", b.Name(), err)
	}
	if svc == nil {
		return nil, fmt.Errorf("failed to build service %s: builder returned nil", b.Name())
	}

	return spawn(b.Name(), svc), nil
}

func spawn(name string, svc Service) *Handle {
	runID := uuid.NewString()
	log := logger.WithService("runner", name, runID)

	if ra, ok := svc.(RunAware); ok {
		ra.SetRun(name, runID)
	}

	tx, rx := NewSignal()
	state := &runState{done: make(chan struct{})}
	loop := &runLoop{
		name:  name,
		runID: runID,
		svc:   svc,
		rx:    rx,
		log:   log,
	}

	// The goroutine must not reference the handle, or the drop finalizer
	// could never run.
	go func() {
		defer close(state.done)
		state.out = loop.run()
	}()

	return newHandle(name, runID, tx, state, log)
}
