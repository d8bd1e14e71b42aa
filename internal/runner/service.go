// Package runner drives a tickable service on its own goroutine and hands the
// caller a single-use Handle to wait for it or stop it.
//
// A run is: Builder.Build constructs the service, Start spawns the run loop,
// the loop polls the termination signal and ticks until told to stop (or until
// the service reports completion), then calls Finalize exactly once.
// Stopping is cooperative; a Tick that never returns cannot be interrupted.
package runner

import (
	"time"

	"github.com/benbjohnson/clock"

	"tickrunner/internal/logger"
	"tickrunner/internal/options"
)

// Service is one unit of background work.
//
// The run loop owns the service once started: Tick and Finalize are only ever
// called from the loop goroutine, never concurrently.
type Service interface {
	// Tick performs one step of work. It must return within a bounded time so
	// the loop can observe a stop request.
	Tick()

	// Finalize runs exactly once after the last Tick. The service is not used
	// again afterwards, so it may release everything it holds.
	Finalize()
}

// Completer is implemented by services that can finish on their own. The loop
// checks Done after every Tick and stops once it reports true.
type Completer interface {
	Done() bool
}

// RunAware is implemented by services that tag their output with the run
// identity. SetRun is called once, before the first Tick.
type RunAware interface {
	SetRun(name, runID string)
}

// Builder constructs services of one kind from parsed arguments.
type Builder interface {
	// Name identifies the service kind in logs, the registry and the CLI.
	Name() string

	// Options declares the flags Build understands. May return nil.
	Options() []options.Option

	// Build constructs a service from already-parsed arguments. It must not
	// block indefinitely.
	Build(args options.Args) (Service, error)
}

// BuildFunc constructs a service from parsed arguments.
type BuildFunc func(args options.Args) (Service, error)

type funcBuilder struct {
	name  string
	opts  []options.Option
	build BuildFunc
}

// NewBuilder returns a Builder backed by a plain function.
func NewBuilder(name string, opts []options.Option, build BuildFunc) Builder {
	return &funcBuilder{name: name, opts: opts, build: build}
}

func (b *funcBuilder) Name() string                             { return b.name }
func (b *funcBuilder) Options() []options.Option                { return b.opts }
func (b *funcBuilder) Build(args options.Args) (Service, error) { return b.build(args) }

// DefaultTickInterval is how long BaseService.Tick pauses.
const DefaultTickInterval = 200 * time.Millisecond

// BaseService supplies default Tick and Finalize behavior. Embed it and
// override what the service needs.
//
// The zero value is ready to use: it ticks on the wall clock every
// DefaultTickInterval.
type BaseService struct {
	// Clock is the time source for the pause in Tick. Nil means wall clock.
	Clock clock.Clock
	// Interval overrides DefaultTickInterval when positive.
	Interval time.Duration
}

// Tick logs a progress line and pauses for the tick interval.
func (b *BaseService) Tick() {
	log := logger.WithComponent("service")
	log.Debug().Msg("ticked")

	b.clock().Sleep(b.interval())
}

// Finalize does nothing.
func (b *BaseService) Finalize() {}

func (b *BaseService) clock() clock.Clock {
	if b.Clock == nil {
		return clock.New()
	}
	return b.Clock
}

func (b *BaseService) interval() time.Duration {
	if b.Interval > 0 {
		return b.Interval
	}
	return DefaultTickInterval
}
