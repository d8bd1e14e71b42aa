// Package services holds the services shipped with the tickrunner binary.
package services

import (
	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"

	"tickrunner/internal/config"
	"tickrunner/internal/logger"
	"tickrunner/internal/runner"
	"tickrunner/internal/sender"
)

// Deps are the process-wide collaborators handed to every builder.
type Deps struct {
	Config *config.Config

	// Clock drives every pause between ticks. Nil means wall clock.
	Clock clock.Clock

	// NewSender creates the sample sender. Nil means sender.NewSender.
	NewSender func(cfg *config.Config) (sender.Sender, error)
}

func (d Deps) config() *config.Config {
	if d.Config == nil {
		return config.DefaultConfig()
	}
	return d.Config
}

func (d Deps) clock() clock.Clock {
	if d.Clock == nil {
		return clock.New()
	}
	return d.Clock
}

func (d Deps) newSender(cfg *config.Config) (sender.Sender, error) {
	if d.NewSender != nil {
		return d.NewSender(cfg)
	}
	return sender.NewSender(cfg)
}

// Builders returns a builder for every shipped service.
func Builders(deps Deps) []runner.Builder {
	return []runner.Builder{
		CountdownBuilder(deps),
		HeartbeatBuilder(deps),
		SysstatBuilder(deps),
	}
}

// Register adds every shipped service to reg.
func Register(reg *runner.Registry, deps Deps) error {
	for _, b := range Builders(deps) {
		if err := reg.Register(b); err != nil {
			return err
		}
	}
	return nil
}

// identity carries the run identity assigned by the runner.
type identity struct {
	name  string
	runID string
	log   zerolog.Logger
}

func newIdentity(name string) identity {
	return identity{name: name, log: logger.WithComponent(name)}
}

// SetRun implements runner.RunAware.
func (id *identity) SetRun(name, runID string) {
	id.name = name
	id.runID = runID
	id.log = logger.WithService(name, name, runID)
}
