package services

import (
	"fmt"

	"tickrunner/internal/options"
	"tickrunner/internal/runner"
)

// Countdown ticks a fixed number of times through the default tick and then
// reports completion.
type Countdown struct {
	runner.BaseService
	identity

	remaining int
}

// CountdownBuilder returns the builder for the countdown service.
func CountdownBuilder(deps Deps) runner.Builder {
	opts := []options.Option{
		{Name: "ticks", Shorthand: "n", Usage: "number of ticks before completing", Kind: options.Int, Default: 5},
		{Name: "interval", Usage: "pause per tick (0 uses the default)", Kind: options.Duration},
	}
	return runner.NewBuilder("countdown", opts, func(args options.Args) (runner.Service, error) {
		ticks := args.Int("ticks")
		if ticks <= 0 {
			return nil, fmt.Errorf("--ticks must be positive, got %d", ticks)
		}
		c := &Countdown{identity: newIdentity("countdown"), remaining: ticks}
		c.Clock = deps.Clock
		c.Interval = args.Duration("interval")
		return c, nil
	})
}

// Tick runs the default tick and counts down.
func (c *Countdown) Tick() {
	c.BaseService.Tick()
	if c.remaining > 0 {
		c.remaining--
	}
	c.log.Info().Int("remaining", c.remaining).Msg("Countdown tick")
}

// Done reports whether the countdown reached zero.
func (c *Countdown) Done() bool {
	return c.remaining == 0
}

// Finalize logs how far the countdown got.
func (c *Countdown) Finalize() {
	c.log.Info().Int("remaining", c.remaining).Msg("Countdown finished")
}
