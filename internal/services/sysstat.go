package services

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"

	"tickrunner/internal/collector"
	"tickrunner/internal/config"
	"tickrunner/internal/options"
	"tickrunner/internal/runner"
	"tickrunner/internal/sender"
)

const collectTimeout = 5 * time.Second

// Sysstat samples host metrics on every tick and forwards them to a sender.
type Sysstat struct {
	identity

	collectors []collector.Collector
	sender     sender.Sender
	hostname   string
	clock      clock.Clock
	interval   time.Duration

	count int // 0 runs until stopped
	ticks int
	sent  int
}

// SysstatBuilder returns the builder for the sysstat service.
func SysstatBuilder(deps Deps) runner.Builder {
	opts := []options.Option{
		{Name: "collectors", Shorthand: "c", Usage: "collectors to sample", Kind: options.StringSlice,
			Default: collector.DefaultRegistry().Names()},
		{Name: "interval", Shorthand: "i", Usage: "pause between samples", Kind: options.Duration, Default: 10 * time.Second},
		{Name: "count", Usage: "number of sampling rounds (0 runs until stopped)", Kind: options.Int},
	}
	return runner.NewBuilder("sysstat", opts, func(args options.Args) (runner.Service, error) {
		return newSysstat(deps, args)
	})
}

func newSysstat(deps Deps, args options.Args) (*Sysstat, error) {
	count := args.Int("count")
	if count < 0 {
		return nil, fmt.Errorf("--count must not be negative, got %d", count)
	}
	interval := args.Duration("interval")
	if interval < 0 {
		return nil, fmt.Errorf("--interval must not be negative, got %v", interval)
	}

	collectors, err := collector.DefaultRegistry().Select(args.StringSlice("collectors"))
	if err != nil {
		return nil, err
	}
	if len(collectors) == 0 {
		return nil, fmt.Errorf("no collectors selected")
	}

	cfg := deps.config()
	s, err := deps.newSender(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create sender: %w", err)
	}

	return &Sysstat{
		identity:   newIdentity("sysstat"),
		collectors: collectors,
		sender:     s,
		hostname:   config.GetHostname(cfg),
		clock:      deps.clock(),
		interval:   interval,
		count:      count,
	}, nil
}

// Tick takes one sampling round and then pauses for the interval. The pause
// is skipped after the last round.
func (s *Sysstat) Tick() {
	s.collectRound()
	s.ticks++

	if s.Done() {
		return
	}
	s.clock.Sleep(s.interval)
}

func (s *Sysstat) collectRound() {
	ctx, cancel := context.WithTimeout(context.Background(), collectTimeout)
	defer cancel()

	for _, c := range s.collectors {
		sample, err := c.Collect(ctx)
		if err != nil {
			s.log.Warn().Err(err).Str("collector", c.Name()).Msg("Collection failed")
			continue
		}
		sample.Stamp(s.name, s.runID, s.hostname)

		if err := s.sender.Send(ctx, sample); err != nil {
			s.log.Error().Err(err).Str("collector", c.Name()).Msg("Failed to send sample")
			continue
		}
		s.sent++
	}
	s.log.Debug().Int("round", s.ticks+1).Int("sent", s.sent).Msg("Sampling round complete")
}

// Done reports whether the requested number of rounds has been taken.
func (s *Sysstat) Done() bool {
	return s.count > 0 && s.ticks >= s.count
}

// Finalize closes the sender.
func (s *Sysstat) Finalize() {
	if err := s.sender.Close(); err != nil {
		s.log.Error().Err(err).Msg("Failed to close sender")
	}
	s.log.Info().Int("rounds", s.ticks).Int("sent", s.sent).Msg("Sysstat finished")
}
