package runner

import (
	"runtime/debug"

	"github.com/rs/zerolog"
)

// exitReason records why a run loop ended.
type exitReason int

const (
	exitSignaled exitReason = iota + 1
	exitClosed
	exitCompleted
	exitPanicked
)

func (r exitReason) String() string {
	switch r {
	case exitSignaled:
		return "signaled"
	case exitClosed:
		return "handle dropped"
	case exitCompleted:
		return "completed"
	case exitPanicked:
		return "panicked"
	default:
		return "unknown"
	}
}

// outcome is what the loop goroutine leaves behind for the handle.
type outcome struct {
	reason exitReason
	ticks  uint64
	panic  *WorkerPanic
}

// runLoop owns the service and the signal receiver for the whole run.
type runLoop struct {
	name  string
	runID string
	svc   Service
	rx    *SignalReceiver
	log   zerolog.Logger
}

// run ticks until a stop is observed, then finalizes. The iteration that
// observes the stop still ticks once before the loop exits.
func (l *runLoop) run() (out outcome) {
	defer l.rx.Release()
	defer func() {
		if r := recover(); r != nil {
			out.reason = exitPanicked
			out.panic = &WorkerPanic{
				Service: l.name,
				RunID:   l.runID,
				Value:   r,
				Stack:   debug.Stack(),
			}
			l.log.Error().
				Interface("panic", r).
				Uint64("ticks", out.ticks).
				Msg("Run loop panicked")
		}
	}()

	l.log.Info().Msg("Run loop started")

	completer, _ := l.svc.(Completer)
	running := true
	for running {
		if poll := l.rx.TryReceive(); poll.Stop() {
			running = false
			out.reason = exitSignaled
			if poll == PollClosed {
				out.reason = exitClosed
			}
		}

		l.svc.Tick()
		out.ticks++

		if running && completer != nil && completer.Done() {
			running = false
			out.reason = exitCompleted
		}
	}

	l.log.Info().
		Str("reason", out.reason.String()).
		Uint64("ticks", out.ticks).
		Msg("Run loop stopped, finalizing")

	l.svc.Finalize()

	l.log.Info().Msg("Service finalized")
	return out
}
