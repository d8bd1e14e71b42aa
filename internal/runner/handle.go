package runner

import (
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// runState is shared by the loop goroutine and the handle. out is written
// once, before done is closed.
type runState struct {
	done chan struct{}
	out  outcome
}

// Handle is the caller's single-use capability over one run.
//
// Exactly one of BlockUntilFinished, Terminate or Release may be called; any
// further call panics with an error wrapping ErrHandleConsumed. A Handle that
// is garbage collected unconsumed releases the stop signal, which the loop
// observes as a stop on its next poll.
type Handle struct {
	name     string
	runID    string
	tx       *SignalSender
	state    *runState
	consumed atomic.Bool
	log      zerolog.Logger
}

func newHandle(name, runID string, tx *SignalSender, state *runState, log zerolog.Logger) *Handle {
	h := &Handle{
		name:  name,
		runID: runID,
		tx:    tx,
		state: state,
		log:   log,
	}
	runtime.SetFinalizer(h, (*Handle).dropped)
	return h
}

// Name returns the service name the handle was started for.
func (h *Handle) Name() string { return h.name }

// RunID returns the unique id of this run.
func (h *Handle) RunID() string { return h.runID }

// Done is closed once the run loop goroutine has ended, finalize included.
// Observing it does not consume the handle.
func (h *Handle) Done() <-chan struct{} { return h.state.done }

// BlockUntilFinished consumes the handle and waits for the run loop to end on
// its own. It panics with a *WorkerPanic if the loop ended by panicking.
func (h *Handle) BlockUntilFinished() {
	h.consume("BlockUntilFinished")
	h.wait()
}

// Terminate consumes the handle, asks the loop to stop and waits until it has
// finalized. A loop that already completed on its own is simply awaited; any
// other failure to deliver the signal panics with a *ProtocolViolation.
func (h *Handle) Terminate() {
	h.consume("Terminate")

	if err := h.tx.Send(); err != nil {
		<-h.state.done
		switch h.state.out.reason {
		case exitCompleted:
			h.log.Debug().Msg("Terminate after natural completion")
		case exitPanicked:
			// wait surfaces the worker panic.
		default:
			h.tx.Close()
			panic(&ProtocolViolation{Service: h.name, RunID: h.runID, Err: err})
		}
	} else {
		h.log.Info().Msg("Termination requested")
	}

	h.wait()
}

// Release consumes the handle without waiting. The loop stops on its next
// poll as if Terminate had been called, but nobody observes its end.
func (h *Handle) Release() {
	h.consume("Release")
	h.tx.Close()
}

func (h *Handle) consume(op string) {
	if !h.consumed.CompareAndSwap(false, true) {
		panic(fmt.Errorf("%w: %s on service %s (run %s)", ErrHandleConsumed, op, h.name, h.runID))
	}
	runtime.SetFinalizer(h, nil)
}

func (h *Handle) wait() {
	<-h.state.done
	h.tx.Close()

	if p := h.state.out.panic; p != nil {
		panic(p)
	}
}

// dropped runs as a finalizer when an unconsumed handle becomes unreachable.
func (h *Handle) dropped() {
	if !h.consumed.CompareAndSwap(false, true) {
		return
	}
	h.log.Warn().Msg("Handle dropped without Terminate or BlockUntilFinished")
	h.tx.Close()
}
