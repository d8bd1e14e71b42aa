package runner

import (
	"errors"
	"fmt"
)

// ErrHandleConsumed is the panic value (wrapped) when a Handle is used after
// BlockUntilFinished, Terminate or Release already consumed it.
var ErrHandleConsumed = errors.New("runner: handle already consumed")

// WorkerPanic describes a run loop that ended by panicking instead of
// returning. BlockUntilFinished and Terminate re-panic with it.
type WorkerPanic struct {
	Service string
	RunID   string
	Value   interface{}
	Stack   []byte
}

func (p *WorkerPanic) Error() string {
	return fmt.Sprintf("runner: service %s (run %s) panicked: %v", p.Service, p.RunID, p.Value)
}

// Unwrap exposes the panic value when it was an error.
func (p *WorkerPanic) Unwrap() error {
	if err, ok := p.Value.(error); ok {
		return err
	}
	return nil
}

// ProtocolViolation is the panic value when Terminate cannot deliver the stop
// signal to a loop that did not finish on its own.
type ProtocolViolation struct {
	Service string
	RunID   string
	Err     error
}

func (v *ProtocolViolation) Error() string {
	return fmt.Sprintf("runner: service %s (run %s) hung up unexpectedly: %v", v.Service, v.RunID, v.Err)
}

func (v *ProtocolViolation) Unwrap() error {
	return v.Err
}
