package runner

import (
	"errors"
	"sync"
	"sync/atomic"
)

// Poll is the result of a non-blocking check of the termination signal.
type Poll int

const (
	// PollEmpty means no stop was requested; keep running.
	PollEmpty Poll = iota
	// PollSignaled means the producer sent the stop signal.
	PollSignaled
	// PollClosed means the producer went away without sending. It is treated
	// exactly like PollSignaled.
	PollClosed
)

func (p Poll) String() string {
	switch p {
	case PollEmpty:
		return "empty"
	case PollSignaled:
		return "signaled"
	case PollClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Stop reports whether the poll result asks the loop to stop.
func (p Poll) Stop() bool {
	return p == PollSignaled || p == PollClosed
}

var (
	// ErrReceiverGone is returned by Send once the run loop has released its end.
	ErrReceiverGone = errors.New("runner: signal receiver is gone")
	// ErrSignalSent is returned by a second Send.
	ErrSignalSent = errors.New("runner: signal already sent")
	// ErrSenderClosed is returned by Send after Close.
	ErrSenderClosed = errors.New("runner: signal sender is closed")
)

// signal is a one-shot, single-producer single-consumer stop notification.
type signal struct {
	fired        chan struct{} // capacity 1, written at most once
	senderGone   chan struct{}
	receiverGone chan struct{}
	sent         atomic.Bool
	senderOnce   sync.Once
	receiverOnce sync.Once
}

// SignalSender is the producer end of a termination signal.
type SignalSender struct {
	sig *signal
}

// SignalReceiver is the consumer end of a termination signal.
type SignalReceiver struct {
	sig *signal
}

// NewSignal creates a connected producer/consumer pair.
func NewSignal() (*SignalSender, *SignalReceiver) {
	sig := &signal{
		fired:        make(chan struct{}, 1),
		senderGone:   make(chan struct{}),
		receiverGone: make(chan struct{}),
	}
	return &SignalSender{sig: sig}, &SignalReceiver{sig: sig}
}

// Send delivers the stop signal. It never blocks.
func (s *SignalSender) Send() error {
	select {
	case <-s.sig.senderGone:
		return ErrSenderClosed
	default:
	}
	select {
	case <-s.sig.receiverGone:
		return ErrReceiverGone
	default:
	}
	if !s.sig.sent.CompareAndSwap(false, true) {
		return ErrSignalSent
	}
	s.sig.fired <- struct{}{}
	return nil
}

// Close drops the producer. A receiver that has not seen a signal observes
// PollClosed from then on. Close is idempotent.
func (s *SignalSender) Close() {
	s.sig.senderOnce.Do(func() { close(s.sig.senderGone) })
}

// TryReceive polls without blocking. A pending signal is reported before a
// closed producer, and is consumed by the poll that reports it.
func (r *SignalReceiver) TryReceive() Poll {
	select {
	case <-r.sig.fired:
		return PollSignaled
	default:
	}
	select {
	case <-r.sig.senderGone:
		return PollClosed
	default:
		return PollEmpty
	}
}

// Release drops the consumer so later sends fail with ErrReceiverGone.
func (r *SignalReceiver) Release() {
	r.sig.receiverOnce.Do(func() { close(r.sig.receiverGone) })
}
