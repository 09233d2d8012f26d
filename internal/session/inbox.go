package session

import (
	"context"
	"time"

	"github.com/DoyleJ11/hide-and-seek/internal/engine"
)

type Msg interface{ isSessionMsg() }

// Join is a participant asking to be added to the roster.
type Join struct {
	Who   engine.Identity
	Reply Responder
}

func (Join) isSessionMsg() {}

// Press is a button press or menu selection on a control.
type Press struct {
	Who     engine.Identity
	Control string
	Values  []string
	Reply   Responder
}

func (Press) isSessionMsg() {}

// Shutdown aborts the session at its current phase.
type Shutdown struct{}

func (Shutdown) isSessionMsg() {}

// GetState asks for a snapshot without racing the session goroutine.
type GetState struct {
	Reply chan View
}

func (GetState) isSessionMsg() {}

// Collector is the session's event queue. Collect yields the first message
// accepted before a deadline; Deliver feeds it from other goroutines until
// Close.
type Collector interface {
	Collect(ctx context.Context, until time.Time, accept func(Msg) bool) (Msg, error)
	Deliver(ctx context.Context, m Msg) error
	Done() <-chan struct{}
	Close()
}

// Inbox is the session's Collector. Messages the predicate rejects are
// dropped, so nothing from a closed window carries over to the next one.
type Inbox struct {
	ch    chan Msg
	clock Clock
	done  chan struct{}
}

func NewInbox(clock Clock, size int) *Inbox {
	return &Inbox{
		ch:    make(chan Msg, size),
		clock: clock,
		done:  make(chan struct{}),
	}
}

func (in *Inbox) Collect(ctx context.Context, until time.Time, accept func(Msg) bool) (Msg, error) {
	timer := in.clock.NewTimer(until.Sub(in.clock.Now()))
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C():
			return nil, ErrTimeout
		case m := <-in.ch:
			if accept(m) {
				return m, nil
			}
		}
	}
}

// Deliver hands m to the session. It fails once the session has exited.
func (in *Inbox) Deliver(ctx context.Context, m Msg) error {
	select {
	case <-in.done:
		return ErrSessionClosed
	default:
	}
	select {
	case in.ch <- m:
		return nil
	case <-in.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (in *Inbox) Done() <-chan struct{} { return in.done }

func (in *Inbox) Close() { close(in.done) }
