package session

import (
	"context"
	"errors"

	"github.com/DoyleJ11/hide-and-seek/internal/view"
)

var ErrTimeout = errors.New("wait timed out")
var ErrAborted = errors.New("session aborted")
var ErrSessionClosed = errors.New("session closed")
var ErrUnreachable = errors.New("messaging surface unreachable")

// MessageID names a message owned by a Responder or Broadcaster.
type MessageID string

// Responder reaches one participant privately. Implementations are owned by
// the transport; the session only holds references.
type Responder interface {
	Notify(ctx context.Context, p view.Payload) (MessageID, error)
	Edit(ctx context.Context, id MessageID, p view.Payload) error
}

// Broadcaster is the shared announcement surface every participant sees.
type Broadcaster interface {
	Create(ctx context.Context, p view.Payload) (MessageID, error)
	Edit(ctx context.Context, id MessageID, p view.Payload) error
	Delete(ctx context.Context, id MessageID) error
}
