package types

import "github.com/DoyleJ11/hide-and-seek/internal/view"

// Client -> server frame types.
const (
	TypeJoin  = "Join"
	TypePress = "Press"
)

// Server -> client frame types.
const (
	TypeWelcome = "Welcome"
	TypeMessage = "Message"
	TypeEdit    = "Edit"
	TypeDelete  = "Delete"
	TypeClosed  = "Closed"
	TypeError   = "Error"
)

// Scopes tell the client which surface a message belongs to.
const (
	ScopeBoard   = "board"
	ScopePrivate = "private"
)

type ClientMessage struct {
	Type    string   `json:"type"` // "Join" | "Press"
	Control string   `json:"control,omitempty"`
	Values  []string `json:"values,omitempty"`
}

type ServerMessage struct {
	Type      string        `json:"type"`
	Scope     string        `json:"scope,omitempty"`
	MessageID string        `json:"message_id,omitempty"`
	Payload   *view.Payload `json:"payload,omitempty"`
	Code      string        `json:"code,omitempty"`
	ConnID    string        `json:"conn_id,omitempty"`
	Error     string        `json:"error,omitempty"`
}

func ErrorFrame(msg string) ServerMessage {
	return ServerMessage{Type: TypeError, Error: msg}
}
