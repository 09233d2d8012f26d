package types

import "time"

// SessionSnapshot is the body of GET /sessions/{code}.
type SessionSnapshot struct {
	Code      string           `json:"code"`
	Mode      string           `json:"mode"`
	Phase     string           `json:"phase"`
	EnteredAt time.Time        `json:"entered_at"`
	Capacity  int              `json:"capacity"`
	Players   []PlayerSnapshot `json:"players"`
	Replayed  bool             `json:"replayed"`
	Rounds    int              `json:"rounds"`

	// Set once the host confirmed the match started.
	StartedAt *time.Time `json:"started_at,omitempty"`
	HideEnds  *time.Time `json:"hide_ends,omitempty"`
	MatchEnds *time.Time `json:"match_ends,omitempty"`
}

type PlayerSnapshot struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Host bool   `json:"host,omitempty"`
	Role string `json:"role,omitempty"` // "seeker" | "hider"
}

// CreateSessionRequest is the body of POST /sessions.
type CreateSessionRequest struct {
	HostID   string `json:"host_id"`
	HostName string `json:"host_name"`
	Mode     string `json:"mode"` // "turfwar" | "ranked"
	Capacity int    `json:"capacity"`
}

type CreateSessionResponse struct {
	Code     string `json:"code"`
	Mode     string `json:"mode"`
	Capacity int    `json:"capacity"`
	Socket   string `json:"socket"`
}
