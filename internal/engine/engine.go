package engine

import (
	"errors"
	"slices"
	"time"
)

var ErrCapacityExceeded = errors.New("lobby is full")
var ErrAlreadyJoined = errors.New("already joined")
var ErrInvalidSelection = errors.New("invalid team selection")
var ErrInvalidMode = errors.New("invalid mode")
var ErrInvalidCapacity = errors.New("invalid capacity")

// MaxSeekers caps the seeker team regardless of roster size.
const MaxSeekers = 4

type Mode string

const (
	ModeTurfWar Mode = "turfwar"
	ModeRanked  Mode = "ranked"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeTurfWar, ModeRanked:
		return Mode(s), nil
	default:
		return "", ErrInvalidMode
	}
}

func (m Mode) Label() string {
	if m == ModeRanked {
		return "Ranked"
	}
	return "Turf War"
}

type Role string

const (
	RoleNone   Role = ""
	RoleSeeker Role = "seeker"
	RoleHider  Role = "hider"
)

// Identity is the messaging platform's participant identity. ID is stable
// and unique; Name is only for display.
type Identity struct {
	ID   string
	Name string
}

type Player struct {
	Identity Identity
	Host     bool
	Role     Role

	// last is the role from the previous match, kept for rotation.
	last Role
}

func (p Player) Assigned() bool { return p.Role != RoleNone }

type Phase string

const (
	PhaseLobby      Phase = "lobby"
	PhaseTeamSelect Phase = "team_select"
	PhaseAwaitStart Phase = "await_start"
	PhaseHiding     Phase = "hiding"
	PhaseSeeking    Phase = "seeking"
	PhaseReplay     Phase = "replay"
	PhaseFinished   Phase = "finished"
	PhaseAborted    Phase = "aborted"
)

// State is the phase-discriminated session state. Each variant carries only
// the timestamps that are defined while the session is in that phase.
type State interface {
	Phase() Phase
	isState()
}

type Lobby struct{ CreatedAt time.Time }

type TeamSelect struct{ CreatedAt time.Time }

type AwaitStart struct{ CreatedAt time.Time }

type Hiding struct{ StartedAt time.Time }

type Seeking struct{ StartedAt time.Time }

type Replay struct{ StartedAt time.Time }

type Finished struct{ Replayed bool }

type Aborted struct{ From Phase }

func (Lobby) Phase() Phase      { return PhaseLobby }
func (TeamSelect) Phase() Phase { return PhaseTeamSelect }
func (AwaitStart) Phase() Phase { return PhaseAwaitStart }
func (Hiding) Phase() Phase     { return PhaseHiding }
func (Seeking) Phase() Phase    { return PhaseSeeking }
func (Replay) Phase() Phase     { return PhaseReplay }
func (Finished) Phase() Phase   { return PhaseFinished }
func (Aborted) Phase() Phase    { return PhaseAborted }

func (Lobby) isState()      {}
func (TeamSelect) isState() {}
func (AwaitStart) isState() {}
func (Hiding) isState()     {}
func (Seeking) isState()    {}
func (Replay) isState()     {}
func (Finished) isState()   {}
func (Aborted) isState()    {}

var transitions = map[Phase][]Phase{
	"":              {PhaseLobby},
	PhaseLobby:      {PhaseTeamSelect, PhaseAborted},
	PhaseTeamSelect: {PhaseAwaitStart, PhaseAborted},
	PhaseAwaitStart: {PhaseHiding, PhaseAborted},
	PhaseHiding:     {PhaseSeeking, PhaseAborted},
	PhaseSeeking:    {PhaseReplay, PhaseAborted},
	PhaseReplay:     {PhaseLobby, PhaseFinished, PhaseAborted},
}

// CanTransition reports whether the lifecycle allows moving from one phase
// to the next. The empty phase is the state before the first lobby.
func CanTransition(from, to Phase) bool {
	return slices.Contains(transitions[from], to)
}
