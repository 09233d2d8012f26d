package engine

import "slices"

// Roster keeps players in join order with an ID index for membership checks.
// It is not safe for concurrent use; the owning session serializes access.
type Roster struct {
	order    []*Player
	index    map[string]*Player
	capacity int
}

// NewRoster creates a roster holding host at index 0.
func NewRoster(host Identity, capacity int) (*Roster, error) {
	if capacity < 1 {
		return nil, ErrInvalidCapacity
	}
	r := &Roster{
		index:    make(map[string]*Player, capacity),
		capacity: capacity,
	}
	p := &Player{Identity: host, Host: true}
	r.order = append(r.order, p)
	r.index[host.ID] = p
	return r, nil
}

func (r *Roster) Add(id Identity) (Player, error) {
	if _, ok := r.index[id.ID]; ok {
		return Player{}, ErrAlreadyJoined
	}
	if len(r.order) >= r.capacity {
		return Player{}, ErrCapacityExceeded
	}
	p := &Player{Identity: id}
	r.order = append(r.order, p)
	r.index[id.ID] = p
	return *p, nil
}

func (r *Roster) Len() int      { return len(r.order) }
func (r *Roster) Capacity() int { return r.capacity }

func (r *Roster) Has(id string) bool {
	_, ok := r.index[id]
	return ok
}

func (r *Roster) Get(id string) (Player, bool) {
	p, ok := r.index[id]
	if !ok {
		return Player{}, false
	}
	return *p, true
}

// Host returns the host player. The host is never removed.
func (r *Roster) Host() Player {
	for _, p := range r.order {
		if p.Host {
			return *p
		}
	}
	return Player{}
}

// Players returns a copy of the roster in its current order.
func (r *Roster) Players() []Player {
	out := make([]Player, len(r.order))
	for i, p := range r.order {
		out[i] = *p
	}
	return out
}

// ResetRoles clears every role. The cleared roles still order the next
// Rotate.
func (r *Roster) ResetRoles() {
	for _, p := range r.order {
		if p.Role != RoleNone {
			p.last = p.Role
		}
		p.Role = RoleNone
	}
}

// Played reports whether some player was a seeker in the current or the
// previous match, which is what Rotate needs to go on.
func (r *Roster) Played() bool {
	for _, p := range r.order {
		if seekerRank(p) == 0 {
			return true
		}
	}
	return false
}

// PartitionByRole splits the roster into hiders and seekers, keeping roster
// order inside each group. Unassigned players land in neither group.
func (r *Roster) PartitionByRole() (hiders, seekers []Player) {
	for _, p := range r.order {
		switch p.Role {
		case RoleHider:
			hiders = append(hiders, *p)
		case RoleSeeker:
			seekers = append(seekers, *p)
		}
	}
	return hiders, seekers
}

// Rotate moves current seekers ahead of everyone else (stable), then moves
// the front player to the back. It does not assign roles.
func (r *Roster) Rotate() {
	if len(r.order) < 2 {
		return
	}
	slices.SortStableFunc(r.order, func(a, b *Player) int {
		return seekerRank(a) - seekerRank(b)
	})
	head := r.order[0]
	r.order = append(r.order[1:], head)
}

func seekerRank(p *Player) int {
	role := p.Role
	if role == RoleNone {
		role = p.last
	}
	if role == RoleSeeker {
		return 0
	}
	return 1
}

func (r *Roster) setSeekers(seekers map[string]bool) {
	for _, p := range r.order {
		if seekers[p.Identity.ID] {
			p.Role = RoleSeeker
		} else {
			p.Role = RoleHider
		}
	}
}
