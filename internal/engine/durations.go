package engine

import "time"

type Durations struct {
	Hide time.Duration
	Seek time.Duration
}

// Total is the full match length measured from the start confirmation.
func (d Durations) Total() time.Duration { return d.Hide + d.Seek }

// DurationsFor returns the hiding and seeking lengths for a mode. Outside
// production every mode uses short timers.
func DurationsFor(m Mode, prod bool) Durations {
	if !prod {
		return Durations{Hide: 5 * time.Second, Seek: 10 * time.Second}
	}
	if m == ModeRanked {
		return Durations{Hide: 2 * time.Minute, Seek: 3 * time.Minute}
	}
	return Durations{Hide: 1 * time.Minute, Seek: 2 * time.Minute}
}

// HideEnds and MatchEnds are the absolute deadlines for a match that was
// confirmed at startedAt.
func (d Durations) HideEnds(startedAt time.Time) time.Time  { return startedAt.Add(d.Hide) }
func (d Durations) MatchEnds(startedAt time.Time) time.Time { return startedAt.Add(d.Total()) }
