package engine

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

type Policy string

const (
	PolicyRotate Policy = "rotate"
	PolicyRandom Policy = "random"
	PolicyManual Policy = "manual"
)

// Selection is the host's answer to the team prompt. Count is used by the
// rotate and random policies, Seekers (player IDs) by the manual policy.
type Selection struct {
	Policy  Policy
	Count   int
	Seekers []string
}

// RandomSource yields uniform integers in [0, n).
type RandomSource interface {
	Intn(n int) int
}

// CryptoSource draws from crypto/rand so room codes are hard to guess.
type CryptoSource struct{}

func (CryptoSource) Intn(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic(fmt.Sprintf("crypto/rand: %v", err))
	}
	return int(v.Int64())
}

// SeekerLimit is the largest seeker team a roster of n players may field.
func SeekerLimit(n int) int {
	return min(MaxSeekers, n-1)
}

// FairestSeekers is the seeker count that splits n players most evenly.
func FairestSeekers(n int) int {
	return n / 2
}

// Assign applies sel to the roster. On error the roster's roles are left
// untouched. Rotate is only valid once the roster has played a match.
func Assign(r *Roster, sel Selection, rs RandomSource) error {
	n := r.Len()
	limit := SeekerLimit(n)
	if limit < 1 {
		return fmt.Errorf("%w: need at least 2 players, have %d", ErrInvalidSelection, n)
	}

	switch sel.Policy {
	case PolicyRotate:
		if sel.Count < 1 || sel.Count > limit {
			return fmt.Errorf("%w: %d seekers out of range [1,%d]", ErrInvalidSelection, sel.Count, limit)
		}
		if !r.Played() {
			return fmt.Errorf("%w: nothing to rotate", ErrInvalidSelection)
		}
		r.Rotate()
		seekers := make(map[string]bool, sel.Count)
		for _, p := range r.order[:sel.Count] {
			seekers[p.Identity.ID] = true
		}
		r.setSeekers(seekers)

	case PolicyRandom:
		if sel.Count < 1 || sel.Count > limit {
			return fmt.Errorf("%w: %d seekers out of range [1,%d]", ErrInvalidSelection, sel.Count, limit)
		}
		ids := make([]string, n)
		for i, p := range r.order {
			ids[i] = p.Identity.ID
		}
		seekers := make(map[string]bool, sel.Count)
		for _, id := range Sample(ids, sel.Count, rs) {
			seekers[id] = true
		}
		r.setSeekers(seekers)

	case PolicyManual:
		if len(sel.Seekers) < 1 || len(sel.Seekers) > limit {
			return fmt.Errorf("%w: %d seekers out of range [1,%d]", ErrInvalidSelection, len(sel.Seekers), limit)
		}
		seekers := make(map[string]bool, len(sel.Seekers))
		for _, id := range sel.Seekers {
			if !r.Has(id) {
				return fmt.Errorf("%w: %q is not in the lobby", ErrInvalidSelection, id)
			}
			if seekers[id] {
				return fmt.Errorf("%w: %q picked twice", ErrInvalidSelection, id)
			}
			seekers[id] = true
		}
		r.setSeekers(seekers)

	default:
		return fmt.Errorf("%w: unknown policy %q", ErrInvalidSelection, sel.Policy)
	}
	return nil
}

// Sample returns k distinct elements of items chosen uniformly at random,
// using a partial Fisher-Yates shuffle on a copy of items.
func Sample[T any](items []T, k int, rs RandomSource) []T {
	k = min(max(k, 0), len(items))
	buf := append([]T(nil), items...)
	for i := 0; i < k; i++ {
		j := i + rs.Intn(len(buf)-i)
		buf[i], buf[j] = buf[j], buf[i]
	}
	return buf[:k]
}

// NewCode returns a four digit room code.
func NewCode(rs RandomSource) string {
	b := make([]byte, 4)
	for i := range b {
		b[i] = byte('0' + rs.Intn(10))
	}
	return string(b)
}
