package engine

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requirePartition(t *testing.T, r *Roster) {
	t.Helper()
	hiders, seekers := r.PartitionByRole()
	n := r.Len()
	require.Equal(t, n, len(hiders)+len(seekers), "every player has a role")

	seen := map[string]bool{}
	for _, p := range append(hiders, seekers...) {
		require.False(t, seen[p.Identity.ID], "player %s in both teams", p.Identity.ID)
		seen[p.Identity.ID] = true
	}
	require.GreaterOrEqual(t, len(seekers), 1)
	require.LessOrEqual(t, len(seekers), SeekerLimit(n))
}

func TestAssign_PartitionProperty(t *testing.T) {
	rs := newSeeded(42)
	for n := 2; n <= 7; n++ {
		for k := 1; k <= SeekerLimit(n); k++ {
			t.Run(fmt.Sprintf("n=%d/k=%d", n, k), func(t *testing.T) {
				r := newRosterOf(t, n)

				require.NoError(t, Assign(r, Selection{Policy: PolicyRandom, Count: k}, rs))
				requirePartition(t, r)
				_, seekers := r.PartitionByRole()
				assert.Len(t, seekers, k)

				require.NoError(t, Assign(r, Selection{Policy: PolicyRotate, Count: k}, rs))
				requirePartition(t, r)
				_, seekers = r.PartitionByRole()
				assert.Len(t, seekers, k)

				players := r.Players()
				manual := make([]string, 0, k)
				for _, p := range players[len(players)-k:] {
					manual = append(manual, p.Identity.ID)
				}
				require.NoError(t, Assign(r, Selection{Policy: PolicyManual, Seekers: manual}, rs))
				requirePartition(t, r)
				_, seekers = r.PartitionByRole()
				assert.ElementsMatch(t, manual, ids(seekers))
			})
		}
	}
}

func TestAssign_InvalidSelections(t *testing.T) {
	cases := []struct {
		name string
		n    int
		sel  Selection
	}{
		{"random zero", 3, Selection{Policy: PolicyRandom, Count: 0}},
		{"random negative", 3, Selection{Policy: PolicyRandom, Count: -1}},
		{"random too many", 3, Selection{Policy: PolicyRandom, Count: 3}},
		{"random over cap", 8, Selection{Policy: PolicyRandom, Count: 5}},
		{"rotate without roles", 3, Selection{Policy: PolicyRotate, Count: 1}},
		{"manual empty", 3, Selection{Policy: PolicyManual}},
		{"manual everyone", 2, Selection{Policy: PolicyManual, Seekers: []string{"p0", "a"}}},
		{"manual stranger", 3, Selection{Policy: PolicyManual, Seekers: []string{"zzz"}}},
		{"manual duplicate", 4, Selection{Policy: PolicyManual, Seekers: []string{"a", "a"}}},
		{"unknown policy", 3, Selection{Policy: "coinflip", Count: 1}},
		{"host alone", 1, Selection{Policy: PolicyRandom, Count: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newRosterOf(t, tc.n)
			before := r.Players()

			err := Assign(r, tc.sel, newSeeded(1))
			require.ErrorIs(t, err, ErrInvalidSelection)
			assert.Equal(t, before, r.Players(), "roster untouched on error")
		})
	}
}

func TestAssign_RandomIsUniform(t *testing.T) {
	const (
		n      = 5
		k      = 2
		trials = 20000
	)
	rs := newSeeded(2024)
	counts := map[string]int{}
	for range trials {
		r := newRosterOf(t, n)
		require.NoError(t, Assign(r, Selection{Policy: PolicyRandom, Count: k}, rs))
		_, seekers := r.PartitionByRole()
		for _, p := range seekers {
			counts[p.Identity.ID]++
		}
	}

	want := float64(k) / float64(n)
	require.Len(t, counts, n)
	for id, c := range counts {
		freq := float64(c) / trials
		assert.InDelta(t, want, freq, 0.02, "player %s chosen with frequency %.3f", id, freq)
	}
}

func TestSample_EverySubsetReachable(t *testing.T) {
	rs := newSeeded(99)
	seen := map[string]int{}
	for range 6000 {
		got := Sample([]string{"a", "b", "c", "d"}, 2, rs)
		require.Len(t, got, 2)
		require.NotEqual(t, got[0], got[1])
		key := got[0] + got[1]
		if got[1] < got[0] {
			key = got[1] + got[0]
		}
		seen[key]++
	}
	// C(4,2) subsets, each about 1/6 of the draws
	require.Len(t, seen, 6)
	for key, c := range seen {
		assert.Less(t, math.Abs(float64(c)/6000-1.0/6), 0.03, "subset %s", key)
	}
}

func TestSample_DoesNotMutateInput(t *testing.T) {
	in := []int{1, 2, 3, 4, 5}
	_ = Sample(in, 3, newSeeded(5))
	assert.Equal(t, []int{1, 2, 3, 4, 5}, in)
	assert.Len(t, Sample(in, 10, newSeeded(5)), 5)
	assert.Empty(t, Sample(in, -1, newSeeded(5)))
}

func TestAssign_RotateShiftsByOne(t *testing.T) {
	r := newRosterOf(t, 5) // p0 a b c d
	require.NoError(t, Assign(r, Selection{Policy: PolicyManual, Seekers: []string{"p0", "a"}}, nil))

	require.NoError(t, Assign(r, Selection{Policy: PolicyRotate, Count: 2}, nil))
	_, seekers := r.PartitionByRole()
	assert.Equal(t, []string{"a", "b"}, ids(seekers))
	assert.Equal(t, []string{"a", "b", "c", "d", "p0"}, ids(r.Players()))

	require.NoError(t, Assign(r, Selection{Policy: PolicyRotate, Count: 2}, nil))
	_, seekers = r.PartitionByRole()
	assert.Equal(t, []string{"b", "c"}, ids(seekers))
	assert.Equal(t, []string{"b", "c", "d", "p0", "a"}, ids(r.Players()))
}

func TestAssign_RotateAfterRandomKeepsCyclicOrder(t *testing.T) {
	r := newRosterOf(t, 6)
	require.NoError(t, Assign(r, Selection{Policy: PolicyRandom, Count: 3}, newSeeded(11)))

	require.NoError(t, Assign(r, Selection{Policy: PolicyRotate, Count: 3}, nil))
	first := ids(r.Players())
	require.NoError(t, Assign(r, Selection{Policy: PolicyRotate, Count: 3}, nil))
	second := ids(r.Players())

	// with seekers already at the front, a second rotation is a plain shift
	assert.Equal(t, append(first[1:], first[0]), second)
}

func TestAssign_RotateAfterLobbyReset(t *testing.T) {
	r := newRosterOf(t, 4) // p0 a b c
	require.NoError(t, Assign(r, Selection{Policy: PolicyManual, Seekers: []string{"b"}}, nil))

	r.ResetRoles()
	require.False(t, allAssigned(r))
	require.True(t, r.Played())

	// the previous seeker still leads the rotation
	require.NoError(t, Assign(r, Selection{Policy: PolicyRotate, Count: 1}, nil))
	_, seekers := r.PartitionByRole()
	assert.Equal(t, []string{"p0"}, ids(seekers))
	assert.Equal(t, []string{"p0", "a", "c", "b"}, ids(r.Players()))
}
