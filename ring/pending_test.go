package ring

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ringkeeper/gossipcore/endpoint"
	"github.com/ringkeeper/gossipcore/partition"
)

// simpleTestStrategy mirrors replication.SimpleStrategy's ring-walk
// logic without importing package replication, which itself imports
// ring — pending_test.go can't take that dependency without a cycle.
type simpleTestStrategy struct{ rf int }

func (s simpleTestStrategy) CalculateNaturalEndpoints(token partition.Token, m *Metadata) []endpoint.ID {
	sorted := m.SortedTokens()
	if len(sorted) == 0 {
		return nil
	}
	start := sort.Search(len(sorted), func(i int) bool { return sorted[i].Compare(token) >= 0 })
	if start == len(sorted) {
		start = 0
	}
	var out []endpoint.ID
	seen := make(map[endpoint.ID]struct{})
	for i := 0; i < len(sorted) && len(out) < s.rf; i++ {
		t := sorted[(start+i)%len(sorted)]
		owner, ok := m.EndpointFor(t)
		if !ok || func() bool { _, dup := seen[owner]; return dup }() {
			continue
		}
		seen[owner] = struct{}{}
		out = append(out, owner)
	}
	return out
}

func (s simpleTestStrategy) AddressRanges(m *Metadata) map[endpoint.ID][]Range {
	out := make(map[endpoint.ID][]Range)
	for _, t := range m.SortedTokens() {
		r := m.PrimaryRange(t)
		for _, e := range s.CalculateNaturalEndpoints(t, m) {
			out[e] = append(out[e], r)
		}
	}
	return out
}

func idsEqual(t *testing.T, want, got []endpoint.ID) {
	t.Helper()
	sort.Slice(want, func(i, j int) bool { return endpoint.Compare(want[i], want[j]) < 0 })
	require.Equal(t, len(want), len(got), "got %v", got)
	for i := range want {
		require.True(t, want[i].Equal(got[i]), "index %d: want %s got %s", i, want[i], got[i])
	}
}

func TestRecalculatePendingRangesLeavingEndpointPromotesNextReplica(t *testing.T) {
	m := New(partition.Murmur3Partitioner{}, nil)
	a, b, c := newEndpoint(t, 1), newEndpoint(t, 2), newEndpoint(t, 3)

	m.UpdateNormalTokens(a, []partition.Token{tok(0)})
	m.UpdateNormalTokens(b, []partition.Token{tok(20)})
	m.UpdateNormalTokens(c, []partition.Token{tok(40)})
	m.AddLeavingEndpoint(b)

	strategy := simpleTestStrategy{rf: 2}
	m.RecalculatePendingRanges("ks", strategy)

	// (A,B] was replicated to {B,C}; once B actually leaves, the walk
	// from B's old token lands on {C,A}, so A is the new destination.
	idsEqual(t, []endpoint.ID{a}, m.PendingRanges("ks", Range{Left: tok(0), Right: tok(20)}))
	// (C,A] (wrap) was replicated to {A,B}; once B leaves, {A,C}, so C is
	// the new destination.
	idsEqual(t, []endpoint.ID{c}, m.PendingRanges("ks", Range{Left: tok(40), Right: tok(0)}))
	// (B,C], owned outright by B and C already, gains nobody.
	require.Empty(t, m.PendingRanges("ks", Range{Left: tok(20), Right: tok(40)}))
}

// TestRecalculatePendingRangesSimultaneousBootstrap reproduces the
// "simultaneous bootstrap" scenario: ring A, C, E with RF=3, D
// bootstraps between C and E, B bootstraps between A and C. Every range
// either could eventually own must list both, and the calculation must
// be deterministic given the same two token sets.
func TestRecalculatePendingRangesSimultaneousBootstrap(t *testing.T) {
	m := New(partition.Murmur3Partitioner{}, nil)
	a, c, e := newEndpoint(t, 1), newEndpoint(t, 2), newEndpoint(t, 3)
	b, d := newEndpoint(t, 4), newEndpoint(t, 5)

	m.UpdateNormalTokens(a, []partition.Token{tok(0)})
	m.UpdateNormalTokens(c, []partition.Token{tok(20)})
	m.UpdateNormalTokens(e, []partition.Token{tok(40)})
	require.NoError(t, m.AddBootstrapTokens([]partition.Token{tok(10)}, b, nil))
	require.NoError(t, m.AddBootstrapTokens([]partition.Token{tok(30)}, d, nil))

	strategy := simpleTestStrategy{rf: 3}
	m.RecalculatePendingRanges("ks", strategy)

	// (E,A]: in B's solo 4-node simulation {A,B,C} own it; in D's solo
	// simulation {A,C,D} own it. Both B and D are new relative to the
	// original 3-node natural set {A,C,E}, so both must appear.
	idsEqual(t, []endpoint.ID{b, d}, m.PendingRanges("ks", Range{Left: tok(40), Right: tok(0)}))

	// (A,B] only exists once B has bootstrapped; only B's simulation
	// produces it.
	idsEqual(t, []endpoint.ID{b}, m.PendingRanges("ks", Range{Left: tok(0), Right: tok(10)}))

	// (C,D] only exists once D has bootstrapped; only D's simulation
	// produces it.
	idsEqual(t, []endpoint.ID{d}, m.PendingRanges("ks", Range{Left: tok(20), Right: tok(30)}))

	// Recalculating from the same inputs must reproduce the same result
	// (§4.4's independent-simulation rule is deterministic given the same
	// bootstrap token sets, regardless of map iteration order).
	before := m.AllPendingRanges("ks")
	m.RecalculatePendingRanges("ks", strategy)
	after := m.AllPendingRanges("ks")
	require.Equal(t, len(before), len(after))
	for key, dest := range before {
		idsEqual(t, dest, after[key])
	}
}

func TestRecalculatePendingRangesMovingEndpoint(t *testing.T) {
	m := New(partition.Murmur3Partitioner{}, nil)
	a, b, c := newEndpoint(t, 1), newEndpoint(t, 2), newEndpoint(t, 3)

	m.UpdateNormalTokens(a, []partition.Token{tok(0)})
	m.UpdateNormalTokens(b, []partition.Token{tok(20)})
	m.UpdateNormalTokens(c, []partition.Token{tok(40)})
	m.AddMovingEndpoint(tok(30), b)

	strategy := simpleTestStrategy{rf: 2}
	m.RecalculatePendingRanges("ks", strategy)

	// B moving from 20 to 30 keeps (C,A] and shifts its primary range
	// from (A,20] to (A,30]; the net gain is the (20,30] sliver that
	// falls under B's new primary range but wasn't part of its old one.
	dest := m.PendingRanges("ks", Range{Left: tok(20), Right: tok(30)})
	require.Len(t, dest, 1)
	require.True(t, dest[0].Equal(b))
}
