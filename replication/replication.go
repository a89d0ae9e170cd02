// Package replication maps tokens to the endpoints responsible for
// holding them. The core depends only on the two-method Strategy
// capability (§4.5, §9 "polymorphism by inheritance" redesign flag);
// SimpleStrategy and NetworkTopologyStrategy are provided so the
// streaming planner's tests have something concrete to exercise.
package replication

import (
	"sort"

	"github.com/ringkeeper/gossipcore/endpoint"
	"github.com/ringkeeper/gossipcore/partition"
	"github.com/ringkeeper/gossipcore/ring"
)

// Strategy assigns the natural replica set for any token, and the
// reverse endpoint -> owned-ranges index the pending-range calculation
// walks (§4.5).
type Strategy interface {
	// CalculateNaturalEndpoints returns token's replicas in ring order,
	// primary replica first.
	CalculateNaturalEndpoints(token partition.Token, m *ring.Metadata) []endpoint.ID
	// AddressRanges returns, for every endpoint owning at least one
	// primary range, the set of ranges that endpoint is a natural
	// replica for.
	AddressRanges(m *ring.Metadata) map[endpoint.ID][]ring.Range
}

// ringWalk iterates sortedTokens starting at the first token >= token
// (token's own owner if token is itself an owned token, else the
// successor's owner — the primary replica per §4.4's primary-range
// definition), wrapping once, yielding each (token, owner) pair exactly
// once per full rotation. It is the shared primitive both strategies
// walk.
func ringWalk(m *ring.Metadata, token partition.Token, visit func(t partition.Token, owner endpoint.ID) (stop bool)) {
	sorted := m.SortedTokens()
	if len(sorted) == 0 {
		return
	}
	start := sort.Search(len(sorted), func(i int) bool { return sorted[i].Compare(token) >= 0 })
	if start == len(sorted) {
		start = 0
	}

	for i := 0; i < len(sorted); i++ {
		t := sorted[(start+i)%len(sorted)]
		owner, ok := m.EndpointFor(t)
		if !ok {
			continue
		}
		if visit(t, owner) {
			return
		}
	}
}

// addressRangesFrom builds the endpoint -> owned-primary-ranges index
// shared by both strategies: for every token owner, the range
// (predecessor(t), t] replicated out to CalculateNaturalEndpoints(t).
func addressRangesFrom(m *ring.Metadata, natural func(partition.Token) []endpoint.ID) map[endpoint.ID][]ring.Range {
	out := make(map[endpoint.ID][]ring.Range)
	for _, t := range m.SortedTokens() {
		r := m.PrimaryRange(t)
		for _, e := range natural(t) {
			out[e] = append(out[e], r)
		}
	}
	return out
}
