// Package snitch resolves datacenter/rack locality and orders replica
// candidates by network proximity. The core treats it purely as a
// capability interface (§9, "polymorphism by inheritance" redesign
// flag): the ring, replication strategy, and streaming planner depend
// only on Snitch, never on a concrete implementation.
package snitch

import (
	"sort"

	"github.com/ringkeeper/gossipcore/endpoint"
)

// Snitch answers locality and proximity questions about endpoints
// (§6, "Snitch interface (collaborator)").
type Snitch interface {
	// Datacenter returns the datacenter e belongs to.
	Datacenter(e endpoint.ID) string
	// Rack returns the rack e belongs to within its datacenter.
	Rack(e endpoint.ID) string
	// SortedByProximity returns candidates ordered nearest-to-farthest
	// from self. Implementations must not mutate candidates.
	SortedByProximity(self endpoint.ID, candidates []endpoint.ID) []endpoint.ID
	// CompareEndpoints reports whether a is closer to target than b:
	// <0 if a is closer, >0 if b is closer, 0 if equidistant.
	CompareEndpoints(target, a, b endpoint.ID) int
	// GossiperStarting is called once the gossip engine has finished
	// wiring itself, letting topology-aware snitches subscribe.
	GossiperStarting()
	// IsWorthMergingForRangeQuery reports whether querying merged in one
	// round trip is likely faster than querying l1 then l2 sequentially.
	IsWorthMergingForRangeQuery(merged, l1, l2 []endpoint.ID) bool
}

// SortByProximity is a helper concrete implementations can share to
// satisfy sortByProximity in terms of their own CompareEndpoints.
func SortByProximity(s Snitch, self endpoint.ID, endpoints []endpoint.ID) []endpoint.ID {
	out := append([]endpoint.ID(nil), endpoints...)
	sort.SliceStable(out, func(i, j int) bool {
		return s.CompareEndpoints(self, out[i], out[j]) < 0
	})
	return out
}
