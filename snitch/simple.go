package snitch

import "github.com/ringkeeper/gossipcore/endpoint"

// SimpleSnitch treats the whole cluster as one datacenter and rack,
// leaving SortedByProximity as input order. It mirrors the reference
// implementation's SimpleSnitch, useful for single-DC deployments and
// as the default in tests that don't exercise topology.
type SimpleSnitch struct{}

func (SimpleSnitch) Datacenter(endpoint.ID) string { return "datacenter1" }

func (SimpleSnitch) Rack(endpoint.ID) string { return "rack1" }

func (SimpleSnitch) CompareEndpoints(target, a, b endpoint.ID) int { return 0 }

func (s SimpleSnitch) SortedByProximity(self endpoint.ID, candidates []endpoint.ID) []endpoint.ID {
	return append([]endpoint.ID(nil), candidates...)
}

func (SimpleSnitch) GossiperStarting() {}

func (SimpleSnitch) IsWorthMergingForRangeQuery(merged, l1, l2 []endpoint.ID) bool { return false }
