package replication

import (
	"github.com/ringkeeper/gossipcore/endpoint"
	"github.com/ringkeeper/gossipcore/partition"
	"github.com/ringkeeper/gossipcore/ring"
	"github.com/ringkeeper/gossipcore/snitch"
)

// NetworkTopologyStrategy replicates per datacenter, preferring to
// spread replicas across distinct racks within a DC and only doubling
// up on a rack once every rack in that DC already holds a replica
// (§4.5).
type NetworkTopologyStrategy struct {
	Snitch           snitch.Snitch
	ReplicasPerDC    map[string]int
}

func (s NetworkTopologyStrategy) CalculateNaturalEndpoints(token partition.Token, m *ring.Metadata) []endpoint.ID {
	type dcState struct {
		want         int
		got          []endpoint.ID
		racksSeen    map[string]struct{}
		totalRacks   int
		skippedSameRack []endpoint.ID
	}

	states := make(map[string]*dcState, len(s.ReplicasPerDC))
	for dc, want := range s.ReplicasPerDC {
		states[dc] = &dcState{want: want, racksSeen: make(map[string]struct{})}
	}
	for _, dc := range m.Topology().Datacenters() {
		if st, ok := states[dc]; ok {
			seen := make(map[string]struct{})
			for _, e := range m.Topology().DatacenterEndpoints(dc) {
				if rack, ok := m.Topology().Location(e); ok {
					seen[rack.Rack] = struct{}{}
				}
			}
			st.totalRacks = len(seen)
		}
	}

	remaining := 0
	for _, st := range states {
		remaining += st.want
	}

	var out []endpoint.ID
	seenEndpoint := make(map[endpoint.ID]struct{})

	ringWalk(m, token, func(_ partition.Token, owner endpoint.ID) bool {
		if remaining == 0 {
			return true
		}
		if _, dup := seenEndpoint[owner]; dup {
			return false
		}
		loc, ok := m.Topology().Location(owner)
		if !ok {
			return false
		}
		st, tracked := states[loc.DC]
		if !tracked || len(st.got) >= st.want {
			return false
		}

		_, rackUsed := st.racksSeen[loc.Rack]
		if rackUsed && st.totalRacks > 0 && len(st.racksSeen) < st.totalRacks {
			// Hold this candidate back until every rack in the DC has
			// contributed one replica, per the spec's rack-diversity rule.
			st.skippedSameRack = append(st.skippedSameRack, owner)
			return false
		}

		seenEndpoint[owner] = struct{}{}
		st.got = append(st.got, owner)
		st.racksSeen[loc.Rack] = struct{}{}
		out = append(out, owner)
		remaining--

		// Once every rack has a replica, same-rack candidates held back
		// earlier become eligible; replay them in the order observed.
		if st.totalRacks > 0 && len(st.racksSeen) == st.totalRacks && len(st.skippedSameRack) > 0 {
			for _, cand := range st.skippedSameRack {
				if len(st.got) >= st.want || remaining == 0 {
					break
				}
				if _, dup := seenEndpoint[cand]; dup {
					continue
				}
				seenEndpoint[cand] = struct{}{}
				st.got = append(st.got, cand)
				out = append(out, cand)
				remaining--
			}
			st.skippedSameRack = nil
		}
		return remaining == 0
	})
	return out
}

func (s NetworkTopologyStrategy) AddressRanges(m *ring.Metadata) map[endpoint.ID][]ring.Range {
	return addressRangesFrom(m, func(t partition.Token) []endpoint.ID {
		return s.CalculateNaturalEndpoints(t, m)
	})
}
