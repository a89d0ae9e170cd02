package replication

import (
	"github.com/ringkeeper/gossipcore/endpoint"
	"github.com/ringkeeper/gossipcore/partition"
	"github.com/ringkeeper/gossipcore/ring"
)

// SimpleStrategy replicates a token to the ReplicationFactor endpoints
// whose tokens follow it on the ring, ignoring topology (§4.5).
type SimpleStrategy struct {
	ReplicationFactor int
}

func (s SimpleStrategy) CalculateNaturalEndpoints(token partition.Token, m *ring.Metadata) []endpoint.ID {
	var out []endpoint.ID
	seen := make(map[endpoint.ID]struct{})
	ringWalk(m, token, func(_ partition.Token, owner endpoint.ID) bool {
		if _, dup := seen[owner]; dup {
			return false
		}
		seen[owner] = struct{}{}
		out = append(out, owner)
		return len(out) >= s.ReplicationFactor
	})
	return out
}

func (s SimpleStrategy) AddressRanges(m *ring.Metadata) map[endpoint.ID][]ring.Range {
	return addressRangesFrom(m, func(t partition.Token) []endpoint.ID {
		return s.CalculateNaturalEndpoints(t, m)
	})
}
