package replication

import (
	"math/big"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ringkeeper/gossipcore/endpoint"
	"github.com/ringkeeper/gossipcore/partition"
	"github.com/ringkeeper/gossipcore/ring"
)

func mkEndpoint(t *testing.T, port int) endpoint.ID {
	t.Helper()
	addr, err := endpoint.NewAddrPort("10.0.0.1", port)
	require.NoError(t, err)
	return endpoint.New(uuid.New(), addr, addr, addr, addr)
}

func mkToken(v int64) partition.Token { return partition.NewByteToken(big.NewInt(v)) }

func TestSimpleStrategyWalksForwardFromToken(t *testing.T) {
	m := ring.New(partition.Murmur3Partitioner{}, nil)
	a, b, c := mkEndpoint(t, 1), mkEndpoint(t, 2), mkEndpoint(t, 3)
	m.UpdateNormalTokens(a, []partition.Token{mkToken(10)})
	m.UpdateNormalTokens(b, []partition.Token{mkToken(20)})
	m.UpdateNormalTokens(c, []partition.Token{mkToken(30)})

	s := SimpleStrategy{ReplicationFactor: 2}
	got := s.CalculateNaturalEndpoints(mkToken(15), m)
	require.Equal(t, []endpoint.ID{b, c}, got)
}

func TestSimpleStrategyWrapsAroundRing(t *testing.T) {
	m := ring.New(partition.Murmur3Partitioner{}, nil)
	a, b, c := mkEndpoint(t, 1), mkEndpoint(t, 2), mkEndpoint(t, 3)
	m.UpdateNormalTokens(a, []partition.Token{mkToken(10)})
	m.UpdateNormalTokens(b, []partition.Token{mkToken(20)})
	m.UpdateNormalTokens(c, []partition.Token{mkToken(30)})

	s := SimpleStrategy{ReplicationFactor: 3}
	got := s.CalculateNaturalEndpoints(mkToken(25), m)
	require.ElementsMatch(t, []endpoint.ID{c, a, b}, got)
	require.Equal(t, c, got[0], "first replica must be the immediate successor")
}

func TestNetworkTopologyStrategyPrefersDistinctRacks(t *testing.T) {
	m := ring.New(partition.Murmur3Partitioner{}, nil)
	a, b, c := mkEndpoint(t, 1), mkEndpoint(t, 2), mkEndpoint(t, 3)
	m.UpdateTopology(a, ring.Location{DC: "dc1", Rack: "r1"})
	m.UpdateTopology(b, ring.Location{DC: "dc1", Rack: "r1"})
	m.UpdateTopology(c, ring.Location{DC: "dc1", Rack: "r2"})
	m.UpdateNormalTokens(a, []partition.Token{mkToken(10)})
	m.UpdateNormalTokens(b, []partition.Token{mkToken(20)})
	m.UpdateNormalTokens(c, []partition.Token{mkToken(30)})

	s := NetworkTopologyStrategy{ReplicasPerDC: map[string]int{"dc1": 2}}
	got := s.CalculateNaturalEndpoints(mkToken(5), m)
	require.Len(t, got, 2)
	require.Equal(t, a, got[0])
	require.Equal(t, c, got[1], "second replica should prefer the distinct rack over doubling up on r1")
}

func TestAddressRangesCoversEveryPrimaryRangeOwner(t *testing.T) {
	m := ring.New(partition.Murmur3Partitioner{}, nil)
	a, b := mkEndpoint(t, 1), mkEndpoint(t, 2)
	m.UpdateNormalTokens(a, []partition.Token{mkToken(10)})
	m.UpdateNormalTokens(b, []partition.Token{mkToken(20)})

	s := SimpleStrategy{ReplicationFactor: 2}
	ranges := s.AddressRanges(m)
	require.Len(t, ranges[a], 2)
	require.Len(t, ranges[b], 2)
}
