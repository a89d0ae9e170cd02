package snitch

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ringkeeper/gossipcore/endpoint"
)

func ep(t *testing.T, ip string) endpoint.ID {
	t.Helper()
	addr, err := endpoint.NewAddrPort(ip, 7000)
	require.NoError(t, err)
	return endpoint.New(uuid.New(), addr, addr, addr, addr)
}

func TestPropertyFileSnitchPrefersSameRack(t *testing.T) {
	local := ep(t, "10.0.0.1")
	sameRack := ep(t, "10.0.0.2")
	sameDC := ep(t, "10.0.0.3")
	otherDC := ep(t, "10.0.0.4")

	s := NewPropertyFileSnitch("dc1", "rack1", map[string]Location{
		"10.0.0.1": {Datacenter: "dc1", Rack: "rack1"},
		"10.0.0.2": {Datacenter: "dc1", Rack: "rack1"},
		"10.0.0.3": {Datacenter: "dc1", Rack: "rack2"},
		"10.0.0.4": {Datacenter: "dc2", Rack: "rack1"},
	})

	sorted := s.SortedByProximity(local, []endpoint.ID{otherDC, sameDC, sameRack})
	require.Equal(t, sameRack, sorted[0])
	require.Equal(t, otherDC, sorted[len(sorted)-1])
}

func TestPropertyFileSnitchDefaultsUnknownEndpoints(t *testing.T) {
	s := NewPropertyFileSnitch("dc1", "rack1", nil)
	unknown := ep(t, "192.168.1.1")
	require.Equal(t, "dc1", s.Datacenter(unknown))
	require.Equal(t, "rack1", s.Rack(unknown))
}

func TestSimpleSnitchTreatsEverythingAsLocal(t *testing.T) {
	a, b := ep(t, "10.0.0.1"), ep(t, "10.0.0.2")
	var s SimpleSnitch
	require.Equal(t, s.Datacenter(a), s.Datacenter(b))
	require.Equal(t, 0, s.CompareEndpoints(a, a, b))
}
