package transport

import (
	"net/netip"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	gossipv1 "github.com/ringkeeper/gossipcore/api/gossip/v1"
	"github.com/ringkeeper/gossipcore/appstate"
	"github.com/ringkeeper/gossipcore/endpoint"
	"github.com/ringkeeper/gossipcore/gossip"
)

func mkID(t *testing.T) endpoint.ID {
	t.Helper()
	listen, err := endpoint.NewAddrPort("10.0.0.1", 7000)
	require.NoError(t, err)
	broadcast, err := endpoint.NewAddrPort("10.0.0.1", 7000)
	require.NoError(t, err)
	native, err := endpoint.NewAddrPort("10.0.0.1", 9042)
	require.NoError(t, err)
	return endpoint.New(uuid.New(), listen, broadcast, native, netip.AddrPort{})
}

func TestEndpointRefRoundTrips(t *testing.T) {
	id := mkID(t)
	ref := toEndpointRef(id)
	back, err := fromEndpointRef(ref)
	require.NoError(t, err)
	require.True(t, id.Equal(back))
}

func TestFromEndpointRefRejectsNil(t *testing.T) {
	_, err := fromEndpointRef(nil)
	require.Error(t, err)
}

func TestStateDeltaRoundTrips(t *testing.T) {
	delta := gossip.StateDelta{
		Heartbeat: appstate.Heartbeat{Generation: 100, Version: 2},
		States: map[appstate.Key]appstate.VersionedValue{
			appstate.DC:   {Value: "dc1", Version: 1},
			appstate.Rack: {Value: "r1", Version: 3},
		},
	}
	wire := toStateDelta(delta)
	back, err := fromStateDelta(wire)
	require.NoError(t, err)
	require.Equal(t, delta.Heartbeat, back.Heartbeat)
	require.Equal(t, delta.States, back.States)
}

func TestFromStateDeltaRejectsUnknownKey(t *testing.T) {
	wire := gossipv1.StateDelta{
		States: []gossipv1.StateEntry{{Key: 9999, Value: gossipv1.VersionedValue{Value: "x", Version: 1}}},
	}
	_, err := fromStateDelta(wire)
	require.Error(t, err)
}
