package management

import (
	"context"
	"net/netip"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	managementv1 "github.com/ringkeeper/gossipcore/api/management/v1"
	"github.com/ringkeeper/gossipcore/appstate"
	"github.com/ringkeeper/gossipcore/endpoint"
	"github.com/ringkeeper/gossipcore/failuredetector"
	"github.com/ringkeeper/gossipcore/gossip"
	"github.com/ringkeeper/gossipcore/partition"
	"github.com/ringkeeper/gossipcore/ring"
	"github.com/ringkeeper/gossipcore/snitch"
)

func mkID(t *testing.T, port int) endpoint.ID {
	t.Helper()
	ap, err := endpoint.NewAddrPort("127.0.0.1", port)
	require.NoError(t, err)
	return endpoint.New(uuid.New(), ap, ap, netip.AddrPort{}, netip.AddrPort{})
}

type nopTransport struct{}

func (nopTransport) SendSyn(endpoint.ID, gossip.Syn) (gossip.Ack, error) { return gossip.Ack{}, nil }
func (nopTransport) SendAck2(endpoint.ID, gossip.Ack2) error             { return nil }
func (nopTransport) SendShutdown(endpoint.ID) error                     { return nil }
func (nopTransport) SendEcho(endpoint.ID) error                         { return nil }

func newTestServer(t *testing.T) (*Server, *gossip.Engine, endpoint.ID) {
	t.Helper()
	local := mkID(t, 9000)
	det := failuredetector.New(failuredetector.DefaultThreshold, failuredetector.DefaultWindowSize, nil)
	eng, err := gossip.New(local, "test-cluster", "murmur3", nil, nopTransport{}, det, nil)
	require.NoError(t, err)

	meta := ring.New(partition.Murmur3Partitioner{}, nil)
	srv := NewServer(eng, meta, snitch.SimpleSnitch{})
	return srv, eng, local
}

func TestGetSeedsReflectsEngineSeeds(t *testing.T) {
	srv, eng, _ := newTestServer(t)
	seed := mkID(t, 9001)
	eng.SetSeeds([]endpoint.ID{seed})

	list, err := srv.GetSeeds(context.Background(), &managementv1.Empty{})
	require.NoError(t, err)
	require.Equal(t, []string{seed.Listen.String()}, list.Addresses)
}

func TestReloadSeedsReplacesSeedList(t *testing.T) {
	srv, eng, _ := newTestServer(t)
	newSeed := "127.0.0.1:9005"

	_, err := srv.ReloadSeeds(context.Background(), &managementv1.SeedList{Addresses: []string{newSeed}})
	require.NoError(t, err)

	seeds := eng.Seeds()
	require.Len(t, seeds, 1)
	require.Equal(t, newSeed, seeds[0].Listen.String())
}

func TestGetEndpointInfoReturnsLocalState(t *testing.T) {
	srv, _, local := newTestServer(t)

	info, err := srv.GetEndpointInfo(context.Background(), &managementv1.EndpointQuery{Address: local.Listen.String()})
	require.NoError(t, err)
	require.True(t, info.Alive)
	require.Equal(t, "datacenter1", info.Datacenter)
}

func TestGetEndpointInfoRejectsUnknownAddress(t *testing.T) {
	srv, _, _ := newTestServer(t)
	_, err := srv.GetEndpointInfo(context.Background(), &managementv1.EndpointQuery{Address: "10.0.0.9:1"})
	require.Error(t, err)
}

func TestAssassinateEndpointQuarantinesKnownEndpoint(t *testing.T) {
	srv, eng, _ := newTestServer(t)
	peer := mkID(t, 9002)

	// Insert peer into gossip state via a self-addressed delta map.
	eng.ApplyStates(map[endpoint.ID]gossip.StateDelta{
		peer: {Heartbeat: appstate.Heartbeat{Generation: 1}},
	})
	_, ok := eng.State(peer)
	require.True(t, ok)

	_, err := srv.AssassinateEndpoint(context.Background(), &managementv1.AssassinateRequest{Address: peer.Listen.String(), TokenHint: "42"})
	require.NoError(t, err)

	_, stillKnown := eng.State(peer)
	require.False(t, stillKnown)
}
