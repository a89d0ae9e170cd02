package peers

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ringkeeper/gossipcore/endpoint"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGetLocalHostIDPersistsAcrossCalls(t *testing.T) {
	s := openTestStore(t)
	id1, err := s.GetLocalHostID()
	require.NoError(t, err)
	id2, err := s.GetLocalHostID()
	require.NoError(t, err)
	require.Equal(t, id1, id2)
}

func TestUpdatePeerThenLoadRoundTrips(t *testing.T) {
	s := openTestStore(t)
	listen, err := endpoint.NewAddrPort("10.0.0.5", 7000)
	require.NoError(t, err)
	id := endpoint.New(uuid.New(), listen, listen, listen, listen)

	rec := Record{
		Endpoint:       id,
		Datacenter:     "dc1",
		Rack:           "r1",
		ReleaseVersion: "1.0.0",
		Tokens:         []string{"10", "20"},
		UpdatedAt:      time.Now().Truncate(time.Second),
	}
	require.NoError(t, s.UpdatePeer(rec))

	loaded, err := s.LoadPeers()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.True(t, loaded[0].Endpoint.Equal(id))
	require.Equal(t, "dc1", loaded[0].Datacenter)
	require.Equal(t, []string{"10", "20"}, loaded[0].Tokens)
}

func TestUpdatePeerUpsertsExistingRow(t *testing.T) {
	s := openTestStore(t)
	listen, err := endpoint.NewAddrPort("10.0.0.6", 7000)
	require.NoError(t, err)
	id := endpoint.New(uuid.New(), listen, listen, listen, listen)

	require.NoError(t, s.UpdatePeer(Record{Endpoint: id, Datacenter: "dc1", UpdatedAt: time.Now()}))
	require.NoError(t, s.UpdatePeer(Record{Endpoint: id, Datacenter: "dc2", UpdatedAt: time.Now()}))

	loaded, err := s.LoadPeers()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Equal(t, "dc2", loaded[0].Datacenter)
}

func TestRemovePeerDeletesRow(t *testing.T) {
	s := openTestStore(t)
	listen, err := endpoint.NewAddrPort("10.0.0.7", 7000)
	require.NoError(t, err)
	id := endpoint.New(uuid.New(), listen, listen, listen, listen)

	require.NoError(t, s.UpdatePeer(Record{Endpoint: id, UpdatedAt: time.Now()}))
	require.NoError(t, s.RemovePeer(id.HostID))

	loaded, err := s.LoadPeers()
	require.NoError(t, err)
	require.Empty(t, loaded)
}
