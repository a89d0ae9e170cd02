package gossip

import (
	"context"
	"net/netip"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ringkeeper/gossipcore/appstate"
	"github.com/ringkeeper/gossipcore/coreerr"
	"github.com/ringkeeper/gossipcore/endpoint"
	"github.com/ringkeeper/gossipcore/failuredetector"
)

func mkID(t *testing.T, port int) endpoint.ID {
	t.Helper()
	ap, err := endpoint.NewAddrPort("127.0.0.1", port)
	require.NoError(t, err)
	return endpoint.New(uuid.New(), ap, ap, netip.AddrPort{}, netip.AddrPort{})
}

// meshTransport routes SendSyn/SendAck2/SendEcho/SendShutdown directly
// to the addressed engine's handlers, simulating a reliable network
// between in-process engines.
type meshTransport struct {
	mu      sync.Mutex
	engines map[endpoint.ID]*Engine
	down    map[endpoint.ID]bool
}

func newMeshTransport() *meshTransport {
	return &meshTransport{engines: make(map[endpoint.ID]*Engine), down: make(map[endpoint.ID]bool)}
}

func (m *meshTransport) register(id endpoint.ID, e *Engine) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.engines[id] = e
}

func (m *meshTransport) setDown(id endpoint.ID, down bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.down[id] = down
}

func (m *meshTransport) isDown(id endpoint.ID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.down[id]
}

func (m *meshTransport) engine(id endpoint.ID) *Engine {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.engines[id]
}

func (m *meshTransport) SendSyn(peer endpoint.ID, syn Syn) (Ack, error) {
	if m.isDown(peer) {
		return Ack{}, coreerr.New(coreerr.ProtocolError, "mesh.SendSyn", context.DeadlineExceeded)
	}
	e := m.engine(peer)
	if e == nil {
		return Ack{}, coreerr.New(coreerr.ProtocolError, "mesh.SendSyn", context.DeadlineExceeded)
	}
	return e.HandleSyn(syn)
}

func (m *meshTransport) SendAck2(peer endpoint.ID, ack2 Ack2) error {
	if m.isDown(peer) {
		return coreerr.New(coreerr.ProtocolError, "mesh.SendAck2", context.DeadlineExceeded)
	}
	e := m.engine(peer)
	if e == nil {
		return coreerr.New(coreerr.ProtocolError, "mesh.SendAck2", context.DeadlineExceeded)
	}
	e.HandleAck2(ack2)
	return nil
}

func (m *meshTransport) SendShutdown(peer endpoint.ID) error { return nil }

func (m *meshTransport) SendEcho(peer endpoint.ID) error {
	if m.isDown(peer) {
		return coreerr.New(coreerr.ProtocolError, "mesh.SendEcho", context.DeadlineExceeded)
	}
	if m.engine(peer) == nil {
		return coreerr.New(coreerr.ProtocolError, "mesh.SendEcho", context.DeadlineExceeded)
	}
	return nil
}

func newTestEngine(t *testing.T, id endpoint.ID, seeds []endpoint.ID, transport Transport) *Engine {
	t.Helper()
	det := failuredetector.New(failuredetector.DefaultThreshold, failuredetector.DefaultWindowSize, nil)
	e, err := New(id, "test-cluster", "test-partitioner", seeds, transport, det, nil)
	require.NoError(t, err)
	return e
}

func TestThreeNodeConvergence(t *testing.T) {
	a, b, c := mkID(t, 7001), mkID(t, 7002), mkID(t, 7003)
	mesh := newMeshTransport()

	ea := newTestEngine(t, a, []endpoint.ID{a}, mesh)
	eb := newTestEngine(t, b, []endpoint.ID{a}, mesh)
	ec := newTestEngine(t, c, []endpoint.ID{a}, mesh)
	mesh.register(a, ea)
	mesh.register(b, eb)
	mesh.register(c, ec)

	ea.AddLocalApplicationState(appstate.DC, "dc1")
	eb.AddLocalApplicationState(appstate.DC, "dc1")
	ec.AddLocalApplicationState(appstate.DC, "dc1")

	// b and c each gossip with seed a first, learning of each other
	// only through a's relayed state.
	require.NoError(t, eb.Tick())
	require.NoError(t, ec.Tick())

	// Now run enough rounds that full information propagates: a learns
	// about b and c, and subsequent rounds relay that onward.
	for i := 0; i < 5; i++ {
		require.NoError(t, ea.Tick())
		require.NoError(t, eb.Tick())
		require.NoError(t, ec.Tick())
	}

	_, ok := ea.State(b)
	require.True(t, ok, "a should know about b")
	_, ok = ea.State(c)
	require.True(t, ok, "a should know about c")
	_, ok = eb.State(c)
	require.True(t, ok, "b should know about c via a")
	_, ok = ec.State(b)
	require.True(t, ok, "c should know about b via a")
}

func TestApplyStatesInsertsUnknownEndpoint(t *testing.T) {
	local := mkID(t, 7010)
	remote := mkID(t, 7011)
	mesh := newMeshTransport()
	e := newTestEngine(t, local, nil, mesh)
	mesh.register(local, e)
	mesh.register(remote, newTestEngine(t, remote, nil, mesh))

	now := time.Now()
	delta := StateDelta{
		Heartbeat: appstate.Heartbeat{Generation: now.Unix(), Version: 1},
		States:    map[appstate.Key]appstate.VersionedValue{appstate.DC: {Value: "dc1", Version: 1}},
	}
	e.ApplyStates(map[endpoint.ID]StateDelta{remote: delta})

	state, ok := e.State(remote)
	require.True(t, ok)
	v, ok := state.GetApplicationState(appstate.DC)
	require.True(t, ok)
	require.Equal(t, "dc1", v.Value)
}

func TestApplyStatesIgnoresStaleGeneration(t *testing.T) {
	local := mkID(t, 7020)
	remote := mkID(t, 7021)
	mesh := newMeshTransport()
	e := newTestEngine(t, local, nil, mesh)
	mesh.register(local, e)

	now := time.Now()
	e.ApplyStates(map[endpoint.ID]StateDelta{
		remote: {Heartbeat: appstate.Heartbeat{Generation: now.Unix(), Version: 5}},
	})
	gen1, _ := e.State(remote)
	require.Equal(t, now.Unix(), gen1.Heartbeat().Generation)

	e.ApplyStates(map[endpoint.ID]StateDelta{
		remote: {Heartbeat: appstate.Heartbeat{Generation: now.Unix() - 1000, Version: 99}},
	})
	gen2, _ := e.State(remote)
	require.Equal(t, now.Unix(), gen2.Heartbeat().Generation, "stale generation must not overwrite")
}

func TestApplyStatesDiscardsCorruptGeneration(t *testing.T) {
	local := mkID(t, 7030)
	remote := mkID(t, 7031)
	mesh := newMeshTransport()
	e := newTestEngine(t, local, nil, mesh)
	mesh.register(local, e)

	farFuture := time.Now().Unix() + appstate.MaxSkew*2
	e.ApplyStates(map[endpoint.ID]StateDelta{
		remote: {Heartbeat: appstate.Heartbeat{Generation: farFuture, Version: 1}},
	})
	_, known := e.State(remote)
	require.False(t, known, "corrupt generation must be discarded, not inserted")
}

func TestApplyStatesMajorStateChangeReplacesRecord(t *testing.T) {
	local := mkID(t, 7040)
	remote := mkID(t, 7041)
	mesh := newMeshTransport()
	e := newTestEngine(t, local, nil, mesh)
	mesh.register(local, e)

	now := time.Now()
	e.ApplyStates(map[endpoint.ID]StateDelta{
		remote: {
			Heartbeat: appstate.Heartbeat{Generation: now.Unix(), Version: 1},
			States:    map[appstate.Key]appstate.VersionedValue{appstate.DC: {Value: "dc1", Version: 1}},
		},
	})

	e.ApplyStates(map[endpoint.ID]StateDelta{
		remote: {
			Heartbeat: appstate.Heartbeat{Generation: now.Unix() + 100, Version: 0},
			States:    map[appstate.Key]appstate.VersionedValue{appstate.DC: {Value: "dc2", Version: 1}},
		},
	})

	state, _ := e.State(remote)
	require.Equal(t, now.Unix()+100, state.Heartbeat().Generation)
	v, _ := state.GetApplicationState(appstate.DC)
	require.Equal(t, "dc2", v.Value, "new generation must wholesale replace prior application states")
}

func TestQuarantineBlocksReinsertionUntilExpiry(t *testing.T) {
	local := mkID(t, 7050)
	remote := mkID(t, 7051)
	mesh := newMeshTransport()
	e := newTestEngine(t, local, nil, mesh)
	mesh.register(local, e)

	now := time.Now()
	e.ApplyStates(map[endpoint.ID]StateDelta{
		remote: {Heartbeat: appstate.Heartbeat{Generation: now.Unix(), Version: 1}},
	})
	e.Quarantine(remote)
	_, known := e.State(remote)
	require.False(t, known)

	e.ApplyStates(map[endpoint.ID]StateDelta{
		remote: {Heartbeat: appstate.Heartbeat{Generation: now.Unix() + 1, Version: 1}},
	})
	_, known = e.State(remote)
	require.False(t, known, "quarantined endpoint must stay hidden until QuarantineDelay elapses")
}

func TestMarkAliveViaEchoRequiresSuccessfulEcho(t *testing.T) {
	local := mkID(t, 7060)
	remote := mkID(t, 7061)
	mesh := newMeshTransport()
	e := newTestEngine(t, local, nil, mesh)
	mesh.register(local, e)
	mesh.register(remote, newTestEngine(t, remote, nil, mesh))
	mesh.setDown(remote, true)

	now := time.Now()
	e.ApplyStates(map[endpoint.ID]StateDelta{
		remote: {Heartbeat: appstate.Heartbeat{Generation: now.Unix(), Version: 1}},
	})
	time.Sleep(10 * time.Millisecond) // let the async echo attempt finish
	require.False(t, e.IsAlive(remote), "echo to a down peer must not mark it alive")

	mesh.setDown(remote, false)
	e.markAliveViaEcho(remote)
	require.True(t, e.IsAlive(remote))
}

func TestShadowRoundFailsFastWithNoSeeds(t *testing.T) {
	local := mkID(t, 7070)
	mesh := newMeshTransport()
	e := newTestEngine(t, local, nil, mesh)
	mesh.register(local, e)

	_, err := e.ShadowRound(context.Background(), 10*time.Millisecond)
	require.ErrorIs(t, err, coreerr.Sentinel(coreerr.ShadowRoundFailed))
}

func TestShadowRoundSucceedsWhenSelfIsSeed(t *testing.T) {
	local := mkID(t, 7080)
	mesh := newMeshTransport()
	e := newTestEngine(t, local, []endpoint.ID{local}, mesh)
	mesh.register(local, e)

	dm, err := e.ShadowRound(context.Background(), 10*time.Millisecond)
	require.NoError(t, err)
	require.Nil(t, dm)
}

func TestAssassinateQuarantinesEndpoint(t *testing.T) {
	local := mkID(t, 7090)
	remote := mkID(t, 7091)
	mesh := newMeshTransport()
	e := newTestEngine(t, local, nil, mesh)
	mesh.register(local, e)

	now := time.Now()
	e.ApplyStates(map[endpoint.ID]StateDelta{
		remote: {Heartbeat: appstate.Heartbeat{Generation: now.Unix(), Version: 1}},
	})

	e.Assassinate(remote, "42")
	_, known := e.State(remote)
	require.False(t, known, "assassination quarantines the endpoint immediately")
}
