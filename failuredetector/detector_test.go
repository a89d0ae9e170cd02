package failuredetector

import (
	"net/netip"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ringkeeper/gossipcore/endpoint"
)

type recordingListener struct {
	mu        sync.Mutex
	convicted []endpoint.ID
}

func (r *recordingListener) Convict(e endpoint.ID, phi float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.convicted = append(r.convicted, e)
}

func (r *recordingListener) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.convicted)
}

func mustEndpoint(t *testing.T, port int) endpoint.ID {
	t.Helper()
	addr, err := endpoint.NewAddrPort("10.0.0.5", port)
	require.NoError(t, err)
	return endpoint.New(uuid.New(), addr, addr, netip.AddrPort{}, netip.AddrPort{})
}

func TestConvictsOnceWhenHeartbeatsStop(t *testing.T) {
	clock := time.Unix(1_700_000_000, 0)
	now := func() time.Time { return clock }

	d := New(DefaultThreshold, DefaultWindowSize, now)
	l := &recordingListener{}
	d.Subscribe(l)

	peer := mustEndpoint(t, 7000)

	// 60 regular heartbeats, 1s apart.
	for i := 0; i < 60; i++ {
		d.Report(peer)
		clock = clock.Add(time.Second)
		d.Interpret(peer)
	}
	require.Equal(t, 0, l.count(), "regular heartbeats must not trip a conviction")

	// Heartbeats stop; phi rises as elapsed time grows far past the mean.
	for i := 0; i < 20; i++ {
		clock = clock.Add(time.Second)
		d.Interpret(peer)
	}
	require.Equal(t, 1, l.count(), "phi crossing the threshold must convict exactly once")

	// Further interpretation without a fresh Report must not re-convict.
	clock = clock.Add(5 * time.Second)
	d.Interpret(peer)
	require.Equal(t, 1, l.count())

	// A fresh heartbeat clears the conviction state so a later silence
	// can convict again.
	d.Report(peer)
	clock = clock.Add(30 * time.Second)
	d.Interpret(peer)
	require.Equal(t, 2, l.count())
}

func TestForceConvictionIgnoresPhi(t *testing.T) {
	d := New(DefaultThreshold, DefaultWindowSize, nil)
	l := &recordingListener{}
	d.Subscribe(l)

	peer := mustEndpoint(t, 7001)
	d.ForceConviction(peer)
	require.Equal(t, 1, l.count())
}

func TestRemoveDiscardsHistory(t *testing.T) {
	d := New(DefaultThreshold, DefaultWindowSize, nil)
	peer := mustEndpoint(t, 7002)
	d.Report(peer)
	d.Remove(peer)
	require.Equal(t, float64(0), d.Interpret(peer), "no history means no suspicion")
}
