package gossip

/*
The three-phase gossip exchange (§4.3):

	SYN  -> digest list (endpoint, generation, maxVersion), sender to peer
	ACK  -> requestList (what the peer is missing) + deltaMap (what the
	        peer is newer on), peer to sender
	ACK2 -> deltaMap' (states above the versions requestList asked for),
	        sender to peer

A round synchronizes both directions in two round trips: the SYN/ACK
leg tells each side what the other is missing, and the ACK2 leg
delivers it.
*/

import (
	"time"

	"github.com/ringkeeper/gossipcore/appstate"
	"github.com/ringkeeper/gossipcore/endpoint"
)

// RingDelay bounds how long topology-sensitive waits (shadow round,
// assassination) block before giving up or proceeding (§5, §8).
const RingDelay = 30 * time.Second

// QuarantineDelay is how long an endpoint that was removed, replaced,
// or assassinated is ignored before its identity can be reused (§4.3).
const QuarantineDelay = 2 * RingDelay

// FatClientTimeout is how long a non-ring endpoint's state is kept
// before being evicted as a stale "fat client" (§4.3).
const FatClientTimeout = QuarantineDelay / 2

// TickInterval is how often the gossip scheduler runs one round (§4.3).
const TickInterval = time.Second

// Digest is a compact per-endpoint summary exchanged in a SYN: just
// enough to tell each side who is ahead (§4.3).
type Digest struct {
	Endpoint   endpoint.ID
	Generation int64
	MaxVersion int32
}

// StateDelta is the payload carried in a deltaMap: a heartbeat plus
// whatever application states are newer than what the recipient
// already reported having.
type StateDelta struct {
	Heartbeat appstate.Heartbeat
	States    map[appstate.Key]appstate.VersionedValue
}

// Syn opens a gossip round. An empty Digests slice is a shadow-round
// request: "tell me everything you know" (§4.3, "Shadow round").
type Syn struct {
	ClusterName     string
	PartitionerName string
	Digests         []Digest
}

// Ack replies to a Syn with what the peer is missing (RequestList)
// and what the peer is newer on (DeltaMap).
type Ack struct {
	RequestList []Digest
	DeltaMap    map[endpoint.ID]StateDelta
}

// Ack2 closes the round, delivering the states RequestList asked for.
type Ack2 struct {
	DeltaMap map[endpoint.ID]StateDelta
}

// Transport is the wire collaborator the engine sends messages through.
// Implementations own connection management, serialization, and
// compression; the engine only calls these four methods (§6).
type Transport interface {
	SendSyn(peer endpoint.ID, syn Syn) (Ack, error)
	SendAck2(peer endpoint.ID, ack2 Ack2) error
	SendShutdown(peer endpoint.ID) error
	SendEcho(peer endpoint.ID) error
}

// Subscriber reacts to membership and application-state changes
// (§6, "Subscriber interface (collaborator)"). Implementations run
// synchronously on the caller's goroutine and must not block on
// cluster I/O.
type Subscriber interface {
	BeforeChange(e endpoint.ID, state *appstate.EndpointState, key appstate.Key, newValue appstate.VersionedValue)
	OnJoin(e endpoint.ID, state *appstate.EndpointState)
	OnAlive(e endpoint.ID, state *appstate.EndpointState)
	OnDead(e endpoint.ID, state *appstate.EndpointState)
	OnChange(e endpoint.ID, key appstate.Key, value appstate.VersionedValue)
	OnRemove(e endpoint.ID)
	OnRestart(e endpoint.ID, state *appstate.EndpointState)
}
