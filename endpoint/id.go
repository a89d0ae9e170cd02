// Package endpoint defines the canonical identity of a cluster member.
//
// An ID is deliberately inert: it carries no liveness, no application
// state, no pointer back into the gossip engine. Everything else in this
// module keys off ID and looks up mutable state (EndpointState, ring
// membership, failure-detector history) through maps, which is what
// keeps the gossip engine, the ring metadata, and the failure detector
// from needing to know about each other.
package endpoint

import (
	"bytes"
	"fmt"
	"net"
	"net/netip"
	"strconv"

	"github.com/google/uuid"
)

// ID identifies a cluster member. Equality is (HostID, all four
// addresses); Nil is the sentinel used before a peer's identity has been
// learned via gossip.
type ID struct {
	HostID          uuid.UUID
	Listen          netip.AddrPort
	Broadcast       netip.AddrPort
	Native          netip.AddrPort
	BroadcastNative netip.AddrPort
}

// Nil is the identity of a not-yet-learned endpoint.
var Nil = ID{}

// IsNil reports whether id is the sentinel unknown identity.
func (id ID) IsNil() bool {
	return id.HostID == uuid.Nil && !id.Broadcast.IsValid()
}

// NewAddrPort validates and constructs a netip.AddrPort from a raw IP
// string and integer port, rejecting ports outside [0, 65535] at
// construction as required by the boundary behavior in the spec.
func NewAddrPort(ip string, port int) (netip.AddrPort, error) {
	if port < 0 || port > 65535 {
		return netip.AddrPort{}, fmt.Errorf("endpoint: port %d out of range [0, 65535]", port)
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return netip.AddrPort{}, fmt.Errorf("endpoint: invalid address %q: %w", ip, err)
	}
	return netip.AddrPortFrom(addr, uint16(port)), nil
}

// New builds an ID. broadcastNative and native may be the zero value if
// the deployment does not advertise a separate native-protocol address.
func New(hostID uuid.UUID, listen, broadcast, native, broadcastNative netip.AddrPort) ID {
	return ID{
		HostID:          hostID,
		Listen:          listen,
		Broadcast:       broadcast,
		Native:          native,
		BroadcastNative: broadcastNative,
	}
}

// Equal implements the identity equality rule: host UUID plus all
// addresses must match.
func (id ID) Equal(other ID) bool {
	return id.HostID == other.HostID &&
		id.Listen == other.Listen &&
		id.Broadcast == other.Broadcast &&
		id.Native == other.Native &&
		id.BroadcastNative == other.BroadcastNative
}

// ParseSeedAddr builds a provisional ID for a seed named only by
// address, as cluster configuration does before gossip has learned its
// real host UUID. The zero UUID is a legitimate placeholder here, not
// the Nil sentinel: IsNil only trips when Broadcast is also unset.
func ParseSeedAddr(addr string) (ID, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return ID{}, fmt.Errorf("endpoint: invalid seed address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return ID{}, fmt.Errorf("endpoint: invalid seed port in %q: %w", addr, err)
	}
	ap, err := NewAddrPort(host, port)
	if err != nil {
		return ID{}, err
	}
	return New(uuid.Nil, ap, ap, ap, ap), nil
}

// Compare orders IDs lexicographically on the bytes of the broadcast
// address, then host UUID, then port, matching §3.
func Compare(a, b ID) int {
	aIP, bIP := a.Broadcast.Addr(), b.Broadcast.Addr()
	if c := bytes.Compare(aIP.AsSlice(), bIP.AsSlice()); c != 0 {
		return c
	}
	if c := bytes.Compare(a.HostID[:], b.HostID[:]); c != 0 {
		return c
	}
	return int(a.Broadcast.Port()) - int(b.Broadcast.Port())
}

// String renders a human-readable identity, primarily for logging.
func (id ID) String() string {
	if id.IsNil() {
		return "<unknown>"
	}
	return fmt.Sprintf("%s/%s", id.Broadcast, id.HostID)
}
