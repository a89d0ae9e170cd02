// Package transport implements gossip.Transport over gRPC, using the
// hand-rolled wire types in api/gossip/v1 and a snappy compressor
// registered against grpc/encoding for the SYN/ACK/ACK2 legs.
package transport

import (
	"fmt"
	"net/netip"

	"github.com/google/uuid"

	gossipv1 "github.com/ringkeeper/gossipcore/api/gossip/v1"
	"github.com/ringkeeper/gossipcore/appstate"
	"github.com/ringkeeper/gossipcore/coreerr"
	"github.com/ringkeeper/gossipcore/endpoint"
	"github.com/ringkeeper/gossipcore/gossip"
)

func toEndpointRef(id endpoint.ID) *gossipv1.EndpointRef {
	return &gossipv1.EndpointRef{
		HostID:          id.HostID.String(),
		Listen:          addrPortString(id.Listen),
		Broadcast:       addrPortString(id.Broadcast),
		Native:          addrPortString(id.Native),
		BroadcastNative: addrPortString(id.BroadcastNative),
	}
}

func addrPortString(ap netip.AddrPort) string {
	if !ap.IsValid() {
		return ""
	}
	return ap.String()
}

func parseAddrPort(s string) (netip.AddrPort, error) {
	if s == "" {
		return netip.AddrPort{}, nil
	}
	return netip.ParseAddrPort(s)
}

func fromEndpointRef(ref *gossipv1.EndpointRef) (endpoint.ID, error) {
	if ref == nil {
		return endpoint.Nil, coreerr.New(coreerr.ProtocolError, "transport.fromEndpointRef", fmt.Errorf("nil endpoint reference"))
	}
	hostID, err := uuid.Parse(ref.HostID)
	if err != nil {
		return endpoint.Nil, coreerr.New(coreerr.ProtocolError, "transport.fromEndpointRef", fmt.Errorf("host id: %w", err))
	}
	listen, err := parseAddrPort(ref.Listen)
	if err != nil {
		return endpoint.Nil, coreerr.New(coreerr.ProtocolError, "transport.fromEndpointRef", fmt.Errorf("listen address: %w", err))
	}
	broadcast, err := parseAddrPort(ref.Broadcast)
	if err != nil {
		return endpoint.Nil, coreerr.New(coreerr.ProtocolError, "transport.fromEndpointRef", fmt.Errorf("broadcast address: %w", err))
	}
	native, err := parseAddrPort(ref.Native)
	if err != nil {
		return endpoint.Nil, coreerr.New(coreerr.ProtocolError, "transport.fromEndpointRef", fmt.Errorf("native address: %w", err))
	}
	broadcastNative, err := parseAddrPort(ref.BroadcastNative)
	if err != nil {
		return endpoint.Nil, coreerr.New(coreerr.ProtocolError, "transport.fromEndpointRef", fmt.Errorf("broadcast native address: %w", err))
	}
	return endpoint.New(hostID, listen, broadcast, native, broadcastNative), nil
}

func toDigest(d gossip.Digest) gossipv1.Digest {
	return gossipv1.Digest{Endpoint: toEndpointRef(d.Endpoint), Generation: d.Generation, MaxVersion: d.MaxVersion}
}

func fromDigest(d gossipv1.Digest) (gossip.Digest, error) {
	id, err := fromEndpointRef(d.Endpoint)
	if err != nil {
		return gossip.Digest{}, err
	}
	return gossip.Digest{Endpoint: id, Generation: d.Generation, MaxVersion: d.MaxVersion}, nil
}

func toStateDelta(d gossip.StateDelta) gossipv1.StateDelta {
	out := gossipv1.StateDelta{
		Heartbeat: gossipv1.Heartbeat{Generation: d.Heartbeat.Generation, Version: d.Heartbeat.Version},
		States:    make([]gossipv1.StateEntry, 0, len(d.States)),
	}
	for k, v := range d.States {
		out.States = append(out.States, gossipv1.StateEntry{
			Key:   int32(k),
			Value: gossipv1.VersionedValue{Value: v.Value, Version: v.Version},
		})
	}
	return out
}

func fromStateDelta(d gossipv1.StateDelta) (gossip.StateDelta, error) {
	states := make(map[appstate.Key]appstate.VersionedValue, len(d.States))
	for _, entry := range d.States {
		if !appstate.Valid(int(entry.Key)) {
			return gossip.StateDelta{}, coreerr.New(coreerr.ProtocolError, "transport.fromStateDelta", fmt.Errorf("unknown application state key ordinal %d", entry.Key))
		}
		states[appstate.Key(entry.Key)] = appstate.VersionedValue{Value: entry.Value.Value, Version: entry.Value.Version}
	}
	return gossip.StateDelta{
		Heartbeat: appstate.Heartbeat{Generation: d.Heartbeat.Generation, Version: d.Heartbeat.Version},
		States:    states,
	}, nil
}

func toDeltaMap(m map[endpoint.ID]gossip.StateDelta) []gossipv1.EndpointDelta {
	out := make([]gossipv1.EndpointDelta, 0, len(m))
	for id, d := range m {
		out = append(out, gossipv1.EndpointDelta{Endpoint: toEndpointRef(id), Delta: toStateDelta(d)})
	}
	return out
}

func fromDeltaMap(deltas []gossipv1.EndpointDelta) (map[endpoint.ID]gossip.StateDelta, error) {
	out := make(map[endpoint.ID]gossip.StateDelta, len(deltas))
	for _, ed := range deltas {
		id, err := fromEndpointRef(ed.Endpoint)
		if err != nil {
			return nil, err
		}
		delta, err := fromStateDelta(ed.Delta)
		if err != nil {
			return nil, err
		}
		out[id] = delta
	}
	return out, nil
}

func toDigestList(digests []gossip.Digest) []gossipv1.Digest {
	out := make([]gossipv1.Digest, len(digests))
	for i, d := range digests {
		out[i] = toDigest(d)
	}
	return out
}

func fromDigestList(digests []gossipv1.Digest) ([]gossip.Digest, error) {
	out := make([]gossip.Digest, len(digests))
	for i, d := range digests {
		gd, err := fromDigest(d)
		if err != nil {
			return nil, err
		}
		out[i] = gd
	}
	return out, nil
}
