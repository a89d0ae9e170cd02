// Package management implements the operator-facing surface the core
// gossip/ring engine does not expose directly: seed list management,
// per-endpoint inspection, forced removal, and a live event stream.
// It is the rough equivalent of the original's JMX MBeans, reshaped as
// a small gRPC service plus a websocket push stream.
package management

import (
	"context"
	"fmt"

	managementv1 "github.com/ringkeeper/gossipcore/api/management/v1"
	"github.com/ringkeeper/gossipcore/appstate"
	"github.com/ringkeeper/gossipcore/endpoint"
	"github.com/ringkeeper/gossipcore/gossip"
	"github.com/ringkeeper/gossipcore/ring"
	"github.com/ringkeeper/gossipcore/snitch"
)

// Server implements managementv1.ManagementServiceServer against a
// running node's gossip engine, ring metadata, and snitch.
type Server struct {
	managementv1.UnimplementedManagementServiceServer

	engine *gossip.Engine
	meta   *ring.Metadata
	snitch snitch.Snitch
}

// NewServer wires a management server to the node's core collaborators.
func NewServer(engine *gossip.Engine, meta *ring.Metadata, sn snitch.Snitch) *Server {
	return &Server{engine: engine, meta: meta, snitch: sn}
}

func (s *Server) GetSeeds(ctx context.Context, _ *managementv1.Empty) (*managementv1.SeedList, error) {
	seeds := s.engine.Seeds()
	addrs := make([]string, 0, len(seeds))
	for _, id := range seeds {
		addrs = append(addrs, id.Listen.String())
	}
	return &managementv1.SeedList{Addresses: addrs}, nil
}

func (s *Server) ReloadSeeds(ctx context.Context, req *managementv1.SeedList) (*managementv1.Empty, error) {
	seeds := make([]endpoint.ID, 0, len(req.Addresses))
	for _, addr := range req.Addresses {
		id, err := endpoint.ParseSeedAddr(addr)
		if err != nil {
			return nil, err
		}
		seeds = append(seeds, id)
	}
	s.engine.SetSeeds(seeds)
	return &managementv1.Empty{}, nil
}

// findByAddress looks up the known endpoint whose listen or broadcast
// address renders as addr, since that's the only identity an operator
// typically has on hand.
func (s *Server) findByAddress(addr string) (endpoint.ID, bool) {
	for _, id := range s.meta.AllEndpoints() {
		if id.Listen.String() == addr || id.Broadcast.String() == addr {
			return id, true
		}
	}
	for _, id := range s.engine.AllKnownEndpoints() {
		if id.Listen.String() == addr || id.Broadcast.String() == addr {
			return id, true
		}
	}
	return endpoint.ID{}, false
}

func (s *Server) describe(id endpoint.ID) *managementv1.EndpointInfo {
	info := &managementv1.EndpointInfo{
		Address:    id.Listen.String(),
		Alive:      s.engine.IsAlive(id),
		Datacenter: s.snitch.Datacenter(id),
		Rack:       s.snitch.Rack(id),
	}
	if state, ok := s.engine.State(id); ok {
		info.Generation = state.Heartbeat().Generation
		if rv, ok := state.GetApplicationState(appstate.ReleaseVersion); ok {
			info.ReleaseVersion = rv.Value
		}
	}
	if downtime, down := s.engine.Downtime(id); down {
		info.DowntimeSeconds = downtime.Seconds()
	}
	return info
}

func (s *Server) GetEndpointInfo(ctx context.Context, req *managementv1.EndpointQuery) (*managementv1.EndpointInfo, error) {
	id, ok := s.findByAddress(req.Address)
	if !ok {
		return nil, fmt.Errorf("management: unknown endpoint %q", req.Address)
	}
	return s.describe(id), nil
}

func (s *Server) ListEndpoints(ctx context.Context, _ *managementv1.Empty) (*managementv1.EndpointList, error) {
	seen := make(map[endpoint.ID]struct{})
	var out []managementv1.EndpointInfo
	for _, id := range s.engine.AllKnownEndpoints() {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, *s.describe(id))
	}
	return &managementv1.EndpointList{Endpoints: out}, nil
}

func (s *Server) AssassinateEndpoint(ctx context.Context, req *managementv1.AssassinateRequest) (*managementv1.Empty, error) {
	id, ok := s.findByAddress(req.Address)
	if !ok {
		return nil, fmt.Errorf("management: unknown endpoint %q", req.Address)
	}
	s.engine.Assassinate(id, req.TokenHint)
	return &managementv1.Empty{}, nil
}

// UnsafeAssassinateEndpoint assassinates by address alone, even when
// gossip has never seen the endpoint, for clearing out a bad entry that
// otherwise can't be named by a known endpoint.ID.
func (s *Server) UnsafeAssassinateEndpoint(ctx context.Context, req *managementv1.AssassinateRequest) (*managementv1.Empty, error) {
	if id, ok := s.findByAddress(req.Address); ok {
		s.engine.Assassinate(id, req.TokenHint)
		return &managementv1.Empty{}, nil
	}
	seed, err := endpoint.ParseSeedAddr(req.Address)
	if err != nil {
		return nil, err
	}
	s.engine.Assassinate(seed, req.TokenHint)
	return &managementv1.Empty{}, nil
}
