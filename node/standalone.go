package node

/*
Standalone assembles a full cluster member the way a real deployment
runs it, as opposed to Node above (an intentionally lighter node the
interactive TUI spins up many of per process). It is what cmd/start.go
drives when given a config file: config.Config selects the snitch and
replication strategy, peers.Store persists what gossip learns across
restarts, ring.Metadata and a Projector track cluster membership, and
management.Service exposes the operator-facing gRPC and websocket
surface alongside the gossip gRPC service.
*/

import (
	"context"
	"fmt"
	"net/netip"
	"sync"
	"time"

	"github.com/ringkeeper/gossipcore/appstate"
	"github.com/ringkeeper/gossipcore/config"
	"github.com/ringkeeper/gossipcore/endpoint"
	"github.com/ringkeeper/gossipcore/failuredetector"
	"github.com/ringkeeper/gossipcore/gossip"
	"github.com/ringkeeper/gossipcore/logger"
	"github.com/ringkeeper/gossipcore/management"
	"github.com/ringkeeper/gossipcore/partition"
	"github.com/ringkeeper/gossipcore/peers"
	"github.com/ringkeeper/gossipcore/replication"
	"github.com/ringkeeper/gossipcore/ring"
	"github.com/ringkeeper/gossipcore/snitch"
	"github.com/ringkeeper/gossipcore/streaming"
	"github.com/ringkeeper/gossipcore/transport"
)

// defaultKeyspace is the keyspace name pending-range recalculation
// tracks until the module grows real keyspace/schema management; the
// core's ring and streaming operations are keyspace-scoped, but this
// module manages exactly one.
const defaultKeyspace = "system"

// Standalone is one full cluster member: the gossip engine, the ring
// metadata view a Projector keeps synchronized with it, the persisted
// peers table, and the management surface, all driven by config.Config.
type Standalone struct {
	cfg      *config.Config
	local    endpoint.ID
	engine   *gossip.Engine
	client   *transport.GRPCTransport
	server   *transport.GRPC
	detector *failuredetector.Detector
	snitch   snitch.Snitch
	strategy replication.Strategy
	ring     *ring.Metadata
	peers    *peers.Store
	mgmt     *management.Service
	mgmtSrv  *management.Server

	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewStandalone builds a Standalone node from cfg. It does not start
// listening or gossiping; call Start for that.
func NewStandalone(cfg *config.Config) (*Standalone, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	store, err := peers.Open(cfg.PeersDBPath)
	if err != nil {
		return nil, err
	}
	hostID, err := store.GetLocalHostID()
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("loading local host id: %w", err)
	}

	listen, err := endpoint.NewAddrPort(cfg.ListenAddress, cfg.GossipPort)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("invalid listen_address: %w", err)
	}
	broadcast := listen
	if cfg.BroadcastAddress != "" && cfg.BroadcastAddress != cfg.ListenAddress {
		broadcast, err = endpoint.NewAddrPort(cfg.BroadcastAddress, cfg.GossipPort)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("invalid broadcast_address: %w", err)
		}
	}
	local := endpoint.New(hostID, listen, broadcast, netip.AddrPort{}, netip.AddrPort{})

	seeds := make([]endpoint.ID, 0, len(cfg.Seeds))
	for _, s := range cfg.Seeds {
		seed, err := endpoint.ParseSeedAddr(s)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("invalid seed %q: %w", s, err)
		}
		seeds = append(seeds, seed)
	}

	logf := func(format string, args ...interface{}) {
		logger.Printf("[%s] %s", cfg.ClusterName, fmt.Sprintf(format, args...))
	}

	var snt snitch.Snitch
	if cfg.EndpointSnitch == "property_file" {
		snt, err = snitch.LoadPropertyFileSnitch(cfg.TopologyFile)
		if err != nil {
			store.Close()
			return nil, err
		}
	} else {
		snt = snitch.SimpleSnitch{}
	}

	var strategy replication.Strategy
	if cfg.ReplicationStrategy == "network_topology" {
		strategy = replication.NetworkTopologyStrategy{Snitch: snt, ReplicasPerDC: cfg.ReplicasPerDC}
	} else {
		strategy = replication.SimpleStrategy{ReplicationFactor: cfg.ReplicationFactor}
	}

	partitioner := partition.Murmur3Partitioner{}
	client := transport.NewGRPCTransport(local, 5*time.Second, logf)
	detector := failuredetector.New(cfg.PhiConvictThreshold, cfg.FailureDetectorWindow, nil)

	engine, err := gossip.New(local, cfg.ClusterName, partitioner.Name(), seeds, client, detector, logf)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create gossip engine: %w", err)
	}
	snt.GossiperStarting()

	server, err := transport.NewGRPC(cfg.GossipAddress(), hostID.String())
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create gossip gRPC server: %w", err)
	}

	meta := ring.New(partitioner, logf)
	engine.Subscribe(ring.NewProjector(meta, engine.State, logf))
	engine.Subscribe(peers.NewSubscriber(store, engine.State, logf))

	mgmtService, hub, err := management.New(cfg.ManagementAddress(), cfg.EventsAddress(), logf)
	if err != nil {
		store.Close()
		return nil, err
	}
	engine.Subscribe(hub)
	mgmtSrv := management.NewServer(engine, meta, snt)

	// Seed the local endpoint's own ring entry and announce it: the
	// Projector only reacts to remote application-state changes, since
	// AddLocalApplicationState never notifies subscribers about the local
	// endpoint (§4.3's onChange path is peer-to-peer, not self-directed).
	token := partitioner.RandomToken()
	meta.UpdateNormalTokens(local, []partition.Token{token})
	meta.UpdateTopology(local, ring.Location{DC: cfg.Datacenter, Rack: cfg.Rack})
	engine.AddLocalApplicationState(appstate.Tokens, ring.EncodeTokens([]partition.Token{token}))
	engine.AddLocalApplicationState(appstate.DC, cfg.Datacenter)
	engine.AddLocalApplicationState(appstate.Rack, cfg.Rack)
	engine.SetLocalStatus("NORMAL")

	ctx, cancel := context.WithCancel(context.Background())

	return &Standalone{
		cfg:      cfg,
		local:    local,
		engine:   engine,
		client:   client,
		server:   server,
		detector: detector,
		snitch:   snt,
		strategy: strategy,
		ring:     meta,
		peers:    store,
		mgmt:     mgmtService,
		mgmtSrv:  mgmtSrv,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Start binds the gossip and management listeners, runs the shadow
// round if seeds are configured, then starts the gossip tick loop and
// the periodic pending-ranges recalculation (§4.3, §4.4).
func (n *Standalone) Start() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	serverErr := make(chan error, 1)
	go func() { serverErr <- n.server.Start(n.engine) }()
	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("failed to bind gossip gRPC server: %w", err)
		}
	case <-time.After(100 * time.Millisecond):
	}

	go func() {
		if err := n.mgmt.Start(n.ctx, n.mgmtSrv); err != nil && n.ctx.Err() == nil {
			n.logf("management service exited: %v", err)
		}
	}()

	if len(n.cfg.Seeds) > 0 {
		deltaMap, err := n.engine.ShadowRound(n.ctx, gossip.RingDelay)
		if err != nil {
			return fmt.Errorf("shadow round: %w", err)
		}
		if deltaMap != nil {
			n.engine.ApplyStates(deltaMap)
			n.logf("shadow round learned %d endpoint(s) before joining", len(deltaMap))
		}
	}

	n.engine.Start(n.ctx)
	go n.recalculatePendingRangesLoop()

	n.logf("standalone node started: gossip=%s management=%s", n.cfg.GossipAddress(), n.cfg.ManagementAddress())
	return nil
}

// recalculatePendingRangesLoop keeps the pending-ranges cache current
// while topology changes are in flight, at the same cadence as the
// gossip tick loop (§4.4, §5's "separate monitor" allows this to run
// without blocking readers). Whenever the local node has pending ranges
// of its own, it also plans who it would stream them from (§4.6) and
// logs the plan — this module has no wire format for an actual data
// transfer, so planning is as far as streaming goes here.
func (n *Standalone) recalculatePendingRangesLoop() {
	interval := n.cfg.GossipInterval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-n.ctx.Done():
			return
		case <-ticker.C:
			n.ring.RecalculatePendingRanges(defaultKeyspace, n.strategy)
			n.planStreaming()
		}
	}
}

// planStreaming builds a fetch plan for whatever ranges are pending
// for the local node, the way a bootstrapping or moving node would
// before actually streaming data (§4.6). It only plans and logs: this
// module implements the ring/streaming metadata machinery, not a data
// plane.
func (n *Standalone) planStreaming() {
	desired := n.ring.PendingRangesFor(defaultKeyspace, n.local)
	if len(desired) == 0 {
		return
	}

	sources, err := streaming.NonStrictSources(desired, n.strategy, n.snitch, n.ring, n.local)
	if err != nil {
		n.logf("streaming: could not compute sources for %d pending range(s): %v", len(desired), err)
		return
	}

	filters := []streaming.SourceFilter{
		streaming.ExcludeLocalNodeFilter{Local: n.local},
		streaming.FailureDetectorSourceFilter{IsAlive: n.engine.IsAlive},
	}
	fetchMap, err := streaming.SimpleFetchMap(sources, filters, n.local, n.cfg.ReplicationFactor, false, n.logf)
	if err != nil {
		n.logf("streaming: could not plan fetch for %d pending range(s): %v", len(desired), err)
		return
	}

	streaming.AssertPostconditions(fetchMap, sources, filters, n.local)
	n.logf("streaming: plan to fetch %d range(s) from %d source(s)", len(desired), len(fetchMap))
}

// Stop stops gossiping, the management surface, and the gRPC server,
// and closes the peers store.
func (n *Standalone) Stop() error {
	n.mu.Lock()
	n.cancel()
	n.mu.Unlock()

	n.logf("stopping standalone node...")
	n.engine.Stop()
	n.mgmt.Stop()
	n.server.Stop()
	n.client.Close()
	if err := n.peers.Close(); err != nil {
		n.logf("closing peers store: %v", err)
	}
	n.logf("standalone node stopped")
	return nil
}

// GetEngine returns the gossip engine (for external access).
func (n *Standalone) GetEngine() *gossip.Engine { return n.engine }

// GetRingMetadata returns the ring view the Projector keeps in sync
// with what gossip learns.
func (n *Standalone) GetRingMetadata() *ring.Metadata { return n.ring }

func (n *Standalone) logf(format string, args ...interface{}) {
	logger.Printf("[%s] %s", n.cfg.ClusterName, fmt.Sprintf(format, args...))
}
