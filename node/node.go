package node

import (
	"context"
	"fmt"
	"net/netip"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ringkeeper/gossipcore/appstate"
	"github.com/ringkeeper/gossipcore/endpoint"
	"github.com/ringkeeper/gossipcore/failuredetector"
	"github.com/ringkeeper/gossipcore/gossip"
	"github.com/ringkeeper/gossipcore/logger"
	"github.com/ringkeeper/gossipcore/partition"
	"github.com/ringkeeper/gossipcore/ring"
	"github.com/ringkeeper/gossipcore/transport"
)

// Node is one in-process gossip participant managed by Manager: a
// gossip engine, its gRPC transport (both client-dialing and
// server-listening halves), a failure detector, and the ring metadata
// view a Projector keeps in sync with what gossip learns.
type Node struct {
	config      *Config
	local       endpoint.ID
	engine      *gossip.Engine
	client      *transport.GRPCTransport
	server      *transport.GRPC
	detector    *failuredetector.Detector
	partitioner partition.Partitioner
	ring        *ring.Metadata

	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.RWMutex
}

// New creates a new node with the given configuration. It does not
// start gossiping or listening; call Start for that.
func New(config *Config) (*Node, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	listen, err := endpoint.NewAddrPort(config.Address, atoiPort(config.Port))
	if err != nil {
		return nil, fmt.Errorf("invalid address: %w", err)
	}
	local := endpoint.New(uuid.New(), listen, listen, netip.AddrPort{}, netip.AddrPort{})

	seeds := make([]endpoint.ID, 0, len(config.Seeds))
	for _, s := range config.Seeds {
		seed, err := endpoint.ParseSeedAddr(s)
		if err != nil {
			return nil, fmt.Errorf("invalid seed %q: %w", s, err)
		}
		seeds = append(seeds, seed)
	}

	label := config.NodeLabel
	logf := func(format string, args ...interface{}) {
		logger.Printf("[%s] %s", label, fmt.Sprintf(format, args...))
	}

	client := transport.NewGRPCTransport(local, 5*time.Second, logf)
	detector := failuredetector.New(failuredetector.DefaultThreshold, failuredetector.DefaultWindowSize, nil)

	partitioner := partition.Murmur3Partitioner{}
	engine, err := gossip.New(local, config.ClusterName, partitioner.Name(), seeds, client, detector, logf)
	if err != nil {
		return nil, fmt.Errorf("failed to create gossip engine: %w", err)
	}

	server, err := transport.NewGRPC(config.GetAddress(), label)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC server: %w", err)
	}

	meta := ring.New(partitioner, logf)
	projector := ring.NewProjector(meta, engine.State, logf)
	engine.Subscribe(projector)

	// The Projector only learns about remote endpoints (AddLocalApplicationState
	// never notifies subscribers for the local endpoint), so the node's own
	// ring entry is seeded directly and then announced over gossip.
	token := partitioner.RandomToken()
	meta.UpdateNormalTokens(local, []partition.Token{token})
	engine.AddLocalApplicationState(appstate.Tokens, ring.EncodeTokens([]partition.Token{token}))
	engine.SetLocalStatus("NORMAL")

	ctx, cancel := context.WithCancel(context.Background())

	return &Node{
		config:      config,
		local:       local,
		engine:      engine,
		client:      client,
		server:      server,
		detector:    detector,
		partitioner: partitioner,
		ring:        meta,
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

func atoiPort(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return n
		}
		n = n*10 + int(r-'0')
	}
	return n
}

// Start starts the node's gRPC server and, unless ManualHeartbeat is
// set, its gossip tick loop.
func (n *Node) Start() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- n.server.Start(n.engine)
	}()
	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("failed to bind gRPC server: %w", err)
		}
	case <-time.After(100 * time.Millisecond):
		// Start blocks in Serve(); no error within the grace window
		// means the listener bound successfully.
	}

	if !n.config.ManualHeartbeat {
		if len(n.config.Seeds) > 0 {
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
	}

	n.logf("node %s started on %s", n.config.NodeLabel, n.config.GetAddress())
	return nil
}

// Stop stops the node gracefully.
func (n *Node) Stop() error {
	n.mu.Lock()
	label := n.config.NodeLabel
	n.cancel()
	n.mu.Unlock()

	n.logf("stopping node %s...", label)

	if !n.config.ManualHeartbeat {
		n.engine.Stop()
	}
	n.server.Stop()
	n.client.Close()

	n.logf("node %s stopped", label)
	return nil
}

// GetEngine returns the gossip engine (for external access).
func (n *Node) GetEngine() *gossip.Engine {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.engine
}

// GetConfig returns the node configuration (for external access).
func (n *Node) GetConfig() *Config {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.config
}

// GetRingMetadata returns the ring view the Projector keeps in sync
// with what gossip learns about the cluster.
func (n *Node) GetRingMetadata() *ring.Metadata {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.ring
}

// SendHeartbeat manually triggers one gossip round (only meaningful in
// manual heartbeat mode).
func (n *Node) SendHeartbeat() error {
	n.mu.RLock()
	manual := n.config.ManualHeartbeat
	n.mu.RUnlock()
	if !manual {
		return fmt.Errorf("node is not in manual heartbeat mode")
	}
	return n.engine.Tick()
}

func (n *Node) logf(format string, args ...interface{}) {
	logger.Printf("[%s] %s", n.config.NodeLabel, fmt.Sprintf(format, args...))
}
