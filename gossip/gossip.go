// Package gossip implements the anti-entropy membership protocol: a
// three-phase digest exchange (SYN/ACK/ACK2) that lets every node
// converge on the same view of every other node's application state,
// backed by a phi-accrual failure detector for liveness (§4.3).
//
// File organization:
//
//	gossip.go             - Engine struct, constructor, tick, wire handlers
//	types.go               - wire messages, Subscriber/Transport contracts
//	digest.go               - digest creation and three-phase comparison
//	state_management.go   - apply-state rule, major state change, quarantine
//	heartbeat_handler.go  - mark-alive echo protocol, status check, convict
package gossip

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/ringkeeper/gossipcore/appstate"
	"github.com/ringkeeper/gossipcore/coreerr"
	"github.com/ringkeeper/gossipcore/endpoint"
	"github.com/ringkeeper/gossipcore/failuredetector"
)

// Engine is the local node's gossip actor: it owns the authoritative
// map of every known endpoint's state, ticks a scheduled round, and
// answers wire requests from peers. All mutation goes through a single
// task lock, matching the reference implementation's one-actor-per-tick
// concurrency model (§5).
type Engine struct {
	mu sync.Mutex

	local           endpoint.ID
	clusterName     string
	partitionerName string

	states                map[endpoint.ID]*appstate.EndpointState
	liveEndpoints         map[endpoint.ID]struct{}
	unreachableEndpoints  map[endpoint.ID]time.Time // value: when it was marked dead
	justRemovedEndpoints  map[endpoint.ID]time.Time // value: when it was quarantined
	expireTime            map[endpoint.ID]time.Time // value: when a dead ring member may be evicted; absent means never
	seeds                 map[endpoint.ID]struct{}

	isRingMember func(endpoint.ID) bool // nil means every endpoint counts as a ring member

	subscribers []Subscriber
	detector    *failuredetector.Detector
	transport   Transport

	logf func(format string, args ...interface{})

	stop chan struct{}
	done chan struct{}
}

// New builds an Engine for local, seeded with its own heartbeat at
// generation = now (Unix seconds). detector should already exist;
// New subscribes the engine to it so failure-detector convictions
// drive markDead.
func New(local endpoint.ID, clusterName, partitionerName string, seeds []endpoint.ID, transport Transport, detector *failuredetector.Detector, logf func(string, ...interface{})) (*Engine, error) {
	if local.IsNil() {
		return nil, fmt.Errorf("gossip: local endpoint must be identified")
	}
	if clusterName == "" {
		return nil, fmt.Errorf("gossip: clusterName must be set")
	}
	if logf == nil {
		logf = func(string, ...interface{}) {}
	}

	e := &Engine{
		local:                local,
		clusterName:          clusterName,
		partitionerName:      partitionerName,
		states:               make(map[endpoint.ID]*appstate.EndpointState),
		liveEndpoints:        make(map[endpoint.ID]struct{}),
		unreachableEndpoints: make(map[endpoint.ID]time.Time),
		justRemovedEndpoints: make(map[endpoint.ID]time.Time),
		expireTime:           make(map[endpoint.ID]time.Time),
		seeds:                make(map[endpoint.ID]struct{}, len(seeds)),
		detector:             detector,
		transport:            transport,
		logf:                 logf,
		stop:                 make(chan struct{}),
		done:                 make(chan struct{}),
	}
	for _, s := range seeds {
		e.seeds[s] = struct{}{}
	}

	now := time.Now()
	local0 := appstate.New(appstate.Heartbeat{Generation: now.Unix(), Version: 0}, now)
	local0.AddApplicationStates(statusStates("hibernate", 1))
	e.states[local] = local0
	e.liveEndpoints[local] = struct{}{}

	if detector != nil {
		detector.Subscribe(e)
	}
	return e, nil
}

// Subscribe registers s for membership and state-change callbacks.
func (e *Engine) Subscribe(s Subscriber) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.subscribers = append(e.subscribers, s)
}

// SetRingMembership installs the predicate doStatusCheck uses to
// distinguish ring members from fat clients (§4.3). Defaults to
// treating every known endpoint as a ring member.
func (e *Engine) SetRingMembership(f func(endpoint.ID) bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.isRingMember = f
}

// Seeds returns the current seed list.
func (e *Engine) Seeds() []endpoint.ID {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]endpoint.ID, 0, len(e.seeds))
	for s := range e.seeds {
		out = append(out, s)
	}
	return out
}

// SetSeeds replaces the seed list wholesale, for operator-driven reload.
func (e *Engine) SetSeeds(seeds []endpoint.ID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seeds = make(map[endpoint.ID]struct{}, len(seeds))
	for _, s := range seeds {
		e.seeds[s] = struct{}{}
	}
}

// Downtime reports how long id has been continuously unreachable, if it
// is currently marked down.
func (e *Engine) Downtime(id endpoint.ID) (time.Duration, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	since, down := e.unreachableEndpoints[id]
	if !down {
		return 0, false
	}
	return time.Since(since), true
}

// AllKnownEndpoints returns every endpoint with a tracked state,
// including the local one.
func (e *Engine) AllKnownEndpoints() []endpoint.ID {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]endpoint.ID, 0, len(e.states))
	for id := range e.states {
		out = append(out, id)
	}
	return out
}

// LocalState returns the engine's own EndpointState.
func (e *Engine) LocalState() *appstate.EndpointState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.states[e.local]
}

// State returns the known state for id, if any.
func (e *Engine) State(id endpoint.ID) (*appstate.EndpointState, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.states[id]
	return s, ok
}

// AddLocalApplicationState publishes a new versioned value for key on
// the local endpoint, bumping the version past whatever it already
// holds for that key.
func (e *Engine) AddLocalApplicationState(key appstate.Key, value string) {
	e.mu.Lock()
	local := e.states[e.local]
	e.mu.Unlock()

	cur, _ := local.GetApplicationState(key)
	local.AddApplicationStates(map[appstate.Key]appstate.VersionedValue{
		key: {Value: value, Version: cur.Version + 1},
	})
}

// statusStates returns the STATUS/STATUS_WITH_PORT pair the writer side
// emits together: readers still keyed on the legacy STATUS-only field
// must keep seeing updates alongside STATUS_WITH_PORT (§9).
func statusStates(value string, version int32) map[appstate.Key]appstate.VersionedValue {
	return map[appstate.Key]appstate.VersionedValue{
		appstate.Status:         {Value: value, Version: version},
		appstate.StatusWithPort: {Value: value, Version: version},
	}
}

// SetLocalStatus publishes value to both the STATUS_WITH_PORT key and
// the legacy STATUS key, bumping past whatever version is already held.
func (e *Engine) SetLocalStatus(value string) {
	e.mu.Lock()
	local := e.states[e.local]
	e.mu.Unlock()

	cur, _ := local.GetApplicationState(appstate.StatusWithPort)
	local.AddApplicationStates(statusStates(value, cur.Version+1))
}

// IsAlive reports the locally-derived liveness of id.
func (e *Engine) IsAlive(id endpoint.ID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if id == e.local {
		return true
	}
	_, live := e.liveEndpoints[id]
	return live
}

// Start launches the tick loop on a new goroutine; Stop halts it.
func (e *Engine) Start(ctx context.Context) {
	go e.loop(ctx)
}

func (e *Engine) loop(ctx context.Context) {
	defer close(e.done)
	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.stop:
			return
		case <-ticker.C:
			if err := e.Tick(); err != nil {
				// Background gossip tick swallows exceptions so one bad
				// peer cannot wedge the tick (§7, "Propagation policy").
				e.logf("gossip: tick error: %v", err)
			}
		}
	}
}

// Stop halts the tick loop and waits for it to exit.
func (e *Engine) Stop() {
	close(e.stop)
	<-e.done
}

// Tick runs one gossip round: bump the local heartbeat, pick peers per
// §4.3 step 4, exchange SYN/ACK/ACK2 with each, then run the status
// check.
func (e *Engine) Tick() error {
	e.bumpLocalHeartbeat()

	digests := e.CreateDigests()
	syn := Syn{ClusterName: e.clusterName, PartitionerName: e.partitionerName, Digests: digests}

	for _, peer := range e.selectGossipPeers() {
		if err := e.gossipWith(peer, syn); err != nil {
			e.logf("gossip: round with %s failed: %v", peer, err)
		}
	}

	e.doStatusCheck()
	return nil
}

func (e *Engine) bumpLocalHeartbeat() {
	local := e.LocalState()
	hb := local.Heartbeat()
	local.UpdateHeartbeat(appstate.Heartbeat{Generation: hb.Generation, Version: hb.Version + 1})
}

// selectGossipPeers implements §4.3 step 4's peer-selection rules.
func (e *Engine) selectGossipPeers() []endpoint.ID {
	e.mu.Lock()
	live := make([]endpoint.ID, 0, len(e.liveEndpoints))
	for id := range e.liveEndpoints {
		if id != e.local {
			live = append(live, id)
		}
	}
	unreachable := make([]endpoint.ID, 0, len(e.unreachableEndpoints))
	for id := range e.unreachableEndpoints {
		unreachable = append(unreachable, id)
	}
	seeds := make([]endpoint.ID, 0, len(e.seeds))
	for id := range e.seeds {
		if id != e.local {
			seeds = append(seeds, id)
		}
	}
	e.mu.Unlock()

	var peers []endpoint.ID
	sentToSeed := false

	if len(live) > 0 {
		pick := live[rand.Intn(len(live))]
		peers = append(peers, pick)
		if _, isSeed := e.seedSet()[pick]; isSeed {
			sentToSeed = true
		}
	}

	if len(unreachable) > 0 {
		p := float64(len(unreachable)) / float64(len(live)+1)
		if rand.Float64() < p {
			peers = append(peers, unreachable[rand.Intn(len(unreachable))])
		}
	}

	if len(seeds) > 0 && (!sentToSeed || len(live) < len(seeds)) {
		denom := len(live) + len(unreachable)
		if denom == 0 || rand.Float64() < float64(len(seeds))/float64(denom+1) {
			peers = append(peers, seeds[rand.Intn(len(seeds))])
		}
	}

	return peers
}

func (e *Engine) seedSet() map[endpoint.ID]struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.seeds
}

// gossipWith runs the SYN/ACK/ACK2 round trip against one peer.
func (e *Engine) gossipWith(peer endpoint.ID, syn Syn) error {
	ack, err := e.transport.SendSyn(peer, syn)
	if err != nil {
		return fmt.Errorf("sending syn to %s: %w", peer, err)
	}
	e.ApplyStates(ack.DeltaMap)

	ack2 := e.buildAck2(ack.RequestList)
	if err := e.transport.SendAck2(peer, ack2); err != nil {
		return fmt.Errorf("sending ack2 to %s: %w", peer, err)
	}
	return nil
}

func (e *Engine) buildAck2(requestList []Digest) Ack2 {
	e.mu.Lock()
	defer e.mu.Unlock()
	deltaMap := make(map[endpoint.ID]StateDelta, len(requestList))
	for _, req := range requestList {
		local, ok := e.states[req.Endpoint]
		if !ok {
			continue
		}
		deltaMap[req.Endpoint] = buildDelta(local, req.MaxVersion)
	}
	return Ack2{DeltaMap: deltaMap}
}

// HandleSyn answers an incoming SYN from a peer: an empty digest list
// is a shadow-round request, answered with every known state as a
// full-generosity deltaMap so the joining node can bootstrap (§4.3).
func (e *Engine) HandleSyn(syn Syn) (Ack, error) {
	if syn.ClusterName != e.clusterName {
		return Ack{}, coreerr.New(coreerr.ProtocolError, "gossip.HandleSyn", fmt.Errorf("cluster name mismatch: got %q, want %q", syn.ClusterName, e.clusterName))
	}

	if len(syn.Digests) == 0 {
		e.mu.Lock()
		deltaMap := make(map[endpoint.ID]StateDelta, len(e.states))
		for id, s := range e.states {
			deltaMap[id] = buildDelta(s, -1)
		}
		e.mu.Unlock()
		return Ack{DeltaMap: deltaMap}, nil
	}

	requestList, deltaMap := e.CompareDigests(syn.Digests)
	return Ack{RequestList: requestList, DeltaMap: deltaMap}, nil
}

// HandleAck2 applies the final leg of a round.
func (e *Engine) HandleAck2(ack2 Ack2) {
	e.ApplyStates(ack2.DeltaMap)
}

// HandleShutdownNotice marks sender dead immediately: it announced its
// own shutdown, so there is no reason to wait for phi to cross the
// conviction threshold.
func (e *Engine) HandleShutdownNotice(sender endpoint.ID) {
	e.mu.Lock()
	_, known := e.states[sender]
	e.mu.Unlock()
	if !known {
		return
	}
	e.markDead(sender)
}

// ShadowRound learns the cluster's existing state without joining it:
// an empty SYN goes to every seed other than this node, and the round
// exits as soon as any seed answers with a non-empty deltaMap. Exceeding
// budget fails fatally unless this node is itself a seed (§4.3).
func (e *Engine) ShadowRound(ctx context.Context, budget time.Duration) (map[endpoint.ID]StateDelta, error) {
	e.mu.Lock()
	seeds := make([]endpoint.ID, 0, len(e.seeds))
	for s := range e.seeds {
		if s != e.local {
			seeds = append(seeds, s)
		}
	}
	_, selfIsSeed := e.seeds[e.local]
	e.mu.Unlock()

	if len(seeds) == 0 {
		if selfIsSeed {
			return nil, nil
		}
		return nil, coreerr.New(coreerr.ShadowRoundFailed, "gossip.ShadowRound", fmt.Errorf("no seeds configured"))
	}

	empty := Syn{ClusterName: e.clusterName, PartitionerName: e.partitionerName}
	result := make(chan map[endpoint.ID]StateDelta, len(seeds))

	for _, s := range seeds {
		go func(seed endpoint.ID) {
			ack, err := e.transport.SendSyn(seed, empty)
			if err != nil || len(ack.DeltaMap) == 0 {
				return
			}
			select {
			case result <- ack.DeltaMap:
			default:
			}
		}(s)
	}

	select {
	case dm := <-result:
		return dm, nil
	case <-time.After(budget):
		if selfIsSeed {
			return nil, nil
		}
		return nil, coreerr.New(coreerr.ShadowRoundFailed, "gossip.ShadowRound", fmt.Errorf("no seed replied within %s", budget))
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Shutdown announces SHUTDOWN, notifies every live peer, sleeps a grace
// period, then stops the tick loop (§5, "Cancellation and timeouts").
func (e *Engine) Shutdown(ctx context.Context, grace time.Duration) {
	e.SetLocalStatus("shutdown")
	e.detector.ForceConviction(e.local)

	e.mu.Lock()
	live := make([]endpoint.ID, 0, len(e.liveEndpoints))
	for id := range e.liveEndpoints {
		if id != e.local {
			live = append(live, id)
		}
	}
	e.mu.Unlock()

	for _, id := range live {
		if err := e.transport.SendShutdown(id); err != nil {
			e.logf("gossip: shutdown notice to %s failed: %v", id, err)
		}
	}

	select {
	case <-time.After(grace):
	case <-ctx.Done():
	}
	e.Stop()
}
