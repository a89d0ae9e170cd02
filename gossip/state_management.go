package gossip

/*
State management and merging.

State merging is critical in gossip protocols because:
 1. Nodes exchange state information periodically
 2. States must be reconciled using version vectors (generation, version)
 3. Newer states override older ones
 4. Application states are merged per-key based on their individual versions

The authoritative merge rule (§4.3, "Apply-state rule"):

	no local record          -> insert, report to detector
	remote generation corrupt -> log, discard
	remote generation newer   -> handleMajorStateChange (wholesale replace)
	remote generation older   -> ignore
	equal generation          -> apply entries newer than local, per key
*/

import (
	"strings"
	"time"

	"github.com/ringkeeper/gossipcore/appstate"
	"github.com/ringkeeper/gossipcore/endpoint"
)

// ApplyStates runs the authoritative merge rule over every incoming
// (endpoint, delta) pair. Quarantined endpoints are skipped outright;
// corrupt generations are logged and discarded; everything else either
// inserts a brand-new record, blows away a stale generation
// (handleMajorStateChange), or layers in the newer application-state
// entries of an equal generation.
func (e *Engine) ApplyStates(deltaMap map[endpoint.ID]StateDelta) {
	now := time.Now()
	for id, delta := range deltaMap {
		e.applyOne(id, delta, now)
	}
}

func (e *Engine) applyOne(id endpoint.ID, delta StateDelta, now time.Time) {
	if id == e.local {
		return // never let a peer overwrite our own record
	}

	e.mu.Lock()
	if quarantinedAt, ok := e.justRemovedEndpoints[id]; ok {
		if now.Sub(quarantinedAt) < QuarantineDelay {
			e.mu.Unlock()
			return
		}
		delete(e.justRemovedEndpoints, id)
	}
	local, known := e.states[id]
	e.mu.Unlock()

	if delta.Heartbeat.IsCorrupt(now.Unix()) {
		e.logf("gossip: discarding state for %s: generation %d exceeds wall-clock skew bound", id, delta.Heartbeat.Generation)
		return
	}

	if !known {
		e.insertNew(id, delta, now)
		return
	}

	gL := local.Heartbeat().Generation
	gR := delta.Heartbeat.Generation

	switch {
	case gR > gL:
		e.handleMajorStateChange(id, local, delta, now)
	case gR < gL:
		// Stale generation, ignore.
	default:
		e.applySameGeneration(id, local, delta, now)
	}
}

func (e *Engine) insertNew(id endpoint.ID, delta StateDelta, now time.Time) {
	state := appstate.Restore(delta.Heartbeat, delta.States, false, now)

	e.mu.Lock()
	e.states[id] = state
	e.mu.Unlock()

	e.notifySubscribers(func(s Subscriber) { s.OnJoin(id, state) })
	e.detector.Report(id)
	go e.markAliveViaEcho(id)
}

// handleMajorStateChange replaces local's record wholesale because the
// peer's generation is strictly newer — i.e. it restarted, which
// invalidates every previously-known application state — then fires
// onChange for every entry the new state carries.
func (e *Engine) handleMajorStateChange(id endpoint.ID, local *appstate.EndpointState, delta StateDelta, now time.Time) {
	wasAlive := local.IsAlive()
	replacement := appstate.Restore(delta.Heartbeat, delta.States, wasAlive, now)

	e.mu.Lock()
	e.states[id] = replacement
	e.mu.Unlock()

	e.notifySubscribers(func(s Subscriber) { s.OnRestart(id, replacement) })
	for key, value := range delta.States {
		e.notifySubscribers(func(s Subscriber) { s.OnChange(id, key, value) })
	}
	e.markExpireIfLeft(id, delta.States, now)
	e.detector.Report(id)

	if !wasAlive {
		go e.markAliveViaEcho(id)
	}
}

// applySameGeneration layers in application-state entries newer than
// what local already has, per-key, and triggers mark-alive if the
// endpoint was unreachable.
func (e *Engine) applySameGeneration(id endpoint.ID, local *appstate.EndpointState, delta StateDelta, now time.Time) {
	applied := make(map[appstate.Key]appstate.VersionedValue)
	for key, incoming := range delta.States {
		cur, ok := local.GetApplicationState(key)
		if ok && incoming.Version <= cur.Version {
			continue
		}
		for _, s := range e.subscriberSnapshot() {
			s.BeforeChange(id, local, key, incoming)
		}
		applied[key] = incoming
	}

	local.UpdateHeartbeat(delta.Heartbeat)
	if len(applied) == 0 {
		e.detector.Report(id)
		if !local.IsAlive() {
			go e.markAliveViaEcho(id)
		}
		return
	}

	local.AddApplicationStates(applied)
	local.Touch(now)

	for key, value := range applied {
		e.notifySubscribers(func(s Subscriber) { s.OnChange(id, key, value) })
	}
	e.markExpireIfLeft(id, applied, now)
	e.detector.Report(id)

	if !local.IsAlive() {
		go e.markAliveViaEcho(id)
	}
}

func (e *Engine) subscriberSnapshot() []Subscriber {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Subscriber(nil), e.subscribers...)
}

func (e *Engine) notifySubscribers(f func(Subscriber)) {
	for _, s := range e.subscriberSnapshot() {
		f(s)
	}
}

// markExpireIfLeft sets id's expire time once it explicitly announces
// LEFT or REMOVED_TOKEN, mirroring the reference's computeExpireTime:
// an endpoint that is merely unreachable never gets an expire time and
// so is never evicted by doStatusCheck's ring-member path, only an
// endpoint that announced it is actually leaving does (§4.7).
func (e *Engine) markExpireIfLeft(id endpoint.ID, states map[appstate.Key]appstate.VersionedValue, now time.Time) {
	for _, key := range []appstate.Key{appstate.StatusWithPort, appstate.Status} {
		v, ok := states[key]
		if !ok {
			continue
		}
		if strings.HasPrefix(v.Value, "LEFT") || strings.HasPrefix(v.Value, "REMOVED_TOKEN") {
			e.mu.Lock()
			e.expireTime[id] = now.Add(RingDelay)
			e.mu.Unlock()
			return
		}
	}
}

// Quarantine records id as just-removed, so incoming gossip about it is
// ignored until QuarantineDelay elapses.
func (e *Engine) Quarantine(id endpoint.ID) {
	e.mu.Lock()
	e.justRemovedEndpoints[id] = time.Now()
	delete(e.states, id)
	delete(e.liveEndpoints, id)
	delete(e.unreachableEndpoints, id)
	delete(e.expireTime, id)
	e.mu.Unlock()

	e.detector.Remove(id)
	e.notifySubscribers(func(s Subscriber) { s.OnRemove(id) })
}

// Assassinate records a LEFT state for id at a generation past the
// locally-observed value, then quarantines id, which deletes that record
// again. The LEFT state is not sent to any peer; what other nodes and
// subscribers see is the quarantine (OnRemove).
func (e *Engine) Assassinate(id endpoint.ID, tokenHint string) {
	e.mu.Lock()
	local, known := e.states[id]
	e.mu.Unlock()

	gen := time.Now().Unix()
	if known {
		if g := local.Heartbeat().Generation; g >= gen {
			gen = g + 1
		}
	}

	leftState := appstate.Restore(
		appstate.Heartbeat{Generation: gen, Version: 9999},
		statusStates("LEFT:"+tokenHint, 9999),
		false,
		time.Now(),
	)

	e.mu.Lock()
	e.states[id] = leftState
	e.mu.Unlock()

	e.Quarantine(id)
}
