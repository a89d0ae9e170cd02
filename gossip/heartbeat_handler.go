package gossip

/*
Mark-alive echo protocol, periodic status check, and failure-detector
convictions.

An endpoint is never promoted straight from "unreachable/unknown" to
"alive" on the strength of gossip state alone: gossip can relay a
peer's belief about a third node long after that node actually went
away. Before firing OnAlive, the engine demands a direct ECHO round
trip with the endpoint itself (§4.3, "Mark-alive echo protocol").
*/

import (
	"time"

	"github.com/ringkeeper/gossipcore/endpoint"
)

// markAliveViaEcho confirms id is actually reachable before promoting
// it out of the unreachable/unknown set. Run on its own goroutine by
// callers so a slow or down peer never blocks the tick.
func (e *Engine) markAliveViaEcho(id endpoint.ID) {
	if err := e.transport.SendEcho(id); err != nil {
		e.logf("gossip: echo to %s failed, not marking alive: %v", id, err)
		return
	}

	e.mu.Lock()
	state, known := e.states[id]
	if !known {
		e.mu.Unlock()
		return
	}
	e.liveEndpoints[id] = struct{}{}
	delete(e.unreachableEndpoints, id)
	e.mu.Unlock()

	state.SetAlive(true)
	e.notifySubscribers(func(s Subscriber) { s.OnAlive(id, state) })
}

// markDead demotes id from live to unreachable and fires OnDead. For an
// already-unreachable endpoint it refreshes the unreachable timestamp
// and fires OnDead again.
func (e *Engine) markDead(id endpoint.ID) {
	e.mu.Lock()
	state, known := e.states[id]
	if !known {
		e.mu.Unlock()
		return
	}
	delete(e.liveEndpoints, id)
	e.unreachableEndpoints[id] = time.Now()
	e.mu.Unlock()

	state.SetAlive(false)
	e.notifySubscribers(func(s Subscriber) { s.OnDead(id, state) })
}

// Convict implements failuredetector.Listener: phi crossed the
// threshold for id, so mark it dead.
func (e *Engine) Convict(id endpoint.ID, phi float64) {
	e.mu.Lock()
	_, known := e.states[id]
	e.mu.Unlock()
	if !known {
		return
	}
	if id != e.local {
		e.logf("gossip: convicting %s, phi=%.2f", id, phi)
	}
	e.markDead(id)
}

// doStatusCheck runs the per-tick liveness and cleanup sweep (§4.3):
// interpret phi for every known non-local endpoint, evict fat clients
// (non-ring endpoints dead past FatClientTimeout), evict ring endpoints
// only once their explicit expire time (set on LEFT/REMOVED_TOKEN, never
// on mere unreachability) has passed, and drain expired quarantine
// entries. A ring member that is simply partitioned, with no explicit
// status change, stays Unreachable indefinitely (§4.7).
func (e *Engine) doStatusCheck() {
	now := time.Now()

	e.mu.Lock()
	ids := make([]endpoint.ID, 0, len(e.states))
	for id := range e.states {
		if id != e.local {
			ids = append(ids, id)
		}
	}
	isRingMember := e.isRingMember
	e.mu.Unlock()
	if isRingMember == nil {
		isRingMember = func(endpoint.ID) bool { return true }
	}

	for _, id := range ids {
		e.detector.Interpret(id)
	}

	for _, id := range ids {
		e.mu.Lock()
		_, known := e.states[id]
		deadSince, dead := e.unreachableEndpoints[id]
		e.mu.Unlock()
		if !known || !dead {
			continue
		}

		if !isRingMember(id) {
			if now.Sub(deadSince) > FatClientTimeout {
				e.logf("gossip: evicting fat client %s, silent for %s", id, now.Sub(deadSince))
				e.Quarantine(id)
			}
			continue
		}

		e.mu.Lock()
		expireAt, hasExpire := e.expireTime[id]
		e.mu.Unlock()
		if hasExpire && !now.Before(expireAt) {
			e.logf("gossip: evicting %s, expire time reached", id)
			e.Quarantine(id)
		}
	}

	e.mu.Lock()
	for id, quarantinedAt := range e.justRemovedEndpoints {
		if now.Sub(quarantinedAt) >= QuarantineDelay {
			delete(e.justRemovedEndpoints, id)
		}
	}
	e.mu.Unlock()
}
