package gossip

import (
	"math/rand"

	"github.com/ringkeeper/gossipcore/appstate"
	"github.com/ringkeeper/gossipcore/endpoint"
)

// CreateDigests builds a shuffled digest list covering every endpoint
// e knows about, local included, matching the tick's step 2 (§4.3).
func (e *Engine) CreateDigests() []Digest {
	e.mu.Lock()
	digests := make([]Digest, 0, len(e.states))
	for id, state := range e.states {
		hb := state.Heartbeat()
		digests = append(digests, Digest{
			Endpoint:   id,
			Generation: hb.Generation,
			MaxVersion: state.MaxVersion(),
		})
	}
	e.mu.Unlock()

	rand.Shuffle(len(digests), func(i, j int) { digests[i], digests[j] = digests[j], digests[i] })
	return digests
}

// buildDelta packages state's heartbeat plus every application state
// whose version exceeds sinceVersion.
func buildDelta(state *appstate.EndpointState, sinceVersion int32) StateDelta {
	return StateDelta{
		Heartbeat: state.Heartbeat(),
		States:    state.StatesWithVersionGreaterThan(sinceVersion),
	}
}

// CompareDigests runs the SYN-side of the three-phase reconciliation
// (§4.3): for each remote digest, decide whether the peer needs our
// state (deltaMap) or we need theirs (requestList); then include any
// locally-known endpoint the peer's digest never mentioned at all.
func (e *Engine) CompareDigests(remote []Digest) ([]Digest, map[endpoint.ID]StateDelta) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var requestList []Digest
	deltaMap := make(map[endpoint.ID]StateDelta)
	seen := make(map[endpoint.ID]struct{}, len(remote))

	for _, d := range remote {
		seen[d.Endpoint] = struct{}{}
		local, ok := e.states[d.Endpoint]
		if !ok {
			requestList = append(requestList, Digest{Endpoint: d.Endpoint, Generation: d.Generation, MaxVersion: 0})
			continue
		}

		localGen := local.Heartbeat().Generation
		localMax := local.MaxVersion()

		switch {
		case d.Generation > localGen:
			requestList = append(requestList, Digest{Endpoint: d.Endpoint, Generation: d.Generation, MaxVersion: 0})
		case d.Generation < localGen:
			deltaMap[d.Endpoint] = buildDelta(local, d.MaxVersion)
		default: // equal generation
			if d.MaxVersion < localMax {
				deltaMap[d.Endpoint] = buildDelta(local, d.MaxVersion)
			} else if d.MaxVersion > localMax {
				requestList = append(requestList, Digest{Endpoint: d.Endpoint, Generation: localGen, MaxVersion: localMax})
			}
			// equal generation and version: peer is already in sync, skip.
		}
	}

	for id, local := range e.states {
		if _, ok := seen[id]; ok {
			continue
		}
		deltaMap[id] = buildDelta(local, -1)
	}

	return requestList, deltaMap
}
