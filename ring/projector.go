package ring

/*
Ring projection (§2 "data flow", §4.3 "onChange subscriber mechanism").

Metadata only ever learns about endpoints through whoever calls its
mutators; on its own it never listens to gossip. Projector is that
listener: it implements the same method set as gossip.Subscriber
(BeforeChange/OnJoin/OnAlive/OnDead/OnChange/OnRemove/OnRestart) without
importing package gossip, the same structural-typing trick
management.Hub already uses, so gossip.Engine.Subscribe can take a
*Projector directly.

Projector only reacts to the TOKENS/STATUS/STATUS_WITH_PORT/DC/RACK
application-state keys; HOST_ID and the rest pass through unexamined
since Metadata already keys everything off endpoint.ID, which carries
the host UUID itself. It never touches the local endpoint's own
entry — the local node's own tokens/location are seeded directly by
whoever owns the node, not discovered through gossip about itself.
*/

import (
	"strings"

	"github.com/ringkeeper/gossipcore/appstate"
	"github.com/ringkeeper/gossipcore/endpoint"
	"github.com/ringkeeper/gossipcore/partition"
)

// StateLookup returns the currently-known state for id, mirroring
// gossip.Engine.State. Injected rather than depending on package gossip
// directly, keeping ring free of that import.
type StateLookup func(id endpoint.ID) (*appstate.EndpointState, bool)

// Projector projects gossip application-state changes into Metadata
// mutations.
type Projector struct {
	metadata *Metadata
	stateOf  StateLookup
	logf     Warnf
}

// NewProjector builds a Projector over metadata. stateOf is used to
// recover the sibling application state (e.g. the current TOKENS value
// when STATUS changes, or the current DC when RACK changes) a single
// OnChange callback doesn't carry by itself. logf may be nil.
func NewProjector(metadata *Metadata, stateOf StateLookup, logf Warnf) *Projector {
	if logf == nil {
		logf = func(string, ...interface{}) {}
	}
	return &Projector{metadata: metadata, stateOf: stateOf, logf: logf}
}

func (p *Projector) BeforeChange(endpoint.ID, *appstate.EndpointState, appstate.Key, appstate.VersionedValue) {
}

func (p *Projector) OnJoin(e endpoint.ID, state *appstate.EndpointState) {
	p.projectAll(e, state)
}

func (p *Projector) OnRestart(e endpoint.ID, state *appstate.EndpointState) {
	p.projectAll(e, state)
}

func (p *Projector) OnAlive(endpoint.ID, *appstate.EndpointState) {}
func (p *Projector) OnDead(endpoint.ID, *appstate.EndpointState)  {}

// OnChange projects a single key's new value, pulling in whatever
// sibling state (via stateOf) that key's mutator needs.
func (p *Projector) OnChange(e endpoint.ID, key appstate.Key, _ appstate.VersionedValue) {
	switch key {
	case appstate.Tokens, appstate.Status, appstate.StatusWithPort:
		p.projectTokensAndStatus(e)
	case appstate.DC, appstate.Rack:
		p.projectLocation(e)
	}
}

// OnRemove evicts e from the ring entirely: the engine only calls this
// once e has actually been quarantined, so by this point e is gone for
// good (§4.3).
func (p *Projector) OnRemove(e endpoint.ID) {
	p.metadata.RemoveEndpoint(e)
}

func (p *Projector) projectAll(e endpoint.ID, state *appstate.EndpointState) {
	if _, ok := state.GetApplicationState(appstate.DC); ok {
		p.projectLocation(e)
	}
	if _, ok := state.GetApplicationState(appstate.Rack); ok {
		p.projectLocation(e)
	}
	p.projectTokensAndStatus(e)
}

func (p *Projector) projectLocation(e endpoint.ID) {
	state, ok := p.stateOf(e)
	if !ok {
		return
	}
	dc, _ := state.GetApplicationState(appstate.DC)
	rack, _ := state.GetApplicationState(appstate.Rack)
	if dc.Value == "" && rack.Value == "" {
		return
	}
	p.metadata.UpdateTopology(e, Location{DC: dc.Value, Rack: rack.Value})
}

// projectTokensAndStatus re-derives e's ring membership from whatever
// TOKENS and STATUS values are currently known, rather than reacting to
// one key in isolation — TOKENS and STATUS commonly arrive in separate
// gossip rounds, and a status like BOOTSTRAPPING is meaningless without
// the tokens it's bootstrapping with (§4.4).
func (p *Projector) projectTokensAndStatus(e endpoint.ID) {
	state, ok := p.stateOf(e)
	if !ok {
		return
	}

	tokensVal, hasTokens := state.GetApplicationState(appstate.Tokens)
	status, hasStatus := state.EffectiveStatus()

	var tokens []partition.Token
	if hasTokens {
		parsed, err := ParseTokens(p.metadata.Partitioner(), tokensVal.Value)
		if err != nil {
			p.logf("ring: discarding malformed TOKENS from %s: %v", e, err)
			return
		}
		tokens = parsed
	}

	switch {
	case !hasStatus || status.Value == "NORMAL":
		if len(tokens) > 0 {
			p.metadata.UpdateNormalTokens(e, tokens)
		}
	case strings.HasPrefix(status.Value, "BOOTSTRAPPING"):
		if len(tokens) == 0 {
			return
		}
		// BOOTSTRAPPING_REPLACE:<id> is observed but the replaced
		// endpoint's identity isn't recoverable from the status string
		// (endpoint.ID has no string parser, only String()), so the
		// replacement-original link this would populate is left unset;
		// the replacement still claims its tokens as a normal
		// bootstrapper would.
		if err := p.metadata.AddBootstrapTokens(tokens, e, nil); err != nil {
			p.logf("ring: %v", err)
		}
	case strings.HasPrefix(status.Value, "LEAVING"):
		p.metadata.AddLeavingEndpoint(e)
	case strings.HasPrefix(status.Value, "MOVING:"):
		newTokenStr := strings.TrimPrefix(status.Value, "MOVING:")
		newToken, err := p.metadata.Partitioner().ParseToken(newTokenStr)
		if err != nil {
			p.logf("ring: discarding malformed MOVING token from %s: %v", e, err)
			return
		}
		p.metadata.AddMovingEndpoint(newToken, e)
	}
}
