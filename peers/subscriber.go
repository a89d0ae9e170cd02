package peers

import (
	"strings"
	"time"

	"github.com/ringkeeper/gossipcore/appstate"
	"github.com/ringkeeper/gossipcore/endpoint"
)

// StateLookup returns the currently-known state for id, mirroring
// gossip.Engine.State. Injected rather than depending on package gossip
// directly, keeping peers free of that import.
type StateLookup func(id endpoint.ID) (*appstate.EndpointState, bool)

// Subscriber persists whatever the DC/rack/release-version/tokens
// application state gossip carries for each peer, so that LoadPeers
// returns the last-known record of each one. It implements the same
// method set as
// gossip.Subscriber without importing package gossip, the same
// structural-typing trick management.Hub and ring.Projector use.
type Subscriber struct {
	store   *Store
	stateOf StateLookup
	logf    func(format string, args ...interface{})
}

// NewSubscriber builds a peers persister over store. logf may be nil.
func NewSubscriber(store *Store, stateOf StateLookup, logf func(string, ...interface{})) *Subscriber {
	if logf == nil {
		logf = func(string, ...interface{}) {}
	}
	return &Subscriber{store: store, stateOf: stateOf, logf: logf}
}

func (s *Subscriber) BeforeChange(endpoint.ID, *appstate.EndpointState, appstate.Key, appstate.VersionedValue) {
}

func (s *Subscriber) OnJoin(e endpoint.ID, _ *appstate.EndpointState)    { s.persist(e) }
func (s *Subscriber) OnRestart(e endpoint.ID, _ *appstate.EndpointState) { s.persist(e) }
func (s *Subscriber) OnAlive(endpoint.ID, *appstate.EndpointState)       {}
func (s *Subscriber) OnDead(endpoint.ID, *appstate.EndpointState)        {}

func (s *Subscriber) OnChange(e endpoint.ID, key appstate.Key, _ appstate.VersionedValue) {
	switch key {
	case appstate.DC, appstate.Rack, appstate.Tokens, appstate.ReleaseVersion:
		s.persist(e)
	}
}

// OnRemove drops e's persisted record once gossip has actually
// quarantined it for good.
func (s *Subscriber) OnRemove(e endpoint.ID) {
	if err := s.store.RemovePeer(e.HostID); err != nil {
		s.logf("peers: %v", err)
	}
}

func (s *Subscriber) persist(e endpoint.ID) {
	state, ok := s.stateOf(e)
	if !ok {
		return
	}
	rec := Record{Endpoint: e, UpdatedAt: time.Now()}
	if dc, ok := state.GetApplicationState(appstate.DC); ok {
		rec.Datacenter = dc.Value
	}
	if rack, ok := state.GetApplicationState(appstate.Rack); ok {
		rec.Rack = rack.Value
	}
	if rv, ok := state.GetApplicationState(appstate.ReleaseVersion); ok {
		rec.ReleaseVersion = rv.Value
	}
	if tokens, ok := state.GetApplicationState(appstate.Tokens); ok && tokens.Value != "" {
		rec.Tokens = strings.Split(tokens.Value, ",")
	}
	if err := s.store.UpdatePeer(rec); err != nil {
		s.logf("peers: %v", err)
	}
}
