package ring

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ringkeeper/gossipcore/endpoint"
	"github.com/ringkeeper/gossipcore/partition"
)

// Warnf is called when a token's ownership silently transfers from one
// endpoint to another, the one place Metadata logs instead of just
// mutating state. Tests and callers that don't care may leave it nil.
type Warnf func(format string, args ...interface{})

// Metadata is the authoritative local token-to-endpoint map, plus the
// transient sets that describe topology changes in flight (§3, §4.4).
//
// All mutators take the single writer lock; all plain observers take
// the reader lock. No read bypasses the mutex.
type Metadata struct {
	mu sync.RWMutex

	partitioner partition.Partitioner

	tokenToEndpoint map[string]endpoint.ID            // token.String() -> endpoint
	tokenValues     map[string]partition.Token        // token.String() -> Token (string keys let us use plain maps)
	endpointTokens  map[endpoint.ID]map[string]struct{}

	allEndpoints map[endpoint.ID]struct{}

	bootstrapTokens      map[string]endpoint.ID
	bootstrapTokenValues map[string]partition.Token // token.String() -> Token, mirrors tokenValues for the bootstrap set

	leavingEndpoints map[endpoint.ID]struct{}

	movingEndpoints map[endpoint.ID]partition.Token // endpoint -> new token

	replacementToOriginal map[endpoint.ID]endpoint.ID
	originalToReplacement map[endpoint.ID]endpoint.ID

	topology *Topology

	sortedTokens []partition.Token

	ringVersion uint64

	warnf Warnf

	pending *pendingCache
}

// New creates empty ring metadata for partitioner p.
func New(p partition.Partitioner, warn Warnf) *Metadata {
	if warn == nil {
		warn = func(string, ...interface{}) {}
	}
	return &Metadata{
		partitioner:           p,
		tokenToEndpoint:       make(map[string]endpoint.ID),
		tokenValues:           make(map[string]partition.Token),
		endpointTokens:        make(map[endpoint.ID]map[string]struct{}),
		allEndpoints:          make(map[endpoint.ID]struct{}),
		bootstrapTokens:       make(map[string]endpoint.ID),
		bootstrapTokenValues:  make(map[string]partition.Token),
		leavingEndpoints:      make(map[endpoint.ID]struct{}),
		movingEndpoints:       make(map[endpoint.ID]partition.Token),
		replacementToOriginal: make(map[endpoint.ID]endpoint.ID),
		originalToReplacement: make(map[endpoint.ID]endpoint.ID),
		topology:              newTopology(),
		warnf:                 warn,
		pending: &pendingCache{
			byKS:       make(map[string]map[string][]endpoint.ID),
			byEndpoint: make(map[string]map[endpoint.ID][]Range),
		},
	}
}

// Partitioner returns the token space this metadata is keyed on.
func (m *Metadata) Partitioner() partition.Partitioner {
	return m.partitioner
}

// RingVersion returns the monotonic mutation counter used to invalidate
// derived caches (§3).
func (m *Metadata) RingVersion() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ringVersion
}

func tokKey(t partition.Token) string { return t.String() }

func (m *Metadata) resortLocked() {
	tokens := make([]partition.Token, 0, len(m.tokenValues))
	for _, t := range m.tokenValues {
		tokens = append(tokens, t)
	}
	sort.Slice(tokens, func(i, j int) bool { return tokens[i].Compare(tokens[j]) < 0 })
	m.sortedTokens = tokens
}

// UpdateNormalTokens transfers e out of the bootstrap/leaving/moving/
// replacement sets and installs tokens as its normal ring ownership,
// re-sorting sortedTokens if the token set changed and incrementing
// ringVersion (§4.4).
func (m *Metadata) UpdateNormalTokens(e endpoint.ID, tokens []partition.Token) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range tokens {
		delete(m.bootstrapTokens, tokKey(t))
		delete(m.bootstrapTokenValues, tokKey(t))
	}
	delete(m.leavingEndpoints, e)
	delete(m.movingEndpoints, e)
	if orig, ok := m.replacementToOriginal[e]; ok {
		delete(m.replacementToOriginal, e)
		delete(m.originalToReplacement, orig)
	}

	newSet := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		newSet[tokKey(t)] = struct{}{}
	}
	changed := false

	old := m.endpointTokens[e]
	for key := range old {
		if _, keep := newSet[key]; !keep {
			delete(m.tokenToEndpoint, key)
			delete(m.tokenValues, key)
			changed = true
		}
	}

	for _, t := range tokens {
		key := tokKey(t)
		if cur, exists := m.tokenToEndpoint[key]; exists && cur != e {
			m.warnf("ring: token %s ownership transferred from %s to %s", t, cur, e)
			changed = true
		} else if !exists {
			changed = true
		}
		m.tokenToEndpoint[key] = e
		m.tokenValues[key] = t
	}

	m.endpointTokens[e] = newSet
	m.allEndpoints[e] = struct{}{}

	if changed {
		m.resortLocked()
	}
	m.ringVersion++
}

// AddBootstrapTokens registers tokens as belonging to a joining
// endpoint e, rejecting collisions with another bootstrapper or with a
// normal endpoint that is not e's replacement original (§4.4).
func (m *Metadata) AddBootstrapTokens(tokens []partition.Token, e endpoint.ID, original *endpoint.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range tokens {
		key := tokKey(t)
		if owner, ok := m.bootstrapTokens[key]; ok && owner != e {
			return fmt.Errorf("ring: token %s already claimed by bootstrapping endpoint %s", t, owner)
		}
		if owner, ok := m.tokenToEndpoint[key]; ok && owner != e {
			if original == nil || owner != *original {
				return fmt.Errorf("ring: token %s already owned by normal endpoint %s", t, owner)
			}
		}
	}

	for _, t := range tokens {
		m.bootstrapTokens[tokKey(t)] = e
		m.bootstrapTokenValues[tokKey(t)] = t
	}
	m.allEndpoints[e] = struct{}{}
	if original != nil {
		m.replacementToOriginal[e] = *original
		m.originalToReplacement[*original] = e
	}
	m.ringVersion++
	return nil
}

// AddLeavingEndpoint marks e as decommissioning.
func (m *Metadata) AddLeavingEndpoint(e endpoint.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leavingEndpoints[e] = struct{}{}
	m.allEndpoints[e] = struct{}{}
	m.ringVersion++
}

// AddMovingEndpoint records that e is relocating to newToken.
func (m *Metadata) AddMovingEndpoint(newToken partition.Token, e endpoint.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.movingEndpoints[e] = newToken
	m.allEndpoints[e] = struct{}{}
	m.ringVersion++
}

// RemoveEndpoint evicts e from every set it appears in, including the
// token-to-endpoint map and the topology index.
func (m *Metadata) RemoveEndpoint(e endpoint.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeEndpointLocked(e)
	m.ringVersion++
}

func (m *Metadata) removeEndpointLocked(e endpoint.ID) {
	for key := range m.endpointTokens[e] {
		delete(m.tokenToEndpoint, key)
		delete(m.tokenValues, key)
	}
	delete(m.endpointTokens, e)
	delete(m.allEndpoints, e)
	delete(m.leavingEndpoints, e)
	delete(m.movingEndpoints, e)

	for key, owner := range m.bootstrapTokens {
		if owner == e {
			delete(m.bootstrapTokens, key)
			delete(m.bootstrapTokenValues, key)
		}
	}
	if orig, ok := m.replacementToOriginal[e]; ok {
		delete(m.replacementToOriginal, e)
		delete(m.originalToReplacement, orig)
	}
	m.topology.remove(e)
	m.resortLocked()
}

// UpdateTopology records e's (DC, Rack) location.
func (m *Metadata) UpdateTopology(e endpoint.ID, loc Location) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.topology.update(e, loc)
	m.allEndpoints[e] = struct{}{}
}

// Topology exposes the read-only topology index.
func (m *Metadata) Topology() *Topology {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.topology
}

// SortedTokens returns the cached ascending token list.
func (m *Metadata) SortedTokens() []partition.Token {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]partition.Token, len(m.sortedTokens))
	copy(out, m.sortedTokens)
	return out
}

// EndpointFor returns the endpoint currently owning t, if any.
func (m *Metadata) EndpointFor(t partition.Token) (endpoint.ID, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.tokenToEndpoint[tokKey(t)]
	return e, ok
}

// TokensOf returns the tokens e currently owns normally.
func (m *Metadata) TokensOf(e endpoint.ID) []partition.Token {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := m.endpointTokens[e]
	out := make([]partition.Token, 0, len(keys))
	for key := range keys {
		out = append(out, m.tokenValues[key])
	}
	return out
}

// AllEndpoints returns every endpoint currently known to the ring;
// RemoveEndpoint drops an endpoint from it.
func (m *Metadata) AllEndpoints() []endpoint.ID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]endpoint.ID, 0, len(m.allEndpoints))
	for e := range m.allEndpoints {
		out = append(out, e)
	}
	return out
}

// LeavingEndpoints returns the current decommissioning set.
func (m *Metadata) LeavingEndpoints() []endpoint.ID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]endpoint.ID, 0, len(m.leavingEndpoints))
	for e := range m.leavingEndpoints {
		out = append(out, e)
	}
	return out
}

// IsLeaving reports whether e is currently decommissioning.
func (m *Metadata) IsLeaving(e endpoint.ID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.leavingEndpoints[e]
	return ok
}

// BootstrapTokens returns the current joining token -> endpoint map.
func (m *Metadata) BootstrapTokens() map[string]endpoint.ID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]endpoint.ID, len(m.bootstrapTokens))
	for k, v := range m.bootstrapTokens {
		out[k] = v
	}
	return out
}

// BootstrapTokensByEndpoint groups the current bootstrap set by
// endpoint, recovering the actual Token values (§4.4, step 4 of the
// pending-range calculation needs the tokens themselves, not just their
// string keys).
func (m *Metadata) BootstrapTokensByEndpoint() map[endpoint.ID][]partition.Token {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bootstrapTokensByEndpointLocked()
}

func (m *Metadata) bootstrapTokensByEndpointLocked() map[endpoint.ID][]partition.Token {
	out := make(map[endpoint.ID][]partition.Token)
	for key, e := range m.bootstrapTokens {
		out[e] = append(out[e], m.bootstrapTokenValues[key])
	}
	return out
}

// MovingEndpoints returns the current relocation set as endpoint -> new
// token.
func (m *Metadata) MovingEndpoints() map[endpoint.ID]partition.Token {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[endpoint.ID]partition.Token, len(m.movingEndpoints))
	for k, v := range m.movingEndpoints {
		out[k] = v
	}
	return out
}

// ReplacementOriginal returns the endpoint that replacement is
// replacing, if e is a replacement.
func (m *Metadata) ReplacementOriginal(e endpoint.ID) (endpoint.ID, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.replacementToOriginal[e]
	return o, ok
}

// PrimaryRange returns (predecessor(t), t] for token t, using a binary
// search over sortedTokens. A missing token is a programmer error and
// panics, matching the assertion-failure semantics of §4.4.
func (m *Metadata) PrimaryRange(t partition.Token) Range {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := len(m.sortedTokens)
	idx := sort.Search(n, func(i int) bool { return m.sortedTokens[i].Compare(t) >= 0 })
	if idx == n || m.sortedTokens[idx].Compare(t) != 0 {
		panic(fmt.Sprintf("ring: token %s is not present in sortedTokens", t))
	}
	if n == 1 {
		return Range{Left: t, Right: t}
	}
	predIdx := idx - 1
	if predIdx < 0 {
		predIdx = n - 1 // wraps: smallest token's predecessor is the largest
	}
	return Range{Left: m.sortedTokens[predIdx], Right: t}
}

// Predecessor and Successor binary-search sortedTokens in O(log n); a
// missing token panics (programmer error, §4.4).
func (m *Metadata) Predecessor(t partition.Token) partition.Token {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := len(m.sortedTokens)
	idx := m.indexOfLocked(t)
	if idx < 0 {
		panic(fmt.Sprintf("ring: token %s is not present in sortedTokens", t))
	}
	if idx == 0 {
		return m.sortedTokens[n-1]
	}
	return m.sortedTokens[idx-1]
}

func (m *Metadata) Successor(t partition.Token) partition.Token {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := len(m.sortedTokens)
	idx := m.indexOfLocked(t)
	if idx < 0 {
		panic(fmt.Sprintf("ring: token %s is not present in sortedTokens", t))
	}
	if idx == n-1 {
		return m.sortedTokens[0]
	}
	return m.sortedTokens[idx+1]
}

func (m *Metadata) indexOfLocked(t partition.Token) int {
	n := len(m.sortedTokens)
	idx := sort.Search(n, func(i int) bool { return m.sortedTokens[i].Compare(t) >= 0 })
	if idx == n || m.sortedTokens[idx].Compare(t) != 0 {
		return -1
	}
	return idx
}
