package ring

import (
	"github.com/ringkeeper/gossipcore/endpoint"
	"github.com/ringkeeper/gossipcore/partition"
)

// TokenMapSnapshot is a read-only, point-in-time view of the
// token-to-endpoint map and topology (§4.4, cloneOnlyTokenMap).
type TokenMapSnapshot struct {
	Version         uint64
	TokenToEndpoint map[string]endpoint.ID
	SortedTokens    []string
	Topology        *Topology
}

// CloneOnlyTokenMap returns a cheap, read-only snapshot of the current
// token ownership and topology. Each call builds a fresh copy; no
// snapshot is cached between calls.
func (m *Metadata) CloneOnlyTokenMap() TokenMapSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tte := make(map[string]endpoint.ID, len(m.tokenToEndpoint))
	for k, v := range m.tokenToEndpoint {
		tte[k] = v
	}
	sorted := make([]string, len(m.sortedTokens))
	for i, t := range m.sortedTokens {
		sorted[i] = t.String()
	}
	return TokenMapSnapshot{
		Version:         m.ringVersion,
		TokenToEndpoint: tte,
		SortedTokens:    sorted,
		Topology:        m.topology.clone(),
	}
}

// rawClone deep-copies every internal structure into a fresh Metadata,
// used as the starting point for cloneAfterAllLeft/cloneAfterAllSettled
// simulations so that mutating the clone never touches live state.
func (m *Metadata) rawClone() *Metadata {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c := New(m.partitioner, m.warnf)
	for k, v := range m.tokenToEndpoint {
		c.tokenToEndpoint[k] = v
	}
	for k, v := range m.tokenValues {
		c.tokenValues[k] = v
	}
	for e, toks := range m.endpointTokens {
		cp := make(map[string]struct{}, len(toks))
		for k := range toks {
			cp[k] = struct{}{}
		}
		c.endpointTokens[e] = cp
	}
	for e := range m.allEndpoints {
		c.allEndpoints[e] = struct{}{}
	}
	for k, v := range m.bootstrapTokens {
		c.bootstrapTokens[k] = v
	}
	for k, v := range m.bootstrapTokenValues {
		c.bootstrapTokenValues[k] = v
	}
	for e := range m.leavingEndpoints {
		c.leavingEndpoints[e] = struct{}{}
	}
	for e, t := range m.movingEndpoints {
		c.movingEndpoints[e] = t
	}
	for k, v := range m.replacementToOriginal {
		c.replacementToOriginal[k] = v
	}
	for k, v := range m.originalToReplacement {
		c.originalToReplacement[k] = v
	}
	c.topology = m.topology.clone()
	c.sortedTokens = append([]partition.Token(nil), m.sortedTokens...)
	c.ringVersion = m.ringVersion
	return c
}

// CloneAfterAllLeft simulates the ring once every currently-leaving
// endpoint has fully departed (§4.4, used by the pending-range
// calculation's "allLeftMetadata").
func (m *Metadata) CloneAfterAllLeft() *Metadata {
	c := m.rawClone()

	c.mu.Lock()
	leaving := make([]endpoint.ID, 0, len(c.leavingEndpoints))
	for e := range c.leavingEndpoints {
		leaving = append(leaving, e)
	}
	c.mu.Unlock()

	for _, e := range leaving {
		c.RemoveEndpoint(e)
	}
	return c
}

// CloneAfterAllSettled simulates the ring once every in-flight leave
// and move has completed.
func (m *Metadata) CloneAfterAllSettled() *Metadata {
	c := m.CloneAfterAllLeft()

	c.mu.Lock()
	moving := make(map[endpoint.ID]partition.Token, len(c.movingEndpoints))
	for e, t := range c.movingEndpoints {
		moving[e] = t
	}
	c.mu.Unlock()

	for e, newToken := range moving {
		c.UpdateNormalTokens(e, []partition.Token{newToken})
	}
	return c
}
