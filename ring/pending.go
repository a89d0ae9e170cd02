package ring

/*
Pending-range calculation (§4.4).

A range's pending destinations are the endpoints that are not currently
a natural replica of that range but will become one once an in-flight
bootstrap, leave, or move settles. Reads and writes both need this: a
write during a topology change must reach every pending destination too,
or a replica that finishes bootstrapping mid-write would silently miss
it (§4.4 "Rationale", §8 "Pending-range over-approximation").

The calculation never mutates live metadata. It builds allLeftMetadata
(the ring with every currently-leaving endpoint already gone, via
CloneAfterAllLeft), then independently simulates each bootstrapping and
moving endpoint against that same baseline — never cumulatively, so B's
simulation never sees D's tokens and vice versa — and unions whatever
each simulation newly grants. Over-approximation from the independent
simulation is intentional and safe; under-approximation is not.
*/

import (
	"sort"
	"sync"

	"github.com/ringkeeper/gossipcore/endpoint"
	"github.com/ringkeeper/gossipcore/partition"
)

// Strategy is the subset of a replication strategy the pending-range
// calculation depends on. Declared locally rather than imported: package
// replication already imports ring for *Metadata and Range, so ring
// cannot import replication back. replication.Strategy implementations
// satisfy this interface structurally.
type Strategy interface {
	CalculateNaturalEndpoints(token partition.Token, m *Metadata) []endpoint.ID
	AddressRanges(m *Metadata) map[endpoint.ID][]Range
}

// pendingCache holds every keyspace's pendingRanges under its own
// monitor, distinct from Metadata.mu, so a long recalculation never
// blocks readers of the token-to-endpoint view (§4.4, §5).
type pendingCache struct {
	mu         sync.RWMutex
	byKS       map[string]map[string][]endpoint.ID  // keyspace -> range.Key() -> destinations
	byEndpoint map[string]map[endpoint.ID][]Range    // keyspace -> destination -> ranges
}

// PendingRanges returns the endpoints that will become natural replicas
// of r in keyspace once the in-flight topology change settles, or nil if
// none. The result reflects the last RecalculatePendingRanges call for
// keyspace; callers that need it current must recalculate first.
func (m *Metadata) PendingRanges(keyspace string, r Range) []endpoint.ID {
	m.pending.mu.RLock()
	defer m.pending.mu.RUnlock()
	dest := m.pending.byKS[keyspace][r.Key()]
	if len(dest) == 0 {
		return nil
	}
	out := make([]endpoint.ID, len(dest))
	copy(out, dest)
	return out
}

// PendingRangesFor returns the ranges that will become e's responsibility
// in keyspace once the in-flight topology change settles, per the last
// RecalculatePendingRanges call. Intended for a joining or moving node's
// own streaming plan, which needs to walk its destinations rather than
// probe one range at a time.
func (m *Metadata) PendingRangesFor(keyspace string, e endpoint.ID) []Range {
	m.pending.mu.RLock()
	defer m.pending.mu.RUnlock()
	src := m.pending.byEndpoint[keyspace][e]
	out := make([]Range, len(src))
	copy(out, src)
	return out
}

// AllPendingRanges returns keyspace's full pending-ranges table as it
// stood after the last RecalculatePendingRanges call, keyed by
// Range.Key(). Intended for the streaming planner, which needs to walk
// every pending range rather than probe one at a time.
func (m *Metadata) AllPendingRanges(keyspace string) map[string][]endpoint.ID {
	m.pending.mu.RLock()
	defer m.pending.mu.RUnlock()
	src := m.pending.byKS[keyspace]
	out := make(map[string][]endpoint.ID, len(src))
	for k, dest := range src {
		cp := make([]endpoint.ID, len(dest))
		copy(cp, dest)
		out[k] = cp
	}
	return out
}

// RecalculatePendingRanges rebuilds keyspace's pendingRanges cache from
// scratch, implementing the five-step algorithm (§4.4):
//
//  1. Snapshot (metadata, bootstrapTokens, leavingEndpoints,
//     movingEndpoints, strategy) — reads only, under the read lock.
//  2. endpointRanges = strategy.AddressRanges(metadata).
//  3. allLeftMetadata = metadata with every leaving endpoint removed;
//     for every range a leaving endpoint used to help replicate, the
//     endpoints newly present in the natural set once it's gone become
//     pending for that range.
//  4. Each bootstrapping endpoint e (tokens T) is inserted into
//     allLeftMetadata alone, its resulting ranges recorded pending for
//     e, then removed again before the next endpoint is tried — so
//     concurrent bootstraps are simulated independently, never
//     cumulatively.
//  5. Each moving endpoint is likewise simulated independently: capture
//     its ranges on allLeftMetadata before the token update, apply the
//     update, capture after, and record the difference as pending.
//
// The result atomically replaces the previous cache entry for keyspace.
func (m *Metadata) RecalculatePendingRanges(keyspace string, strategy Strategy) {
	// Step 1: snapshot every input under the read lock.
	m.mu.RLock()
	leaving := make([]endpoint.ID, 0, len(m.leavingEndpoints))
	for e := range m.leavingEndpoints {
		leaving = append(leaving, e)
	}
	bootstrapping := m.bootstrapTokensByEndpointLocked()
	moving := make(map[endpoint.ID]partition.Token, len(m.movingEndpoints))
	for e, t := range m.movingEndpoints {
		moving[e] = t
	}
	minToken := m.partitioner.MinimumToken()
	m.mu.RUnlock()

	// Step 2: endpointRanges, the reverse endpoint -> owned-ranges index.
	endpointRanges := strategy.AddressRanges(m)

	// Step 3: allLeftMetadata, and the ranges its removal affects.
	allLeft := m.CloneAfterAllLeft()

	result := newPendingResult()
	for _, e := range leaving {
		for _, r := range endpointRanges[e] {
			before := strategy.CalculateNaturalEndpoints(r.Right, m)
			after := strategy.CalculateNaturalEndpoints(r.Right, allLeft)
			for _, dest := range endpointsOnlyIn(after, before) {
				result.add(r, dest)
			}
		}
	}

	// Step 4: each bootstrapper simulated independently against allLeft.
	// AddressRanges already reports every range e is a natural replica
	// for once inserted, primary range included.
	for e, tokens := range bootstrapping {
		working := allLeft.rawClone()
		working.UpdateNormalTokens(e, tokens)
		for _, r := range strategy.AddressRanges(working)[e] {
			result.add(r, e)
		}
	}

	// Step 5: each move simulated independently against allLeft, since a
	// moving endpoint stays a normal member there rather than being
	// removed.
	for e, newToken := range moving {
		working := allLeft.rawClone()
		before := strategy.AddressRanges(working)[e]
		working.UpdateNormalTokens(e, []partition.Token{newToken})
		after := strategy.AddressRanges(working)[e]
		for _, r := range subtractRangeUnion(after, before, minToken) {
			result.add(r, e)
		}
	}

	for _, dest := range result.ranges {
		sort.Slice(dest, func(i, j int) bool { return endpoint.Compare(dest[i], dest[j]) < 0 })
	}

	m.pending.mu.Lock()
	m.pending.byKS[keyspace] = result.ranges
	m.pending.byEndpoint[keyspace] = result.byEndpoint
	m.pending.mu.Unlock()
}

// pendingResult accumulates range -> destination endpoints while
// deduplicating, then hands back plain maps for the cache, indexed both
// by range (for PendingRanges/AllPendingRanges) and by destination
// endpoint (for PendingRangesFor).
type pendingResult struct {
	ranges     map[string][]endpoint.ID
	byEndpoint map[endpoint.ID][]Range
	seen       map[string]map[endpoint.ID]struct{}
}

func newPendingResult() *pendingResult {
	return &pendingResult{
		ranges:     make(map[string][]endpoint.ID),
		byEndpoint: make(map[endpoint.ID][]Range),
		seen:       make(map[string]map[endpoint.ID]struct{}),
	}
}

func (p *pendingResult) add(r Range, e endpoint.ID) {
	key := r.Key()
	if p.seen[key] == nil {
		p.seen[key] = make(map[endpoint.ID]struct{})
	}
	if _, dup := p.seen[key][e]; dup {
		return
	}
	p.seen[key][e] = struct{}{}
	p.ranges[key] = append(p.ranges[key], e)
	p.byEndpoint[e] = append(p.byEndpoint[e], r)
}

// endpointsOnlyIn returns the entries of after that do not appear in
// before, preserving after's order.
func endpointsOnlyIn(after, before []endpoint.ID) []endpoint.ID {
	seen := make(map[endpoint.ID]struct{}, len(before))
	for _, e := range before {
		seen[e] = struct{}{}
	}
	var out []endpoint.ID
	for _, e := range after {
		if _, ok := seen[e]; !ok {
			out = append(out, e)
		}
	}
	return out
}

// subtractRangeUnion returns the ranges in after that are not covered by
// any range in before, i.e. after minus the union of before, computed by
// repeatedly applying Subtract.
func subtractRangeUnion(after, before []Range, min partition.Token) []Range {
	remaining := append([]Range(nil), after...)
	for _, b := range before {
		var next []Range
		for _, r := range remaining {
			next = append(next, Subtract(r, b, min)...)
		}
		remaining = next
	}
	return remaining
}
