package streaming

import (
	"fmt"

	"github.com/ringkeeper/gossipcore/coreerr"
	"github.com/ringkeeper/gossipcore/endpoint"
	"github.com/ringkeeper/gossipcore/replication"
	"github.com/ringkeeper/gossipcore/ring"
	"github.com/ringkeeper/gossipcore/snitch"
)

// RangeSources pairs a desired range with its proximity-sorted
// candidate sources.
type RangeSources struct {
	Range      ring.Range
	Candidates []endpoint.ID
}

// coveringRange finds the ring range (predecessor(t), t] that contains
// r.Right, generalizing Metadata.PrimaryRange to tokens that may not
// themselves be present in sortedTokens (e.g. a bootstrapping node's
// not-yet-installed token).
func coveringRange(m *ring.Metadata, r ring.Range) (ring.Range, bool) {
	sorted := m.SortedTokens()
	if len(sorted) == 0 {
		return ring.Range{}, false
	}
	if len(sorted) == 1 {
		return ring.Range{Left: sorted[0], Right: sorted[0]}, true
	}
	for i, t := range sorted {
		pred := sorted[(i-1+len(sorted))%len(sorted)]
		cand := ring.Range{Left: pred, Right: t}
		if cand.Contains(r.Right) {
			return cand, true
		}
	}
	return ring.Range{}, false
}

// NonStrictSources implements getAllRangesWithSourcesFor: for each
// desired range, find the ring range that covers it, take that range's
// current natural replicas, and sort them by proximity to local (§4.6).
func NonStrictSources(desired []ring.Range, strategy replication.Strategy, snt snitch.Snitch, m *ring.Metadata, local endpoint.ID) ([]RangeSources, error) {
	out := make([]RangeSources, 0, len(desired))
	for _, r := range desired {
		covering, ok := coveringRange(m, r)
		if !ok {
			return nil, coreerr.New(coreerr.NoSourcesError, "streaming.NonStrictSources", fmt.Errorf("range %s..%s is not covered by the ring", r.Left, r.Right))
		}
		replicas := strategy.CalculateNaturalEndpoints(covering.Right, m)
		if len(replicas) == 0 {
			return nil, coreerr.New(coreerr.NoSourcesError, "streaming.NonStrictSources", fmt.Errorf("range %s..%s has no natural replicas", r.Left, r.Right))
		}
		sorted := snt.SortedByProximity(local, replicas)
		out = append(out, RangeSources{Range: r, Candidates: sorted})
	}
	return out, nil
}

// StrictSources implements getAllRangesWithStrictSourcesFor: for each
// desired range, the unique source is the replica that held the range
// before the local node's tokens were inserted but will not hold it
// after (old \ new). beforeLocal and afterLocal must differ only in
// whether the local node's tokens are present (§4.6).
func StrictSources(desired []ring.Range, strategy replication.Strategy, beforeLocal, afterLocal *ring.Metadata, isAlive func(endpoint.ID) bool) ([]RangeSources, error) {
	out := make([]RangeSources, 0, len(desired))
	for _, r := range desired {
		coveringBefore, ok := coveringRange(beforeLocal, r)
		if !ok {
			return nil, coreerr.New(coreerr.NoSourcesError, "streaming.StrictSources", fmt.Errorf("range %s..%s is not covered by the pre-bootstrap ring", r.Left, r.Right))
		}
		before := strategy.CalculateNaturalEndpoints(coveringBefore.Right, beforeLocal)

		coveringAfter, ok := coveringRange(afterLocal, r)
		if !ok {
			coveringAfter = coveringBefore
		}
		after := strategy.CalculateNaturalEndpoints(coveringAfter.Right, afterLocal)

		afterSet := make(map[endpoint.ID]struct{}, len(after))
		for _, e := range after {
			afterSet[e] = struct{}{}
		}

		var handoff []endpoint.ID
		for _, e := range before {
			if _, stillReplica := afterSet[e]; !stillReplica {
				handoff = append(handoff, e)
			}
		}
		if len(handoff) != 1 {
			return nil, coreerr.New(coreerr.StrictConsistencyError, "streaming.StrictSources",
				fmt.Errorf("range %s..%s has %d handoff sources, want exactly 1", r.Left, r.Right, len(handoff)))
		}
		source := handoff[0]
		if !isAlive(source) {
			return nil, coreerr.New(coreerr.StrictConsistencyError, "streaming.StrictSources",
				fmt.Errorf("range %s..%s's unique strict source %s is down; override strictness to proceed", r.Left, r.Right, source))
		}
		out = append(out, RangeSources{Range: r, Candidates: []endpoint.ID{source}})
	}
	return out, nil
}
