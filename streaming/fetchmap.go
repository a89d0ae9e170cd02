package streaming

import (
	"fmt"
	"sort"

	"github.com/ringkeeper/gossipcore/coreerr"
	"github.com/ringkeeper/gossipcore/endpoint"
	"github.com/ringkeeper/gossipcore/ring"
)

// Warnf receives a message when the RF=1 carve-out silently accepts an
// unsatisfiable range instead of failing the plan.
type Warnf func(format string, args ...interface{})

// SimpleFetchMap implements getRangeFetchMap: for each range, walk
// candidates in proximity order, skip filter rejects, and record the
// first accepted non-local candidate. A range with no acceptable
// source fails the plan, except when replicationFactor == 1 and strict
// consistency isn't demanded, in which case it is only warned about
// (§4.6).
func SimpleFetchMap(sources []RangeSources, filters []SourceFilter, local endpoint.ID, replicationFactor int, strict bool, warn Warnf) (map[endpoint.ID][]ring.Range, error) {
	if warn == nil {
		warn = func(string, ...interface{}) {}
	}
	out := make(map[endpoint.ID][]ring.Range)
	for _, rs := range sources {
		found := false
		for _, cand := range rs.Candidates {
			if cand.Equal(local) {
				found = true
				break
			}
			if !AcceptAll(filters, cand) {
				continue
			}
			out[cand] = append(out[cand], rs.Range)
			found = true
			break
		}
		if !found {
			if replicationFactor == 1 && !strict {
				warn("streaming: range %s..%s has no acceptable source under RF=1; continuing without it", rs.Range.Left, rs.Range.Right)
				continue
			}
			return nil, coreerr.New(coreerr.NoSourcesError, "streaming.SimpleFetchMap",
				fmt.Errorf("range %s..%s has no candidate accepted by every filter", rs.Range.Left, rs.Range.Right))
		}
	}
	return out, nil
}

// OptimizedFetchMap implements RangeFetchMapCalculator for the
// not-strict, RF!=1 case: each range is assigned exactly one source
// among its filtered candidates, chosen to balance load across sources.
//
// This computes the assignment with a deterministic greedy
// least-loaded pass, sorted by (range lower bound, then, within a
// range, candidate load then source identity) — a bipartite-assignment
// approximation of the reference calculator's min-cost flow, sufficient
// to satisfy the planner's soundness and balance goals without a full
// flow solver.
func OptimizedFetchMap(sources []RangeSources, filters []SourceFilter, local endpoint.ID) (map[endpoint.ID][]ring.Range, error) {
	ordered := append([]RangeSources(nil), sources...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Range.Left.String() < ordered[j].Range.Left.String() })

	load := make(map[endpoint.ID]int)
	out := make(map[endpoint.ID][]ring.Range)

	for _, rs := range ordered {
		var eligible []endpoint.ID
		alreadyLocal := false
		for _, cand := range rs.Candidates {
			if cand.Equal(local) {
				alreadyLocal = true
				continue
			}
			if AcceptAll(filters, cand) {
				eligible = append(eligible, cand)
			}
		}
		if alreadyLocal {
			continue
		}
		if len(eligible) == 0 {
			return nil, coreerr.New(coreerr.NoSourcesError, "streaming.OptimizedFetchMap",
				fmt.Errorf("range %s..%s has no candidate accepted by every filter", rs.Range.Left, rs.Range.Right))
		}

		sort.Slice(eligible, func(i, j int) bool {
			li, lj := load[eligible[i]], load[eligible[j]]
			if li != lj {
				return li < lj
			}
			return eligible[i].String() < eligible[j].String()
		})
		chosen := eligible[0]
		out[chosen] = append(out[chosen], rs.Range)
		load[chosen]++
	}
	return out, nil
}

// AssertPostconditions verifies the invariant every planner output must
// satisfy: each assigned source is among the range's candidates, is not
// local, and is accepted by every filter. A violation is a programmer
// error and panics, matching the reference implementation's assertion
// semantics (§4.6, §7 "Assertions guard pure-programmer invariants").
func AssertPostconditions(fetchMap map[endpoint.ID][]ring.Range, sources []RangeSources, filters []SourceFilter, local endpoint.ID) {
	candidatesFor := make(map[string]map[endpoint.ID]struct{}, len(sources))
	for _, rs := range sources {
		set := make(map[endpoint.ID]struct{}, len(rs.Candidates))
		for _, c := range rs.Candidates {
			set[c] = struct{}{}
		}
		candidatesFor[rs.Range.Key()] = set
	}

	for source, ranges := range fetchMap {
		if source.Equal(local) {
			panic(fmt.Sprintf("streaming: fetch map assigns local endpoint %s as a source", source))
		}
		if !AcceptAll(filters, source) {
			panic(fmt.Sprintf("streaming: fetch map assigns %s, which a filter rejects", source))
		}
		for _, r := range ranges {
			set, ok := candidatesFor[r.Key()]
			if !ok {
				panic(fmt.Sprintf("streaming: fetch map assigns range %s..%s that was never a planner input", r.Left, r.Right))
			}
			if _, isCandidate := set[source]; !isCandidate {
				panic(fmt.Sprintf("streaming: fetch map assigns %s for range %s..%s but it was not a candidate", source, r.Left, r.Right))
			}
		}
	}
}
