package streaming

import (
	"github.com/ringkeeper/gossipcore/partition"
	"github.com/ringkeeper/gossipcore/ring"
	"github.com/ringkeeper/gossipcore/statestore"
)

// SkipAlreadyStreamed subtracts ranges already durably received for
// keyspace from desired, per the "skip-already-streamed" step of §4.6.
// A desired range that exactly matches an available one is dropped
// whole; partial overlaps are not split further since the state store
// only records whole ranges as available.
func SkipAlreadyStreamed(desired []ring.Range, store statestore.Store, keyspace string, p partition.Partitioner) []ring.Range {
	available := store.AvailableRanges(keyspace, p)
	out := make([]ring.Range, 0, len(desired))
	for _, r := range desired {
		if _, done := available[r.Key()]; done {
			continue
		}
		out = append(out, r)
	}
	return out
}
