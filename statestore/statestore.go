// Package statestore is the external collaborator the streaming planner
// consults to avoid re-fetching ranges it has already durably received
// (§4.6, §6 "State store interface (collaborator)"). The core only
// reads from it and calls back into it on completion; it never owns
// persistence itself.
package statestore

import (
	"sync"

	"github.com/ringkeeper/gossipcore/partition"
	"github.com/ringkeeper/gossipcore/ring"
)

// Store records, per keyspace, which ranges have already been streamed
// in durably so a restarted or retried plan doesn't re-fetch them.
type Store interface {
	// AvailableRanges returns the ranges already durably received for
	// keyspace under partitioner p, keyed by ring.Range.Key().
	AvailableRanges(keyspace string, p partition.Partitioner) map[string]ring.Range
	// MarkAvailable records that r has been durably received for
	// keyspace, the sink callback the planner invokes once a fetch
	// completes.
	MarkAvailable(keyspace string, r ring.Range)
}

// InMemoryStore is a trivial Store used by tests and by nodes that
// don't need the range-fetch skip to survive a restart.
type InMemoryStore struct {
	mu   sync.Mutex
	byKS map[string]map[string]ring.Range
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byKS: make(map[string]map[string]ring.Range)}
}

func (s *InMemoryStore) AvailableRanges(keyspace string, _ partition.Partitioner) map[string]ring.Range {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]ring.Range, len(s.byKS[keyspace]))
	for k, r := range s.byKS[keyspace] {
		out[k] = r
	}
	return out
}

func (s *InMemoryStore) MarkAvailable(keyspace string, r ring.Range) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.byKS[keyspace] == nil {
		s.byKS[keyspace] = make(map[string]ring.Range)
	}
	s.byKS[keyspace][r.Key()] = r
}
