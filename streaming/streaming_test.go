package streaming

import (
	"math/big"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ringkeeper/gossipcore/coreerr"
	"github.com/ringkeeper/gossipcore/endpoint"
	"github.com/ringkeeper/gossipcore/partition"
	"github.com/ringkeeper/gossipcore/replication"
	"github.com/ringkeeper/gossipcore/ring"
	"github.com/ringkeeper/gossipcore/snitch"
	"github.com/ringkeeper/gossipcore/statestore"
)

func mkEP(t *testing.T, port int) endpoint.ID {
	t.Helper()
	addr, err := endpoint.NewAddrPort("10.0.0.1", port)
	require.NoError(t, err)
	return endpoint.New(uuid.New(), addr, addr, addr, addr)
}

func mkTok(v int64) partition.Token { return partition.NewByteToken(big.NewInt(v)) }

func allAlive(endpoint.ID) bool { return true }

// TestBootstrapNonStrictYieldsSingleSource simulates scenario 2 of §8:
// cluster {A@10, B@20, C@30}, RF=3, D bootstraps at 15 wanting (10,15].
func TestBootstrapNonStrictYieldsSingleSource(t *testing.T) {
	m := ring.New(partition.Murmur3Partitioner{}, nil)
	a, b, c := mkEP(t, 1), mkEP(t, 2), mkEP(t, 3)
	d := mkEP(t, 4)
	m.UpdateNormalTokens(a, []partition.Token{mkTok(10)})
	m.UpdateNormalTokens(b, []partition.Token{mkTok(20)})
	m.UpdateNormalTokens(c, []partition.Token{mkTok(30)})

	strategy := replication.SimpleStrategy{ReplicationFactor: 3}
	desired := []ring.Range{{Left: mkTok(10), Right: mkTok(15)}}

	sources, err := NonStrictSources(desired, strategy, snitch.SimpleSnitch{}, m, d)
	require.NoError(t, err)
	require.Len(t, sources, 1)
	require.ElementsMatch(t, []endpoint.ID{a, b, c}, sources[0].Candidates)

	filters := []SourceFilter{
		FailureDetectorSourceFilter{IsAlive: allAlive},
		ExcludeLocalNodeFilter{Local: d},
	}
	fetchMap, err := SimpleFetchMap(sources, filters, d, 3, false, nil)
	require.NoError(t, err)
	require.Len(t, fetchMap, 1)
	AssertPostconditions(fetchMap, sources, filters, d)
}

// TestStrictReplacementFindsUniqueSource simulates scenario 3 of §8: D
// replaces B (same tokens), strict mode; the unique source must not be
// B or D.
func TestStrictReplacementFindsUniqueSource(t *testing.T) {
	before := ring.New(partition.Murmur3Partitioner{}, nil)
	a, b, c := mkEP(t, 1), mkEP(t, 2), mkEP(t, 3)
	d := mkEP(t, 4)
	before.UpdateNormalTokens(a, []partition.Token{mkTok(10)})
	before.UpdateNormalTokens(b, []partition.Token{mkTok(20)})
	before.UpdateNormalTokens(c, []partition.Token{mkTok(30)})

	after := ring.New(partition.Murmur3Partitioner{}, nil)
	after.UpdateNormalTokens(a, []partition.Token{mkTok(10)})
	after.UpdateNormalTokens(c, []partition.Token{mkTok(30)})
	after.UpdateNormalTokens(d, []partition.Token{mkTok(20)}) // d replaces b

	strategy := replication.SimpleStrategy{ReplicationFactor: 3}
	desired := []ring.Range{{Left: mkTok(10), Right: mkTok(20)}}

	sources, err := StrictSources(desired, strategy, before, after, allAlive)
	require.NoError(t, err)
	require.Len(t, sources, 1)
	require.Len(t, sources[0].Candidates, 1)
	source := sources[0].Candidates[0]
	require.NotEqual(t, b, source, "handoff source must not be the endpoint being replaced away from")
	require.NotEqual(t, d, source, "handoff source must not be the replacement itself")
}

func TestStrictSourceDownFailsWithStrictConsistencyError(t *testing.T) {
	before := ring.New(partition.Murmur3Partitioner{}, nil)
	a, b, c := mkEP(t, 1), mkEP(t, 2), mkEP(t, 3)
	d := mkEP(t, 4)
	before.UpdateNormalTokens(a, []partition.Token{mkTok(10)})
	before.UpdateNormalTokens(b, []partition.Token{mkTok(20)})
	before.UpdateNormalTokens(c, []partition.Token{mkTok(30)})

	after := ring.New(partition.Murmur3Partitioner{}, nil)
	after.UpdateNormalTokens(a, []partition.Token{mkTok(10)})
	after.UpdateNormalTokens(c, []partition.Token{mkTok(30)})
	after.UpdateNormalTokens(d, []partition.Token{mkTok(20)})

	strategy := replication.SimpleStrategy{ReplicationFactor: 3}
	desired := []ring.Range{{Left: mkTok(10), Right: mkTok(20)}}

	noneAlive := func(endpoint.ID) bool { return false }
	_, err := StrictSources(desired, strategy, before, after, noneAlive)
	require.Error(t, err)
	require.ErrorIs(t, err, coreerr.Sentinel(coreerr.StrictConsistencyError))
}

func TestOptimizedFetchMapBalancesLoad(t *testing.T) {
	local := mkEP(t, 99)
	a, b := mkEP(t, 1), mkEP(t, 2)
	sources := []RangeSources{
		{Range: ring.Range{Left: mkTok(0), Right: mkTok(10)}, Candidates: []endpoint.ID{a, b}},
		{Range: ring.Range{Left: mkTok(10), Right: mkTok(20)}, Candidates: []endpoint.ID{a, b}},
		{Range: ring.Range{Left: mkTok(20), Right: mkTok(30)}, Candidates: []endpoint.ID{a, b}},
	}
	fetchMap, err := OptimizedFetchMap(sources, nil, local)
	require.NoError(t, err)
	total := 0
	for _, ranges := range fetchMap {
		total += len(ranges)
		require.LessOrEqual(t, len(ranges), 2, "load should be balanced across the two candidates")
	}
	require.Equal(t, 3, total)
}

func TestSkipAlreadyStreamedDropsCompletedRanges(t *testing.T) {
	store := statestore.NewInMemoryStore()
	r1 := ring.Range{Left: mkTok(0), Right: mkTok(10)}
	r2 := ring.Range{Left: mkTok(10), Right: mkTok(20)}
	store.MarkAvailable("ks", r1)

	remaining := SkipAlreadyStreamed([]ring.Range{r1, r2}, store, "ks", partition.Murmur3Partitioner{})
	require.Equal(t, []ring.Range{r2}, remaining)
}
