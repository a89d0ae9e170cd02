package ring

import (
	"math/big"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ringkeeper/gossipcore/endpoint"
	"github.com/ringkeeper/gossipcore/partition"
)

func newEndpoint(t *testing.T, port int) endpoint.ID {
	t.Helper()
	addr, err := endpoint.NewAddrPort("10.0.0.1", port)
	require.NoError(t, err)
	return endpoint.New(uuid.New(), addr, addr, addr, addr)
}

func tok(v int64) partition.Token {
	return partition.NewByteToken(big.NewInt(v))
}

func assertAscending(t *testing.T, toks []partition.Token) {
	t.Helper()
	for i := 1; i < len(toks); i++ {
		require.Less(t, toks[i-1].Compare(toks[i]), 1, "sortedTokens must be strictly ascending")
		require.NotEqual(t, 0, toks[i-1].Compare(toks[i]))
	}
}

func TestUpdateNormalTokensKeepsSortedTokensConsistent(t *testing.T) {
	m := New(partition.Murmur3Partitioner{}, nil)
	a, b := newEndpoint(t, 1), newEndpoint(t, 2)

	m.UpdateNormalTokens(a, []partition.Token{tok(30), tok(10)})
	m.UpdateNormalTokens(b, []partition.Token{tok(20), tok(40)})

	sorted := m.SortedTokens()
	require.Len(t, sorted, 4)
	assertAscending(t, sorted)

	for _, tt := range sorted {
		owner, ok := m.EndpointFor(tt)
		require.True(t, ok)
		require.Contains(t, []endpoint.ID{a, b}, owner)
	}
}

func TestUpdateNormalTokensReleasesStaleTokens(t *testing.T) {
	m := New(partition.Murmur3Partitioner{}, nil)
	a := newEndpoint(t, 1)

	m.UpdateNormalTokens(a, []partition.Token{tok(10), tok(20)})
	m.UpdateNormalTokens(a, []partition.Token{tok(20), tok(30)})

	sorted := m.SortedTokens()
	require.Len(t, sorted, 2)
	_, ok := m.EndpointFor(tok(10))
	require.False(t, ok, "token 10 must be released once a no longer owns it")
}

func TestPrimaryRangeWrapsAtSmallestToken(t *testing.T) {
	m := New(partition.Murmur3Partitioner{}, nil)
	a, b, c := newEndpoint(t, 1), newEndpoint(t, 2), newEndpoint(t, 3)
	m.UpdateNormalTokens(a, []partition.Token{tok(10)})
	m.UpdateNormalTokens(b, []partition.Token{tok(20)})
	m.UpdateNormalTokens(c, []partition.Token{tok(30)})

	r := m.PrimaryRange(tok(10))
	require.Equal(t, tok(30).String(), r.Left.String())
	require.Equal(t, tok(10).String(), r.Right.String())
	require.True(t, r.IsWrapAround())
}

func TestAddBootstrapTokensRejectsCollision(t *testing.T) {
	m := New(partition.Murmur3Partitioner{}, nil)
	a, b := newEndpoint(t, 1), newEndpoint(t, 2)

	require.NoError(t, m.AddBootstrapTokens([]partition.Token{tok(10)}, a, nil))
	err := m.AddBootstrapTokens([]partition.Token{tok(10)}, b, nil)
	require.Error(t, err)
}

func TestAddBootstrapTokensAllowsReplacementOfOriginal(t *testing.T) {
	m := New(partition.Murmur3Partitioner{}, nil)
	orig, repl := newEndpoint(t, 1), newEndpoint(t, 2)
	m.UpdateNormalTokens(orig, []partition.Token{tok(10)})

	err := m.AddBootstrapTokens([]partition.Token{tok(10)}, repl, &orig)
	require.NoError(t, err)
}

func TestIntersectionWraparound(t *testing.T) {
	min := tok(0)
	a := Range{Left: tok(90), Right: tok(10)} // wraps
	b := Range{Left: tok(5), Right: tok(95)}

	got := Intersection(a, b, min)
	require.NotEmpty(t, got)
	for _, r := range got {
		require.False(t, r.IsWrapAround())
	}
}

func TestSubtractRemovesOverlap(t *testing.T) {
	min := tok(0)
	a := Range{Left: tok(0), Right: tok(100)}
	b := Range{Left: tok(40), Right: tok(60)}

	got := Subtract(a, b, min)
	require.Len(t, got, 2)
	require.Equal(t, tok(0).String(), got[0].Left.String())
	require.Equal(t, tok(40).String(), got[0].Right.String())
	require.Equal(t, tok(60).String(), got[1].Left.String())
	require.Equal(t, tok(100).String(), got[1].Right.String())
}

func TestSubtractFullRingOperandLeavesNothing(t *testing.T) {
	min := tok(0)
	a := Range{Left: tok(5), Right: tok(5)} // full ring
	b := Range{Left: tok(10), Right: tok(20)}
	// subtracting the full ring removes every token of b
	require.Empty(t, Subtract(b, a, min))
}

func TestCloneAfterAllLeftRemovesLeavingEndpoints(t *testing.T) {
	m := New(partition.Murmur3Partitioner{}, nil)
	a, b := newEndpoint(t, 1), newEndpoint(t, 2)
	m.UpdateNormalTokens(a, []partition.Token{tok(10)})
	m.UpdateNormalTokens(b, []partition.Token{tok(20)})
	m.AddLeavingEndpoint(a)

	clone := m.CloneAfterAllLeft()

	_, stillOwns := clone.EndpointFor(tok(10))
	require.False(t, stillOwns)
	owner, ok := clone.EndpointFor(tok(20))
	require.True(t, ok)
	require.Equal(t, b, owner)

	// original metadata is untouched
	owner, ok = m.EndpointFor(tok(10))
	require.True(t, ok)
	require.Equal(t, a, owner)
}

func TestCloneAfterAllSettledAppliesMoves(t *testing.T) {
	m := New(partition.Murmur3Partitioner{}, nil)
	a := newEndpoint(t, 1)
	m.UpdateNormalTokens(a, []partition.Token{tok(10)})
	m.AddMovingEndpoint(tok(50), a)

	clone := m.CloneAfterAllSettled()

	owner, ok := clone.EndpointFor(tok(50))
	require.True(t, ok)
	require.Equal(t, a, owner)
	_, staleOwns := clone.EndpointFor(tok(10))
	require.False(t, staleOwns)
}

func TestCloneOnlyTokenMapSnapshotIsIndependent(t *testing.T) {
	m := New(partition.Murmur3Partitioner{}, nil)
	a := newEndpoint(t, 1)
	m.UpdateNormalTokens(a, []partition.Token{tok(10)})

	snap := m.CloneOnlyTokenMap()
	require.Len(t, snap.SortedTokens, 1)

	b := newEndpoint(t, 2)
	m.UpdateNormalTokens(b, []partition.Token{tok(20)})

	require.Len(t, snap.SortedTokens, 1, "snapshot must not observe later mutations")
}
