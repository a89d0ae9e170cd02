// Package partition defines the pluggable token space the ring and
// streaming planner operate over. The core only depends on the
// contract: total order, a minimum token, and a uniform random
// generator (§3).
package partition

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Token is an opaque, totally-ordered value produced by a Partitioner.
type Token interface {
	// Compare returns <0, 0, >0 as the receiver is less than, equal to,
	// or greater than other. Both tokens must come from the same
	// Partitioner.
	Compare(other Token) int
	String() string
}

// Partitioner produces and orders Tokens for one key space.
type Partitioner interface {
	// Token maps an arbitrary key to its token.
	Token(key []byte) Token
	// MinimumToken is the lower bound no real key ever hashes below; it
	// anchors wraparound arithmetic on the ring.
	MinimumToken() Token
	// RandomToken returns a uniformly distributed token, used when a
	// bootstrapping node must pick tokens for itself.
	RandomToken() Token
	// ParseToken recovers a Token from its String() form, the inverse
	// needed to read the TOKENS application-state value gossip carries
	// on the wire (§4.4's ring-projection subscriber).
	ParseToken(s string) (Token, error)
	// Name identifies the partitioner on the wire (GossipDigestSyn
	// carries it so peers can refuse to gossip across partitioners).
	Name() string
}

// ByteToken is a Token backed by a fixed-width big-endian integer, used
// by the Murmur3-style partitioner (64-bit signed range, matching the
// reference partitioner's token space); tests also build tokens directly
// with NewByteToken.
type ByteToken struct {
	bits *big.Int
}

// NewByteToken wraps an arbitrary integer value as a token.
func NewByteToken(v *big.Int) ByteToken {
	return ByteToken{bits: new(big.Int).Set(v)}
}

func (t ByteToken) Compare(other Token) int {
	o, ok := other.(ByteToken)
	if !ok {
		panic("partition: cannot compare tokens from different partitioners")
	}
	return t.bits.Cmp(o.bits)
}

func (t ByteToken) String() string {
	return t.bits.String()
}

// Murmur3Partitioner assigns tokens in the signed 64-bit range using a
// murmur3-style mix of the input key, mirroring the reference
// partitioner's total order over that range without reproducing its
// exact hash (the core only requires a consistent total order and
// uniform spread, per §3).
type Murmur3Partitioner struct{}

var minToken = NewByteToken(big.NewInt(-1 << 63))

func (Murmur3Partitioner) Token(key []byte) Token {
	return NewByteToken(big.NewInt(int64(murmur3Mix(key))))
}

func (Murmur3Partitioner) MinimumToken() Token { return minToken }

func (Murmur3Partitioner) ParseToken(s string) (Token, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("partition: %q is not a valid murmur3 token", s)
	}
	return NewByteToken(v), nil
}

func (Murmur3Partitioner) RandomToken() Token {
	max := new(big.Int).Lsh(big.NewInt(1), 64)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		panic(err)
	}
	signed := new(big.Int).Sub(n, new(big.Int).Lsh(big.NewInt(1), 63))
	return NewByteToken(signed)
}

func (Murmur3Partitioner) Name() string {
	return "Murmur3Partitioner"
}

// murmur3Mix is a 64-bit finalizer mix (murmur3's fmix64), applied to a
// simple FNV-style fold of key so distinct keys spread uniformly across
// the signed 64-bit token space.
func murmur3Mix(key []byte) uint64 {
	var h uint64 = 0xcbf29ce484222325
	for _, b := range key {
		h ^= uint64(b)
		h *= 0x100000001b3
	}
	h ^= h >> 33
	h *= 0xff51afd7ed558ccd
	h ^= h >> 33
	h *= 0xc4ceb9fe1a85ec53
	h ^= h >> 33
	return h
}
