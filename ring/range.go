// Package ring holds the authoritative local view of how tokens map to
// endpoints: the token-to-endpoint map itself, the transient
// bootstrap/leaving/moving/replacement sets that arise during topology
// changes, and the derived pending-ranges cache (§3, §4.4).
package ring

import "github.com/ringkeeper/gossipcore/partition"

// Range is a left-exclusive, right-inclusive arc (left, right] on the
// token ring. Left == Right denotes the full ring (§3).
type Range struct {
	Left  partition.Token
	Right partition.Token
}

// IsFullRing reports whether r spans every token.
func (r Range) IsFullRing() bool {
	return r.Left.Compare(r.Right) == 0
}

// Key returns a value safe to use as a map key. Range cannot be used
// directly as a map key: its Token fields are interfaces, and
// ByteToken's pointer-valued representation would compare by identity
// rather than by the value the token represents.
func (r Range) Key() string {
	return r.Left.String() + ".." + r.Right.String()
}

// IsWrapAround reports whether r crosses the ring's minimum-token seam,
// i.e. Left sorts after Right.
func (r Range) IsWrapAround() bool {
	return !r.IsFullRing() && r.Left.Compare(r.Right) > 0
}

// Contains reports whether t falls within (Left, Right].
func (r Range) Contains(t partition.Token) bool {
	if r.IsFullRing() {
		return true
	}
	if r.Left.Compare(r.Right) < 0 {
		return r.Left.Compare(t) < 0 && t.Compare(r.Right) <= 0
	}
	return r.Left.Compare(t) < 0 || t.Compare(r.Right) <= 0
}

// unwrap splits a wrapping range into two non-wrapping fragments at the
// ring's minimum token; non-wrapping ranges and the full ring unwrap to
// themselves.
func (r Range) unwrap(min partition.Token) []Range {
	if r.IsFullRing() || !r.IsWrapAround() {
		return []Range{r}
	}
	return []Range{{Left: r.Left, Right: min}, {Left: min, Right: r.Right}}
}

func empty(r Range) bool {
	return !r.IsFullRing() && r.Left.Compare(r.Right) == 0
}

// intersectFragment intersects two non-wrapping fragments (Left <=
// Right once unwrapped), returning the overlap if any.
func intersectFragment(x, y Range) (Range, bool) {
	left := x.Left
	if y.Left.Compare(left) > 0 {
		left = y.Left
	}
	right := x.Right
	if y.Right.Compare(right) < 0 {
		right = y.Right
	}
	if left.Compare(right) < 0 {
		return Range{Left: left, Right: right}, true
	}
	return Range{}, false
}

// subtractFragment removes y from non-wrapping fragment x, returning up
// to two remaining pieces.
func subtractFragment(x, y Range) []Range {
	overlap, ok := intersectFragment(x, y)
	if !ok {
		return []Range{x}
	}
	var out []Range
	if x.Left.Compare(overlap.Left) < 0 {
		out = append(out, Range{Left: x.Left, Right: overlap.Left})
	}
	if overlap.Right.Compare(x.Right) < 0 {
		out = append(out, Range{Left: overlap.Right, Right: x.Right})
	}
	return out
}

// Intersection returns the overlap between a and b as a set of ranges
// (wraparound ranges may split the overlap into two pieces). min is the
// partitioner's minimum token, needed to unwrap wraparound operands.
func Intersection(a, b Range, min partition.Token) []Range {
	if a.IsFullRing() {
		if b.IsFullRing() {
			return []Range{b}
		}
		return []Range{b}
	}
	if b.IsFullRing() {
		return []Range{a}
	}

	var out []Range
	for _, x := range a.unwrap(min) {
		if empty(x) {
			continue
		}
		for _, y := range b.unwrap(min) {
			if empty(y) {
				continue
			}
			if iv, ok := intersectFragment(x, y); ok && !empty(iv) {
				out = append(out, iv)
			}
		}
	}
	return out
}

// Subtract returns what remains of a once every token also in b is
// removed, as a set of (possibly several, non-recombined) ranges. min
// is the partitioner's minimum token.
//
// This operates fragment-by-fragment after unwrapping both operands at
// min rather than recombining adjacent fragments back into a single
// wraparound range; callers that only need set membership (as the
// pending-range calculation in this package does) are unaffected by the
// extra fragmentation.
func Subtract(a, b Range, min partition.Token) []Range {
	if b.IsFullRing() {
		return nil
	}
	if a.IsFullRing() {
		// The complement of a proper range (L, R] on the ring is (R, L].
		complement := Range{Left: b.Right, Right: b.Left}
		if empty(complement) {
			return nil
		}
		return []Range{complement}
	}

	remaining := a.unwrap(min)
	for _, y := range b.unwrap(min) {
		if empty(y) {
			continue
		}
		var next []Range
		for _, x := range remaining {
			if empty(x) {
				continue
			}
			next = append(next, subtractFragment(x, y)...)
		}
		remaining = next
	}
	return remaining
}
