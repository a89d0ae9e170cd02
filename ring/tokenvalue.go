package ring

import (
	"fmt"
	"strings"

	"github.com/ringkeeper/gossipcore/partition"
)

// EncodeTokens renders tokens as the TOKENS application-state value
// gossip carries on the wire: a comma-separated list of each token's
// String() form.
func EncodeTokens(tokens []partition.Token) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = t.String()
	}
	return strings.Join(parts, ",")
}

// ParseTokens is EncodeTokens's inverse, using p to recover each token
// from its wire form.
func ParseTokens(p partition.Partitioner, value string) ([]partition.Token, error) {
	if value == "" {
		return nil, nil
	}
	parts := strings.Split(value, ",")
	out := make([]partition.Token, len(parts))
	for i, s := range parts {
		t, err := p.ParseToken(s)
		if err != nil {
			return nil, fmt.Errorf("ring: parsing token %d of %d: %w", i+1, len(parts), err)
		}
		out[i] = t
	}
	return out, nil
}
