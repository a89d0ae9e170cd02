package coreerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsMatchesOnKindNotMessage(t *testing.T) {
	err := New(NoSourcesError, "streamer.plan", fmt.Errorf("range (0,10]"))
	require.True(t, errors.Is(err, Sentinel(NoSourcesError)))
	require.False(t, errors.Is(err, Sentinel(StrictConsistencyError)))
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := New(ProtocolError, "gossip.digest", cause)
	require.ErrorIs(t, err, cause)
}
