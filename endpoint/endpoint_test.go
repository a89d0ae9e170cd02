package endpoint

import (
	"bytes"
	"net/netip"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func zeroAddrPort() netip.AddrPort {
	return netip.AddrPort{}
}

func TestNewAddrPortRejectsOutOfRangePort(t *testing.T) {
	_, err := NewAddrPort("10.0.0.1", 70000)
	require.Error(t, err)

	_, err = NewAddrPort("10.0.0.1", -1)
	require.Error(t, err)

	_, err = NewAddrPort("10.0.0.1", 65535)
	require.NoError(t, err)
}

func TestEqualityIncludesHostID(t *testing.T) {
	a1, err := NewAddrPort("10.0.0.1", 7000)
	require.NoError(t, err)

	h1 := uuid.New()
	h2 := uuid.New()

	e1 := New(h1, a1, a1, zeroAddrPort(), zeroAddrPort())
	e2 := New(h2, a1, a1, zeroAddrPort(), zeroAddrPort())

	require.False(t, e1.Equal(e2), "same addresses but different host UUIDs must not be equal")
	require.True(t, e1.Equal(New(h1, a1, a1, zeroAddrPort(), zeroAddrPort())))
}

func TestRoundTripAddrAllVariants(t *testing.T) {
	v4, err := NewAddrPort("192.168.1.10", 7000)
	require.NoError(t, err)
	v6, err := NewAddrPort("fe80::1", 7000)
	require.NoError(t, err)
	hostID := uuid.New()

	for _, tc := range []struct {
		name    string
		version int
		hostID  uuid.UUID
	}{
		{"v4-legacy", 39, uuid.Nil},
		{"v6-legacy", 39, uuid.Nil},
		{"v4-port-only", 40, uuid.Nil},
		{"v6-port-only", 40, uuid.Nil},
		{"v4-port-and-uuid", 40, hostID},
		{"v6-port-and-uuid", 40, hostID},
	} {
		t.Run(tc.name, func(t *testing.T) {
			addr := v4
			if tc.name[1] == '6' {
				addr = v6
			}
			var buf bytes.Buffer
			require.NoError(t, WriteAddr(&buf, tc.version, addr, tc.hostID))

			gotAddr, gotHostID, err := ReadAddr(&buf, tc.version)
			require.NoError(t, err)
			want := addr
			if tc.version < VersionThreshold40 {
				want = netip.AddrPortFrom(addr.Addr(), 0) // the legacy form carries no port
			}
			require.Equal(t, want, gotAddr)
			require.Equal(t, tc.hostID, gotHostID)
		})
	}
}

func TestReadAddrRejectsBadSize(t *testing.T) {
	buf := bytes.NewBuffer([]byte{99, 1, 2, 3})
	_, _, err := ReadAddr(buf, 40)
	require.Error(t, err)
	var badSize ErrBadSize
	require.ErrorAs(t, err, &badSize)
	require.Equal(t, byte(99), badSize.Size)
}
