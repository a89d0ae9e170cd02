package endpoint

import (
	"encoding/binary"
	"fmt"
	"io"
	"net/netip"

	"github.com/google/uuid"
)

// VersionThreshold40 is the protocol version at which the wire format
// gained port and host-UUID awareness (§6).
const VersionThreshold40 = 40

// WriteAddr serializes a single address per the protocol-version-aware,
// size-prefixed scheme of §6:
//
//	version <  40:               byte size | raw IP            (size ∈ {4, 16})
//	version >= 40, no host id:    byte size | address | uint16 port (size ∈ {6, 18})
//	version >= 40, with host id:  byte size | address | uint16 port | uint64 msb | uint64 lsb (size ∈ {22, 34})
//
// hostID is ignored (and must be uuid.Nil) below VersionThreshold40.
func WriteAddr(w io.Writer, version int, addr netip.AddrPort, hostID uuid.UUID) error {
	ip := addr.Addr()
	if !ip.IsValid() {
		return fmt.Errorf("endpoint: cannot serialize invalid address")
	}
	raw := ip.As16()
	ipBytes := raw[:]
	if ip.Is4() {
		v4 := ip.As4()
		ipBytes = v4[:]
	}

	var size byte
	switch {
	case version < VersionThreshold40:
		size = byte(len(ipBytes))
	case hostID == uuid.Nil:
		size = byte(len(ipBytes) + 2)
	default:
		size = byte(len(ipBytes) + 2 + 16)
	}

	if err := binary.Write(w, binary.BigEndian, size); err != nil {
		return err
	}
	if _, err := w.Write(ipBytes); err != nil {
		return err
	}
	if version < VersionThreshold40 {
		return nil
	}
	if err := binary.Write(w, binary.BigEndian, addr.Port()); err != nil {
		return err
	}
	if hostID == uuid.Nil {
		return nil
	}
	msb := binary.BigEndian.Uint64(hostID[0:8])
	lsb := binary.BigEndian.Uint64(hostID[8:16])
	if err := binary.Write(w, binary.BigEndian, msb); err != nil {
		return err
	}
	return binary.Write(w, binary.BigEndian, lsb)
}

// ReadAddr deserializes an address written by WriteAddr, dispatching on
// the leading size byte. Any size outside {4, 16, 6, 18, 22, 34} is a
// protocol violation (§6) and is reported via ErrBadSize.
func ReadAddr(r io.Reader, version int) (netip.AddrPort, uuid.UUID, error) {
	var size byte
	if err := binary.Read(r, binary.BigEndian, &size); err != nil {
		return netip.AddrPort{}, uuid.Nil, err
	}

	var ipLen int
	var hasPort, hasHostID bool
	switch size {
	case 4, 16:
		ipLen = int(size)
	case 6, 18:
		ipLen = int(size) - 2
		hasPort = true
	case 22, 34:
		ipLen = int(size) - 2 - 16
		hasPort = true
		hasHostID = true
	default:
		return netip.AddrPort{}, uuid.Nil, ErrBadSize{Size: size}
	}

	ipBytes := make([]byte, ipLen)
	if _, err := io.ReadFull(r, ipBytes); err != nil {
		return netip.AddrPort{}, uuid.Nil, err
	}
	ip, ok := netip.AddrFromSlice(ipBytes)
	if !ok {
		return netip.AddrPort{}, uuid.Nil, fmt.Errorf("endpoint: malformed address bytes")
	}

	var port uint16
	if hasPort {
		if err := binary.Read(r, binary.BigEndian, &port); err != nil {
			return netip.AddrPort{}, uuid.Nil, err
		}
	}

	hostID := uuid.Nil
	if hasHostID {
		var msb, lsb uint64
		if err := binary.Read(r, binary.BigEndian, &msb); err != nil {
			return netip.AddrPort{}, uuid.Nil, err
		}
		if err := binary.Read(r, binary.BigEndian, &lsb); err != nil {
			return netip.AddrPort{}, uuid.Nil, err
		}
		binary.BigEndian.PutUint64(hostID[0:8], msb)
		binary.BigEndian.PutUint64(hostID[8:16], lsb)
	}

	return netip.AddrPortFrom(ip, port), hostID, nil
}

// ErrBadSize is a ProtocolError-class failure: the leading size byte of
// a serialized address did not match any of the six valid wire variants.
type ErrBadSize struct {
	Size byte
}

func (e ErrBadSize) Error() string {
	return fmt.Sprintf("endpoint: invalid address size prefix %d", e.Size)
}
