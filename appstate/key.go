package appstate

// Key enumerates the fixed set of application-state slots an endpoint
// can publish. The ordinal (the iota value) is what goes on the wire in
// EndpointState serialization (§6); an unknown ordinal on read is a
// fatal protocol violation, not a value to skip.
type Key int

const (
	Status Key = iota
	StatusWithPort
	HostID
	Tokens
	DC
	Rack
	Schema
	ReleaseVersion
	InternalAddress
	RPCAddress
	NativeAddress
	RPCReady
	Severity
	RemovalCoordinator

	numKeys
)

var keyNames = [numKeys]string{
	Status:             "STATUS",
	StatusWithPort:      "STATUS_WITH_PORT",
	HostID:             "HOST_ID",
	Tokens:             "TOKENS",
	DC:                 "DC",
	Rack:               "RACK",
	Schema:             "SCHEMA",
	ReleaseVersion:     "RELEASE_VERSION",
	InternalAddress:    "INTERNAL_ADDRESS",
	RPCAddress:         "RPC_ADDRESS",
	NativeAddress:      "NATIVE_ADDRESS",
	RPCReady:           "RPC_READY",
	Severity:           "SEVERITY",
	RemovalCoordinator: "REMOVAL_COORDINATOR",
}

func (k Key) String() string {
	if k < 0 || int(k) >= len(keyNames) {
		return "UNKNOWN"
	}
	return keyNames[k]
}

// Valid reports whether ordinal names a known key. Readers of the wire
// format must treat an invalid ordinal as ProtocolError, not a value to
// silently drop.
func Valid(ordinal int) bool {
	return ordinal >= 0 && ordinal < int(numKeys)
}
