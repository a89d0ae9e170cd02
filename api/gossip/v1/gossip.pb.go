// Package gossipv1 mirrors proto/gossip/v1/gossip.proto. Message
// framing uses a JSON codec (see codec.go) rather than a protoc-gen-go
// pass, so these types are plain structs instead of protoreflect
// messages; the .proto file remains the source of truth for the wire
// shape and field numbering intent.
package gossipv1

// EndpointRef carries every field endpoint.ID equality depends on, so
// it round-trips to an identical identity on the far side.
type EndpointRef struct {
	HostID          string `json:"host_id"`
	Listen          string `json:"listen"`
	Broadcast       string `json:"broadcast"`
	Native          string `json:"native"`
	BroadcastNative string `json:"broadcast_native"`
}

type Digest struct {
	Endpoint   *EndpointRef `json:"endpoint"`
	Generation int64        `json:"generation"`
	MaxVersion int32        `json:"max_version"`
}

type VersionedValue struct {
	Value   string `json:"value"`
	Version int32  `json:"version"`
}

type Heartbeat struct {
	Generation int64 `json:"generation"`
	Version    int32 `json:"version"`
}

type StateEntry struct {
	Key   int32          `json:"key"`
	Value VersionedValue `json:"value"`
}

type StateDelta struct {
	Heartbeat Heartbeat    `json:"heartbeat"`
	States    []StateEntry `json:"states"`
}

type EndpointDelta struct {
	Endpoint *EndpointRef `json:"endpoint"`
	Delta    StateDelta   `json:"delta"`
}

type SynMessage struct {
	ClusterName     string       `json:"cluster_name"`
	PartitionerName string       `json:"partitioner_name"`
	Digests         []Digest     `json:"digests"`
	Sender          *EndpointRef `json:"sender"`
}

type AckMessage struct {
	RequestList []Digest        `json:"request_list"`
	Deltas      []EndpointDelta `json:"deltas"`
}

type Ack2Message struct {
	Deltas []EndpointDelta `json:"deltas"`
	Sender *EndpointRef    `json:"sender"`
}

type ShutdownMessage struct {
	Sender *EndpointRef `json:"sender"`
}

type EchoMessage struct {
	Sender *EndpointRef `json:"sender"`
}

type Empty struct{}
