package gossipv1

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// jsonCodec implements grpc/encoding.Codec over encoding/json. Real
// generated stubs would use google.golang.org/protobuf's wire format;
// this module skips the protoc step and registers under the "proto"
// name so grpc.Server/grpc.ClientConn use it without any per-call
// content-subtype negotiation on either side.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "proto" }

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
