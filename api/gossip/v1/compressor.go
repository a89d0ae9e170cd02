package gossipv1

import (
	"io"

	"github.com/golang/snappy"
	"google.golang.org/grpc/encoding"
)

// SnappyCompressorName is registered with grpc/encoding so
// grpc.CallOption(grpc.UseCompressor(SnappyCompressorName)) compresses
// SYN/ACK/ACK2 bodies in flight. Deltas carry full application-state
// snapshots during bootstrap and shadow rounds, which is where this
// pays for itself.
const SnappyCompressorName = "snappy"

type snappyCompressor struct{}

func (snappyCompressor) Name() string { return SnappyCompressorName }

func (snappyCompressor) Compress(w io.Writer) (io.WriteCloser, error) {
	return snappy.NewBufferedWriter(w), nil
}

func (snappyCompressor) Decompress(r io.Reader) (io.Reader, error) {
	return snappy.NewReader(r), nil
}

func init() {
	encoding.RegisterCompressor(snappyCompressor{})
}
