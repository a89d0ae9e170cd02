package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	gossipv1 "github.com/ringkeeper/gossipcore/api/gossip/v1"
	"github.com/ringkeeper/gossipcore/endpoint"
	"github.com/ringkeeper/gossipcore/gossip"
)

// GRPCTransport implements gossip.Transport by dialing each peer's
// Listen address over gRPC. Connections are cached and reused; a dead
// connection is dropped so the next call redials rather than wedging on
// a stale one.
type GRPCTransport struct {
	local endpoint.ID

	mu       sync.Mutex
	conns    map[endpoint.ID]*grpc.ClientConn
	dialOpts []grpc.DialOption
	timeout  time.Duration

	logf func(format string, args ...interface{})
}

// NewGRPCTransport builds a transport identifying outgoing calls as
// coming from local. dialOpts are appended after the defaults
// (insecure transport credentials, since inter-node traffic here runs
// on a private cluster network) so callers can add TLS or interceptors.
func NewGRPCTransport(local endpoint.ID, timeout time.Duration, logf func(string, ...interface{}), dialOpts ...grpc.DialOption) *GRPCTransport {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logf == nil {
		logf = func(string, ...interface{}) {}
	}
	opts := append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, dialOpts...)
	return &GRPCTransport{
		local:    local,
		conns:    make(map[endpoint.ID]*grpc.ClientConn),
		dialOpts: opts,
		timeout:  timeout,
		logf:     logf,
	}
}

func (t *GRPCTransport) conn(peer endpoint.ID) (*grpc.ClientConn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if cc, ok := t.conns[peer]; ok {
		return cc, nil
	}
	target := peer.Listen.String()
	if !peer.Listen.IsValid() {
		return nil, fmt.Errorf("transport: peer %s has no listen address", peer)
	}
	cc, err := grpc.NewClient(target, t.dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("transport: dialing %s: %w", peer, err)
	}
	t.conns[peer] = cc
	return cc, nil
}

func (t *GRPCTransport) drop(peer endpoint.ID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if cc, ok := t.conns[peer]; ok {
		cc.Close()
		delete(t.conns, peer)
	}
}

func (t *GRPCTransport) client(peer endpoint.ID) (gossipv1.GossipServiceClient, error) {
	cc, err := t.conn(peer)
	if err != nil {
		return nil, err
	}
	return gossipv1.NewGossipServiceClient(cc), nil
}

func (t *GRPCTransport) callCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), t.timeout)
}

// SendSyn opens the SYN/ACK leg of a round with peer.
func (t *GRPCTransport) SendSyn(peer endpoint.ID, syn gossip.Syn) (gossip.Ack, error) {
	client, err := t.client(peer)
	if err != nil {
		return gossip.Ack{}, err
	}

	ctx, cancel := t.callCtx()
	defer cancel()

	resp, err := client.Gossip(ctx, &gossipv1.SynMessage{
		ClusterName:     syn.ClusterName,
		PartitionerName: syn.PartitionerName,
		Digests:         toDigestList(syn.Digests),
		Sender:          toEndpointRef(t.local),
	}, grpc.UseCompressor(gossipv1.SnappyCompressorName))
	if err != nil {
		t.drop(peer)
		return gossip.Ack{}, fmt.Errorf("transport: syn to %s: %w", peer, err)
	}

	requestList, err := fromDigestList(resp.RequestList)
	if err != nil {
		return gossip.Ack{}, err
	}
	deltaMap, err := fromDeltaMap(resp.Deltas)
	if err != nil {
		return gossip.Ack{}, err
	}
	return gossip.Ack{RequestList: requestList, DeltaMap: deltaMap}, nil
}

// SendAck2 closes the round, delivering the requested deltas to peer.
func (t *GRPCTransport) SendAck2(peer endpoint.ID, ack2 gossip.Ack2) error {
	client, err := t.client(peer)
	if err != nil {
		return err
	}
	ctx, cancel := t.callCtx()
	defer cancel()

	_, err = client.GossipAck2(ctx, &gossipv1.Ack2Message{
		Deltas: toDeltaMap(ack2.DeltaMap),
		Sender: toEndpointRef(t.local),
	}, grpc.UseCompressor(gossipv1.SnappyCompressorName))
	if err != nil {
		t.drop(peer)
		return fmt.Errorf("transport: ack2 to %s: %w", peer, err)
	}
	return nil
}

// SendShutdown announces the local node's shutdown to peer.
func (t *GRPCTransport) SendShutdown(peer endpoint.ID) error {
	client, err := t.client(peer)
	if err != nil {
		return err
	}
	ctx, cancel := t.callCtx()
	defer cancel()
	_, err = client.Shutdown(ctx, &gossipv1.ShutdownMessage{Sender: toEndpointRef(t.local)})
	return err
}

// SendEcho performs the mark-alive echo probe against peer: success
// means peer is directly reachable right now.
func (t *GRPCTransport) SendEcho(peer endpoint.ID) error {
	client, err := t.client(peer)
	if err != nil {
		return err
	}
	ctx, cancel := t.callCtx()
	defer cancel()
	_, err = client.Echo(ctx, &gossipv1.EchoMessage{Sender: toEndpointRef(t.local)})
	if err != nil {
		t.drop(peer)
	}
	return err
}

// Close tears down every cached connection.
func (t *GRPCTransport) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for peer, cc := range t.conns {
		cc.Close()
		delete(t.conns, peer)
	}
}
