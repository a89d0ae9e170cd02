package transport

import (
	"context"

	gossipv1 "github.com/ringkeeper/gossipcore/api/gossip/v1"
	"github.com/ringkeeper/gossipcore/gossip"
)

// GossipServer adapts a *gossip.Engine to gossipv1.GossipServiceServer.
type GossipServer struct {
	gossipv1.UnimplementedGossipServiceServer
	engine *gossip.Engine
}

func NewGossipServer(engine *gossip.Engine) *GossipServer {
	return &GossipServer{engine: engine}
}

func (s *GossipServer) Gossip(ctx context.Context, req *gossipv1.SynMessage) (*gossipv1.AckMessage, error) {
	digests, err := fromDigestList(req.Digests)
	if err != nil {
		return nil, err
	}
	ack, err := s.engine.HandleSyn(gossip.Syn{
		ClusterName:     req.ClusterName,
		PartitionerName: req.PartitionerName,
		Digests:         digests,
	})
	if err != nil {
		return nil, err
	}
	return &gossipv1.AckMessage{
		RequestList: toDigestList(ack.RequestList),
		Deltas:      toDeltaMap(ack.DeltaMap),
	}, nil
}

func (s *GossipServer) GossipAck2(ctx context.Context, req *gossipv1.Ack2Message) (*gossipv1.Empty, error) {
	deltaMap, err := fromDeltaMap(req.Deltas)
	if err != nil {
		return nil, err
	}
	s.engine.HandleAck2(gossip.Ack2{DeltaMap: deltaMap})
	return &gossipv1.Empty{}, nil
}

func (s *GossipServer) Shutdown(ctx context.Context, req *gossipv1.ShutdownMessage) (*gossipv1.Empty, error) {
	sender, err := fromEndpointRef(req.Sender)
	if err != nil {
		return nil, err
	}
	s.engine.HandleShutdownNotice(sender)
	return &gossipv1.Empty{}, nil
}

func (s *GossipServer) Echo(ctx context.Context, req *gossipv1.EchoMessage) (*gossipv1.Empty, error) {
	return &gossipv1.Empty{}, nil
}
