package gossipv1

import (
	"context"

	"google.golang.org/grpc"
)

const (
	GossipService_Gossip_FullMethodName     = "/gossip.v1.GossipService/Gossip"
	GossipService_GossipAck2_FullMethodName = "/gossip.v1.GossipService/GossipAck2"
	GossipService_Shutdown_FullMethodName   = "/gossip.v1.GossipService/Shutdown"
	GossipService_Echo_FullMethodName       = "/gossip.v1.GossipService/Echo"
)

// GossipServiceClient is the client API for GossipService.
type GossipServiceClient interface {
	Gossip(ctx context.Context, in *SynMessage, opts ...grpc.CallOption) (*AckMessage, error)
	GossipAck2(ctx context.Context, in *Ack2Message, opts ...grpc.CallOption) (*Empty, error)
	Shutdown(ctx context.Context, in *ShutdownMessage, opts ...grpc.CallOption) (*Empty, error)
	Echo(ctx context.Context, in *EchoMessage, opts ...grpc.CallOption) (*Empty, error)
}

type gossipServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewGossipServiceClient(cc grpc.ClientConnInterface) GossipServiceClient {
	return &gossipServiceClient{cc}
}

func (c *gossipServiceClient) Gossip(ctx context.Context, in *SynMessage, opts ...grpc.CallOption) (*AckMessage, error) {
	out := new(AckMessage)
	if err := c.cc.Invoke(ctx, GossipService_Gossip_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *gossipServiceClient) GossipAck2(ctx context.Context, in *Ack2Message, opts ...grpc.CallOption) (*Empty, error) {
	out := new(Empty)
	if err := c.cc.Invoke(ctx, GossipService_GossipAck2_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *gossipServiceClient) Shutdown(ctx context.Context, in *ShutdownMessage, opts ...grpc.CallOption) (*Empty, error) {
	out := new(Empty)
	if err := c.cc.Invoke(ctx, GossipService_Shutdown_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *gossipServiceClient) Echo(ctx context.Context, in *EchoMessage, opts ...grpc.CallOption) (*Empty, error) {
	out := new(Empty)
	if err := c.cc.Invoke(ctx, GossipService_Echo_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// GossipServiceServer is the server API for GossipService.
type GossipServiceServer interface {
	Gossip(context.Context, *SynMessage) (*AckMessage, error)
	GossipAck2(context.Context, *Ack2Message) (*Empty, error)
	Shutdown(context.Context, *ShutdownMessage) (*Empty, error)
	Echo(context.Context, *EchoMessage) (*Empty, error)
}

// UnimplementedGossipServiceServer must be embedded for forward
// compatibility with methods added to the service later.
type UnimplementedGossipServiceServer struct{}

func (UnimplementedGossipServiceServer) Gossip(context.Context, *SynMessage) (*AckMessage, error) {
	return nil, grpcUnimplemented("Gossip")
}
func (UnimplementedGossipServiceServer) GossipAck2(context.Context, *Ack2Message) (*Empty, error) {
	return nil, grpcUnimplemented("GossipAck2")
}
func (UnimplementedGossipServiceServer) Shutdown(context.Context, *ShutdownMessage) (*Empty, error) {
	return nil, grpcUnimplemented("Shutdown")
}
func (UnimplementedGossipServiceServer) Echo(context.Context, *EchoMessage) (*Empty, error) {
	return nil, grpcUnimplemented("Echo")
}

func RegisterGossipServiceServer(s grpc.ServiceRegistrar, srv GossipServiceServer) {
	s.RegisterService(&GossipService_ServiceDesc, srv)
}

func _GossipService_Gossip_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(SynMessage)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GossipServiceServer).Gossip(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GossipService_Gossip_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(GossipServiceServer).Gossip(ctx, req.(*SynMessage))
	}
	return interceptor(ctx, in, info, handler)
}

func _GossipService_GossipAck2_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(Ack2Message)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GossipServiceServer).GossipAck2(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GossipService_GossipAck2_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(GossipServiceServer).GossipAck2(ctx, req.(*Ack2Message))
	}
	return interceptor(ctx, in, info, handler)
}

func _GossipService_Shutdown_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ShutdownMessage)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GossipServiceServer).Shutdown(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GossipService_Shutdown_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(GossipServiceServer).Shutdown(ctx, req.(*ShutdownMessage))
	}
	return interceptor(ctx, in, info, handler)
}

func _GossipService_Echo_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(EchoMessage)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GossipServiceServer).Echo(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GossipService_Echo_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(GossipServiceServer).Echo(ctx, req.(*EchoMessage))
	}
	return interceptor(ctx, in, info, handler)
}

var GossipService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "gossip.v1.GossipService",
	HandlerType: (*GossipServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Gossip", Handler: _GossipService_Gossip_Handler},
		{MethodName: "GossipAck2", Handler: _GossipService_GossipAck2_Handler},
		{MethodName: "Shutdown", Handler: _GossipService_Shutdown_Handler},
		{MethodName: "Echo", Handler: _GossipService_Echo_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "proto/gossip/v1/gossip.proto",
}
