package managementv1

import (
	"context"

	"google.golang.org/grpc"
)

const (
	ManagementService_GetSeeds_FullMethodName                = "/management.v1.ManagementService/GetSeeds"
	ManagementService_ReloadSeeds_FullMethodName              = "/management.v1.ManagementService/ReloadSeeds"
	ManagementService_GetEndpointInfo_FullMethodName          = "/management.v1.ManagementService/GetEndpointInfo"
	ManagementService_ListEndpoints_FullMethodName            = "/management.v1.ManagementService/ListEndpoints"
	ManagementService_AssassinateEndpoint_FullMethodName      = "/management.v1.ManagementService/AssassinateEndpoint"
	ManagementService_UnsafeAssassinateEndpoint_FullMethodName = "/management.v1.ManagementService/UnsafeAssassinateEndpoint"
)

// ManagementServiceClient is the client API for ManagementService.
type ManagementServiceClient interface {
	GetSeeds(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*SeedList, error)
	ReloadSeeds(ctx context.Context, in *SeedList, opts ...grpc.CallOption) (*Empty, error)
	GetEndpointInfo(ctx context.Context, in *EndpointQuery, opts ...grpc.CallOption) (*EndpointInfo, error)
	ListEndpoints(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*EndpointList, error)
	AssassinateEndpoint(ctx context.Context, in *AssassinateRequest, opts ...grpc.CallOption) (*Empty, error)
	UnsafeAssassinateEndpoint(ctx context.Context, in *AssassinateRequest, opts ...grpc.CallOption) (*Empty, error)
}

type managementServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewManagementServiceClient(cc grpc.ClientConnInterface) ManagementServiceClient {
	return &managementServiceClient{cc}
}

func (c *managementServiceClient) GetSeeds(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*SeedList, error) {
	out := new(SeedList)
	if err := c.cc.Invoke(ctx, ManagementService_GetSeeds_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *managementServiceClient) ReloadSeeds(ctx context.Context, in *SeedList, opts ...grpc.CallOption) (*Empty, error) {
	out := new(Empty)
	if err := c.cc.Invoke(ctx, ManagementService_ReloadSeeds_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *managementServiceClient) GetEndpointInfo(ctx context.Context, in *EndpointQuery, opts ...grpc.CallOption) (*EndpointInfo, error) {
	out := new(EndpointInfo)
	if err := c.cc.Invoke(ctx, ManagementService_GetEndpointInfo_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *managementServiceClient) ListEndpoints(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*EndpointList, error) {
	out := new(EndpointList)
	if err := c.cc.Invoke(ctx, ManagementService_ListEndpoints_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *managementServiceClient) AssassinateEndpoint(ctx context.Context, in *AssassinateRequest, opts ...grpc.CallOption) (*Empty, error) {
	out := new(Empty)
	if err := c.cc.Invoke(ctx, ManagementService_AssassinateEndpoint_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *managementServiceClient) UnsafeAssassinateEndpoint(ctx context.Context, in *AssassinateRequest, opts ...grpc.CallOption) (*Empty, error) {
	out := new(Empty)
	if err := c.cc.Invoke(ctx, ManagementService_UnsafeAssassinateEndpoint_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// ManagementServiceServer is the server API for ManagementService.
type ManagementServiceServer interface {
	GetSeeds(context.Context, *Empty) (*SeedList, error)
	ReloadSeeds(context.Context, *SeedList) (*Empty, error)
	GetEndpointInfo(context.Context, *EndpointQuery) (*EndpointInfo, error)
	ListEndpoints(context.Context, *Empty) (*EndpointList, error)
	AssassinateEndpoint(context.Context, *AssassinateRequest) (*Empty, error)
	UnsafeAssassinateEndpoint(context.Context, *AssassinateRequest) (*Empty, error)
}

// UnimplementedManagementServiceServer must be embedded for forward
// compatibility with methods added to the service later.
type UnimplementedManagementServiceServer struct{}

func (UnimplementedManagementServiceServer) GetSeeds(context.Context, *Empty) (*SeedList, error) {
	return nil, grpcUnimplemented("GetSeeds")
}
func (UnimplementedManagementServiceServer) ReloadSeeds(context.Context, *SeedList) (*Empty, error) {
	return nil, grpcUnimplemented("ReloadSeeds")
}
func (UnimplementedManagementServiceServer) GetEndpointInfo(context.Context, *EndpointQuery) (*EndpointInfo, error) {
	return nil, grpcUnimplemented("GetEndpointInfo")
}
func (UnimplementedManagementServiceServer) ListEndpoints(context.Context, *Empty) (*EndpointList, error) {
	return nil, grpcUnimplemented("ListEndpoints")
}
func (UnimplementedManagementServiceServer) AssassinateEndpoint(context.Context, *AssassinateRequest) (*Empty, error) {
	return nil, grpcUnimplemented("AssassinateEndpoint")
}
func (UnimplementedManagementServiceServer) UnsafeAssassinateEndpoint(context.Context, *AssassinateRequest) (*Empty, error) {
	return nil, grpcUnimplemented("UnsafeAssassinateEndpoint")
}

func RegisterManagementServiceServer(s grpc.ServiceRegistrar, srv ManagementServiceServer) {
	s.RegisterService(&ManagementService_ServiceDesc, srv)
}

func _ManagementService_GetSeeds_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ManagementServiceServer).GetSeeds(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ManagementService_GetSeeds_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ManagementServiceServer).GetSeeds(ctx, req.(*Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func _ManagementService_ReloadSeeds_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(SeedList)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ManagementServiceServer).ReloadSeeds(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ManagementService_ReloadSeeds_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ManagementServiceServer).ReloadSeeds(ctx, req.(*SeedList))
	}
	return interceptor(ctx, in, info, handler)
}

func _ManagementService_GetEndpointInfo_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(EndpointQuery)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ManagementServiceServer).GetEndpointInfo(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ManagementService_GetEndpointInfo_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ManagementServiceServer).GetEndpointInfo(ctx, req.(*EndpointQuery))
	}
	return interceptor(ctx, in, info, handler)
}

func _ManagementService_ListEndpoints_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ManagementServiceServer).ListEndpoints(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ManagementService_ListEndpoints_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ManagementServiceServer).ListEndpoints(ctx, req.(*Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func _ManagementService_AssassinateEndpoint_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(AssassinateRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ManagementServiceServer).AssassinateEndpoint(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ManagementService_AssassinateEndpoint_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ManagementServiceServer).AssassinateEndpoint(ctx, req.(*AssassinateRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ManagementService_UnsafeAssassinateEndpoint_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(AssassinateRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ManagementServiceServer).UnsafeAssassinateEndpoint(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ManagementService_UnsafeAssassinateEndpoint_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ManagementServiceServer).UnsafeAssassinateEndpoint(ctx, req.(*AssassinateRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var ManagementService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "management.v1.ManagementService",
	HandlerType: (*ManagementServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetSeeds", Handler: _ManagementService_GetSeeds_Handler},
		{MethodName: "ReloadSeeds", Handler: _ManagementService_ReloadSeeds_Handler},
		{MethodName: "GetEndpointInfo", Handler: _ManagementService_GetEndpointInfo_Handler},
		{MethodName: "ListEndpoints", Handler: _ManagementService_ListEndpoints_Handler},
		{MethodName: "AssassinateEndpoint", Handler: _ManagementService_AssassinateEndpoint_Handler},
		{MethodName: "UnsafeAssassinateEndpoint", Handler: _ManagementService_UnsafeAssassinateEndpoint_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "proto/management/v1/management.proto",
}
