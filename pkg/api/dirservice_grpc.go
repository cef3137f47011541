// Package api holds the gRPC service definition of the directory service.
// Messages are protobuf well-known types; see dirservice.proto.
package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	DirService_OpenDir_FullMethodName  = "/devfs.DirService/OpenDir"
	DirService_ReadDir_FullMethodName  = "/devfs.DirService/ReadDir"
	DirService_CloseDir_FullMethodName = "/devfs.DirService/CloseDir"
	DirService_Stat_FullMethodName     = "/devfs.DirService/Stat"
)

// DirServiceClient is the client API for DirService.
type DirServiceClient interface {
	OpenDir(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
	ReadDir(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
	CloseDir(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*emptypb.Empty, error)
	Stat(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type dirServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewDirServiceClient creates a DirService client on cc.
func NewDirServiceClient(cc grpc.ClientConnInterface) DirServiceClient {
	return &dirServiceClient{cc}
}

func (c *dirServiceClient) OpenDir(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, DirService_OpenDir_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *dirServiceClient) ReadDir(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, DirService_ReadDir_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *dirServiceClient) CloseDir(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, DirService_CloseDir_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *dirServiceClient) Stat(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, DirService_Stat_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// DirServiceServer is the server API for DirService.
// Implementations must embed UnimplementedDirServiceServer.
type DirServiceServer interface {
	OpenDir(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error)
	ReadDir(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
	CloseDir(context.Context, *wrapperspb.BytesValue) (*emptypb.Empty, error)
	Stat(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	mustEmbedUnimplementedDirServiceServer()
}

// UnimplementedDirServiceServer returns Unimplemented for every method.
type UnimplementedDirServiceServer struct{}

func (UnimplementedDirServiceServer) OpenDir(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	return nil, status.Errorf(codes.Unimplemented, "method OpenDir not implemented")
}
func (UnimplementedDirServiceServer) ReadDir(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ReadDir not implemented")
}
func (UnimplementedDirServiceServer) CloseDir(context.Context, *wrapperspb.BytesValue) (*emptypb.Empty, error) {
	return nil, status.Errorf(codes.Unimplemented, "method CloseDir not implemented")
}
func (UnimplementedDirServiceServer) Stat(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Stat not implemented")
}
func (UnimplementedDirServiceServer) mustEmbedUnimplementedDirServiceServer() {}

// RegisterDirServiceServer registers srv with s.
func RegisterDirServiceServer(s grpc.ServiceRegistrar, srv DirServiceServer) {
	s.RegisterService(&DirService_ServiceDesc, srv)
}

func _DirService_OpenDir_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DirServiceServer).OpenDir(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: DirService_OpenDir_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DirServiceServer).OpenDir(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _DirService_ReadDir_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DirServiceServer).ReadDir(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: DirService_ReadDir_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DirServiceServer).ReadDir(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _DirService_CloseDir_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DirServiceServer).CloseDir(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: DirService_CloseDir_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DirServiceServer).CloseDir(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _DirService_Stat_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DirServiceServer).Stat(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: DirService_Stat_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DirServiceServer).Stat(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// DirService_ServiceDesc is the grpc.ServiceDesc for DirService.
var DirService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "devfs.DirService",
	HandlerType: (*DirServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "OpenDir",
			Handler:    _DirService_OpenDir_Handler,
		},
		{
			MethodName: "ReadDir",
			Handler:    _DirService_ReadDir_Handler,
		},
		{
			MethodName: "CloseDir",
			Handler:    _DirService_CloseDir_Handler,
		},
		{
			MethodName: "Stat",
			Handler:    _DirService_Stat_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "dirservice.proto",
}
