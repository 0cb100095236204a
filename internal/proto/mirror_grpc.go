// Package proto holds the gRPC contract between the client and the mirror
// server.
package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/timestamppb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	MirrorService_ServiceName = "sabo.mirror.MirrorService"

	MirrorService_Ping_FullMethodName  = "/sabo.mirror.MirrorService/Ping"
	MirrorService_Fetch_FullMethodName = "/sabo.mirror.MirrorService/Fetch"
	MirrorService_Put_FullMethodName   = "/sabo.mirror.MirrorService/Put"
	MirrorService_Watch_FullMethodName = "/sabo.mirror.MirrorService/Watch"
)

type MirrorServiceClient interface {
	Ping(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*emptypb.Empty, error)
	Fetch(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
	Put(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*timestamppb.Timestamp, error)
	Watch(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (grpc.ServerStreamingClient[wrapperspb.BytesValue], error)
}

type mirrorServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewMirrorServiceClient(cc grpc.ClientConnInterface) MirrorServiceClient {
	return &mirrorServiceClient{cc}
}

func (c *mirrorServiceClient) Ping(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, MirrorService_Ping_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *mirrorServiceClient) Fetch(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, MirrorService_Fetch_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *mirrorServiceClient) Put(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*timestamppb.Timestamp, error) {
	out := new(timestamppb.Timestamp)
	if err := c.cc.Invoke(ctx, MirrorService_Put_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *mirrorServiceClient) Watch(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (grpc.ServerStreamingClient[wrapperspb.BytesValue], error) {
	stream, err := c.cc.NewStream(ctx, &MirrorService_ServiceDesc.Streams[0], MirrorService_Watch_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[emptypb.Empty, wrapperspb.BytesValue]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

type MirrorServiceServer interface {
	Ping(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	Fetch(context.Context, *emptypb.Empty) (*wrapperspb.BytesValue, error)
	Put(context.Context, *wrapperspb.BytesValue) (*timestamppb.Timestamp, error)
	Watch(*emptypb.Empty, grpc.ServerStreamingServer[wrapperspb.BytesValue]) error
}

// UnimplementedMirrorServiceServer answers every call with Unimplemented.
type UnimplementedMirrorServiceServer struct{}

func (UnimplementedMirrorServiceServer) Ping(context.Context, *emptypb.Empty) (*emptypb.Empty, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Ping not implemented")
}
func (UnimplementedMirrorServiceServer) Fetch(context.Context, *emptypb.Empty) (*wrapperspb.BytesValue, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Fetch not implemented")
}
func (UnimplementedMirrorServiceServer) Put(context.Context, *wrapperspb.BytesValue) (*timestamppb.Timestamp, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Put not implemented")
}
func (UnimplementedMirrorServiceServer) Watch(*emptypb.Empty, grpc.ServerStreamingServer[wrapperspb.BytesValue]) error {
	return status.Errorf(codes.Unimplemented, "method Watch not implemented")
}

func RegisterMirrorServiceServer(s grpc.ServiceRegistrar, srv MirrorServiceServer) {
	s.RegisterService(&MirrorService_ServiceDesc, srv)
}

func _MirrorService_Ping_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MirrorServiceServer).Ping(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MirrorService_Ping_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MirrorServiceServer).Ping(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func _MirrorService_Fetch_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MirrorServiceServer).Fetch(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MirrorService_Fetch_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MirrorServiceServer).Fetch(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func _MirrorService_Put_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MirrorServiceServer).Put(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MirrorService_Put_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MirrorServiceServer).Put(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _MirrorService_Watch_Handler(srv any, stream grpc.ServerStream) error {
	m := new(emptypb.Empty)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(MirrorServiceServer).Watch(m, &grpc.GenericServerStream[emptypb.Empty, wrapperspb.BytesValue]{ServerStream: stream})
}

var MirrorService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: MirrorService_ServiceName,
	HandlerType: (*MirrorServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Ping", Handler: _MirrorService_Ping_Handler},
		{MethodName: "Fetch", Handler: _MirrorService_Fetch_Handler},
		{MethodName: "Put", Handler: _MirrorService_Put_Handler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Watch", Handler: _MirrorService_Watch_Handler, ServerStreams: true},
	},
	Metadata: "mirror.proto",
}
