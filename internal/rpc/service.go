package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	enhancerServiceName = "preprocess.v1.Enhancer"
	enhanceMethod       = "/" + enhancerServiceName + "/Enhance"
	compressMethod      = "/" + enhancerServiceName + "/Compress"
)

// EnhancerServer is the server API for the preprocess.v1.Enhancer service.
type EnhancerServer interface {
	Enhance(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
	Compress(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
}

// RegisterEnhancerServer registers srv on s.
func RegisterEnhancerServer(s grpc.ServiceRegistrar, srv EnhancerServer) {
	s.RegisterService(&enhancerServiceDesc, srv)
}

var enhancerServiceDesc = grpc.ServiceDesc{
	ServiceName: enhancerServiceName,
	HandlerType: (*EnhancerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Enhance", Handler: unaryHandler(enhanceMethod, EnhancerServer.Enhance)},
		{MethodName: "Compress", Handler: unaryHandler(compressMethod, EnhancerServer.Compress)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "preprocess/v1/enhancer.proto",
}

type bytesMethod func(EnhancerServer, context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)

func unaryHandler(fullMethod string, call bytesMethod) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(wrapperspb.BytesValue)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(EnhancerServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(EnhancerServer), ctx, req.(*wrapperspb.BytesValue))
		}
		return interceptor(ctx, in, info, handler)
	}
}
