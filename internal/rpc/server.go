package rpc

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/example/artifact-scout/internal/domain"
	"github.com/example/artifact-scout/internal/imageprocessor"
)

// NewEnhancerServer exposes processor over gRPC.
func NewEnhancerServer(processor imageprocessor.Client, logger *zap.Logger) EnhancerServer {
	return &enhancerServer{processor: processor, logger: logger.Named("rpc_server")}
}

type enhancerServer struct {
	processor imageprocessor.Client
	logger    *zap.Logger
}

func (s *enhancerServer) Enhance(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	return s.serve(ctx, "Enhance", in, s.processor.Enhance)
}

func (s *enhancerServer) Compress(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	return s.serve(ctx, "Compress", in, s.processor.Compress)
}

func (s *enhancerServer) serve(ctx context.Context, method string, in *wrapperspb.BytesValue, fn func(context.Context, []byte) ([]byte, error)) (*wrapperspb.BytesValue, error) {
	data := in.GetValue()
	if len(data) == 0 {
		return nil, status.Error(codes.InvalidArgument, "image payload is empty")
	}
	if len(data) > domain.MaxImageSize {
		return nil, status.Error(codes.InvalidArgument, "image payload exceeds 10MB")
	}

	out, err := fn(ctx, data)
	if err != nil {
		s.logger.Warn("enhancer call failed", zap.String("method", method), zap.Error(err))
		return nil, toStatus(err)
	}
	return wrapperspb.Bytes(out), nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, imageprocessor.ErrUndecodable):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
