package rpc

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/example/artifact-scout/internal/imageprocessor"
	"github.com/example/artifact-scout/internal/logging"
)

// DialEnhancer returns a ready-to-use gRPC client for a remote pre-processor.
func DialEnhancer(ctx context.Context, addr string, logger *zap.Logger) (imageprocessor.Client, *grpc.ClientConn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	conn, err := grpc.DialContext(
		dialCtx,
		addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithBlock(),
	)
	if err != nil {
		wrapped := logging.NewOperationError("rpc.dial_enhancer", "", err)
		logger.Error("failed to dial enhancer", zap.Error(wrapped), zap.String("addr", addr))
		return nil, nil, wrapped
	}
	return NewEnhancerClient(conn, logger), conn, nil
}

// NewEnhancerClient adapts an existing connection to imageprocessor.Client.
func NewEnhancerClient(cc grpc.ClientConnInterface, logger *zap.Logger) imageprocessor.Client {
	return &enhancerClient{cc: cc, logger: logger.Named("rpc_client")}
}

type enhancerClient struct {
	cc     grpc.ClientConnInterface
	logger *zap.Logger
}

func (c *enhancerClient) Enhance(ctx context.Context, data []byte) ([]byte, error) {
	return c.invoke(ctx, enhanceMethod, "rpc.enhance", data)
}

func (c *enhancerClient) Compress(ctx context.Context, data []byte) ([]byte, error) {
	return c.invoke(ctx, compressMethod, "rpc.compress", data)
}

func (c *enhancerClient) invoke(ctx context.Context, method, op string, data []byte) ([]byte, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, method, wrapperspb.Bytes(data), out); err != nil {
		if status.Code(err) == codes.InvalidArgument {
			err = fmt.Errorf("%w: %s", imageprocessor.ErrUndecodable, status.Convert(err).Message())
		}
		wrapped := logging.NewOperationError(op, "", err)
		c.logger.Error("enhancer call failed", zap.Error(wrapped), zap.String("method", method))
		return nil, wrapped
	}
	return out.GetValue(), nil
}
