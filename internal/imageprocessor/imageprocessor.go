package imageprocessor

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/example/artifact-scout/internal/logging"
	"github.com/example/artifact-scout/internal/metrics"
)

// ErrUndecodable is returned when the input is not an image in a supported format.
var ErrUndecodable = errors.New("image could not be decoded")

// Client exposes the pre-processing operations offered to the HTTP layer.
type Client interface {
	Enhance(ctx context.Context, data []byte) ([]byte, error)
	Compress(ctx context.Context, data []byte) ([]byte, error)
}

// Local runs the pre-processing in-process.
type Local struct {
	logger *zap.Logger
}

// NewLocal constructs an in-process Client.
func NewLocal(logger *zap.Logger) *Local {
	return &Local{logger: logger.Named("imageprocessor")}
}

// Enhance applies the underwater colour filter and re-encodes as JPEG.
func (l *Local) Enhance(ctx context.Context, data []byte) ([]byte, error) {
	return l.run(ctx, "imageprocessor.enhance", data, EnhanceJPEG)
}

// Compress downsizes images whose decoded size exceeds the compression threshold.
func (l *Local) Compress(ctx context.Context, data []byte) ([]byte, error) {
	return l.run(ctx, "imageprocessor.compress", data, Compress)
}

func (l *Local) run(ctx context.Context, op string, data []byte, fn func([]byte) ([]byte, error)) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, logging.NewOperationError(op, "", err)
	}

	start := time.Now()
	out, err := fn(data)
	metrics.PreprocessDurationSeconds.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		wrapped := logging.NewOperationError(op, "", err)
		l.logger.Warn("image pre-processing failed", zap.Error(wrapped), zap.Int("input_bytes", len(data)))
		return nil, wrapped
	}

	l.logger.Debug("image pre-processed",
		zap.String("operation", op),
		zap.Int("input_bytes", len(data)),
		zap.Int("output_bytes", len(out)),
		zap.Duration("elapsed", time.Since(start)))
	return out, nil
}
