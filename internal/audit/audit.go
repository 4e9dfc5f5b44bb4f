package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/artifact-scout/internal/domain"
	"github.com/example/artifact-scout/internal/metrics"
)

// Store appends audit entries.
type Store interface {
	SaveUploadLog(ctx context.Context, entry domain.AuditLogEntry) error
}

// Recorder writes audit entries in the background. Record never blocks on the
// write and never reports its failure to the caller.
type Recorder struct {
	store   Store
	timeout time.Duration
	logger  *zap.Logger
	wg      sync.WaitGroup
}

// NewRecorder builds a recorder whose writes are bounded by timeout.
func NewRecorder(store Store, timeout time.Duration, logger *zap.Logger) *Recorder {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Recorder{
		store:   store,
		timeout: timeout,
		logger:  logger.Named("audit"),
	}
}

// Record dispatches one write and returns immediately.
func (r *Recorder) Record(entry domain.AuditLogEntry) {
	r.wg.Add(1)
	metrics.AuditInFlight.Inc()
	go func() {
		defer r.wg.Done()
		defer metrics.AuditInFlight.Dec()
		if err := r.write(entry); err != nil {
			metrics.AuditWritesTotal.WithLabelValues("error").Inc()
			r.logger.Error("audit log write failed",
				zap.Error(err),
				zap.String("location", entry.Location),
				zap.Int("confidence_threshold", int(entry.ConfidenceThreshold)),
				zap.String("error_type", errorType(entry)))
			return
		}
		metrics.AuditWritesTotal.WithLabelValues("ok").Inc()
	}()
}

func (r *Recorder) write(entry domain.AuditLogEntry) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic in audit store: %v", p)
		}
	}()
	// Detached from the request: the response is usually sent before this runs.
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	return r.store.SaveUploadLog(ctx, entry)
}

// Close waits for in-flight writes or until ctx is done.
func (r *Recorder) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func errorType(entry domain.AuditLogEntry) string {
	if entry.ErrorType == nil {
		return ""
	}
	return string(*entry.ErrorType)
}
