package insight

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/toolsage/internal/metrics"
)

// background runs fire-and-forget side effects on a bounded pool.
// Submission never blocks: when every worker is busy the task is dropped.
type background struct {
	pool    *ants.Pool
	timeout time.Duration
	logger  *zap.Logger
}

func newBackground(size int, timeout time.Duration, logger *zap.Logger) (*background, error) {
	if size <= 0 {
		size = 1
	}
	pool, err := ants.NewPool(size,
		ants.WithNonblocking(true),
		ants.WithPanicHandler(func(p any) {
			logger.Error("Side effect panicked", zap.Any("panic", p))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	return &background{pool: pool, timeout: timeout, logger: logger}, nil
}

// submit schedules fn detached from the caller's cancellation, bounded by the task timeout.
func (b *background) submit(ctx context.Context, task string, fn func(ctx context.Context) error) {
	detached := context.WithoutCancel(ctx)
	err := b.pool.Submit(func() {
		tctx, cancel := context.WithTimeout(detached, b.timeout)
		defer cancel()
		if err := fn(tctx); err != nil {
			metrics.SideEffectsDroppedTotal.WithLabelValues(task, "failed").Inc()
			b.logger.Warn("Side effect failed", zap.String("task", task), zap.Error(err))
		}
	})
	if err != nil {
		reason := "rejected"
		if errors.Is(err, ants.ErrPoolOverload) {
			reason = "overload"
		}
		metrics.SideEffectsDroppedTotal.WithLabelValues(task, reason).Inc()
		b.logger.Warn("Side effect dropped", zap.String("task", task), zap.String("reason", reason), zap.Error(err))
	}
}

// close waits for running tasks up to wait, then releases the pool.
func (b *background) close(wait time.Duration) error {
	if err := b.pool.ReleaseTimeout(wait); err != nil {
		return fmt.Errorf("release worker pool: %w", err)
	}
	return nil
}
