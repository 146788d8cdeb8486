package fusion

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/quality-cli/internal/model"
)

// phaseFunc fetches one phase's payload plus optional metadata.
type phaseFunc[T any] func(ctx context.Context) (T, map[string]any, error)

// runPhase executes fn at the phase boundary. Errors and panics are logged
// and turned into a zero payload with status failed; they never propagate.
func runPhase[T any](ctx context.Context, log *zap.Logger, timeout time.Duration, name string, fn phaseFunc[T]) (out T, pr model.PhaseResult) {
	pr.Name = name

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			var zero T
			out = zero
			pr.Metadata = nil
			pr.Duration = time.Since(start).Milliseconds()
			pr.Status = model.PhaseStatusFailed
			pr.Error = eris.Errorf("fusion: panic in phase %s: %v", name, r).Error()
			log.Error("fusion: phase panicked",
				zap.String("phase", name),
				zap.Int64("duration_ms", pr.Duration),
				zap.Any("panic", r),
			)
		}
	}()

	res, meta, err := fn(ctx)
	pr.Duration = time.Since(start).Milliseconds()

	if err != nil {
		pr.Status = model.PhaseStatusFailed
		pr.Error = err.Error()
		log.Error("fusion: phase failed",
			zap.String("phase", name),
			zap.Int64("duration_ms", pr.Duration),
			zap.Error(err),
		)
		var zero T
		return zero, pr
	}

	pr.Status = model.PhaseStatusComplete
	pr.Metadata = meta
	log.Info("fusion: phase complete",
		zap.String("phase", name),
		zap.Int64("duration_ms", pr.Duration),
	)
	return res, pr
}

// skipPhase records a phase that did not run.
func skipPhase(log *zap.Logger, name, reason string) model.PhaseResult {
	log.Info("fusion: phase skipped",
		zap.String("phase", name),
		zap.String("reason", reason),
	)
	return model.PhaseResult{Name: name, Status: model.PhaseStatusSkipped, Reason: reason}
}
