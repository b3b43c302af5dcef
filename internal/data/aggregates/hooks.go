package aggregates

import (
	"time"

	domainagg "github.com/yungbote/labflow-backend/internal/domain/aggregates"
	"github.com/yungbote/labflow-backend/internal/observability"
	"github.com/yungbote/labflow-backend/internal/platform/logger"
)

// Hooks see every store write after it commits or fails. err is already mapped.
type Hooks interface {
	AfterWrite(op string, err error, dur time.Duration)
}

type HooksFunc func(op string, err error, dur time.Duration)

func (f HooksFunc) AfterWrite(op string, err error, dur time.Duration) { f(op, err, dur) }

// NewObservabilityHooks records write latency and outcome, and counts lost
// version races and transient database failures separately. log may be nil.
func NewObservabilityHooks(metrics *observability.Metrics, log *logger.Logger) Hooks {
	return HooksFunc(func(op string, err error, dur time.Duration) {
		outcome := writeOutcome(err)
		metrics.ObserveStoreWrite(op, outcome, dur)
		switch domainagg.CodeOf(err) {
		case domainagg.CodeConflict:
			metrics.IncStoreConflict(op)
			if log != nil {
				log.Warn("store write lost version race", "op", op, "error", err)
			}
		case domainagg.CodeRetryable:
			metrics.IncStoreRetryable(op)
			if log != nil {
				log.Warn("store write hit transient failure", "op", op, "error", err)
			}
		}
	})
}
