package trace

import (
	"fmt"
	"time"

	"github.com/arloliu/seistrace/errs"
	"github.com/arloliu/seistrace/internal/options"
	"go.uber.org/zap"
)

const (
	// DefaultSampleRateTolerance is the relative rate difference under which
	// two records are considered to share a sample rate.
	DefaultSampleRateTolerance = 1e-4

	// DefaultMaxSegmentSamples bounds the buffer a single segment may allocate.
	DefaultMaxSegmentSamples = 1 << 28
)

// ListOption configures a List.
type ListOption = options.Option[*List]

// WithTimeTolerance sets a fixed gap tolerance for joining records.
//
// By default the tolerance is half a sample period at the record's rate.
func WithTimeTolerance(tol time.Duration) ListOption {
	return options.New(func(l *List) error {
		if tol < 0 {
			return fmt.Errorf("%w: negative time tolerance %s", errs.ErrInvalidOption, tol)
		}
		l.timeTolerance = func(float64) int64 { return int64(tol) }

		return nil
	})
}

// WithSampleRateTolerance sets the relative rate tolerance (default 1e-4).
func WithSampleRateTolerance(rel float64) ListOption {
	return options.New(func(l *List) error {
		if rel < 0 || rel >= 1 {
			return fmt.Errorf("%w: sample rate tolerance %g", errs.ErrInvalidOption, rel)
		}
		l.rateTolerance = rel

		return nil
	})
}

// WithRetainRecords keeps every record's bytes in memory instead of reading
// them back from the registered source at decode time.
func WithRetainRecords(retain bool) ListOption {
	return options.NoError(func(l *List) {
		l.retain = retain
	})
}

// WithMaxSegmentSamples bounds the declared sample count a segment may decode.
func WithMaxSegmentSamples(n int64) ListOption {
	return options.New(func(l *List) error {
		if n <= 0 {
			return fmt.Errorf("%w: max segment samples %d", errs.ErrInvalidOption, n)
		}
		l.maxSamples = n

		return nil
	})
}

// WithLogger sets the logger for assembly and decode diagnostics.
func WithLogger(logger *zap.Logger) ListOption {
	return options.NoError(func(l *List) {
		if logger != nil {
			l.logger = logger
		}
	})
}
