package stats

import (
	"fmt"
	"math"

	"github.com/arloliu/seistrace/errs"
	"github.com/arloliu/seistrace/format"
	"github.com/arloliu/seistrace/samples"
)

// Summary holds the descriptive statistics of a sample series.
type Summary struct {
	// Count is the number of samples.
	Count int64
	// Sum is the sum of all samples.
	Sum float64
	// Mean is the arithmetic mean.
	Mean float64
	// SumSquares is the sum of squared deviations from the mean.
	SumSquares float64
	// StdDev is the population standard deviation (RMS of the deviations).
	StdDev float64
}

// Invalid returns the Summary reported when no statistics exist.
func Invalid() Summary {
	nan := math.NaN()
	return Summary{Sum: nan, Mean: nan, SumSquares: nan, StdDev: nan}
}

// Valid reports whether s was computed from at least one sample.
func (s Summary) Valid() bool {
	return s.Count > 0 && !math.IsNaN(s.Mean)
}

// String returns a one-line rendering of s.
func (s Summary) String() string {
	return fmt.Sprintf("Summary{Count: %d, Sum: %g, Mean: %g, SumSquares: %g, StdDev: %g}",
		s.Count, s.Sum, s.Mean, s.SumSquares, s.StdDev)
}

// Summarize computes the statistics of one buffer.
//
// Parameters:
//   - buf: A decoded buffer of any numeric sample type
//
// Returns:
//   - Summary: The statistics, or Invalid() on error
//   - error: StatisticsError wrapping ErrEmptyBuffer or ErrTextBuffer
func Summarize(buf *samples.Buffer) (Summary, error) {
	return SummarizeAll(buf)
}

// SummarizeAll computes the statistics of the concatenation of bufs.
//
// This is the per-channel form: every decoded segment of a channel
// contributes to one series. Nil buffers are ignored.
//
// Parameters:
//   - bufs: Decoded buffers of numeric sample types
//
// Returns:
//   - Summary: The statistics, or Invalid() on error
//   - error: StatisticsError wrapping ErrEmptyBuffer when there are no
//     samples, or ErrTextBuffer when any buffer holds text
func SummarizeAll(bufs ...*samples.Buffer) (Summary, error) {
	var n int64
	for i, buf := range bufs {
		if buf == nil {
			continue
		}
		if buf.Type() == format.SampleText {
			return Invalid(), errs.Wrap(errs.KindStatistics, "summarize",
				fmt.Errorf("buffer %d: %w", i, errs.ErrTextBuffer))
		}
		n += int64(buf.Len())
	}
	if n == 0 {
		return Invalid(), errs.Wrap(errs.KindStatistics, "summarize", errs.ErrEmptyBuffer)
	}

	sum := 0.0
	for _, buf := range bufs {
		if buf == nil {
			continue
		}
		for i := range buf.Len() {
			sum += buf.Float64At(i)
		}
	}
	mean := sum / float64(n)

	sumSq := 0.0
	for _, buf := range bufs {
		if buf == nil {
			continue
		}
		for i := range buf.Len() {
			diff := buf.Float64At(i) - mean
			sumSq += diff * diff
		}
	}

	return Summary{
		Count:      n,
		Sum:        sum,
		Mean:       mean,
		SumSquares: sumSq,
		StdDev:     math.Sqrt(sumSq / float64(n)),
	}, nil
}
