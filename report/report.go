// Package report renders assembled traces, their samples and statistics as text.
//
// The layout follows the classic trace-list dump:
//
//	TraceID for XX.STA.BHZ (1), earliest: 2024,041,00:00:00.000000, latest: ..., segments: 1
//	  Segment 2024,041,00:00:00.000000 - 2024,041,00:00:24.950000, samples: 500, sample rate: 20
//	DATA (500 samples) of type 'i':
//	       -150        -143        -136 ...
//	Statistics: samples: 500, sum: ..., mean: ..., sum of squares: ..., RMS: ...
//
// A Printer records the first write error and turns later calls into no-ops;
// Err returns it.
package report

import (
	"fmt"
	"io"

	"github.com/arloliu/seistrace/format"
	"github.com/arloliu/seistrace/nstime"
	"github.com/arloliu/seistrace/samples"
	"github.com/arloliu/seistrace/stats"
	"github.com/arloliu/seistrace/trace"
)

// Columns is the number of samples per data row.
const Columns = 6

// DataMode selects how many decoded samples are printed per segment.
type DataMode uint8

const (
	DataNone      DataMode = iota // DataNone prints no samples.
	DataFirstLine                 // DataFirstLine prints the first row of samples.
	DataAll                       // DataAll prints every sample.
)

func (m DataMode) String() string {
	switch m {
	case DataNone:
		return "none"
	case DataFirstLine:
		return "first-line"
	case DataAll:
		return "all"
	default:
		return "unknown"
	}
}

// Options controls the report content.
type Options struct {
	// Verbosity of 1 or more adds the record list of each segment.
	Verbosity int
	// Data selects the sample dump.
	Data DataMode
	// TimeStyle renders timestamps.
	TimeStyle nstime.Style
}

// Printer writes report lines to an io.Writer.
type Printer struct {
	w    io.Writer
	opts Options
	err  error
}

// New creates a Printer writing to w.
func New(w io.Writer, opts Options) *Printer {
	return &Printer{w: w, opts: opts}
}

// Options returns the printer options.
func (p *Printer) Options() Options {
	return p.opts
}

// Err returns the first write error, or nil.
func (p *Printer) Err() error {
	return p.err
}

func (p *Printer) printf(layout string, args ...any) {
	if p.err != nil {
		return
	}
	if _, err := fmt.Fprintf(p.w, layout, args...); err != nil {
		p.err = fmt.Errorf("write report: %w", err)
	}
}

func (p *Printer) time(t nstime.Time) string {
	return t.Format(p.opts.TimeStyle)
}

// Channel prints the header line of ch.
func (p *Printer) Channel(ch *trace.Channel) {
	p.printf("TraceID for %s (%d), earliest: %s, latest: %s, segments: %d\n",
		ch.SourceID, ch.PubVersion, p.time(ch.Earliest), p.time(ch.Latest), len(ch.Segments))
}

// Segment prints the line of seg, followed by its records at verbosity 1 or more.
func (p *Printer) Segment(seg *trace.Segment) {
	p.printf("  Segment %s - %s, samples: %d, sample rate: %g\n",
		p.time(seg.Start), p.time(seg.End), seg.SampleCount, seg.SampleRate)

	if p.opts.Verbosity < 1 {
		return
	}
	p.printf("  Record list:\n")
	for i := range seg.Refs {
		ref := &seg.Refs[i]
		p.printf("    RECORD: offset: %d, length: %d, start: %s, end: %s, samples: %d, encoding: %s\n",
			ref.Offset, ref.Length, p.time(ref.Start), p.time(ref.End), ref.SampleCount, ref.Encoding)
	}
}

// Data prints the decoded samples of one segment according to the data mode.
//
// Numeric samples are printed Columns per row; text is printed raw.
func (p *Printer) Data(buf *samples.Buffer) {
	if p.opts.Data == DataNone || buf == nil {
		return
	}

	p.printf("DATA (%d samples) of type '%c':\n", buf.Len(), buf.Type().Char())

	if buf.Type() == format.SampleText {
		p.printf("%s\n", buf.Text())
		return
	}

	n := buf.Len()
	if p.opts.Data == DataFirstLine {
		n = min(n, Columns)
	}

	for row := 0; row < n; row += Columns {
		for i := row; i < min(row+Columns, n); i++ {
			p.sample(buf, i)
		}
		p.printf("\n")
	}
}

func (p *Printer) sample(buf *samples.Buffer, i int) {
	switch buf.Type() {
	case format.SampleInt32:
		p.printf("%10d  ", buf.Int32s()[i])
	case format.SampleFloat32:
		p.printf("%10.8g  ", buf.Float32s()[i])
	case format.SampleFloat64:
		p.printf("%10.10g  ", buf.Float64Values()[i])
	case format.SampleText, format.SampleUnknown:
	}
}

// Statistics prints a channel statistics line.
func (p *Printer) Statistics(s stats.Summary) {
	p.printf("Statistics: samples: %d, sum: %f, mean: %f, sum of squares: %f, RMS: %f\n",
		s.Count, s.Sum, s.Mean, s.SumSquares, s.StdDev)
}

// Summary prints the run totals.
func (p *Printer) Summary(records, sampleCount int64) {
	p.printf("Records: %d, Samples: %d\n", records, sampleCount)
}

// Blank prints an empty separator line.
func (p *Printer) Blank() {
	p.printf("\n")
}
