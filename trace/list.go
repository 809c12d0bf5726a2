package trace

import (
	"io"
	"iter"
	"sync"

	"github.com/arloliu/seistrace/format"
	"github.com/arloliu/seistrace/internal/options"
	"github.com/arloliu/seistrace/nstime"
	"github.com/arloliu/seistrace/samples"
	"go.uber.org/zap"
)

// RecordRef locates one record of a segment.
//
// A ref either retains the record bytes (Raw) or points into a registered
// source by Offset and Length.
type RecordRef struct {
	Raw         []byte
	Offset      int64
	Length      int
	Source      int
	Encoding    format.EncodingType
	Start       nstime.Time
	End         nstime.Time
	SampleCount int64
}

// Retained reports whether the ref holds the record bytes.
func (r *RecordRef) Retained() bool {
	return r.Raw != nil
}

// Segment is a contiguous run of samples of one channel.
type Segment struct {
	Start       nstime.Time
	End         nstime.Time
	SampleRate  float64
	SampleCount int64

	// SampleType is SampleUnknown until the first successful decode.
	SampleType format.SampleType

	Refs []RecordRef

	buf      *samples.Buffer
	err      error
	modified bool
}

// Buffer returns the decoded samples, or nil when not decoded.
func (s *Segment) Buffer() *samples.Buffer {
	return s.buf
}

// Decoded reports whether the segment holds a live buffer.
func (s *Segment) Decoded() bool {
	return s.buf != nil
}

// Err returns the error of the last failed decode, or nil.
func (s *Segment) Err() error {
	return s.err
}

// Modified reports whether the samples were overwritten since decoding.
func (s *Segment) Modified() bool {
	return s.modified
}

// Release drops the decoded buffer and any decode error. The next decode
// reads the records again.
func (s *Segment) Release() {
	s.buf = nil
	s.err = nil
	s.modified = false
}

// Channel is the set of segments sharing a source identifier and publication version.
type Channel struct {
	SourceID   string
	PubVersion uint8
	Earliest   nstime.Time
	Latest     nstime.Time
	Segments   []*Segment
}

// SampleCount returns the declared sample count over all segments.
func (c *Channel) SampleCount() int64 {
	var n int64
	for _, seg := range c.Segments {
		n += seg.SampleCount
	}

	return n
}

// Buffers returns the live buffers of every decoded segment, in time order.
func (c *Channel) Buffers() []*samples.Buffer {
	bufs := make([]*samples.Buffer, 0, len(c.Segments))
	for _, seg := range c.Segments {
		if seg.buf != nil {
			bufs = append(bufs, seg.buf)
		}
	}

	return bufs
}

type source struct {
	r    io.ReaderAt
	name string
	mu   sync.Mutex
}

// List is an arena of channels indexed by (identifier, version).
//
// Assembly and decoding are single-threaded except for DecodeAll, which
// decodes distinct segments concurrently.
type List struct {
	channels []Channel
	index    map[uint64][]int
	sources  []*source

	timeTolerance func(rate float64) int64
	rateTolerance float64
	maxSamples    int64
	retain        bool
	logger        *zap.Logger
}

// NewList creates an empty List.
//
// Parameters:
//   - opts: List options
//
// Returns:
//   - *List: The list
//   - error: Invalid option error
func NewList(opts ...ListOption) (*List, error) {
	l := &List{
		index:         make(map[uint64][]int),
		timeTolerance: halfPeriod,
		rateTolerance: DefaultSampleRateTolerance,
		maxSamples:    DefaultMaxSegmentSamples,
		logger:        zap.NewNop(),
	}
	if err := options.Apply(l, opts...); err != nil {
		return nil, err
	}

	return l, nil
}

func halfPeriod(rate float64) int64 {
	return nstime.Period(rate) / 2
}

// AddSource registers a source that record refs may point into and returns its index.
func (l *List) AddSource(r io.ReaderAt, name string) int {
	l.sources = append(l.sources, &source{r: r, name: name})
	return len(l.sources) - 1
}

// Len returns the number of channels.
func (l *List) Len() int {
	return len(l.channels)
}

// Channel returns channel i. The pointer is valid until the next Add.
func (l *List) Channel(i int) *Channel {
	return &l.channels[i]
}

// Channels iterates the channels in creation order.
func (l *List) Channels() iter.Seq2[int, *Channel] {
	return func(yield func(int, *Channel) bool) {
		for i := range l.channels {
			if !yield(i, &l.channels[i]) {
				return
			}
		}
	}
}

// TotalSamples returns the declared sample count over all channels.
func (l *List) TotalSamples() int64 {
	var n int64
	for i := range l.channels {
		n += l.channels[i].SampleCount()
	}

	return n
}

// Free drops every channel, segment, buffer and source.
func (l *List) Free() {
	l.channels = nil
	l.index = make(map[uint64][]int)
	l.sources = nil
}
