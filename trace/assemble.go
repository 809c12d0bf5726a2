package trace

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/arloliu/seistrace/errs"
	"github.com/arloliu/seistrace/internal/hash"
	"github.com/arloliu/seistrace/nstime"
	"github.com/arloliu/seistrace/record"
	"github.com/arloliu/seistrace/selection"
	"go.uber.org/zap"
)

// AddResult describes where Add placed a record.
type AddResult uint8

const (
	AddNewChannel AddResult = iota // AddNewChannel created a channel with one segment.
	AddInserted                    // AddInserted created a new segment in an existing channel.
	AddAppended                    // AddAppended extended a segment at its end.
	AddPrepended                   // AddPrepended extended a segment at its start.
	AddMerged                      // AddMerged joined two segments across the record.
	AddOverlap                     // AddOverlap refused a record overlapping a segment.
)

func (r AddResult) String() string {
	switch r {
	case AddNewChannel:
		return "new-channel"
	case AddInserted:
		return "inserted"
	case AddAppended:
		return "appended"
	case AddPrepended:
		return "prepended"
	case AddMerged:
		return "merged"
	case AddOverlap:
		return "overlap"
	default:
		return "unknown"
	}
}

// Add places rec into its channel.
//
// The record joins a segment when the sample rates agree within the rate
// tolerance and the record starts one period after the segment end (append)
// or ends one period before the segment start (prepend), within the time
// tolerance. A record that does both for two neighbouring segments merges
// them. Otherwise it starts a new segment in time order. Records with a zero
// sample rate never join a segment.
//
// Records overlapping an existing segment are refused with AddOverlap and no
// error, so the sampled segments of a channel never overlap. Zero-rate records
// carry no sample timing and are exempt: each becomes its own segment.
//
// Parameters:
//   - rec: The record; its Raw bytes are kept when records are retained or source is negative
//   - source: Index returned by AddSource, or -1
//
// Returns:
//   - AddResult: Placement of the record
//   - error: ErrSourceUnavailable when source is neither -1 nor a registered index
func (l *List) Add(rec *record.Record, source int) (AddResult, error) {
	ref, err := l.newRef(rec, source)
	if err != nil {
		return AddOverlap, err
	}

	ci, ok := l.lookup(rec.SourceID, rec.PubVersion)
	if !ok {
		l.channels = append(l.channels, Channel{
			SourceID:   rec.SourceID,
			PubVersion: rec.PubVersion,
			Earliest:   ref.Start,
			Latest:     ref.End,
			Segments:   []*Segment{newSegment(rec.SampleRate, ref)},
		})
		key := hash.ChannelKey(rec.SourceID, rec.PubVersion)
		l.index[key] = append(l.index[key], len(l.channels)-1)

		return AddNewChannel, nil
	}

	ch := &l.channels[ci]
	res := l.place(ch, rec.SampleRate, ref)
	if res == AddOverlap {
		l.logger.Warn("record overlaps existing segment, skipped",
			zap.String("sid", rec.SourceID),
			zap.Uint8("pubversion", rec.PubVersion),
			zap.String("start", ref.Start.String()),
			zap.String("end", ref.End.String()))

		return res, nil
	}

	ch.Earliest = min(ch.Earliest, ref.Start)
	ch.Latest = max(ch.Latest, ref.End)

	return res, nil
}

func (l *List) newRef(rec *record.Record, source int) (RecordRef, error) {
	ref := RecordRef{
		Source:      source,
		Offset:      rec.Offset,
		Length:      rec.Length(),
		Encoding:    rec.Encoding,
		Start:       rec.StartTime,
		End:         rec.EndTime(),
		SampleCount: rec.SampleCount,
	}

	switch {
	case source < 0 || l.retain:
		ref.Raw = rec.Raw
	case source >= len(l.sources):
		return RecordRef{}, errs.Wrap(errs.KindConfiguration, "add record",
			fmt.Errorf("%w: source %d not registered", errs.ErrSourceUnavailable, source))
	}

	return ref, nil
}

func (l *List) lookup(sid string, version uint8) (int, bool) {
	for _, ci := range l.index[hash.ChannelKey(sid, version)] {
		if l.channels[ci].SourceID == sid && l.channels[ci].PubVersion == version {
			return ci, true
		}
	}

	return 0, false
}

func newSegment(rate float64, ref RecordRef) *Segment {
	return &Segment{
		Start:       ref.Start,
		End:         ref.End,
		SampleRate:  rate,
		SampleCount: ref.SampleCount,
		Refs:        []RecordRef{ref},
	}
}

func (l *List) place(ch *Channel, rate float64, ref RecordRef) AddResult {
	segs := ch.Segments
	i := sort.Search(len(segs), func(k int) bool { return segs[k].Start > ref.Start })
	if rate <= 0 {
		l.insert(ch, i, newSegment(rate, ref))
		return AddInserted
	}

	// Zero-rate segments interleave freely; only sampled neighbours bound the record.
	var prev, next *Segment
	pi, ni := sampledBefore(segs, i), sampledFrom(segs, i)
	if pi >= 0 {
		prev = segs[pi]
	}
	if ni >= 0 {
		next = segs[ni]
	}

	if (prev != nil && ref.Start <= prev.End) || (next != nil && ref.End >= next.Start) {
		return AddOverlap
	}

	appends := prev != nil && l.canAppend(prev, rate, ref)
	prepends := next != nil && l.canPrepend(next, rate, ref)

	switch {
	case appends && prepends:
		prev.invalidate()
		prev.Refs = append(prev.Refs, ref)
		prev.Refs = append(prev.Refs, next.Refs...)
		prev.End = next.End
		prev.SampleCount += ref.SampleCount + next.SampleCount
		ch.Segments = append(segs[:ni], segs[ni+1:]...)

		return AddMerged
	case appends:
		prev.invalidate()
		prev.Refs = append(prev.Refs, ref)
		prev.End = ref.End
		prev.SampleCount += ref.SampleCount

		return AddAppended
	case prepends:
		next.invalidate()
		next.Refs = append([]RecordRef{ref}, next.Refs...)
		next.Start = ref.Start
		next.SampleCount += ref.SampleCount
		if ni > i {
			// keep start order past the zero-rate segments next moved ahead of
			copy(segs[i+1:ni+1], segs[i:ni])
			segs[i] = next
		}

		return AddPrepended
	}

	l.insert(ch, i, newSegment(rate, ref))

	return AddInserted
}

func (l *List) insert(ch *Channel, i int, seg *Segment) {
	ch.Segments = append(ch.Segments, nil)
	copy(ch.Segments[i+1:], ch.Segments[i:])
	ch.Segments[i] = seg
}

// sampledBefore returns the index of the last sampled segment before i, or -1.
func sampledBefore(segs []*Segment, i int) int {
	for k := i - 1; k >= 0; k-- {
		if segs[k].SampleRate > 0 {
			return k
		}
	}

	return -1
}

// sampledFrom returns the index of the first sampled segment at or after i, or -1.
func sampledFrom(segs []*Segment, i int) int {
	for k := i; k < len(segs); k++ {
		if segs[k].SampleRate > 0 {
			return k
		}
	}

	return -1
}

func (l *List) rateCompatible(a, b float64) bool {
	if a <= 0 || b <= 0 {
		return false
	}

	return math.Abs(1-a/b) <= l.rateTolerance
}

func (l *List) canAppend(seg *Segment, rate float64, ref RecordRef) bool {
	if !l.rateCompatible(rate, seg.SampleRate) {
		return false
	}
	if ref.Start <= seg.End {
		return false
	}
	expected := seg.End + nstime.Time(nstime.Period(seg.SampleRate))

	return abs(int64(ref.Start-expected)) <= l.timeTolerance(rate)
}

func (l *List) canPrepend(seg *Segment, rate float64, ref RecordRef) bool {
	if !l.rateCompatible(rate, seg.SampleRate) {
		return false
	}
	if ref.End >= seg.Start {
		return false
	}
	expected := ref.End + nstime.Time(nstime.Period(seg.SampleRate))

	return abs(int64(seg.Start-expected)) <= l.timeTolerance(rate)
}

// invalidate drops a buffer made stale by a change of the record set.
func (s *Segment) invalidate() {
	s.buf = nil
	s.err = nil
	s.modified = false
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}

	return v
}

// ReadStats counts the outcome of one ReadFrom pass.
type ReadStats struct {
	Records  int64 // Records read from the stream
	Selected int64 // Records accepted by the selection
	Samples  int64 // Declared samples of the selected records
	Skipped  int64 // Records dropped for a failed checksum
	Overlaps int64 // Selected records refused as overlapping
}

// ReadFrom adds every record of rd accepted by sel in a single pass.
//
// Records failing checksum validation are skipped and counted. A header or
// truncation error ends the pass; the records added before it are kept and the
// error is returned as a DecodeError.
//
// Parameters:
//   - rd: Record stream
//   - source: Index returned by AddSource for the stream's file, or -1
//   - sel: Record filter; nil selects every record
//
// Returns:
//   - ReadStats: Counts for the pass
//   - error: DecodeError for an unreadable stream
func (l *List) ReadFrom(rd *record.Reader, source int, sel *selection.Selection) (ReadStats, error) {
	var stats ReadStats

	for {
		rec, err := rd.Next()
		if errors.Is(err, io.EOF) {
			return stats, nil
		}
		if errors.Is(err, errs.ErrChecksumMismatch) {
			stats.Records++
			stats.Skipped++
			l.logger.Warn("record failed checksum validation, skipped", zap.Error(err))

			continue
		}
		if err != nil {
			return stats, errs.Wrap(errs.KindDecode, "read records", err)
		}

		stats.Records++
		if !sel.Matches(rec.SourceID, rec.PubVersion, rec.StartTime, rec.EndTime()) {
			continue
		}

		res, err := l.Add(rec, source)
		if err != nil {
			return stats, err
		}
		if res == AddOverlap {
			stats.Overlaps++
			continue
		}

		stats.Selected++
		stats.Samples += rec.SampleCount
	}
}
