package trace

import (
	"context"
	"fmt"
	"sync"

	"github.com/arloliu/seistrace/errs"
	"github.com/arloliu/seistrace/samples"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Decode returns the samples of segment si of channel ci, decoding them on first use.
//
// The sample type is fixed by the encoding of the segment's first record. Each
// record's samples are copied at an offset advanced by the record's declared
// count. A second call returns the cached buffer, or the cached error of a
// failed decode until the segment is released or its records change.
//
// Returns:
//   - *samples.Buffer: The decoded buffer, owned by the segment
//   - error: AllocationError when the declared count exceeds the segment limit;
//     DecodeError for a record of another sample type, a count that overflows
//     or falls short of the declared total, or an unreadable record. On
//     DecodeError no partial buffer is kept and the error is also available
//     from Segment.Err.
func (l *List) Decode(ci, si int, codec Codec) (*samples.Buffer, error) {
	ch := &l.channels[ci]
	return l.decodeSegment(ch, ch.Segments[si], codec)
}

func (l *List) decodeSegment(ch *Channel, seg *Segment, codec Codec) (*samples.Buffer, error) {
	if seg.buf != nil {
		return seg.buf, nil
	}
	if seg.err != nil {
		return nil, seg.err
	}

	op := fmt.Sprintf("decode %s (%d) segment %s", ch.SourceID, ch.PubVersion, seg.Start)

	if seg.SampleCount > l.maxSamples {
		err := errs.Wrap(errs.KindAllocation, op,
			fmt.Errorf("%w: %d samples, limit %d", errs.ErrSegmentTooLarge, seg.SampleCount, l.maxSamples))
		seg.err = err

		return nil, err
	}

	buf, err := l.unpack(seg, codec)
	if err != nil {
		seg.err = errs.Wrap(errs.KindDecode, op, err)
		l.logger.Debug("segment decode failed", zap.String("sid", ch.SourceID), zap.Error(err))

		return nil, seg.err
	}

	seg.buf = buf
	seg.SampleType = buf.Type()
	seg.err = nil

	return buf, nil
}

func (l *List) unpack(seg *Segment, codec Codec) (*samples.Buffer, error) {
	if len(seg.Refs) == 0 {
		return nil, errs.ErrNoRecords
	}

	_, typ, err := codec.SizeType(seg.Refs[0].Encoding)
	if err != nil {
		return nil, err
	}

	buf, err := samples.New(typ, int(seg.SampleCount))
	if err != nil {
		return nil, err
	}

	var offset int64
	for i := range seg.Refs {
		ref := &seg.Refs[i]

		raw, err := l.recordBytes(ref)
		if err != nil {
			return nil, err
		}
		part, err := codec.DecodeRecord(raw)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if part.Type() != typ {
			return nil, fmt.Errorf("record %d: %w: %s in %s segment", i, errs.ErrSampleTypeMismatch, part.Type(), typ)
		}
		if int64(part.Len()) != ref.SampleCount {
			return nil, fmt.Errorf("record %d: %w: decoded %d, declared %d", i, errs.ErrCountMismatch, part.Len(), ref.SampleCount)
		}
		if _, err := buf.CopyAt(int(offset), part); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		offset += ref.SampleCount
	}

	if offset != seg.SampleCount {
		return nil, fmt.Errorf("%w: unpacked %d, declared %d", errs.ErrCountMismatch, offset, seg.SampleCount)
	}

	return buf, nil
}

// recordBytes returns the record bytes of ref, reading them from its source
// when they were not retained.
func (l *List) recordBytes(ref *RecordRef) ([]byte, error) {
	if ref.Raw != nil {
		return ref.Raw, nil
	}
	if ref.Source < 0 || ref.Source >= len(l.sources) {
		return nil, fmt.Errorf("%w: source %d", errs.ErrSourceUnavailable, ref.Source)
	}

	src := l.sources[ref.Source]
	raw := make([]byte, ref.Length)

	src.mu.Lock()
	_, err := src.r.ReadAt(raw, ref.Offset)
	src.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("%w: %s at offset %d: %w", errs.ErrSourceUnavailable, src.name, ref.Offset, err)
	}

	return raw, nil
}

// DecodeAll decodes every segment not yet decoded, using up to workers goroutines.
//
// Decode errors stay with their segment (see Segment.Err) and do not stop the
// pass. The first AllocationError is returned after all segments finish; a
// cancelled context stops scheduling and returns the context's error once
// in-flight segments finish.
//
// Parameters:
//   - ctx: Cancels the scheduling of remaining segments
//   - codec: Record codec
//   - workers: Maximum concurrent decodes; values below 1 mean 1
//
// Returns:
//   - int: Number of segments that failed to decode
//   - error: Fatal error
func (l *List) DecodeAll(ctx context.Context, codec Codec, workers int) (int, error) {
	if workers < 1 {
		workers = 1
	}

	sem := semaphore.NewWeighted(int64(workers))
	wg := &sync.WaitGroup{}

	var (
		mu     sync.Mutex
		fatal  error
		failed int
	)
	fail := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		failed++
		if fatal == nil && errs.KindOf(err).Fatal() {
			fatal = err
		}
	}

	var schedErr error
schedule:
	for ci := range l.channels {
		ch := &l.channels[ci]
		for _, seg := range ch.Segments {
			if seg.buf != nil {
				continue
			}
			if err := sem.Acquire(ctx, 1); err != nil {
				schedErr = err
				break schedule
			}

			wg.Add(1)
			go func(ch *Channel, seg *Segment) {
				defer wg.Done()
				defer sem.Release(1)
				if _, err := l.decodeSegment(ch, seg, codec); err != nil {
					fail(err)
				}
			}(ch, seg)
		}
	}
	wg.Wait()

	if fatal != nil {
		return failed, fatal
	}

	return failed, schedErr
}
