package trace

import (
	"errors"
	"fmt"
	"io"

	"github.com/arloliu/seistrace/errs"
	"github.com/arloliu/seistrace/format"
	"github.com/arloliu/seistrace/record"
	"github.com/arloliu/seistrace/samples"
	"go.uber.org/zap"
)

// PackOptions controls List.Pack.
type PackOptions struct {
	// MaxRecordLength bounds every output record; 0 selects record.DefaultRecordLength.
	MaxRecordLength int

	// Encoding of the output payloads; 0 keeps the encoding of each segment's first record.
	Encoding format.EncodingType

	// ModifiedOnly packs only segments overwritten since decoding.
	ModifiedOnly bool
}

// writeError marks a failure of the output writer, which aborts the pack.
type writeError struct{ err error }

func (e *writeError) Error() string { return "write record: " + e.err.Error() }
func (e *writeError) Unwrap() error { return e.err }

// Pack serializes segments into records written to w.
//
// Each channel is checked before any of its records are written: a segment
// with zero samples, one that fails to decode, or an encoding that would
// narrow its sample type fails the whole channel with an EncodeError, and
// packing continues with the next channel. A failing writer aborts.
//
// Parameters:
//   - w: Destination of the records
//   - codec: Record codec
//   - opts: Record length and encoding
//
// Returns:
//   - int: Number of records written
//   - error: Joined per-channel errors, or the fatal error
func (l *List) Pack(w io.Writer, codec Codec, opts PackOptions) (int, error) {
	if opts.MaxRecordLength == 0 {
		opts.MaxRecordLength = record.DefaultRecordLength
	}

	emit := func(raw []byte) error {
		if _, err := w.Write(raw); err != nil {
			return &writeError{err: err}
		}
		return nil
	}

	var errList []error
	written := 0

	for ci := range l.channels {
		ch := &l.channels[ci]

		plan, err := l.planChannel(ch, codec, opts)
		if err != nil {
			if errs.KindOf(err).Fatal() {
				return written, err
			}
			errList = append(errList, err)
			l.logger.Warn("channel not packed", zap.String("sid", ch.SourceID), zap.Error(err))

			continue
		}

		for _, p := range plan {
			tmpl := record.Template{
				SourceID:   ch.SourceID,
				PubVersion: ch.PubVersion,
				StartTime:  p.seg.Start,
				SampleRate: p.seg.SampleRate,
			}
			n, err := codec.EncodeRecords(tmpl, p.buf, opts.MaxRecordLength, p.enc, emit)
			written += n
			if err != nil {
				var we *writeError
				if errors.As(err, &we) {
					return written, err
				}
				errList = append(errList, errs.Wrap(errs.KindEncode, "pack "+ch.SourceID, err))

				break
			}
		}
	}

	return written, errors.Join(errList...)
}

type packItem struct {
	seg *Segment
	buf *samples.Buffer
	enc format.EncodingType
}

func (l *List) planChannel(ch *Channel, codec Codec, opts PackOptions) ([]packItem, error) {
	op := "pack " + ch.SourceID
	plan := make([]packItem, 0, len(ch.Segments))

	for _, seg := range ch.Segments {
		if opts.ModifiedOnly && !seg.modified {
			continue
		}
		if seg.SampleCount == 0 {
			return nil, errs.Wrap(errs.KindEncode, op,
				fmt.Errorf("%w: segment %s", errs.ErrZeroLengthSegment, seg.Start))
		}

		buf, err := l.decodeSegment(ch, seg, codec)
		if err != nil {
			if errs.KindOf(err).Fatal() {
				return nil, err
			}

			return nil, errs.Wrap(errs.KindEncode, op, err)
		}

		enc := opts.Encoding
		if enc == 0 {
			enc = seg.Refs[0].Encoding
		}
		_, target, err := codec.SizeType(enc)
		if err != nil {
			return nil, errs.Wrap(errs.KindEncode, op, err)
		}
		if !buf.Type().Widens(target) {
			return nil, errs.Wrap(errs.KindEncode, op,
				fmt.Errorf("%w: %s samples as %s", errs.ErrNarrowingEncoding, buf.Type(), enc))
		}

		plan = append(plan, packItem{seg: seg, buf: buf, enc: enc})
	}

	return plan, nil
}
