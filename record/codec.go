package record

import (
	"fmt"

	"github.com/arloliu/seistrace/compress"
	"github.com/arloliu/seistrace/endian"
	"github.com/arloliu/seistrace/errs"
	"github.com/arloliu/seistrace/format"
	"github.com/arloliu/seistrace/internal/hash"
	"github.com/arloliu/seistrace/internal/options"
	"github.com/arloliu/seistrace/internal/pool"
	"github.com/arloliu/seistrace/nstime"
	"github.com/arloliu/seistrace/samples"
)

// Codec decodes single records into sample buffers and packs sample buffers
// into records.
//
// A Codec is immutable after construction and safe for concurrent use.
type Codec struct {
	compression format.CompressionType
	engine      endian.EndianEngine
	validate    bool
}

// CodecOption configures a Codec.
type CodecOption = options.Option[*Codec]

// WithCompression sets the payload compression used when packing (default none).
func WithCompression(c format.CompressionType) CodecOption {
	return options.New(func(codec *Codec) error {
		if _, err := compress.GetCodec(c); err != nil {
			return fmt.Errorf("%w: %w", errs.ErrInvalidOption, err)
		}
		codec.compression = c

		return nil
	})
}

// WithBigEndian selects the byte order used when packing (default little-endian).
func WithBigEndian(big bool) CodecOption {
	return options.NoError(func(codec *Codec) {
		codec.engine = endian.ForBigEndian(big)
	})
}

// WithDecodeValidation enables or disables checksum verification when decoding
// (enabled by default).
func WithDecodeValidation(enabled bool) CodecOption {
	return options.NoError(func(codec *Codec) {
		codec.validate = enabled
	})
}

// NewCodec creates a Codec.
//
// Parameters:
//   - opts: Codec options
//
// Returns:
//   - *Codec: The codec
//   - error: Invalid option error
func NewCodec(opts ...CodecOption) (*Codec, error) {
	c := &Codec{
		compression: format.CompressionNone,
		engine:      endian.GetLittleEndianEngine(),
		validate:    true,
	}
	if err := options.Apply(c, opts...); err != nil {
		return nil, err
	}

	return c, nil
}

// SizeType returns the decoded element size and sample type of enc.
func (c *Codec) SizeType(enc format.EncodingType) (int, format.SampleType, error) {
	size, typ, err := enc.SizeType()
	if err != nil {
		return 0, format.SampleUnknown, fmt.Errorf("%w: %w", errs.ErrUnsupportedEncoding, err)
	}

	return size, typ, nil
}

// DecodeRecord decodes the samples of one complete record.
//
// Parameters:
//   - raw: The complete record bytes
//
// Returns:
//   - *samples.Buffer: Newly allocated buffer holding exactly the declared samples
//   - error: Header, checksum, decompression or payload errors
func (c *Codec) DecodeRecord(raw []byte) (*samples.Buffer, error) {
	rec, err := Parse(raw, c.validate)
	if err != nil {
		return nil, err
	}

	dec, err := compress.GetCodec(rec.Compression)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrMalformedPayload, err)
	}
	payload, err := dec.Decompress(rec.Payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %s decompression: %w", errs.ErrMalformedPayload, rec.Compression, err)
	}

	return decodePayload(rec.Encoding, endian.ForBigEndian(rec.BigEndian), payload, int(rec.SampleCount))
}

// EncodeRecords packs buf into records no longer than maxRecordLength.
//
// Records are filled greedily: each holds as many consecutive samples as fit
// after encoding. Compression is applied per record and dropped for a record
// when it does not shrink the payload. The first record starts at
// tmpl.StartTime; each following record starts at the time of its first sample.
//
// emit receives each record in order. The slice is reused after emit returns.
//
// Parameters:
//   - tmpl: Identifier, version, start time and sample rate of the series
//   - buf: Samples to pack; its type must widen to the encoding's sample type
//   - maxRecordLength: Upper bound of every record, MinRecordLength..MaxRecordLength
//   - enc: Payload encoding
//   - emit: Receives each record
//
// Returns:
//   - int: Number of records emitted
//   - error: ErrInvalidRecordLen, ErrZeroLengthSegment, ErrUnsupportedEncoding,
//     ErrNarrowingEncoding, ErrIdentifierTooLong, ErrRecordLenTooSmall, or emit's error
func (c *Codec) EncodeRecords(
	tmpl Template, buf *samples.Buffer, maxRecordLength int, enc format.EncodingType, emit func(raw []byte) error,
) (int, error) {
	if maxRecordLength < MinRecordLength || maxRecordLength > MaxRecordLength {
		return 0, fmt.Errorf("%w: %d not in %d..%d", errs.ErrInvalidRecordLen, maxRecordLength, MinRecordLength, MaxRecordLength)
	}
	if len(tmpl.SourceID) == 0 || len(tmpl.SourceID) > MaxIdentifierLength {
		return 0, fmt.Errorf("%w: %d bytes", errs.ErrIdentifierTooLong, len(tmpl.SourceID))
	}
	if buf == nil || buf.Len() == 0 {
		return 0, errs.ErrZeroLengthSegment
	}

	_, target, err := c.SizeType(enc)
	if err != nil {
		return 0, err
	}
	if !buf.Type().Widens(target) {
		return 0, fmt.Errorf("%w: %s samples as %s", errs.ErrNarrowingEncoding, buf.Type(), enc)
	}
	if buf.Type() != target {
		buf = samples.FromFloat64(buf.Float64s())
	}

	avail := maxRecordLength - HeaderSize - len(tmpl.SourceID)
	total := buf.Len()
	records := 0

	for start := 0; start < total; {
		n, payload, err := c.encodeChunk(enc, buf, start, avail)
		if err != nil {
			return records, err
		}

		chunkStart := nstime.SampleTime(tmpl.StartTime, tmpl.SampleRate, int64(start))
		if err := c.emitRecord(tmpl, chunkStart, n, enc, payload, emit); err != nil {
			return records, err
		}

		records++
		start += n
	}

	return records, nil
}

// encodeChunk encodes as many samples from start as fit in avail bytes.
// The returned payload is owned by the caller.
func (c *Codec) encodeChunk(enc format.EncodingType, buf *samples.Buffer, start, avail int) (int, []byte, error) {
	ce, err := newChunkEncoder(enc, buf, c.engine)
	if err != nil {
		return 0, nil, err
	}

	n, overflow := 0, false
	for start+n < buf.Len() {
		ce.write(start + n)
		if ce.size() > avail {
			overflow = true
			break
		}
		n++
	}

	if n == 0 {
		ce.finish()
		return 0, nil, fmt.Errorf("%w: %d bytes available", errs.ErrRecordLenTooSmall, avail)
	}

	if overflow {
		// Encoders cannot drop the last value; encode the chunk again.
		ce.finish()
		if ce, err = newChunkEncoder(enc, buf, c.engine); err != nil {
			return 0, nil, err
		}
		for i := start; i < start+n; i++ {
			ce.write(i)
		}
	}

	payload := append([]byte(nil), ce.bytes()...)
	ce.finish()

	return n, payload, nil
}

func (c *Codec) emitRecord(
	tmpl Template, start nstime.Time, count int, enc format.EncodingType, payload []byte, emit func([]byte) error,
) error {
	compression := format.CompressionNone
	if c.compression != format.CompressionNone {
		comp, err := compress.GetCodec(c.compression)
		if err != nil {
			return err
		}
		packed, err := comp.Compress(payload)
		if err != nil {
			return fmt.Errorf("%s compression: %w", c.compression, err)
		}
		if len(packed) > 0 && len(packed) < len(payload) {
			payload = packed
			compression = c.compression
		}
	}

	sid := []byte(tmpl.SourceID)
	h := Header{
		StartTime:     start,
		SampleRate:    tmpl.SampleRate,
		Checksum:      hash.Checksum(sid, payload),
		SampleCount:   uint32(count),        //nolint:gosec
		PayloadLength: uint32(len(payload)), //nolint:gosec
		Encoding:      enc,
		Compression:   compression,
		PubVersion:    tmpl.PubVersion,
		SIDLength:     uint8(len(sid)), //nolint:gosec
	}
	if endian.IsBigEndian(c.engine) {
		h.Flags |= FlagBigEndian
	}

	rb := pool.GetRecordBuffer()
	defer pool.PutRecordBuffer(rb)

	rb.B = h.AppendTo(rb.B)
	rb.MustWrite(sid)
	rb.MustWrite(payload)

	return emit(rb.Bytes())
}
