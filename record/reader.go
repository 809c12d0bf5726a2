package record

import (
	"errors"
	"fmt"
	"io"

	"github.com/arloliu/seistrace/errs"
	"github.com/arloliu/seistrace/internal/options"
)

// Reader reads concatenated records from a stream.
type Reader struct {
	r        io.Reader
	offset   int64
	validate bool
	header   [HeaderSize]byte
}

// ReaderOption configures a Reader.
type ReaderOption = options.Option[*Reader]

// WithChecksumValidation enables or disables checksum verification (enabled by default).
func WithChecksumValidation(enabled bool) ReaderOption {
	return options.NoError(func(rd *Reader) {
		rd.validate = enabled
	})
}

// NewReader creates a Reader over r.
//
// Parameters:
//   - r: Source stream positioned at the first record
//   - opts: Reader options
//
// Returns:
//   - *Reader: The reader
//   - error: Option error
func NewReader(r io.Reader, opts ...ReaderOption) (*Reader, error) {
	rd := &Reader{r: r, validate: true}
	if err := options.Apply(rd, opts...); err != nil {
		return nil, err
	}

	return rd, nil
}

// Offset returns the stream offset of the next record.
func (rd *Reader) Offset() int64 {
	return rd.offset
}

// Next reads the next record.
//
// The record's Raw bytes are freshly allocated and owned by the caller.
//
// Returns:
//   - *Record: The record, with Offset set to its position in the stream
//   - error: io.EOF at a clean end of stream, ErrTruncatedRecord when the
//     stream ends inside a record, or a header/checksum error. After
//     ErrChecksumMismatch the reader is positioned on the following record.
func (rd *Reader) Next() (*Record, error) {
	n, err := io.ReadFull(rd.r, rd.header[:])
	if errors.Is(err, io.EOF) && n == 0 {
		return nil, io.EOF
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("record at offset %d: %w: header", rd.offset, errs.ErrTruncatedRecord)
	}
	if err != nil {
		return nil, fmt.Errorf("record at offset %d: %w", rd.offset, err)
	}

	h, err := ParseHeader(rd.header[:])
	if err != nil {
		return nil, fmt.Errorf("record at offset %d: %w", rd.offset, err)
	}

	raw := make([]byte, h.RecordLength())
	copy(raw, rd.header[:])
	if _, err := io.ReadFull(rd.r, raw[HeaderSize:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("record at offset %d: %w: body", rd.offset, errs.ErrTruncatedRecord)
		}

		return nil, fmt.Errorf("record at offset %d: %w", rd.offset, err)
	}

	offset := rd.offset
	rd.offset += int64(len(raw))

	// The stream stays aligned on the next record even when this one fails
	// validation, so callers may skip it and continue.
	rec, err := fromHeader(h, raw, rd.validate)
	if err != nil {
		return nil, fmt.Errorf("record at offset %d: %w", offset, err)
	}
	rec.Offset = offset

	return rec, nil
}
