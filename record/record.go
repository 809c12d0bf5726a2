package record

import (
	"fmt"

	"github.com/arloliu/seistrace/errs"
	"github.com/arloliu/seistrace/format"
	"github.com/arloliu/seistrace/internal/hash"
	"github.com/arloliu/seistrace/nstime"
)

// Record is one parsed record.
//
// Payload and Raw alias the same backing array; Payload is the stored form,
// still compressed when Compression is not CompressionNone.
type Record struct {
	SourceID    string
	StartTime   nstime.Time
	SampleRate  float64
	SampleCount int64
	Encoding    format.EncodingType
	Compression format.CompressionType
	PubVersion  uint8
	BigEndian   bool

	Payload []byte
	Raw     []byte

	// Offset is the byte offset of the record in its source stream.
	Offset int64
}

// Length returns the total record length in bytes.
func (r *Record) Length() int {
	return len(r.Raw)
}

// EndTime returns the time of the last sample.
func (r *Record) EndTime() nstime.Time {
	return nstime.EndTime(r.StartTime, r.SampleRate, r.SampleCount)
}

// Template carries the fields shared by every record packed from one segment.
type Template struct {
	SourceID   string
	PubVersion uint8
	StartTime  nstime.Time
	SampleRate float64
}

// TemplateOf returns the template describing r.
func TemplateOf(r *Record) Template {
	return Template{
		SourceID:   r.SourceID,
		PubVersion: r.PubVersion,
		StartTime:  r.StartTime,
		SampleRate: r.SampleRate,
	}
}

// Parse parses a complete record.
//
// Parameters:
//   - raw: The record bytes; the returned Record references raw without copying
//   - validate: Verify the xxHash64 checksum of identifier and payload
//
// Returns:
//   - *Record: Parsed record with Offset 0
//   - error: Header errors, ErrTruncatedRecord when raw is shorter than the
//     header declares, ErrInvalidHeader when longer, or ErrChecksumMismatch
func Parse(raw []byte, validate bool) (*Record, error) {
	h, err := ParseHeader(raw)
	if err != nil {
		return nil, err
	}

	return fromHeader(h, raw, validate)
}

func fromHeader(h Header, raw []byte, validate bool) (*Record, error) {
	total := h.RecordLength()
	if len(raw) < total {
		return nil, fmt.Errorf("%w: have %d bytes, header declares %d", errs.ErrTruncatedRecord, len(raw), total)
	}
	if len(raw) > total {
		return nil, fmt.Errorf("%w: %d bytes beyond declared length %d", errs.ErrInvalidHeader, len(raw)-total, total)
	}

	sidEnd := HeaderSize + int(h.SIDLength)
	sid := raw[HeaderSize:sidEnd]
	payload := raw[sidEnd:total]

	if validate && hash.Checksum(sid, payload) != h.Checksum {
		return nil, fmt.Errorf("%w: %s", errs.ErrChecksumMismatch, string(sid))
	}

	return &Record{
		SourceID:    string(sid),
		StartTime:   h.StartTime,
		SampleRate:  h.SampleRate,
		SampleCount: int64(h.SampleCount),
		Encoding:    h.Encoding,
		Compression: h.Compression,
		PubVersion:  h.PubVersion,
		BigEndian:   h.BigEndian(),
		Payload:     payload,
		Raw:         raw,
	}, nil
}
