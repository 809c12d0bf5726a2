package record

import (
	"fmt"
	"math"

	"github.com/arloliu/seistrace/endian"
	"github.com/arloliu/seistrace/errs"
	"github.com/arloliu/seistrace/format"
	"github.com/arloliu/seistrace/nstime"
)

// Header is the fixed-size header at the start of every record.
type Header struct {
	StartTime     nstime.Time            // byte offset 8-15
	SampleRate    float64                // byte offset 16-23
	Checksum      uint64                 // byte offset 32-39
	SampleCount   uint32                 // byte offset 24-27
	PayloadLength uint32                 // byte offset 28-31
	Flags         uint8                  // byte offset 3
	Encoding      format.EncodingType    // byte offset 4
	Compression   format.CompressionType // byte offset 5
	PubVersion    uint8                  // byte offset 6
	SIDLength     uint8                  // byte offset 7
}

// BigEndian reports whether multi-byte fields are big-endian.
func (h Header) BigEndian() bool {
	return h.Flags&FlagBigEndian != 0
}

// Engine returns the byte order engine selected by the flags.
func (h Header) Engine() endian.EndianEngine {
	return endian.ForBigEndian(h.BigEndian())
}

// RecordLength returns the total record length described by the header.
func (h Header) RecordLength() int {
	return HeaderSize + int(h.SIDLength) + int(h.PayloadLength)
}

// Parse parses the header from a byte slice.
//
// Parameters:
//   - data: Byte slice containing the header (must be exactly HeaderSize bytes)
//
// Returns:
//   - error: ErrInvalidHeaderSize, ErrInvalidMagicNumber or ErrInvalidHeader
func (h *Header) Parse(data []byte) error {
	if len(data) != HeaderSize {
		return errs.ErrInvalidHeaderSize
	}
	if data[0] != MagicByte0 || data[1] != MagicByte1 {
		return errs.ErrInvalidMagicNumber
	}
	if data[2] != FormatVersion {
		return fmt.Errorf("%w: format version %d", errs.ErrInvalidHeader, data[2])
	}

	h.Flags = data[3]
	h.Encoding = format.EncodingType(data[4])
	h.Compression = format.CompressionType(data[5])
	h.PubVersion = data[6]
	h.SIDLength = data[7]

	engine := h.Engine()
	h.StartTime = nstime.Time(engine.Uint64(data[8:16])) //nolint:gosec
	h.SampleRate = math.Float64frombits(engine.Uint64(data[16:24]))
	h.SampleCount = engine.Uint32(data[24:28])
	h.PayloadLength = engine.Uint32(data[28:32])
	h.Checksum = engine.Uint64(data[32:40])

	return h.Validate()
}

// Validate checks the header fields that do not depend on the record body.
func (h Header) Validate() error {
	if h.Flags&^flagKnownMask != 0 {
		return fmt.Errorf("%w: unknown flags 0x%02x", errs.ErrInvalidHeader, h.Flags)
	}
	if _, _, err := h.Encoding.SizeType(); err != nil {
		return fmt.Errorf("%w: %w", errs.ErrUnsupportedEncoding, err)
	}

	switch h.Compression {
	case format.CompressionNone, format.CompressionZstd, format.CompressionS2, format.CompressionLZ4:
	default:
		return fmt.Errorf("%w: compression %d", errs.ErrInvalidHeader, uint8(h.Compression))
	}

	if math.IsNaN(h.SampleRate) || math.IsInf(h.SampleRate, 0) || h.SampleRate < 0 {
		return fmt.Errorf("%w: sample rate %g", errs.ErrInvalidHeader, h.SampleRate)
	}
	if h.SIDLength == 0 {
		return fmt.Errorf("%w: empty source identifier", errs.ErrInvalidHeader)
	}

	return nil
}

// AppendTo appends the serialized header to b.
func (h Header) AppendTo(b []byte) []byte {
	engine := h.Engine()

	b = append(b, MagicByte0, MagicByte1, FormatVersion, h.Flags,
		uint8(h.Encoding), uint8(h.Compression), h.PubVersion, h.SIDLength)
	b = engine.AppendUint64(b, uint64(h.StartTime)) //nolint:gosec
	b = engine.AppendUint64(b, math.Float64bits(h.SampleRate))
	b = engine.AppendUint32(b, h.SampleCount)
	b = engine.AppendUint32(b, h.PayloadLength)
	b = engine.AppendUint64(b, h.Checksum)

	return b
}

// Bytes serializes the header into a new HeaderSize byte slice.
func (h Header) Bytes() []byte {
	return h.AppendTo(make([]byte, 0, HeaderSize))
}

// ParseHeader parses a Header from the first HeaderSize bytes of data.
//
// Parameters:
//   - data: Byte slice starting with a header (must be at least HeaderSize bytes)
//
// Returns:
//   - Header: Parsed header
//   - error: ErrInvalidHeaderSize or header validation errors
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, errs.ErrInvalidHeaderSize
	}

	h := Header{}
	if err := h.Parse(data[:HeaderSize]); err != nil {
		return Header{}, err
	}

	return h, nil
}
