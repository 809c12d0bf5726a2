package format

import (
	"fmt"
	"strings"
)

type (
	SampleType      uint8
	EncodingType    uint8
	CompressionType uint8
)

const (
	SampleUnknown SampleType = 0x0 // SampleUnknown is the zero value, never produced by a decoder.
	SampleInt32   SampleType = 0x1 // SampleInt32 represents 32-bit signed integer samples.
	SampleFloat32 SampleType = 0x2 // SampleFloat32 represents IEEE 754 single precision samples.
	SampleFloat64 SampleType = 0x3 // SampleFloat64 represents IEEE 754 double precision samples.
	SampleText    SampleType = 0x4 // SampleText represents text payloads, one byte per sample.
)

const (
	EncodingText       EncodingType = 0x1 // EncodingText represents raw text bytes.
	EncodingInt32      EncodingType = 0x2 // EncodingInt32 represents fixed-width 32-bit integers.
	EncodingFloat32    EncodingType = 0x3 // EncodingFloat32 represents fixed-width 32-bit floats.
	EncodingFloat64    EncodingType = 0x4 // EncodingFloat64 represents fixed-width 64-bit floats.
	EncodingDeltaInt32 EncodingType = 0x5 // EncodingDeltaInt32 represents zigzag varint first differences of 32-bit integers.
	EncodingGorilla    EncodingType = 0x6 // EncodingGorilla represents Gorilla XOR compression of 64-bit floats.
)

const (
	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
)

func (s SampleType) String() string {
	switch s {
	case SampleInt32:
		return "Int32"
	case SampleFloat32:
		return "Float32"
	case SampleFloat64:
		return "Float64"
	case SampleText:
		return "Text"
	case SampleUnknown:
		return "Unknown"
	default:
		return "Unknown"
	}
}

// Char returns the single character tag used in reports: 'i', 'f', 'd' or 'a'.
func (s SampleType) Char() byte {
	switch s {
	case SampleInt32:
		return 'i'
	case SampleFloat32:
		return 'f'
	case SampleFloat64:
		return 'd'
	case SampleText:
		return 'a'
	case SampleUnknown:
		return '?'
	default:
		return '?'
	}
}

// Size returns the in-memory element size in bytes, or 0 for an unknown type.
func (s SampleType) Size() int {
	switch s {
	case SampleInt32, SampleFloat32:
		return 4
	case SampleFloat64:
		return 8
	case SampleText:
		return 1
	case SampleUnknown:
		return 0
	default:
		return 0
	}
}

// Numeric reports whether the type can feed the statistics aggregator.
func (s SampleType) Numeric() bool {
	return s == SampleInt32 || s == SampleFloat32 || s == SampleFloat64
}

// Widens reports whether every value of s is exactly representable in target.
func (s SampleType) Widens(target SampleType) bool {
	if s == target {
		return true
	}

	switch s {
	case SampleInt32:
		return target == SampleFloat64
	case SampleFloat32:
		return target == SampleFloat64
	case SampleFloat64, SampleText, SampleUnknown:
		return false
	default:
		return false
	}
}

func (e EncodingType) String() string {
	switch e {
	case EncodingText:
		return "Text"
	case EncodingInt32:
		return "Int32"
	case EncodingFloat32:
		return "Float32"
	case EncodingFloat64:
		return "Float64"
	case EncodingDeltaInt32:
		return "DeltaInt32"
	case EncodingGorilla:
		return "Gorilla"
	default:
		return "Unknown"
	}
}

// SizeType returns the decoded element size and sample type produced by the encoding.
//
// Returns:
//   - int: Element size in bytes of the decoded samples
//   - SampleType: Sample type of the decoded samples
//   - error: Unknown encoding error
func (e EncodingType) SizeType() (int, SampleType, error) {
	switch e {
	case EncodingText:
		return 1, SampleText, nil
	case EncodingInt32, EncodingDeltaInt32:
		return 4, SampleInt32, nil
	case EncodingFloat32:
		return 4, SampleFloat32, nil
	case EncodingFloat64, EncodingGorilla:
		return 8, SampleFloat64, nil
	default:
		return 0, SampleUnknown, fmt.Errorf("unknown encoding: %d", uint8(e))
	}
}

// UnmarshalText parses an encoding name, case-insensitively.
func (e *EncodingType) UnmarshalText(text []byte) error {
	name := strings.ToLower(strings.TrimSpace(string(text)))
	for _, cand := range []EncodingType{
		EncodingText, EncodingInt32, EncodingFloat32, EncodingFloat64, EncodingDeltaInt32, EncodingGorilla,
	} {
		if strings.ToLower(cand.String()) == name {
			*e = cand
			return nil
		}
	}

	return fmt.Errorf("invalid encoding: %q", string(text))
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

// UnmarshalText parses a compression name, case-insensitively.
func (c *CompressionType) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "none", "":
		*c = CompressionNone
	case "zstd":
		*c = CompressionZstd
	case "s2":
		*c = CompressionS2
	case "lz4":
		*c = CompressionLZ4
	default:
		return fmt.Errorf("invalid compression: %q", string(text))
	}

	return nil
}
