// Package samples holds decoded sample data.
//
// A Buffer is a tagged variant: it carries exactly one of []int32, []float32,
// []float64 or []byte (text), selected by its format.SampleType. Numeric
// consumers read through the widening accessors Float64At and Float64s, so a
// statistics or report routine never switches on the element type itself.
package samples

import (
	"fmt"

	"github.com/arloliu/seistrace/errs"
	"github.com/arloliu/seistrace/format"
)

// Buffer holds the samples of one segment.
type Buffer struct {
	typ  format.SampleType
	i32  []int32
	f32  []float32
	f64  []float64
	text []byte
}

// New allocates a zeroed buffer of n samples of the given type.
//
// Parameters:
//   - typ: Sample type of the buffer (must not be SampleUnknown)
//   - n: Number of samples
//
// Returns:
//   - *Buffer: The zeroed buffer
//   - error: Unsupported sample type
func New(typ format.SampleType, n int) (*Buffer, error) {
	if n < 0 {
		return nil, fmt.Errorf("negative sample count %d", n)
	}

	switch typ {
	case format.SampleInt32:
		return &Buffer{typ: typ, i32: make([]int32, n)}, nil
	case format.SampleFloat32:
		return &Buffer{typ: typ, f32: make([]float32, n)}, nil
	case format.SampleFloat64:
		return &Buffer{typ: typ, f64: make([]float64, n)}, nil
	case format.SampleText:
		return &Buffer{typ: typ, text: make([]byte, n)}, nil
	case format.SampleUnknown:
		return nil, fmt.Errorf("%w: sample type %s", errs.ErrUnsupportedEncoding, typ)
	default:
		return nil, fmt.Errorf("%w: sample type %d", errs.ErrUnsupportedEncoding, uint8(typ))
	}
}

// FromInt32 wraps values without copying.
func FromInt32(values []int32) *Buffer {
	return &Buffer{typ: format.SampleInt32, i32: values}
}

// FromFloat32 wraps values without copying.
func FromFloat32(values []float32) *Buffer {
	return &Buffer{typ: format.SampleFloat32, f32: values}
}

// FromFloat64 wraps values without copying.
func FromFloat64(values []float64) *Buffer {
	return &Buffer{typ: format.SampleFloat64, f64: values}
}

// FromText wraps text without copying.
func FromText(text []byte) *Buffer {
	return &Buffer{typ: format.SampleText, text: text}
}

// Type returns the sample type.
func (b *Buffer) Type() format.SampleType {
	return b.typ
}

// Len returns the number of samples.
func (b *Buffer) Len() int {
	switch b.typ {
	case format.SampleInt32:
		return len(b.i32)
	case format.SampleFloat32:
		return len(b.f32)
	case format.SampleFloat64:
		return len(b.f64)
	case format.SampleText:
		return len(b.text)
	case format.SampleUnknown:
		return 0
	default:
		return 0
	}
}

// Int32s returns the int32 samples, or nil for another type.
func (b *Buffer) Int32s() []int32 { return b.i32 }

// Float32s returns the float32 samples, or nil for another type.
func (b *Buffer) Float32s() []float32 { return b.f32 }

// Float64Values returns the float64 samples, or nil for another type.
// Use Float64s for a widened copy of any numeric buffer.
func (b *Buffer) Float64Values() []float64 { return b.f64 }

// Text returns the text samples, or nil for another type.
func (b *Buffer) Text() []byte { return b.text }

// Float64At returns sample i widened to float64. Text samples return their byte value.
func (b *Buffer) Float64At(i int) float64 {
	switch b.typ {
	case format.SampleInt32:
		return float64(b.i32[i])
	case format.SampleFloat32:
		return float64(b.f32[i])
	case format.SampleFloat64:
		return b.f64[i]
	case format.SampleText:
		return float64(b.text[i])
	case format.SampleUnknown:
		panic("samples: Float64At on an untyped buffer")
	default:
		panic("samples: Float64At on an untyped buffer")
	}
}

// Float64s returns a newly allocated widened copy of every sample.
func (b *Buffer) Float64s() []float64 {
	out := make([]float64, b.Len())
	for i := range out {
		out[i] = b.Float64At(i)
	}

	return out
}

// Slice returns a view of samples [from, to) sharing storage with b.
func (b *Buffer) Slice(from, to int) *Buffer {
	switch b.typ {
	case format.SampleInt32:
		return &Buffer{typ: b.typ, i32: b.i32[from:to]}
	case format.SampleFloat32:
		return &Buffer{typ: b.typ, f32: b.f32[from:to]}
	case format.SampleFloat64:
		return &Buffer{typ: b.typ, f64: b.f64[from:to]}
	case format.SampleText:
		return &Buffer{typ: b.typ, text: b.text[from:to]}
	case format.SampleUnknown:
		return &Buffer{}
	default:
		return &Buffer{}
	}
}

// CopyAt copies every sample of src into b starting at offset.
//
// Returns:
//   - int: Number of samples copied
//   - error: ErrSampleTypeMismatch when the types differ, ErrCountMismatch when
//     src does not fit at offset
func (b *Buffer) CopyAt(offset int, src *Buffer) (int, error) {
	if src.typ != b.typ {
		return 0, fmt.Errorf("%w: %s into %s", errs.ErrSampleTypeMismatch, src.typ, b.typ)
	}
	if offset < 0 || offset+src.Len() > b.Len() {
		return 0, fmt.Errorf("%w: %d samples at offset %d exceed buffer of %d",
			errs.ErrCountMismatch, src.Len(), offset, b.Len())
	}

	switch b.typ {
	case format.SampleInt32:
		return copy(b.i32[offset:], src.i32), nil
	case format.SampleFloat32:
		return copy(b.f32[offset:], src.f32), nil
	case format.SampleFloat64:
		return copy(b.f64[offset:], src.f64), nil
	case format.SampleText:
		return copy(b.text[offset:], src.text), nil
	case format.SampleUnknown:
		return 0, nil
	default:
		return 0, nil
	}
}

// Clone returns a deep copy of b.
func (b *Buffer) Clone() *Buffer {
	c := &Buffer{typ: b.typ}
	switch b.typ {
	case format.SampleInt32:
		c.i32 = append([]int32(nil), b.i32...)
	case format.SampleFloat32:
		c.f32 = append([]float32(nil), b.f32...)
	case format.SampleFloat64:
		c.f64 = append([]float64(nil), b.f64...)
	case format.SampleText:
		c.text = append([]byte(nil), b.text...)
	case format.SampleUnknown:
	}

	return c
}
