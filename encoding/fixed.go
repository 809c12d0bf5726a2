package encoding

import (
	"fmt"
	"math"

	"github.com/arloliu/seistrace/endian"
	"github.com/arloliu/seistrace/errs"
	"github.com/arloliu/seistrace/internal/pool"
)

// FixedEncoder encodes samples at their native width in the configured byte order.
//
// int32 and float32 samples occupy 4 bytes each, float64 samples 8 bytes.
type FixedEncoder[T Sample] struct {
	buf    *pool.ByteBuffer
	engine endian.EndianEngine
	width  int
	count  int
}

var (
	_ ColumnarEncoder[int32]   = (*FixedEncoder[int32])(nil)
	_ ColumnarEncoder[float32] = (*FixedEncoder[float32])(nil)
	_ ColumnarEncoder[float64] = (*FixedEncoder[float64])(nil)
)

// NewFixedEncoder creates a fixed-width encoder for T.
//
// Parameters:
//   - engine: Byte order of the payload (must match the record header flag)
//
// Returns:
//   - *FixedEncoder[T]: A new encoder backed by a pooled buffer
func NewFixedEncoder[T Sample](engine endian.EndianEngine) *FixedEncoder[T] {
	return &FixedEncoder[T]{
		buf:    pool.GetPayloadBuffer(),
		engine: engine,
		width:  FixedWidth[T](),
	}
}

// FixedWidth returns the encoded width in bytes of one T.
func FixedWidth[T Sample]() int {
	var zero T
	switch any(zero).(type) {
	case float64:
		return 8
	default:
		return 4
	}
}

// Write encodes a single value.
func (e *FixedEncoder[T]) Write(v T) {
	if e.buf == nil {
		panic("encoder already finished - cannot write after Finish()")
	}

	e.count++
	putFixed(e.engine, e.buf.ExtendOrGrow(e.width), v)
}

// WriteSlice encodes values with a single buffer growth.
func (e *FixedEncoder[T]) WriteSlice(values []T) {
	if e.buf == nil {
		panic("encoder already finished - cannot write after Finish()")
	}
	if len(values) == 0 {
		return
	}

	e.count += len(values)
	tail := e.buf.ExtendOrGrow(len(values) * e.width)
	for i, v := range values {
		putFixed(e.engine, tail[i*e.width:], v)
	}
}

// Bytes returns the encoded payload.
func (e *FixedEncoder[T]) Bytes() []byte {
	if e.buf == nil {
		panic("encoder already finished - cannot access bytes after Finish()")
	}

	return e.buf.Bytes()
}

// Len returns the number of encoded values.
func (e *FixedEncoder[T]) Len() int {
	return e.count
}

// Size returns the payload size in bytes.
func (e *FixedEncoder[T]) Size() int {
	return e.count * e.width
}

// Finish returns the buffer to the pool.
func (e *FixedEncoder[T]) Finish() {
	if e.buf != nil {
		pool.PutPayloadBuffer(e.buf)
		e.buf = nil
	}
	e.count = 0
}

// FixedDecoder decodes payloads produced by FixedEncoder.
//
// The decoder is stateless; it is returned by value and may be shared.
type FixedDecoder[T Sample] struct {
	engine endian.EndianEngine
	width  int
}

var (
	_ ColumnarDecoder[int32]   = FixedDecoder[int32]{}
	_ ColumnarDecoder[float32] = FixedDecoder[float32]{}
	_ ColumnarDecoder[float64] = FixedDecoder[float64]{}
)

// NewFixedDecoder creates a fixed-width decoder for T.
func NewFixedDecoder[T Sample](engine endian.EndianEngine) FixedDecoder[T] {
	return FixedDecoder[T]{engine: engine, width: FixedWidth[T]()}
}

// DecodeInto decodes up to len(dst) values from data.
//
// Returns:
//   - int: Number of values decoded (len(data)/width when shorter than dst)
//   - error: ErrMalformedPayload if data is not a whole number of values or
//     holds more values than dst
func (d FixedDecoder[T]) DecodeInto(dst []T, data []byte) (int, error) {
	if len(data)%d.width != 0 {
		return 0, fmt.Errorf("%w: %d bytes is not a multiple of %d", errs.ErrMalformedPayload, len(data), d.width)
	}

	n := len(data) / d.width
	if n > len(dst) {
		return 0, fmt.Errorf("%w: payload holds %d values, expected %d", errs.ErrMalformedPayload, n, len(dst))
	}

	for i := range n {
		dst[i] = getFixed[T](d.engine, data[i*d.width:])
	}

	return n, nil
}

func putFixed[T Sample](engine endian.EndianEngine, b []byte, v T) {
	switch x := any(v).(type) {
	case int32:
		engine.PutUint32(b, uint32(x)) //nolint:gosec
	case float32:
		engine.PutUint32(b, math.Float32bits(x))
	case float64:
		engine.PutUint64(b, math.Float64bits(x))
	}
}

func getFixed[T Sample](engine endian.EndianEngine, b []byte) T {
	var zero T
	switch any(zero).(type) {
	case int32:
		return T(int32(engine.Uint32(b))) //nolint:gosec
	case float32:
		return T(math.Float32frombits(engine.Uint32(b)))
	default:
		return T(math.Float64frombits(engine.Uint64(b)))
	}
}
