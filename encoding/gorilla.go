package encoding

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/arloliu/seistrace/errs"
	"github.com/arloliu/seistrace/internal/pool"
)

// GorillaEncoder compresses float64 samples with the Gorilla XOR scheme.
//
// The stream is written most significant bit first:
//  1. The first value, 64 bits verbatim
//  2. For every following value, its XOR with the previous value:
//     - XOR is 0: a single 0 bit
//     - meaningful bits fit the previous window: bits 10, then the window
//     - otherwise: bits 11, 5 bits of leading zeros, 6 bits of window length
//     (64 stored as 0), then the window
//
// The final byte is zero-padded. The padding is ambiguous, so decoders must be
// told how many values to read; record headers carry that count.
//
// See https://www.vldb.org/pvldb/vol8/p1816-teller.pdf for algorithm details.
type GorillaEncoder struct {
	w            bitWriter
	prevValue    uint64
	prevLeading  int
	prevTrailing int
	count        int
	hasWindow    bool
	sealed       bool
}

var _ ColumnarEncoder[float64] = (*GorillaEncoder)(nil)

// NewGorillaEncoder creates a Gorilla encoder.
//
// Returns:
//   - *GorillaEncoder: A new encoder backed by a pooled buffer
func NewGorillaEncoder() *GorillaEncoder {
	return &GorillaEncoder{w: bitWriter{buf: pool.GetPayloadBuffer()}}
}

// Write encodes a single value.
//
// Write panics after Bytes has sealed the stream or after Finish.
func (e *GorillaEncoder) Write(v float64) {
	if e.w.buf == nil {
		panic("encoder already finished - cannot write after Finish()")
	}
	if e.sealed {
		panic("encoder sealed - cannot write after Bytes()")
	}

	cur := math.Float64bits(v)
	if e.count == 0 {
		e.w.writeBits(cur, 64)
		e.prevValue = cur
		e.count++

		return
	}

	e.count++
	xor := cur ^ e.prevValue
	e.prevValue = cur
	if xor == 0 {
		e.w.writeBits(0, 1)
		return
	}

	leading := bits.LeadingZeros64(xor)
	trailing := bits.TrailingZeros64(xor)
	if leading > 31 {
		leading = 31
	}

	if e.hasWindow && leading >= e.prevLeading && trailing >= e.prevTrailing {
		width := 64 - e.prevLeading - e.prevTrailing
		e.w.writeBits(0b10, 2)
		e.w.writeBits(xor>>uint(e.prevTrailing), width)

		return
	}

	width := 64 - leading - trailing
	e.w.writeBits(0b11, 2)
	e.w.writeBits(uint64(leading), 5)
	e.w.writeBits(uint64(width&0x3f), 6)
	e.w.writeBits(xor>>uint(trailing), width)
	e.prevLeading = leading
	e.prevTrailing = trailing
	e.hasWindow = true
}

// WriteSlice encodes values in order.
func (e *GorillaEncoder) WriteSlice(values []float64) {
	for _, v := range values {
		e.Write(v)
	}
}

// Bytes pads the final byte and returns the encoded stream.
//
// Bytes seals the encoder; further writes panic.
func (e *GorillaEncoder) Bytes() []byte {
	if e.w.buf == nil {
		panic("encoder already finished - cannot access bytes after Finish()")
	}

	e.sealed = true
	e.w.flush()

	return e.w.buf.Bytes()
}

// Len returns the number of encoded values.
func (e *GorillaEncoder) Len() int {
	return e.count
}

// Size returns the encoded size in bytes, counting a partial final byte.
func (e *GorillaEncoder) Size() int {
	if e.w.buf == nil {
		return 0
	}

	size := e.w.buf.Len()
	if e.w.nbits > 0 {
		size++
	}

	return size
}

// Finish returns the buffer to the pool and resets the encoder state.
func (e *GorillaEncoder) Finish() {
	if e.w.buf != nil {
		pool.PutPayloadBuffer(e.w.buf)
	}
	*e = GorillaEncoder{}
}

// GorillaDecoder decodes payloads produced by GorillaEncoder.
type GorillaDecoder struct{}

var _ ColumnarDecoder[float64] = GorillaDecoder{}

// NewGorillaDecoder creates a Gorilla decoder.
func NewGorillaDecoder() GorillaDecoder {
	return GorillaDecoder{}
}

// DecodeInto decodes exactly len(dst) values from data.
//
// Returns:
//   - int: Number of values decoded, always len(dst) on success
//   - error: ErrMalformedPayload if the stream ends early or carries more
//     than the final padding byte after the last value
func (d GorillaDecoder) DecodeInto(dst []float64, data []byte) (int, error) {
	if len(dst) == 0 {
		if len(data) != 0 {
			return 0, fmt.Errorf("%w: %d bytes for zero samples", errs.ErrMalformedPayload, len(data))
		}

		return 0, nil
	}

	r := bitReader{data: data}
	first, ok := r.readBits(64)
	if !ok {
		return 0, fmt.Errorf("%w: stream shorter than first value", errs.ErrMalformedPayload)
	}
	dst[0] = math.Float64frombits(first)

	prev := first
	leading, trailing := 0, 0
	hasWindow := false
	for i := 1; i < len(dst); i++ {
		ctrl, ok := r.readBits(1)
		if !ok {
			return i, fmt.Errorf("%w: stream ends at sample %d", errs.ErrMalformedPayload, i)
		}
		if ctrl == 0 {
			dst[i] = math.Float64frombits(prev)
			continue
		}

		newWindow, ok := r.readBits(1)
		if !ok {
			return i, fmt.Errorf("%w: stream ends at sample %d", errs.ErrMalformedPayload, i)
		}
		if newWindow == 1 {
			l, ok1 := r.readBits(5)
			w, ok2 := r.readBits(6)
			if !ok1 || !ok2 {
				return i, fmt.Errorf("%w: stream ends at sample %d", errs.ErrMalformedPayload, i)
			}
			width := int(w)
			if width == 0 {
				width = 64
			}
			leading = int(l)
			trailing = 64 - leading - width
			if trailing < 0 {
				return i, fmt.Errorf("%w: invalid window at sample %d", errs.ErrMalformedPayload, i)
			}
			hasWindow = true
		} else if !hasWindow {
			return i, fmt.Errorf("%w: window reuse before definition at sample %d", errs.ErrMalformedPayload, i)
		}

		meaningful, ok := r.readBits(64 - leading - trailing)
		if !ok {
			return i, fmt.Errorf("%w: stream ends at sample %d", errs.ErrMalformedPayload, i)
		}
		prev ^= meaningful << uint(trailing)
		dst[i] = math.Float64frombits(prev)
	}

	if len(data)*8-r.pos >= 8 {
		return len(dst), fmt.Errorf("%w: trailing bytes after %d samples", errs.ErrMalformedPayload, len(dst))
	}

	return len(dst), nil
}

// bitWriter appends bits MSB first into a byte buffer.
type bitWriter struct {
	buf   *pool.ByteBuffer
	cur   byte
	nbits int
}

func (w *bitWriter) writeBits(v uint64, n int) {
	for n > 0 {
		free := 8 - w.nbits
		take := min(free, n)
		chunk := byte((v >> uint(n-take)) & (1<<uint(take) - 1))
		w.cur |= chunk << uint(free-take)
		w.nbits += take
		n -= take
		if w.nbits == 8 {
			w.buf.MustWriteByte(w.cur)
			w.cur = 0
			w.nbits = 0
		}
	}
}

func (w *bitWriter) flush() {
	if w.nbits > 0 {
		w.buf.MustWriteByte(w.cur)
		w.cur = 0
		w.nbits = 0
	}
}

// bitReader reads bits MSB first; pos is the absolute bit offset.
type bitReader struct {
	data []byte
	pos  int
}

func (r *bitReader) readBits(n int) (uint64, bool) {
	if r.pos+n > len(r.data)*8 {
		return 0, false
	}

	var v uint64
	for n > 0 {
		byteIdx := r.pos / 8
		off := r.pos % 8
		avail := 8 - off
		take := min(avail, n)
		chunk := (r.data[byteIdx] >> uint(avail-take)) & byte(1<<uint(take)-1)
		v = v<<uint(take) | uint64(chunk)
		r.pos += take
		n -= take
	}

	return v, true
}
