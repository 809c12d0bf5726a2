package encoding

import (
	"fmt"

	"github.com/arloliu/seistrace/errs"
	"github.com/arloliu/seistrace/internal/pool"
)

// TextEncoder stores text samples verbatim, one byte per sample.
type TextEncoder struct {
	buf *pool.ByteBuffer
}

var _ ColumnarEncoder[byte] = (*TextEncoder)(nil)

// NewTextEncoder creates a text encoder.
func NewTextEncoder() *TextEncoder {
	return &TextEncoder{buf: pool.GetPayloadBuffer()}
}

func (e *TextEncoder) Write(v byte) {
	if e.buf == nil {
		panic("encoder already finished - cannot write after Finish()")
	}
	e.buf.MustWriteByte(v)
}

func (e *TextEncoder) WriteSlice(values []byte) {
	if e.buf == nil {
		panic("encoder already finished - cannot write after Finish()")
	}
	e.buf.MustWrite(values)
}

func (e *TextEncoder) Bytes() []byte {
	if e.buf == nil {
		panic("encoder already finished - cannot access bytes after Finish()")
	}

	return e.buf.Bytes()
}

func (e *TextEncoder) Len() int {
	return e.Size()
}

func (e *TextEncoder) Size() int {
	if e.buf == nil {
		return 0
	}

	return e.buf.Len()
}

func (e *TextEncoder) Finish() {
	if e.buf != nil {
		pool.PutPayloadBuffer(e.buf)
		e.buf = nil
	}
}

// TextDecoder copies text payloads.
type TextDecoder struct{}

var _ ColumnarDecoder[byte] = TextDecoder{}

// NewTextDecoder creates a text decoder.
func NewTextDecoder() TextDecoder {
	return TextDecoder{}
}

// DecodeInto copies data into dst. data must not be longer than dst.
func (d TextDecoder) DecodeInto(dst []byte, data []byte) (int, error) {
	if len(data) > len(dst) {
		return 0, fmt.Errorf("%w: payload holds %d bytes, expected %d", errs.ErrMalformedPayload, len(data), len(dst))
	}

	return copy(dst, data), nil
}
