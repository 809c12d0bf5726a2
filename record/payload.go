package record

import (
	"fmt"

	"github.com/arloliu/seistrace/encoding"
	"github.com/arloliu/seistrace/endian"
	"github.com/arloliu/seistrace/errs"
	"github.com/arloliu/seistrace/format"
	"github.com/arloliu/seistrace/samples"
)

// chunkEncoder encodes samples of one buffer by absolute index.
type chunkEncoder interface {
	write(i int)
	size() int
	bytes() []byte
	finish()
}

type columnChunk[T comparable] struct {
	enc    encoding.ColumnarEncoder[T]
	values []T
}

func (c *columnChunk[T]) write(i int) { c.enc.Write(c.values[i]) }
func (c *columnChunk[T]) size() int { return c.enc.Size() }
func (c *columnChunk[T]) bytes() []byte { return c.enc.Bytes() }
func (c *columnChunk[T]) finish() { c.enc.Finish() }

// newChunkEncoder returns an encoder over buf, which must already hold the
// sample type produced by enc.
func newChunkEncoder(enc format.EncodingType, buf *samples.Buffer, engine endian.EndianEngine) (chunkEncoder, error) {
	switch enc {
	case format.EncodingText:
		return &columnChunk[byte]{enc: encoding.NewTextEncoder(), values: buf.Text()}, nil
	case format.EncodingInt32:
		return &columnChunk[int32]{enc: encoding.NewFixedEncoder[int32](engine), values: buf.Int32s()}, nil
	case format.EncodingFloat32:
		return &columnChunk[float32]{enc: encoding.NewFixedEncoder[float32](engine), values: buf.Float32s()}, nil
	case format.EncodingFloat64:
		return &columnChunk[float64]{enc: encoding.NewFixedEncoder[float64](engine), values: buf.Float64Values()}, nil
	case format.EncodingDeltaInt32:
		return &columnChunk[int32]{enc: encoding.NewDeltaEncoder(), values: buf.Int32s()}, nil
	case format.EncodingGorilla:
		return &columnChunk[float64]{enc: encoding.NewGorillaEncoder(), values: buf.Float64Values()}, nil
	default:
		return nil, fmt.Errorf("%w: %s", errs.ErrUnsupportedEncoding, enc)
	}
}

// decodePayload decodes an uncompressed payload holding count samples.
func decodePayload(enc format.EncodingType, engine endian.EndianEngine, payload []byte, count int) (*samples.Buffer, error) {
	// Every encoding spends at least one bit per sample.
	if count > len(payload)*8 {
		return nil, fmt.Errorf("%w: %d samples declared for %d payload bytes", errs.ErrMalformedPayload, count, len(payload))
	}

	switch enc {
	case format.EncodingText:
		return decodeColumn[byte](encoding.NewTextDecoder(), payload, count, samples.FromText)
	case format.EncodingInt32:
		return decodeColumn[int32](encoding.NewFixedDecoder[int32](engine), payload, count, samples.FromInt32)
	case format.EncodingFloat32:
		return decodeColumn[float32](encoding.NewFixedDecoder[float32](engine), payload, count, samples.FromFloat32)
	case format.EncodingFloat64:
		return decodeColumn[float64](encoding.NewFixedDecoder[float64](engine), payload, count, samples.FromFloat64)
	case format.EncodingDeltaInt32:
		return decodeColumn[int32](encoding.NewDeltaDecoder(), payload, count, samples.FromInt32)
	case format.EncodingGorilla:
		return decodeColumn[float64](encoding.NewGorillaDecoder(), payload, count, samples.FromFloat64)
	default:
		return nil, fmt.Errorf("%w: %s", errs.ErrUnsupportedEncoding, enc)
	}
}

func decodeColumn[T comparable](
	dec encoding.ColumnarDecoder[T], payload []byte, count int, wrap func([]T) *samples.Buffer,
) (*samples.Buffer, error) {
	dst := make([]T, count)
	n, err := dec.DecodeInto(dst, payload)
	if err != nil {
		return nil, err
	}
	if n != count {
		return nil, fmt.Errorf("%w: decoded %d, declared %d", errs.ErrCountMismatch, n, count)
	}

	return wrap(dst), nil
}
