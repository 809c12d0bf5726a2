package encoding

// Sample is the set of numeric sample types a payload can carry.
type Sample interface {
	int32 | float32 | float64
}

// ColumnarEncoder accumulates samples of type T into one encoded payload.
type ColumnarEncoder[T comparable] interface {
	// Write encodes a single value.
	Write(v T)

	// WriteSlice encodes values in order.
	WriteSlice(values []T)

	// Bytes returns the encoded payload.
	//
	// The returned slice references the internal buffer and is valid until the
	// next Write, WriteSlice or Finish.
	Bytes() []byte

	// Len returns the number of encoded values.
	Len() int

	// Size returns the payload size in bytes.
	Size() int

	// Finish returns the buffer to the pool. The encoder is unusable afterwards.
	Finish()
}

// ColumnarDecoder decodes a payload produced by the matching encoder.
type ColumnarDecoder[T comparable] interface {
	// DecodeInto decodes up to len(dst) values into dst.
	//
	// It returns the number of values decoded. Fixed-width and text payloads may
	// hold fewer values than len(dst); variable-length payloads must hold exactly
	// len(dst). An error is returned when the payload is malformed or holds more
	// data than len(dst) values account for.
	DecodeInto(dst []T, data []byte) (int, error)
}
