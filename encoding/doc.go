// Package encoding implements the payload encodings of seistrace records.
//
// Each encoding turns a slice of samples into a byte payload and back. The set is
// closed and mirrors format.EncodingType:
//
//   - FixedEncoder/FixedDecoder: fixed-width int32, float32 or float64 in the
//     record's byte order (EncodingInt32, EncodingFloat32, EncodingFloat64)
//   - DeltaEncoder/DeltaDecoder: zigzag varint first differences of int32 samples
//     (EncodingDeltaInt32), compact for slowly varying digitizer counts
//   - GorillaEncoder/GorillaDecoder: XOR compression of float64 samples
//     (EncodingGorilla), see https://www.vldb.org/pvldb/vol8/p1816-teller.pdf
//   - TextEncoder/TextDecoder: raw bytes (EncodingText)
//
// Encoders accumulate into a pooled buffer. Retrieve the payload with Bytes before
// calling Finish, which returns the buffer to the pool:
//
//	enc := encoding.NewDeltaEncoder()
//	defer enc.Finish()
//	enc.WriteSlice(counts)
//	payload := bytes.Clone(enc.Bytes())
//
// Decoders are stateless values and write directly into a caller-provided slice
// whose length is the expected sample count:
//
//	dst := make([]int32, count)
//	n, err := encoding.NewDeltaDecoder().DecodeInto(dst, payload)
package encoding
