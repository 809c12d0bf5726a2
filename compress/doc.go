// Package compress provides the payload compression codecs used by seistrace records.
//
// A record's header names one compression type. The codec is applied to the encoded
// payload only; the header and source identifier stay uncompressed so that a reader
// can skip records without decompressing them.
//
// # Available codecs
//
//   - None: payload stored as encoded (the default)
//   - Zstd: best ratio, suited to archival output files
//   - S2: fast Snappy-compatible compression
//   - LZ4: fastest decompression
//
// Zstd is backed by github.com/klauspost/compress/zstd. Building with the gozstd
// tag switches to the cgo binding github.com/valyala/gozstd.
//
// # Usage
//
//	codec, err := compress.GetCodec(format.CompressionZstd)
//	if err != nil {
//	    return err
//	}
//	packed, err := codec.Compress(payload)
//
// Every codec is stateless and safe for concurrent use.
package compress
