// Package record implements the binary record format read and written by seistrace.
//
// A record is a fixed 40-byte header followed by the source identifier and the
// (optionally compressed) encoded payload:
//
//	Offset  Size  Field
//	0       2     Magic "ST"
//	2       1     Format version (1)
//	3       1     Flags (bit 0: big-endian byte order)
//	4       1     Payload encoding (format.EncodingType)
//	5       1     Payload compression (format.CompressionType)
//	6       1     Publication version
//	7       1     Source identifier length
//	8       8     Start time, int64 nanoseconds since the Unix epoch
//	16      8     Sample rate, float64 samples per second
//	24      4     Sample count
//	28      4     Payload length in bytes, as stored
//	32      8     xxHash64 of identifier and stored payload
//	40      N     Source identifier
//	40+N    M     Payload
//
// Multi-byte header fields use the byte order selected by the flag; the magic and
// the single-byte fields are order independent.
//
// Reader scans a stream of concatenated records. Codec decodes a single record
// into a samples.Buffer and packs buffers back into records no longer than a
// requested maximum length.
package record
