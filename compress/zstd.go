package compress

// ZstdCompressor compresses payloads with Zstandard.
//
// It gives the best ratio of the built-in codecs and is the usual choice for
// re-encoded output files kept for archival.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstd compressor.
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
