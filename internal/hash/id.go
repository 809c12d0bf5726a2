package hash

import "github.com/cespare/xxhash/v2"

// ID computes the xxHash64 of the given string.
func ID(data string) uint64 {
	return xxhash.Sum64String(data)
}

// ChannelKey hashes a source identifier together with its publication version.
//
// The version byte is mixed in after a zero separator so that "AB" version 1 and
// "AB\x01" never share a key by construction of the input.
func ChannelKey(sid string, version uint8) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(sid)
	_, _ = d.Write([]byte{0, version})

	return d.Sum64()
}

// Checksum computes the xxHash64 over the concatenation of parts.
func Checksum(parts ...[]byte) uint64 {
	d := xxhash.New()
	for _, p := range parts {
		_, _ = d.Write(p)
	}

	return d.Sum64()
}
