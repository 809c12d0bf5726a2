// Package endian provides byte order utilities for record headers and payloads.
//
// Records carry a byte-order flag in their header. The flag selects one of the two
// engines below, which combine binary.ByteOrder and binary.AppendByteOrder so that
// encoders can both patch fixed offsets and append to growing buffers:
//
//	engine := endian.ForBigEndian(header.BigEndian())
//	count := engine.Uint32(data[24:28])
//	buf = engine.AppendUint32(buf, count)
//
// All functions are safe for concurrent use; the engines are immutable.
package endian

import (
	"encoding/binary"
	"unsafe"
)

// EndianEngine combines ByteOrder and AppendByteOrder from encoding/binary.
//
// binary.LittleEndian and binary.BigEndian both satisfy it.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// Native returns the host byte order.
func Native() EndianEngine {
	// 0x0100: a little-endian host stores the 0x00 byte first.
	var i uint16 = 0x0100
	b := (*[2]byte)(unsafe.Pointer(&i))
	if b[0] == 0x01 {
		return binary.BigEndian
	}

	return binary.LittleEndian
}

// GetLittleEndianEngine returns the little-endian engine.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the big-endian engine.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}

// ForBigEndian returns the big-endian engine when big is true, little-endian otherwise.
func ForBigEndian(big bool) EndianEngine {
	if big {
		return binary.BigEndian
	}

	return binary.LittleEndian
}

// IsBigEndian reports whether engine writes the most significant byte first.
func IsBigEndian(engine EndianEngine) bool {
	return engine == EndianEngine(binary.BigEndian)
}
