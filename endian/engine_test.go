package endian

import (
	"encoding/binary"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestNative(t *testing.T) {
	var testValue uint16 = 0x0102
	testBytes := (*[2]byte)(unsafe.Pointer(&testValue))

	switch testBytes[0] {
	case 0x01:
		require.Equal(t, EndianEngine(binary.BigEndian), Native())
	case 0x02:
		require.Equal(t, EndianEngine(binary.LittleEndian), Native())
	default:
		require.Failf(t, "unexpected byte value", "got: %v", testBytes[0])
	}
}

func TestForBigEndian(t *testing.T) {
	require.True(t, IsBigEndian(ForBigEndian(true)))
	require.False(t, IsBigEndian(ForBigEndian(false)))
	require.Equal(t, GetBigEndianEngine(), ForBigEndian(true))
	require.Equal(t, GetLittleEndianEngine(), ForBigEndian(false))
}

func TestEngine_RoundTrip(t *testing.T) {
	for _, engine := range []EndianEngine{GetLittleEndianEngine(), GetBigEndianEngine()} {
		buf := engine.AppendUint32(nil, 0xDEADBEEF)
		buf = engine.AppendUint64(buf, 0x0102030405060708)
		require.Len(t, buf, 12)
		require.Equal(t, uint32(0xDEADBEEF), engine.Uint32(buf[0:4]))
		require.Equal(t, uint64(0x0102030405060708), engine.Uint64(buf[4:12]))
	}

	le := GetLittleEndianEngine().AppendUint16(nil, 0x0102)
	be := GetBigEndianEngine().AppendUint16(nil, 0x0102)
	require.Equal(t, []byte{0x02, 0x01}, le)
	require.Equal(t, []byte{0x01, 0x02}, be)
}
