package format

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodingType_SizeType(t *testing.T) {
	tests := []struct {
		enc      EncodingType
		size     int
		typ      SampleType
		typeChar byte
	}{
		{EncodingText, 1, SampleText, 'a'},
		{EncodingInt32, 4, SampleInt32, 'i'},
		{EncodingDeltaInt32, 4, SampleInt32, 'i'},
		{EncodingFloat32, 4, SampleFloat32, 'f'},
		{EncodingFloat64, 8, SampleFloat64, 'd'},
		{EncodingGorilla, 8, SampleFloat64, 'd'},
	}

	for _, tt := range tests {
		t.Run(tt.enc.String(), func(t *testing.T) {
			size, typ, err := tt.enc.SizeType()
			require.NoError(t, err)
			require.Equal(t, tt.size, size)
			require.Equal(t, tt.typ, typ)
			require.Equal(t, tt.typeChar, typ.Char())
			require.Equal(t, size, typ.Size())
		})
	}
}

func TestEncodingType_SizeType_Unknown(t *testing.T) {
	_, typ, err := EncodingType(0x7f).SizeType()
	require.Error(t, err)
	require.Equal(t, SampleUnknown, typ)
	require.Equal(t, "Unknown", EncodingType(0x7f).String())
}

func TestEncodingType_UnmarshalText(t *testing.T) {
	var enc EncodingType
	require.NoError(t, enc.UnmarshalText([]byte("gorilla")))
	require.Equal(t, EncodingGorilla, enc)

	require.NoError(t, enc.UnmarshalText([]byte(" DeltaInt32 ")))
	require.Equal(t, EncodingDeltaInt32, enc)

	require.Error(t, enc.UnmarshalText([]byte("steim9")))
}

func TestCompressionType_UnmarshalText(t *testing.T) {
	var c CompressionType
	for name, want := range map[string]CompressionType{
		"none": CompressionNone,
		"ZSTD": CompressionZstd,
		"s2":   CompressionS2,
		"lz4":  CompressionLZ4,
	} {
		require.NoError(t, c.UnmarshalText([]byte(name)))
		require.Equal(t, want, c)
	}

	require.Error(t, c.UnmarshalText([]byte("brotli")))
}

func TestSampleType_Widens(t *testing.T) {
	require.True(t, SampleInt32.Widens(SampleInt32))
	require.True(t, SampleInt32.Widens(SampleFloat64))
	require.True(t, SampleFloat32.Widens(SampleFloat64))
	require.False(t, SampleInt32.Widens(SampleFloat32))
	require.False(t, SampleFloat64.Widens(SampleFloat32))
	require.False(t, SampleFloat64.Widens(SampleInt32))
	require.False(t, SampleText.Widens(SampleFloat64))
	require.True(t, SampleText.Widens(SampleText))
}
