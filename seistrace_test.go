package seistrace

import (
	"bytes"
	"testing"
	"time"

	"github.com/arloliu/seistrace/format"
	"github.com/arloliu/seistrace/nstime"
	"github.com/arloliu/seistrace/record"
	"github.com/arloliu/seistrace/samples"
	"github.com/arloliu/seistrace/selection"
	"github.com/arloliu/seistrace/trace"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

var start = nstime.Date(2024, time.March, 1, 12, 0, 0, 0)

func sine(n int) []int32 {
	v := make([]int32, n)
	for i := range v {
		v[i] = int32((i*13)%97 - 48)
	}

	return v
}

func encode(t *testing.T, codec *record.Codec, sid string, values []int32) []byte {
	t.Helper()

	var out bytes.Buffer
	tmpl := record.Template{SourceID: sid, PubVersion: 1, StartTime: start, SampleRate: 40}
	_, err := codec.EncodeRecords(tmpl, samples.FromInt32(values), 512, format.EncodingDeltaInt32, func(raw []byte) error {
		_, err := out.Write(raw)
		return err
	})
	require.NoError(t, err)

	return out.Bytes()
}

// TestNewDefaultCodec verifies the default codec handles every encoding
func TestNewDefaultCodec(t *testing.T) {
	codec, err := NewDefaultCodec()
	require.NoError(t, err)
	require.NotNil(t, codec)

	size, typ, err := codec.SizeType(format.EncodingGorilla)
	require.NoError(t, err)
	require.Equal(t, 8, size)
	require.Equal(t, format.SampleFloat64, typ)
}

func TestNewCodec_InvalidCompression(t *testing.T) {
	_, err := NewCodec(record.WithCompression(format.CompressionType(0x7f)))
	require.Error(t, err)
}

func TestReadBytes(t *testing.T) {
	codec, err := NewDefaultCodec()
	require.NoError(t, err)

	data := append(encode(t, codec, "XX.STA.HHZ", sine(900)), encode(t, codec, "XX.STA.HHE", sine(400))...)

	list, stats, err := ReadBytes(data, nil)
	require.NoError(t, err)
	require.Equal(t, 2, list.Len())
	require.Equal(t, int64(1300), stats.Samples)
	require.Equal(t, stats.Records, stats.Selected)

	failed, err := list.DecodeAll(t.Context(), codec, 2)
	require.NoError(t, err)
	require.Zero(t, failed)
	require.Equal(t, sine(900), list.Channel(0).Segments[0].Buffer().Int32s())
}

func TestReadBytes_Selection(t *testing.T) {
	codec, err := NewDefaultCodec()
	require.NoError(t, err)

	data := append(encode(t, codec, "XX.STA.HHZ", sine(900)), encode(t, codec, "XX.STA.HHE", sine(400))...)
	sel, err := selection.New(selection.Rule{Pattern: "*HHE"})
	require.NoError(t, err)

	list, stats, err := ReadBytes(data, sel)
	require.NoError(t, err)
	require.Equal(t, 1, list.Len())
	require.Equal(t, "XX.STA.HHE", list.Channel(0).SourceID)
	require.Equal(t, int64(400), stats.Samples)
}

func TestReadFile_Missing(t *testing.T) {
	_, _, err := ReadFile(afero.NewMemMapFs(), "missing.rec", nil)
	require.Error(t, err)
}

func TestWriteFile_RoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	codec, err := NewDefaultCodec()
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(fs, "in.rec", encode(t, codec, "XX.STA.HHZ", sine(900)), 0o644))

	list, _, err := ReadFile(fs, "in.rec", nil)
	require.NoError(t, err)

	_, err = list.DecodeAll(t.Context(), codec, 1)
	require.NoError(t, err)

	n, err := WriteFile(fs, "out.rec", list, codec, trace.PackOptions{
		MaxRecordLength: 1024,
		Encoding:        format.EncodingFloat64,
	})
	require.NoError(t, err)
	require.Positive(t, n)

	out, stats, err := ReadFile(fs, "out.rec", nil)
	require.NoError(t, err)
	require.Equal(t, int64(n), stats.Records)
	require.Equal(t, 1, out.Len())

	buf, err := out.Decode(0, 0, codec)
	require.NoError(t, err)
	require.Equal(t, format.SampleFloat64, buf.Type())
	require.Equal(t, 900, buf.Len())
	for i, v := range sine(900) {
		require.InDelta(t, float64(v), buf.Float64At(i), 0)
	}
}
