package record

import (
	"bytes"
	"io"
	"testing"

	"github.com/arloliu/seistrace/errs"
	"github.com/arloliu/seistrace/format"
	"github.com/arloliu/seistrace/nstime"
	"github.com/arloliu/seistrace/samples"
	"github.com/stretchr/testify/require"
)

func stream(t *testing.T) ([]byte, [][]byte) {
	t.Helper()

	codec, err := NewCodec(WithCompression(format.CompressionZstd))
	require.NoError(t, err)

	records := pack(t, codec, samples.FromInt32(ramp(300)), 256, format.EncodingDeltaInt32)
	require.Greater(t, len(records), 1)

	return bytes.Join(records, nil), records
}

func TestReader_Next(t *testing.T) {
	data, records := stream(t)

	rd, err := NewReader(bytes.NewReader(data))
	require.NoError(t, err)

	offset := int64(0)
	total := int64(0)
	for i := range records {
		rec, err := rd.Next()
		require.NoError(t, err)
		require.Equal(t, offset, rec.Offset)
		require.Equal(t, records[i], rec.Raw)
		require.Equal(t, len(records[i]), rec.Length())
		require.Equal(t, "FDSN:XX_TEST__B_H_Z", rec.SourceID)
		require.Equal(t, format.EncodingDeltaInt32, rec.Encoding)

		offset += int64(rec.Length())
		total += rec.SampleCount
	}

	_, err = rd.Next()
	require.ErrorIs(t, err, io.EOF)
	require.Equal(t, int64(len(data)), rd.Offset())
	require.Equal(t, int64(300), total)
}

func TestReader_Empty(t *testing.T) {
	rd, err := NewReader(bytes.NewReader(nil))
	require.NoError(t, err)

	_, err = rd.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestReader_Truncated(t *testing.T) {
	data, records := stream(t)

	rd, err := NewReader(bytes.NewReader(data[:len(records[0])+10]))
	require.NoError(t, err)

	_, err = rd.Next()
	require.NoError(t, err)
	_, err = rd.Next()
	require.ErrorIs(t, err, errs.ErrTruncatedRecord)

	rd, err = NewReader(bytes.NewReader(data[:len(records[0])+HeaderSize+1]))
	require.NoError(t, err)
	_, err = rd.Next()
	require.NoError(t, err)
	_, err = rd.Next()
	require.ErrorIs(t, err, errs.ErrTruncatedRecord)
}

func TestReader_ChecksumValidation(t *testing.T) {
	data, records := stream(t)
	data = bytes.Clone(data)
	data[len(records[0])-1] ^= 0x01

	rd, err := NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	_, err = rd.Next()
	require.ErrorIs(t, err, errs.ErrChecksumMismatch)

	rec, err := rd.Next()
	require.NoError(t, err)
	require.Equal(t, int64(len(records[0])), rec.Offset)

	rd, err = NewReader(bytes.NewReader(data), WithChecksumValidation(false))
	require.NoError(t, err)
	_, err = rd.Next()
	require.NoError(t, err)
}

func TestReader_Garbage(t *testing.T) {
	rd, err := NewReader(bytes.NewReader(bytes.Repeat([]byte{0xAB}, 100)))
	require.NoError(t, err)

	_, err = rd.Next()
	require.ErrorIs(t, err, errs.ErrInvalidMagicNumber)
}

func TestRecord_EndTime(t *testing.T) {
	data, _ := stream(t)
	rd, err := NewReader(bytes.NewReader(data))
	require.NoError(t, err)

	rec, err := rd.Next()
	require.NoError(t, err)
	// 20 Hz: 50ms between samples.
	require.Equal(t, rec.StartTime+nstime.Time(50_000_000*(rec.SampleCount-1)), rec.EndTime())

	tmpl := TemplateOf(rec)
	require.Equal(t, rec.SourceID, tmpl.SourceID)
	require.InDelta(t, 20.0, tmpl.SampleRate, 0)
}
