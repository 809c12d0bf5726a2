package trace

import (
	"bytes"
	"strings"
	"testing"

	"github.com/arloliu/seistrace/format"
	"github.com/arloliu/seistrace/nstime"
	"github.com/arloliu/seistrace/record"
	"github.com/arloliu/seistrace/samples"
	"github.com/arloliu/seistrace/selection"
	"github.com/stretchr/testify/require"
)

func encodeStream(t *testing.T, codec *record.Codec, tmpl record.Template, buf *samples.Buffer, enc format.EncodingType) []byte {
	t.Helper()

	var out bytes.Buffer
	_, err := codec.EncodeRecords(tmpl, buf, 256, enc, func(raw []byte) error {
		_, err := out.Write(raw)
		return err
	})
	require.NoError(t, err)

	return out.Bytes()
}

func ramp(n int) []int32 {
	v := make([]int32, n)
	for i := range v {
		v[i] = int32((i*7)%301 - 150)
	}

	return v
}

// testStream returns two int32 channels at 20 Hz and one text channel.
func testStream(t *testing.T, codec *record.Codec) []byte {
	t.Helper()

	var data []byte
	data = append(data, encodeStream(t, codec,
		record.Template{SourceID: "XX.STA.BHZ", PubVersion: 1, StartTime: t0, SampleRate: 20},
		samples.FromInt32(ramp(500)), format.EncodingDeltaInt32)...)
	data = append(data, encodeStream(t, codec,
		record.Template{SourceID: "XX.STA.BHN", PubVersion: 1, StartTime: t0, SampleRate: 20},
		samples.FromInt32(ramp(300)), format.EncodingInt32)...)
	data = append(data, encodeStream(t, codec,
		record.Template{SourceID: "XX.STA.LOG", PubVersion: 1, StartTime: t0},
		samples.FromText([]byte(strings.Repeat("station log\n", 10))), format.EncodingText)...)

	return data
}

func readList(t *testing.T, data []byte, sel *selection.Selection, opts ...ListOption) (*List, ReadStats) {
	t.Helper()

	l := newTestList(t, opts...)
	src := l.AddSource(bytes.NewReader(data), "test.rec")
	rd, err := record.NewReader(bytes.NewReader(data))
	require.NoError(t, err)

	stats, err := l.ReadFrom(rd, src, sel)
	require.NoError(t, err)

	return l, stats
}

func TestReadFrom_DecodesFromSource(t *testing.T) {
	codec, err := record.NewCodec(record.WithCompression(format.CompressionS2))
	require.NoError(t, err)

	l, stats := readList(t, testStream(t, codec), nil)
	require.Equal(t, 3, l.Len())
	require.Equal(t, stats.Records, stats.Selected)
	require.Equal(t, int64(500+300+120), stats.Samples)
	require.Zero(t, stats.Skipped)

	want := map[string]int{"XX.STA.BHZ": 500, "XX.STA.BHN": 300}
	for ci, ch := range l.Channels() {
		require.Len(t, ch.Segments, 1, ch.SourceID)
		require.False(t, ch.Segments[0].Refs[0].Retained())

		buf, err := l.Decode(ci, 0, codec)
		require.NoError(t, err)

		if ch.SourceID == "XX.STA.LOG" {
			require.Equal(t, format.SampleText, buf.Type())
			require.Equal(t, strings.Repeat("station log\n", 10), string(buf.Text()))
			continue
		}
		require.Equal(t, ramp(want[ch.SourceID]), buf.Int32s())
		require.Equal(t, nstime.EndTime(t0, 20, int64(want[ch.SourceID])), ch.Latest)
	}
}

func TestReadFrom_Selection(t *testing.T) {
	codec, err := record.NewCodec()
	require.NoError(t, err)

	sel, err := selection.New(selection.Rule{
		Pattern: "XX.STA.BH?",
		End:     t0 + 5*sec,
		HasEnd:  true,
	})
	require.NoError(t, err)

	l, stats := readList(t, testStream(t, codec), sel, WithRetainRecords(true))
	require.Equal(t, 2, l.Len())
	require.Less(t, stats.Selected, stats.Records)

	for _, ch := range l.Channels() {
		require.True(t, strings.HasPrefix(ch.SourceID, "XX.STA.BH"))
		require.LessOrEqual(t, ch.Earliest, t0+5*sec)
		require.True(t, ch.Segments[0].Refs[0].Retained())
		for _, seg := range ch.Segments {
			for _, ref := range seg.Refs {
				require.LessOrEqual(t, ref.Start, t0+5*sec)
			}
		}
	}
}

func TestReadFrom_Empty(t *testing.T) {
	l, stats := readList(t, nil, nil)
	require.Zero(t, l.Len())
	require.Zero(t, stats.Records)
}

func TestPack_RoundTripEncodings(t *testing.T) {
	codec, err := record.NewCodec(record.WithCompression(format.CompressionZstd))
	require.NoError(t, err)
	data := testStream(t, codec)

	for _, enc := range []format.EncodingType{
		format.EncodingInt32, format.EncodingDeltaInt32, format.EncodingFloat64, format.EncodingGorilla,
	} {
		t.Run(enc.String(), func(t *testing.T) {
			sel, err := selection.New(selection.Rule{Pattern: "XX.STA.BH?"})
			require.NoError(t, err)

			l, _ := readList(t, data, sel)
			_, err = l.DecodeAll(t.Context(), codec, 2)
			require.NoError(t, err)

			var out bytes.Buffer
			n, err := l.Pack(&out, codec, PackOptions{MaxRecordLength: 512, Encoding: enc})
			require.NoError(t, err)
			require.Positive(t, n)

			back, stats := readList(t, out.Bytes(), nil)
			require.Equal(t, int64(n), stats.Records)
			require.Equal(t, 2, back.Len())

			for ci, ch := range back.Channels() {
				require.Len(t, ch.Segments, 1)
				require.Equal(t, l.Channel(ci).SourceID, ch.SourceID)
				require.Equal(t, l.Channel(ci).Earliest, ch.Earliest)

				buf, err := back.Decode(ci, 0, codec)
				require.NoError(t, err)
				require.Equal(t, l.Channel(ci).Segments[0].Buffer().Float64s(), buf.Float64s())
			}
		})
	}
}

func TestPack_RoundTripKeepsSourceEncoding(t *testing.T) {
	codec, err := record.NewCodec()
	require.NoError(t, err)

	l, _ := readList(t, testStream(t, codec), nil)
	_, err = l.OverwriteAll(codec, samples.Map(func(x float64) float64 { return x * 2 }))
	require.NoError(t, err)

	var out bytes.Buffer
	_, err = l.Pack(&out, codec, PackOptions{})
	require.NoError(t, err)

	back, _ := readList(t, out.Bytes(), nil)
	require.Equal(t, 3, back.Len())
	for ci, ch := range back.Channels() {
		require.Equal(t, l.Channel(ci).Segments[0].Refs[0].Encoding, ch.Segments[0].Refs[0].Encoding)

		buf, err := back.Decode(ci, 0, codec)
		require.NoError(t, err)
		orig := l.Channel(ci).Segments[0].Buffer()
		if buf.Type() == format.SampleText {
			require.Equal(t, orig.Text(), buf.Text())
			continue
		}
		require.Equal(t, orig.Int32s(), buf.Int32s())
	}
}
