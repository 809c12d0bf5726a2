package pipeline

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/arloliu/seistrace/errs"
	"github.com/arloliu/seistrace/format"
	"github.com/arloliu/seistrace/internal/config"
	"github.com/arloliu/seistrace/nstime"
	"github.com/arloliu/seistrace/record"
	"github.com/arloliu/seistrace/samples"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

var t0 = nstime.Date(2024, time.February, 10, 0, 0, 0, 0)

func ramp(n int) []int32 {
	v := make([]int32, n)
	for i := range v {
		v[i] = int32(i%200 - 100)
	}

	return v
}

func constant(n int, value int32) []int32 {
	v := make([]int32, n)
	for i := range v {
		v[i] = value
	}

	return v
}

// encode returns the records of one channel.
func encode(t *testing.T, sid string, buf *samples.Buffer, enc format.EncodingType) [][]byte {
	t.Helper()

	codec, err := record.NewCodec()
	require.NoError(t, err)

	var out [][]byte
	tmpl := record.Template{SourceID: sid, PubVersion: 1, StartTime: t0, SampleRate: 20}
	_, err = codec.EncodeRecords(tmpl, buf, 512, enc, func(raw []byte) error {
		out = append(out, bytes.Clone(raw))
		return nil
	})
	require.NoError(t, err)

	return out
}

func writeFile(t *testing.T, fs afero.Fs, name string, records ...[]byte) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, name, bytes.Join(records, nil), 0o644))
}

// testInput writes a 1000-sample ramp channel and a 200-sample constant channel.
func testInput(t *testing.T, fs afero.Fs) {
	t.Helper()

	recs := encode(t, "XX.STA.BHZ", samples.FromInt32(ramp(1000)), format.EncodingInt32)
	recs = append(recs, encode(t, "XX.STA.BHN", samples.FromInt32(constant(200, 7)), format.EncodingDeltaInt32)...)
	writeFile(t, fs, "day.rec", recs...)
}

func run(t *testing.T, fs afero.Fs, args ...string) (string, Result, error) {
	t.Helper()

	cfg, err := config.Parse(args, map[string]string{}, io.Discard)
	require.NoError(t, err)

	var out strings.Builder
	res, err := Run(context.Background(), fs, cfg, &out, nil)

	return out.String(), res, err
}

func TestRun_Report(t *testing.T) {
	fs := afero.NewMemMapFs()
	testInput(t, fs)

	out, res, err := run(t, fs, "-s", "day.rec")
	require.NoError(t, err)
	require.Equal(t, ExitOK, ExitCode(res, err, true))

	require.Equal(t, 2, res.Channels)
	require.Equal(t, 2, res.Segments)
	require.Zero(t, res.Decoded)
	require.Contains(t, out, "TraceID for XX.STA.BHZ (1), earliest: 2024,041,00:00:00.000000, latest: 2024,041,00:00:49.950000, segments: 1\n")
	require.Contains(t, out, "  Segment 2024,041,00:00:00.000000 - 2024,041,00:00:49.950000, samples: 1000, sample rate: 20\n")
	require.Contains(t, out, "TraceID for XX.STA.BHN (1)")
	require.True(t, strings.HasSuffix(out, fmt.Sprintf("Records: %d, Samples: 1200\n", res.Read.Selected)))
	require.NotContains(t, out, "DATA")
}

func TestRun_EmptyInput(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "empty.rec")

	out, res, err := run(t, fs, "-s", "-S", "empty.rec")
	require.NoError(t, err)
	require.Equal(t, ExitOK, ExitCode(res, err, true))
	require.Zero(t, res.Channels)
	require.Empty(t, res.Localized)
	require.Equal(t, "Records: 0, Samples: 0\n", out)
}

func TestRun_DataAndStatistics(t *testing.T) {
	fs := afero.NewMemMapFs()
	testInput(t, fs)

	out, res, err := run(t, fs, "-d", "-S", "-j", "3", "day.rec")
	require.NoError(t, err)
	require.Equal(t, 2, res.Decoded)
	require.Empty(t, res.Localized)

	require.Contains(t, out, "DATA (1000 samples) of type 'i':\n      -100         -99         -98         -97         -96         -95  \n")
	require.Contains(t, out, "DATA (200 samples) of type 'i':\n         7           7")
	require.Contains(t, out, "Statistics: samples: 200, sum: 1400.000000, mean: 7.000000, sum of squares: 0.000000, RMS: 0.000000\n")
	require.Equal(t, 2, strings.Count(out, "DATA ("))
	require.Equal(t, 2, strings.Count(out, "Statistics: "))
}

func TestRun_Selection(t *testing.T) {
	fs := afero.NewMemMapFs()
	testInput(t, fs)
	require.NoError(t, afero.WriteFile(fs, "sel.txt", []byte("# vertical only\nXX.STA.BH? 2024-02-10T00:00:00 2024-02-10T00:00:10\nXX.STA.BHN * * 2\n"), 0o644))

	out, res, err := run(t, fs, "-S", "day.rec", "sel.txt")
	require.NoError(t, err)
	require.Equal(t, 2, res.Channels)
	require.Less(t, res.Read.Selected, res.Read.Records)

	// The first window covers the first records of both channels.
	require.Contains(t, out, "TraceID for XX.STA.BHZ (1)")
	require.Contains(t, out, "TraceID for XX.STA.BHN (1)")
	require.NotContains(t, out, "samples: 1000,")
}

func TestRun_SelectionErrorsAreFatal(t *testing.T) {
	fs := afero.NewMemMapFs()
	testInput(t, fs)
	require.NoError(t, afero.WriteFile(fs, "bad.txt", []byte("XX.* not-a-time\n"), 0o644))

	_, res, err := run(t, fs, "day.rec", "bad.txt")
	require.Equal(t, errs.KindConfiguration, errs.KindOf(err))
	require.Equal(t, ExitFatal, ExitCode(res, err, false))

	_, _, err = run(t, fs, "day.rec", "missing.txt")
	require.Equal(t, errs.KindConfiguration, errs.KindOf(err))
}

func TestRun_MissingInput(t *testing.T) {
	_, res, err := run(t, afero.NewMemMapFs(), "nowhere.rec")
	require.Error(t, err)
	require.Equal(t, errs.KindConfiguration, errs.KindOf(err))
	require.Equal(t, ExitFatal, ExitCode(res, err, false))
}

func TestRun_FillAndRepack(t *testing.T) {
	fs := afero.NewMemMapFs()
	testInput(t, fs)

	_, res, err := run(t, fs, "-fill", "0", "-o", "out.rec", "-r", "256", "-c", "s2", "day.rec")
	require.NoError(t, err)
	require.Equal(t, 2, res.Rewritten)
	require.Positive(t, res.Written)

	data, err := afero.ReadFile(fs, "out.rec")
	require.NoError(t, err)

	codec, err := record.NewCodec()
	require.NoError(t, err)
	rd, err := record.NewReader(bytes.NewReader(data))
	require.NoError(t, err)

	counts := map[string]int64{}
	records := 0
	for {
		rec, err := rd.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		require.LessOrEqual(t, rec.Length(), 256)
		records++

		buf, err := codec.DecodeRecord(rec.Raw)
		require.NoError(t, err)
		for _, v := range buf.Int32s() {
			require.Zero(t, v)
		}
		counts[rec.SourceID] += rec.SampleCount
	}

	require.Equal(t, res.Written, records)
	require.Equal(t, map[string]int64{"XX.STA.BHZ": 1000, "XX.STA.BHN": 200}, counts)
}

func TestRun_TransformAndReencode(t *testing.T) {
	fs := afero.NewMemMapFs()
	testInput(t, fs)

	_, _, err := run(t, fs, "-transform", "x + 0.5", "-e", "float64", "-o", "out.rec", "day.rec")
	require.NoError(t, err)

	out, res, err := run(t, fs, "-D", "out.rec")
	require.NoError(t, err)
	require.Equal(t, 2, res.Channels)
	require.Contains(t, out, "DATA (200 samples) of type 'd':")
	// int32 rounding happens before re-encoding: 7 + 0.5 rounds to 8.
	require.Contains(t, out, "         8           8")
}

func TestRun_NarrowingIsLocalized(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "mixed.rec",
		append(encode(t, "XX.F", samples.FromFloat64([]float64{0.5, 1.5}), format.EncodingFloat64),
			encode(t, "XX.I", samples.FromInt32([]int32{1, 2, 3}), format.EncodingInt32)...)...)

	_, res, err := run(t, fs, "-e", "int32", "-o", "out.rec", "mixed.rec")
	require.NoError(t, err)
	require.Equal(t, 1, res.Written)
	require.Len(t, res.Localized, 1)
	require.ErrorIs(t, res.Localized[0], errs.ErrNarrowingEncoding)
	require.Equal(t, ExitOK, ExitCode(res, err, false))
	require.Equal(t, ExitLocalized, ExitCode(res, err, true))
}

func TestRun_DecodeErrorIsLocalized(t *testing.T) {
	fs := afero.NewMemMapFs()
	good := encode(t, "XX.GOOD", samples.FromInt32(ramp(50)), format.EncodingInt32)
	bad := encode(t, "XX.BAD", samples.FromInt32(ramp(10)), format.EncodingInt32)
	// The checksum covers identifier and payload only; a wrong count passes validation.
	binary.LittleEndian.PutUint32(bad[0][24:], 11)
	writeFile(t, fs, "day.rec", append(good, bad...)...)

	out, res, err := run(t, fs, "-d", "-S", "-strict", "day.rec")
	require.NoError(t, err)
	require.Equal(t, 1, res.Decoded)
	require.Len(t, res.Localized, 2)
	require.ErrorIs(t, res.Localized[0], errs.ErrCountMismatch)
	require.Equal(t, errs.KindDecode, errs.KindOf(res.Localized[0]))
	require.ErrorIs(t, res.Localized[1], errs.ErrEmptyBuffer)
	require.Equal(t, ExitLocalized, ExitCode(res, err, true))

	require.Contains(t, out, "DATA (50 samples)")
	require.Contains(t, out, "RMS: NaN")
}

func TestRun_AllocationLimitIsFatal(t *testing.T) {
	fs := afero.NewMemMapFs()
	testInput(t, fs)

	cfg, err := config.Parse([]string{"-S", "day.rec"},
		map[string]string{"SEISTRACE_MAX_SEGMENT_SAMPLES": "500"}, io.Discard)
	require.NoError(t, err)

	res, err := Run(context.Background(), fs, cfg, io.Discard, nil)
	require.Equal(t, errs.KindAllocation, errs.KindOf(err))
	require.ErrorIs(t, err, errs.ErrSegmentTooLarge)
	require.Equal(t, ExitFatal, ExitCode(res, err, false))
}

func TestRun_ChecksumSkipAndMetrics(t *testing.T) {
	fs := afero.NewMemMapFs()
	recs := encode(t, "XX.STA.BHZ", samples.FromInt32(ramp(1000)), format.EncodingInt32)
	recs[len(recs)-1][len(recs[len(recs)-1])-1] ^= 0xff
	writeFile(t, fs, "day.rec", recs...)

	_, res, err := run(t, fs, "-metrics", "run.prom", "day.rec")
	require.NoError(t, err)
	require.Equal(t, int64(1), res.Read.Skipped)
	require.Equal(t, int64(len(recs)), res.Read.Records)

	prom, err := afero.ReadFile(fs, "run.prom")
	require.NoError(t, err)
	require.Contains(t, string(prom), "seistrace_records_skipped_total 1")
	require.Contains(t, string(prom), fmt.Sprintf("seistrace_records_read_total %d", len(recs)))
	require.Contains(t, string(prom), "seistrace_channels 1")
}

func TestRun_TruncatedInputKeepsAssembledRecords(t *testing.T) {
	fs := afero.NewMemMapFs()
	recs := encode(t, "XX.STA.BHZ", samples.FromInt32(ramp(1000)), format.EncodingInt32)
	data := bytes.Join(recs, nil)
	require.NoError(t, afero.WriteFile(fs, "day.rec", data[:len(data)-10], 0o644))

	out, res, err := run(t, fs, "day.rec")
	require.NoError(t, err)
	require.Len(t, res.Localized, 1)
	require.ErrorIs(t, res.Localized[0], errs.ErrTruncatedRecord)
	require.Equal(t, int64(len(recs)-1), res.Read.Selected)
	require.Contains(t, out, "TraceID for XX.STA.BHZ (1)")
}

func TestExitCode(t *testing.T) {
	require.Equal(t, ExitOK, ExitCode(Result{}, nil, true))
	require.Equal(t, ExitFatal, ExitCode(Result{}, errors.New("boom"), false))
	require.Equal(t, ExitOK, ExitCode(Result{Localized: []error{errors.New("x")}}, nil, false))
	require.Equal(t, ExitLocalized, ExitCode(Result{Localized: []error{errors.New("x")}}, nil, true))
}
