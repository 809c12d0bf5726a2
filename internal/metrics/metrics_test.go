package metrics

import (
	"errors"
	"strings"
	"testing"

	"github.com/arloliu/seistrace/errs"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()
	m.RecordsRead.Add(10)
	m.RecordsSelected.Add(7)
	m.Channels.Set(2)

	v, ok := m.Value("seistrace_records_read_total")
	require.True(t, ok)
	require.Equal(t, 10.0, v)

	v, ok = m.Value("seistrace_channels")
	require.True(t, ok)
	require.Equal(t, 2.0, v)

	_, ok = m.Value("seistrace_unknown")
	require.False(t, ok)
}

func TestMetrics_ErrorsByKind(t *testing.T) {
	m := New()
	m.Error(errs.Wrap(errs.KindDecode, "decode", errs.ErrCountMismatch))
	m.Error(errs.Wrap(errs.KindDecode, "decode", errs.ErrChecksumMismatch))
	m.Error(errs.Wrap(errs.KindEncode, "pack", errs.ErrZeroLengthSegment))
	m.Error(errors.New("plain"))
	m.Error(nil)

	v, ok := m.Value("seistrace_errors_total")
	require.True(t, ok)
	require.Equal(t, 4.0, v)
	require.Equal(t, 2.0, counterValue(t, m, "decode"))
}

func counterValue(t *testing.T, m *Metrics, kind string) float64 {
	t.Helper()

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "seistrace_errors_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, lp := range metric.GetLabel() {
				if lp.GetName() == "kind" && lp.GetValue() == kind {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}

	return 0
}

func TestMetrics_WriteText(t *testing.T) {
	m := New()
	m.RecordsWritten.Add(3)

	var sb strings.Builder
	require.NoError(t, m.WriteText(&sb))
	require.Contains(t, sb.String(), "# TYPE seistrace_records_written_total counter")
	require.Contains(t, sb.String(), "seistrace_records_written_total 3")
}

func TestMetrics_Isolated(t *testing.T) {
	a, b := New(), New()
	a.RecordsRead.Inc()

	v, _ := b.Value("seistrace_records_read_total")
	require.Zero(t, v)
}
