// Package metrics counts pipeline activity on a per-run Prometheus registry.
//
// Counters are registered on a private registry so concurrent runs and tests
// never share state. WriteText renders the registry in the Prometheus text
// exposition format, suitable for the node exporter textfile collector.
package metrics

import (
	"fmt"
	"io"

	"github.com/arloliu/seistrace/errs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

const namespace = "seistrace"

// Metrics holds the counters of one run.
type Metrics struct {
	reg *prometheus.Registry

	RecordsRead     prometheus.Counter
	RecordsSelected prometheus.Counter
	RecordsSkipped  prometheus.Counter
	RecordsOverlap  prometheus.Counter
	RecordsWritten  prometheus.Counter
	SamplesSelected prometheus.Counter
	Channels        prometheus.Gauge
	Segments        prometheus.Gauge
	SegmentsDecoded prometheus.Counter
	Errors          *prometheus.CounterVec
}

// New creates the counters on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		RecordsRead: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_read_total",
			Help:      "Records read from the input, including skipped ones",
		}),
		RecordsSelected: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_selected_total",
			Help:      "Records accepted by the selection and assembled",
		}),
		RecordsSkipped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_skipped_total",
			Help:      "Records dropped for a failed checksum",
		}),
		RecordsOverlap: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_overlap_total",
			Help:      "Selected records refused because they overlap a segment",
		}),
		RecordsWritten: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_written_total",
			Help:      "Records written to the output",
		}),
		SamplesSelected: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_selected_total",
			Help:      "Declared samples of the selected records",
		}),
		Channels: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "channels",
			Help:      "Channels assembled",
		}),
		Segments: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "segments",
			Help:      "Segments assembled",
		}),
		SegmentsDecoded: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_decoded_total",
			Help:      "Segments decoded successfully",
		}),
		Errors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Errors by kind",
		}, []string{"kind"}),
	}
}

// Error counts err under its kind. A nil err is ignored.
func (m *Metrics) Error(err error) {
	if err == nil {
		return
	}
	m.Errors.WithLabelValues(errs.KindOf(err).String()).Inc()
}

// Registry returns the registry holding the counters.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// WriteText writes every metric family in the text exposition format.
func (m *Metrics) WriteText(w io.Writer) error {
	families, err := m.reg.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}

	return nil
}

// Value returns the current value of the named counter or gauge, summed over
// label values, and whether the metric exists.
func (m *Metrics) Value(name string) (float64, bool) {
	families, err := m.reg.Gather()
	if err != nil {
		return 0, false
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}

		return sum(mf), true
	}

	return 0, false
}

func sum(mf *dto.MetricFamily) float64 {
	total := 0.0
	for _, metric := range mf.GetMetric() {
		switch mf.GetType() {
		case dto.MetricType_COUNTER:
			total += metric.GetCounter().GetValue()
		case dto.MetricType_GAUGE:
			total += metric.GetGauge().GetValue()
		default:
		}
	}

	return total
}
