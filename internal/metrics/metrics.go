package metrics

import (
	"cbrrates/internal/domain"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cbrrates"

// PipelineMetrics counts fetch attempts, per-date outcomes and sink deliveries.
type PipelineMetrics struct {
	FetchAttemptsTotal  *prometheus.CounterVec
	DatesTotal          *prometheus.CounterVec
	RecordsParsedTotal  prometheus.Counter
	SinkDeliveriesTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

func (m *PipelineMetrics) ObserveAttempt(outcome string) {
	m.FetchAttemptsTotal.WithLabelValues(outcome).Inc()
}

func (m *PipelineMetrics) ObserveDate(status domain.DateStatus, records int) {
	m.DatesTotal.WithLabelValues(string(status)).Inc()
	m.RecordsParsedTotal.Add(float64(records))
}

func (m *PipelineMetrics) ObserveSink(sink string, ok bool) {
	m.SinkDeliveriesTotal.WithLabelValues(sink, strconv.FormatBool(ok)).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *PipelineMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *PipelineMetrics) Registry() *prometheus.Registry { return m.registry }

// NewPipelineMetrics registers the pipeline metrics together with the Go runtime collectors.
func NewPipelineMetrics() *PipelineMetrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &PipelineMetrics{
		FetchAttemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fetch_attempts_total",
				Help:      "Source page fetch attempts by outcome",
			},
			[]string{"outcome"},
		),
		DatesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dates_total",
				Help:      "Processed dates by status",
			},
			[]string{"status"},
		),
		RecordsParsedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "records_parsed_total",
				Help:      "Currency records accepted by the normalizer",
			},
		),
		SinkDeliveriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sink_deliveries_total",
				Help:      "Record deliveries to sinks by result",
			},
			[]string{"sink", "success"},
		),
		registry: reg,
	}
}
