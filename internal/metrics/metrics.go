package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "flowid"

// Outcome labels for RecordsTotal.
const (
	OutcomeEnriched = "enriched"
	OutcomeTagged   = "tagged"
)

// Metrics holds the pipeline's Prometheus collectors on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	RecordsTotal  *prometheus.CounterVec
	FailuresTotal *prometheus.CounterVec
	SinkErrors    prometheus.Counter
	DecodeErrors  prometheus.Counter
	QueueDepth    prometheus.Gauge
}

// New creates and registers the collectors, plus the Go runtime and process
// collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		RecordsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Records processed, by outcome.",
		}, []string{"outcome"}),
		FailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failures_total",
			Help:      "Records that could not be fingerprinted, by reason.",
		}, []string{"reason"}),
		SinkErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_errors_total",
			Help:      "Errors returned by output sinks.",
		}),
		DecodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_errors_total",
			Help:      "Input messages that could not be decoded into records.",
		}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Records waiting in the worker queue.",
		}),
	}
	m.Registry.MustRegister(
		m.RecordsTotal,
		m.FailuresTotal,
		m.SinkErrors,
		m.DecodeErrors,
		m.QueueDepth,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// Enriched counts one successfully fingerprinted record.
func (m *Metrics) Enriched() {
	if m == nil {
		return
	}
	m.RecordsTotal.WithLabelValues(OutcomeEnriched).Inc()
}

// Failed counts one tagged record under reason.
func (m *Metrics) Failed(reason string) {
	if m == nil {
		return
	}
	m.RecordsTotal.WithLabelValues(OutcomeTagged).Inc()
	m.FailuresTotal.WithLabelValues(reason).Inc()
}

// SinkError counts one failed sink write.
func (m *Metrics) SinkError() {
	if m == nil {
		return
	}
	m.SinkErrors.Inc()
}

// DecodeError counts one undecodable input message.
func (m *Metrics) DecodeError() {
	if m == nil {
		return
	}
	m.DecodeErrors.Inc()
}

// SetQueueDepth records the current worker queue length.
func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.QueueDepth.Set(float64(n))
}
