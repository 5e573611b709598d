package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service. Each
// instance owns its registry so tests can build as many as they need.
type Metrics struct {
	registry *prometheus.Registry
	stages   *stageWindow

	ChatRequests        *prometheus.CounterVec
	SessionEvents       *prometheus.CounterVec
	ProviderErrors      *prometheus.CounterVec
	MemoryWriteFailures *prometheus.CounterVec
	GenerationLatency   prometheus.Histogram
	StageLatency        *prometheus.HistogramVec
}

func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		stages:   newStageWindow(256),
		ChatRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_requests_total",
			Help:      "Chat requests by outcome.",
		}, []string{"outcome"}),
		SessionEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_events_total",
			Help:      "Session resolution events by type.",
		}, []string{"event"}),
		ProviderErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_errors_total",
			Help:      "Generation provider errors by provider and class.",
		}, []string{"provider", "code"}),
		MemoryWriteFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memory_write_failures_total",
			Help:      "Turn persistence writes that failed after a reply was generated.",
		}, []string{"write"}),
		GenerationLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_latency_ms",
			Help:      "Latency of the generation call in milliseconds.",
			Buckets:   []float64{100, 250, 500, 1000, 2000, 4000, 8000, 16000, 30000},
		}),
		StageLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chat_stage_latency_ms",
			Help:      "Latency of each chat pipeline stage in milliseconds.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 4000, 16000},
		}, []string{"stage"}),
	}
}

// ObserveStage records d for a pipeline stage in both the histogram and the
// rolling window served by /v1/perf/latency. A non-nil err marks the sample
// as a failure.
func (m *Metrics) ObserveStage(stage string, d time.Duration, err error) {
	if m == nil {
		return
	}
	ms := float64(d.Microseconds()) / 1000
	m.StageLatency.WithLabelValues(stage).Observe(ms)
	m.stages.Observe(stage, ms, err != nil)
	if stage == StageGenerate {
		m.GenerationLatency.Observe(ms)
	}
}

// SnapshotStages returns rolling per-stage latency statistics.
func (m *Metrics) SnapshotStages() StageSnapshot {
	return m.stages.Snapshot()
}

// Handler serves this instance's registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
