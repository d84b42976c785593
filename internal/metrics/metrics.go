// Package metrics exposes Prometheus instruments for the extraction pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the pipeline instruments registered on one registry.
type Metrics struct {
	registry *prometheus.Registry

	SessionsFinished *prometheus.CounterVec
	FramesSampled    prometheus.Counter
	FramesAccepted   prometheus.Counter
	FramesRejected   prometheus.Counter
	StageDuration    *prometheus.HistogramVec
	ArchiveBytes     prometheus.Histogram
	ActiveSessions   prometheus.Gauge
}

// New registers the instruments on a fresh registry together with the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		SessionsFinished: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ytframes_sessions_finished_total",
			Help: "Sessions that reached a terminal status, by status",
		}, []string{"status"}),
		FramesSampled: factory.NewCounter(prometheus.CounterOpts{
			Name: "ytframes_frames_sampled_total",
			Help: "Frames produced by the sampler",
		}),
		FramesAccepted: factory.NewCounter(prometheus.CounterOpts{
			Name: "ytframes_frames_accepted_total",
			Help: "Sampled frames accepted by the brightness filter",
		}),
		FramesRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "ytframes_frames_rejected_total",
			Help: "Sampled frames rejected by the brightness filter",
		}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ytframes_stage_duration_seconds",
			Help:    "Duration of pipeline stages",
			Buckets: []float64{0.5, 1, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"stage"}),
		ArchiveBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ytframes_archive_bytes",
			Help:    "Size of built dataset archives",
			Buckets: prometheus.ExponentialBuckets(64*1024, 4, 8),
		}),
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ytframes_active_sessions",
			Help: "Sessions currently downloading, sampling or building",
		}),
	}
}

// ObserveStage records how long stage took since started.
func (m *Metrics) ObserveStage(stage string, started time.Time) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(time.Since(started).Seconds())
}

// Finished counts a session reaching status.
func (m *Metrics) Finished(status string) {
	if m == nil {
		return
	}
	m.SessionsFinished.WithLabelValues(status).Inc()
}

// Frame counts one sampled frame and its filter verdict.
func (m *Metrics) Frame(accepted bool) {
	if m == nil {
		return
	}
	m.FramesSampled.Inc()
	if accepted {
		m.FramesAccepted.Inc()
	} else {
		m.FramesRejected.Inc()
	}
}

// Archive records the size of a built archive.
func (m *Metrics) Archive(size int) {
	if m == nil {
		return
	}
	m.ArchiveBytes.Observe(float64(size))
}

// Active adjusts the working session gauge by delta.
func (m *Metrics) Active(delta float64) {
	if m == nil {
		return
	}
	m.ActiveSessions.Add(delta)
}

// Registry exposes the underlying registry for tests and custom collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
