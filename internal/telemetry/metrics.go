// Package telemetry exposes Prometheus metrics for the playback daemon.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lullaby"

// Refill failure reasons.
const (
	ReasonDirectoryUnavailable = "directory_unavailable"
	ReasonNoTrack              = "no_track"
	ReasonFileUnreadable       = "file_unreadable"
	ReasonUnsupportedFormat    = "unsupported_format"
)

// Metrics holds the daemon's collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	tracksEnqueued *prometheus.CounterVec
	refillFailures *prometheus.CounterVec
	commands       *prometheus.CounterVec
	queueDepth     *prometheus.GaugeVec
	playing        prometheus.Gauge
	ticks          prometheus.Counter
}

// NewMetrics creates collectors registered on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		tracksEnqueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tracks_enqueued_total",
			Help:      "Tracks decoded and queued, by category.",
		}, []string{"category"}),
		refillFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refill_failures_total",
			Help:      "Ticks on which an empty channel could not be refilled, by category and reason.",
		}, []string{"category", "reason"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Control commands processed by the playback controller.",
		}, []string{"command"}),
		queueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Tracks queued per channel at the end of the last tick.",
		}, []string{"category"}),
		playing: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "playing",
			Help:      "1 while playback is running, 0 while paused.",
		}),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "controller_ticks_total",
			Help:      "Controller loop iterations.",
		}),
	}
	m.registry.MustRegister(
		m.tracksEnqueued,
		m.refillFailures,
		m.commands,
		m.queueDepth,
		m.playing,
		m.ticks,
		collectors.NewGoCollector(),
	)
	return m
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) TrackEnqueued(category string) {
	if m == nil {
		return
	}
	m.tracksEnqueued.WithLabelValues(category).Inc()
}

func (m *Metrics) RefillFailed(category, reason string) {
	if m == nil {
		return
	}
	m.refillFailures.WithLabelValues(category, reason).Inc()
}

func (m *Metrics) CommandProcessed(command string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(command).Inc()
}

func (m *Metrics) SetQueueDepth(category string, depth int) {
	if m == nil {
		return
	}
	m.queueDepth.WithLabelValues(category).Set(float64(depth))
}

func (m *Metrics) SetPlaying(playing bool) {
	if m == nil {
		return
	}
	v := 0.0
	if playing {
		v = 1
	}
	m.playing.Set(v)
}

func (m *Metrics) Tick() {
	if m == nil {
		return
	}
	m.ticks.Inc()
}
