// Package metrics exposes session counters for Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"parlo/internal/assistant"
)

type Metrics struct {
	registry *prometheus.Registry

	Sessions        *prometheus.CounterVec
	SessionDuration prometheus.Histogram
	CapturedSeconds prometheus.Histogram
	ReplyChars      prometheus.Histogram

	sampleRate float64
}

// New registers the metrics on a private registry. sampleRate converts
// captured sample counts into seconds.
func New(sampleRate int) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Sessions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "parlo_sessions_total",
			Help: "Finished sessions by route and status",
		}, []string{"route", "status"}),
		SessionDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "parlo_session_duration_seconds",
			Help:    "Wall time of a session from cue to reply",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 8), // 0.5s to ~1min
		}),
		CapturedSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "parlo_captured_audio_seconds",
			Help:    "Length of captured utterances",
			Buckets: prometheus.LinearBuckets(1, 2, 10),
		}),
		ReplyChars: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "parlo_reply_chars",
			Help:    "Length of generated replies in bytes",
			Buckets: prometheus.ExponentialBuckets(16, 2, 8),
		}),
		sampleRate: float64(sampleRate),
	}
}

func (m *Metrics) Observe(out assistant.Outcome) {
	m.Sessions.WithLabelValues(out.Route.String(), out.Status()).Inc()
	m.SessionDuration.Observe(out.Duration.Seconds())

	if out.Samples > 0 && m.sampleRate > 0 {
		m.CapturedSeconds.Observe(float64(out.Samples) / m.sampleRate)
	}
	if out.Reply != "" {
		m.ReplyChars.Observe(float64(len(out.Reply)))
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
