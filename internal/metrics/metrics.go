package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Generation outcomes, one per error kind plus success.
const (
	OutcomeSuccess      = "success"
	OutcomeInvalid      = "invalid"
	OutcomeUnconfigured = "unconfigured"
	OutcomeLoading      = "loading"
	OutcomeRejected     = "rejected"
	OutcomeTransport    = "transport"
)

// Metrics holds the proxy's collectors and the registry they live in.
type Metrics struct {
	registry *prometheus.Registry

	buildInfo        *prometheus.GaugeVec
	generateRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		buildInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "hfproxy_build_info",
				Help: "Build information for the proxy",
			},
			[]string{"version"},
		),
		generateRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hfproxy_generate_requests_total",
				Help: "Total number of generation requests by outcome",
			},
			[]string{"outcome"},
		),
		upstreamDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "hfproxy_upstream_request_duration_seconds",
				Help: "Duration of calls to the inference API",
				// image generation routinely takes tens of seconds
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120, 300},
			},
			[]string{"status"},
		),
	}
	m.registry.MustRegister(m.buildInfo, m.generateRequests, m.upstreamDuration)
	return m
}

// SetBuildInfo sets the build info metric.
func (m *Metrics) SetBuildInfo(version string) {
	m.buildInfo.WithLabelValues(version).Set(1)
}

// RecordGenerate counts one generation request with the given outcome.
func (m *Metrics) RecordGenerate(outcome string) {
	m.generateRequests.WithLabelValues(outcome).Inc()
}

// ObserveUpstream records the latency of one upstream call. status is the
// upstream HTTP status, or "error" when no response was received.
func (m *Metrics) ObserveUpstream(status string, d time.Duration) {
	m.upstreamDuration.WithLabelValues(status).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
