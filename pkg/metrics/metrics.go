// Package metrics holds the Prometheus collectors for the backend.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles every collector. Construct once at startup with New
// and share the instance; collectors registered twice panic.
type Metrics struct {
	factory  promauto.Factory
	gatherer prometheus.Gatherer

	// HTTP surface
	HTTPRequests *prometheus.CounterVec   // method, route, status
	HTTPDuration *prometheus.HistogramVec // method, route
	Rejections   *prometheus.CounterVec   // reason: rate_limited, concurrency_exhausted

	// Ask pipeline
	AskRuns     *prometheus.CounterVec // outcome: ok, aborted, or a failure reason
	AskDuration prometheus.Histogram

	// Tool-log streaming
	StreamClients prometheus.Gauge

	// Adapter safety gate
	SafetyRuns *prometheus.CounterVec // mode, verdict

	BuildInfo *prometheus.GaugeVec // version, commit
}

// New creates and registers all collectors on reg. A nil reg uses the
// process-default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	gatherer := prometheus.Gatherer(prometheus.DefaultGatherer)
	if r, ok := reg.(*prometheus.Registry); ok {
		gatherer = r
	}

	return &Metrics{
		factory:  factory,
		gatherer: gatherer,

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "helix_http_requests_total",
				Help: "HTTP requests served, by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "helix_http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		Rejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "helix_rejected_requests_total",
				Help: "Requests rejected before reaching a handler",
			},
			[]string{"reason"},
		),

		AskRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "helix_ask_runs_total",
				Help: "Completed ask runs, by outcome",
			},
			[]string{"outcome"},
		),
		AskDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "helix_ask_run_duration_seconds",
				Help:    "End-to-end ask run duration",
				Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
		),

		StreamClients: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "helix_stream_clients",
				Help: "Connected tool-log stream subscribers",
			},
		),

		SafetyRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "helix_safety_runs_total",
				Help: "Adapter gate evaluations, by mode and verdict",
			},
			[]string{"mode", "verdict"},
		),

		BuildInfo: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "helix_build_info",
				Help: "Build metadata, always 1",
			},
			[]string{"version", "commit"},
		),
	}
}

// Handler serves the registry the collectors were registered in.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// RecordHTTP counts one served request.
func (m *Metrics) RecordHTTP(method, route string, status int, seconds float64) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(seconds)
}

// RecordRejection counts a request turned away by the limiter or the
// concurrency guard.
func (m *Metrics) RecordRejection(reason string) {
	m.Rejections.WithLabelValues(reason).Inc()
}

// RecordAskRun counts one finished ask run.
func (m *Metrics) RecordAskRun(outcome string, seconds float64) {
	m.AskRuns.WithLabelValues(outcome).Inc()
	m.AskDuration.Observe(seconds)
}

// RecordSafetyRun counts one adapter gate evaluation.
func (m *Metrics) RecordSafetyRun(mode string, pass bool) {
	verdict := "FAIL"
	if pass {
		verdict = "PASS"
	}
	m.SafetyRuns.WithLabelValues(mode, verdict).Inc()
}

// StreamOpened and StreamClosed track SSE subscriber churn.
func (m *Metrics) StreamOpened() { m.StreamClients.Inc() }
func (m *Metrics) StreamClosed() { m.StreamClients.Dec() }

// SetBuildInfo pins the build metadata gauge.
func (m *Metrics) SetBuildInfo(version, commit string) {
	m.BuildInfo.WithLabelValues(version, commit).Set(1)
}

// ObserveQueueDepth registers a gauge backed by the live ask queue.
func (m *Metrics) ObserveQueueDepth(depth func() float64) {
	m.factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "helix_ask_queue_depth",
		Help: "Asks waiting in the orchestrator queue",
	}, depth)
}

// ObserveBus registers counters backed by live bus statistics.
func (m *Metrics) ObserveBus(published, dropped func() float64, subscribers func() float64) {
	m.factory.NewCounterFunc(prometheus.CounterOpts{
		Name: "helix_bus_events_published_total",
		Help: "Events accepted by the tool-log bus",
	}, published)
	m.factory.NewCounterFunc(prometheus.CounterOpts{
		Name: "helix_bus_events_dropped_total",
		Help: "Events dropped from slow subscriber outboxes",
	}, dropped)
	m.factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "helix_bus_subscribers",
		Help: "Live bus subscriptions",
	}, subscribers)
}
