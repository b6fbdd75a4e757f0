package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the daemon.
type Metrics struct {
	// Visibility metrics
	VisibilityTransitions *prometheus.CounterVec
	DwellReveals          prometheus.Counter
	DwellCancels          prometheus.Counter
	RevealLatency         prometheus.Histogram

	// Session metrics
	SessionsActive  prometheus.Gauge
	SessionsCreated prometheus.Counter
	LinesEvicted    prometheus.Counter

	// Provider metrics
	ProviderRequests *prometheus.CounterVec
	ProviderDuration *prometheus.HistogramVec
	ProviderTokens   *prometheus.CounterVec
	StreamFragments  *prometheus.CounterVec

	// WebSocket metrics
	WSConnections prometheus.Gauge

	startTime time.Time
}

// NewMetrics creates a metrics collector registered on a private registry so
// repeated construction in tests cannot panic on duplicate registration.
func NewMetrics() *Metrics {
	return newMetrics(prometheus.NewRegistry())
}

// NewMetricsWith registers the collectors on the provided registerer. The
// server uses this with the registry it exposes at /metrics.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	return newMetrics(reg)
}

func newMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		startTime: time.Now(),

		VisibilityTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hovershell_visibility_transitions_total",
				Help: "Committed visibility state transitions",
			},
			[]string{"to"},
		),
		DwellReveals: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "hovershell_dwell_reveals_total",
				Help: "Edge dwell timers that fired and committed a reveal",
			},
		),
		DwellCancels: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "hovershell_dwell_cancels_total",
				Help: "Edge dwell timers cancelled before the threshold elapsed",
			},
		),
		RevealLatency: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "hovershell_reveal_latency_seconds",
				Help:    "Time from reveal request to settled visible state",
				Buckets: []float64{.01, .025, .05, .1, .25, .5, 1},
			},
		),

		SessionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "hovershell_sessions",
				Help: "Number of open terminal sessions",
			},
		),
		SessionsCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "hovershell_sessions_created_total",
				Help: "Sessions created since start",
			},
		),
		LinesEvicted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "hovershell_scrollback_evicted_lines_total",
				Help: "Scrollback lines evicted by the FIFO bound",
			},
		),

		ProviderRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hovershell_provider_requests_total",
				Help: "Provider invocations by provider id and outcome",
			},
			[]string{"provider", "outcome"},
		),
		ProviderDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hovershell_provider_request_seconds",
				Help:    "Provider request duration in seconds",
				Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"provider"},
		),
		ProviderTokens: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hovershell_provider_tokens_total",
				Help: "Token usage reported by backends on completed responses",
			},
			[]string{"provider", "kind"},
		),
		StreamFragments: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hovershell_stream_fragments_total",
				Help: "Streamed response fragments delivered to session output",
			},
			[]string{"provider"},
		),

		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "hovershell_ws_connections",
				Help: "Open rendering-layer WebSocket connections",
			},
		),
	}
}

// Uptime returns time since metrics creation.
func (m *Metrics) Uptime() time.Duration {
	return time.Since(m.startTime)
}

// ObserveProvider records one provider invocation.
func (m *Metrics) ObserveProvider(provider, outcome string, d time.Duration) {
	m.ProviderRequests.WithLabelValues(provider, outcome).Inc()
	m.ProviderDuration.WithLabelValues(provider).Observe(d.Seconds())
}

// AddTokens records backend-reported token usage for a completed response.
func (m *Metrics) AddTokens(provider string, prompt, completion int) {
	m.ProviderTokens.WithLabelValues(provider, "prompt").Add(float64(prompt))
	m.ProviderTokens.WithLabelValues(provider, "completion").Add(float64(completion))
}
