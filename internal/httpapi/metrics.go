package httpapi

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus instruments for the API.
type Metrics struct {
	GenerationRuns    *prometheus.CounterVec
	GenerationSeconds prometheus.Histogram
	InsightsEmitted   *prometheus.CounterVec
	AdvisorRuns       *prometheus.CounterVec
	StreamClients     prometheus.Gauge
}

// NewMetrics creates and registers the instruments on the given
// registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		GenerationRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finpulse_generation_runs_total",
				Help: "Signal feed generation runs by result",
			},
			[]string{"result"},
		),
		GenerationSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "finpulse_generation_duration_seconds",
				Help:    "Signal feed generation latency in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
		),
		InsightsEmitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finpulse_insights_emitted_total",
				Help: "Insights emitted by the rule engine, by type",
			},
			[]string{"type"},
		),
		AdvisorRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finpulse_advisor_runs_total",
				Help: "Advisor report runs by result",
			},
			[]string{"result"},
		),
		StreamClients: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "finpulse_stream_clients",
				Help: "Currently connected feed-stream clients",
			},
		),
	}

	reg.MustRegister(m.GenerationRuns, m.GenerationSeconds, m.InsightsEmitted, m.AdvisorRuns, m.StreamClients)
	return m
}
