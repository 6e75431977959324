// Package metrics holds the Prometheus instruments for ingestion and
// insight serving, exposed on the HTTP server's /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry bundles all hive-stats metrics.
type Registry struct {
	IngestRuns      *prometheus.CounterVec
	ActionsFetched  prometheus.Counter
	WeeksUpserted   prometheus.Counter
	PricesUpserted  prometheus.Counter
	InsightDuration *prometheus.HistogramVec
}

// NewRegistry creates the metrics and registers them with reg.
func NewRegistry(reg prometheus.Registerer) *Registry {
	r := &Registry{
		IngestRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hivestats_ingest_runs_total",
				Help: "Yearly ingestion runs by outcome",
			},
			[]string{"result"},
		),
		ActionsFetched: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "hivestats_actions_fetched_total",
				Help: "Raw actions fetched from the ledger",
			},
		),
		WeeksUpserted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "hivestats_weeks_upserted_total",
				Help: "Weekly stats rows written to the store",
			},
		),
		PricesUpserted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "hivestats_prices_upserted_total",
				Help: "Daily price points written to the store",
			},
		),
		InsightDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hivestats_insight_duration_seconds",
				Help:    "Insight query duration by endpoint",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
			},
			[]string{"insight"},
		),
	}

	reg.MustRegister(r.IngestRuns, r.ActionsFetched, r.WeeksUpserted, r.PricesUpserted, r.InsightDuration)
	return r
}
