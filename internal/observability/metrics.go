package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the collection pipeline.
type Metrics struct {
	RunsTotal        *prometheus.CounterVec // labels: outcome={success,error}
	RunDuration      prometheus.Histogram
	RegionsDerived   prometheus.Gauge
	MessagesProduced prometheus.Counter
	PipelineRunning  prometheus.Gauge

	// Feed metrics.
	FeedFetchDuration *prometheus.HistogramVec // labels: feed={lookup,confirmed,deaths,recovered}
	FeedRows          *prometheus.GaugeVec     // labels: feed
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.RegionsDerived,
		m.MessagesProduced,
		m.PipelineRunning,
		m.FeedFetchDuration,
		m.FeedRows,
	)

	return m
}

// NewUnregisteredMetrics creates Metrics that are not exposed on /metrics.
// One-shot commands use it, and so do tests that would otherwise hit
// "already registered" panics.
func NewUnregisteredMetrics() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "covid_etl",
			Name:      "runs_total",
			Help:      "Collection runs by outcome.",
		}, []string{"outcome"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "covid_etl",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete fetch-join-derive-publish run.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		RegionsDerived: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "covid_etl",
			Name:      "regions_derived",
			Help:      "Number of regions in the last successful run.",
		}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "covid_etl",
			Name:      "messages_produced_total",
			Help:      "Total region messages written to the sink topic.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "covid_etl",
			Name:      "pipeline_running",
			Help:      "1 when the scheduler is active, 0 when shut down.",
		}),
		FeedFetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "covid_etl",
			Name:      "feed_fetch_duration_seconds",
			Help:      "Feed download duration in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"feed"}),
		FeedRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "covid_etl",
			Name:      "feed_rows",
			Help:      "Rows parsed from each feed in the last run.",
		}, []string{"feed"}),
	}
}
