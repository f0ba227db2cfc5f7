package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "tick_tracker"

// Metrics holds the Prometheus collectors for ingestion, submissions, queries
// and geocoding.
type Metrics struct {
	// Ingestion metrics.
	IngestRecords       *prometheus.CounterVec   // labels: source={bundled,remote}, outcome={inserted,ignored,rejected}
	RemoteFetchFailures *prometheus.CounterVec   // labels: category={connectivity,other}
	IngestPhaseDuration *prometheus.HistogramVec // labels: phase={baseline,remote}
	StoredSightings     prometheus.Gauge

	Submissions   *prometheus.CounterVec   // labels: outcome={inserted,rejected}
	QueryDuration *prometheus.HistogramVec // labels: query

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram
	GeocodeEnabled     prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		IngestRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_records_total",
			Help:      "Candidate records processed during ingestion by source and outcome.",
		}, []string{"source", "outcome"}),
		RemoteFetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_fetch_failures_total",
			Help:      "Failed remote feed fetches by diagnostic category.",
		}, []string{"category"}),
		IngestPhaseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingest_phase_duration_seconds",
			Help:      "Duration of each startup ingestion phase.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}, []string{"phase"}),
		StoredSightings: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stored_sightings",
			Help:      "Sightings in the store after the last write.",
		}),
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "User-submitted reports by outcome.",
		}, []string{"outcome"}),
		QueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Aggregation query duration in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"query"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_enabled",
			Help:      "1 when the geocoder fallback is enabled, 0 otherwise.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.IngestRecords,
		m.RemoteFetchFailures,
		m.IngestPhaseDuration,
		m.StoredSightings,
		m.Submissions,
		m.QueryDuration,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
	}
}
