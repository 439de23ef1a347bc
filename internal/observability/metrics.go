package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "clustermap"

// Metrics holds the Prometheus counters, histograms, and gauges for dataset
// loading and icon rendering.
type Metrics struct {
	// Load metrics.
	LoadsTotal     *prometheus.CounterVec // labels: outcome={success,error,superseded}
	LoadDuration   prometheus.Histogram
	RecordsRead    prometheus.Counter
	RecordsSkipped *prometheus.CounterVec // labels: reason={various,integrity}
	Features       prometheus.Gauge
	Categories     prometheus.Gauge
	DatasetVersion prometheus.Gauge

	// Render metrics.
	IconsRendered  *prometheus.CounterVec // labels: kind={cluster,marker}
	ClusterMembers prometheus.Histogram
	UnknownMembers prometheus.Counter

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram

	// Sink metrics.
	FeaturesPublished prometheus.Counter
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.LoadsTotal,
		m.LoadDuration,
		m.RecordsRead,
		m.RecordsSkipped,
		m.Features,
		m.Categories,
		m.DatasetVersion,
		m.IconsRendered,
		m.ClusterMembers,
		m.UnknownMembers,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.FeaturesPublished,
	)

	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		LoadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loads_total",
			Help:      "Dataset loads by outcome.",
		}, []string{"outcome"}),
		LoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "load_duration_seconds",
			Help:      "Duration of a complete dataset load.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		RecordsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_read_total",
			Help:      "Records read from the record source.",
		}),
		RecordsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_skipped_total",
			Help:      "Records left out of the feature collection by reason.",
		}, []string{"reason"}),
		Features: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "features",
			Help:      "Features in the current dataset.",
		}),
		Categories: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "known_categories",
			Help:      "Distinct styling categories in the current dataset.",
		}),
		DatasetVersion: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_version",
			Help:      "Version of the dataset currently served.",
		}),
		IconsRendered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "icons_rendered_total",
			Help:      "Icons rendered by kind.",
		}, []string{"kind"}),
		ClusterMembers: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cluster_members",
			Help:      "Members per rendered cluster icon.",
			Buckets:   []float64{2, 5, 10, 50, 100, 500, 1000, 5000},
		}),
		UnknownMembers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unknown_members_total",
			Help:      "Cluster member IDs not found in the dataset.",
		}),
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
		FeaturesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "features_published_total",
			Help:      "Features written to the sink topic.",
		}),
	}
}
