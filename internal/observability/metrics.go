package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the citation service.
// Metrics are organized by subsystem: citations, catalog lookups, sources,
// and submissions. All counters and histograms are registered via promauto
// for automatic registration with the default Prometheus registry.
type Metrics struct {
	// CitationsGenerated counts citations rendered successfully, labeled by style.
	CitationsGenerated *prometheus.CounterVec

	// CitationFailures counts citation requests that ended in failure, labeled by style.
	CitationFailures *prometheus.CounterVec

	// CitationDuration observes end-to-end citation resolution duration in seconds.
	CitationDuration prometheus.Histogram

	// GroupCitationSize observes the number of citations per group resolution.
	GroupCitationSize prometheus.Histogram

	// LookupRequests counts catalog lookup attempts, labeled by catalog.
	LookupRequests *prometheus.CounterVec

	// LookupMisses counts lookups where the catalog had no record, labeled by catalog.
	LookupMisses *prometheus.CounterVec

	// LookupErrors counts lookups that failed with a transport or API error, labeled by catalog.
	LookupErrors *prometheus.CounterVec

	// LookupDuration observes catalog lookup duration in seconds, labeled by catalog.
	LookupDuration *prometheus.HistogramVec

	// SourcesCreated counts bibliographic sources stored, labeled by media type.
	SourcesCreated *prometheus.CounterVec

	// SourcesDeduplicated counts ingestion requests resolved to an existing source.
	SourcesDeduplicated prometheus.Counter

	// SubmissionsCreated counts submissions created.
	SubmissionsCreated prometheus.Counter

	// CitationsAttached counts citations attached to submissions.
	CitationsAttached prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		// Citations
		CitationsGenerated: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "citations_generated_total",
			Help:      "Total number of citations rendered successfully by style",
		}, []string{"style"}),
		CitationFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "citation_failures_total",
			Help:      "Total number of citation requests that failed by style",
		}, []string{"style"}),
		CitationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "citation_duration_seconds",
			Help:      "Duration of citation resolution in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		}),
		GroupCitationSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "group_citation_size",
			Help:      "Number of citations per group resolution",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100},
		}),

		// Catalog lookups
		LookupRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookup_requests_total",
			Help:      "Total number of catalog lookup attempts by catalog",
		}, []string{"catalog"}),
		LookupMisses: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookup_misses_total",
			Help:      "Total number of catalog lookups with no matching record by catalog",
		}, []string{"catalog"}),
		LookupErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookup_errors_total",
			Help:      "Total number of catalog lookups that failed by catalog",
		}, []string{"catalog"}),
		LookupDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lookup_duration_seconds",
			Help:      "Duration of catalog lookups in seconds by catalog",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"catalog"}),

		// Sources
		SourcesCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sources_created_total",
			Help:      "Total number of bibliographic sources stored by media type",
		}, []string{"media_type"}),
		SourcesDeduplicated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sources_deduplicated_total",
			Help:      "Total number of ingestion requests resolved to an existing source",
		}),

		// Submissions
		SubmissionsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_created_total",
			Help:      "Total number of submissions created",
		}),
		CitationsAttached: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "citations_attached_total",
			Help:      "Total number of citations attached to submissions",
		}),
	}
}
