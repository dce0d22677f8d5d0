// Package metrics provides Prometheus collectors for the HTTP surface, the
// drug search path, catalog loading and record persistence.
//
// All collectors are registered with the Prometheus default registry during
// package initialization and exposed on /metrics by the server.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search outcomes used as the "outcome" label
const (
	OutcomeHit      = "hit"
	OutcomeMiss     = "miss"
	OutcomeInvalid  = "invalid"
	OutcomeNotReady = "not_loaded"
	OutcomeError    = "error"

	// Record persistence only
	OutcomeSaved = "saved"
)

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets (IPs seen in last ~5 minutes)",
		},
	)

	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_requests_total",
			Help: "Drug searches by strategy and outcome",
		},
		[]string{"strategy", "outcome"},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "search_duration_seconds",
			Help:    "Time spent ranking a drug search",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"strategy"},
	)

	CatalogRecords = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_records",
			Help: "Drug records in the loaded catalog",
		},
	)

	CatalogSkippedRows = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "catalog_skipped_rows",
			Help: "Raw rows dropped by the last catalog build",
		},
		[]string{"reason"},
	)

	RecordPersistTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "record_persist_total",
			Help: "Visit summaries forwarded to the record store",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(CatalogRecords)
	prometheus.MustRegister(CatalogSkippedRows)
	prometheus.MustRegister(RecordPersistTotal)
}

// ObserveCatalog publishes the size and skip counts of a freshly built catalog
func ObserveCatalog(records, shortRows, emptyNames int) {
	CatalogRecords.Set(float64(records))
	CatalogSkippedRows.WithLabelValues("short_row").Set(float64(shortRows))
	CatalogSkippedRows.WithLabelValues("empty_name").Set(float64(emptyNames))
}
