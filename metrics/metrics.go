// Package metrics holds the Prometheus collectors shared by the enrichment
// stages. All methods are safe to call on a nil *Metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for a run.
type Metrics struct {
	Registry           *prometheus.Registry
	APICallsTotal      *prometheus.CounterVec
	APICallDuration    prometheus.Histogram
	ScrapeRequests     *prometheus.CounterVec
	ScrapeDuration     prometheus.Histogram
	ScrapeRetriesTotal prometheus.Counter
	ErrorsTotal        *prometheus.CounterVec
	RowsTotal          *prometheus.CounterVec
	UnparsedMessages   prometheus.Counter
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	apiCalls := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrich_api_calls_total",
			Help: "Signed product API calls by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)
	apiDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "enrich_api_call_duration_seconds",
			Help:    "Latency of signed product API calls.",
			Buckets: prometheus.DefBuckets,
		},
	)
	scrapeRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrich_scrape_requests_total",
			Help: "Product page fetches issued by the scraper.",
		},
		[]string{"phase"},
	)
	scrapeDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "enrich_scrape_duration_seconds",
			Help:    "Latency of product page fetches.",
			Buckets: prometheus.DefBuckets,
		},
	)
	retries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "enrich_scrape_retries_total",
			Help: "Total number of page fetch retries.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrich_errors_total",
			Help: "Errors by type.",
		},
		[]string{"error_type"},
	)
	rows := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrich_rows_total",
			Help: "Input rows processed by status.",
		},
		[]string{"status"},
	)
	unparsed := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "enrich_unparsed_error_messages_total",
			Help: "Remote error messages that did not match their expected pattern.",
		},
	)

	registry.MustRegister(apiCalls, apiDuration, scrapeRequests, scrapeDuration, retries, errorsTotal, rows, unparsed)

	return &Metrics{
		Registry:           registry,
		APICallsTotal:      apiCalls,
		APICallDuration:    apiDuration,
		ScrapeRequests:     scrapeRequests,
		ScrapeDuration:     scrapeDuration,
		ScrapeRetriesTotal: retries,
		ErrorsTotal:        errorsTotal,
		RowsTotal:          rows,
		UnparsedMessages:   unparsed,
	}
}

// IncAPICall counts a signed API call.
func (m *Metrics) IncAPICall(operation, outcome string) {
	if m == nil {
		return
	}
	m.APICallsTotal.WithLabelValues(operation, outcome).Inc()
}

// ObserveAPICall records an API call duration.
func (m *Metrics) ObserveAPICall(d time.Duration) {
	if m == nil {
		return
	}
	m.APICallDuration.Observe(d.Seconds())
}

// IncScrapeRequest increments the page fetch counter.
func (m *Metrics) IncScrapeRequest(phase string) {
	if m == nil {
		return
	}
	m.ScrapeRequests.WithLabelValues(phase).Inc()
}

// ObserveScrape records a page fetch duration.
func (m *Metrics) ObserveScrape(d time.Duration) {
	if m == nil {
		return
	}
	m.ScrapeDuration.Observe(d.Seconds())
}

// IncRetries increments the retries counter.
func (m *Metrics) IncRetries() {
	if m == nil {
		return
	}
	m.ScrapeRetriesTotal.Inc()
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

// IncRow counts a finished input row.
func (m *Metrics) IncRow(status string) {
	if m == nil {
		return
	}
	m.RowsTotal.WithLabelValues(status).Inc()
}

// IncUnparsedMessage counts a remote error message that failed pattern
// extraction.
func (m *Metrics) IncUnparsedMessage() {
	if m == nil {
		return
	}
	m.UnparsedMessages.Inc()
}

// Totals sums every counter series in the registry by metric name.
func (m *Metrics) Totals() map[string]float64 {
	if m == nil {
		return nil
	}
	families, err := m.Registry.Gather()
	if err != nil {
		return nil
	}
	out := make(map[string]float64, len(families))
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			if c := metric.GetCounter(); c != nil {
				out[mf.GetName()] += c.GetValue()
			}
		}
	}
	return out
}
