// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Request outcomes recorded by the Scopus client.
const (
	OutcomeOK             = "ok"
	OutcomeQueryError     = "query_error"
	OutcomeParseFailure   = "parse_failure"
	OutcomeQuotaExhausted = "quota_exhausted"
	OutcomeTransportError = "transport_error"
)

// Metrics holds the counters and gauges for one CLI run. Every metric lives
// in a private registry so a run can be dumped to a textfile for the node
// exporter without a scrape endpoint.
//
// All methods are safe on a nil *Metrics, which is how library callers
// opt out.
type Metrics struct {
	Registry *prometheus.Registry

	// Requests counts Scopus search calls by outcome.
	Requests *prometheus.CounterVec

	// RequestDuration observes the latency of each search call.
	RequestDuration prometheus.Histogram

	// QuotaRemaining is the last X-RateLimit-Remaining value seen.
	QuotaRemaining prometheus.Gauge

	// RecordsParsed counts entries converted into records.
	RecordsParsed prometheus.Counter

	// Lookups counts single-citation lookups by the stage that matched
	// (or "not_found").
	Lookups *prometheus.CounterVec

	// CitedBy counts cited-by targets by status (hit, miss or unprocessed).
	CitedBy *prometheus.CounterVec

	// Filtered counts rows dropped by the classifier, by reason.
	Filtered *prometheus.CounterVec
}

// NewMetrics creates a Metrics instance registered on a fresh registry.
func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scopus_requests_total",
			Help:      "Total number of Scopus search requests by outcome",
		}, []string{"outcome"}),
		RequestDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scopus_request_duration_seconds",
			Help:      "Duration of Scopus search requests in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}),
		QuotaRemaining: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scopus_quota_remaining",
			Help:      "Remaining weekly Scopus quota reported by the last response",
		}),
		RecordsParsed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_parsed_total",
			Help:      "Total number of search entries parsed into records",
		}),
		Lookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_total",
			Help:      "Single-citation lookups by matching stage",
		}, []string{"stage"}),
		CitedBy: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cited_by_targets_total",
			Help:      "Cited-by targets by status",
		}, []string{"status"}),
		Filtered: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifier_dropped_total",
			Help:      "Rows dropped during cleaning by reason",
		}, []string{"reason"}),
	}
}

// ObserveRequest records one search call. A negative quota means the header
// was missing and leaves the gauge untouched.
func (m *Metrics) ObserveRequest(outcome string, took time.Duration, quota int) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(outcome).Inc()
	m.RequestDuration.Observe(took.Seconds())
	if quota >= 0 {
		m.QuotaRemaining.Set(float64(quota))
	}
}

// AddParsed adds n parsed records.
func (m *Metrics) AddParsed(n int) {
	if m == nil {
		return
	}
	m.RecordsParsed.Add(float64(n))
}

// IncLookup records a single-citation lookup outcome.
func (m *Metrics) IncLookup(stage string) {
	if m == nil {
		return
	}
	m.Lookups.WithLabelValues(stage).Inc()
}

// AddCitedBy records n cited-by targets with the given status.
func (m *Metrics) AddCitedBy(status string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.CitedBy.WithLabelValues(status).Add(float64(n))
}

// AddFiltered records n rows dropped for reason.
func (m *Metrics) AddFiltered(reason string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.Filtered.WithLabelValues(reason).Add(float64(n))
}

// WriteTextfile dumps the registry in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
