// Package metrics exposes Prometheus instrumentation for the ingestion
// pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the pipeline counters. A nil *Metrics is safe to use; every
// method is a no-op, which keeps tests free of registry bookkeeping.
type Metrics struct {
	uploadsTotal         *prometheus.CounterVec
	duplicatesRejected   prometheus.Counter
	parseLinesSkipped    prometheus.Counter
	categorizerFallbacks prometheus.Counter
	processingSeconds    prometheus.Histogram
}

// New registers the pipeline metrics with the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		uploadsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "statement_uploads_total",
			Help: "Statement uploads by final outcome.",
		}, []string{"outcome"}),
		duplicatesRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "statement_duplicates_rejected_total",
			Help: "Uploads rejected by the duplicate detector.",
		}),
		parseLinesSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "statement_parse_lines_skipped_total",
			Help: "Malformed statement lines skipped during parsing.",
		}),
		categorizerFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "statement_categorizer_fallbacks_total",
			Help: "Transactions categorized by amount band or catch-all.",
		}),
		processingSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "statement_processing_duration_seconds",
			Help:    "Wall time of the async parse-and-categorize step.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
	}
}

// UploadFinished records an upload outcome ("completed", "failed", "rejected").
func (m *Metrics) UploadFinished(outcome string) {
	if m == nil {
		return
	}
	m.uploadsTotal.WithLabelValues(outcome).Inc()
}

// DuplicateRejected counts a duplicate-detector rejection.
func (m *Metrics) DuplicateRejected() {
	if m == nil {
		return
	}
	m.duplicatesRejected.Inc()
}

// ParseLinesSkipped counts malformed lines dropped by the parser.
func (m *Metrics) ParseLinesSkipped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.parseLinesSkipped.Add(float64(n))
}

// CategorizerFallback counts a non-keyword categorization.
func (m *Metrics) CategorizerFallback() {
	if m == nil {
		return
	}
	m.categorizerFallbacks.Inc()
}

// ProcessingDuration records how long the async parse step took.
func (m *Metrics) ProcessingDuration(seconds float64) {
	if m == nil {
		return
	}
	m.processingSeconds.Observe(seconds)
}
