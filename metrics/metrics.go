package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "think41"

var (
	// HTTP request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// HTTP request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	// Chat turns by outcome: ok, apology, error
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "turns_total",
			Help:      "Total chat turns by outcome",
		},
		[]string{"outcome"},
	)

	// New conversations, by reason: requested (no id) or fallback (id not usable)
	ConversationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "conversations_created_total",
			Help:      "Conversations created by chat turns",
		},
		[]string{"reason"},
	)

	// Completion call duration
	CompletionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "completion_duration_seconds",
			Help:      "Completion call duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
	)

	// Completion failures by kind
	CompletionFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "completion_failures_total",
			Help:      "Failed completion calls by error kind",
		},
		[]string{"kind"},
	)

	// Tokens reported by the provider
	TokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "tokens_total",
			Help:      "Total tokens reported by the completion service",
		},
		[]string{"model"},
	)

	// Rows written by the catalog importer
	ImportedRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "imported_rows_total",
			Help:      "Catalog rows written by imports",
		},
		[]string{"table"},
	)
)

// Handler returns the Prometheus metrics handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordRequest records an HTTP request
func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(durationSec)
}

// RecordTurn records the outcome of a chat turn
func RecordTurn(outcome string) {
	TurnsTotal.WithLabelValues(outcome).Inc()
}

// RecordConversationCreated records a conversation created by a turn
func RecordConversationCreated(reason string) {
	ConversationsCreated.WithLabelValues(reason).Inc()
}

// RecordCompletion records a successful completion call
func RecordCompletion(model string, tokens int, durationSec float64) {
	CompletionDuration.Observe(durationSec)
	if tokens > 0 {
		TokensTotal.WithLabelValues(model).Add(float64(tokens))
	}
}

// RecordCompletionFailure records a failed completion call
func RecordCompletionFailure(kind string, durationSec float64) {
	CompletionDuration.Observe(durationSec)
	CompletionFailures.WithLabelValues(kind).Inc()
}

// RecordImport records rows written to a catalog table
func RecordImport(table string, rows int) {
	ImportedRowsTotal.WithLabelValues(table).Add(float64(rows))
}
