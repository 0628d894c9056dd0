package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	translationRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tabletalk_translation_requests_total",
			Help: "Total number of translation attempts by outcome kind.",
		},
		[]string{"outcome"},
	)
	translationDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tabletalk_translation_duration_seconds",
			Help:    "Translation round-trip latency including the completion call.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
		},
	)
	ingestRequestsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tabletalk_ingest_requests_total",
			Help: "Total number of dataset ingestion requests.",
		},
	)
	ingestRowsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tabletalk_ingest_rows_total",
			Help: "Total number of rows loaded from uploaded files.",
		},
	)
	queryExecutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tabletalk_query_executions_total",
			Help: "Total number of generated queries executed by outcome.",
		},
		[]string{"outcome"},
	)
	chartSuggestionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tabletalk_chart_suggestions_total",
			Help: "Total number of chart suggestion calls by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		translationRequestsTotal,
		translationDurationSeconds,
		ingestRequestsTotal,
		ingestRowsTotal,
		queryExecutionsTotal,
		chartSuggestionsTotal,
	)
}

func ObserveTranslation(outcome string, elapsed time.Duration) {
	translationRequestsTotal.WithLabelValues(outcome).Inc()
	translationDurationSeconds.Observe(elapsed.Seconds())
}

func ObserveIngest(rows int64) {
	ingestRequestsTotal.Inc()
	if rows > 0 {
		ingestRowsTotal.Add(float64(rows))
	}
}

func ObserveQueryExecution(outcome string) {
	queryExecutionsTotal.WithLabelValues(outcome).Inc()
}

func ObserveChartSuggestion(outcome string) {
	chartSuggestionsTotal.WithLabelValues(outcome).Inc()
}
