// Package metrics exposes Prometheus instrumentation for storage access.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QueriesTotal counts storage queries by operation and outcome.
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecastdb_queries_total",
			Help: "Total number of storage queries",
		},
		[]string{"op", "status"},
	)
	// QueryDuration is the latency of storage queries, excluding row iteration.
	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "forecastdb_query_duration_seconds",
			Help:    "Storage query latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)
	// RowsFetched counts rows returned by page fetches.
	RowsFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecastdb_rows_fetched_total",
			Help: "Total number of rows returned by page fetches",
		},
		[]string{"loa"},
	)
)

// ObserveQuery records one query issued at start that finished with err.
func ObserveQuery(op string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	QueriesTotal.WithLabelValues(op, status).Inc()
	QueryDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
