package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "printshop_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "printshop_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	ordersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "printshop_orders_total",
		Help: "Order submissions by outcome",
	}, []string{"result"})

	pageCounts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "printshop_page_count_total",
		Help: "Reconciled page counts by winning source and whether both sources agreed",
	}, []string{"source", "agreement"})

	analysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "printshop_analysis_duration_seconds",
		Help:    "Duration of external document analysis calls",
		Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 20, 30},
	}, []string{"result"})
)

// ObserveHTTPRequest records an HTTP request metric. path should be the
// route pattern, not the raw URL, to keep label cardinality bounded.
func ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	s := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, path, s).Inc()
	httpRequestDuration.WithLabelValues(method, path, s).Observe(duration.Seconds())
}

// ObserveOrder counts an order submission outcome: created, invalid,
// page_count_failed, persistence_failed.
func ObserveOrder(result string) {
	ordersTotal.WithLabelValues(result).Inc()
}

// ObservePageCount records which source won reconciliation.
func ObservePageCount(source string, agreement bool) {
	pageCounts.WithLabelValues(source, strconv.FormatBool(agreement)).Inc()
}

// ObserveAnalysis records one external analysis call.
func ObserveAnalysis(result string, duration time.Duration) {
	analysisDuration.WithLabelValues(result).Observe(duration.Seconds())
}
