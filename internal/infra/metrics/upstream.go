package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		upstreamRequestsTotal,
		upstreamRequestDuration,
		upstreamRetriesTotal,
	)
}

var (
	// service: license|payment; result: ok|rejected|unavailable|not_found
	upstreamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Calls to the license and commerce providers by operation and result.",
		},
		[]string{"service", "op", "result"},
	)

	upstreamRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_request_duration_seconds",
			Help:    "Latency of provider calls including retries.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
		},
		[]string{"service", "op"},
	)

	upstreamRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_retries_total",
			Help: "Retried provider calls.",
		},
		[]string{"service"},
	)
)

func ObserveUpstream(service, op, res string, started time.Time) {
	upstreamRequestsTotal.WithLabelValues(norm(service), norm(op), norm(res)).Inc()
	upstreamRequestDuration.WithLabelValues(norm(service), norm(op)).Observe(time.Since(started).Seconds())
}

func IncUpstreamRetry(service string) {
	upstreamRetriesTotal.WithLabelValues(norm(service)).Inc()
}
