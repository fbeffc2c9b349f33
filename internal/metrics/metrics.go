package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProxyRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airguard_proxy_requests_total",
			Help: "Total /air proxy requests by response status",
		},
		[]string{"status"},
	)

	UpstreamLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "airguard_upstream_latency_seconds",
			Help:    "OpenAQ API call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"caller"},
	)

	AggregationRuns = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "airguard_aggregation_runs_total",
			Help: "Total aggregation engine runs",
		},
	)

	ReadingsImported = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airguard_readings_imported_total",
			Help: "Total readings imported into the dataset",
		},
		[]string{"source"},
	)

	RecommendationOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airguard_recommendation_operations_total",
			Help: "Recommendation create/update/delete operations",
		},
		[]string{"op"},
	)

	PayloadsArchived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airguard_poll_payloads_total",
			Help: "Upstream payloads fetched by the poller, by outcome",
		},
		[]string{"location", "outcome"},
	)
)
