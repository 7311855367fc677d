package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SearchesTotal    = promauto.NewCounter(prometheus.CounterOpts{Namespace: "connectfood", Name: "searches_total", Help: "Total nearby-listing searches"})
	MatchRunsTotal   = promauto.NewCounter(prometheus.CounterOpts{Namespace: "connectfood", Name: "match_runs_total", Help: "Total matcher invocations"})
	MatchesPersisted = promauto.NewCounter(prometheus.CounterOpts{Namespace: "connectfood", Name: "matches_persisted_total", Help: "Total match records written"})
	ListingsCreated  = promauto.NewCounter(prometheus.CounterOpts{Namespace: "connectfood", Name: "listings_created_total", Help: "Total listings created"})
	FreshnessFeeds   = promauto.NewGauge(prometheus.GaugeOpts{Namespace: "connectfood", Name: "freshness_feeds_active", Help: "Open freshness websocket sessions"})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "connectfood", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "connectfood",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
