package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "tripshare", Name: "events_published_total", Help: "Trip topic events published, by type"},
		[]string{"type"},
	)
	ETARequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "tripshare", Name: "eta_requests_total", Help: "ETA computations, by result (ok or fallback)"},
		[]string{"result"},
	)
	TripSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{Namespace: "tripshare", Name: "trip_subscribers", Help: "Currently connected trip topic subscribers"},
	)
	LocationUpdatesTotal = promauto.NewCounter(
		prometheus.CounterOpts{Namespace: "tripshare", Name: "location_updates_total", Help: "Driver location samples accepted"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "tripshare", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tripshare",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
