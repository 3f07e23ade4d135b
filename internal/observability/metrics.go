package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "museum_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "code", "method"},
	)

	PurchasesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "museum_purchases_total",
			Help: "Total number of purchase operations by outcome",
		},
		[]string{"outcome"},
	)

	StockReservationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "museum_stock_reservation_failures_total",
			Help: "Total stock reservations rejected for insufficient stock",
		},
	)

	StoreOpDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "museum_store_op_seconds",
			Help:    "Duration of document store operations",
			Buckets: prometheus.DefBuckets,
		},
	)

	OutboxLag = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "museum_outbox_lag_seconds",
			Help: "Age of the oldest unpublished outbox event",
		},
	)

	RateLimitExceeded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "museum_rate_limit_exceeded_total",
			Help: "Total requests rejected by the rate limiter",
		},
	)
)
