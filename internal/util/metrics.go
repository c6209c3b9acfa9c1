package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pos_orders_created_total",
		Help: "Total number of orders created",
	})

	OrderLinesAddedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pos_order_lines_added_total",
		Help: "Total number of lines added to orders",
	})

	OrdersHeldTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pos_orders_held_total",
		Help: "Total number of orders placed on hold",
	})

	OrdersDiscardedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pos_orders_discarded_total",
		Help: "Total number of orders discarded",
	})

	OrdersCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pos_orders_completed_total",
		Help: "Total number of orders completed",
	})

	DiscountsAppliedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pos_discounts_applied_total",
		Help: "Total number of discounts applied",
	})

	PaymentAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_payment_attempts_total",
		Help: "Total number of payment attempts",
	}, []string{"mode"})

	PaymentCapturedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_payment_captured_total",
		Help: "Total number of successful payment captures",
	}, []string{"mode"})

	PaymentFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_payment_failed_total",
		Help: "Total number of rejected payment attempts",
	}, []string{"reason"})

	GatewayRequestLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pos_gateway_request_latency_seconds",
		Help:    "Latency of payment gateway round-trips",
		Buckets: prometheus.DefBuckets,
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
