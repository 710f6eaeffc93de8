package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	APIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chatline_api_requests_total",
		Help: "Authenticated API requests by method, path and status code.",
	}, []string{"method", "path", "status"})

	RateLimitRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatline_rate_limit_rejections_total",
		Help: "Requests rejected with 429.",
	})

	WebhookDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chatline_webhook_deliveries_total",
		Help: "Webhook delivery attempts by outcome.",
	}, []string{"outcome"})

	WebhookDeliveryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "chatline_webhook_delivery_seconds",
		Help:    "Webhook delivery latency.",
		Buckets: prometheus.DefBuckets,
	})

	BroadcastSends = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chatline_broadcast_sends_total",
		Help: "Campaign recipient sends by outcome.",
	}, []string{"outcome"})
)
