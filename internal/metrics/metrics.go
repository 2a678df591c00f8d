// Package metrics provides Prometheus metrics for the API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "agency"

var (
	// HTTPRequestsTotal counts handled requests by route and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration measures request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// WebhookEventsTotal counts processor webhook events by type and outcome.
	WebhookEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_total",
			Help:      "Total number of payment webhook events",
		},
		[]string{"event_type", "outcome"},
	)

	// EmailsTotal counts email deliveries by template and status.
	EmailsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_total",
			Help:      "Total number of email delivery attempts",
		},
		[]string{"email_type", "status"},
	)

	// UploadsTotal counts media uploads by folder and outcome.
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Total number of media uploads",
		},
		[]string{"folder", "outcome"},
	)

	// UploadBytes observes uploaded file sizes.
	UploadBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_bytes",
			Help:      "Distribution of uploaded file sizes",
			Buckets:   prometheus.ExponentialBuckets(16*1024, 4, 8),
		},
	)

	// RateLimitedTotal counts requests rejected by the upload limiter.
	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Total number of rate limited requests",
		},
	)
)

// Webhook outcomes
const (
	OutcomeApplied   = "applied"
	OutcomeDuplicate = "duplicate"
	OutcomeIgnored   = "ignored"
	OutcomeFailed    = "failed"
	OutcomeRejected  = "rejected"
)

// RecordRequest records a handled HTTP request.
func RecordRequest(method, route, status string, seconds float64) {
	HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(seconds)
}

// RecordWebhook records a webhook event outcome.
func RecordWebhook(eventType, outcome string) {
	WebhookEventsTotal.WithLabelValues(eventType, outcome).Inc()
}

// RecordEmail records an email delivery attempt.
func RecordEmail(emailType, status string) {
	EmailsTotal.WithLabelValues(emailType, status).Inc()
}

// RecordUpload records a media upload.
func RecordUpload(folder, outcome string, size int64) {
	UploadsTotal.WithLabelValues(folder, outcome).Inc()
	if outcome == "ok" {
		UploadBytes.Observe(float64(size))
	}
}
