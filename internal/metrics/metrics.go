package metrics

import (
	"good-morning-backend/internal/apperr"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	PairingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goodmorning_pairings_total",
			Help: "Pairing attempts by result code.",
		},
		[]string{"result"},
	)

	NoticesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goodmorning_notices_total",
			Help: "Notice create and edit attempts by operation and result code.",
		},
		[]string{"operation", "result"},
	)

	UploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goodmorning_uploads_total",
			Help: "Image uploads by result code.",
		},
		[]string{"result"},
	)

	PushDispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goodmorning_push_dispatch_total",
			Help: "Push notification dispatch outcomes by platform.",
		},
		[]string{"platform", "outcome"},
	)
)

// MustRegister registers every collector with the default registry
func MustRegister() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDurationSeconds,
		PairingsTotal,
		NoticesTotal,
		UploadsTotal,
		PushDispatchTotal,
	)
}

// Result returns the label for an operation outcome: "ok" for nil, the
// classified error code, or "error" for unclassified failures
func Result(err error) string {
	if err == nil {
		return "ok"
	}
	if appErr, ok := apperr.As(err); ok {
		return appErr.Code
	}
	return "error"
}
