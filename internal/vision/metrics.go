package vision

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "handscan_vision_requests_total",
			Help: "Total number of images:annotate calls",
		},
		[]string{"outcome"}, // success, remote_error, malformed, cancelled, transport_error
	)

	requestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "handscan_vision_request_duration_seconds",
			Help:    "images:annotate round trip duration in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)

	requestBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "handscan_vision_request_bytes",
			Help:    "Size of annotate request bodies in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
		},
	)

	textResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "handscan_vision_text_results_total",
			Help: "Text detection results by whether any text was found",
		},
		[]string{"result"}, // text, none
	)
)

func outcomeOf(err error) string {
	var rerr *RemoteError
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &rerr):
		return "remote_error"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "transport_error"
	}
}

func observeRequest(outcome string, d time.Duration) {
	requestsTotal.WithLabelValues(outcome).Inc()
	requestDuration.Observe(d.Seconds())
}
