package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "handscan_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "handscan_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Analysis metrics
	ocrRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "handscan_ocr_requests_total",
			Help: "Total number of analysis requests",
		},
		[]string{"type", "status"}, // type: image, websocket_image; status: success, no_text, error
	)

	ocrProcessingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "handscan_ocr_processing_duration_seconds",
			Help:    "Analysis duration in seconds, encode and remote call included",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 25, 50},
		},
		[]string{"type"},
	)

	ocrTextLength = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "handscan_ocr_text_length",
			Help:    "Length of detected text",
			Buckets: []float64{0, 10, 50, 100, 500, 1000, 5000, 10000},
		},
		[]string{"type"},
	)

	// Rate limiting metrics
	rateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "handscan_rate_limit_hits_total",
			Help: "Total number of rate limit hits",
		},
		[]string{"type"}, // minute, hour, requests, data
	)

	uploadSizeBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "handscan_upload_size_bytes",
			Help:    "Size of uploaded photos in bytes",
			Buckets: []float64{1024, 10 * 1024, 100 * 1024, 1024 * 1024, 5 * 1024 * 1024, 20 * 1024 * 1024},
		},
	)

	// WebSocket metrics
	websocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "handscan_websocket_active_connections",
			Help: "Number of active WebSocket connections",
		},
	)

	websocketMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "handscan_websocket_messages_total",
			Help: "Total number of WebSocket messages",
		},
		[]string{"direction"}, // sent, received
	)
)

// observeAnalysis records the outcome of one analysis.
func observeAnalysis(kind, status string, seconds float64, textLen int) {
	ocrRequestsTotal.WithLabelValues(kind, status).Inc()
	if status != "error" {
		ocrProcessingDuration.WithLabelValues(kind).Observe(seconds)
		ocrTextLength.WithLabelValues(kind).Observe(float64(textLen))
	}
}
