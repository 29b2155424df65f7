// Package server exposes text detection, payload encoding and decoding over
// HTTP and WebSocket.
package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/MeKo-Tech/handscan/internal/scan"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	detector    scan.TextDetector
	options     scan.Options
	corsOrigin  string
	maxUploadMB int64
	timeout     time.Duration
	version     string
	rateLimiter *RateLimiter
}

// Config holds server configuration.
type Config struct {
	Host        string
	Port        int
	CORSOrigin  string
	MaxUploadMB int64
	TimeoutSec  int
	Version     string

	// Detector performs the remote text detection; Options are the
	// per-request defaults that form fields may override.
	Detector scan.TextDetector
	Options  scan.Options

	RateLimit RateLimitConfig
}

// RateLimitConfig configures per-client limits. Zero limits are disabled.
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
	RequestsPerHour   int
	MaxRequestsPerDay int
	MaxDataPerDay     int64
}

// NewServer creates a new server instance.
func NewServer(config Config) (*Server, error) {
	if config.Detector == nil {
		return nil, errors.New("server: text detector is required")
	}
	if config.MaxUploadMB <= 0 {
		config.MaxUploadMB = 20
	}
	if config.CORSOrigin == "" {
		config.CORSOrigin = "*"
	}

	s := &Server{
		detector:    config.Detector,
		options:     config.Options,
		corsOrigin:  config.CORSOrigin,
		maxUploadMB: config.MaxUploadMB,
		timeout:     time.Duration(config.TimeoutSec) * time.Second,
		version:     config.Version,
	}
	if config.RateLimit.Enabled {
		s.rateLimiter = NewRateLimiter(
			config.RateLimit.RequestsPerMinute,
			config.RateLimit.RequestsPerHour,
			config.RateLimit.MaxRequestsPerDay,
			config.RateLimit.MaxDataPerDay,
		)
	}
	return s, nil
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.instrument("/health", s.corsMiddleware(s.healthHandler)))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/ocr/image", s.instrument("/ocr/image", s.corsMiddleware(s.rateLimitMiddleware(s.ocrImageHandler))))
	mux.HandleFunc("/encode", s.instrument("/encode", s.corsMiddleware(s.rateLimitMiddleware(s.encodeHandler))))
	mux.HandleFunc("/decode", s.instrument("/decode", s.corsMiddleware(s.rateLimitMiddleware(s.decodeHandler))))
	mux.HandleFunc("/ws/ocr", s.rateLimitMiddleware(s.ocrWebSocketHandler))
}

// Handler returns a mux with every route installed.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.SetupRoutes(mux)
	return mux
}

func (s *Server) maxUploadBytes() int64 {
	return s.maxUploadMB * 1024 * 1024
}
