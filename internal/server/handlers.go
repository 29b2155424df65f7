package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/MeKo-Tech/handscan/internal/encoder"
	"github.com/MeKo-Tech/handscan/internal/scan"
	"github.com/MeKo-Tech/handscan/internal/vision"
)

const (
	formatJSON = "json"
	formatText = "text"
)

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: s.version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	})
}

// ocrImageHandler analyzes an uploaded photo.
func (s *Server) ocrImageHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data, name, ok := s.readUpload(w, r)
	if !ok {
		ocrRequestsTotal.WithLabelValues("image", "error").Inc()
		return
	}
	if len(data) == 0 {
		s.writeErrorResponse(w, "No image data provided", http.StatusBadRequest)
		ocrRequestsTotal.WithLabelValues("image", "error").Inc()
		return
	}

	format := strings.ToLower(r.FormValue("format"))
	if format == "" {
		format = formatJSON
	}
	if format != formatJSON && format != formatText {
		s.writeErrorResponse(w, "Unsupported format: "+format, http.StatusBadRequest)
		return
	}

	opts, err := s.requestOptions(r.FormValue("max_kb"), r.FormValue("feature"), r.FormValue("language"))
	if err != nil {
		s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := s.requestContext(r.Context())
	defer cancel()

	start := time.Now()
	res, err := s.analyze(ctx, opts, name, data)
	duration := time.Since(start)

	if err != nil {
		observeAnalysis("image", "error", 0, 0)
		slog.Warn("analysis failed", "file", name, "error", err)
		s.writeAnalysisError(w, format, err)
		return
	}

	status := "success"
	if res.NoText {
		status = "no_text"
	}
	observeAnalysis("image", status, duration.Seconds(), len(res.Text))

	if format == formatText {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, res.DisplayText()+"\n")
		return
	}

	response := OCRResponse{Success: true, Result: res}
	if res.NoText {
		response.Message = scan.NoTextMessage
	}
	writeJSON(w, http.StatusOK, response)
}

// encodeHandler returns the payload for an uploaded photo.
func (s *Server) encodeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data, _, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	maxKB, err := parseMaxKB(r.FormValue("max_kb"))
	if err != nil {
		s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	if maxKB == 0 {
		payload := encoder.Encode(data)
		writeJSON(w, http.StatusOK, EncodeResponse{Payload: payload, EstimatedKB: encoder.EstimateKB(len(payload))})
		return
	}

	img, err := encoder.DecodeImageBytes(data, s.options.AutoOrient)
	if err != nil {
		s.writeErrorResponse(w, scan.UserMessage(err), http.StatusBadRequest)
		return
	}
	c, err := encoder.CompressAndEncode(encoder.Downscale(img, s.options.MaxDimension), maxKB)
	if err != nil {
		s.writeErrorResponse(w, scan.UserMessage(err), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, EncodeResponse{
		Payload:     c.Payload,
		Quality:     c.Quality,
		Attempts:    c.Attempts,
		EstimatedKB: c.EstimatedKB,
	})
}

// decodeHandler turns a payload back into bytes.
func (s *Server) decodeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes()*4/3+1024)
	var req DecodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.writeErrorResponse(w, "Payload too large", http.StatusRequestEntityTooLarge)
			return
		}
		s.writeErrorResponse(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	data, err := encoder.Decode(req.Payload)
	if err != nil {
		s.writeErrorResponse(w, scan.UserMessage(err), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// readUpload reads the multipart "image" field, writing the error response
// itself when it returns false.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, bool) {
	limit := s.maxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(limit); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large") {
			s.writeErrorResponse(w, "File too large", http.StatusRequestEntityTooLarge)
		} else {
			s.writeErrorResponse(w, "Failed to parse form data", http.StatusBadRequest)
		}
		return nil, "", false
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		s.writeErrorResponse(w, "No image file provided", http.StatusBadRequest)
		return nil, "", false
	}
	defer func() { _ = file.Close() }()

	if header.Size > limit {
		s.writeErrorResponse(w, "File too large", http.StatusRequestEntityTooLarge)
		return nil, "", false
	}
	uploadSizeBytes.Observe(float64(header.Size))

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeErrorResponse(w, "Failed to read image data", http.StatusInternalServerError)
		return nil, "", false
	}
	return data, header.Filename, true
}

// requestOptions applies per-request overrides to the server defaults.
func (s *Server) requestOptions(maxKB, feature, language string) (scan.Options, error) {
	opts := s.options

	if maxKB != "" {
		kb, err := parseMaxKB(maxKB)
		if err != nil {
			return opts, err
		}
		opts.MaxSizeKB = kb
	}

	switch strings.ToUpper(feature) {
	case "":
	case vision.FeatureDocumentText, vision.FeatureText:
		opts.Feature = strings.ToUpper(feature)
	default:
		return opts, fmt.Errorf("unsupported feature: %s", feature)
	}

	if language != "" {
		opts.LanguageHints = nil
		for _, l := range strings.Split(language, ",") {
			if l = strings.TrimSpace(l); l != "" {
				opts.LanguageHints = append(opts.LanguageHints, l)
			}
		}
	}
	return opts, nil
}

func parseMaxKB(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	kb, err := strconv.Atoi(v)
	if err != nil || kb < 0 {
		return 0, fmt.Errorf("invalid max_kb: %q", v)
	}
	return kb, nil
}

func (s *Server) analyze(ctx context.Context, opts scan.Options, name string, data []byte) (*scan.Result, error) {
	analyzer, err := scan.NewAnalyzer(s.detector, opts)
	if err != nil {
		return nil, err
	}
	return analyzer.AnalyzeBytes(ctx, name, data)
}

func (s *Server) requestContext(parent context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, s.timeout)
}

// statusForError maps an analysis failure to an HTTP status.
func statusForError(err error) int {
	var (
		remoteErr *vision.RemoteError
		encErr    *encoder.EncodeError
		decErr    *encoder.DecodeError
	)
	switch {
	case errors.As(err, &remoteErr):
		return http.StatusBadGateway
	case errors.As(err, &encErr), errors.As(err, &decErr):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeAnalysisError(w http.ResponseWriter, format string, err error) {
	status := statusForError(err)
	msg := scan.UserMessage(err)
	if format == formatText {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, msg+"\n")
		return
	}
	writeJSON(w, status, OCRResponse{Success: false, Error: msg})
}

// writeErrorResponse writes a JSON error response.
func (s *Server) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{Success: false, Error: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error writing response", "error", err)
	}
}
