package server

import "github.com/MeKo-Tech/handscan/internal/scan"

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time"`
}

// OCRResponse is returned by POST /ocr/image.
type OCRResponse struct {
	Success bool         `json:"success"`
	Result  *scan.Result `json:"result,omitempty"`
	Message string       `json:"message,omitempty"`
	Error   string       `json:"error,omitempty"`
}

// EncodeResponse is returned by POST /encode. Quality and Attempts are zero
// when the upload was encoded unchanged.
type EncodeResponse struct {
	Payload     string `json:"payload"`
	Quality     int    `json:"quality,omitempty"`
	Attempts    int    `json:"attempts,omitempty"`
	EstimatedKB int    `json:"estimated_kb"`
}

// DecodeRequest is the body of POST /decode.
type DecodeRequest struct {
	Payload string `json:"payload"`
}

// ErrorResponse is the body of every non-OCR error.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
