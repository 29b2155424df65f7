package server

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/MeKo-Tech/handscan/internal/scan"
	"github.com/MeKo-Tech/handscan/internal/vision"
	"github.com/stretchr/testify/require"
)

type fakeDetector struct {
	mu       sync.Mutex
	payloads []string
	opts     []vision.DetectOptions
	result   *vision.TextResult
	err      error
}

func (f *fakeDetector) DetectText(ctx context.Context, payload string, opts vision.DetectOptions) (*vision.TextResult, error) {
	f.mu.Lock()
	f.payloads = append(f.payloads, payload)
	f.opts = append(f.opts, opts)
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.result, f.err
}

func (f *fakeDetector) lastOpts(t *testing.T) vision.DetectOptions {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.opts)
	return f.opts[len(f.opts)-1]
}

func textDetector(text string) *fakeDetector {
	return &fakeDetector{result: &vision.TextResult{Text: text, Locale: "en", Words: 2}}
}

// rawOptions sends uploads unchanged so tests can post arbitrary bytes.
func rawOptions() scan.Options {
	opts := scan.DefaultOptions()
	opts.MaxSizeKB = 0
	return opts
}

func newTestServer(t *testing.T, det scan.TextDetector) *Server {
	t.Helper()
	s, err := NewServer(Config{Detector: det, Options: rawOptions(), TimeoutSec: 5, Version: "test"})
	require.NoError(t, err)
	return s
}

func multipartRequest(t *testing.T, path string, data []byte, fields map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if data != nil {
		fw, err := mw.CreateFormFile("image", "photo.jpg")
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}
