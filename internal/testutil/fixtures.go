package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// AnnotateResponseJSON returns an images:annotate response body carrying text
// in both fullTextAnnotation and the first textAnnotation.
func AnnotateResponseJSON(text, locale string) string {
	body := map[string]any{
		"responses": []any{
			map[string]any{
				"textAnnotations": []any{
					map[string]any{
						"locale":      locale,
						"description": text,
						"boundingPoly": map[string]any{
							"vertices": []any{
								map[string]int{"x": 0, "y": 0},
								map[string]int{"x": 100, "y": 0},
								map[string]int{"x": 100, "y": 20},
								map[string]int{"x": 0, "y": 20},
							},
						},
					},
				},
				"fullTextAnnotation": map[string]any{
					"text": text,
					"pages": []any{
						map[string]any{
							"property": map[string]any{
								"detectedLanguages": []any{
									map[string]any{"languageCode": locale, "confidence": 0.98},
								},
							},
							"width":  320,
							"height": 240,
							"blocks": []any{
								map[string]any{
									"blockType": "TEXT",
									"paragraphs": []any{
										map[string]any{
											"words": []any{
												map[string]any{
													"symbols": []any{
														map[string]any{"text": "H"},
														map[string]any{"text": "i"},
													},
												},
											},
										},
									},
								},
							},
						},
					},
				},
			},
		},
	}
	data, _ := json.Marshal(body)
	return string(data)
}

// EmptyAnnotateResponseJSON is a successful response without any text.
const EmptyAnnotateResponseJSON = `{"responses":[{}]}`

// ErrorBodyJSON returns a Google API error envelope.
func ErrorBodyJSON(code int, status, message string) string {
	data, _ := json.Marshal(map[string]any{
		"error": map[string]any{"code": code, "message": message, "status": status},
	})
	return string(data)
}

// FakeVision is an httptest server standing in for the Vision REST API. It
// records every request body it receives.
type FakeVision struct {
	*httptest.Server

	mu       sync.Mutex
	requests []RecordedRequest
}

// RecordedRequest is one call seen by FakeVision.
type RecordedRequest struct {
	Path  string
	Key   string
	Body  map[string]any
	Agent string
}

// NewFakeVision starts a fake endpoint that replies with status and body.
func NewFakeVision(t *testing.T, status int, body string) *FakeVision {
	t.Helper()

	fv := &FakeVision{}
	fv.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var decoded map[string]any
		_ = json.NewDecoder(r.Body).Decode(&decoded)

		fv.mu.Lock()
		fv.requests = append(fv.requests, RecordedRequest{
			Path:  r.URL.Path,
			Key:   r.URL.Query().Get("key"),
			Body:  decoded,
			Agent: r.UserAgent(),
		})
		fv.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(fv.Close)
	return fv
}

// Requests returns a copy of the recorded requests.
func (fv *FakeVision) Requests() []RecordedRequest {
	fv.mu.Lock()
	defer fv.mu.Unlock()
	return append([]RecordedRequest(nil), fv.requests...)
}

// LastRequest returns the most recent request, failing the test if none.
func (fv *FakeVision) LastRequest(t *testing.T) RecordedRequest {
	t.Helper()

	reqs := fv.Requests()
	require.NotEmpty(t, reqs, "fake vision endpoint received no requests")
	return reqs[len(reqs)-1]
}
