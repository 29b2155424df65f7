// Package vision is a small client for the Google Cloud Vision
// images:annotate REST endpoint, authenticated with a static API key.
package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the public Vision API root.
	DefaultBaseURL = "https://vision.googleapis.com/"
	// DefaultTimeout bounds a single annotate call when Config.Timeout is 0.
	DefaultTimeout = 30 * time.Second

	annotatePath = "v1/images:annotate"
	// maxResponseBytes caps how much of a response body is read.
	maxResponseBytes = 32 << 20
)

// Config configures a Client.
type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
	UserAgent  string
}

// DetectOptions tunes a text detection request.
type DetectOptions struct {
	Feature       string
	MaxResults    int
	LanguageHints []string
}

// Client calls images:annotate. It is safe for concurrent use.
type Client struct {
	endpoint   *url.URL
	apiKey     string
	httpClient *http.Client
	userAgent  string
}

// NewClient validates cfg and returns a ready client.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}

	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid vision base url %q: %w", cfg.BaseURL, err)
	}
	if baseURL.Scheme != "http" && baseURL.Scheme != "https" {
		return nil, fmt.Errorf("invalid vision base url %q: scheme must be http or https", cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		endpoint:   baseURL.ResolveReference(&url.URL{Path: annotatePath}),
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
		userAgent:  cfg.UserAgent,
	}, nil
}

// Endpoint returns the annotate URL without the key.
func (c *Client) Endpoint() string {
	return c.endpoint.String()
}

// Annotate sends req and decodes the response. Non-2xx responses become a
// *RemoteError; transport failures are wrapped and returned as is.
func (c *Client) Annotate(ctx context.Context, req *AnnotateRequest) (*AnnotateResponse, error) {
	start := time.Now()
	resp, err := c.annotate(ctx, req)
	observeRequest(outcomeOf(err), time.Since(start))
	return resp, err
}

func (c *Client) annotate(ctx context.Context, req *AnnotateRequest) (*AnnotateResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal annotate request: %w", err)
	}
	requestBytes.Observe(float64(len(body)))

	u := *c.endpoint
	q := u.Query()
	q.Set("key", c.apiKey)
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	slog.Debug("sending annotate request", "endpoint", c.endpoint.String(), "bytes", len(body))

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// The request URL carries the API key; report the bare endpoint.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			urlErr.URL = c.endpoint.String()
		}
		return nil, fmt.Errorf("failed to send annotate request: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read annotate response: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		rerr := remoteErrorFromBody(httpResp.StatusCode, respBody)
		slog.Warn("annotate request failed", "status", httpResp.StatusCode, "error", rerr.Message)
		return nil, rerr
	}

	var out AnnotateResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return &out, nil
}

// DetectText runs text detection for one payload and extracts the text.
func (c *Client) DetectText(ctx context.Context, payload string, opts DetectOptions) (*TextResult, error) {
	resp, err := c.Annotate(ctx, NewTextRequest(payload, opts))
	if err != nil {
		return nil, err
	}
	res, err := ExtractText(resp)
	if errors.Is(err, ErrNoResultFound) {
		textResults.WithLabelValues("none").Inc()
	} else if err == nil {
		textResults.WithLabelValues("text").Inc()
	}
	return res, err
}

// remoteErrorFromBody prefers the JSON error.message of body, then the body
// itself, then the HTTP status text.
func remoteErrorFromBody(statusCode int, body []byte) *RemoteError {
	rerr := &RemoteError{StatusCode: statusCode}

	var envelope struct {
		Error *Status `json:"error"`
	}
	if json.Unmarshal(body, &envelope) == nil && envelope.Error != nil {
		rerr.Code = envelope.Error.Code
		rerr.Status = envelope.Error.Status
		rerr.Message = envelope.Error.Message
	}
	if rerr.Message == "" {
		rerr.Message = strings.TrimSpace(string(body))
	}
	if rerr.Message == "" {
		rerr.Message = http.StatusText(statusCode)
	}
	return rerr
}
