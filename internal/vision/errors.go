package vision

import (
	"errors"
	"fmt"
)

var (
	// ErrNoResultFound means the call succeeded but no text was detected.
	ErrNoResultFound = errors.New("no text detected")
	// ErrMalformedResponse means a 2xx body could not be decoded.
	ErrMalformedResponse = errors.New("malformed annotate response")
	// ErrMissingAPIKey is returned by NewClient without a key.
	ErrMissingAPIKey = errors.New("vision api key is not configured")
)

// RemoteError is a failure reported by the service, either as a non-2xx HTTP
// response or as the per-image error object of a 2xx response. StatusCode is
// 0 for the latter.
type RemoteError struct {
	StatusCode int
	Code       int
	Status     string
	Message    string
}

func (e *RemoteError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("vision api error (http %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("vision api error (code %d): %s", e.Code, e.Message)
}

// Temporary reports whether the failure is worth retrying by the caller.
// The client itself never retries.
func (e *RemoteError) Temporary() bool {
	switch e.StatusCode {
	case 429, 500, 502, 503, 504:
		return true
	}
	return e.Status == "UNAVAILABLE" || e.Status == "RESOURCE_EXHAUSTED"
}
