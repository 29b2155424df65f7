package scan

import (
	"encoding/json"
	"time"

	"github.com/MeKo-Tech/handscan/internal/vision"
)

// Result is the outcome of one analysis. NoText is set, with an empty Text,
// when the service found nothing to read.
type Result struct {
	Source    string   `json:"source"`
	Text      string   `json:"text"`
	NoText    bool     `json:"no_text"`
	Locale    string   `json:"locale,omitempty"`
	Languages []string `json:"languages,omitempty"`
	Words     int      `json:"words,omitempty"`

	// Quality and Attempts are zero when the file bytes were sent as is.
	Quality      int `json:"quality,omitempty"`
	Attempts     int `json:"attempts,omitempty"`
	PayloadBytes int `json:"payload_bytes"`
	EstimatedKB  int `json:"estimated_kb"`

	Timings Timings `json:"timings"`

	Payload  string                   `json:"-"`
	Response *vision.AnnotateResponse `json:"-"`
}

// DisplayText is what a user sees for the result.
func (r *Result) DisplayText() string {
	if r.NoText {
		return NoTextMessage
	}
	return r.Text
}

// Timings records per-stage durations.
type Timings struct {
	Encode time.Duration
	Remote time.Duration
	Total  time.Duration
}

// MarshalJSON renders the durations in milliseconds.
func (t Timings) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		EncodeMs float64 `json:"encode_ms"`
		RemoteMs float64 `json:"remote_ms"`
		TotalMs  float64 `json:"total_ms"`
	}{
		EncodeMs: ms(t.Encode),
		RemoteMs: ms(t.Remote),
		TotalMs:  ms(t.Total),
	})
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
