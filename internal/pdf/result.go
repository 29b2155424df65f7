package pdf

import (
	"strings"

	"github.com/MeKo-Tech/handscan/internal/scan"
)

// PageResult holds the analyses for one PDF page.
type PageResult struct {
	PageNumber int           `json:"page_number"`
	Images     []ImageResult `json:"images"`
	// TextLayer is the page's embedded text, when requested and present.
	TextLayer string `json:"text_layer,omitempty"`
}

// ImageResult is the analysis of one image extracted from a page.
type ImageResult struct {
	ImageIndex int          `json:"image_index"`
	Width      int          `json:"width"`
	Height     int          `json:"height"`
	Result     *scan.Result `json:"result,omitempty"`
	Err        error        `json:"-"`
	Error      string       `json:"error,omitempty"`
}

// DocumentResult represents the analysis of a whole PDF document.
type DocumentResult struct {
	Filename   string         `json:"filename"`
	TotalPages int            `json:"total_pages"`
	Pages      []PageResult   `json:"pages"`
	Processing ProcessingInfo `json:"processing"`
}

// ProcessingInfo contains timing information.
type ProcessingInfo struct {
	ExtractionTimeMs int64 `json:"extraction_time_ms"`
	AnalysisTimeMs   int64 `json:"analysis_time_ms"`
	TotalTimeMs      int64 `json:"total_time_ms"`
}

// Text joins the detected text of every image in page order.
func (d *DocumentResult) Text() string {
	var parts []string
	for _, p := range d.Pages {
		for _, img := range p.Images {
			if img.Result != nil && !img.Result.NoText && img.Result.Text != "" {
				parts = append(parts, img.Result.Text)
			}
		}
	}
	return strings.Join(parts, "\n\n")
}

// Failed counts images whose analysis returned an error.
func (d *DocumentResult) Failed() int {
	n := 0
	for _, p := range d.Pages {
		for _, img := range p.Images {
			if img.Err != nil {
				n++
			}
		}
	}
	return n
}
