package vision

// Feature types understood by images:annotate for text.
const (
	FeatureDocumentText = "DOCUMENT_TEXT_DETECTION"
	FeatureText         = "TEXT_DETECTION"
)

// AnnotateRequest is the body of POST v1/images:annotate.
type AnnotateRequest struct {
	Requests []ImageRequest `json:"requests"`
}

// ImageRequest asks for features on a single image.
type ImageRequest struct {
	Image        Image         `json:"image"`
	Features     []Feature     `json:"features"`
	ImageContext *ImageContext `json:"imageContext,omitempty"`
}

// Image carries the encoded payload inline.
type Image struct {
	Content string `json:"content"`
}

// Feature selects a detection type.
type Feature struct {
	Type       string `json:"type"`
	MaxResults int    `json:"maxResults,omitempty"`
}

// ImageContext holds optional hints for the detector.
type ImageContext struct {
	LanguageHints []string `json:"languageHints,omitempty"`
}

// AnnotateResponse mirrors the request list, one response per image.
type AnnotateResponse struct {
	Responses []ImageResponse `json:"responses"`
}

// ImageResponse is the result for one image. Error is set when that image
// failed even though the HTTP call succeeded.
type ImageResponse struct {
	TextAnnotations    []TextAnnotation    `json:"textAnnotations,omitempty"`
	FullTextAnnotation *FullTextAnnotation `json:"fullTextAnnotation,omitempty"`
	Error              *Status             `json:"error,omitempty"`
}

// TextAnnotation is one detected text entity. The first entry of a response
// covers the whole image.
type TextAnnotation struct {
	Locale       string        `json:"locale,omitempty"`
	Description  string        `json:"description,omitempty"`
	BoundingPoly *BoundingPoly `json:"boundingPoly,omitempty"`
}

// BoundingPoly is a polygon in image pixel coordinates.
type BoundingPoly struct {
	Vertices []Vertex `json:"vertices"`
}

// Vertex is a polygon corner. Zero coordinates are omitted by the API.
type Vertex struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// FullTextAnnotation is the structured page hierarchy returned by
// DOCUMENT_TEXT_DETECTION.
type FullTextAnnotation struct {
	Pages []Page `json:"pages,omitempty"`
	Text  string `json:"text,omitempty"`
}

type Page struct {
	Property *TextProperty `json:"property,omitempty"`
	Width    int           `json:"width,omitempty"`
	Height   int           `json:"height,omitempty"`
	Blocks   []Block       `json:"blocks,omitempty"`
}

type TextProperty struct {
	DetectedLanguages []DetectedLanguage `json:"detectedLanguages,omitempty"`
}

type DetectedLanguage struct {
	LanguageCode string  `json:"languageCode,omitempty"`
	Confidence   float32 `json:"confidence,omitempty"`
}

type Block struct {
	BoundingBox *BoundingPoly `json:"boundingBox,omitempty"`
	Paragraphs  []Paragraph   `json:"paragraphs,omitempty"`
	BlockType   string        `json:"blockType,omitempty"`
}

type Paragraph struct {
	BoundingBox *BoundingPoly `json:"boundingBox,omitempty"`
	Words       []Word        `json:"words,omitempty"`
}

type Word struct {
	BoundingBox *BoundingPoly `json:"boundingBox,omitempty"`
	Symbols     []Symbol      `json:"symbols,omitempty"`
}

// Text joins the word's symbols.
func (w Word) Text() string {
	n := 0
	for _, s := range w.Symbols {
		n += len(s.Text)
	}
	buf := make([]byte, 0, n)
	for _, s := range w.Symbols {
		buf = append(buf, s.Text...)
	}
	return string(buf)
}

type Symbol struct {
	BoundingBox *BoundingPoly `json:"boundingBox,omitempty"`
	Text        string        `json:"text,omitempty"`
}

// Status is the google.rpc.Status error object used both per image and as
// the top level "error" of a failed HTTP response.
type Status struct {
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Status  string `json:"status,omitempty"`
}

// NewTextRequest builds a single-image text detection request.
func NewTextRequest(payload string, opts DetectOptions) *AnnotateRequest {
	feature := opts.Feature
	if feature == "" {
		feature = FeatureDocumentText
	}
	req := ImageRequest{
		Image:    Image{Content: payload},
		Features: []Feature{{Type: feature, MaxResults: opts.MaxResults}},
	}
	if len(opts.LanguageHints) > 0 {
		req.ImageContext = &ImageContext{LanguageHints: opts.LanguageHints}
	}
	return &AnnotateRequest{Requests: []ImageRequest{req}}
}
