// Package scan runs the photo → payload → remote text detection sequence
// and turns every failure into a message fit for the user.
package scan

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/handscan/internal/capture"
	"github.com/MeKo-Tech/handscan/internal/common"
	"github.com/MeKo-Tech/handscan/internal/encoder"
	"github.com/MeKo-Tech/handscan/internal/vision"
)

// TextDetector is the remote OCR collaborator. *vision.Client satisfies it.
type TextDetector interface {
	DetectText(ctx context.Context, payload string, opts vision.DetectOptions) (*vision.TextResult, error)
}

// Options controls encoding and detection for every analysis.
type Options struct {
	// MaxSizeKB is the compression budget. 0 sends the file bytes unchanged
	// unless MaxDimension forces a re-encode.
	MaxSizeKB int
	// MaxDimension downscales larger images before compression. 0 disables.
	MaxDimension  int
	AutoOrient    bool
	Feature       string
	MaxResults    int
	LanguageHints []string
	Clean         CleanOptions
}

// DefaultOptions returns the options used by the CLI when nothing is set.
func DefaultOptions() Options {
	return Options{
		MaxSizeKB:  1024,
		AutoOrient: true,
		Feature:    vision.FeatureDocumentText,
		Clean:      DefaultCleanOptions(),
	}
}

// Analyzer sequences encoding and text detection. It holds no per-call
// state and is safe for concurrent use.
type Analyzer struct {
	detector TextDetector
	opts     Options
}

// NewAnalyzer returns an analyzer calling detector.
func NewAnalyzer(detector TextDetector, opts Options) (*Analyzer, error) {
	if detector == nil {
		return nil, errors.New("scan: text detector is required")
	}
	if opts.MaxSizeKB < 0 {
		return nil, fmt.Errorf("scan: max size must be >= 0, got %d", opts.MaxSizeKB)
	}
	if opts.MaxDimension < 0 {
		return nil, fmt.Errorf("scan: max dimension must be >= 0, got %d", opts.MaxDimension)
	}
	return &Analyzer{detector: detector, opts: opts}, nil
}

// Options returns the analyzer's configuration.
func (a *Analyzer) Options() Options { return a.opts }

func (a *Analyzer) reencode() bool {
	return a.opts.MaxSizeKB > 0 || a.opts.MaxDimension > 0
}

// AnalyzeFile analyzes the image at path.
func (a *Analyzer) AnalyzeFile(ctx context.Context, path string) (*Result, error) {
	total := common.StartTimer("total")
	res := &Result{Source: path}

	encodeTimer := common.StartTimer("encode")
	var err error
	if a.reencode() {
		var img image.Image
		img, err = encoder.LoadImage(path, a.opts.AutoOrient)
		if err == nil {
			err = a.encodeImage(res, img)
		}
	} else {
		var data []byte
		data, err = encoder.ReadFile(path)
		if err == nil {
			a.encodeRaw(res, data)
		}
	}
	res.Timings.Encode = encodeTimer.Stop()
	if err != nil {
		return nil, err
	}

	return a.detect(ctx, res, total)
}

// AnalyzeBytes analyzes already-loaded photo bytes; name labels the result.
func (a *Analyzer) AnalyzeBytes(ctx context.Context, name string, data []byte) (*Result, error) {
	total := common.StartTimer("total")
	res := &Result{Source: name}

	encodeTimer := common.StartTimer("encode")
	var err error
	if a.reencode() {
		var img image.Image
		img, err = encoder.DecodeImageBytes(data, a.opts.AutoOrient)
		if err == nil {
			err = a.encodeImage(res, img)
		}
	} else {
		a.encodeRaw(res, data)
	}
	res.Timings.Encode = encodeTimer.Stop()
	if err != nil {
		return nil, err
	}

	return a.detect(ctx, res, total)
}

// AnalyzeImage analyzes decoded pixels. They are always JPEG-encoded; with
// no budget the quality stays at encoder.InitialQuality.
func (a *Analyzer) AnalyzeImage(ctx context.Context, name string, img image.Image) (*Result, error) {
	total := common.StartTimer("total")
	res := &Result{Source: name}

	encodeTimer := common.StartTimer("encode")
	err := a.encodeImage(res, img)
	res.Timings.Encode = encodeTimer.Stop()
	if err != nil {
		return nil, err
	}

	return a.detect(ctx, res, total)
}

// Snap captures one photo from src and analyzes it.
func (a *Analyzer) Snap(ctx context.Context, src capture.Source) (*Result, error) {
	photo, err := src.Capture(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("analyzing photo", "file", photo.Path, "bytes", photo.Size)
	return a.AnalyzeFile(ctx, photo.Path)
}

// AnalyzeLatest analyzes the newest photo in a capture store.
func (a *Analyzer) AnalyzeLatest(ctx context.Context, store *capture.Store) (*Result, error) {
	photo, err := store.Latest()
	if err != nil {
		return nil, err
	}
	return a.AnalyzeFile(ctx, photo.Path)
}

func (a *Analyzer) encodeRaw(res *Result, data []byte) {
	res.Payload = encoder.Encode(data)
	res.PayloadBytes = len(res.Payload)
	res.EstimatedKB = encoder.EstimateKB(len(res.Payload))
}

func (a *Analyzer) encodeImage(res *Result, img image.Image) error {
	img = encoder.Downscale(img, a.opts.MaxDimension)

	if a.opts.MaxSizeKB <= 0 {
		payload, err := encoder.EncodeImage(img, encoder.InitialQuality)
		if err != nil {
			return err
		}
		res.Payload = payload
		res.Quality = encoder.InitialQuality
		res.Attempts = 1
	} else {
		c, err := encoder.CompressAndEncode(img, a.opts.MaxSizeKB)
		if err != nil {
			return err
		}
		res.Payload = c.Payload
		res.Quality = c.Quality
		res.Attempts = c.Attempts
		if !c.WithinBudget(a.opts.MaxSizeKB) {
			slog.Warn("image exceeds size budget at minimum quality",
				"file", filepath.Base(res.Source), "estimated_kb", c.EstimatedKB, "max_kb", a.opts.MaxSizeKB)
		}
	}
	res.PayloadBytes = len(res.Payload)
	res.EstimatedKB = encoder.EstimateKB(len(res.Payload))
	return nil
}

func (a *Analyzer) detect(ctx context.Context, res *Result, total *common.Timer) (*Result, error) {
	remote := common.StartTimer("remote")
	tr, err := a.detector.DetectText(ctx, res.Payload, vision.DetectOptions{
		Feature:       a.opts.Feature,
		MaxResults:    a.opts.MaxResults,
		LanguageHints: a.opts.LanguageHints,
	})
	res.Timings.Remote = remote.Stop()

	switch {
	case errors.Is(err, vision.ErrNoResultFound):
		res.NoText = true
	case err != nil:
		return nil, err
	default:
		res.Text = CleanText(tr.Text, a.opts.Clean)
		res.Locale = tr.Locale
		res.Words = tr.Words
		res.Response = tr.Response
		for _, l := range tr.Languages {
			res.Languages = append(res.Languages, l.LanguageCode)
		}
		if strings.TrimSpace(res.Text) == "" {
			res.Text = ""
			res.NoText = true
		}
	}
	res.Timings.Total = total.Stop()

	slog.Debug("analysis finished",
		"file", res.Source,
		"no_text", res.NoText,
		"chars", len(res.Text),
		"quality", res.Quality,
		"remote", remote)
	return res, nil
}
