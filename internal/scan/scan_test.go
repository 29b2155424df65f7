package scan

import (
	"context"
	"encoding/json"
	"errors"
	"image/color"
	"net/http"
	"path/filepath"
	"sync"
	"testing"

	"github.com/MeKo-Tech/handscan/internal/capture"
	"github.com/MeKo-Tech/handscan/internal/encoder"
	"github.com/MeKo-Tech/handscan/internal/testutil"
	"github.com/MeKo-Tech/handscan/internal/vision"
	"github.com/stretchr/testify/assert"
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

func textDetector(text string) *fakeDetector {
	return &fakeDetector{result: &vision.TextResult{
		Text:      text,
		Locale:    "en",
		Languages: []vision.DetectedLanguage{{LanguageCode: "en"}},
		Words:     2,
	}}
}

func TestNewAnalyzerValidation(t *testing.T) {
	_, err := NewAnalyzer(nil, DefaultOptions())
	require.Error(t, err)

	opts := DefaultOptions()
	opts.MaxSizeKB = -1
	_, err = NewAnalyzer(textDetector("x"), opts)
	require.Error(t, err)

	opts = DefaultOptions()
	opts.MaxDimension = -5
	_, err = NewAnalyzer(textDetector("x"), opts)
	require.Error(t, err)
}

func TestAnalyzeFileRawBytes(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "photo.jpg", []byte("foobar"))
	det := textDetector("Hello World  \r\nsecond line")

	a, err := NewAnalyzer(det, Options{Feature: vision.FeatureText, MaxResults: 3, LanguageHints: []string{"en"}, Clean: DefaultCleanOptions()})
	require.NoError(t, err)

	res, err := a.AnalyzeFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Hello World\nsecond line", res.Text)
	assert.False(t, res.NoText)
	assert.Equal(t, "en", res.Locale)
	assert.Equal(t, []string{"en"}, res.Languages)
	assert.Equal(t, 0, res.Quality)
	assert.Equal(t, len("Zm9vYmFy"), res.PayloadBytes)

	require.Len(t, det.payloads, 1)
	assert.Equal(t, "Zm9vYmFy", det.payloads[0])
	assert.Equal(t, vision.DetectOptions{Feature: vision.FeatureText, MaxResults: 3, LanguageHints: []string{"en"}}, det.opts[0])
}

func TestAnalyzeFileCompressed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "noise.png")
	testutil.SaveImage(t, testutil.NoiseImage(128, 128, 3), path)
	det := textDetector("ok")

	opts := DefaultOptions()
	opts.MaxSizeKB = 8
	a, err := NewAnalyzer(det, opts)
	require.NoError(t, err)

	res, err := a.AnalyzeFile(context.Background(), path)
	require.NoError(t, err)
	assert.Less(t, res.Quality, encoder.InitialQuality)
	assert.GreaterOrEqual(t, res.Attempts, 2)
	if res.Quality > encoder.MinQuality {
		assert.LessOrEqual(t, res.EstimatedKB, 8)
	}

	_, format, err := encoder.DecodeImage(det.payloads[0])
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}

func TestAnalyzeFileDownscale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wide.png")
	testutil.SaveImage(t, testutil.CreateTestImageWithText("wide", 800, 200), path)
	det := textDetector("wide")

	a, err := NewAnalyzer(det, Options{MaxDimension: 400})
	require.NoError(t, err)

	res, err := a.AnalyzeFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, encoder.InitialQuality, res.Quality)
	assert.Equal(t, 1, res.Attempts)

	img, _, err := encoder.DecodeImage(det.payloads[0])
	require.NoError(t, err)
	assert.Equal(t, 400, img.Bounds().Dx())
	assert.Equal(t, 100, img.Bounds().Dy())
}

func TestAnalyzeNoText(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "blank.jpg", []byte("x"))
	a, err := NewAnalyzer(&fakeDetector{err: vision.ErrNoResultFound}, Options{})
	require.NoError(t, err)

	res, err := a.AnalyzeFile(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, res.NoText)
	assert.Empty(t, res.Text)
	assert.Equal(t, "No text detected", res.DisplayText())
}

func TestAnalyzeWhitespaceOnlyIsNoText(t *testing.T) {
	for name, clean := range map[string]CleanOptions{
		"default":  DefaultCleanOptions(),
		"no trim":  {Normalize: true},
		"raw text": {},
	} {
		t.Run(name, func(t *testing.T) {
			a, err := NewAnalyzer(textDetector(" \n\t\r\n"), Options{Clean: clean})
			require.NoError(t, err)

			res, err := a.AnalyzeBytes(context.Background(), "mem", []byte("abc"))
			require.NoError(t, err)
			assert.True(t, res.NoText)
			assert.Empty(t, res.Text)
		})
	}
}

func TestAnalyzeErrors(t *testing.T) {
	remote := &vision.RemoteError{StatusCode: 403, Message: "API key not valid."}
	a, err := NewAnalyzer(&fakeDetector{err: remote}, Options{})
	require.NoError(t, err)

	_, err = a.AnalyzeFile(context.Background(), filepath.Join(t.TempDir(), "missing.jpg"))
	require.ErrorIs(t, err, encoder.ErrIOFailure)
	assert.Contains(t, UserMessage(err), "Failed to encode image: ")

	_, err = a.AnalyzeBytes(context.Background(), "mem", []byte("abc"))
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, "Error: API key not valid.", UserMessage(err))
}

func TestAnalyzeBytesInvalidImage(t *testing.T) {
	det := textDetector("never")
	a, err := NewAnalyzer(det, Options{MaxSizeKB: 100})
	require.NoError(t, err)

	_, err = a.AnalyzeBytes(context.Background(), "junk", []byte("not an image"))
	require.ErrorIs(t, err, encoder.ErrInvalidImage)
	assert.Empty(t, det.payloads, "detector must not be called for undecodable input")
}

func TestAnalyzeImage(t *testing.T) {
	det := textDetector("Hi")
	a, err := NewAnalyzer(det, Options{MaxSizeKB: 50})
	require.NoError(t, err)

	res, err := a.AnalyzeImage(context.Background(), "page-1", testutil.CreateTestImage(64, 64, color.White))
	require.NoError(t, err)
	assert.Equal(t, "page-1", res.Source)
	assert.Equal(t, encoder.InitialQuality, res.Quality)
	assert.Equal(t, 1, res.Attempts)
}

func TestAnalyzeCancelled(t *testing.T) {
	a, err := NewAnalyzer(textDetector("x"), Options{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = a.AnalyzeBytes(ctx, "mem", []byte("abc"))
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "Analysis cancelled", UserMessage(err))
}

func TestSnapAndLatest(t *testing.T) {
	dir := t.TempDir()
	store := capture.NewStore(dir)
	det := textDetector("snap")
	a, err := NewAnalyzer(det, Options{})
	require.NoError(t, err)

	_, err = a.AnalyzeLatest(context.Background(), store)
	require.ErrorIs(t, err, capture.ErrNoCapture)
	assert.Equal(t, "Please capture an image first", UserMessage(err))

	original := testutil.WriteTextImage(t, t.TempDir(), "in.jpg", "snap")
	res, err := a.Snap(context.Background(), &capture.FileSource{Path: original, Store: store})
	require.NoError(t, err)
	assert.Equal(t, "snap", res.Text)
	assert.Equal(t, dir, filepath.Dir(res.Source))

	res, err = a.AnalyzeLatest(context.Background(), store)
	require.NoError(t, err)
	assert.Equal(t, "snap", res.Text)

	failing := capture.SourceFunc(func(context.Context) (capture.Photo, error) {
		return capture.Photo{}, &capture.CaptureError{Op: "command", Err: errors.New("camera busy")}
	})
	_, err = a.Snap(context.Background(), failing)
	assert.Equal(t, "Photo capture failed: camera busy", UserMessage(err))
}

func TestAnalyzeWithVisionClient(t *testing.T) {
	fv := testutil.NewFakeVision(t, http.StatusOK, testutil.AnnotateResponseJSON("Dear diary", "en"))
	client, err := vision.NewClient(vision.Config{BaseURL: fv.URL, APIKey: "k"})
	require.NoError(t, err)

	a, err := NewAnalyzer(client, DefaultOptions())
	require.NoError(t, err)

	path := testutil.WriteTextImage(t, t.TempDir(), "note.jpg", "Dear diary")
	res, err := a.AnalyzeFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Dear diary", res.Text)
	require.NotNil(t, res.Response)

	out, err := json.Marshal(res)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"text":"Dear diary"`)
	assert.Contains(t, string(out), `"total_ms"`)
	assert.NotContains(t, string(out), "payload\"")
}
