package cmd

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MeKo-Tech/handscan/internal/capture"
	"github.com/MeKo-Tech/handscan/internal/scan"
	"github.com/MeKo-Tech/handscan/internal/testutil"
	"github.com/MeKo-Tech/handscan/internal/vision"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzePrintsText(t *testing.T) {
	fv := withFakeVision(t, http.StatusOK, testutil.AnnotateResponseJSON("Einkaufsliste\nMilch", "de"))
	path := testutil.WriteTextImage(t, t.TempDir(), "note.jpg", "Einkaufsliste")

	out, err := executeCommand(t, nil, "analyze", path, "--language", "de")
	require.NoError(t, err)
	assert.Equal(t, "Einkaufsliste\nMilch", strings.TrimSpace(out.stdout))

	req := fv.LastRequest(t)
	assert.Equal(t, "test-key", req.Key)
	assert.True(t, strings.HasPrefix(req.Agent, "handscan/"))
}

func TestAnalyzeNoTextIsNotAnError(t *testing.T) {
	withFakeVision(t, http.StatusOK, testutil.EmptyAnnotateResponseJSON)
	path := testutil.WriteTextImage(t, t.TempDir(), "blank.jpg", "")

	out, err := executeCommand(t, nil, "analyze", path)
	require.NoError(t, err)
	assert.Equal(t, scan.NoTextMessage, strings.TrimSpace(out.stdout))
}

func TestAnalyzeRemoteError(t *testing.T) {
	withFakeVision(t, http.StatusForbidden,
		testutil.ErrorBodyJSON(403, "PERMISSION_DENIED", "API key not valid. Please pass a valid API key."))
	path := testutil.WriteTextImage(t, t.TempDir(), "note.jpg", "Hi")

	_, err := executeCommand(t, nil, "analyze", path)
	var remote *vision.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, "Error: API key not valid. Please pass a valid API key.", scan.UserMessage(err))
}

func TestAnalyzeJSONWithSavedResponse(t *testing.T) {
	withFakeVision(t, http.StatusOK, testutil.AnnotateResponseJSON("Hi", "en"))
	dir := t.TempDir()
	path := testutil.WriteTextImage(t, dir, "note.jpg", "Hi")
	outFile := filepath.Join(dir, "result.json")

	_, err := executeCommand(t, nil, "analyze", path, "--format", "json", "--save-response", "--output", outFile)
	require.NoError(t, err)

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	var res map[string]any
	require.NoError(t, json.Unmarshal(data, &res))
	assert.Equal(t, "Hi", res["text"])
	assert.Equal(t, false, res["no_text"])

	saved, err := os.ReadFile(filepath.Join(dir, "note_response.json"))
	require.NoError(t, err)
	assert.Contains(t, string(saved), "fullTextAnnotation")
}

func TestAnalyzeInvalidFormat(t *testing.T) {
	withFakeVision(t, http.StatusOK, testutil.EmptyAnnotateResponseJSON)

	_, err := executeCommand(t, nil, "analyze", "x.jpg", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid output format")
}

func TestAnalyzeWithoutCapture(t *testing.T) {
	withFakeVision(t, http.StatusOK, testutil.EmptyAnnotateResponseJSON)

	_, err := executeCommand(t, nil, "analyze", "--output-dir", t.TempDir())
	require.ErrorIs(t, err, capture.ErrNoCapture)
	assert.Equal(t, scan.NoCaptureMessage, scan.UserMessage(err))
}

func TestAnalyzeLatestCapture(t *testing.T) {
	withFakeVision(t, http.StatusOK, testutil.AnnotateResponseJSON("Zuletzt", "de"))
	store := t.TempDir()
	testutil.WriteTextImage(t, store, "2024-01-01-10-00-00-000.jpg", "alt")
	testutil.WriteTextImage(t, store, "2024-01-02-10-00-00-000.jpg", "neu")

	out, err := executeCommand(t, nil, "analyze", "--output-dir", store)
	require.NoError(t, err)
	assert.Equal(t, "Zuletzt", strings.TrimSpace(out.stdout))
}

func TestAnalyzeRequiresAPIKey(t *testing.T) {
	isolateConfig(t)
	path := testutil.WriteTextImage(t, t.TempDir(), "note.jpg", "Hi")

	_, err := executeCommand(t, nil, "analyze", path)
	require.ErrorIs(t, err, vision.ErrMissingAPIKey)
}

func TestCaptureFromFile(t *testing.T) {
	isolateConfig(t)
	src := testutil.WriteTextImage(t, t.TempDir(), "scan.jpg", "Hi")
	store := t.TempDir()

	out, err := executeCommand(t, nil, "capture", "--from", src, "--output-dir", store)
	require.NoError(t, err)

	saved := strings.TrimSpace(out.stdout)
	assert.Equal(t, store, filepath.Dir(saved))
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}-\d{2}-\d{2}-\d{2}-\d{3}\.jpg$`, filepath.Base(saved))
	assert.True(t, testutil.FileExists(saved))
}

func TestCaptureCommandFailure(t *testing.T) {
	isolateConfig(t)

	_, err := executeCommand(t, nil, "capture", "--command", "handscan-no-such-camera {output}", "--output-dir", t.TempDir())
	var capErr *capture.CaptureError
	require.ErrorAs(t, err, &capErr)
	assert.True(t, strings.HasPrefix(scan.UserMessage(err), "Photo capture failed: "))
}

func TestSnapFromFile(t *testing.T) {
	withFakeVision(t, http.StatusOK, testutil.AnnotateResponseJSON("Schnappschuss", "de"))
	src := testutil.WriteTextImage(t, t.TempDir(), "scan.jpg", "Hi")

	out, err := executeCommand(t, nil, "snap", "--from", src, "--output-dir", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "Schnappschuss", strings.TrimSpace(out.stdout))
	assert.Contains(t, out.stderr, scan.AnalyzingMessage)
}
