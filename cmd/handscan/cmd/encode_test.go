package cmd

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MeKo-Tech/handscan/internal/encoder"
	"github.com/MeKo-Tech/handscan/internal/scan"
	"github.com/MeKo-Tech/handscan/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeRawFile(t *testing.T) {
	isolateConfig(t)
	dir := t.TempDir()
	data := []byte("not really a photo")
	path := testutil.WriteFile(t, dir, "note.jpg", data)

	out, err := executeCommand(t, nil, "encode", path)
	require.NoError(t, err)
	assert.Equal(t, base64.StdEncoding.EncodeToString(data), strings.TrimSpace(out.stdout))
}

func TestEncodeEmptyFile(t *testing.T) {
	isolateConfig(t)
	path := testutil.WriteFile(t, t.TempDir(), "empty.jpg", nil)

	out, err := executeCommand(t, nil, "encode", path)
	require.NoError(t, err)
	assert.Empty(t, strings.TrimSpace(out.stdout))
}

func TestEncodeCompressedWritesPayloadFile(t *testing.T) {
	isolateConfig(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "noise.png")
	testutil.SaveImage(t, testutil.NoiseImage(200, 200, 7), path)
	outDir := filepath.Join(dir, "payloads")

	out, err := executeCommand(t, nil, "encode", path, "--max-kb", "20", "--output", outDir)
	require.NoError(t, err)

	payload := strings.TrimSpace(out.stdout)
	saved, err := os.ReadFile(filepath.Join(outDir, "noise_base64.txt"))
	require.NoError(t, err)
	assert.Equal(t, payload, string(saved))

	img, format, err := encoder.DecodeImage(payload)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 200, img.Bounds().Dx())
}

func TestEncodeMaxDimension(t *testing.T) {
	isolateConfig(t)
	path := filepath.Join(t.TempDir(), "big.png")
	testutil.SaveImage(t, testutil.CreateTestImageWithText("Notiz", 400, 200), path)

	out, err := executeCommand(t, nil, "encode", path, "--max-dimension", "100")
	require.NoError(t, err)

	img, _, err := encoder.DecodeImage(strings.TrimSpace(out.stdout))
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 50, img.Bounds().Dy())
}

func TestEncodeMissingFile(t *testing.T) {
	isolateConfig(t)

	_, err := executeCommand(t, nil, "encode", filepath.Join(t.TempDir(), "missing.jpg"))
	require.ErrorIs(t, err, encoder.ErrIOFailure)
	assert.True(t, strings.HasPrefix(scan.UserMessage(err), "Failed to encode image: "))
}

func TestDecodeFromStdin(t *testing.T) {
	isolateConfig(t)
	target := filepath.Join(t.TempDir(), "out.bin")
	payload := base64.StdEncoding.EncodeToString([]byte("hello"))

	out, err := executeCommand(t, strings.NewReader(payload+"\n"), "decode", "-", "--output", target)
	require.NoError(t, err)
	assert.Contains(t, out.stdout, "Wrote 5 bytes")

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestDecodeMalformed(t *testing.T) {
	isolateConfig(t)
	dir := t.TempDir()
	src := testutil.WriteFile(t, dir, "bad.txt", []byte("not-valid-base64!!"))

	_, err := executeCommand(t, nil, "decode", src, "--output", filepath.Join(dir, "out.bin"))
	require.ErrorIs(t, err, encoder.ErrMalformedInput)
	assert.True(t, strings.HasPrefix(scan.UserMessage(err), "Invalid image data: "))
}

func TestDecodeRequiresOutput(t *testing.T) {
	isolateConfig(t)

	_, err := executeCommand(t, strings.NewReader("aGk="), "decode", "-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output")
}
