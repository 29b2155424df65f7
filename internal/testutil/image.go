package testutil

import (
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// ImageSize represents common image dimensions.
type ImageSize struct {
	Width  int
	Height int
}

var (
	// Common test image sizes.
	SmallSize  = ImageSize{320, 240}
	MediumSize = ImageSize{640, 480}
)

// TestImageConfig holds configuration for generating test images.
type TestImageConfig struct {
	Text       string
	Size       ImageSize
	Background color.Color
	Foreground color.Color
	FontFace   font.Face
	Rotation   float64 // degrees, counter-clockwise
}

// DefaultTestImageConfig returns a default configuration for test images.
func DefaultTestImageConfig() TestImageConfig {
	return TestImageConfig{
		Text:       "Sample Text",
		Size:       MediumSize,
		Background: color.White,
		Foreground: color.Black,
		FontFace:   basicfont.Face7x13,
	}
}

// GenerateTextImage draws config.Text centred on a plain background. Lines
// separated by "\n" are stacked vertically.
func GenerateTextImage(config TestImageConfig) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, config.Size.Width, config.Size.Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{config.Background}, image.Point{}, draw.Src)

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{config.Foreground},
		Face: config.FontFace,
	}

	lines := strings.Split(config.Text, "\n")
	lineHeight := config.FontFace.Metrics().Height.Ceil()
	startY := (config.Size.Height - len(lines)*lineHeight) / 2
	for i, line := range lines {
		textWidth := font.MeasureString(config.FontFace, line).Ceil()
		x := (config.Size.Width - textWidth) / 2
		y := startY + (i+1)*lineHeight
		drawer.Dot = fixed.P(x, y)
		drawer.DrawString(line)
	}

	if config.Rotation != 0 {
		rotated := imaging.Rotate(img, config.Rotation, config.Background)
		rgba := image.NewRGBA(rotated.Bounds())
		draw.Draw(rgba, rgba.Bounds(), rotated, rotated.Bounds().Min, draw.Src)
		return rgba
	}

	return img
}

// CreateTestImage creates a solid image with the specified dimensions and color.
func CreateTestImage(width, height int, backgroundColor color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{backgroundColor}, image.Point{}, draw.Src)
	return img
}

// CreateTestImageWithText creates a white image with text rendered on it.
func CreateTestImageWithText(text string, width, height int) image.Image {
	config := DefaultTestImageConfig()
	config.Text = text
	config.Size = ImageSize{Width: width, Height: height}
	return GenerateTextImage(config)
}

// NoiseImage fills an image with pseudo-random pixels from seed. Noise
// compresses poorly, so it exercises every step of a JPEG quality search.
func NoiseImage(width, height int, seed int64) *image.RGBA {
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // G404: deterministic test data
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	_, _ = rng.Read(img.Pix)
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}
	return img
}

// SaveImage saves an image as PNG, or JPEG when the path ends in .jpg/.jpeg.
func SaveImage(t *testing.T, img image.Image, path string) {
	t.Helper()

	dir := filepath.Dir(path)
	require.NoError(t, EnsureDir(dir), "Failed to create directory %s", dir)

	file, err := os.Create(path) //nolint:gosec // G304: Test file creation with controlled path
	require.NoError(t, err, "Failed to create file %s", path)
	defer func() {
		require.NoError(t, file.Close())
	}()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		err = jpeg.Encode(file, img, &jpeg.Options{Quality: 90})
	default:
		err = png.Encode(file, img)
	}
	require.NoError(t, err, "Failed to encode image %s", path)
}

// WriteTextImage renders text into a JPEG under dir and returns its path.
func WriteTextImage(t *testing.T, dir, name, text string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	SaveImage(t, CreateTestImageWithText(text, SmallSize.Width, SmallSize.Height), path)
	return path
}
