package encoder

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// SupportedImageExtensions lists the photo formats LoadImage can decode.
var SupportedImageExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".tif", ".tiff", ".webp"}

// IsSupportedImage reports whether the path has a supported image extension.
func IsSupportedImage(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, s := range SupportedImageExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// LoadImage opens and decodes a photo. With autoOrient the EXIF orientation
// tag is applied so camera photos come out upright.
func LoadImage(path string, autoOrient bool) (image.Image, error) {
	if path == "" {
		return nil, ioFailure("open", path, errors.New("empty path"))
	}
	f, err := os.Open(path) //nolint:gosec // G304: reading a user-selected photo is the point
	if err != nil {
		return nil, ioFailure("open", path, err)
	}
	defer func() { _ = f.Close() }()

	img, err := imaging.Decode(f, imaging.AutoOrientation(autoOrient))
	if err != nil {
		return nil, &EncodeError{Kind: InvalidImage, Op: "decode", Path: path, Err: err}
	}
	return img, nil
}

// DecodeImageBytes decodes already-loaded photo bytes.
func DecodeImageBytes(data []byte, autoOrient bool) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(autoOrient))
	if err != nil {
		return nil, &EncodeError{Kind: InvalidImage, Op: "decode", Err: err}
	}
	return img, nil
}

// DecodeImage decodes a payload and then interprets the bytes as an image.
// It returns the image format name reported by the registered decoder.
func DecodeImage(payload string) (image.Image, string, error) {
	data, err := Decode(payload)
	if err != nil {
		return nil, "", err
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", &DecodeError{Kind: InvalidImage, Err: fmt.Errorf("decoded bytes are not an image: %w", err)}
	}
	return img, format, nil
}

// Downscale shrinks img so neither side exceeds maxDimension, keeping the
// aspect ratio. maxDimension <= 0 or an image already small enough is
// returned unchanged.
func Downscale(img image.Image, maxDimension int) image.Image {
	if img == nil || maxDimension <= 0 {
		return img
	}
	b := img.Bounds()
	if b.Dx() <= maxDimension && b.Dy() <= maxDimension {
		return img
	}
	return imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)
}
