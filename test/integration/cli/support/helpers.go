package support

import (
	"fmt"
	"image"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
)

func dirOf(path string) string { return filepath.Dir(path) }

func saveImage(img image.Image, path string) error {
	if err := imaging.Save(img, path, imaging.JPEGQuality(90)); err != nil {
		return fmt.Errorf("failed to save image %s: %w", path, err)
	}
	return nil
}

// lookupField walks a dotted path such as "result.text" or "images.0.file".
func lookupField(data any, field string) (any, error) {
	current := data
	for _, part := range strings.Split(field, ".") {
		switch node := current.(type) {
		case map[string]any:
			v, ok := node[part]
			if !ok {
				return nil, fmt.Errorf("field %q not found in JSON", field)
			}
			current = v
		case []any:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(node) {
				return nil, fmt.Errorf("index %q out of range in %q", part, field)
			}
			current = node[i]
		default:
			return nil, fmt.Errorf("cannot navigate into %q", field)
		}
	}
	return current, nil
}

func fieldEquals(data any, field, expected string) error {
	v, err := lookupField(data, field)
	if err != nil {
		return err
	}
	if got := fmt.Sprint(v); got != expected {
		return fmt.Errorf("field %q is %q, want %q", field, got, expected)
	}
	return nil
}
