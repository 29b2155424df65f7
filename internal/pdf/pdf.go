// Package pdf pulls the embedded page images out of scanned PDFs so each one
// can be sent for text detection.
package pdf

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/handscan/internal/encoder"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// ExtractImages extracts all images from a PDF file using pdfcpu's extract
// functionality, grouped by page number. An empty pageRange selects every page.
func ExtractImages(filename string, pageRange string, creds *Credentials) (map[int][]image.Image, error) {
	pageNumbers, err := parsePageRange(pageRange)
	if err != nil {
		return nil, fmt.Errorf("invalid page range %q: %w", pageRange, err)
	}

	tempDir, err := os.MkdirTemp("", "handscan-pdf-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(tempDir) }()

	var pageStrings []string
	if len(pageNumbers) > 0 {
		pageStrings = make([]string, len(pageNumbers))
		for i, pageNum := range pageNumbers {
			pageStrings[i] = strconv.Itoa(pageNum)
		}
	}

	if err := api.ExtractImagesFile(filename, tempDir, pageStrings, creds.configuration()); err != nil {
		if IsPasswordError(err) {
			return nil, fmt.Errorf("%w: %w", ErrPasswordRequired, err)
		}
		return nil, fmt.Errorf("failed to extract images from PDF: %w", err)
	}

	result, err := collectExtractedImages(tempDir, stem(filename))
	if err != nil {
		return nil, fmt.Errorf("failed to process extracted images: %w", err)
	}

	return result, nil
}

// PageCount returns the number of pages in the document.
func PageCount(filename string, creds *Credentials) (int, error) {
	n, err := api.PageCountFile(filename)
	if err != nil && creds != nil {
		f, openErr := os.Open(filename) //nolint:gosec // G304: user-selected document
		if openErr != nil {
			return 0, openErr
		}
		defer func() { _ = f.Close() }()
		n, err = api.PageCount(f, creds.configuration())
	}
	if err != nil {
		if IsPasswordError(err) {
			return 0, fmt.Errorf("%w: %w", ErrPasswordRequired, err)
		}
		return 0, fmt.Errorf("failed to read PDF: %w", err)
	}
	return n, nil
}

func stem(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// collectExtractedImages walks dir and groups decodable images by page.
// Files that are not page images or fail to decode are skipped.
func collectExtractedImages(dir, stem string) (map[int][]image.Image, error) {
	result := make(map[int][]image.Image)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		pageNum, err := parsePageFromFilename(stem, d.Name())
		if err != nil {
			return nil
		}

		img, err := encoder.LoadImage(path, false)
		if err != nil {
			return nil
		}

		result[pageNum] = append(result[pageNum], img)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// parsePageFromFilename reads the page number from an extracted image name.
// pdfcpu writes <stem>_<page>[_<image>].<ext>; the older page_<page>_... form
// is accepted too.
func parsePageFromFilename(stem, filename string) (int, error) {
	rest, ok := strings.CutPrefix(filename, stem+"_")
	if !ok || stem == "" {
		rest, ok = strings.CutPrefix(filename, "page_")
	}
	if !ok {
		return 0, errors.New("not a page file")
	}

	end := strings.IndexFunc(rest, func(r rune) bool { return r < '0' || r > '9' })
	if end == -1 {
		end = len(rest)
	}
	if end == 0 {
		return 0, errors.New("invalid page number")
	}

	return strconv.Atoi(rest[:end])
}

// parsePageRange parses a page range string like "1-5" or "1,3,5".
func parsePageRange(pageRange string) ([]int, error) {
	if strings.TrimSpace(pageRange) == "" {
		return nil, nil
	}

	var pages []int
	seen := make(map[int]bool)

	for part := range strings.SplitSeq(pageRange, ",") {
		tokenPages, err := parseRangeToken(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		for _, p := range tokenPages {
			if !seen[p] {
				seen[p] = true
				pages = append(pages, p)
			}
		}
	}

	return pages, nil
}

// parseRangeToken parses either a single page token (e.g., "3") or a range token (e.g., "1-5").
func parseRangeToken(part string) ([]int, error) {
	if strings.Contains(part, "-") {
		rangeParts := strings.Split(part, "-")
		if len(rangeParts) != 2 {
			return nil, fmt.Errorf("invalid range format: %s", part)
		}
		start, err := parsePageNumber(rangeParts[0])
		if err != nil {
			return nil, fmt.Errorf("invalid start page: %s", rangeParts[0])
		}
		end, err := parsePageNumber(rangeParts[1])
		if err != nil {
			return nil, fmt.Errorf("invalid end page: %s", rangeParts[1])
		}
		if start > end {
			return nil, fmt.Errorf("start page %d greater than end page %d", start, end)
		}
		out := make([]int, 0, end-start+1)
		for i := start; i <= end; i++ {
			out = append(out, i)
		}
		return out, nil
	}
	page, err := parsePageNumber(part)
	if err != nil {
		return nil, fmt.Errorf("invalid page number: %s", part)
	}
	return []int{page}, nil
}

// Pages are numbered from 1.
func parsePageNumber(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, fmt.Errorf("page %d out of range", n)
	}
	return n, nil
}
