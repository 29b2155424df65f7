package pdf

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/MeKo-Tech/handscan/internal/scan"
	"golang.org/x/sync/errgroup"
)

// ImageAnalyzer analyzes a decoded image. *scan.Analyzer satisfies it.
type ImageAnalyzer interface {
	AnalyzeImage(ctx context.Context, name string, img image.Image) (*scan.Result, error)
}

// ProcessorConfig contains configuration for PDF processing.
type ProcessorConfig struct {
	Credentials *Credentials
	// TextLayer also reports each page's embedded text.
	TextLayer bool
	// MaxWorkers bounds concurrent image analyses. 0 means 1.
	MaxWorkers int
}

// DefaultProcessorConfig returns the default processor configuration.
func DefaultProcessorConfig() *ProcessorConfig {
	return &ProcessorConfig{MaxWorkers: 2}
}

// Processor extracts page images from a PDF and analyzes each.
type Processor struct {
	analyzer ImageAnalyzer
	config   *ProcessorConfig

	extract   func(filename, pageRange string, creds *Credentials) (map[int][]image.Image, error)
	pageCount func(filename string, creds *Credentials) (int, error)
	textLayer func(filename, pageRange string) (map[int]string, error)
}

// NewProcessor creates a PDF processor. A nil config uses the defaults.
func NewProcessor(analyzer ImageAnalyzer, config *ProcessorConfig) *Processor {
	if config == nil {
		config = DefaultProcessorConfig()
	}
	return &Processor{
		analyzer:  analyzer,
		config:    config,
		extract:   ExtractImages,
		pageCount: PageCount,
		textLayer: ExtractTextLayer,
	}
}

// ProcessFile analyzes every image on the selected pages of filename. A
// failing image is recorded on its ImageResult; only extraction failures and
// cancellation fail the whole document.
func (p *Processor) ProcessFile(ctx context.Context, filename string, pageRange string) (*DocumentResult, error) {
	start := time.Now()

	pageImages, err := p.extract(filename, pageRange, p.config.Credentials)
	if err != nil {
		return nil, err
	}
	extractTime := time.Since(start)

	total, err := p.pageCount(filename, p.config.Credentials)
	if err != nil {
		slog.Warn("could not count pages", "file", filename, "error", err)
	}

	var layers map[int]string
	if p.config.TextLayer {
		layers, err = p.textLayer(filename, pageRange)
		if err != nil {
			slog.Warn("text layer extraction failed", "file", filename, "error", err)
		}
	}

	analysisStart := time.Now()
	pages, err := p.processAllPages(ctx, filename, pageImages, layers)
	if err != nil {
		return nil, err
	}

	if total == 0 && len(pages) > 0 {
		total = pages[len(pages)-1].PageNumber
	}

	return &DocumentResult{
		Filename:   filename,
		TotalPages: total,
		Pages:      pages,
		Processing: ProcessingInfo{
			ExtractionTimeMs: extractTime.Milliseconds(),
			AnalysisTimeMs:   time.Since(analysisStart).Milliseconds(),
			TotalTimeMs:      time.Since(start).Milliseconds(),
		},
	}, nil
}

// ProcessFiles processes several documents in order, stopping at the first
// failure.
func (p *Processor) ProcessFiles(ctx context.Context, filenames []string, pageRange string) ([]*DocumentResult, error) {
	results := make([]*DocumentResult, 0, len(filenames))
	for _, filename := range filenames {
		res, err := p.ProcessFile(ctx, filename, pageRange)
		if err != nil {
			return results, fmt.Errorf("%s: %w", filename, err)
		}
		results = append(results, res)
	}
	return results, nil
}

func (p *Processor) processAllPages(ctx context.Context, filename string, pageImages map[int][]image.Image,
	layers map[int]string,
) ([]PageResult, error) {
	pageNums := collectAllPageNumbers(pageImages, layers)
	pages := make([]PageResult, len(pageNums))

	workers := p.config.MaxWorkers
	if workers <= 0 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var mu sync.Mutex
	for i, pageNum := range pageNums {
		imgs := pageImages[pageNum]
		pages[i] = PageResult{
			PageNumber: pageNum,
			Images:     make([]ImageResult, len(imgs)),
			TextLayer:  layers[pageNum],
		}
		for j, img := range imgs {
			b := img.Bounds()
			slot := &pages[i].Images[j]
			slot.ImageIndex = j + 1
			slot.Width, slot.Height = b.Dx(), b.Dy()

			name := fmt.Sprintf("%s#page=%d&image=%d", filename, pageNum, j+1)
			g.Go(func() error {
				res, err := p.analyzer.AnalyzeImage(gctx, name, img)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					if gctx.Err() != nil {
						return err
					}
					slot.Err = err
					slot.Error = scan.UserMessage(err)
					slog.Warn("page image failed", "file", filename, "page", pageNum, "image", j+1, "error", err)
					return nil
				}
				slot.Result = res
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return pages, nil
}

func collectAllPageNumbers(pageImages map[int][]image.Image, layers map[int]string) []int {
	set := make(map[int]struct{}, len(pageImages)+len(layers))
	for n := range pageImages {
		set[n] = struct{}{}
	}
	for n := range layers {
		set[n] = struct{}{}
	}
	out := make([]int, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}
