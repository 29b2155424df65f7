// Package batch analyzes many photos with bounded parallelism.
package batch

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNoImages is returned when discovery finds nothing to process.
var ErrNoImages = errors.New("no image files found")

// Result holds the result of batch processing.
type Result struct {
	Items       []Item        `json:"images"`
	Duration    time.Duration `json:"-"`
	WorkerCount int           `json:"workers"`
}

// Stats summarises a batch.
type Stats struct {
	Total            int
	Processed        int
	Failed           int
	NoText           int
	Duration         time.Duration
	AveragePerImage  time.Duration
	ThroughputPerSec float64
}

// ProcessBatch discovers images under args and analyzes them.
func ProcessBatch(ctx context.Context, analyzer FileAnalyzer, args []string, config *Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	files, err := DiscoverImageFiles(args, config.Recursive, config.IncludePatterns, config.ExcludePatterns)
	if err != nil {
		return nil, fmt.Errorf("failed to discover image files: %w", err)
	}
	if len(files) == 0 {
		return nil, ErrNoImages
	}

	start := time.Now()
	items, err := processFiles(ctx, analyzer, files, config.Workers, config.FailFast, config.Progress)
	res := &Result{Items: items, Duration: time.Since(start), WorkerCount: config.Workers}
	if err != nil {
		return res, fmt.Errorf("batch processing failed: %w", err)
	}
	return res, nil
}

// Stats computes processing statistics.
func (r *Result) Stats() Stats {
	s := Stats{Total: len(r.Items), Duration: r.Duration}
	for _, it := range r.Items {
		switch {
		case it.Err != nil:
			s.Failed++
		case it.Result != nil:
			s.Processed++
			if it.Result.NoText {
				s.NoText++
			}
		}
	}
	if s.Processed > 0 {
		s.AveragePerImage = r.Duration / time.Duration(s.Processed)
	}
	if secs := r.Duration.Seconds(); secs > 0 {
		s.ThroughputPerSec = float64(s.Processed) / secs
	}
	return s
}

// Failed reports whether any item failed.
func (r *Result) Failed() bool {
	for _, it := range r.Items {
		if it.Err != nil {
			return true
		}
	}
	return false
}
