// Package capture produces photos on disk for analysis, either by running a
// camera command or by importing an existing image file.
package capture

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNoCapture means no photo has been captured yet.
	ErrNoCapture = errors.New("no captured photo")
	// ErrPermissionDenied means the photo store could not be written.
	ErrPermissionDenied = errors.New("capture permission denied")
)

// Photo is a captured image stored on disk.
type Photo struct {
	Path    string
	Size    int64
	TakenAt time.Time
}

// Source produces one photo per call. Implementations must stop and clean
// up when ctx is cancelled.
type Source interface {
	Capture(ctx context.Context) (Photo, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (Photo, error)

func (f SourceFunc) Capture(ctx context.Context) (Photo, error) { return f(ctx) }

// CaptureError reports a failed capture.
type CaptureError struct {
	Op   string
	Path string
	Err  error
}

func (e *CaptureError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("capture %s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("capture %s: %v", e.Op, e.Err)
}

func (e *CaptureError) Unwrap() error { return e.Err }
