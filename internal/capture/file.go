package capture

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/MeKo-Tech/handscan/internal/encoder"
)

// FileSource "captures" by importing an existing image into the store.
type FileSource struct {
	Path  string
	Store *Store
}

func (s *FileSource) Capture(ctx context.Context) (Photo, error) {
	if err := ctx.Err(); err != nil {
		return Photo{}, &CaptureError{Op: "import", Path: s.Path, Err: err}
	}
	if !encoder.IsSupportedImage(s.Path) {
		return Photo{}, &CaptureError{Op: "import", Path: s.Path, Err: fmt.Errorf("unsupported image type %q", filepath.Ext(s.Path))}
	}

	src, err := os.Open(s.Path)
	if err != nil {
		return Photo{}, &CaptureError{Op: "import", Path: s.Path, Err: err}
	}
	defer func() { _ = src.Close() }()

	path, takenAt, err := s.Store.NextPath(filepath.Ext(s.Path))
	if err != nil {
		return Photo{}, err
	}
	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600) //nolint:gosec // G304: path built by the store
	if err != nil {
		return Photo{}, storeError(path, err)
	}

	if _, err := io.Copy(dst, readerWithContext(ctx, src)); err != nil {
		_ = dst.Close()
		_ = os.Remove(path)
		return Photo{}, &CaptureError{Op: "import", Path: s.Path, Err: err}
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(path)
		return Photo{}, &CaptureError{Op: "import", Path: path, Err: err}
	}

	return statPhoto(path, takenAt)
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

func readerWithContext(ctx context.Context, r io.Reader) io.Reader {
	return ctxReader{ctx: ctx, r: r}
}
