package capture

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/MeKo-Tech/handscan/internal/encoder"
)

// timestampLayout yields names like 2024-05-01-13-45-07; milliseconds are
// appended separately because Go layouts only allow them after '.' or ','.
const timestampLayout = "2006-01-02-15-04-05"

// PhotoName returns the store file name for a photo taken at t, e.g.
// "2024-05-01-13-45-07-123.jpg".
func PhotoName(t time.Time, ext string) string {
	if ext == "" {
		ext = ".jpg"
	}
	return fmt.Sprintf("%s-%03d%s", t.Format(timestampLayout), t.Nanosecond()/int(time.Millisecond), ext)
}

// Store is a directory of timestamped photos.
type Store struct {
	Dir string
	// Now defaults to time.Now.
	Now func() time.Time
}

// NewStore returns a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{Dir: dir, Now: time.Now}
}

func (s *Store) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// Ensure creates the store directory when missing.
func (s *Store) Ensure() error {
	if s.Dir == "" {
		return &CaptureError{Op: "store", Err: errors.New("output directory is not configured")}
	}
	if err := os.MkdirAll(s.Dir, 0o750); err != nil {
		return storeError(s.Dir, err)
	}
	return nil
}

// NextPath reserves a timestamped path for a new photo with extension ext.
func (s *Store) NextPath(ext string) (string, time.Time, error) {
	if err := s.Ensure(); err != nil {
		return "", time.Time{}, err
	}
	t := s.now()
	return filepath.Join(s.Dir, PhotoName(t, strings.ToLower(ext))), t, nil
}

// Latest returns the newest photo in the store.
func (s *Store) Latest() (Photo, error) {
	return Latest(s.Dir)
}

// Latest returns the most recently modified image in dir. Ties are broken by
// file name, which sorts chronologically for store names.
func Latest(dir string) (Photo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Photo{}, ErrNoCapture
		}
		return Photo{}, storeError(dir, err)
	}

	var photos []Photo
	for _, e := range entries {
		if e.IsDir() || !encoder.IsSupportedImage(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil || info.Size() == 0 {
			continue
		}
		photos = append(photos, Photo{
			Path:    filepath.Join(dir, e.Name()),
			Size:    info.Size(),
			TakenAt: info.ModTime(),
		})
	}
	if len(photos) == 0 {
		return Photo{}, ErrNoCapture
	}

	sort.Slice(photos, func(i, j int) bool {
		if !photos[i].TakenAt.Equal(photos[j].TakenAt) {
			return photos[i].TakenAt.After(photos[j].TakenAt)
		}
		return photos[i].Path > photos[j].Path
	})
	return photos[0], nil
}

func storeError(path string, err error) error {
	if errors.Is(err, fs.ErrPermission) {
		return &CaptureError{Op: "store", Path: path, Err: fmt.Errorf("%w: %w", ErrPermissionDenied, err)}
	}
	return &CaptureError{Op: "store", Path: path, Err: err}
}

// statPhoto checks a freshly written photo.
func statPhoto(path string, takenAt time.Time) (Photo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Photo{}, &CaptureError{Op: "verify", Path: path, Err: err}
	}
	if info.Size() == 0 {
		_ = os.Remove(path)
		return Photo{}, &CaptureError{Op: "verify", Path: path, Err: errors.New("captured file is empty")}
	}
	return Photo{Path: path, Size: info.Size(), TakenAt: takenAt}, nil
}
