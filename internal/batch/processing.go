package batch

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/MeKo-Tech/handscan/internal/scan"
	"golang.org/x/sync/errgroup"
)

// FileAnalyzer analyzes one file. *scan.Analyzer satisfies it.
type FileAnalyzer interface {
	AnalyzeFile(ctx context.Context, path string) (*scan.Result, error)
}

// Item is the outcome for one file. Exactly one of Result and Err is set;
// files never started because the batch stopped carry a context error.
type Item struct {
	Path    string       `json:"file"`
	Result  *scan.Result `json:"result,omitempty"`
	Err     error        `json:"-"`
	Message string       `json:"error,omitempty"`
}

// processFiles analyzes files with at most workers in flight. Items keep the
// order of files. With failFast the first error cancels the rest and is
// returned; otherwise failures are recorded per item.
func processFiles(ctx context.Context, analyzer FileAnalyzer, files []string, workers int, failFast bool,
	progress func(done, total int, item Item),
) ([]Item, error) {
	items := make([]Item, len(files))
	for i, f := range files {
		items[i].Path = f
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var (
		done       atomic.Int64
		progressMu sync.Mutex
	)

	for i := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			item := &items[i]
			res, err := analyzer.AnalyzeFile(gctx, item.Path)
			if err != nil {
				item.Err = err
				item.Message = scan.UserMessage(err)
				slog.Warn("file failed", "file", item.Path, "error", err)
			} else {
				item.Result = res
			}

			n := int(done.Add(1))
			if progress != nil {
				progressMu.Lock()
				progress(n, len(files), *item)
				progressMu.Unlock()
			}

			if err != nil && failFast {
				return err
			}
			return nil
		})
	}

	err := g.Wait()

	skipped := ctx.Err()
	if skipped == nil {
		skipped = context.Canceled
	}
	for i := range items {
		if items[i].Result == nil && items[i].Err == nil {
			items[i].Err = skipped
			items[i].Message = scan.UserMessage(skipped)
		}
	}

	if err != nil {
		return items, err
	}
	// Caller cancellation without failFast still surfaces.
	return items, ctx.Err()
}
