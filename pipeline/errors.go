package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/seo-compare/engine/crawler"
)

// Fatal run failures. Per-page and per-parameter faults never surface
// here; they degrade the data instead.
var (
	// ErrNoBaseline means a comparison was requested before any baseline
	// extraction ran.
	ErrNoBaseline = errors.New("baseline not computed")

	// ErrUnreachable means the competitor's root URL could not be fetched.
	ErrUnreachable = errors.New("site unreachable")

	// ErrCrawlAborted means the crawl stopped before completion, usually
	// because the caller went away.
	ErrCrawlAborted = errors.New("crawl aborted")

	// ErrTimeout means the run exceeded the pipeline deadline. Callers
	// surface this distinctly so users can retry with a smaller site.
	ErrTimeout = errors.New("analysis timed out")

	// ErrBusy means a baseline extraction is already in flight.
	ErrBusy = errors.New("baseline extraction already running")
)

// classifyCrawlError folds a crawler failure into the run taxonomy.
// runCtx is the pipeline-deadline context; when its deadline fired the
// failure is a timeout no matter how the crawler reported it.
func classifyCrawlError(runCtx context.Context, err error) error {
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var rootErr *crawler.RootError
	if errors.As(err, &rootErr) {
		return fmt.Errorf("%w: %s", ErrUnreachable, rootErr.Reason)
	}
	return fmt.Errorf("%w: %v", ErrCrawlAborted, err)
}
