// Package fetch retrieves rendered pages and site-level evidence for the
// analysis pipeline. Two fetchers implement the same contract: a headless
// browser that executes client-side script, and a plain HTTP client used for
// probes and lighter deployments. Fetch failures are carried in the result,
// never raised, so a crawl can skip a bad page and continue.
package fetch

import (
	"context"
	"time"
)

// ErrKind classifies a failed fetch.
type ErrKind string

const (
	ErrNone        ErrKind = ""
	ErrTimeout     ErrKind = "timeout"
	ErrUnreachable ErrKind = "unreachable"
	ErrCanceled    ErrKind = "canceled"
	ErrProtocol    ErrKind = "protocol"
	ErrNotHTML     ErrKind = "not_html"
	ErrTooLarge    ErrKind = "too_large"
)

// Metric keys reported by fetchers. Times are in milliseconds, sizes in
// kilobytes. A fetcher reports only the metrics it can measure.
const (
	MetricTTFB = "ttfb"
	MetricLoad = "load_time"
	MetricLCP  = "lcp"
	MetricCLS  = "cls"
	MetricJSKB = "js_kb"
)

// PageResult is the outcome of fetching one page. Links and ExternalHosts
// are filled in by the crawler after it parses the document.
type PageResult struct {
	URL      string `json:"url"`
	FinalURL string `json:"final_url"`
	Status   int    `json:"status"`
	Depth    int    `json:"depth"`
	HTML     string `json:"-"`

	Metrics map[string]float64 `json:"metrics,omitempty"`

	Links         []string `json:"-"`
	ExternalHosts []string `json:"-"`

	FetchedAt time.Time `json:"fetched_at"`

	ErrKind ErrKind `json:"error_kind,omitempty"`
	Reason  string  `json:"error,omitempty"`
}

// Failed reports whether the fetch itself failed. A page that answered with
// an error status (404, 500) did not fail; its status is evidence.
func (r *PageResult) Failed() bool {
	return r.ErrKind != ErrNone
}

func (r *PageResult) fail(kind ErrKind, reason string) *PageResult {
	r.ErrKind = kind
	r.Reason = reason
	return r
}

// Metric returns a measured value and whether the fetcher reported it.
func (r *PageResult) Metric(key string) (float64, bool) {
	if r.Metrics == nil {
		return 0, false
	}
	v, ok := r.Metrics[key]
	return v, ok
}

// Fetcher retrieves one page. Implementations must honor ctx cancellation
// and enforce their own per-page timeout.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) *PageResult
}
