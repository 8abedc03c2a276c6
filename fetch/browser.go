package fetch

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/seo-compare/engine/logging"
)

// navMetricsJS collects navigation timing plus buffered LCP and layout-shift
// entries. The short settle lets buffered observer callbacks fire before the
// promise resolves.
const navMetricsJS = `new Promise(resolve => {
	const out = {ttfb: 0, load_time: 0, lcp: 0, cls: 0, js_kb: 0};
	const nav = performance.getEntriesByType('navigation')[0];
	if (nav) {
		out.ttfb = nav.responseStart - nav.startTime;
		out.load_time = (nav.loadEventEnd || nav.domContentLoadedEventEnd || 0) - nav.startTime;
	} else if (performance.timing && performance.timing.navigationStart) {
		const t = performance.timing;
		out.ttfb = t.responseStart - t.navigationStart;
		out.load_time = (t.loadEventEnd > 0 ? t.loadEventEnd : Date.now()) - t.navigationStart;
	}
	out.js_kb = performance.getEntriesByType('resource')
		.filter(r => r.initiatorType === 'script')
		.reduce((a, r) => a + (r.transferSize || 0), 0) / 1024;
	let lcp = 0, cls = 0;
	try {
		new PerformanceObserver(l => {
			const e = l.getEntries();
			if (e.length) lcp = e[e.length - 1].startTime;
		}).observe({type: 'largest-contentful-paint', buffered: true});
		new PerformanceObserver(l => {
			for (const e of l.getEntries()) if (!e.hadRecentInput) cls += e.value;
		}).observe({type: 'layout-shift', buffered: true});
	} catch (err) {}
	setTimeout(() => { out.lcp = lcp; out.cls = cls; resolve(out); }, 200);
})`

// BrowserOptions configures the rendering fetcher.
type BrowserOptions struct {
	Timeout time.Duration
	Settle  time.Duration // wait after body-ready for script-injected content
	MaxTabs int64
}

// Browser fetches pages through headless Chrome so script-injected titles,
// meta tags and content are visible to extraction. One Chrome process is
// shared; each Fetch opens its own tab, bounded by a semaphore because tabs
// are the expensive resource here.
type Browser struct {
	allocCtx context.Context
	cancel   context.CancelFunc
	tabs     *semaphore.Weighted
	timeout  time.Duration
	settle   time.Duration
	log      zerolog.Logger
}

// NewBrowser starts the shared Chrome allocator. Call Close when done.
func NewBrowser(opts BrowserOptions) *Browser {
	if opts.Timeout <= 0 {
		opts.Timeout = 25 * time.Second
	}
	if opts.Settle <= 0 {
		opts.Settle = 1500 * time.Millisecond
	}
	if opts.MaxTabs <= 0 {
		opts.MaxTabs = 4
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		// Image bytes are not needed: alt text and markup stay in the DOM.
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
		chromedp.UserAgent(userAgent),
	)
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)

	return &Browser{
		allocCtx: allocCtx,
		cancel:   cancel,
		tabs:     semaphore.NewWeighted(opts.MaxTabs),
		timeout:  opts.Timeout,
		settle:   opts.Settle,
		log:      logging.Component("browser"),
	}
}

// Close shuts the Chrome process down.
func (b *Browser) Close() {
	b.cancel()
}

// Fetch renders one page in its own tab.
func (b *Browser) Fetch(ctx context.Context, rawURL string) *PageResult {
	res := &PageResult{
		URL:       rawURL,
		FinalURL:  rawURL,
		FetchedAt: time.Now(),
		Metrics:   make(map[string]float64),
	}

	if err := b.tabs.Acquire(ctx, 1); err != nil {
		kind, reason := classifyNetErr(err)
		return res.fail(kind, reason)
	}
	defer b.tabs.Release(1)

	tabCtx, cancelTab := chromedp.NewContext(b.allocCtx)
	defer cancelTab()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, b.timeout)
	defer cancelTimeout()

	// Tab contexts descend from the allocator, not the caller; propagate
	// caller cancellation by hand.
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	resp, err := chromedp.RunResponse(tabCtx, chromedp.Navigate(rawURL))
	if err != nil {
		kind, reason := classifyBrowserErr(tabCtx, ctx, err)
		b.log.Debug().Str("url", rawURL).Str("kind", string(kind)).Msg("navigation failed")
		return res.fail(kind, reason)
	}
	if resp != nil {
		res.Status = int(resp.Status)
		res.FinalURL = resp.URL
	}

	var html string
	metrics := make(map[string]float64)
	err = chromedp.Run(tabCtx,
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(b.settle),
		chromedp.Evaluate(navMetricsJS, &metrics, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true)
		}),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil && html == "" {
		kind, reason := classifyBrowserErr(tabCtx, ctx, err)
		return res.fail(kind, reason)
	}

	res.HTML = html
	for k, v := range metrics {
		if v > 0 || k == MetricCLS {
			res.Metrics[k] = v
		}
	}
	return res
}

func classifyBrowserErr(tabCtx, callerCtx context.Context, err error) (ErrKind, string) {
	switch {
	case callerCtx.Err() != nil:
		return ErrCanceled, "fetch canceled"
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(tabCtx.Err(), context.DeadlineExceeded):
		return ErrTimeout, "page render timed out"
	}
	msg := err.Error()
	if strings.Contains(msg, "net::ERR_NAME_NOT_RESOLVED") ||
		strings.Contains(msg, "net::ERR_CONNECTION_REFUSED") ||
		strings.Contains(msg, "net::ERR_ADDRESS_UNREACHABLE") ||
		strings.Contains(msg, "net::ERR_CONNECTION_TIMED_OUT") {
		return ErrUnreachable, msg
	}
	return ErrProtocol, msg
}
