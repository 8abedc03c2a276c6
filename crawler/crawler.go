// Package crawler walks a site breadth-first from a root URL, bounded by
// depth and page caps, and collects per-page fetch results for analysis.
package crawler

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/seo-compare/engine/fetch"
	"github.com/seo-compare/engine/logging"
)

const maxLinksPerPage = 200

// skipExt lists path suffixes that are never HTML pages.
var skipExt = []string{
	".pdf", ".jpg", ".jpeg", ".png", ".gif", ".svg", ".webp", ".ico",
	".css", ".js", ".mjs", ".zip", ".gz", ".mp4", ".webm", ".mp3",
	".woff", ".woff2", ".ttf", ".eot", ".xml", ".json", ".txt",
}

// Options bound a crawl. Zero values fall back to conservative defaults.
type Options struct {
	MaxDepth    int // link hops from the root, root is depth 0
	MaxPages    int // total fetch attempts, successes and failures both count
	Concurrency int // parallel fetches within one depth level
}

func (o Options) withDefaults() Options {
	if o.MaxDepth <= 0 {
		o.MaxDepth = 3
	}
	if o.MaxPages <= 0 {
		o.MaxPages = 25
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 4
	}
	return o
}

// PageEvent reports one fetch attempt while a crawl is running. Events are
// delivered sequentially from the crawl goroutine.
type PageEvent struct {
	URL     string
	Depth   int
	Status  int
	Failed  bool
	Fetched int // attempts so far, this one included
	Budget  int // the crawl's MaxPages cap
}

// Result holds everything a crawl produced.
type Result struct {
	RootURL    string
	Pages      []*fetch.PageResult // successful fetches in crawl order
	Failed     []*fetch.PageResult // absorbed per-page failures
	Discovered int                 // unique in-scope URLs seen, fetched or not
	MaxDepth   int                 // deepest level actually fetched
}

// RootError reports that the crawl entry point itself could not be fetched.
type RootError struct {
	Kind   fetch.ErrKind
	Reason string
}

func (e *RootError) Error() string {
	return fmt.Sprintf("root fetch failed (%s): %s", e.Kind, e.Reason)
}

type Crawler struct {
	fetcher fetch.Fetcher
	opts    Options
	log     zerolog.Logger
}

func New(f fetch.Fetcher, opts Options) *Crawler {
	return &Crawler{
		fetcher: f,
		opts:    opts.withDefaults(),
		log:     logging.Component("crawler"),
	}
}

type frontierItem struct {
	raw   string
	depth int
}

// Crawl walks the site under rootURL breadth-first. Individual page failures
// are absorbed into the result. Only an unfetchable root or a canceled
// context abort the crawl; an aborted crawl still returns what it gathered.
func (c *Crawler) Crawl(ctx context.Context, rootURL string, onPage func(PageEvent)) (*Result, error) {
	root, err := url.Parse(strings.TrimSpace(rootURL))
	if err != nil || root.Scheme == "" || root.Host == "" {
		return nil, fmt.Errorf("invalid root url %q", rootURL)
	}

	res := &Result{RootURL: root.String()}
	visited := map[string]bool{Normalize(root): true}

	rootPage := c.fetcher.Fetch(ctx, root.String())
	rootPage.Depth = 0
	attempted := 1
	c.emit(onPage, rootPage, attempted)

	if rootPage.Failed() {
		res.Failed = append(res.Failed, rootPage)
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("crawl aborted: %w", err)
		}
		return res, &RootError{Kind: rootPage.ErrKind, Reason: rootPage.Reason}
	}

	// Redirects can move a site onto its canonical host; scope follows it.
	scopeHost := root.Hostname()
	if fu, err := url.Parse(rootPage.FinalURL); err == nil && fu.Host != "" {
		scopeHost = fu.Hostname()
		visited[Normalize(fu)] = true
	}

	c.harvest(rootPage, scopeHost)
	res.Pages = append(res.Pages, rootPage)

	frontier := c.advance(rootPage.Links, 1, visited)

	for depth := 1; depth <= c.opts.MaxDepth && len(frontier) > 0; depth++ {
		budget := c.opts.MaxPages - attempted
		if budget <= 0 {
			break
		}
		if len(frontier) > budget {
			frontier = frontier[:budget]
		}

		var mu sync.Mutex
		level := make([]*fetch.PageResult, 0, len(frontier))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(c.opts.Concurrency)
		for _, it := range frontier {
			it := it
			g.Go(func() error {
				pr := c.fetcher.Fetch(gctx, it.raw)
				pr.Depth = it.depth
				if !pr.Failed() {
					c.harvest(pr, scopeHost)
				}
				mu.Lock()
				level = append(level, pr)
				mu.Unlock()
				return nil
			})
		}
		g.Wait()

		var next []frontierItem
		for _, pr := range level {
			attempted++
			c.emit(onPage, pr, attempted)
			if pr.Failed() {
				res.Failed = append(res.Failed, pr)
				continue
			}
			res.Pages = append(res.Pages, pr)
			if pr.Depth > res.MaxDepth {
				res.MaxDepth = pr.Depth
			}
			next = append(next, c.advance(pr.Links, depth+1, visited)...)
		}

		if err := ctx.Err(); err != nil {
			res.Discovered = len(visited)
			return res, fmt.Errorf("crawl aborted: %w", err)
		}
		frontier = next
	}

	res.Discovered = len(visited)
	c.log.Info().
		Str("root", res.RootURL).
		Int("pages", len(res.Pages)).
		Int("failed", len(res.Failed)).
		Int("discovered", res.Discovered).
		Int("max_depth", res.MaxDepth).
		Msg("Crawl finished")
	return res, nil
}

// advance records links as discovered and returns frontier items for the
// next depth. Links past MaxDepth are still counted as discovered.
func (c *Crawler) advance(links []string, depth int, visited map[string]bool) []frontierItem {
	var out []frontierItem
	for _, link := range links {
		lu, err := url.Parse(link)
		if err != nil {
			continue
		}
		key := Normalize(lu)
		if visited[key] {
			continue
		}
		visited[key] = true
		if depth <= c.opts.MaxDepth {
			out = append(out, frontierItem{raw: link, depth: depth})
		}
	}
	return out
}

// harvest fills the page's in-scope links and external hosts from its HTML.
// Queries are kept on links so URL hygiene signals can inspect them.
func (c *Crawler) harvest(pr *fetch.PageResult, scopeHost string) {
	baseRaw := pr.FinalURL
	if baseRaw == "" {
		baseRaw = pr.URL
	}
	base, err := url.Parse(baseRaw)
	if err != nil {
		return
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pr.HTML))
	if err != nil {
		c.log.Debug().Str("url", pr.URL).Err(err).Msg("Could not parse page for links")
		return
	}

	seen := make(map[string]bool)
	extSeen := make(map[string]bool)
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") ||
			strings.HasPrefix(href, "javascript:") ||
			strings.HasPrefix(href, "mailto:") ||
			strings.HasPrefix(href, "tel:") {
			return
		}
		resolved, err := base.Parse(href)
		if err != nil || (resolved.Scheme != "http" && resolved.Scheme != "https") {
			return
		}
		resolved.Fragment = ""

		if !inScope(resolved.Hostname(), scopeHost) {
			host := strings.ToLower(resolved.Hostname())
			if host != "" && !extSeen[host] {
				extSeen[host] = true
				pr.ExternalHosts = append(pr.ExternalHosts, host)
			}
			return
		}
		if skippableAsset(resolved.Path) {
			return
		}
		raw := resolved.String()
		if !seen[raw] && len(pr.Links) < maxLinksPerPage {
			seen[raw] = true
			pr.Links = append(pr.Links, raw)
		}
	})
}

func (c *Crawler) emit(onPage func(PageEvent), pr *fetch.PageResult, fetched int) {
	if onPage == nil {
		return
	}
	onPage(PageEvent{
		URL:     pr.URL,
		Depth:   pr.Depth,
		Status:  pr.Status,
		Failed:  pr.Failed(),
		Fetched: fetched,
		Budget:  c.opts.MaxPages,
	})
}

// inScope reports whether host belongs to the crawled site. The bare domain
// and its subdomains count; a www prefix is ignored on both sides.
func inScope(host, root string) bool {
	h := strings.ToLower(strings.TrimPrefix(host, "www."))
	r := strings.ToLower(strings.TrimPrefix(root, "www."))
	if h == "" || r == "" {
		return false
	}
	return h == r || strings.HasSuffix(h, "."+r)
}

// Normalize reduces a URL to its dedup key: lowercased scheme and host,
// default ports stripped, no query or fragment, no trailing slash. Site
// health rules use the same key to match links against fetched pages.
func Normalize(u *url.URL) string {
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	if p := u.Port(); p != "" {
		if !(scheme == "http" && p == "80") && !(scheme == "https" && p == "443") {
			host += ":" + p
		}
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	return scheme + "://" + host + path
}

func skippableAsset(path string) bool {
	p := strings.ToLower(path)
	for _, ext := range skipExt {
		if strings.HasSuffix(p, ext) {
			return true
		}
	}
	return false
}
