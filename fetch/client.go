package fetch

import (
	"compress/gzip"
	"context"
	"errors"
	"io"
	"mime"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/html/charset"

	"github.com/seo-compare/engine/logging"
)

const (
	defaultSizeCap = int64(10 << 20)

	// Desktop Chrome UA. Sites that sniff user agents serve the same
	// markup a dashboard user would see.
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Client is the plain HTTP fetcher. It does not execute script, so it is
// used for site probes and as a lightweight fetch mode; timing metrics are
// limited to TTFB and total transfer time.
type Client struct {
	// HTTPClient is exported so tests can swap in a transport that trusts
	// a local TLS server.
	HTTPClient *http.Client

	sizeCap int64
	log     zerolog.Logger
}

// NewClient builds a fetcher with a tuned transport. timeout bounds the
// whole request including body read.
func NewClient(timeout time.Duration) *Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &Client{
		HTTPClient: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		sizeCap: defaultSizeCap,
		log:     logging.Component("fetch"),
	}
}

// Fetch retrieves one page over plain HTTP.
func (c *Client) Fetch(ctx context.Context, rawURL string) *PageResult {
	res := &PageResult{
		URL:       rawURL,
		FinalURL:  rawURL,
		FetchedAt: time.Now(),
		Metrics:   make(map[string]float64),
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return res.fail(ErrProtocol, err.Error())
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		kind, reason := classifyNetErr(err)
		c.log.Debug().Str("url", rawURL).Str("kind", string(kind)).Msg("fetch failed")
		return res.fail(kind, reason)
	}
	defer resp.Body.Close()

	ttfb := time.Since(start)
	res.Status = resp.StatusCode
	res.FinalURL = resp.Request.URL.String()

	contentType := resp.Header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if mediaType != "" && !strings.Contains(mediaType, "text/html") && !strings.Contains(mediaType, "application/xhtml+xml") {
		return res.fail(ErrNotHTML, "content type "+mediaType)
	}

	var body io.Reader = resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return res.fail(ErrProtocol, "gzip: "+err.Error())
		}
		defer gz.Close()
		body = gz
	}

	raw, err := io.ReadAll(io.LimitReader(body, c.sizeCap+1))
	if err != nil {
		kind, reason := classifyNetErr(err)
		return res.fail(kind, reason)
	}
	if int64(len(raw)) > c.sizeCap {
		return res.fail(ErrTooLarge, "response body over size cap")
	}

	res.HTML = decodeHTML(raw, contentType)
	res.Metrics[MetricTTFB] = float64(ttfb.Milliseconds())
	res.Metrics[MetricLoad] = float64(time.Since(start).Milliseconds())
	return res
}

// decodeHTML converts a response body to UTF-8 using the declared or
// sniffed charset. On decode failure the raw bytes are used as-is.
func decodeHTML(raw []byte, contentType string) string {
	enc, _, _ := charset.DetermineEncoding(raw, contentType)
	decoded, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(decoded)
}

func classifyNetErr(err error) (ErrKind, string) {
	switch {
	case errors.Is(err, context.Canceled):
		return ErrCanceled, "fetch canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return ErrTimeout, "fetch timed out"
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return ErrTimeout, "fetch timed out: " + err.Error()
	}
	return ErrUnreachable, err.Error()
}
