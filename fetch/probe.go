package fetch

import (
	"context"
	"encoding/xml"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const probeBodyCap = int64(2 << 20)

// SiteProbe is the site-level evidence gathered before a crawl: robots and
// sitemap state, protocol hygiene and TLS health. Probe failures degrade to
// negative evidence; they never abort a run.
type SiteProbe struct {
	RobotsTxt        bool   `json:"robots_txt"`
	RobotsHasSitemap bool   `json:"robots_has_sitemap"`
	Sitemap          bool   `json:"sitemap"`
	SitemapValid     bool   `json:"sitemap_valid"`
	SitemapURLs      int    `json:"sitemap_urls"`
	HTTPSRedirect    bool   `json:"https_redirect"`
	WWWConsistent    bool   `json:"www_consistent"`
	TLSValid         bool   `json:"tls_valid"`
	FinalScheme      string `json:"final_scheme"`
}

type sitemapDoc struct {
	XMLName xml.Name
	URLs    []struct {
		Loc string `xml:"loc"`
	} `xml:"url"`
	Sitemaps []struct {
		Loc string `xml:"loc"`
	} `xml:"sitemap"`
}

// ProbeSite gathers site-level evidence for rootURL using the plain HTTP
// client.
func ProbeSite(ctx context.Context, c *Client, rootURL string) *SiteProbe {
	probe := &SiteProbe{}

	root, err := url.Parse(rootURL)
	if err != nil || root.Host == "" {
		return probe
	}
	origin := root.Scheme + "://" + root.Host

	// Root reachability, final scheme and TLS health in one request.
	_, _, finalURL, rootErr := c.probeGet(ctx, origin+"/")
	canonicalHost := root.Host
	if rootErr == nil {
		probe.FinalScheme = finalURL.Scheme
		canonicalHost = finalURL.Host
		if finalURL.Scheme == "https" {
			probe.TLSValid = true
		}
	}

	probe.probeRobots(ctx, c, origin)
	probe.probeSitemap(ctx, c, origin)
	probe.probeHTTPSRedirect(ctx, c, root)
	probe.probeWWW(ctx, c, root, canonicalHost)

	return probe
}

func (p *SiteProbe) probeRobots(ctx context.Context, c *Client, origin string) {
	status, body, _, err := c.probeGet(ctx, origin+"/robots.txt")
	if err != nil || status != http.StatusOK {
		return
	}
	p.RobotsTxt = true
	for _, line := range strings.Split(string(body), "\n") {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), "sitemap:") {
			p.RobotsHasSitemap = true
			break
		}
	}
}

func (p *SiteProbe) probeSitemap(ctx context.Context, c *Client, origin string) {
	status, body, _, err := c.probeGet(ctx, origin+"/sitemap.xml")
	if err != nil || status != http.StatusOK {
		return
	}
	p.Sitemap = true

	var doc sitemapDoc
	if err := xml.Unmarshal(body, &doc); err != nil {
		return
	}
	name := doc.XMLName.Local
	if name != "urlset" && name != "sitemapindex" {
		return
	}
	count := len(doc.URLs) + len(doc.Sitemaps)
	if count == 0 {
		return
	}
	p.SitemapValid = true
	p.SitemapURLs = count
}

// probeHTTPSRedirect checks whether a plain-HTTP request ends up on HTTPS.
func (p *SiteProbe) probeHTTPSRedirect(ctx context.Context, c *Client, root *url.URL) {
	if root.Scheme != "https" {
		return
	}
	_, _, finalURL, err := c.probeGet(ctx, "http://"+root.Host+"/")
	if err != nil {
		return
	}
	p.HTTPSRedirect = finalURL.Scheme == "https"
}

// probeWWW checks that the www and bare-host variants consolidate onto one
// canonical host. A variant that does not resolve at all is not a split.
func (p *SiteProbe) probeWWW(ctx context.Context, c *Client, root *url.URL, canonicalHost string) {
	host := root.Hostname()
	if host == "localhost" || net.ParseIP(host) != nil || !strings.Contains(host, ".") {
		p.WWWConsistent = true
		return
	}

	alt := "www." + host
	if strings.HasPrefix(host, "www.") {
		alt = strings.TrimPrefix(host, "www.")
	}
	if port := root.Port(); port != "" {
		alt = alt + ":" + port
	}

	_, _, finalURL, err := c.probeGet(ctx, root.Scheme+"://"+alt+"/")
	if err != nil {
		p.WWWConsistent = true
		return
	}
	p.WWWConsistent = finalURL.Host == canonicalHost
}

func (c *Client) probeGet(ctx context.Context, rawURL string) (int, []byte, *url.URL, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, nil, nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, probeBodyCap))
	if err != nil {
		return resp.StatusCode, nil, resp.Request.URL, err
	}
	return resp.StatusCode, body, resp.Request.URL, nil
}
