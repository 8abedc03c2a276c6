package analyzer

import (
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/seo-compare/engine/crawler"
	"github.com/seo-compare/engine/fetch"
	"github.com/seo-compare/engine/logging"
	"github.com/seo-compare/engine/schema"
)

// siteEvaluation folds crawl-wide evidence into the site-scoped signals.
type siteEvaluation struct {
	crawl *crawler.Result
	pages []*PageSignals
	probe *fetch.SiteProbe
	est   Estimates
	sig   map[string]Signal
	log   zerolog.Logger

	rawLinks map[string]bool  // every distinct in-scope link, raw form
	variants map[string]int   // dedup key -> distinct raw variants
	inlinks  map[string]int   // dedup key -> pages linking to it
	keysOf   map[*PageSignals][]string
	status   map[string]int   // dedup key -> HTTP status of fetched page
	broken   map[string]bool  // dedup keys that failed to fetch
}

func siteSignals(crawl *crawler.Result, pages []*PageSignals, probe *fetch.SiteProbe, est Estimates) map[string]Signal {
	s := &siteEvaluation{
		crawl:    crawl,
		pages:    pages,
		probe:    probe,
		est:      est,
		sig:      make(map[string]Signal, 40),
		log:      logging.Component("analyzer"),
		rawLinks: make(map[string]bool),
		variants: make(map[string]int),
		inlinks:  make(map[string]int),
		keysOf:   make(map[*PageSignals][]string),
		status:   make(map[string]int),
		broken:   make(map[string]bool),
	}
	s.digest()

	s.safely("authority", s.authoritySignals)
	s.safely("crawlability", s.crawlabilitySignals)
	s.safely("url-hygiene", s.urlHygieneSignals)
	s.safely("content", s.contentRollups)
	s.safely("link-graph", s.linkGraphSignals)
	s.safely("health", s.healthSignals)

	for _, p := range std.Params() {
		if p.Scope != schema.ScopeSite {
			continue
		}
		if _, ok := s.sig[p.ID]; !ok {
			s.sig[p.ID] = Signal{NA: true, Note: "rule produced no value"}
		}
	}
	return s.sig
}

func (s *siteEvaluation) safely(group string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Warn().
				Str("group", group).
				Interface("panic", r).
				Msg("Site rule group panicked")
		}
	}()
	fn()
}

// digest builds the cross-page link and status indexes the rules share.
func (s *siteEvaluation) digest() {
	variantSeen := make(map[string]map[string]bool)

	for _, ps := range s.pages {
		var keys []string
		for _, raw := range []string{ps.URL, ps.FinalURL} {
			if k := normKey(raw); k != "" {
				keys = append(keys, k)
				s.status[k] = ps.Status
			}
		}
		s.keysOf[ps] = keys
	}
	if s.crawl != nil {
		for _, pr := range s.crawl.Failed {
			if k := normKey(pr.URL); k != "" {
				s.broken[k] = true
			}
		}
	}

	for _, ps := range s.pages {
		own := make(map[string]bool, len(s.keysOf[ps]))
		for _, k := range s.keysOf[ps] {
			own[k] = true
		}
		for _, raw := range ps.Links {
			s.rawLinks[raw] = true
			k := normKey(raw)
			if k == "" {
				continue
			}
			if variantSeen[k] == nil {
				variantSeen[k] = make(map[string]bool)
			}
			variantSeen[k][raw] = true
			if !own[k] {
				s.inlinks[k]++
			}
		}
	}
	for k, set := range variantSeen {
		s.variants[k] = len(set)
	}
}

func normKey(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	return crawler.Normalize(u)
}

func (s *siteEvaluation) setBool(id string, v bool) {
	s.sig[id] = Signal{Value: schema.Value{Bool: v}}
}

func (s *siteEvaluation) setNum(id string, v float64) {
	s.sig[id] = Signal{Value: schema.Value{Num: v}}
}

func (s *siteEvaluation) setEnum(id, v string) {
	s.sig[id] = Signal{Value: schema.Value{Str: v}}
}

func (s *siteEvaluation) setNA(id, note string) {
	s.sig[id] = Signal{NA: true, Note: note}
}

func (s *siteEvaluation) authoritySignals() {
	estimate := func(id string, v *float64) {
		if v == nil {
			s.setNA(id, "no index data configured")
			return
		}
		s.setNum(id, *v)
	}
	estimate("domain_age", s.est.DomainAgeYears)
	estimate("domain_authority", s.est.DomainAuthority)
	estimate("total_backlinks", s.est.TotalBacklinks)
	estimate("referring_domains", s.est.ReferringDomains)
	estimate("organic_keywords", s.est.OrganicKeywords)

	if s.crawl != nil {
		s.setNum("indexed_pages", float64(s.crawl.Discovered))
	} else {
		s.setNA("indexed_pages", "no crawl data")
	}

	if s.est.TrustSignals != nil {
		s.setNum("domain_trust_signals", *s.est.TrustSignals)
	} else if rate, ok := s.passRate("irdai_registration", "legal_details", "privacy_policy_quality", "terms_conditions"); ok {
		// Without an external trust index, regulatory hygiene across the
		// crawl stands in for it.
		s.setNum("domain_trust_signals", rate)
	} else {
		s.setNA("domain_trust_signals", "no pages to derive trust from")
	}

	if s.probe == nil {
		s.setNA("https_status", "site probe unavailable")
		s.setNA("ssl_validity", "site probe unavailable")
		return
	}
	s.setBool("https_status", s.probe.FinalScheme == "https")
	s.setBool("ssl_validity", s.probe.TLSValid)
}

// passRate averages pass rates of the given boolean page parameters.
func (s *siteEvaluation) passRate(ids ...string) (float64, bool) {
	passed, valued := 0, 0
	for _, ps := range s.pages {
		for _, id := range ids {
			sig, ok := ps.Signals[id]
			if !ok || sig.NA {
				continue
			}
			valued++
			if sig.Bool {
				passed++
			}
		}
	}
	if valued == 0 {
		return 0, false
	}
	return float64(passed) / float64(valued) * 100, true
}

func (s *siteEvaluation) crawlabilitySignals() {
	if s.probe == nil {
		s.setNA("robots_txt_exists", "site probe unavailable")
		s.setNA("xml_sitemap_exists", "site probe unavailable")
		s.setNA("sitemap_validity", "site probe unavailable")
	} else {
		s.setBool("robots_txt_exists", s.probe.RobotsTxt)
		s.setBool("xml_sitemap_exists", s.probe.Sitemap)
		if !s.probe.Sitemap {
			s.setNA("sitemap_validity", "no sitemap to validate")
		} else {
			s.setBool("sitemap_validity", s.probe.SitemapValid)
		}
	}

	if s.crawl != nil {
		s.setNum("crawl_depth", float64(s.crawl.MaxDepth))
	} else {
		s.setNA("crawl_depth", "no crawl data")
	}

	orphans := 0
	for _, ps := range s.pages {
		if ps.Depth == 0 {
			continue
		}
		linked := false
		for _, k := range s.keysOf[ps] {
			if s.inlinks[k] > 0 {
				linked = true
				break
			}
		}
		if !linked {
			orphans++
		}
	}
	s.setNum("orphan_pages", float64(orphans))

	dupPatterns := 0
	extraVariants := 0
	for _, n := range s.variants {
		if n > 1 {
			dupPatterns++
			extraVariants += n - 1
		}
	}
	s.setNum("duplicate_url_patterns", float64(dupPatterns))

	params := 0
	for raw := range s.rawLinks {
		if strings.Contains(raw, "?") {
			params++
		}
	}
	s.setNum("parameterized_urls", float64(params))

	if len(s.rawLinks) == 0 {
		s.setNA("crawl_budget_waste", "no links discovered")
	} else {
		waste := float64(params+extraVariants) / float64(len(s.rawLinks)) * 100
		if waste > 100 {
			waste = 100
		}
		s.setNum("crawl_budget_waste", waste)
	}
}

func (s *siteEvaluation) urlHygieneSignals() {
	slash, noSlash := 0, 0
	for raw := range s.rawLinks {
		u, err := url.Parse(raw)
		if err != nil || len(u.Path) <= 1 {
			continue
		}
		if strings.HasSuffix(u.Path, "/") {
			slash++
		} else {
			noSlash++
		}
	}
	if slash+noSlash < 2 {
		s.setNum("trailing_slash_consistency", 100)
	} else {
		major := slash
		if noSlash > major {
			major = noSlash
		}
		s.setNum("trailing_slash_consistency", float64(major)/float64(slash+noSlash)*100)
	}

	if s.probe == nil {
		s.setNA("http_to_https_redirect", "site probe unavailable")
		s.setNA("www_vs_non_www", "site probe unavailable")
	} else {
		s.setBool("http_to_https_redirect", s.probe.HTTPSRedirect)
		s.setBool("www_vs_non_www", s.probe.WWWConsistent)
	}

	if len(s.rawLinks) == 0 {
		s.setNA("static_vs_dynamic_ratio", "no links discovered")
		return
	}
	static := 0
	for raw := range s.rawLinks {
		l := strings.ToLower(raw)
		if strings.Contains(l, "?") || strings.Contains(l, ".php") ||
			strings.Contains(l, ".asp") || strings.Contains(l, ".jsp") ||
			strings.Contains(l, ".cgi") {
			continue
		}
		static++
	}
	s.setNum("static_vs_dynamic_ratio", float64(static)/float64(len(s.rawLinks))*100)
}

func (s *siteEvaluation) contentRollups() {
	titles := make(map[string]int)
	hashes := make(map[string]int)
	blog := 0
	var newest time.Time
	info, trans := 0, 0
	infoWords := 0

	for _, ps := range s.pages {
		if ps.Title != "" {
			titles[ps.Title]++
		}
		if ps.ContentHash != "" {
			hashes[ps.ContentHash]++
		}
		if ps.BlogLike {
			blog++
		}
		if ps.NewestDate.After(newest) {
			newest = ps.NewestDate
		}
		switch ps.Intent {
		case "informational":
			info++
			infoWords += ps.WordCount
		case "transactional":
			trans++
		}
	}

	dupTitles := 0
	for _, n := range titles {
		if n > 1 {
			dupTitles += n - 1
		}
	}
	s.setNum("duplicate_titles", float64(dupTitles))

	if len(s.pages) == 0 {
		s.setNA("duplicate_content_signals", "no pages crawled")
	} else {
		dupPages := 0
		for _, n := range hashes {
			if n > 1 {
				dupPages += n
			}
		}
		s.setNum("duplicate_content_signals", float64(dupPages)/float64(len(s.pages))*100)
	}

	s.setNum("blog_volume", float64(blog))

	switch {
	case newest.IsZero():
		s.setEnum("update_frequency", "unknown")
	case time.Since(newest) <= 90*24*time.Hour:
		s.setEnum("update_frequency", "active")
	case time.Since(newest) <= 365*24*time.Hour:
		s.setEnum("update_frequency", "occasional")
	default:
		s.setEnum("update_frequency", "stale")
	}

	s.setNum("informational_pages", float64(info))
	s.setNum("transactional_pages", float64(trans))

	if len(s.pages) == 0 {
		s.setNA("intent_alignment_score", "no pages crawled")
	} else {
		s.setNum("intent_alignment_score", float64(info+trans)/float64(len(s.pages))*100)
	}

	if info == 0 {
		s.setNA("topic_depth", "no informational pages found")
	} else {
		s.setNum("topic_depth", float64(infoWords)/float64(info))
	}
}

func (s *siteEvaluation) linkGraphSignals() {
	orphanMoney := 0
	for _, ps := range s.pages {
		if ps.Intent != "transactional" || ps.Depth == 0 {
			continue
		}
		linked := false
		for _, k := range s.keysOf[ps] {
			if s.inlinks[k] > 0 {
				linked = true
				break
			}
		}
		if !linked {
			orphanMoney++
		}
	}
	s.setNum("orphan_money_pages", float64(orphanMoney))
}

func (s *siteEvaluation) healthSignals() {
	notFound := 0
	redirects := 0
	indexErrors := 0
	for _, ps := range s.pages {
		if ps.Status == 404 || ps.Status == 410 {
			notFound++
		}
		if redirected(ps) {
			redirects++
		}
		canonElsewhere := ps.Canonical != "" && normKey(ps.Canonical) != "" &&
			!containsKey(s.keysOf[ps], normKey(ps.Canonical))
		if ps.Noindex || ps.Status >= 400 || canonElsewhere {
			indexErrors++
		}
	}
	s.setNum("error_404_count", float64(notFound))
	s.setNum("redirect_chains", float64(redirects))
	s.setNum("simulated_index_errors", float64(indexErrors))

	brokenTargets := make(map[string]bool)
	for raw := range s.rawLinks {
		k := normKey(raw)
		if k == "" {
			continue
		}
		if s.broken[k] || s.status[k] >= 400 {
			brokenTargets[k] = true
		}
	}
	s.setNum("broken_links", float64(len(brokenTargets)))
}

func redirected(ps *PageSignals) bool {
	if ps.FinalURL == "" || ps.FinalURL == ps.URL {
		return false
	}
	return normKey(ps.URL) != normKey(ps.FinalURL)
}

func containsKey(keys []string, k string) bool {
	for _, have := range keys {
		if have == k {
			return true
		}
	}
	return false
}
