package analyzer

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/seo-compare/engine/fetch"
	"github.com/seo-compare/engine/logging"
	"github.com/seo-compare/engine/schema"
)

// std is the loaded parameter catalog shared by extraction and aggregation.
var std = schema.Load()

// Trust and locale patterns. The wording mirrors what Indian insurance
// pages actually print, down to the IRDAI and 80C boilerplate.
var (
	reIRDAI      = regexp.MustCompile(`(?i)irdai|registration no|reg\. no`)
	reLegal      = regexp.MustCompile(`(?i)\bcin\b|corporate identity|registered office`)
	reClaims     = regexp.MustCompile(`(?i)claim settlement|\bcsr\b|claims paid`)
	reRisk       = regexp.MustCompile(`(?i)market risks?|risk factors?|sales brochure|subject matter of (the )?solicitation`)
	rePrivacy    = regexp.MustCompile(`(?i)privacy policy`)
	reTerms      = regexp.MustCompile(`(?i)terms (of use|and conditions|& conditions)`)
	reGrievance  = regexp.MustCompile(`(?i)grievance|ombudsman|customer care|toll.?free|1800[- ]?\d`)
	rePINCode    = regexp.MustCompile(`\b[1-9]\d{5}\b`)
	reAddressCue = regexp.MustCompile(`(?i)office|tower|floor|road|street|marg|nagar|complex|building`)

	reAuthor     = regexp.MustCompile(`(?i)written by|authored by|reviewed by`)
	reAuthorBio  = regexp.MustCompile(`(?i)about the author`)
	reExpertise  = regexp.MustCompile(`(?i)certified|chartered|years of experience|specialist|actuar(y|ial)|qualified advisor`)
	reLeadership = regexp.MustCompile(`(?i)\bceo\b|managing director|chief executive|board of directors|leadership team|founder`)
	reAwards     = regexp.MustCompile(`(?i)award|iso \d{4,5}|accredited|recognitions?`)

	reINR      = regexp.MustCompile(`(?i)₹|\binr\b|rs\.|rupees`)
	reTaxIN    = regexp.MustCompile(`(?i)80c|10\(10d\)|tax saving|income tax`)
	reIndia    = regexp.MustCompile(`(?i)\bindian?\b`)
	reCities   = regexp.MustCompile(`(?i)mumbai|delhi|bangalore|bengaluru|pune|chennai|kolkata|hyderabad`)
	reCTA      = regexp.MustCompile(`(?i)get (a )?quote|buy (now|online)|apply now|talk to|calculate|download brochure|invest now|check premium|start now`)
	reCalc     = regexp.MustCompile(`(?i)calculator|calculate (your )?premium`)
	reFresh    = regexp.MustCompile(`(?i)last (updated|reviewed)|updated on`)
	reQuestion = regexp.MustCompile(`(?i)^(what|how|why|when|which|who|can|is|does|should)\b`)
	reDigitRun = regexp.MustCompile(`\d{5,}`)

	reTransactional = regexp.MustCompile(`(?i)get (a )?quote|buy (now|online)|apply now|invest now|calculate premium|premium calculator|start saving`)
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// authoritySuffixes marks external hosts that count as authority citations.
var authoritySuffixes = []string{
	".gov.in", ".nic.in", ".gov", ".edu", ".ac.in",
	"rbi.org.in", "irdai.gov.in", "sebi.gov.in", "wikipedia.org", "who.int",
}

type pageExtraction struct {
	pr   *fetch.PageResult
	ps   *PageSignals
	doc  *goquery.Document
	base *url.URL

	keywords []string
	text     string
	words    []string
	hrefs    []string
	log      zerolog.Logger
}

// ExtractPage evaluates every page-scoped parameter against one fetched
// page. Rules never abort the page: a panicking or unparseable rule leaves
// its parameters not-applicable, and every page-scoped catalog entry ends
// up with a signal either way.
func ExtractPage(pr *fetch.PageResult, keywords []string) *PageSignals {
	ps := &PageSignals{
		URL:           pr.URL,
		FinalURL:      pr.FinalURL,
		Depth:         pr.Depth,
		Status:        pr.Status,
		Signals:       make(map[string]Signal, std.Len()),
		Links:         pr.Links,
		ExternalHosts: pr.ExternalHosts,
	}

	e := &pageExtraction{
		pr:       pr,
		ps:       ps,
		keywords: keywords,
		log:      logging.Component("analyzer"),
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pr.HTML))
	if err != nil {
		e.log.Warn().Str("url", pr.URL).Err(err).Msg("Page could not be parsed")
		e.fill("unparseable page")
		return ps
	}
	e.doc = doc

	baseRaw := pr.FinalURL
	if baseRaw == "" {
		baseRaw = pr.URL
	}
	e.base, _ = url.Parse(baseRaw)

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok {
			e.hrefs = append(e.hrefs, strings.ToLower(href))
		}
	})

	// Structured data reads script tags, so it runs before they are
	// stripped for text analysis.
	e.safely("schema", e.schemaSignals)

	body := doc.Find("body")
	body.Find("script, style, noscript").Remove()
	e.text = strings.Join(strings.Fields(body.Text()), " ")
	e.words = strings.Fields(e.text)
	ps.WordCount = len(e.words)

	e.safely("url", e.urlSignals)
	e.safely("meta", e.metaSignals)
	e.safely("content", e.contentSignals)
	e.safely("trust", e.trustSignals)
	e.safely("performance", e.performanceSignals)
	e.safely("mobile", e.mobileSignals)
	e.safely("linking", e.linkingSignals)
	e.safely("locale", e.localeSignals)

	e.fill("rule produced no value")
	return ps
}

// safely runs one rule group, absorbing panics so a single bad page cannot
// take the whole analysis down.
func (e *pageExtraction) safely(group string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Warn().
				Str("url", e.ps.URL).
				Str("group", group).
				Interface("panic", r).
				Msg("Extraction rule group panicked")
		}
	}()
	fn()
}

// fill marks every page-scoped parameter that has no signal yet.
func (e *pageExtraction) fill(note string) {
	for _, p := range std.Params() {
		if p.Scope != schema.ScopePage {
			continue
		}
		if _, ok := e.ps.Signals[p.ID]; !ok {
			e.ps.Signals[p.ID] = Signal{NA: true, Note: note}
		}
	}
}

func (e *pageExtraction) setBool(id string, v bool) {
	e.ps.Signals[id] = Signal{Value: schema.Value{Bool: v}}
}

func (e *pageExtraction) setNum(id string, v float64) {
	e.ps.Signals[id] = Signal{Value: schema.Value{Num: v}}
}

func (e *pageExtraction) setEnum(id, v string) {
	e.ps.Signals[id] = Signal{Value: schema.Value{Str: v}}
}

func (e *pageExtraction) setNA(id, note string) {
	e.ps.Signals[id] = Signal{NA: true, Note: note}
}

func (e *pageExtraction) hasLink(frag string) bool {
	for _, h := range e.hrefs {
		if strings.Contains(h, frag) {
			return true
		}
	}
	return false
}

func (e *pageExtraction) urlSignals() {
	u := e.base
	if u == nil {
		e.setNA("url_readability_score", "unparseable url")
		e.setNA("keyword_in_url", "unparseable url")
		e.setNA("url_length_consistency", "unparseable url")
		e.setNA("folder_hierarchy_depth", "unparseable url")
		return
	}
	path := strings.ToLower(u.Path)

	e.setNum("url_readability_score", urlReadability(u))
	e.setBool("url_length_consistency", len(u.String()) <= 100)

	segs := 0
	for _, s := range strings.Split(u.Path, "/") {
		if s != "" {
			segs++
		}
	}
	e.setNum("folder_hierarchy_depth", float64(segs))

	if len(e.keywords) == 0 {
		e.setNA("keyword_in_url", "no keywords configured")
	} else {
		found := false
		for _, kw := range e.keywords {
			if kw != "" && strings.Contains(path, kw) {
				found = true
				break
			}
		}
		e.setBool("keyword_in_url", found)
	}
}

// urlReadability scores a path for human readability: lowercase hyphenated
// words score high, encoded or ID-heavy paths score low.
func urlReadability(u *url.URL) float64 {
	path := u.Path
	if path == "" || path == "/" {
		return 100
	}
	score := 100.0
	if strings.Contains(path, "_") {
		score -= 15
	}
	if path != strings.ToLower(path) {
		score -= 15
	}
	if strings.Contains(path, "%") {
		score -= 20
	}
	if reDigitRun.MatchString(path) || reDigitRun.MatchString(u.RawQuery) {
		score -= 20
	}
	if u.RawQuery != "" {
		score -= 15
	}
	for _, seg := range strings.Split(path, "/") {
		if len(seg) > 40 {
			score -= 15
			break
		}
	}
	if score < 0 {
		score = 0
	}
	return score
}

func (e *pageExtraction) metaSignals() {
	doc := e.doc

	title := strings.TrimSpace(doc.Find("title").First().Text())
	e.ps.Title = strings.ToLower(title)
	e.setBool("title_presence", title != "")
	e.setBool("title_length_optimized", len(title) >= 30 && len(title) <= 60)

	desc, _ := doc.Find("meta[name='description']").Attr("content")
	desc = strings.TrimSpace(desc)
	e.setBool("meta_desc_presence", desc != "")
	e.setBool("meta_desc_length", len(desc) >= 120 && len(desc) <= 160)

	h1s := doc.Find("h1")
	e.setBool("h1_presence", h1s.Length() >= 1)
	e.setBool("multiple_h1_issues", h1s.Length() > 1)
	e.setBool("heading_hierarchy_valid", headingHierarchyValid(doc))

	robots, _ := doc.Find("meta[name='robots']").Attr("content")
	e.ps.Noindex = strings.Contains(strings.ToLower(robots), "noindex")
	e.setBool("noindex_tags", e.ps.Noindex)

	e.canonicalSignal()
	e.imageAltSignal()
	e.brandSignal(title)
}

func headingHierarchyValid(doc *goquery.Document) bool {
	headings := doc.Find("h1, h2, h3, h4, h5, h6")
	if headings.Length() == 0 || doc.Find("h1").Length() == 0 {
		return false
	}
	valid := true
	prev := 0
	headings.Each(func(_ int, s *goquery.Selection) {
		level := int(s.Nodes[0].Data[1] - '0')
		if prev == 0 && level != 1 {
			valid = false
		}
		if prev != 0 && level > prev+1 {
			valid = false
		}
		prev = level
	})
	return valid
}

func (e *pageExtraction) canonicalSignal() {
	href, ok := e.doc.Find("link[rel='canonical']").Attr("href")
	href = strings.TrimSpace(href)
	if !ok || href == "" || e.base == nil {
		e.setBool("canonical_tags_correct", false)
		return
	}
	cu, err := e.base.Parse(href)
	if err != nil {
		e.setBool("canonical_tags_correct", false)
		return
	}
	e.ps.Canonical = cu.String()

	// A canonical pointing off-site is suspect; one to any host variant of
	// the same site is fine.
	pageHost := strings.TrimPrefix(strings.ToLower(e.base.Hostname()), "www.")
	canonHost := strings.TrimPrefix(strings.ToLower(cu.Hostname()), "www.")
	e.setBool("canonical_tags_correct", canonHost == pageHost || strings.HasSuffix(canonHost, "."+pageHost))
}

func (e *pageExtraction) imageAltSignal() {
	imgs := e.doc.Find("img")
	if imgs.Length() == 0 {
		e.setNA("image_alt_coverage", "no images on page")
		return
	}
	withAlt := 0
	imgs.Each(func(_ int, s *goquery.Selection) {
		if alt, ok := s.Attr("alt"); ok && strings.TrimSpace(alt) != "" {
			withAlt++
		}
	})
	e.setNum("image_alt_coverage", float64(withAlt)/float64(imgs.Length())*100)
}

// brandSignal checks whether the site's own name shows up in the title or
// main heading. The brand token comes from the host, so "HDFC Life" is
// matched against a squashed "hdfclife".
func (e *pageExtraction) brandSignal(title string) {
	if e.base == nil {
		e.setNA("branded_keyword_presence", "unparseable url")
		return
	}
	label := strings.TrimPrefix(strings.ToLower(e.base.Hostname()), "www.")
	if i := strings.IndexByte(label, '.'); i > 0 {
		label = label[:i]
	}
	if label == "" {
		e.setNA("branded_keyword_presence", "no host label")
		return
	}
	squash := func(s string) string {
		return strings.ReplaceAll(strings.ToLower(s), " ", "")
	}
	hay := squash(title) + "|" + squash(e.doc.Find("h1").First().Text())
	token := label
	if len(token) > 5 {
		token = token[:5]
	}
	e.setBool("branded_keyword_presence", strings.Contains(hay, label) || strings.Contains(hay, token))
}

func (e *pageExtraction) contentSignals() {
	doc := e.doc
	wc := e.ps.WordCount

	e.setNum("avg_word_count", float64(wc))
	e.setBool("thin_content_ratio", wc < 150)
	e.setNum("readability_score", readability(e.text, e.words))

	hasList := doc.Find("ul, ol").Length() > 0
	hasTable := doc.Find("table").Length() > 0
	h2Count := doc.Find("h2").Length()
	e.setBool("structured_content_usage", (hasList || hasTable) && h2Count >= 2)

	faq := strings.Contains(strings.ToLower(e.text), "frequently asked") ||
		doc.Find("details summary").Length() > 0 ||
		e.hasLink("faq")
	e.setBool("faq_presence", faq)

	e.setBool("featured_snippet_ready", snippetReady(doc))

	e.ps.NewestDate = newestDate(doc)
	fresh := reFresh.MatchString(e.text) ||
		(!e.ps.NewestDate.IsZero() && time.Since(e.ps.NewestDate) < 365*24*time.Hour)
	e.setBool("content_freshness", fresh)

	if e.base != nil {
		p := strings.ToLower(e.base.Path)
		e.ps.BlogLike = strings.Contains(p, "/blog") || strings.Contains(p, "/article") ||
			strings.Contains(p, "/news") || strings.Contains(p, "/insights") ||
			strings.Contains(p, "/knowledge")
	}
	e.ps.Intent = e.classifyIntent()

	sum := md5.Sum([]byte(strings.ToLower(e.text)))
	e.ps.ContentHash = hex.EncodeToString(sum[:])
}

// readability is a rough 0-1 ease score from sentence and word lengths.
func readability(text string, words []string) float64 {
	if len(words) == 0 {
		return 0
	}
	sentences := strings.Count(text, ".") + strings.Count(text, "!") + strings.Count(text, "?")
	if sentences == 0 {
		sentences = 1
	}
	avgSentence := float64(len(words)) / float64(sentences)
	chars := 0
	for _, w := range words {
		chars += len(w)
	}
	avgWord := float64(chars) / float64(len(words))

	score := 1.0
	if avgSentence > 12 {
		score -= 0.03 * (avgSentence - 12)
	}
	if avgWord > 5 {
		score -= 0.12 * (avgWord - 5)
	}
	if score < 0 {
		score = 0
	}
	return score
}

func snippetReady(doc *goquery.Document) bool {
	question := false
	doc.Find("h2, h3").Each(func(_ int, s *goquery.Selection) {
		t := strings.TrimSpace(s.Text())
		if strings.Contains(t, "?") || reQuestion.MatchString(t) {
			question = true
		}
	})
	if !question {
		return false
	}
	listy := doc.Find("table").Length() > 0
	doc.Find("ol, ul").Each(func(_ int, s *goquery.Selection) {
		if s.Find("li").Length() >= 3 {
			listy = true
		}
	})
	return listy
}

func newestDate(doc *goquery.Document) time.Time {
	var newest time.Time
	consider := func(raw string) {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				if t.After(newest) && t.Before(time.Now().Add(24*time.Hour)) {
					newest = t
				}
				return
			}
		}
	}
	doc.Find("time[datetime]").Each(func(_ int, s *goquery.Selection) {
		dt, _ := s.Attr("datetime")
		consider(dt)
	})
	for _, sel := range []string{
		"meta[property='article:published_time']",
		"meta[property='article:modified_time']",
		"meta[name='last-modified']",
	} {
		if c, ok := doc.Find(sel).Attr("content"); ok {
			consider(c)
		}
	}
	return newest
}

func (e *pageExtraction) classifyIntent() string {
	path := ""
	if e.base != nil {
		path = strings.ToLower(e.base.Path)
	}
	transactionalPath := strings.Contains(path, "/buy") || strings.Contains(path, "/plans") ||
		strings.Contains(path, "/calculator") || strings.Contains(path, "/quote") ||
		strings.Contains(path, "/invest")
	if transactionalPath || reTransactional.MatchString(e.text) {
		return "transactional"
	}
	informationalPath := strings.Contains(path, "/faq") || strings.Contains(path, "/guide") ||
		strings.Contains(path, "/learn")
	if e.ps.BlogLike || informationalPath || e.ps.WordCount >= 600 {
		return "informational"
	}
	return "navigational"
}

func (e *pageExtraction) trustSignals() {
	text := e.text

	e.setBool("irdai_registration", reIRDAI.MatchString(text))
	e.setBool("legal_details", reLegal.MatchString(text))
	e.setBool("claim_settlement_ratio", reClaims.MatchString(text))
	e.setBool("risk_disclaimer", reRisk.MatchString(text))
	e.setBool("privacy_policy_quality", e.hasLink("privacy") || rePrivacy.MatchString(text))
	e.setBool("terms_conditions", e.hasLink("terms") || reTerms.MatchString(text))
	e.setBool("contact_grievance_info", e.hasLink("contact") || reGrievance.MatchString(text))
	e.setBool("physical_address", rePINCode.MatchString(text) && reAddressCue.MatchString(text))

	authorSel := e.doc.Find("[rel='author'], .author, .byline, meta[name='author']").Length() > 0
	e.setBool("author_presence", authorSel || reAuthor.MatchString(text))
	bioSel := e.doc.Find(".author-bio, .author-info").Length() > 0
	e.setBool("author_bio", bioSel || reAuthorBio.MatchString(text))
	e.setBool("expertise_indicators", reExpertise.MatchString(text))

	aboutHere := strings.Contains(strings.ToLower(e.ps.URL), "about") && e.ps.WordCount > 300
	e.setBool("about_us_depth", e.hasLink("about") || aboutHere)
	e.setBool("leadership_transparency", reLeadership.MatchString(text))
	e.setBool("awards_certifications", reAwards.MatchString(text))
}

func (e *pageExtraction) performanceSignals() {
	metricSeconds := func(id, key string) {
		if v, ok := e.pr.Metric(key); ok {
			e.setNum(id, v/1000)
		} else {
			e.setNA(id, "no render metrics")
		}
	}
	metricSeconds("lcp_score", fetch.MetricLCP)
	metricSeconds("page_load_time", fetch.MetricLoad)

	if v, ok := e.pr.Metric(fetch.MetricTTFB); ok {
		e.setNum("ttfb", v)
	} else {
		e.setNA("ttfb", "no timing metrics")
	}
	if v, ok := e.pr.Metric(fetch.MetricCLS); ok {
		e.setNum("cls_score", v)
	} else {
		e.setNA("cls_score", "no render metrics")
	}
	if v, ok := e.pr.Metric(fetch.MetricJSKB); ok {
		e.setNum("js_bundle_weight", v)
	} else {
		e.setNA("js_bundle_weight", "no render metrics")
	}

	blocking := 0
	e.doc.Find("link[rel='stylesheet']").Each(func(_ int, s *goquery.Selection) {
		if media, ok := s.Attr("media"); ok && strings.Contains(strings.ToLower(media), "print") {
			return
		}
		blocking++
	})
	e.setNum("css_blocking", float64(blocking))

	imgs := e.doc.Find("img")
	if imgs.Length() == 0 {
		e.setNA("image_optimization", "no images on page")
		e.setNA("lazy_loading", "no images on page")
		return
	}
	optimized, lazy := 0, 0
	imgs.Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		src = strings.ToLower(src)
		_, hasSrcset := s.Attr("srcset")
		loading, _ := s.Attr("loading")
		if strings.HasSuffix(src, ".webp") || strings.HasSuffix(src, ".avif") ||
			strings.HasSuffix(src, ".svg") || hasSrcset || strings.EqualFold(loading, "lazy") {
			optimized++
		}
		if strings.EqualFold(loading, "lazy") {
			lazy++
		}
	})
	e.setNum("image_optimization", float64(optimized)/float64(imgs.Length())*100)
	e.setBool("lazy_loading", lazy > 0)
}

func (e *pageExtraction) mobileSignals() {
	viewport, _ := e.doc.Find("meta[name='viewport']").Attr("content")
	viewport = strings.ToLower(viewport)
	viewportOK := strings.Contains(viewport, "width=device-width")
	e.setBool("viewport_config", viewportOK)

	zoomLocked := strings.Contains(viewport, "user-scalable=no") ||
		strings.Contains(viewport, "maximum-scale=1.0") ||
		strings.Contains(viewport, "maximum-scale=1,")
	e.setBool("mobile_responsive", viewportOK && !zoomLocked)

	// Density proxy: pages that are mostly links are hard to tap accurately.
	linkCount := e.doc.Find("a").Length()
	tapOK := linkCount == 0 || e.ps.WordCount/linkCount >= 4
	e.setBool("tap_element_spacing", tapOK)

	if v, ok := e.pr.Metric(fetch.MetricLoad); ok {
		e.setNum("mobile_speed_score", v/1000)
	} else {
		e.setNA("mobile_speed_score", "no timing metrics")
	}

	forms := e.doc.Find("form")
	if forms.Length() == 0 {
		e.setEnum("form_ux_complexity", "low")
	} else {
		maxFields := 0
		forms.Each(func(_ int, s *goquery.Selection) {
			fields := 0
			s.Find("input, select, textarea").Each(func(_ int, f *goquery.Selection) {
				if t, _ := f.Attr("type"); strings.EqualFold(t, "hidden") {
					return
				}
				fields++
			})
			if fields > maxFields {
				maxFields = fields
			}
		})
		switch {
		case maxFields <= 5:
			e.setEnum("form_ux_complexity", "low")
		case maxFields <= 10:
			e.setEnum("form_ux_complexity", "medium")
		default:
			e.setEnum("form_ux_complexity", "high")
		}
	}

	e.setBool("calculator_usability", reCalc.MatchString(e.text) || e.hasLink("calculator"))
}

func (e *pageExtraction) linkingSignals() {
	e.setNum("internal_linking_density", float64(len(e.ps.Links)))

	var anchors []string
	e.doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		t := strings.ToLower(strings.TrimSpace(s.Text()))
		if t != "" {
			anchors = append(anchors, t)
		}
	})
	if len(anchors) == 0 {
		e.setNA("anchor_text_diversity", "no anchor texts")
	} else {
		uniq := make(map[string]bool, len(anchors))
		for _, a := range anchors {
			uniq[a] = true
		}
		e.setNum("anchor_text_diversity", float64(len(uniq))/float64(len(anchors))*100)
	}

	total, contextual := 0, 0
	e.doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		total++
		if s.ParentsFiltered("footer, nav, header").Length() == 0 {
			contextual++
		}
	})
	if total == 0 {
		e.setNA("contextual_vs_footer_ratio", "no links on page")
	} else {
		e.setNum("contextual_vs_footer_ratio", float64(contextual)/float64(total)*100)
	}

	authority := 0
	for _, h := range e.ps.ExternalHosts {
		if isAuthorityHost(h) {
			authority++
		}
	}
	e.setNum("external_authority_links", float64(authority))
}

func isAuthorityHost(host string) bool {
	h := strings.ToLower(host)
	for _, suf := range authoritySuffixes {
		if h == strings.TrimPrefix(suf, ".") || strings.HasSuffix(h, suf) {
			return true
		}
	}
	return false
}

func (e *pageExtraction) schemaSignals() {
	types := make(map[string]bool)
	errs := 0

	e.doc.Find(`script[type='application/ld+json']`).Each(func(_ int, s *goquery.Selection) {
		var v interface{}
		if err := json.Unmarshal([]byte(s.Text()), &v); err != nil {
			errs++
			return
		}
		collectSchemaTypes(v, types)
	})
	e.doc.Find("[itemtype]").Each(func(_ int, s *goquery.Selection) {
		it, _ := s.Attr("itemtype")
		if i := strings.LastIndexByte(it, '/'); i >= 0 {
			it = it[i+1:]
		}
		if it != "" {
			types[strings.ToLower(it)] = true
		}
	})

	has := func(names ...string) bool {
		for _, n := range names {
			if types[n] {
				return true
			}
		}
		return false
	}
	e.setBool("organization_schema", has("organization", "corporation", "insuranceagency", "financialservice"))
	e.setBool("product_schema", has("product", "financialproduct", "service", "offer"))
	e.setBool("faq_schema", has("faqpage"))
	e.setBool("breadcrumb_schema", has("breadcrumblist"))
	e.setBool("review_schema", has("review", "aggregaterating"))
	e.setNum("schema_validation_errors", float64(errs))
}

// collectSchemaTypes walks arbitrarily nested JSON-LD for @type values.
func collectSchemaTypes(v interface{}, types map[string]bool) {
	switch t := v.(type) {
	case map[string]interface{}:
		if raw, ok := t["@type"]; ok {
			switch tv := raw.(type) {
			case string:
				types[strings.ToLower(tv)] = true
			case []interface{}:
				for _, item := range tv {
					if s, ok := item.(string); ok {
						types[strings.ToLower(s)] = true
					}
				}
			}
		}
		for _, val := range t {
			collectSchemaTypes(val, types)
		}
	case []interface{}:
		for _, item := range t {
			collectSchemaTypes(item, types)
		}
	}
}

func (e *pageExtraction) localeSignals() {
	text := e.text

	e.setBool("inr_currency_use", reINR.MatchString(text))
	e.setBool("india_tax_keywords", reTaxIN.MatchString(text))

	hreflang := false
	e.doc.Find("link[rel='alternate'][hreflang]").Each(func(_ int, s *goquery.Selection) {
		hl, _ := s.Attr("hreflang")
		if strings.EqualFold(hl, "en-in") {
			hreflang = true
		}
	})
	if lang, ok := e.doc.Find("html").Attr("lang"); ok && strings.EqualFold(lang, "en-in") {
		hreflang = true
	}
	e.setBool("hreflang_en_in", hreflang)

	hits := 0
	for _, re := range []*regexp.Regexp{reINR, rePINCode, reTaxIN, reIRDAI, reIndia, reCities} {
		if re.MatchString(text) {
			hits++
		}
	}
	e.setNum("localized_content_relevance", float64(hits)/6*100)

	navLinks := e.doc.Find("nav a").Length()
	if navLinks == 0 {
		navLinks = e.doc.Find("header a").Length()
	}
	e.setBool("structured_nav_clarity", navLinks >= 3 && navLinks <= 60)

	var ctaText strings.Builder
	e.doc.Find("a, button").Each(func(_ int, s *goquery.Selection) {
		ctaText.WriteString(s.Text())
		ctaText.WriteString(" ")
	})
	e.doc.Find("input[type='submit']").Each(func(_ int, s *goquery.Selection) {
		if v, ok := s.Attr("value"); ok {
			ctaText.WriteString(v)
			ctaText.WriteString(" ")
		}
	})
	e.setBool("cta_optimization", reCTA.MatchString(ctaText.String()))
}
