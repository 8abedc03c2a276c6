package analyzer

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/seo-compare/engine/fetch"
	"github.com/seo-compare/engine/schema"
)

var testKeywords = []string{"insurance", "term", "plan"}

func insurancePage() *fetch.PageResult {
	desc := "Compare term life insurance plans online. " + strings.Repeat("Benefits include tax saving. ", 3)
	recent := time.Now().AddDate(0, -1, 0).Format("2006-01-02")
	html := fmt.Sprintf(`<!DOCTYPE html>
<html lang="en-IN">
<head>
<title>Term Life Insurance Plans in India | Acme Life</title>
<meta name="description" content="%s">
<meta name="viewport" content="width=device-width, initial-scale=1">
<link rel="canonical" href="https://www.acmelife.test/term-insurance">
<link rel="stylesheet" href="/main.css">
<script type="application/ld+json">
{"@context":"https://schema.org","@type":"Organization","name":"Acme Life"}
</script>
<script type="application/ld+json">
{"@type":"FAQPage","mainEntity":[{"@type":"Question","name":"What is term insurance?"}]}
</script>
<script type="application/ld+json">{broken json</script>
</head>
<body>
<nav><a href="/plans">Plans</a><a href="/claims">Claims</a><a href="/about-us">About</a><a href="/contact-us">Contact</a></nav>
<h1>Term Life Insurance Plans</h1>
<h2>Why choose a term plan?</h2>
<p>A term insurance plan protects your family with a high cover at a low premium.
Premiums paid are eligible for tax saving under Section 80C and payouts under 10(10D) of the Income Tax Act.
Cover starts at %s1 crore for INR 490 per month. Our claim settlement ratio stands at 99.2%% of claims paid.
Acme Life Insurance Company Ltd. IRDAI Registration No 199. CIN U66010PN2001PLC015329.
Registered Office: Acme Tower, Baner Road, Pune 411045.
Insurance is the subject matter of the solicitation. Written by our in-house experts with 20 years of experience.
</p>
<h2>How much cover do I need?</h2>
<ul><li>Consider your income</li><li>Consider your loans</li><li>Consider inflation in India</li></ul>
<time datetime="%s">Updated</time>
<img src="/hero.webp" alt="Family protected by term insurance">
<img src="/icon.svg" alt="">
<form><input type="text" name="age"><input type="tel" name="phone"><button>Get Quote</button></form>
<a href="/premium-calculator">Premium Calculator</a>
<a href="https://www.irdai.gov.in/">IRDAI</a>
<a href="/privacy-policy">Privacy Policy</a>
<a href="/terms-of-use">Terms of Use</a>
<footer><a href="/sitemap">Sitemap</a></footer>
</body>
</html>`, desc, "₹", recent)

	return &fetch.PageResult{
		URL:      "https://www.acmelife.test/term-insurance",
		FinalURL: "https://www.acmelife.test/term-insurance",
		Status:   200,
		HTML:     html,
		Metrics: map[string]float64{
			fetch.MetricTTFB: 420,
			fetch.MetricLoad: 2100,
			fetch.MetricLCP:  1900,
			fetch.MetricCLS:  0.04,
		},
		Links:         []string{"https://www.acmelife.test/plans", "https://www.acmelife.test/claims"},
		ExternalHosts: []string{"www.irdai.gov.in"},
	}
}

func TestExtractPageTotality(t *testing.T) {
	ps := ExtractPage(insurancePage(), testKeywords)

	for _, p := range std.Params() {
		if p.Scope != schema.ScopePage {
			continue
		}
		if _, ok := ps.Signals[p.ID]; !ok {
			t.Errorf("Expected a signal for %s, got none", p.ID)
		}
	}
}

func TestExtractPageMeta(t *testing.T) {
	ps := ExtractPage(insurancePage(), testKeywords)

	boolCases := map[string]bool{
		"title_presence":          true,
		"title_length_optimized":  true,
		"meta_desc_presence":      true,
		"meta_desc_length":        true,
		"h1_presence":             true,
		"multiple_h1_issues":      false,
		"heading_hierarchy_valid": true,
		"noindex_tags":            false,
		"canonical_tags_correct":  true,
		"branded_keyword_presence": true,
		"keyword_in_url":          true,
	}
	for id, want := range boolCases {
		sig, ok := ps.Signals[id]
		if !ok || sig.NA {
			t.Errorf("Expected %s to be valued", id)
			continue
		}
		if sig.Bool != want {
			t.Errorf("Expected %s = %v, got %v", id, want, sig.Bool)
		}
	}

	alt := ps.Signals["image_alt_coverage"]
	if alt.NA {
		t.Fatal("Expected alt coverage to be valued")
	}
	if alt.Num != 50 {
		t.Errorf("Expected 50%% alt coverage for one of two images, got %.1f", alt.Num)
	}
}

func TestExtractPageTrust(t *testing.T) {
	ps := ExtractPage(insurancePage(), testKeywords)

	for _, id := range []string{
		"irdai_registration", "legal_details", "claim_settlement_ratio",
		"risk_disclaimer", "privacy_policy_quality", "terms_conditions",
		"contact_grievance_info", "physical_address",
		"expertise_indicators", "author_presence",
	} {
		sig := ps.Signals[id]
		if sig.NA || !sig.Bool {
			t.Errorf("Expected trust signal %s to pass", id)
		}
	}
}

func TestExtractPageLocale(t *testing.T) {
	ps := ExtractPage(insurancePage(), testKeywords)

	for _, id := range []string{"inr_currency_use", "india_tax_keywords", "hreflang_en_in"} {
		sig := ps.Signals[id]
		if sig.NA || !sig.Bool {
			t.Errorf("Expected locale signal %s to pass", id)
		}
	}
	local := ps.Signals["localized_content_relevance"]
	if local.NA || local.Num < 50 {
		t.Errorf("Expected strong localization relevance, got %.1f", local.Num)
	}
}

func TestExtractPageSchema(t *testing.T) {
	ps := ExtractPage(insurancePage(), testKeywords)

	if sig := ps.Signals["organization_schema"]; sig.NA || !sig.Bool {
		t.Error("Expected organization schema to be detected")
	}
	if sig := ps.Signals["faq_schema"]; sig.NA || !sig.Bool {
		t.Error("Expected FAQ schema to be detected")
	}
	if sig := ps.Signals["review_schema"]; sig.NA || sig.Bool {
		t.Error("Expected no review schema")
	}
	if sig := ps.Signals["schema_validation_errors"]; sig.NA || sig.Num != 1 {
		t.Errorf("Expected 1 schema validation error, got %v", sig.Num)
	}
}

func TestExtractPageMetrics(t *testing.T) {
	pr := insurancePage()
	ps := ExtractPage(pr, testKeywords)

	if sig := ps.Signals["ttfb"]; sig.NA || sig.Num != 420 {
		t.Errorf("Expected TTFB 420ms, got %v (na=%v)", sig.Num, sig.NA)
	}
	if sig := ps.Signals["lcp_score"]; sig.NA || sig.Num != 1.9 {
		t.Errorf("Expected LCP 1.9s, got %v", sig.Num)
	}
	if sig := ps.Signals["cls_score"]; sig.NA || sig.Num != 0.04 {
		t.Errorf("Expected CLS 0.04, got %v", sig.Num)
	}

	// Without render metrics the timing parameters stay not-applicable.
	pr.Metrics = map[string]float64{fetch.MetricTTFB: 300, fetch.MetricLoad: 900}
	ps = ExtractPage(pr, testKeywords)
	if sig := ps.Signals["lcp_score"]; !sig.NA {
		t.Error("Expected LCP to be not-applicable without render metrics")
	}
	if sig := ps.Signals["js_bundle_weight"]; !sig.NA {
		t.Error("Expected JS weight to be not-applicable without render metrics")
	}
	if sig := ps.Signals["ttfb"]; sig.NA {
		t.Error("Expected TTFB to stay valued on a plain HTTP fetch")
	}
}

func TestExtractPageDigests(t *testing.T) {
	ps := ExtractPage(insurancePage(), testKeywords)

	if ps.Title == "" || !strings.Contains(ps.Title, "term life insurance") {
		t.Errorf("Expected a lowercased title digest, got %q", ps.Title)
	}
	if ps.ContentHash == "" {
		t.Error("Expected a content hash")
	}
	if ps.WordCount < 80 {
		t.Errorf("Expected a substantial word count, got %d", ps.WordCount)
	}
	if ps.Intent != "transactional" {
		t.Errorf("Expected a quote page to classify transactional, got %q", ps.Intent)
	}
	if ps.NewestDate.IsZero() {
		t.Error("Expected the datetime attribute to set the newest date")
	}
}

func TestExtractPageThinContent(t *testing.T) {
	pr := &fetch.PageResult{
		URL:      "https://www.acmelife.test/empty",
		FinalURL: "https://www.acmelife.test/empty",
		Status:   200,
		HTML:     "<html><head><title>x</title></head><body><p>Just a few words here.</p></body></html>",
	}
	ps := ExtractPage(pr, testKeywords)

	if sig := ps.Signals["thin_content_ratio"]; sig.NA || !sig.Bool {
		t.Error("Expected a near-empty page to be flagged thin")
	}
	if sig := ps.Signals["image_alt_coverage"]; !sig.NA {
		t.Error("Expected alt coverage to be not-applicable without images")
	}
	if sig := ps.Signals["title_length_optimized"]; sig.Bool {
		t.Error("Expected a one-character title to fail length check")
	}
}

func TestExtractPageIntentInformational(t *testing.T) {
	pr := &fetch.PageResult{
		URL:      "https://www.acmelife.test/blog/how-to-choose",
		FinalURL: "https://www.acmelife.test/blog/how-to-choose",
		Status:   200,
		HTML:     "<html><head><title>How to choose</title></head><body><h1>Guide</h1><p>Reading material.</p></body></html>",
	}
	ps := ExtractPage(pr, testKeywords)

	if !ps.BlogLike {
		t.Error("Expected a /blog/ path to be blog-like")
	}
	if ps.Intent != "informational" {
		t.Errorf("Expected informational intent, got %q", ps.Intent)
	}
}

func TestHeadingHierarchy(t *testing.T) {
	cases := []struct {
		name string
		body string
		want bool
	}{
		{"ordered", "<h1>a</h1><h2>b</h2><h3>c</h3><h2>d</h2>", true},
		{"skips level", "<h1>a</h1><h3>c</h3>", false},
		{"starts below h1", "<h2>b</h2><h3>c</h3>", false},
		{"no headings", "<p>text</p>", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pr := &fetch.PageResult{
				URL:    "https://www.acmelife.test/h",
				Status: 200,
				HTML:   "<html><body>" + tc.body + "</body></html>",
			}
			ps := ExtractPage(pr, nil)
			if got := ps.Signals["heading_hierarchy_valid"].Bool; got != tc.want {
				t.Errorf("Expected hierarchy valid=%v for %s", tc.want, tc.name)
			}
		})
	}
}

func TestURLReadability(t *testing.T) {
	cases := []struct {
		raw  string
		high bool
	}{
		{"https://a.test/term-insurance-plans", true},
		{"https://a.test/p?id=9183746&sess=abc", false},
		{"https://a.test/Content_Pages/ITEM12345678", false},
	}
	for _, tc := range cases {
		pr := &fetch.PageResult{URL: tc.raw, FinalURL: tc.raw, Status: 200, HTML: "<html><body><p>x</p></body></html>"}
		ps := ExtractPage(pr, nil)
		sig := ps.Signals["url_readability_score"]
		if sig.NA {
			t.Fatalf("Expected readability to be valued for %s", tc.raw)
		}
		if tc.high && sig.Num < 80 {
			t.Errorf("Expected high readability for %s, got %.0f", tc.raw, sig.Num)
		}
		if !tc.high && sig.Num > 70 {
			t.Errorf("Expected low readability for %s, got %.0f", tc.raw, sig.Num)
		}
	}
}
