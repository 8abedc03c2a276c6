package schema

// Rule constructors keep the catalog table readable.

func pass() Rule {
	return Rule{Kind: KindBool}
}

// flag marks signals whose presence counts against the site.
func flag() Rule {
	return Rule{Kind: KindBool, Invert: true}
}

func higher(lo, hi float64, unit string) Rule {
	return Rule{Kind: KindRange, Lo: lo, Hi: hi, Unit: unit}
}

func lower(lo, hi float64, unit string) Rule {
	return Rule{Kind: KindRange, Lo: lo, Hi: hi, LowerBetter: true, Unit: unit}
}

func levels(m map[string]float64) Rule {
	return Rule{Kind: KindEnum, Levels: m}
}

// catalog is the full parameter set. Percentages are stored as 0-100, times
// in the unit named by the rule. Order is fixed: comparison detail rows and
// totality checks follow it.
var catalog = []Parameter{
	// Domain authority. The first five need index or backlink data the
	// crawler cannot observe; they are filled from operator estimates and
	// stay not-applicable when unconfigured.
	{"domain_age", "Domain Age", Authority, ScopeSite, 1, higher(2, 15, " yrs")},
	{"domain_authority", "Domain Authority", Authority, ScopeSite, 2, higher(10, 80, "/100")},
	{"total_backlinks", "Backlinks", Authority, ScopeSite, 1, higher(1000, 500000, "")},
	{"referring_domains", "Referring Domains", Authority, ScopeSite, 1, higher(100, 20000, "")},
	{"organic_keywords", "Organic Keywords", Authority, ScopeSite, 1, higher(1000, 100000, "")},
	{"branded_keyword_presence", "Branded Keywords", Authority, ScopePage, 1, pass()},
	{"indexed_pages", "Indexed Pages", Authority, ScopeSite, 1, higher(5, 200, "")},
	{"domain_trust_signals", "Domain Trust Signals", Authority, ScopeSite, 1, higher(0, 100, "%")},
	{"https_status", "HTTPS Secured", Authority, ScopeSite, 2, pass()},
	{"ssl_validity", "SSL Certificate", Authority, ScopeSite, 2, pass()},

	// Crawlability and indexing.
	{"robots_txt_exists", "Robots.txt", Technical, ScopeSite, 2, pass()},
	{"xml_sitemap_exists", "XML Sitemap", Technical, ScopeSite, 2, pass()},
	{"sitemap_validity", "Sitemap Validity", Technical, ScopeSite, 1, pass()},
	{"noindex_tags", "Noindex Tags", Technical, ScopePage, 2, flag()},
	{"canonical_tags_correct", "Canonical Tags", Technical, ScopePage, 2, pass()},
	{"orphan_pages", "Orphan Pages", Technical, ScopeSite, 1, lower(0, 5, " pages")},
	{"crawl_depth", "Crawl Depth", Technical, ScopeSite, 1, lower(2, 6, "")},
	{"duplicate_url_patterns", "Duplicate URL Patterns", Technical, ScopeSite, 1, lower(0, 5, "")},
	{"parameterized_urls", "Parameterized URLs", Technical, ScopeSite, 1, lower(0, 10, "")},
	{"crawl_budget_waste", "Crawl Budget Waste", Technical, ScopeSite, 1, lower(0, 40, "%")},

	// URL structure.
	{"url_readability_score", "URL Readability", Technical, ScopePage, 1, higher(40, 95, "%")},
	{"keyword_in_url", "Keyword In URL", Technical, ScopePage, 1, pass()},
	{"url_length_consistency", "URL Length", Technical, ScopePage, 1, pass()},
	{"folder_hierarchy_depth", "Folder Depth", Technical, ScopePage, 1, lower(1, 6, "")},
	{"trailing_slash_consistency", "Trailing Slash Consistency", Technical, ScopeSite, 1, higher(50, 100, "%")},
	{"http_to_https_redirect", "HTTP to HTTPS Redirect", Technical, ScopeSite, 2, pass()},
	{"www_vs_non_www", "WWW Consolidation", Technical, ScopeSite, 1, pass()},
	{"static_vs_dynamic_ratio", "Static URL Ratio", Technical, ScopeSite, 1, higher(50, 95, "%")},

	// Meta and HTML signals.
	{"title_presence", "Title Tag", Content, ScopePage, 2, pass()},
	{"title_length_optimized", "Title Tag Optimized", Content, ScopePage, 1, pass()},
	{"duplicate_titles", "Duplicate Titles", Content, ScopeSite, 1, lower(0, 5, "")},
	{"meta_desc_presence", "Meta Desc Presence", Content, ScopePage, 2, pass()},
	{"meta_desc_length", "Meta Desc Length", Content, ScopePage, 1, pass()},
	{"h1_presence", "H1 Presence", Content, ScopePage, 2, pass()},
	{"multiple_h1_issues", "Multiple H1s", Content, ScopePage, 1, flag()},
	{"heading_hierarchy_valid", "H1 Hierarchy Valid", Content, ScopePage, 1, pass()},
	{"image_alt_coverage", "Img Alt Coverage", Content, ScopePage, 1, higher(0, 90, "%")},

	// Content quality.
	{"avg_word_count", "Avg Word Count", Content, ScopePage, 1, higher(300, 1500, " words")},
	{"thin_content_ratio", "Thin Content Ratio", Content, ScopePage, 2, flag()},
	{"duplicate_content_signals", "Duplicate Content", Content, ScopeSite, 1, lower(0, 30, "%")},
	{"readability_score", "Readability Score", Content, ScopePage, 1, higher(0.3, 0.9, "/1.0")},
	{"structured_content_usage", "Structured Content", Content, ScopePage, 1, pass()},
	{"faq_presence", "FAQ Presence", Content, ScopePage, 1, pass()},
	{"blog_volume", "Blog Volume", Content, ScopeSite, 1, higher(0, 15, " pages")},
	{"update_frequency", "Update Frequency", Content, ScopeSite, 1, levels(map[string]float64{
		"active": 100, "occasional": 55, "stale": 15, "unknown": 40,
	})},

	// Search intent.
	{"informational_pages", "Informational Pages", Content, ScopeSite, 1, higher(1, 10, "")},
	{"transactional_pages", "Transactional Pages", Content, ScopeSite, 1, higher(1, 6, "")},
	{"intent_alignment_score", "Intent Alignment", Content, ScopeSite, 1, higher(30, 90, "%")},
	{"topic_depth", "Topic Depth", Content, ScopeSite, 1, higher(400, 1800, " words")},
	{"featured_snippet_ready", "Snippet Ready", Content, ScopePage, 1, pass()},

	// YMYL trust. Weighted heaviest: for an insurance site these are the
	// regulatory table stakes.
	{"irdai_registration", "IRDAI Reg. Display", YMYL, ScopePage, 3, pass()},
	{"legal_details", "Legal Entity Details", YMYL, ScopePage, 3, pass()},
	{"claim_settlement_ratio", "Claim Settlement Ratio", YMYL, ScopePage, 3, pass()},
	{"risk_disclaimer", "Risk Disclaimer", YMYL, ScopePage, 3, pass()},
	{"privacy_policy_quality", "Privacy Policy", YMYL, ScopePage, 3, pass()},
	{"terms_conditions", "Terms & Conditions", YMYL, ScopePage, 3, pass()},
	{"contact_grievance_info", "Contact/Grievance", YMYL, ScopePage, 3, pass()},
	{"physical_address", "Physical Address", YMYL, ScopePage, 3, pass()},

	// E-E-A-T.
	{"author_presence", "Author Bylines", EEAT, ScopePage, 1, pass()},
	{"author_bio", "Author Bios", EEAT, ScopePage, 1, pass()},
	{"expertise_indicators", "Expertise Indicators", EEAT, ScopePage, 1, pass()},
	{"about_us_depth", "About Us Depth", EEAT, ScopePage, 1, pass()},
	{"leadership_transparency", "Leadership Transparency", EEAT, ScopePage, 1, pass()},
	{"awards_certifications", "Awards & Certifications", EEAT, ScopePage, 1, pass()},

	// Technical performance. Timing parameters come from the rendering
	// fetcher's navigation metrics and are not applicable when a page was
	// fetched without one.
	{"lcp_score", "LCP Score", Technical, ScopePage, 2, lower(1.2, 4.0, "s")},
	{"cls_score", "CLS Score", Technical, ScopePage, 2, lower(0.05, 0.3, "")},
	{"page_load_time", "Page Load Time", Technical, ScopePage, 2, lower(1.0, 5.0, "s")},
	{"ttfb", "TTFB", Technical, ScopePage, 2, lower(200, 1500, "ms")},
	{"js_bundle_weight", "JS Bundle Size", Technical, ScopePage, 1, lower(300, 3000, "KB")},
	{"css_blocking", "Render-Blocking CSS", Technical, ScopePage, 1, lower(0, 8, "")},
	{"image_optimization", "Image Optimization", Technical, ScopePage, 1, higher(0, 80, "%")},
	{"lazy_loading", "Lazy Loading", Technical, ScopePage, 1, pass()},

	// Mobile UX.
	{"mobile_responsive", "Mobile Responsiveness", Mobile, ScopePage, 2, pass()},
	{"viewport_config", "Viewport Config", Mobile, ScopePage, 2, pass()},
	{"tap_element_spacing", "Tap Target Spacing", Mobile, ScopePage, 1, pass()},
	{"mobile_speed_score", "Mobile Speed Score", Mobile, ScopePage, 1, lower(1.0, 4.0, "s")},
	{"form_ux_complexity", "Form UX", Mobile, ScopePage, 1, levels(map[string]float64{
		"low": 100, "medium": 60, "high": 25,
	})},
	{"calculator_usability", "Calculator Tools", Mobile, ScopePage, 1, pass()},

	// Linking.
	{"internal_linking_density", "Internal Link Density", Authority, ScopePage, 1, higher(3, 25, " links")},
	{"anchor_text_diversity", "Anchor Text Diversity", Authority, ScopePage, 1, higher(30, 90, "%")},
	{"orphan_money_pages", "Orphan Money Pages", Authority, ScopeSite, 1, lower(0, 3, " pages")},
	{"contextual_vs_footer_ratio", "Contextual Link Ratio", Authority, ScopePage, 1, higher(10, 60, "%")},
	{"external_authority_links", "External Authority Links", Authority, ScopePage, 1, higher(0, 8, "")},

	// Structured data.
	{"organization_schema", "Organization Schema", Technical, ScopePage, 1, pass()},
	{"product_schema", "Product/Plan Schema", Technical, ScopePage, 1, pass()},
	{"faq_schema", "FAQ Schema", Technical, ScopePage, 1, pass()},
	{"breadcrumb_schema", "Breadcrumb Schema", Technical, ScopePage, 1, pass()},
	{"review_schema", "Review Schema", Technical, ScopePage, 1, pass()},
	{"schema_validation_errors", "Schema Errors", Technical, ScopePage, 1, lower(0, 5, "")},

	// India-specific.
	{"inr_currency_use", "INR Currency Use", India, ScopePage, 1, pass()},
	{"india_tax_keywords", "Tax Keywords (80C)", India, ScopePage, 2, pass()},
	{"hreflang_en_in", "Hreflang en-IN", India, ScopePage, 1, pass()},
	{"localized_content_relevance", "Localized Content", India, ScopePage, 1, higher(0, 100, "%")},

	// Site health.
	{"error_404_count", "404 Errors", Technical, ScopeSite, 2, lower(0, 3, "")},
	{"redirect_chains", "Redirect Chains", Technical, ScopeSite, 1, lower(0, 5, "")},
	{"broken_links", "Broken Links", Technical, ScopeSite, 2, lower(0, 5, "")},
	{"simulated_index_errors", "Index Coverage Errors", Technical, ScopeSite, 1, lower(0, 5, "")},

	// Brand UX.
	{"structured_nav_clarity", "Navigation Clarity", Content, ScopePage, 1, pass()},
	{"cta_optimization", "CTA Optimization", Content, ScopePage, 1, pass()},
	{"content_freshness", "Content Freshness", Content, ScopePage, 1, pass()},
}
