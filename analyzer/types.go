package analyzer

import (
	"sort"
	"time"

	"github.com/seo-compare/engine/schema"
)

// Technical debt ratings surfaced on every site result.
const (
	TechDebtLow    = "Low"
	TechDebtMedium = "Medium"
	TechDebtHigh   = "High"
)

// Signal is one evaluated parameter on a single page or site. A signal
// marked NA carries no value; the note says why.
type Signal struct {
	schema.Value
	NA   bool
	Note string
}

// PageSignals holds one crawled page's evaluated parameters plus the
// digests the site-level rules aggregate over.
type PageSignals struct {
	URL      string
	FinalURL string
	Depth    int
	Status   int

	Signals map[string]Signal

	Title       string // lowercased, for duplicate detection
	ContentHash string
	WordCount   int
	Noindex     bool
	Canonical   string
	Intent      string // informational, transactional or navigational
	BlogLike    bool
	NewestDate  time.Time // most recent published/modified date found

	Links         []string
	ExternalHosts []string
}

// Estimates supplies the authority figures a crawl cannot observe, such as
// backlink counts from an external index. Nil fields stay not-applicable
// in the result.
type Estimates struct {
	DomainAgeYears   *float64
	DomainAuthority  *float64
	TotalBacklinks   *float64
	ReferringDomains *float64
	OrganicKeywords  *float64
	TrustSignals     *float64
}

// ParamOutcome is one parameter's site-level outcome.
type ParamOutcome struct {
	ID       string  `json:"id"`
	Label    string  `json:"label"`
	Category string  `json:"category"`
	Weight   float64 `json:"weight"`
	Score    float64 `json:"score"`
	NA       bool    `json:"na,omitempty"`
	Observed string  `json:"observed,omitempty"`
}

// SiteResult is the full analysis of one site. It is the unit the baseline
// store persists and the comparator consumes.
type SiteResult struct {
	URL           string    `json:"url"`
	AnalyzedAt    time.Time `json:"analyzed_at"`
	SchemaVersion string    `json:"schema_version"`

	PagesCrawled int      `json:"pages_crawled"`
	PagesFailed  int      `json:"pages_failed"`
	FailedURLs   []string `json:"failed_urls,omitempty"`
	Discovered   int      `json:"urls_discovered"`
	MaxDepth     int      `json:"max_depth"`

	Params     []ParamOutcome     `json:"parameters"`
	Categories map[string]float64 `json:"category_scores"`
	Overall    float64            `json:"overall_score"`
	TechDebt   string             `json:"technical_debt"`
}

// Param looks an outcome up by parameter ID.
func (r *SiteResult) Param(id string) (ParamOutcome, bool) {
	for _, p := range r.Params {
		if p.ID == id {
			return p, true
		}
	}
	return ParamOutcome{}, false
}

// Weakest returns the lowest-scoring contributed outcomes, up to n, for
// narrative and debt reporting.
func (r *SiteResult) Weakest(n int) []ParamOutcome {
	var out []ParamOutcome
	for _, p := range r.Params {
		if p.NA {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score < out[j].Score })
	if len(out) > n {
		out = out[:n]
	}
	return out
}
