package analyzer

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/seo-compare/engine/crawler"
	"github.com/seo-compare/engine/fetch"
	"github.com/seo-compare/engine/schema"
)

// Debt classification cutoffs. A parameter scoring under debtHighBelow in
// a trust-critical category counts as one critical failure.
const (
	debtHighBelow     = 50.0
	debtMediumBelow   = 75.0
	criticalFailLimit = 6
)

// Assemble folds per-page signals and site-wide evidence into the final
// scored result. Parameters without evidence stay not-applicable and are
// excluded from every weighted mean rather than dragged to zero.
func Assemble(crawl *crawler.Result, pages []*PageSignals, probe *fetch.SiteProbe, est Estimates) *SiteResult {
	site := siteSignals(crawl, pages, probe, est)

	res := &SiteResult{
		AnalyzedAt:    time.Now().UTC(),
		SchemaVersion: schema.Version,
		PagesCrawled:  len(pages),
		Categories:    make(map[string]float64),
	}
	if crawl != nil {
		res.URL = crawl.RootURL
		res.PagesFailed = len(crawl.Failed)
		for _, pr := range crawl.Failed {
			res.FailedURLs = append(res.FailedURLs, pr.URL)
		}
		res.Discovered = crawl.Discovered
		res.MaxDepth = crawl.MaxDepth
	}

	var totW, totWS float64
	catW := make(map[schema.Category]float64)
	catWS := make(map[schema.Category]float64)
	critical := 0

	for _, p := range std.Params() {
		out := ParamOutcome{
			ID:       p.ID,
			Label:    p.Label,
			Category: string(p.Category),
			Weight:   p.Weight,
		}

		var norm float64
		var observed string
		na := false
		if p.Scope == schema.ScopeSite {
			sig := site[p.ID]
			if sig.NA {
				na = true
			} else {
				norm = p.Rule.Normalize(sig.Value)
				observed = observeSite(p, sig)
			}
		} else {
			norm, observed, na = foldPages(p, pages)
		}

		if na {
			out.NA = true
		} else {
			out.Score = round1(norm)
			out.Observed = observed
			totW += p.Weight
			totWS += p.Weight * norm
			catW[p.Category] += p.Weight
			catWS[p.Category] += p.Weight * norm
			if (p.Category == schema.YMYL || p.Category == schema.Technical) && norm < debtHighBelow {
				critical++
			}
		}
		res.Params = append(res.Params, out)
	}

	for _, c := range schema.Categories {
		if catW[c] > 0 {
			res.Categories[string(c)] = round1(catWS[c] / catW[c])
		}
	}
	if totW > 0 {
		res.Overall = round1(totWS / totW)
	}
	res.TechDebt = debtRating(res.Overall, critical)
	return res
}

// foldPages reduces one page-scoped parameter across the crawl: the score
// is the mean of per-page normalized scores over pages that produced a
// value, and the observation summarizes what was seen.
func foldPages(p schema.Parameter, pages []*PageSignals) (norm float64, observed string, na bool) {
	valued := 0
	var normSum float64

	switch p.Rule.Kind {
	case schema.KindBool:
		favorable := 0
		for _, ps := range pages {
			sig, ok := ps.Signals[p.ID]
			if !ok || sig.NA {
				continue
			}
			valued++
			n := p.Rule.Normalize(sig.Value)
			normSum += n
			if n >= 50 {
				favorable++
			}
		}
		if valued == 0 {
			return 0, "", true
		}
		return normSum / float64(valued), fmt.Sprintf("%d/%d pages", favorable, valued), false

	case schema.KindRange:
		var valSum float64
		for _, ps := range pages {
			sig, ok := ps.Signals[p.ID]
			if !ok || sig.NA {
				continue
			}
			valued++
			valSum += sig.Num
			normSum += p.Rule.Normalize(sig.Value)
		}
		if valued == 0 {
			return 0, "", true
		}
		return normSum / float64(valued), formatNum(valSum/float64(valued), p.Rule.Unit), false

	case schema.KindEnum:
		counts := make(map[string]int)
		for _, ps := range pages {
			sig, ok := ps.Signals[p.ID]
			if !ok || sig.NA {
				continue
			}
			valued++
			normSum += p.Rule.Normalize(sig.Value)
			counts[sig.Str]++
		}
		if valued == 0 {
			return 0, "", true
		}
		modal, best := "", 0
		for tok, n := range counts {
			if n > best {
				modal, best = tok, n
			}
		}
		return normSum / float64(valued), modal, false
	}
	return 0, "", true
}

func observeSite(p schema.Parameter, sig Signal) string {
	switch p.Rule.Kind {
	case schema.KindBool:
		if sig.Bool {
			return "Yes"
		}
		return "No"
	case schema.KindRange:
		return formatNum(sig.Num, p.Rule.Unit)
	case schema.KindEnum:
		return sig.Str
	}
	return ""
}

func formatNum(v float64, unit string) string {
	var s string
	if v == math.Trunc(v) {
		s = strconv.FormatFloat(v, 'f', 0, 64)
	} else {
		s = strconv.FormatFloat(v, 'f', 1, 64)
	}
	return s + unit
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// debtRating maps the overall score and the count of badly failing
// technical or trust parameters onto the three-step debt scale.
func debtRating(overall float64, critical int) string {
	switch {
	case overall < debtHighBelow || critical >= criticalFailLimit:
		return TechDebtHigh
	case overall < debtMediumBelow:
		return TechDebtMedium
	default:
		return TechDebtLow
	}
}
