// Package compare builds the parameter-by-parameter gap report between a
// stored baseline analysis and a freshly analyzed competitor. Comparison is
// pure: it never refetches and never mutates its inputs.
package compare

import (
	"errors"

	"github.com/seo-compare/engine/analyzer"
	"github.com/seo-compare/engine/schema"
)

// Row statuses. A tie counts as Optimized: the competitor only has a gap
// when the baseline is strictly ahead.
const (
	StatusOptimized = "Optimized"
	StatusNeedsWork = "Needs-Improvement"
)

// ErrSchemaMismatch is returned when either result was produced with a
// different parameter catalog revision than this build compares with.
var ErrSchemaMismatch = errors.New("result schema versions do not match")

var std = schema.Load()

// Side summarizes one site in a comparison.
type Side struct {
	URL        string             `json:"url"`
	Overall    float64            `json:"overall_score"`
	Categories map[string]float64 `json:"category_scores"`
	TechDebt   string             `json:"technical_debt"`
}

// DetailRow is one parameter's line in the gap table.
type DetailRow struct {
	Label      string `json:"label"`
	Baseline   string `json:"baseline"`
	Competitor string `json:"competitor"`
	Status     string `json:"status"`
}

// Result is a full comparison. AIAnalysis and RunID are filled by the
// pipeline after comparison; Compare itself leaves them empty.
type Result struct {
	Baseline   Side        `json:"baseline"`
	Competitor Side        `json:"competitor"`
	Gaps       int         `json:"gaps"`
	Details    []DetailRow `json:"details"`
	AIAnalysis string      `json:"ai_analysis,omitempty"`
	RunID      string      `json:"run_id,omitempty"`
}

// Compare evaluates the competitor against the baseline across the whole
// catalog. Both results must carry the current schema version.
func Compare(baseline, competitor *analyzer.SiteResult) (*Result, error) {
	if baseline == nil {
		return nil, errors.New("missing baseline result")
	}
	if competitor == nil {
		return nil, errors.New("missing competitor result")
	}
	if baseline.SchemaVersion != schema.Version || competitor.SchemaVersion != schema.Version {
		return nil, ErrSchemaMismatch
	}

	res := &Result{
		Baseline:   side(baseline),
		Competitor: side(competitor),
		Details:    make([]DetailRow, 0, std.Len()),
	}

	for _, p := range std.Params() {
		bp, _ := baseline.Param(p.ID)
		cp, _ := competitor.Param(p.ID)

		row := DetailRow{
			Label:      p.Label,
			Baseline:   display(bp),
			Competitor: display(cp),
			Status:     status(bp, cp),
		}
		if row.Status == StatusNeedsWork {
			res.Gaps++
		}
		res.Details = append(res.Details, row)
	}
	return res, nil
}

func side(r *analyzer.SiteResult) Side {
	cats := make(map[string]float64, len(r.Categories))
	for k, v := range r.Categories {
		cats[k] = v
	}
	return Side{
		URL:        r.URL,
		Overall:    r.Overall,
		Categories: cats,
		TechDebt:   r.TechDebt,
	}
}

func display(p analyzer.ParamOutcome) string {
	if p.ID == "" || p.NA {
		return "N/A"
	}
	return p.Observed
}

// status grades the competitor per parameter. Evidence the competitor
// lacks while the baseline has it is a gap; evidence neither side has is
// not held against anyone.
func status(bp, cp analyzer.ParamOutcome) string {
	bNA := bp.ID == "" || bp.NA
	cNA := cp.ID == "" || cp.NA
	switch {
	case bNA && cNA:
		return StatusOptimized
	case cNA:
		return StatusNeedsWork
	case bNA:
		return StatusOptimized
	case cp.Score >= bp.Score:
		return StatusOptimized
	default:
		return StatusNeedsWork
	}
}
