// Package pipeline runs one full comparison: probe and crawl the
// competitor, extract signals from every fetched page, aggregate into a
// SiteResult, compare against the stored baseline, and attach the AI
// narrative. Page and parameter level faults degrade the data; only
// crawl-level and deadline failures abort a run, mapped onto a small
// sentinel taxonomy for the transport layer.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/seo-compare/engine/analyzer"
	"github.com/seo-compare/engine/baseline"
	"github.com/seo-compare/engine/compare"
	"github.com/seo-compare/engine/config"
	"github.com/seo-compare/engine/crawler"
	"github.com/seo-compare/engine/fetch"
	"github.com/seo-compare/engine/logging"
	"github.com/seo-compare/engine/stats"
)

// Narrator produces the opaque analysis string attached to comparison
// results. insights.Generator implements it.
type Narrator interface {
	Narrate(ctx context.Context, cmp *compare.Result) string
}

// Pipeline wires the crawl, analysis and comparison stages together.
// One Pipeline serves concurrent requests; the baseline extraction is
// the only operation serialized to one at a time.
type Pipeline struct {
	cfg      *config.Config
	fetcher  fetch.Fetcher
	probes   *fetch.Client
	store    *baseline.Store
	narrator Narrator
	usage    *stats.Storage
	cache    *resultCache
	log      zerolog.Logger

	extracting atomic.Bool
}

// New builds a Pipeline. narrator and usage may be nil; the narrative is
// then omitted and counters are not recorded.
func New(cfg *config.Config, fetcher fetch.Fetcher, store *baseline.Store, narrator Narrator, usage *stats.Storage) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		fetcher:  fetcher,
		probes:   fetch.NewClient(cfg.PageTimeout),
		store:    store,
		narrator: narrator,
		usage:    usage,
		cache:    newResultCache(cfg.CacheTTL),
		log:      logging.Component("pipeline"),
	}
}

// ValidateURL normalizes operator input. A bare host is given https;
// anything without a host or with a non-web scheme is rejected.
func ValidateURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("url is required")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("invalid url %q", raw)
	}
	return u.String(), nil
}

// Compare runs the full pipeline for competitorURL against the stored
// baseline. Progress events go to emit while the run is in flight; the
// returned comparison or error is the run's single terminal outcome.
func (p *Pipeline) Compare(ctx context.Context, competitorURL string, emit EventFunc) (*compare.Result, error) {
	if emit == nil {
		emit = func(Event) {}
	}
	ctx, cancel := context.WithTimeout(ctx, p.cfg.PipelineTimeout)
	defer cancel()

	base, err := p.store.Get()
	if err != nil {
		return nil, ErrNoBaseline
	}

	competitor, cached := p.cache.get(competitorURL)
	if cached {
		emit(statusEvent("Using cached competitor analysis..."))
		p.log.Info().Str("url", competitorURL).Msg("Competitor analysis served from cache")
	} else {
		competitor, err = p.analyze(ctx, competitorURL, emit)
		if err != nil {
			p.recordError()
			return nil, err
		}
		p.cache.put(competitorURL, competitor)
		if path, err := p.store.SaveCompetitor(competitor); err != nil {
			p.log.Warn().Err(err).Msg("Competitor snapshot not saved")
		} else {
			p.log.Debug().Str("path", path).Msg("Competitor snapshot saved")
		}
	}
	if p.usage != nil {
		p.usage.AddComparison(cached)
	}

	emit(statusEvent("Comparing against baseline..."))
	cmp, err := compare.Compare(base, competitor)
	if err != nil {
		p.recordError()
		return nil, err
	}

	emit(statusEvent("Generating AI analysis..."))
	if p.narrator != nil {
		cmp.AIAnalysis = p.narrator.Narrate(ctx, cmp)
	}
	cmp.RunID = uuid.NewString()
	return cmp, nil
}

// ExtractBaseline analyzes the configured reference site and swaps the
// result into the baseline store. Only one extraction runs at a time;
// a second caller gets ErrBusy instead of queueing.
func (p *Pipeline) ExtractBaseline(ctx context.Context, emit EventFunc) (*analyzer.SiteResult, error) {
	if !p.extracting.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer p.extracting.Store(false)

	ctx, cancel := context.WithTimeout(ctx, p.cfg.PipelineTimeout)
	defer cancel()

	res, err := p.analyze(ctx, p.cfg.BaselineURL, emit)
	if err != nil {
		p.recordError()
		return nil, err
	}
	if err := p.store.Set(res); err != nil {
		p.recordError()
		return nil, fmt.Errorf("persist baseline: %w", err)
	}
	if p.usage != nil {
		p.usage.AddExtraction()
	}
	p.log.Info().Str("url", res.URL).Float64("overall", res.Overall).Msg("Baseline updated")
	return res, nil
}

// ExtractCompetitor analyzes rawURL without comparing and persists a
// snapshot beside the baseline. Returns the result and snapshot path.
func (p *Pipeline) ExtractCompetitor(ctx context.Context, rawURL string, emit EventFunc) (*analyzer.SiteResult, string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.PipelineTimeout)
	defer cancel()

	res, err := p.analyze(ctx, rawURL, emit)
	if err != nil {
		p.recordError()
		return nil, "", err
	}
	p.cache.put(rawURL, res)

	path, err := p.store.SaveCompetitor(res)
	if err != nil {
		p.recordError()
		return nil, "", fmt.Errorf("persist snapshot: %w", err)
	}
	if p.usage != nil {
		p.usage.AddExtraction()
	}
	return res, path, nil
}

// analyze is the shared probe+crawl+extract+aggregate stage. ctx must
// already carry the pipeline deadline.
func (p *Pipeline) analyze(ctx context.Context, rawURL string, emit EventFunc) (*analyzer.SiteResult, error) {
	if emit == nil {
		emit = func(Event) {}
	}
	started := time.Now()

	emit(statusEvent("Initializing crawler..."))
	probe := fetch.ProbeSite(ctx, p.probes, rawURL)

	emit(statusEvent(fmt.Sprintf("Crawling %s...", rawURL)))
	cr := crawler.New(p.fetcher, crawler.Options{
		MaxDepth:    p.cfg.MaxDepth,
		MaxPages:    p.cfg.MaxPages,
		Concurrency: p.cfg.Concurrency,
	})
	crawl, err := cr.Crawl(ctx, rawURL, func(ev crawler.PageEvent) {
		emit(logEvent(ev.URL, ev.Status, ev.Depth))
	})
	if err != nil {
		return nil, classifyCrawlError(ctx, err)
	}

	emit(statusEvent("Extracting SEO signals..."))
	pages := make([]*analyzer.PageSignals, 0, len(crawl.Pages))
	for _, pr := range crawl.Pages {
		if ctx.Err() != nil {
			return nil, classifyCrawlError(ctx, ctx.Err())
		}
		pages = append(pages, analyzer.ExtractPage(pr, p.cfg.Keywords))
	}

	emit(statusEvent("Scoring categories..."))
	res := analyzer.Assemble(crawl, pages, probe, p.estimates())

	p.log.Info().
		Str("url", rawURL).
		Int("pages", res.PagesCrawled).
		Int("failed", res.PagesFailed).
		Float64("overall", res.Overall).
		Dur("took", time.Since(started)).
		Msg("Site analysis complete")
	return res, nil
}

func (p *Pipeline) estimates() analyzer.Estimates {
	return analyzer.Estimates{
		DomainAgeYears:   p.cfg.DomainAgeYears,
		DomainAuthority:  p.cfg.DomainAuthority,
		TotalBacklinks:   p.cfg.TotalBacklinks,
		ReferringDomains: p.cfg.ReferringDomains,
		OrganicKeywords:  p.cfg.OrganicKeywords,
		TrustSignals:     p.cfg.TrustSignals,
	}
}

func (p *Pipeline) recordError() {
	if p.usage != nil {
		p.usage.AddError()
	}
}
