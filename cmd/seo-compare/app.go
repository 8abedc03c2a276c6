package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/seo-compare/engine/baseline"
	"github.com/seo-compare/engine/config"
	"github.com/seo-compare/engine/fetch"
	"github.com/seo-compare/engine/insights"
	"github.com/seo-compare/engine/logging"
	"github.com/seo-compare/engine/pipeline"
	"github.com/seo-compare/engine/stats"
)

// crawlFlags are shared by the commands that run the pipeline. Zero
// values mean the environment (or default) wins.
type crawlFlags struct {
	depth    int
	pages    int
	fetchVia string
}

func (f *crawlFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.depth, "depth", 0, "max crawl depth (overrides MAX_CRAWL_DEPTH)")
	cmd.Flags().IntVar(&f.pages, "pages", 0, "max pages to crawl (overrides MAX_PAGES)")
	cmd.Flags().StringVar(&f.fetchVia, "fetch", "", "fetch mode: browser or http (overrides FETCH_MODE)")
}

func (f *crawlFlags) apply(cfg *config.Config) {
	if f.depth > 0 {
		cfg.MaxDepth = f.depth
	}
	if f.pages > 0 {
		cfg.MaxPages = f.pages
	}
	if f.fetchVia != "" {
		cfg.FetchMode = f.fetchVia
	}
}

// app wires the engine together from environment configuration. Every
// command builds one and closes it on the way out.
type app struct {
	cfg     *config.Config
	store   *baseline.Store
	usage   *stats.Storage
	pipe    *pipeline.Pipeline
	closers []func()
}

// buildApp loads config, applies any command-line overrides via tweak
// and assembles the engine.
func buildApp(ctx context.Context, tweak func(*config.Config)) (*app, error) {
	cfg := config.Load()
	if tweak != nil {
		tweak(cfg)
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})

	store, err := baseline.NewStore(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("baseline store: %w", err)
	}
	usage, err := stats.NewStorage(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("usage stats: %w", err)
	}
	gen, err := insights.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return nil, fmt.Errorf("insights: %w", err)
	}

	var (
		fetcher fetch.Fetcher
		closers []func()
	)
	if cfg.FetchMode == config.FetchModeHTTP {
		fetcher = fetch.NewClient(cfg.PageTimeout)
	} else {
		browser := fetch.NewBrowser(fetch.BrowserOptions{
			Timeout: cfg.PageTimeout,
			MaxTabs: int64(cfg.Concurrency),
		})
		fetcher = browser
		closers = append(closers, browser.Close)
	}
	closers = append(closers,
		func() { _ = gen.Close() },
		func() { _ = usage.Flush() },
	)

	return &app{
		cfg:     cfg,
		store:   store,
		usage:   usage,
		pipe:    pipeline.New(cfg, fetcher, store, gen, usage),
		closers: closers,
	}, nil
}

func (a *app) close() {
	for _, fn := range a.closers {
		fn()
	}
}

// printProgress writes pipeline events to stdout for the one-shot commands.
func printProgress(ev pipeline.Event) {
	switch ev.Type {
	case pipeline.EventStatus:
		fmt.Println(ev.Message)
	case pipeline.EventLog:
		fmt.Printf("  [%d] %s (depth %d)\n", ev.Status, ev.URL, ev.Depth)
	}
}
